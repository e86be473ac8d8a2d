package yfinance

import "context"

type TechnicalInput struct {
	Symbol string `json:"symbol" jsonschema:"description=Ticker symbol"`
	Period string `json:"period,omitempty" jsonschema:"description=History used for the calculation: 1mo 3mo 6mo 1y 2y or 5y (default 6mo)"`
}

// TechnicalOutput holds indicators computed from daily closes. An indicator
// is omitted when the period holds too few bars to compute it.
type TechnicalOutput struct {
	Symbol        string   `json:"symbol"`
	Period        string   `json:"period"`
	LastClose     float64  `json:"last_close"`
	SMA20         *float64 `json:"sma_20,omitempty"`
	SMA50         *float64 `json:"sma_50,omitempty"`
	EMA12         *float64 `json:"ema_12,omitempty"`
	EMA26         *float64 `json:"ema_26,omitempty"`
	MACD          *float64 `json:"macd,omitempty"`
	MACDSignal    *float64 `json:"macd_signal,omitempty"`
	MACDHistogram *float64 `json:"macd_histogram,omitempty"`
	RSI14         *float64 `json:"rsi_14,omitempty"`
	RecentBars    []Bar    `json:"recent_bars"`
}

const recentBarCount = 10

func (c *Client) TechnicalIndicators(ctx context.Context, in TechnicalInput) (TechnicalOutput, error) {
	symbol, err := normalizeSymbol(in.Symbol)
	if err != nil {
		return TechnicalOutput{}, err
	}
	period, interval, err := periodAndInterval(in.Period, "1d", "6mo")
	if err != nil {
		return TechnicalOutput{}, err
	}
	res, err := c.chart(ctx, symbol, period, interval)
	if err != nil {
		return TechnicalOutput{}, err
	}

	history := bars(res)
	closes := make([]float64, len(history))
	for i, b := range history {
		closes[i] = b.Close
	}

	out := TechnicalOutput{
		Symbol:     symbol,
		Period:     period,
		RecentBars: history[max(0, len(history)-recentBarCount):],
	}
	if len(closes) == 0 {
		return out, nil
	}
	out.LastClose = closes[len(closes)-1]
	out.SMA20 = roundPtr(sma(closes, 20))
	out.SMA50 = roundPtr(sma(closes, 50))
	out.EMA12 = roundPtr(last(ema(closes, 12)))
	out.EMA26 = roundPtr(last(ema(closes, 26)))
	if line, signal := macd(closes); signal != nil {
		histogram := *line - *signal
		out.MACD, out.MACDSignal, out.MACDHistogram = roundPtr(line), roundPtr(signal), roundPtr(&histogram)
	}
	out.RSI14 = roundPtr(rsi(closes, 14))
	return out, nil
}

// sma is the mean of the last n values.
func sma(values []float64, n int) *float64 {
	if n <= 0 || len(values) < n {
		return nil
	}
	sum := 0.0
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	mean := sum / float64(n)
	return &mean
}

// ema returns the exponential moving average series seeded with the SMA of
// the first n values. Element i corresponds to values[i+n-1].
func ema(values []float64, n int) []float64 {
	seed := sma(values[:min(n, len(values))], n)
	if seed == nil {
		return nil
	}
	k := 2.0 / float64(n+1)
	out := make([]float64, 0, len(values)-n+1)
	out = append(out, *seed)
	for _, v := range values[n:] {
		prev := out[len(out)-1]
		out = append(out, v*k+prev*(1-k))
	}
	return out
}

// macd returns the latest MACD(12,26) line value and its 9-period signal.
func macd(values []float64) (*float64, *float64) {
	fast, slow := ema(values, 12), ema(values, 26)
	if slow == nil {
		return nil, nil
	}
	// Align the fast series with the slow one, which starts 14 bars later.
	fast = fast[len(fast)-len(slow):]
	line := make([]float64, len(slow))
	for i := range slow {
		line[i] = fast[i] - slow[i]
	}
	signal := ema(line, 9)
	if signal == nil {
		return nil, nil
	}
	return &line[len(line)-1], &signal[len(signal)-1]
}

// rsi is Wilder's relative strength index over n periods.
func rsi(values []float64, n int) *float64 {
	if n <= 0 || len(values) <= n {
		return nil
	}
	var gain, loss float64
	for i := 1; i <= n; i++ {
		gain, loss = accumulate(gain, loss, values[i]-values[i-1])
	}
	gain /= float64(n)
	loss /= float64(n)

	for i := n + 1; i < len(values); i++ {
		g, l := accumulate(0, 0, values[i]-values[i-1])
		gain = (gain*float64(n-1) + g) / float64(n)
		loss = (loss*float64(n-1) + l) / float64(n)
	}

	value := 100.0
	if loss > 0 {
		value = 100 - 100/(1+gain/loss)
	}
	return &value
}

func accumulate(gain, loss, change float64) (float64, float64) {
	if change > 0 {
		return gain + change, loss
	}
	return gain, loss - change
}

func last(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	return &values[len(values)-1]
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round(*v, 4)
	return &r
}
