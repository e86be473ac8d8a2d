package yfinance

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"slices"
	"time"
)

// Periods and intervals accepted by the chart endpoint.
var (
	validPeriods   = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}
	validIntervals = []string{"1m", "2m", "5m", "15m", "30m", "60m", "90m", "1h", "1d", "5d", "1wk", "1mo", "3mo"}
)

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		Currency           string  `json:"currency"`
		ExchangeName       string  `json:"exchangeName"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		PreviousClose      float64 `json:"chartPreviousClose"`
		RegularMarketTime  int64   `json:"regularMarketTime"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (c *Client) chart(ctx context.Context, symbol, period, interval string) (*chartResult, error) {
	query := url.Values{}
	query.Set("range", period)
	query.Set("interval", interval)

	resp, err := getJSON[chartResponse](ctx, c, "/v8/finance/chart/"+url.PathEscape(symbol), query)
	if err != nil {
		return nil, fmt.Errorf("yfinance chart %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yfinance chart %s: %s: %w", symbol, resp.Chart.Error.Description, ErrNotFound)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yfinance chart %s: %w", symbol, ErrNotFound)
	}
	return &resp.Chart.Result[0], nil
}

type SymbolInput struct {
	Symbol string `json:"symbol" jsonschema:"description=Ticker symbol, e.g. NVDA or TATAMOTORS.NS"`
}

type PriceOutput struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency,omitempty"`
	Exchange      string  `json:"exchange,omitempty"`
	PreviousClose float64 `json:"previous_close,omitempty"`
	AsOf          string  `json:"as_of,omitempty"`
}

// CurrentPrice returns the regular market price of a symbol.
func (c *Client) CurrentPrice(ctx context.Context, in SymbolInput) (PriceOutput, error) {
	symbol, err := normalizeSymbol(in.Symbol)
	if err != nil {
		return PriceOutput{}, err
	}
	res, err := c.chart(ctx, symbol, "1d", "1d")
	if err != nil {
		return PriceOutput{}, err
	}

	out := PriceOutput{
		Symbol:        symbol,
		Price:         round(res.Meta.RegularMarketPrice, 4),
		Currency:      res.Meta.Currency,
		Exchange:      res.Meta.ExchangeName,
		PreviousClose: round(res.Meta.PreviousClose, 4),
	}
	if res.Meta.RegularMarketTime > 0 {
		out.AsOf = time.Unix(res.Meta.RegularMarketTime, 0).UTC().Format(time.RFC3339)
	}
	return out, nil
}

type HistoryInput struct {
	Symbol   string `json:"symbol" jsonschema:"description=Ticker symbol"`
	Period   string `json:"period,omitempty" jsonschema:"description=Range to cover: 1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd or max (default 1mo)"`
	Interval string `json:"interval,omitempty" jsonschema:"description=Bar size: 1d 5d 1wk 1mo or 3mo and intraday sizes (default 1d)"`
}

type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type HistoryOutput struct {
	Symbol   string `json:"symbol"`
	Period   string `json:"period"`
	Interval string `json:"interval"`
	Currency string `json:"currency,omitempty"`
	Bars     []Bar  `json:"bars"`
}

// History returns OHLCV bars. Bars with a missing close are skipped.
func (c *Client) History(ctx context.Context, in HistoryInput) (HistoryOutput, error) {
	symbol, err := normalizeSymbol(in.Symbol)
	if err != nil {
		return HistoryOutput{}, err
	}
	period, interval, err := periodAndInterval(in.Period, in.Interval, "1mo")
	if err != nil {
		return HistoryOutput{}, err
	}

	res, err := c.chart(ctx, symbol, period, interval)
	if err != nil {
		return HistoryOutput{}, err
	}
	return HistoryOutput{
		Symbol:   symbol,
		Period:   period,
		Interval: interval,
		Currency: res.Meta.Currency,
		Bars:     bars(res),
	}, nil
}

func periodAndInterval(period, interval, defaultPeriod string) (string, string, error) {
	if period == "" {
		period = defaultPeriod
	}
	if interval == "" {
		interval = "1d"
	}
	if !slices.Contains(validPeriods, period) {
		return "", "", fmt.Errorf("yfinance: unsupported period %q (valid: %v)", period, validPeriods)
	}
	if !slices.Contains(validIntervals, interval) {
		return "", "", fmt.Errorf("yfinance: unsupported interval %q (valid: %v)", interval, validIntervals)
	}
	return period, interval, nil
}

func bars(res *chartResult) []Bar {
	if len(res.Indicators.Quote) == 0 {
		return nil
	}
	q := res.Indicators.Quote[0]
	out := make([]Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		closePrice := at(q.Close, i)
		if closePrice == nil {
			continue
		}
		bar := Bar{
			Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close: round(*closePrice, 4),
		}
		if v := at(q.Open, i); v != nil {
			bar.Open = round(*v, 4)
		}
		if v := at(q.High, i); v != nil {
			bar.High = round(*v, 4)
		}
		if v := at(q.Low, i); v != nil {
			bar.Low = round(*v, 4)
		}
		if v := at(q.Volume, i); v != nil {
			bar.Volume = *v
		}
		out = append(out, bar)
	}
	return out
}

func at[T any](values []*T, i int) *T {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
