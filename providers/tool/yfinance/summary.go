package yfinance

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteSummary `json:"result"`
		Error  *apiError      `json:"error"`
	} `json:"quoteSummary"`
}

// num is Yahoo's {"raw": 1.5, "fmt": "1.50"} value; missing values arrive as {}.
type num struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

func (n *num) ptr() *float64 {
	if n == nil || n.Raw == nil {
		return nil
	}
	v := *n.Raw
	return &v
}

type quoteSummary struct {
	AssetProfile *struct {
		LongBusinessSummary string `json:"longBusinessSummary"`
		Sector              string `json:"sector"`
		Industry            string `json:"industry"`
		Website             string `json:"website"`
		Country             string `json:"country"`
		FullTimeEmployees   int64  `json:"fullTimeEmployees"`
	} `json:"assetProfile"`
	Price *struct {
		LongName           string `json:"longName"`
		ShortName          string `json:"shortName"`
		Currency           string `json:"currency"`
		ExchangeName       string `json:"exchangeName"`
		RegularMarketPrice *num   `json:"regularMarketPrice"`
		MarketCap          *num   `json:"marketCap"`
	} `json:"price"`
	SummaryDetail *struct {
		TrailingPE       *num `json:"trailingPE"`
		ForwardPE        *num `json:"forwardPE"`
		DividendYield    *num `json:"dividendYield"`
		Beta             *num `json:"beta"`
		FiftyTwoWeekHigh *num `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow  *num `json:"fiftyTwoWeekLow"`
		AverageVolume    *num `json:"averageVolume"`
	} `json:"summaryDetail"`
	DefaultKeyStatistics *struct {
		TrailingEps     *num `json:"trailingEps"`
		ForwardEps      *num `json:"forwardEps"`
		PriceToBook     *num `json:"priceToBook"`
		PegRatio        *num `json:"pegRatio"`
		BookValue       *num `json:"bookValue"`
		EnterpriseValue *num `json:"enterpriseValue"`
	} `json:"defaultKeyStatistics"`
	FinancialData *struct {
		TargetMeanPrice   *num   `json:"targetMeanPrice"`
		RecommendationKey string `json:"recommendationKey"`
		TotalRevenue      *num   `json:"totalRevenue"`
		Ebitda            *num   `json:"ebitda"`
		FreeCashflow      *num   `json:"freeCashflow"`
		TotalCash         *num   `json:"totalCash"`
		TotalDebt         *num   `json:"totalDebt"`
		GrossMargins      *num   `json:"grossMargins"`
		OperatingMargins  *num   `json:"operatingMargins"`
		ProfitMargins     *num   `json:"profitMargins"`
		ReturnOnEquity    *num   `json:"returnOnEquity"`
		ReturnOnAssets    *num   `json:"returnOnAssets"`
		DebtToEquity      *num   `json:"debtToEquity"`
		CurrentRatio      *num   `json:"currentRatio"`
		QuickRatio        *num   `json:"quickRatio"`
		RevenueGrowth     *num   `json:"revenueGrowth"`
		EarningsGrowth    *num   `json:"earningsGrowth"`
	} `json:"financialData"`
	IncomeStatementHistory *struct {
		Statements []struct {
			EndDate         *num `json:"endDate"`
			TotalRevenue    *num `json:"totalRevenue"`
			CostOfRevenue   *num `json:"costOfRevenue"`
			GrossProfit     *num `json:"grossProfit"`
			OperatingIncome *num `json:"operatingIncome"`
			NetIncome       *num `json:"netIncome"`
		} `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistory"`
	RecommendationTrend *struct {
		Trend []RecommendationPeriod `json:"trend"`
	} `json:"recommendationTrend"`
}

func (c *Client) quoteSummary(ctx context.Context, rawSymbol string, modules ...string) (string, *quoteSummary, error) {
	symbol, err := normalizeSymbol(rawSymbol)
	if err != nil {
		return "", nil, err
	}
	query := url.Values{}
	query.Set("modules", strings.Join(modules, ","))

	resp, err := getJSONWithCrumb[quoteSummaryResponse](ctx, c, "/v10/finance/quoteSummary/"+url.PathEscape(symbol), query)
	if err != nil {
		return "", nil, fmt.Errorf("yfinance quoteSummary %s: %w", symbol, err)
	}
	if resp.QuoteSummary.Error != nil {
		return "", nil, fmt.Errorf("yfinance quoteSummary %s: %s: %w", symbol, resp.QuoteSummary.Error.Description, ErrNotFound)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return "", nil, fmt.Errorf("yfinance quoteSummary %s: %w", symbol, ErrNotFound)
	}
	return symbol, &resp.QuoteSummary.Result[0], nil
}

type CompanyInfo struct {
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name,omitempty"`
	Sector           string   `json:"sector,omitempty"`
	Industry         string   `json:"industry,omitempty"`
	Website          string   `json:"website,omitempty"`
	Country          string   `json:"country,omitempty"`
	Employees        int64    `json:"employees,omitempty"`
	Summary          string   `json:"summary,omitempty"`
	Currency         string   `json:"currency,omitempty"`
	Exchange         string   `json:"exchange,omitempty"`
	Price            *float64 `json:"price,omitempty"`
	MarketCap        *float64 `json:"market_cap,omitempty"`
	TrailingPE       *float64 `json:"trailing_pe,omitempty"`
	EPS              *float64 `json:"eps,omitempty"`
	FiftyTwoWeekHigh *float64 `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow  *float64 `json:"fifty_two_week_low,omitempty"`
	TargetMeanPrice  *float64 `json:"target_mean_price,omitempty"`
	Recommendation   string   `json:"recommendation,omitempty"`
}

func (c *Client) CompanyInfo(ctx context.Context, in SymbolInput) (CompanyInfo, error) {
	symbol, qs, err := c.quoteSummary(ctx, in.Symbol,
		"assetProfile", "price", "summaryDetail", "defaultKeyStatistics", "financialData")
	if err != nil {
		return CompanyInfo{}, err
	}

	out := CompanyInfo{Symbol: symbol}
	if p := qs.AssetProfile; p != nil {
		out.Sector, out.Industry, out.Website, out.Country = p.Sector, p.Industry, p.Website, p.Country
		out.Employees = p.FullTimeEmployees
		out.Summary = p.LongBusinessSummary
	}
	if p := qs.Price; p != nil {
		out.Name = firstNonEmpty(p.LongName, p.ShortName)
		out.Currency, out.Exchange = p.Currency, p.ExchangeName
		out.Price, out.MarketCap = p.RegularMarketPrice.ptr(), p.MarketCap.ptr()
	}
	if d := qs.SummaryDetail; d != nil {
		out.TrailingPE = d.TrailingPE.ptr()
		out.FiftyTwoWeekHigh, out.FiftyTwoWeekLow = d.FiftyTwoWeekHigh.ptr(), d.FiftyTwoWeekLow.ptr()
	}
	if s := qs.DefaultKeyStatistics; s != nil {
		out.EPS = s.TrailingEps.ptr()
	}
	if f := qs.FinancialData; f != nil {
		out.TargetMeanPrice = f.TargetMeanPrice.ptr()
		out.Recommendation = f.RecommendationKey
	}
	return out, nil
}

type Fundamentals struct {
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name,omitempty"`
	MarketCap        *float64 `json:"market_cap,omitempty"`
	EnterpriseValue  *float64 `json:"enterprise_value,omitempty"`
	TrailingPE       *float64 `json:"trailing_pe,omitempty"`
	ForwardPE        *float64 `json:"forward_pe,omitempty"`
	PEGRatio         *float64 `json:"peg_ratio,omitempty"`
	PriceToBook      *float64 `json:"price_to_book,omitempty"`
	BookValue        *float64 `json:"book_value,omitempty"`
	TrailingEPS      *float64 `json:"trailing_eps,omitempty"`
	ForwardEPS       *float64 `json:"forward_eps,omitempty"`
	DividendYield    *float64 `json:"dividend_yield,omitempty"`
	Beta             *float64 `json:"beta,omitempty"`
	AverageVolume    *float64 `json:"average_volume,omitempty"`
	FiftyTwoWeekHigh *float64 `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow  *float64 `json:"fifty_two_week_low,omitempty"`
}

func (c *Client) Fundamentals(ctx context.Context, in SymbolInput) (Fundamentals, error) {
	symbol, qs, err := c.quoteSummary(ctx, in.Symbol, "price", "summaryDetail", "defaultKeyStatistics")
	if err != nil {
		return Fundamentals{}, err
	}

	out := Fundamentals{Symbol: symbol}
	if p := qs.Price; p != nil {
		out.Name = firstNonEmpty(p.LongName, p.ShortName)
		out.MarketCap = p.MarketCap.ptr()
	}
	if d := qs.SummaryDetail; d != nil {
		out.TrailingPE, out.ForwardPE = d.TrailingPE.ptr(), d.ForwardPE.ptr()
		out.DividendYield, out.Beta = d.DividendYield.ptr(), d.Beta.ptr()
		out.AverageVolume = d.AverageVolume.ptr()
		out.FiftyTwoWeekHigh, out.FiftyTwoWeekLow = d.FiftyTwoWeekHigh.ptr(), d.FiftyTwoWeekLow.ptr()
	}
	if s := qs.DefaultKeyStatistics; s != nil {
		out.EnterpriseValue = s.EnterpriseValue.ptr()
		out.PEGRatio, out.PriceToBook, out.BookValue = s.PegRatio.ptr(), s.PriceToBook.ptr(), s.BookValue.ptr()
		out.TrailingEPS, out.ForwardEPS = s.TrailingEps.ptr(), s.ForwardEps.ptr()
	}
	return out, nil
}

type FinancialRatios struct {
	Symbol           string   `json:"symbol"`
	GrossMargins     *float64 `json:"gross_margins,omitempty"`
	OperatingMargins *float64 `json:"operating_margins,omitempty"`
	ProfitMargins    *float64 `json:"profit_margins,omitempty"`
	ReturnOnEquity   *float64 `json:"return_on_equity,omitempty"`
	ReturnOnAssets   *float64 `json:"return_on_assets,omitempty"`
	DebtToEquity     *float64 `json:"debt_to_equity,omitempty"`
	CurrentRatio     *float64 `json:"current_ratio,omitempty"`
	QuickRatio       *float64 `json:"quick_ratio,omitempty"`
	RevenueGrowth    *float64 `json:"revenue_growth,omitempty"`
	EarningsGrowth   *float64 `json:"earnings_growth,omitempty"`
	TotalRevenue     *float64 `json:"total_revenue,omitempty"`
	Ebitda           *float64 `json:"ebitda,omitempty"`
	FreeCashflow     *float64 `json:"free_cashflow,omitempty"`
	TotalCash        *float64 `json:"total_cash,omitempty"`
	TotalDebt        *float64 `json:"total_debt,omitempty"`
}

func (c *Client) FinancialRatios(ctx context.Context, in SymbolInput) (FinancialRatios, error) {
	symbol, qs, err := c.quoteSummary(ctx, in.Symbol, "financialData")
	if err != nil {
		return FinancialRatios{}, err
	}
	out := FinancialRatios{Symbol: symbol}
	f := qs.FinancialData
	if f == nil {
		return out, nil
	}
	out.GrossMargins, out.OperatingMargins, out.ProfitMargins = f.GrossMargins.ptr(), f.OperatingMargins.ptr(), f.ProfitMargins.ptr()
	out.ReturnOnEquity, out.ReturnOnAssets = f.ReturnOnEquity.ptr(), f.ReturnOnAssets.ptr()
	out.DebtToEquity, out.CurrentRatio, out.QuickRatio = f.DebtToEquity.ptr(), f.CurrentRatio.ptr(), f.QuickRatio.ptr()
	out.RevenueGrowth, out.EarningsGrowth = f.RevenueGrowth.ptr(), f.EarningsGrowth.ptr()
	out.TotalRevenue, out.Ebitda, out.FreeCashflow = f.TotalRevenue.ptr(), f.Ebitda.ptr(), f.FreeCashflow.ptr()
	out.TotalCash, out.TotalDebt = f.TotalCash.ptr(), f.TotalDebt.ptr()
	return out, nil
}

type IncomeStatement struct {
	EndDate         string   `json:"end_date"`
	TotalRevenue    *float64 `json:"total_revenue,omitempty"`
	CostOfRevenue   *float64 `json:"cost_of_revenue,omitempty"`
	GrossProfit     *float64 `json:"gross_profit,omitempty"`
	OperatingIncome *float64 `json:"operating_income,omitempty"`
	NetIncome       *float64 `json:"net_income,omitempty"`
}

type IncomeStatements struct {
	Symbol     string            `json:"symbol"`
	Currency   string            `json:"currency,omitempty"`
	Statements []IncomeStatement `json:"statements"`
}

// IncomeStatements returns the annual income statements, most recent first.
func (c *Client) IncomeStatements(ctx context.Context, in SymbolInput) (IncomeStatements, error) {
	symbol, qs, err := c.quoteSummary(ctx, in.Symbol, "incomeStatementHistory", "price")
	if err != nil {
		return IncomeStatements{}, err
	}
	out := IncomeStatements{Symbol: symbol, Statements: []IncomeStatement{}}
	if qs.Price != nil {
		out.Currency = qs.Price.Currency
	}
	if qs.IncomeStatementHistory == nil {
		return out, nil
	}
	for _, s := range qs.IncomeStatementHistory.Statements {
		statement := IncomeStatement{
			TotalRevenue:    s.TotalRevenue.ptr(),
			CostOfRevenue:   s.CostOfRevenue.ptr(),
			GrossProfit:     s.GrossProfit.ptr(),
			OperatingIncome: s.OperatingIncome.ptr(),
			NetIncome:       s.NetIncome.ptr(),
		}
		if s.EndDate != nil {
			statement.EndDate = s.EndDate.Fmt
		}
		out.Statements = append(out.Statements, statement)
	}
	return out, nil
}

// RecommendationPeriod counts analyst ratings; Period is "0m" for the
// current month, "-1m" for the previous one and so on.
type RecommendationPeriod struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
}

type AnalystRecommendations struct {
	Symbol    string                 `json:"symbol"`
	Consensus string                 `json:"consensus,omitempty"`
	Trend     []RecommendationPeriod `json:"trend"`
}

func (c *Client) AnalystRecommendations(ctx context.Context, in SymbolInput) (AnalystRecommendations, error) {
	symbol, qs, err := c.quoteSummary(ctx, in.Symbol, "recommendationTrend", "financialData")
	if err != nil {
		return AnalystRecommendations{}, err
	}
	out := AnalystRecommendations{Symbol: symbol, Trend: []RecommendationPeriod{}}
	if qs.RecommendationTrend != nil {
		out.Trend = append(out.Trend, qs.RecommendationTrend.Trend...)
	}
	if qs.FinancialData != nil {
		out.Consensus = qs.FinancialData.RecommendationKey
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
