package yfinance

import "github.com/leofalp/finchat/providers/tool"

// Toggles selects which tools Tools returns.
type Toggles struct {
	StockPrice             bool
	CompanyInfo            bool
	StockFundamentals      bool
	IncomeStatements       bool
	KeyFinancialRatios     bool
	AnalystRecommendations bool
	TechnicalIndicators    bool
	HistoricalPrices       bool
	CompanyNews            bool
}

// AllToggles enables the eight analysis tools. Company news stays off; the
// web search agent covers headlines.
func AllToggles() Toggles {
	return Toggles{
		StockPrice:             true,
		CompanyInfo:            true,
		StockFundamentals:      true,
		IncomeStatements:       true,
		KeyFinancialRatios:     true,
		AnalystRecommendations: true,
		TechnicalIndicators:    true,
		HistoricalPrices:       true,
	}
}

// Tools returns the enabled tools in a stable order.
func (c *Client) Tools(t Toggles) []tool.GenericTool {
	var tools []tool.GenericTool
	if t.StockPrice {
		tools = append(tools, tool.NewTool("get_current_stock_price", c.CurrentPrice,
			tool.WithDescription("Get the current stock price for a ticker symbol.")))
	}
	if t.CompanyInfo {
		tools = append(tools, tool.NewTool("get_company_info", c.CompanyInfo,
			tool.WithDescription("Get company profile and overview: sector, industry, business summary, market cap, valuation and analyst target.")))
	}
	if t.StockFundamentals {
		tools = append(tools, tool.NewTool("get_stock_fundamentals", c.Fundamentals,
			tool.WithDescription("Get valuation fundamentals: market cap, P/E, PEG, price to book, EPS, dividend yield, beta and 52-week range.")))
	}
	if t.IncomeStatements {
		tools = append(tools, tool.NewTool("get_income_statements", c.IncomeStatements,
			tool.WithDescription("Get annual income statements: revenue, gross profit, operating income and net income.")))
	}
	if t.KeyFinancialRatios {
		tools = append(tools, tool.NewTool("get_key_financial_ratios", c.FinancialRatios,
			tool.WithDescription("Get key financial ratios: margins, returns on equity and assets, liquidity, leverage and growth.")))
	}
	if t.AnalystRecommendations {
		tools = append(tools, tool.NewTool("get_analyst_recommendations", c.AnalystRecommendations,
			tool.WithDescription("Get analyst recommendation counts (strong buy to strong sell) for recent months.")))
	}
	if t.TechnicalIndicators {
		tools = append(tools, tool.NewTool("get_technical_indicators", c.TechnicalIndicators,
			tool.WithDescription("Get technical indicators from daily closes: SMA 20/50, EMA 12/26, MACD and RSI 14, plus the latest bars.")))
	}
	if t.HistoricalPrices {
		tools = append(tools, tool.NewTool("get_historical_stock_prices", c.History,
			tool.WithDescription("Get historical OHLCV prices for a ticker over a period and interval.")))
	}
	if t.CompanyNews {
		tools = append(tools, tool.NewTool("get_company_news", c.CompanyNews,
			tool.WithDescription("Get recent news headlines about a company.")))
	}
	return tools
}
