// Package yfinance provides the financial agent's tools on top of Yahoo
// Finance's public JSON endpoints: the chart API for prices and history, the
// quoteSummary API for company data, and search for headlines.
//
// quoteSummary requires a session cookie and a "crumb" token. The client
// obtains both lazily on first use and retries once with a fresh crumb when
// Yahoo rejects the current one.
//
// Which tools are exposed is controlled by [Toggles], mirroring the switches
// of the financial agent:
//
//	client := yfinance.New()
//	tools := client.Tools(yfinance.AllToggles())
package yfinance
