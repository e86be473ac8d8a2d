// Package duckduckgo exposes the DuckDuckGo Instant Answer API as a tool.
// The API returns abstracts, direct answers and related topics rather than a
// full result page, which is enough for the web agent to find sources it can
// then read with the webfetch tool.
package duckduckgo
