// Package webfetch is a tool that downloads a page and returns it as
// Markdown, so the web agent can quote and cite what it read.
package webfetch
