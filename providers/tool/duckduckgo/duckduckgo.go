package duckduckgo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/leofalp/finchat/internal/utils"
	"github.com/leofalp/finchat/providers/tool"
)

const (
	DefaultBaseURL    = "https://api.duckduckgo.com"
	DefaultMaxResults = 5
	userAgent         = "finchat-duckduckgo/1.0"
)

// Client queries the Instant Answer API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxResults int
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithMaxResults caps the related topics returned per query.
func WithMaxResults(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchTool wraps Search as the "duckduckgo_search" tool.
func (c *Client) SearchTool() *tool.Tool[Input, Output] {
	return tool.NewTool("duckduckgo_search", c.Search,
		tool.WithDescription("Search the web with DuckDuckGo. Returns an abstract, a direct answer when available, and related topics with their URLs."),
	)
}

type Input struct {
	Query string `json:"query" jsonschema:"description=What to search for, e.g. 'Nvidia latest earnings'"`
}

type Output struct {
	Query      string   `json:"query"`
	Heading    string   `json:"heading,omitempty"`
	Abstract   string   `json:"abstract,omitempty"`
	Source     string   `json:"source,omitempty"`
	SourceURL  string   `json:"source_url,omitempty"`
	Answer     string   `json:"answer,omitempty"`
	Definition string   `json:"definition,omitempty"`
	Results    []Result `json:"results,omitempty"`
	// Summary is a plain-text digest of the fields above.
	Summary string `json:"summary"`
}

type Result struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

func (c *Client) Search(ctx context.Context, in Input) (Output, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return Output{}, fmt.Errorf("duckduckgo: query is required")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	_, resp, err := utils.DoGetJSON[instantAnswer](ctx, c.httpClient, c.baseURL+"/?"+params.Encode(),
		utils.Header("User-Agent", userAgent))
	if err != nil {
		return Output{}, fmt.Errorf("duckduckgo search %q: %w", query, err)
	}

	out := Output{
		Query:      query,
		Heading:    resp.Heading,
		Abstract:   resp.AbstractText,
		Source:     resp.AbstractSource,
		SourceURL:  resp.AbstractURL,
		Answer:     answerText(resp.Answer),
		Definition: resp.Definition,
	}
	for _, r := range append(resp.Results, flattenTopics(resp.RelatedTopics)...) {
		if len(out.Results) >= c.maxResults {
			break
		}
		if r.Text == "" {
			continue
		}
		out.Results = append(out.Results, Result{Text: r.Text, URL: absoluteURL(r.FirstURL)})
	}
	out.Summary = summarize(out)
	return out, nil
}

func summarize(out Output) string {
	var parts []string
	if out.Abstract != "" {
		parts = append(parts, "Abstract: "+out.Abstract)
		if out.SourceURL != "" {
			parts = append(parts, fmt.Sprintf("Source: %s (%s)", out.Source, out.SourceURL))
		}
	}
	if out.Answer != "" {
		parts = append(parts, "Answer: "+out.Answer)
	}
	if out.Definition != "" {
		parts = append(parts, "Definition: "+out.Definition)
	}
	for _, r := range out.Results {
		line := "- " + r.Text
		if r.URL != "" {
			line += " <" + r.URL + ">"
		}
		parts = append(parts, line)
	}
	if len(parts) == 0 {
		return "No results found for this query."
	}
	return strings.Join(parts, "\n")
}

type instantAnswer struct {
	Heading        string          `json:"Heading"`
	AbstractText   string          `json:"AbstractText"`
	AbstractSource string          `json:"AbstractSource"`
	AbstractURL    string          `json:"AbstractURL"`
	Answer         json.RawMessage `json:"Answer"`
	Definition     string          `json:"Definition"`
	RelatedTopics  []topic         `json:"RelatedTopics"`
	Results        []topic         `json:"Results"`
}

// topic is either a leaf with Text/FirstURL or a named group of leaves.
type topic struct {
	Text     string  `json:"Text"`
	FirstURL string  `json:"FirstURL"`
	Name     string  `json:"Name"`
	Topics   []topic `json:"Topics"`
}

func flattenTopics(topics []topic) []topic {
	var out []topic
	for _, t := range topics {
		if len(t.Topics) > 0 {
			out = append(out, flattenTopics(t.Topics)...)
			continue
		}
		out = append(out, t)
	}
	return out
}

// answerText handles Answer being a string or, for calculators and similar
// widgets, an object.
func answerText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Result
	}
	return ""
}

func absoluteURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return "https://duckduckgo.com" + path
	}
	return path
}
