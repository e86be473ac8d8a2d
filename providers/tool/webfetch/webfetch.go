package webfetch

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leofalp/finchat/internal/utils"
	"github.com/leofalp/finchat/providers/tool"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "finchat-webfetch/1.0"
	// DefaultMaxChars bounds the Markdown handed back to the model.
	DefaultMaxChars = 20000
	maxRedirects    = 10
)

type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxChars   int
}

type Option func(*Fetcher)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = httpClient }
}

func WithUserAgent(userAgent string) Option {
	return func(f *Fetcher) { f.userAgent = userAgent }
}

func WithMaxChars(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxChars = n
		}
	}
}

func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (>%d)", maxRedirects)
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
		maxChars:  DefaultMaxChars,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchTool wraps Fetch as the "web_fetch" tool.
func (f *Fetcher) FetchTool() *tool.Tool[Input, Output] {
	return tool.NewTool("web_fetch", f.Fetch,
		tool.WithDescription("Download a web page and return its content as Markdown together with the final URL, for reading and citing sources."),
	)
}

type Input struct {
	URL string `json:"url" jsonschema:"description=Page to fetch; a missing scheme defaults to https"`
}

type Output struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Markdown  string `json:"markdown"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Fetch downloads in.URL. HTML is converted to Markdown; plain text and JSON
// are returned unchanged; other content types are rejected.
func (f *Fetcher) Fetch(ctx context.Context, in Input) (Output, error) {
	target := strings.TrimSpace(in.URL)
	if target == "" {
		return Output{}, fmt.Errorf("webfetch: url is required")
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "https://" + target
	}

	res, body, err := utils.DoGetBody(ctx, f.httpClient, target, utils.Header("User-Agent", f.userAgent))
	if err != nil {
		return Output{}, fmt.Errorf("webfetch %s: %w", target, err)
	}

	out := Output{URL: target}
	if res.Request != nil && res.Request.URL != nil {
		out.URL = res.Request.URL.String()
	}

	mediaType, _, _ := mime.ParseMediaType(res.Header.Get("Content-Type"))
	switch {
	case mediaType == "" || mediaType == "text/html" || mediaType == "application/xhtml+xml":
		out.Title = pageTitle(string(body))
		markdown, err := htmltomarkdown.ConvertString(string(body))
		if err != nil {
			return Output{}, fmt.Errorf("webfetch %s: converting HTML: %w", out.URL, err)
		}
		out.Markdown = markdown
	case strings.HasPrefix(mediaType, "text/") || mediaType == "application/json":
		out.Markdown = string(body)
	default:
		return Output{}, fmt.Errorf("webfetch %s: unsupported content type %q", out.URL, mediaType)
	}

	if len(out.Markdown) > f.maxChars {
		out.Markdown = utils.TruncateString(out.Markdown, f.maxChars)
		out.Truncated = true
	}
	return out, nil
}

// pageTitle returns the text of the first <title> element, if any.
func pageTitle(html string) string {
	lower := strings.ToLower(html)
	start := strings.Index(lower, "<title")
	if start < 0 {
		return ""
	}
	open := strings.Index(lower[start:], ">")
	if open < 0 {
		return ""
	}
	start += open + 1
	end := strings.Index(lower[start:], "</title>")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(html[start : start+end])
}
