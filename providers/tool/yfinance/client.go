package yfinance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/leofalp/finchat/internal/utils"
)

const (
	DefaultBaseURL   = "https://query2.finance.yahoo.com"
	DefaultCookieURL = "https://fc.yahoo.com"
	// Yahoo refuses requests without a browser-like user agent.
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) finchat/1.0"
)

// ErrNotFound is returned when Yahoo has no data for a symbol.
var ErrNotFound = errors.New("yfinance: symbol not found")

type Client struct {
	baseURL    string
	cookieURL  string
	userAgent  string
	httpClient *http.Client

	mu    sync.Mutex
	crumb string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithCookieURL sets the page visited to obtain the session cookie.
func WithCookieURL(cookieURL string) Option {
	return func(c *Client) { c.cookieURL = cookieURL }
}

// WithHTTPClient replaces the HTTP client. A client without a cookie jar
// gets one, since the crumb is bound to the session cookie.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		cookieURL:  DefaultCookieURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Jar == nil {
		jar, _ := cookiejar.New(nil)
		clone := *c.httpClient
		clone.Jar = jar
		c.httpClient = &clone
	}
	return c
}

func (c *Client) headers() []utils.HeaderOption {
	return []utils.HeaderOption{utils.Header("User-Agent", c.userAgent)}
}

// getJSON fetches path relative to the base URL into T.
func getJSON[T any](ctx context.Context, c *Client, path string, query url.Values) (*T, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	_, out, err := utils.DoGetJSON[T](ctx, c.httpClient, target, c.headers()...)
	return out, err
}

// getJSONWithCrumb is getJSON for endpoints guarded by the crumb. A 401 or
// 403 invalidates the cached crumb and the request is tried once more.
func getJSONWithCrumb[T any](ctx context.Context, c *Client, path string, query url.Values) (*T, error) {
	for attempt := 0; ; attempt++ {
		crumb, err := c.ensureCrumb(ctx)
		if err != nil {
			return nil, err
		}
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("crumb", crumb)

		out, err := getJSON[T](ctx, c, path, q)
		var statusErr *utils.StatusError
		if attempt == 0 && errors.As(err, &statusErr) &&
			(statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden) {
			c.resetCrumb()
			continue
		}
		return out, err
	}
}

func (c *Client) ensureCrumb(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crumb != "" {
		return c.crumb, nil
	}

	// The cookie page answers 404 but still sets the session cookie.
	_, _, _ = utils.DoGetBody(ctx, c.httpClient, c.cookieURL, c.headers()...)

	_, body, err := utils.DoGetBody(ctx, c.httpClient, c.baseURL+"/v1/test/getcrumb", c.headers()...)
	if err != nil {
		return "", fmt.Errorf("yfinance: obtaining crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if crumb == "" || strings.ContainsAny(crumb, "<{") {
		return "", fmt.Errorf("yfinance: unexpected crumb response %q", utils.TruncateString(crumb, 80))
	}
	c.crumb = crumb
	return crumb, nil
}

func (c *Client) resetCrumb() {
	c.mu.Lock()
	c.crumb = ""
	c.mu.Unlock()
}

func normalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", errors.New("yfinance: symbol is required")
	}
	if strings.ContainsAny(s, " /?#&") {
		return "", fmt.Errorf("yfinance: invalid symbol %q", symbol)
	}
	return s, nil
}
