package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/finchat/providers/ai"
	"github.com/leofalp/finchat/providers/observability"
	"github.com/leofalp/finchat/providers/tool"
)

var ErrNilProvider = errors.New("client: provider is nil")

// Client binds a provider to a model, a system prompt and a tool catalog.
// It holds no conversation state: callers pass the full message list on
// every call, so one Client can serve several loops concurrently.
type Client struct {
	provider     ai.Provider
	model        string
	systemPrompt string
	temperature  *float64
	maxTokens    int
	tools        *tool.Catalog
	observer     observability.Provider
	middlewares  []MiddlewareConfig

	send   SendFunc
	stream StreamFunc
}

type Option func(*Client)

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

func WithSystemPrompt(prompt string) Option {
	return func(c *Client) { c.systemPrompt = prompt }
}

func WithTemperature(temperature float64) Option {
	return func(c *Client) { c.temperature = &temperature }
}

func WithMaxTokens(maxTokens int) Option {
	return func(c *Client) { c.maxTokens = maxTokens }
}

// WithTools registers tools that are advertised on every request.
func WithTools(tools ...tool.GenericTool) Option {
	return func(c *Client) { c.tools.Add(tools...) }
}

// WithObserver enables tracing, metrics and logs for every call. The
// observability middleware is placed outside all other middleware.
func WithObserver(observer observability.Provider) Option {
	return func(c *Client) { c.observer = observer }
}

func WithMiddleware(middlewares ...MiddlewareConfig) Option {
	return func(c *Client) { c.middlewares = append(c.middlewares, middlewares...) }
}

// New builds a Client.
//
//	c, err := client.New(provider,
//	    client.WithModel("deepseek-r1-distill-llama-70b"),
//	    client.WithSystemPrompt("You are a financial analyst."),
//	    client.WithTools(yf.Tools(yfinance.AllToggles())...),
//	)
func New(provider ai.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	c := &Client{
		provider: provider,
		tools:    tool.NewCatalog(),
	}
	for _, opt := range opts {
		opt(c)
	}

	for i, mw := range c.middlewares {
		if mw.Send == nil {
			return nil, fmt.Errorf("client: middleware at index %d has a nil Send function", i)
		}
	}

	chain := c.middlewares
	if c.observer != nil {
		chain = append([]MiddlewareConfig{NewObservabilityMiddleware(c.observer, c.model)}, chain...)
	}
	c.send = buildSendChain(provider, chain)
	c.stream = buildStreamChain(provider, chain)
	return c, nil
}

func (c *Client) Model() string { return c.model }

func (c *Client) SystemPrompt() string { return c.systemPrompt }

func (c *Client) Tools() *tool.Catalog { return c.tools }

// Observer returns the configured observer, or nil.
func (c *Client) Observer() observability.Provider { return c.observer }

// IsStopMessage delegates to the provider.
func (c *Client) IsStopMessage(response *ai.ChatResponse) bool {
	return c.provider.IsStopMessage(response)
}

// Request assembles the ChatRequest sent for messages.
func (c *Client) Request(messages []ai.Message) ai.ChatRequest {
	return ai.ChatRequest{
		Model:        c.model,
		SystemPrompt: c.systemPrompt,
		Messages:     messages,
		Tools:        c.tools.Descriptions(),
		Temperature:  c.temperature,
		MaxTokens:    c.maxTokens,
	}
}

// Send performs a blocking completion over messages.
func (c *Client) Send(ctx context.Context, messages []ai.Message) (*ai.ChatResponse, error) {
	if len(messages) == 0 {
		return nil, errors.New("client: no messages to send")
	}
	return c.send(ctx, c.Request(messages))
}

// Stream opens a streamed completion over messages. The returned stream must
// be consumed.
func (c *Client) Stream(ctx context.Context, messages []ai.Message) (*ai.ChatStream, error) {
	if len(messages) == 0 {
		return nil, errors.New("client: no messages to send")
	}
	return c.stream(ctx, c.Request(messages))
}

// SendMessage sends a single user prompt without history.
func (c *Client) SendMessage(ctx context.Context, prompt string) (*ai.ChatResponse, error) {
	return c.Send(ctx, []ai.Message{{Role: ai.RoleUser, Content: prompt}})
}
