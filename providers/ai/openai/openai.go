package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/leofalp/finchat/internal/utils"
	"github.com/leofalp/finchat/providers/ai"
	"github.com/leofalp/finchat/providers/observability"
)

const (
	DefaultBaseURL          = "https://api.groq.com/openai/v1"
	chatCompletionsEndpoint = "/chat/completions"
)

// ErrMissingAPIKey is returned when a request is attempted without a key.
var ErrMissingAPIKey = errors.New("openai: API key is not set")

// Provider talks to an OpenAI-compatible chat completions API.
type Provider struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	capabilities Capabilities
}

var (
	_ ai.Provider       = (*Provider)(nil)
	_ ai.StreamProvider = (*Provider)(nil)
)

// New creates a provider. The key is taken from GROQ_API_KEY, then
// OPENAI_API_KEY; the base URL from OPENAI_BASE_URL, else DefaultBaseURL.
func New() *Provider {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Provider{
		apiKey:       apiKey,
		baseURL:      baseURL,
		client:       &http.Client{},
		capabilities: detectCapabilities(baseURL),
	}
}

func (p *Provider) WithAPIKey(apiKey string) *Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL also re-detects the host capabilities.
func (p *Provider) WithBaseURL(baseURL string) *Provider {
	p.baseURL = baseURL
	p.capabilities = detectCapabilities(baseURL)
	return p
}

func (p *Provider) WithHTTPClient(client *http.Client) *Provider {
	p.client = client
	return p
}

// WithCapabilities overrides detection for hosts it does not know.
func (p *Provider) WithCapabilities(capabilities Capabilities) *Provider {
	p.capabilities = capabilities
	return p
}

func (p *Provider) Capabilities() Capabilities {
	return p.capabilities
}

func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	p.annotate(ctx, request, false)

	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body := toChatCompletionRequest(request, p.capabilities)
	_, resp, err := utils.DoPostJSON[chatCompletionResponse](ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, body)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: response %s has no choices", resp.ID)
	}

	out := fromChatCompletionResponse(resp)
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventLLMRequestEnd,
			observability.String(observability.AttrLLMResponseID, out.ID),
			observability.String(observability.AttrLLMFinishReason, out.FinishReason),
		)
	}
	return out, nil
}

// IsStopMessage treats any response without tool calls as final.
func (p *Provider) IsStopMessage(response *ai.ChatResponse) bool {
	if response == nil {
		return true
	}
	if len(response.ToolCalls) > 0 {
		return false
	}
	switch response.FinishReason {
	case "tool_calls", "function_call":
		return false
	}
	return true
}

func (p *Provider) annotate(ctx context.Context, request ai.ChatRequest, streaming bool) {
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, p.capabilities.Name),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Bool(observability.AttrLLMStreaming, streaming),
		)
	}
	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Trace(ctx, "Preparing chat completion request",
			observability.String(observability.AttrLLMProvider, p.capabilities.Name),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
			observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
			observability.Bool(observability.AttrLLMStreaming, streaming),
		)
	}
}
