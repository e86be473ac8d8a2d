package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leofalp/finchat/providers/ai"
)

func newTestProvider(server *httptest.Server) *Provider {
	return New().WithAPIKey("test-key").WithBaseURL(server.URL).WithHTTPClient(server.Client())
}

func TestSendMessage_ConvertsRequestAndResponse(t *testing.T) {
	var captured chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		fmt.Fprint(w, `{
			"id": "chatcmpl-1",
			"model": "deepseek-r1-distill-llama-70b",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "<think>check price</think>\n\nNVDA is at 120."}
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	}))
	defer server.Close()

	resp, err := newTestProvider(server).SendMessage(context.Background(), ai.ChatRequest{
		Model:        "deepseek-r1-distill-llama-70b",
		SystemPrompt: "be brief",
		Messages:     []ai.Message{{Role: ai.RoleUser, Content: "NVDA?"}},
		Tools:        []ai.ToolDescription{{Name: "get_stock_price", Description: "price"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Content != "NVDA?" {
		t.Errorf("unexpected wire messages %+v", captured.Messages)
	}
	if len(captured.Tools) != 1 || captured.Tools[0].Function.Name != "get_stock_price" || captured.ToolChoice != "auto" {
		t.Errorf("unexpected wire tools %+v", captured.Tools)
	}
	if captured.Stream {
		t.Error("blocking request must not set stream")
	}

	if resp.Content != "NVDA is at 120." {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Reasoning != "check price" {
		t.Errorf("reasoning = %q", resp.Reasoning)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 15 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestSendMessage_ToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"x","choices":[{"finish_reason":"tool_calls","message":{"role":"assistant","content":"",
			"tool_calls":[{"id":"call_1","type":"function","function":{"name":"get_stock_price","arguments":"{\"symbol\":\"TSLA\"}"}}]}}]}`)
	}))
	defer server.Close()

	p := newTestProvider(server)
	resp, err := p.SendMessage(context.Background(), ai.ChatRequest{Messages: []ai.Message{{Role: ai.RoleUser, Content: "TSLA"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Function.Arguments != `{"symbol":"TSLA"}` {
		t.Fatalf("unexpected tool calls %+v", resp.ToolCalls)
	}
	if p.IsStopMessage(resp) {
		t.Error("response with tool calls must not be a stop message")
	}
}

func TestSendMessage_Errors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		p := New().WithAPIKey("").WithBaseURL("http://127.0.0.1:1")
		_, err := p.SendMessage(context.Background(), ai.ChatRequest{})
		if !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("expected ErrMissingAPIKey, got %v", err)
		}
	})

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id":"empty","choices":[]}`)
		}))
		defer server.Close()
		if _, err := newTestProvider(server).SendMessage(context.Background(), ai.ChatRequest{}); err == nil {
			t.Error("expected error for empty choices")
		}
	})

	t.Run("http error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"message":"Invalid API Key"}}`)
		}))
		defer server.Close()
		if _, err := newTestProvider(server).SendMessage(context.Background(), ai.ChatRequest{}); err == nil {
			t.Error("expected error for 401")
		}
	})
}

func TestIsStopMessage(t *testing.T) {
	p := New()
	tests := []struct {
		name string
		resp *ai.ChatResponse
		want bool
	}{
		{"nil", nil, true},
		{"plain answer", &ai.ChatResponse{Content: "hi", FinishReason: "stop"}, true},
		{"length cut", &ai.ChatResponse{Content: "hi", FinishReason: "length"}, true},
		{"tool calls", &ai.ChatResponse{ToolCalls: []ai.ToolCall{{ID: "1"}}}, false},
		{"tool finish reason", &ai.ChatResponse{FinishReason: "tool_calls"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.IsStopMessage(tt.resp); got != tt.want {
				t.Errorf("IsStopMessage = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectCapabilities(t *testing.T) {
	tests := []struct {
		baseURL string
		want    string
	}{
		{"https://api.groq.com/openai/v1", "groq"},
		{"https://api.openai.com/v1", "openai"},
		{"https://openrouter.ai/api/v1", "openrouter"},
		{"http://localhost:11434/v1", "ollama"},
		{"https://example.com/v1", "openai-compatible"},
	}
	for _, tt := range tests {
		if got := detectCapabilities(tt.baseURL).Name; got != tt.want {
			t.Errorf("detectCapabilities(%q) = %q, want %q", tt.baseURL, got, tt.want)
		}
	}
	if detectCapabilities(DefaultBaseURL).ReasoningFormat != "raw" {
		t.Error("groq should request raw reasoning format")
	}
}

func TestToChatCompletionRequest_ToolMessages(t *testing.T) {
	temp := 0.2
	req := toChatCompletionRequest(ai.ChatRequest{
		Model:       "m",
		Temperature: &temp,
		MaxTokens:   256,
		Messages: []ai.Message{
			{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "c1", Function: ai.ToolCallFunction{Name: "f", Arguments: "{}"}}}},
			{Role: ai.RoleTool, ToolCallID: "c1", Name: "f", Content: `{"success":true}`},
		},
	}, Capabilities{})

	if req.Temperature == nil || *req.Temperature != 0.2 || req.MaxTokens == nil || *req.MaxTokens != 256 {
		t.Errorf("generation settings not mapped: %+v", req)
	}
	if req.Messages[0].ToolCalls[0].Type != "function" || req.Messages[0].ToolCalls[0].Function.Name != "f" {
		t.Errorf("assistant tool call not mapped: %+v", req.Messages[0])
	}
	if req.Messages[1].ToolCallID != "c1" || req.Messages[1].Name != "f" {
		t.Errorf("tool message not mapped: %+v", req.Messages[1])
	}
	if req.ToolChoice != "" || req.ParallelToolCalls != nil {
		t.Error("tool_choice must be omitted without tools")
	}
}
