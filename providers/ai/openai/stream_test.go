package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leofalp/finchat/providers/ai"
)

func sseServer(t *testing.T, chunks ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !req.Stream {
			t.Error("expected stream=true")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestStreamMessage_ContentAndThinkTags(t *testing.T) {
	server := sseServer(t,
		`{"id":"1","choices":[{"index":0,"delta":{"role":"assistant","content":"<thi"}}]}`,
		`{"id":"1","choices":[{"index":0,"delta":{"content":"nk>reason</think>\n"}}]}`,
		`{"id":"1","choices":[{"index":0,"delta":{"content":"NVDA "}}]}`,
		`{"id":"1","choices":[{"index":0,"delta":{"content":"rose"},"finish_reason":"stop"}],"x_groq":{"usage":{"total_tokens":9}}}`,
	)
	defer server.Close()

	stream, err := newTestProvider(server).StreamMessage(context.Background(), ai.ChatRequest{Model: "m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var visible strings.Builder
	resp, err := stream.CollectWith(func(e ai.StreamEvent) {
		if e.Type == ai.StreamEventContent {
			visible.WriteString(e.Content)
		}
	})
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if visible.String() != "NVDA rose" {
		t.Errorf("visible content = %q", visible.String())
	}
	if resp.Reasoning != "reason" {
		t.Errorf("reasoning = %q", resp.Reasoning)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("finish reason = %q", resp.FinishReason)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 9 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestStreamMessage_ToolCallDeltas(t *testing.T) {
	server := sseServer(t,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"get_stock_price","arguments":""}}]}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"symbol\":"}}]}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"NVDA\"}"}}]},"finish_reason":"tool_calls"}]}`,
	)
	defer server.Close()

	stream, err := newTestProvider(server).StreamMessage(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected one tool call, got %+v", resp.ToolCalls)
	}
	if resp.ToolCalls[0].Function.Arguments != `{"symbol":"NVDA"}` {
		t.Errorf("arguments = %q", resp.ToolCalls[0].Function.Arguments)
	}
}

func TestStreamMessage_MalformedChunk(t *testing.T) {
	server := sseServer(t, `{"choices":[{"delta":{"content":"ok"}}]}`, `not json`)
	defer server.Close()

	stream, err := newTestProvider(server).StreamMessage(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := stream.Collect()
	if err == nil || !strings.Contains(err.Error(), "failed to parse streaming chunk") {
		t.Fatalf("expected parse error, got %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("expected partial content, got %q", resp.Content)
	}
}

func TestStreamMessage_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := newTestProvider(server).StreamMessage(context.Background(), ai.ChatRequest{}); err == nil {
		t.Error("expected pre-stream error")
	}
}
