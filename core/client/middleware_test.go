package client

import (
	"context"
	"errors"
	"testing"

	"github.com/leofalp/finchat/providers/ai"
)

type callRecorder struct {
	order *[]string
	name  string
}

func (rec *callRecorder) send() Middleware {
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			*rec.order = append(*rec.order, rec.name)
			return next(ctx, request)
		}
	}
}

func (rec *callRecorder) stream() StreamMiddleware {
	return func(next StreamFunc) StreamFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
			*rec.order = append(*rec.order, rec.name+"-stream")
			return next(ctx, request)
		}
	}
}

func TestBuildSendChain_Order(t *testing.T) {
	tests := []struct {
		name  string
		names []string
	}{
		{"no middleware", nil},
		{"single", []string{"mw1"}},
		{"outermost first", []string{"mw1", "mw2", "mw3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var order []string
			var configs []MiddlewareConfig
			for _, n := range tt.names {
				rec := &callRecorder{order: &order, name: n}
				configs = append(configs, MiddlewareConfig{Send: rec.send()})
			}

			resp, err := buildSendChain(&mockProvider{}, configs)(context.Background(), ai.ChatRequest{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Content != "test response" {
				t.Errorf("unexpected response %q", resp.Content)
			}
			if len(order) != len(tt.names) {
				t.Fatalf("order = %v, want %v", order, tt.names)
			}
			for i := range order {
				if order[i] != tt.names[i] {
					t.Errorf("position %d: got %q, want %q", i, order[i], tt.names[i])
				}
			}
		})
	}
}

func TestBuildSendChain_ShortCircuit(t *testing.T) {
	provider := &mockProvider{}
	blocked := errors.New("blocked")
	chain := buildSendChain(provider, []MiddlewareConfig{{
		Send: func(SendFunc) SendFunc {
			return func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
				return nil, blocked
			}
		},
	}})

	if _, err := chain(context.Background(), ai.ChatRequest{}); !errors.Is(err, blocked) {
		t.Errorf("expected short-circuit error, got %v", err)
	}
	if provider.calls != 0 {
		t.Error("provider should not be reached")
	}
}

func TestBuildStreamChain_SkipsNilStream(t *testing.T) {
	var order []string
	first := &callRecorder{order: &order, name: "first"}
	sendOnly := &callRecorder{order: &order, name: "send-only"}
	last := &callRecorder{order: &order, name: "last"}

	chain := buildStreamChain(&mockProvider{}, []MiddlewareConfig{
		{Send: first.send(), Stream: first.stream()},
		{Send: sendOnly.send()},
		{Send: last.send(), Stream: last.stream()},
	})

	stream, err := chain(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := stream.Collect(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "first-stream" || order[1] != "last-stream" {
		t.Errorf("order = %v", order)
	}
}

func TestBuildStreamChain_FallbackError(t *testing.T) {
	boom := errors.New("boom")
	chain := buildStreamChain(&mockProvider{err: boom}, nil)
	if _, err := chain(context.Background(), ai.ChatRequest{}); !errors.Is(err, boom) {
		t.Errorf("expected provider error, got %v", err)
	}
}
