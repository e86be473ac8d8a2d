package client

import (
	"context"

	"github.com/leofalp/finchat/providers/ai"
)

// SendFunc performs one blocking completion. It is the unit threaded through
// the send middleware chain.
type SendFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error)

// StreamFunc opens a streamed completion. It is the unit threaded through the
// stream middleware chain.
type StreamFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error)

// Middleware wraps a SendFunc. The first middleware given to WithMiddleware
// is the outermost wrapper.
type Middleware func(next SendFunc) SendFunc

// StreamMiddleware wraps a StreamFunc and may wrap the returned ChatStream to
// observe its events.
type StreamMiddleware func(next StreamFunc) StreamFunc

// MiddlewareConfig pairs a send middleware with its streaming counterpart.
// Send is required. A nil Stream means streaming calls skip this entry.
type MiddlewareConfig struct {
	Send   Middleware
	Stream StreamMiddleware
}

func buildSendChain(provider ai.Provider, middlewares []MiddlewareConfig) SendFunc {
	var chain SendFunc = func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
		return provider.SendMessage(ctx, request)
	}
	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i].Send(chain)
	}
	return chain
}

// buildStreamChain streams natively when the provider implements
// ai.StreamProvider and otherwise replays a blocking response as a
// single-event stream.
func buildStreamChain(provider ai.Provider, middlewares []MiddlewareConfig) StreamFunc {
	var chain StreamFunc = func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
		if streamProvider, ok := provider.(ai.StreamProvider); ok {
			return streamProvider.StreamMessage(ctx, request)
		}
		response, err := provider.SendMessage(ctx, request)
		if err != nil {
			return nil, err
		}
		return ai.NewSingleEventStream(response), nil
	}
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i].Stream != nil {
			chain = middlewares[i].Stream(chain)
		}
	}
	return chain
}
