package ai

import "context"

// Provider sends chat requests to a model backend.
type Provider interface {
	// SendMessage performs one blocking completion.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// IsStopMessage reports whether the response ends the exchange, i.e. the
	// model asked for no further tool calls.
	IsStopMessage(response *ChatResponse) bool
}

// StreamProvider is implemented by providers that can stream replies.
// Callers detect it with a type assertion and fall back to SendMessage.
type StreamProvider interface {
	Provider
	// StreamMessage returns once the response headers arrive. Errors before
	// that point are returned directly; later ones are yielded by the stream.
	StreamMessage(ctx context.Context, request ChatRequest) (*ChatStream, error)
}
