package memory

import (
	"context"

	"github.com/leofalp/finchat/providers/ai"
)

// Provider is an append-only message log. Insertion order is preserved.
type Provider interface {
	// AppendMessage stores a copy of message. A nil message is ignored.
	AppendMessage(ctx context.Context, message *ai.Message)
	Count(ctx context.Context) (int, error)
	// AllMessages returns a copy of the log, oldest first.
	AllMessages(ctx context.Context) ([]ai.Message, error)
	// LastMessages returns up to n of the newest messages, oldest first.
	LastMessages(ctx context.Context, n int) ([]ai.Message, error)
}
