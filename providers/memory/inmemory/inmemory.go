package inmemory

import (
	"context"
	"sync"

	"github.com/leofalp/finchat/providers/ai"
	"github.com/leofalp/finchat/providers/memory"
	"github.com/leofalp/finchat/providers/observability"
)

type Store struct {
	mu       sync.RWMutex
	messages []ai.Message
}

var _ memory.Provider = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendMessage records a memory.append event on the span in ctx, if any.
func (s *Store) AppendMessage(ctx context.Context, message *ai.Message) {
	if message == nil {
		return
	}

	s.mu.Lock()
	s.messages = append(s.messages, *message)
	total := len(s.messages)
	s.mu.Unlock()

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryAppend,
			observability.String(observability.AttrMemoryMessageRole, string(message.Role)),
			observability.Int(observability.AttrMemoryMessageLength, len(message.Content)),
			observability.Int(observability.AttrMemoryTotalMessages, total),
		)
	}
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages), nil
}

func (s *Store) AllMessages(_ context.Context) ([]ai.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ai.Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}

// LastMessages returns an empty slice for n <= 0 and everything when n
// exceeds the stored count.
func (s *Store) LastMessages(_ context.Context, n int) ([]ai.Message, error) {
	if n <= 0 {
		return []ai.Message{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.messages) {
		n = len(s.messages)
	}
	out := make([]ai.Message, n)
	copy(out, s.messages[len(s.messages)-n:])
	return out, nil
}
