package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/leofalp/finchat/providers/ai"
	"github.com/leofalp/finchat/providers/memory"
)

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one recorded utterance.
type Turn struct {
	Speaker Speaker
	Content string
}

func (t Turn) String() string {
	return fmt.Sprintf("%s: %s", t.Speaker, t.Content)
}

// Transcript is the ordered list of turns, stored as ai.Message values in a
// memory.Provider.
type Transcript struct {
	store memory.Provider
}

func NewTranscript(store memory.Provider) *Transcript {
	return &Transcript{store: store}
}

func (t *Transcript) Append(ctx context.Context, turn Turn) {
	t.store.AppendMessage(ctx, &ai.Message{Role: ai.MessageRole(turn.Speaker), Content: turn.Content})
}

func (t *Transcript) Len(ctx context.Context) (int, error) {
	return t.store.Count(ctx)
}

func (t *Transcript) All(ctx context.Context) ([]Turn, error) {
	messages, err := t.store.AllMessages(ctx)
	if err != nil {
		return nil, err
	}
	return toTurns(messages), nil
}

// Last returns up to n of the newest turns, oldest first.
func (t *Transcript) Last(ctx context.Context, n int) ([]Turn, error) {
	messages, err := t.store.LastMessages(ctx, n)
	if err != nil {
		return nil, err
	}
	return toTurns(messages), nil
}

// Render joins turns as "speaker: content" lines.
func Render(turns []Turn) string {
	lines := make([]string, len(turns))
	for i, turn := range turns {
		lines[i] = turn.String()
	}
	return strings.Join(lines, "\n")
}

func toTurns(messages []ai.Message) []Turn {
	turns := make([]Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, Turn{Speaker: Speaker(m.Role), Content: m.Content})
	}
	return turns
}
