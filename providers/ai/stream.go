package ai

import (
	"iter"
	"strings"
)

type StreamEventType string

const (
	StreamEventContent   StreamEventType = "content"
	StreamEventReasoning StreamEventType = "reasoning"
	StreamEventToolCall  StreamEventType = "tool_call"
	StreamEventUsage     StreamEventType = "usage"
	StreamEventDone      StreamEventType = "done"
)

// ToolCallDelta is a fragment of a streamed tool call. ID and Name arrive on
// the first fragment for an Index; later fragments only extend Arguments.
type ToolCallDelta struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// StreamEvent carries one delta; Type says which field is set.
type StreamEvent struct {
	Type         StreamEventType `json:"type"`
	Content      string          `json:"content,omitempty"`
	Reasoning    string          `json:"reasoning,omitempty"`
	ToolCall     *ToolCallDelta  `json:"tool_call,omitempty"`
	Usage        *Usage          `json:"usage,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
}

// ChatStream is a streamed model reply. It must be consumed, through Iter or
// Collect, so the provider can release the underlying connection.
type ChatStream struct {
	iterator iter.Seq2[StreamEvent, error]
}

func NewChatStream(iterator iter.Seq2[StreamEvent, error]) *ChatStream {
	return &ChatStream{iterator: iterator}
}

// NewSingleEventStream replays a complete response as a stream, for
// providers that cannot stream.
func NewSingleEventStream(response *ChatResponse) *ChatStream {
	return NewChatStream(func(yield func(StreamEvent, error) bool) {
		if response.Reasoning != "" {
			if !yield(StreamEvent{Type: StreamEventReasoning, Reasoning: response.Reasoning}, nil) {
				return
			}
		}
		if response.Content != "" {
			if !yield(StreamEvent{Type: StreamEventContent, Content: response.Content}, nil) {
				return
			}
		}
		for i, call := range response.ToolCalls {
			delta := &ToolCallDelta{Index: i, ID: call.ID, Name: call.Function.Name, Arguments: call.Function.Arguments}
			if !yield(StreamEvent{Type: StreamEventToolCall, ToolCall: delta}, nil) {
				return
			}
		}
		if response.Usage != nil {
			if !yield(StreamEvent{Type: StreamEventUsage, Usage: response.Usage}, nil) {
				return
			}
		}
		yield(StreamEvent{Type: StreamEventDone, FinishReason: response.FinishReason}, nil)
	})
}

func (s *ChatStream) Iter() iter.Seq2[StreamEvent, error] {
	return s.iterator
}

// Collect drains the stream into a ChatResponse. On a mid-stream error the
// partial response is returned with the error.
func (s *ChatStream) Collect() (*ChatResponse, error) {
	return s.CollectWith(nil)
}

// CollectWith is Collect with a callback invoked for every event as it
// arrives, e.g. to echo content deltas to a terminal.
func (s *ChatStream) CollectWith(onEvent func(StreamEvent)) (*ChatResponse, error) {
	var acc Accumulator
	for event, err := range s.iterator {
		if err != nil {
			return acc.Response(), err
		}
		if onEvent != nil {
			onEvent(event)
		}
		acc.Add(event)
	}
	return acc.Response(), nil
}

// Accumulator folds stream events into a ChatResponse. The zero value is
// ready to use.
type Accumulator struct {
	content      strings.Builder
	reasoning    strings.Builder
	calls        []*toolCallBuilder
	usage        *Usage
	finishReason string
}

func (a *Accumulator) Add(event StreamEvent) {
	switch event.Type {
	case StreamEventContent:
		a.content.WriteString(event.Content)
	case StreamEventReasoning:
		a.reasoning.WriteString(event.Reasoning)
	case StreamEventToolCall:
		if event.ToolCall != nil {
			a.calls = mergeToolCallDelta(a.calls, event.ToolCall)
		}
	case StreamEventUsage:
		a.usage = event.Usage
	case StreamEventDone:
		a.finishReason = event.FinishReason
	}
}

// Response returns what has been accumulated so far.
func (a *Accumulator) Response() *ChatResponse {
	out := &ChatResponse{
		Content:      a.content.String(),
		Reasoning:    a.reasoning.String(),
		Usage:        a.usage,
		FinishReason: a.finishReason,
	}
	for _, b := range a.calls {
		if b == nil {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:       b.id,
			Type:     "function",
			Function: ToolCallFunction{Name: b.name, Arguments: b.arguments.String()},
		})
	}
	return out
}

type toolCallBuilder struct {
	id        string
	name      string
	arguments strings.Builder
}

func mergeToolCallDelta(calls []*toolCallBuilder, delta *ToolCallDelta) []*toolCallBuilder {
	if delta.Index < 0 {
		return calls
	}
	for len(calls) <= delta.Index {
		calls = append(calls, nil)
	}
	b := calls[delta.Index]
	if b == nil {
		b = &toolCallBuilder{}
		calls[delta.Index] = b
	}
	if delta.ID != "" {
		b.id = delta.ID
	}
	if delta.Name != "" {
		b.name = delta.Name
	}
	b.arguments.WriteString(delta.Arguments)
	return calls
}
