package react

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leofalp/finchat/core/client"
	"github.com/leofalp/finchat/providers/ai"
)

// streamingProvider replays one event list per call.
type streamingProvider struct {
	scriptedProvider
	scripts [][]ai.StreamEvent
	calls   int
}

func (p *streamingProvider) StreamMessage(_ context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	p.requests = append(p.requests, request)
	if p.calls >= len(p.scripts) {
		return nil, errors.New("streamingProvider: script exhausted")
	}
	events := p.scripts[p.calls]
	p.calls++
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		for _, e := range events {
			if e.Type == "" {
				yield(ai.StreamEvent{}, errors.New("connection reset"))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}), nil
}

func content(s string) ai.StreamEvent {
	return ai.StreamEvent{Type: ai.StreamEventContent, Content: s}
}

func done(reason string) ai.StreamEvent {
	return ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: reason}
}

func newStreamingAgent(t *testing.T, p *streamingProvider) *Agent {
	t.Helper()
	c, err := client.New(p, client.WithTools(priceTool()))
	if err != nil {
		t.Fatal(err)
	}
	return New(c)
}

func TestExecuteStream_EventSequence(t *testing.T) {
	provider := &streamingProvider{scripts: [][]ai.StreamEvent{
		{
			{Type: ai.StreamEventReasoning, Reasoning: "need the price"},
			{Type: ai.StreamEventToolCall, ToolCall: &ai.ToolCallDelta{Index: 0, ID: "c1", Name: "get_current_stock_price", Arguments: `{"sym`}},
			{Type: ai.StreamEventToolCall, ToolCall: &ai.ToolCallDelta{Index: 0, Arguments: `bol":"NVDA"}`}},
			done("tool_calls"),
		},
		{content("NVDA is "), content("$135.58"), done("stop")},
	}}

	var types []EventType
	var deltas []string
	var toolInput string
	stream := newStreamingAgent(t, provider).ExecuteStream(context.Background(), "price?")
	result, err := stream.CollectWith(func(e Event) {
		types = append(types, e.Type)
		switch e.Type {
		case EventContent:
			deltas = append(deltas, e.Content)
		case EventToolCall:
			toolInput = e.ToolInput
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []EventType{
		EventIterationStart, EventReasoning, EventToolCall, EventToolResult,
		EventIterationStart, EventContent, EventContent, EventFinalAnswer,
	}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, types[i], want[i])
		}
	}
	if strings.Join(deltas, "|") != "NVDA is |$135.58" {
		t.Errorf("content deltas = %v", deltas)
	}
	if toolInput != `{"symbol":"NVDA"}` {
		t.Errorf("tool input = %s", toolInput)
	}
	if result.Answer != "NVDA is $135.58" || result.Reasoning != "" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestExecuteStream_MidStreamError(t *testing.T) {
	provider := &streamingProvider{scripts: [][]ai.StreamEvent{{content("partial"), {}}}}

	_, err := newStreamingAgent(t, provider).ExecuteStream(context.Background(), "q").Collect()
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("expected the stream error, got %v", err)
	}
}

func TestExecuteStream_ErrorEvent(t *testing.T) {
	provider := &streamingProvider{}
	var last Event
	for event, err := range newStreamingAgent(t, provider).ExecuteStream(context.Background(), "q").Iter() {
		last = event
		if err != nil {
			break
		}
	}
	if last.Type != EventError || last.Err == nil {
		t.Errorf("last event = %+v, want an error event", last)
	}
}

func TestExecuteStream_StopsWhenConsumerBreaks(t *testing.T) {
	provider := &streamingProvider{scripts: [][]ai.StreamEvent{
		{{Type: ai.StreamEventToolCall, ToolCall: &ai.ToolCallDelta{Index: 0, ID: "c1", Name: "get_current_stock_price", Arguments: `{}`}}, done("tool_calls")},
		{content("unreachable"), done("stop")},
	}}

	for event := range newStreamingAgent(t, provider).ExecuteStream(context.Background(), "q").Iter() {
		if event.Type == EventToolCall {
			break
		}
	}
	if provider.calls != 1 {
		t.Errorf("provider streamed %d times after the consumer stopped, want 1", provider.calls)
	}
}

func TestRun_NonStreamingEmitsWholeContent(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		{Content: "Final", Reasoning: "thought", FinishReason: "stop"},
	}}
	var got []Event
	_, err := newAgent(t, provider).run(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "q"}}, false).
		CollectWith(func(e Event) { got = append(got, e) })
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 || got[1].Reasoning != "thought" || got[2].Content != "Final" || got[3].Type != EventFinalAnswer {
		t.Errorf("unexpected events %+v", got)
	}
}
