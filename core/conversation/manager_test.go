package conversation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/leofalp/finchat/providers/ai"
	"github.com/leofalp/finchat/providers/memory/inmemory"
	"github.com/leofalp/finchat/providers/observability"
	"github.com/leofalp/finchat/providers/observability/slogobs"
)

// scriptedAnswerer returns answers in order and records every prompt.
type scriptedAnswerer struct {
	answers []string
	errs    []error
	panics  bool
	prompts []string
	streams []bool
}

func (s *scriptedAnswerer) Answer(_ context.Context, prompt string, stream bool) (string, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	s.streams = append(s.streams, stream)
	if s.panics {
		panic("boom")
	}
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.answers) {
		return s.answers[i], nil
	}
	return fmt.Sprintf("answer %d", i+1), nil
}

type capturedReport struct {
	msg string
	err error
}

type recordingReporter struct {
	reports []capturedReport
}

func (r *recordingReporter) Report(_ context.Context, msg string, err error) {
	r.reports = append(r.reports, capturedReport{msg: msg, err: err})
}

func ptr(s string) *string { return &s }

func TestRecordTurn(t *testing.T) {
	ctx := context.Background()
	m := New(&scriptedAnswerer{})

	m.RecordTurn(ctx, SpeakerUser, nil)
	if n := len(m.Turns(ctx)); n != 0 {
		t.Fatalf("absent content recorded: %d turns", n)
	}
	if m.State() != StateEmpty {
		t.Errorf("state = %v, want empty", m.State())
	}

	m.RecordTurn(ctx, SpeakerUser, ptr("hi"))
	m.RecordTurn(ctx, SpeakerAssistant, ptr(""))

	turns := m.Turns(ctx)
	if len(turns) != 2 {
		t.Fatalf("turns = %d, want 2", len(turns))
	}
	want := Turn{Speaker: SpeakerAssistant, Content: ""}
	if turns[1] != want {
		t.Errorf("last turn = %+v, want %+v", turns[1], want)
	}
	if m.State() != StateHasHistory {
		t.Errorf("state = %v, want has_history", m.State())
	}
}

func TestRecentContext(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		turns    int
		maxTurns int
		want     []string
	}{
		{name: "empty", turns: 0, maxTurns: 4, want: nil},
		{name: "fewer than window", turns: 2, maxTurns: 4, want: []string{"user: t1", "assistant: t2"}},
		{name: "more than window", turns: 6, maxTurns: 4, want: []string{"user: t3", "assistant: t4", "user: t5", "assistant: t6"}},
		{name: "zero", turns: 3, maxTurns: 0, want: nil},
		{name: "negative", turns: 3, maxTurns: -1, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(&scriptedAnswerer{})
			for i := 1; i <= tt.turns; i++ {
				speaker := SpeakerUser
				if i%2 == 0 {
					speaker = SpeakerAssistant
				}
				m.RecordTurn(ctx, speaker, ptr(fmt.Sprintf("t%d", i)))
			}

			got := m.RecentContext(ctx, tt.maxTurns)
			if want := strings.Join(tt.want, "\n"); got != want {
				t.Errorf("RecentContext = %q, want %q", got, want)
			}
		})
	}
}

func TestRecentContextDefault_UsesWindow(t *testing.T) {
	ctx := context.Background()
	m := New(&scriptedAnswerer{}, WithHistoryWindow(2))
	for _, s := range []string{"a", "b", "c"} {
		m.RecordTurn(ctx, SpeakerUser, ptr(s))
	}
	if got := m.RecentContextDefault(ctx); got != "user: b\nuser: c" {
		t.Errorf("got %q", got)
	}

	ignored := New(&scriptedAnswerer{}, WithHistoryWindow(0))
	if ignored.window != DefaultHistoryWindow {
		t.Errorf("window = %d, want default", ignored.window)
	}
}

func TestProcessQuery_FirstQueryIsVerbatim(t *testing.T) {
	ctx := context.Background()
	answerer := &scriptedAnswerer{answers: []string{"Hi there"}}
	m := New(answerer)

	answer, ok := m.ProcessQuery(ctx, "Hello", true)
	if !ok || answer != "Hi there" {
		t.Fatalf("ProcessQuery = %q, %v", answer, ok)
	}
	if answerer.prompts[0] != "Hello" {
		t.Errorf("prompt = %q, want verbatim input", answerer.prompts[0])
	}
	if !answerer.streams[0] {
		t.Error("stream flag not forwarded")
	}
	if _, ok := m.Topic(); ok {
		t.Error("extractor ran on the first query")
	}

	want := []Turn{{SpeakerUser, "Hello"}, {SpeakerAssistant, "Hi there"}}
	got := m.Turns(ctx)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("turns = %+v, want %+v", got, want)
	}
}

func TestProcessQuery_FollowUpIsAugmented(t *testing.T) {
	ctx := context.Background()
	answerer := &scriptedAnswerer{answers: []string{"Hi there", "It is up"}}
	m := New(answerer)

	m.ProcessQuery(ctx, "Hello", false)
	m.ProcessQuery(ctx, "How is TATAMOTORS.NS doing?", false)

	want := "Previous conversation context:\n" +
		"- Currently discussing: TATAMOTORS.NS\n" +
		"- Recent messages:\n" +
		"user: Hello\n" +
		"assistant: Hi there\n" +
		"user: How is TATAMOTORS.NS doing?\n" +
		"\n" +
		"Based on this context, please answer: How is TATAMOTORS.NS doing?"
	if answerer.prompts[1] != want {
		t.Errorf("prompt =\n%s\nwant\n%s", answerer.prompts[1], want)
	}
	if topic, _ := m.Topic(); topic != "TATAMOTORS.NS" {
		t.Errorf("topic = %q", topic)
	}
}

func TestProcessQuery_TopicPersistsAcrossVagueFollowUp(t *testing.T) {
	ctx := context.Background()
	answerer := &scriptedAnswerer{}
	m := New(answerer)

	m.ProcessQuery(ctx, "hello", false)
	m.ProcessQuery(ctx, "what about Infosys", false)
	m.ProcessQuery(ctx, "what was its revenue last quarter", false)

	if !strings.Contains(answerer.prompts[2], "- Currently discussing: Infosys\n") {
		t.Errorf("prompt lost the topic:\n%s", answerer.prompts[2])
	}
}

func TestProcessQuery_NoTopicYet(t *testing.T) {
	ctx := context.Background()
	answerer := &scriptedAnswerer{}
	m := New(answerer)

	m.ProcessQuery(ctx, "hello", false)
	m.ProcessQuery(ctx, "and then?", false)

	if !strings.Contains(answerer.prompts[1], "- Currently discussing: "+NoSpecificCompany) {
		t.Errorf("prompt = %q", answerer.prompts[1])
	}
}

func TestProcessQuery_WindowLimitsQuotedTurns(t *testing.T) {
	ctx := context.Background()
	answerer := &scriptedAnswerer{}
	m := New(answerer)

	for _, q := range []string{"q1", "q2", "q3"} {
		m.ProcessQuery(ctx, q, false)
	}

	// Six turns recorded before q3's answer; the window shows the last four.
	prompt := answerer.prompts[2]
	if strings.Contains(prompt, "user: q1") {
		t.Errorf("prompt quotes turns outside the window:\n%s", prompt)
	}
	for _, line := range []string{"assistant: answer 1", "user: q2", "assistant: answer 2", "user: q3"} {
		if !strings.Contains(prompt, line) {
			t.Errorf("prompt missing %q:\n%s", line, prompt)
		}
	}
}

func TestProcessQuery_Failure(t *testing.T) {
	ctx := context.Background()
	failure := errors.New("provider unavailable")
	answerer := &scriptedAnswerer{errs: []error{failure}}
	reporter := &recordingReporter{}
	m := New(answerer, WithErrorReporter(reporter))

	answer, ok := m.ProcessQuery(ctx, "Hello", true)
	if ok || answer != "" {
		t.Fatalf("ProcessQuery = %q, %v; want absent", answer, ok)
	}

	turns := m.Turns(ctx)
	if len(turns) != 1 || turns[0] != (Turn{SpeakerUser, "Hello"}) {
		t.Errorf("turns = %+v, want only the user turn", turns)
	}
	if len(reporter.reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reporter.reports))
	}
	if reporter.reports[0].msg != "Error processing query" || !errors.Is(reporter.reports[0].err, failure) {
		t.Errorf("report = %+v", reporter.reports[0])
	}

	// The session goes on and the next query is augmented.
	if _, ok := m.ProcessQuery(ctx, "again", false); !ok {
		t.Error("second query failed")
	}
	if !strings.HasPrefix(answerer.prompts[1], "Previous conversation context:") {
		t.Errorf("prompt = %q", answerer.prompts[1])
	}
}

func TestProcessQuery_Panic(t *testing.T) {
	ctx := context.Background()
	reporter := &recordingReporter{}
	m := New(&scriptedAnswerer{panics: true}, WithErrorReporter(reporter))

	if _, ok := m.ProcessQuery(ctx, "Hello", false); ok {
		t.Fatal("expected absent result")
	}
	if len(m.Turns(ctx)) != 1 {
		t.Errorf("turns = %d, want 1", len(m.Turns(ctx)))
	}

	var panicErr *PanicError
	if len(reporter.reports) != 1 || !errors.As(reporter.reports[0].err, &panicErr) {
		t.Fatalf("reports = %+v", reporter.reports)
	}
	if panicErr.Value != "boom" || len(panicErr.Stack) == 0 {
		t.Errorf("panic error = %v, stack %d bytes", panicErr.Value, len(panicErr.Stack))
	}
}

func TestProcessQuery_EmptyAnswerIsAbsent(t *testing.T) {
	ctx := context.Background()
	reporter := &recordingReporter{}
	m := New(&scriptedAnswerer{answers: []string{""}}, WithErrorReporter(reporter))

	if _, ok := m.ProcessQuery(ctx, "Hello", false); ok {
		t.Fatal("empty answer reported as present")
	}
	if len(m.Turns(ctx)) != 1 {
		t.Errorf("turns = %d, want 1", len(m.Turns(ctx)))
	}
	if len(reporter.reports) != 0 {
		t.Errorf("empty answer reported as a failure")
	}
}

func TestNew_PreloadedMemoryCountsAsHistory(t *testing.T) {
	ctx := context.Background()
	store := inmemory.New()
	store.AppendMessage(ctx, &ai.Message{Role: ai.RoleUser, Content: "earlier"})

	answerer := &scriptedAnswerer{}
	m := New(answerer, WithMemory(store))
	if m.State() != StateHasHistory {
		t.Fatalf("state = %v", m.State())
	}

	m.ProcessQuery(ctx, "next", false)
	if !strings.Contains(answerer.prompts[0], "user: earlier\nuser: next") {
		t.Errorf("prompt = %q", answerer.prompts[0])
	}
}

func TestNew_SessionID(t *testing.T) {
	a, b := New(&scriptedAnswerer{}), New(&scriptedAnswerer{})
	if a.SessionID() == "" || a.SessionID() == b.SessionID() {
		t.Errorf("session ids %q and %q", a.SessionID(), b.SessionID())
	}
}

func TestAnswererFunc(t *testing.T) {
	m := New(AnswererFunc(func(_ context.Context, prompt string, _ bool) (string, error) {
		return strings.ToUpper(prompt), nil
	}))
	if got, _ := m.ProcessQuery(context.Background(), "nvda", false); got != "NVDA" {
		t.Errorf("got %q", got)
	}
}

func TestProcessQuery_Observability(t *testing.T) {
	buf := &bytes.Buffer{}
	observer := slogobs.New(
		slogobs.WithOutput(buf),
		slogobs.WithLevel(slogobs.LevelTrace),
		slogobs.WithFormat(slogobs.FormatJSON),
	)
	answerer := &scriptedAnswerer{errs: []error{nil, nil, errors.New("down")}}
	m := New(answerer, WithObserver(observer), WithErrorReporter(&recordingReporter{}))

	ctx := context.Background()
	m.ProcessQuery(ctx, "hello", false)
	m.ProcessQuery(ctx, "what about Infosys", false)
	m.ProcessQuery(ctx, "and its revenue", false)

	counts := map[string]int64{
		observability.MetricConversationQueries:   3,
		observability.MetricConversationAugmented: 2,
		observability.MetricConversationFailures:  1,
	}
	for metric, want := range counts {
		if got := observer.CounterValue(metric); got != want {
			t.Errorf("%s = %d, want %d", metric, got, want)
		}
	}
	if !strings.Contains(buf.String(), observability.SpanProcessQuery) {
		t.Error("process_query span not logged")
	}
	if !strings.Contains(buf.String(), observability.EventTopicChanged) {
		t.Error("topic change not logged")
	}
}
