package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/leofalp/finchat/providers/memory"
	"github.com/leofalp/finchat/providers/memory/inmemory"
	"github.com/leofalp/finchat/providers/observability"
)

// DefaultHistoryWindow is the number of turns quoted in an augmented prompt.
const DefaultHistoryWindow = 4

// Answerer produces the answer for a prompt. An empty answer counts as no
// answer at all.
type Answerer interface {
	Answer(ctx context.Context, prompt string, stream bool) (string, error)
}

// AnswererFunc adapts a function to Answerer.
type AnswererFunc func(ctx context.Context, prompt string, stream bool) (string, error)

func (f AnswererFunc) Answer(ctx context.Context, prompt string, stream bool) (string, error) {
	return f(ctx, prompt, stream)
}

// State gates prompt augmentation. It only ever moves from StateEmpty to
// StateHasHistory.
type State int

const (
	StateEmpty State = iota
	StateHasHistory
)

func (s State) String() string {
	if s == StateHasHistory {
		return "has_history"
	}
	return "empty"
}

// PanicError carries a value recovered from a panicking Answerer together
// with the stack at the panic site.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("answerer panicked: %v", e.Value)
}

// Manager owns one session: its transcript, its topic store and the
// injected Answerer. It is safe for concurrent use, although queries are
// expected to arrive one at a time.
type Manager struct {
	answerer  Answerer
	sessionID string

	mu         sync.Mutex
	state      State
	transcript *Transcript
	topics     *TopicStore
	window     int

	reporter ErrorReporter
	observer observability.Provider
	logger   *slog.Logger
}

type settings struct {
	memory   memory.Provider
	window   int
	reporter ErrorReporter
	observer observability.Provider
	logger   *slog.Logger
}

type Option func(*settings)

// WithMemory stores turns in the given provider instead of a fresh
// in-memory store. Turns already present count as history.
func WithMemory(store memory.Provider) Option {
	return func(s *settings) { s.memory = store }
}

// WithHistoryWindow sets how many recent turns an augmented prompt quotes.
// Values <= 0 are ignored.
func WithHistoryWindow(turns int) Option {
	return func(s *settings) {
		if turns > 0 {
			s.window = turns
		}
	}
}

func WithErrorReporter(reporter ErrorReporter) Option {
	return func(s *settings) { s.reporter = reporter }
}

func WithObserver(observer observability.Provider) Option {
	return func(s *settings) { s.observer = observer }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// New creates a Manager around answerer. Without WithErrorReporter failures
// are only logged.
func New(answerer Answerer, opts ...Option) *Manager {
	s := settings{window: DefaultHistoryWindow}
	for _, opt := range opts {
		opt(&s)
	}
	if s.memory == nil {
		s.memory = inmemory.New()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.reporter == nil {
		s.reporter = logReporter{logger: s.logger}
	}

	sessionID := uuid.NewString()
	m := &Manager{
		answerer:   answerer,
		sessionID:  sessionID,
		transcript: NewTranscript(s.memory),
		topics:     NewTopicStore(),
		window:     s.window,
		reporter:   s.reporter,
		observer:   s.observer,
		logger:     s.logger.With(slog.String(observability.AttrConversationSession, sessionID)),
	}
	if n, err := m.transcript.Len(context.Background()); err == nil && n > 0 {
		m.state = StateHasHistory
	}
	return m
}

func (m *Manager) SessionID() string { return m.sessionID }

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Topic returns the company currently under discussion.
func (m *Manager) Topic() (string, bool) {
	return m.topics.Get(KeyCompany)
}

// Turns returns the whole transcript, oldest first.
func (m *Manager) Turns(ctx context.Context) []Turn {
	turns, err := m.transcript.All(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to read transcript", slog.Any("error", err))
		return nil
	}
	return turns
}

// RecordTurn appends a turn. A nil content is ignored; an empty string is
// recorded as is.
func (m *Manager) RecordTurn(ctx context.Context, speaker Speaker, content *string) {
	if content == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordLocked(ctx, speaker, *content)
}

func (m *Manager) recordLocked(ctx context.Context, speaker Speaker, content string) {
	m.transcript.Append(ctx, Turn{Speaker: speaker, Content: content})
	m.state = StateHasHistory
}

// RecentContext renders the last maxTurns turns as "speaker: content"
// lines, oldest first. maxTurns <= 0 yields "".
func (m *Manager) RecentContext(ctx context.Context, maxTurns int) string {
	if maxTurns <= 0 {
		return ""
	}
	turns, err := m.transcript.Last(ctx, maxTurns)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to read recent turns", slog.Any("error", err))
		return ""
	}
	return Render(turns)
}

// RecentContextDefault is RecentContext with the configured history window.
func (m *Manager) RecentContextDefault(ctx context.Context) string {
	return m.RecentContext(ctx, m.window)
}

// ProcessQuery records userInput, asks the Answerer and records the answer.
// From the second turn of a session on, the prompt carries the current topic
// and the recent turns. It reports false when no answer was produced; the
// failure itself goes to the ErrorReporter.
func (m *Manager) ProcessQuery(ctx context.Context, userInput string, stream bool) (string, bool) {
	ctx, span := m.startSpan(ctx, stream)
	if span != nil {
		defer span.End()
	}
	m.count(ctx, observability.MetricConversationQueries)

	prompt, augmented := m.prepare(ctx, userInput)
	if span != nil {
		span.SetAttributes(observability.Bool(observability.AttrConversationAugmented, augmented))
	}

	answer, err := m.invoke(ctx, prompt, stream)
	if err != nil {
		m.count(ctx, observability.MetricConversationFailures)
		if span != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, err.Error())
		}
		m.reporter.Report(ctx, "Error processing query", err)
		return "", false
	}
	if answer == "" {
		m.logger.DebugContext(ctx, "no answer produced")
		if span != nil {
			span.SetStatus(observability.StatusOK, "no answer")
		}
		return "", false
	}

	m.mu.Lock()
	m.recordLocked(ctx, SpeakerAssistant, answer)
	m.mu.Unlock()

	if span != nil {
		if n, err := m.transcript.Len(ctx); err == nil {
			span.SetAttributes(observability.Int(observability.AttrConversationTurns, n))
		}
		span.SetStatus(observability.StatusOK, "")
	}
	return answer, true
}

// prepare records the user turn and builds the prompt under one lock, so
// the state check and the append cannot interleave with another query.
func (m *Manager) prepare(ctx context.Context, userInput string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hadHistory := m.state == StateHasHistory
	m.recordLocked(ctx, SpeakerUser, userInput)
	if !hadHistory {
		return userInput, false
	}

	previous, _ := m.topics.Get(KeyCompany)
	company := ExtractContext(userInput, m.topics)
	if company != previous && company != NoSpecificCompany {
		m.logger.DebugContext(ctx, "topic changed", slog.String("from", previous), slog.String("to", company))
		if span := observability.SpanFromContext(ctx); span != nil {
			span.AddEvent(observability.EventTopicChanged, observability.String(observability.AttrConversationTopic, company))
		}
	}
	m.count(ctx, observability.MetricConversationAugmented)

	return BuildPrompt(company, m.RecentContext(ctx, m.window), userInput), true
}

// BuildPrompt assembles the augmented prompt for a follow-up question.
func BuildPrompt(company, recent, userInput string) string {
	var b strings.Builder
	b.WriteString("Previous conversation context:\n")
	b.WriteString("- Currently discussing: ")
	b.WriteString(company)
	b.WriteString("\n- Recent messages:\n")
	b.WriteString(recent)
	b.WriteString("\n\nBased on this context, please answer: ")
	b.WriteString(userInput)
	return b.String()
}

func (m *Manager) invoke(ctx context.Context, prompt string, stream bool) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			answer = ""
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return m.answerer.Answer(ctx, prompt, stream)
}

func (m *Manager) startSpan(ctx context.Context, stream bool) (context.Context, observability.Span) {
	if m.observer == nil {
		return ctx, nil
	}
	ctx, span := m.observer.StartSpan(ctx, observability.SpanProcessQuery,
		observability.String(observability.AttrConversationSession, m.sessionID),
		observability.Bool(observability.AttrConversationStream, stream),
	)
	return observability.ContextWithObserver(ctx, m.observer), span
}

func (m *Manager) count(ctx context.Context, metric string) {
	if m.observer == nil {
		return
	}
	m.observer.Counter(metric).Add(ctx, 1, observability.String(observability.AttrConversationSession, m.sessionID))
}
