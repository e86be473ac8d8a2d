package team

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/leofalp/finchat/core/client"
	"github.com/leofalp/finchat/patterns/react"
	"github.com/leofalp/finchat/providers/ai"
	"github.com/leofalp/finchat/providers/observability"
	"github.com/leofalp/finchat/providers/tool"
)

var ErrNoMembers = errors.New("team: at least one member is required")

// Member describes an agent the leader can delegate to.
type Member struct {
	Name         string
	Role         string
	Instructions []string
	Tools        []tool.GenericTool
}

type member struct {
	Member
	toolName string
	agent    *react.Agent
}

type Team struct {
	leader        *react.Agent
	members       []*member
	out           *lineWriter
	showToolCalls bool
	logger        *slog.Logger
}

type settings struct {
	model         string
	instructions  []string
	output        io.Writer
	showToolCalls bool
	markdown      bool
	maxIterations int
	temperature   *float64
	observer      observability.Provider
	middlewares   []client.MiddlewareConfig
	logger        *slog.Logger
}

type Option func(*settings)

func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}

// WithInstructions sets the leader's instructions.
func WithInstructions(instructions ...string) Option {
	return func(s *settings) { s.instructions = append(s.instructions, instructions...) }
}

// WithOutput sets where answers and tool call echoes are written. Defaults
// to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s *settings) { s.output = w }
}

// WithShowToolCalls echoes every tool call, the leader's and the members',
// to the output as it runs.
func WithShowToolCalls(show bool) Option {
	return func(s *settings) { s.showToolCalls = show }
}

// WithMarkdown asks every agent to format its answer in Markdown.
func WithMarkdown(markdown bool) Option {
	return func(s *settings) { s.markdown = markdown }
}

func WithMaxIterations(n int) Option {
	return func(s *settings) { s.maxIterations = n }
}

func WithTemperature(temperature float64) Option {
	return func(s *settings) { s.temperature = &temperature }
}

func WithObserver(observer observability.Provider) Option {
	return func(s *settings) { s.observer = observer }
}

// WithMiddleware is applied to the leader's and every member's client.
func WithMiddleware(middlewares ...client.MiddlewareConfig) Option {
	return func(s *settings) { s.middlewares = append(s.middlewares, middlewares...) }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// New builds the member agents and a leader that can delegate to them. All
// agents share provider.
func New(provider ai.Provider, members []Member, opts ...Option) (*Team, error) {
	if len(members) == 0 {
		return nil, ErrNoMembers
	}
	s := &settings{
		output:        os.Stdout,
		maxIterations: react.DefaultMaxIterations,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	t := &Team{
		out:           &lineWriter{w: s.output, atLineStart: true},
		showToolCalls: s.showToolCalls,
		logger:        s.logger,
	}

	seen := map[string]bool{}
	var delegations []tool.GenericTool
	for _, m := range members {
		if strings.TrimSpace(m.Name) == "" {
			return nil, errors.New("team: member name is required")
		}
		toolName := "transfer_task_to_" + slug(m.Name)
		if seen[toolName] {
			return nil, fmt.Errorf("team: duplicate member %q", m.Name)
		}
		seen[toolName] = true

		c, err := newClient(provider, s, memberPrompt(m, s.markdown), m.Tools...)
		if err != nil {
			return nil, fmt.Errorf("team: member %q: %w", m.Name, err)
		}
		mem := &member{
			Member:   m,
			toolName: toolName,
			agent:    react.New(c, react.WithName(m.Name), react.WithMaxIterations(s.maxIterations)),
		}
		t.members = append(t.members, mem)
		delegations = append(delegations, tool.NewTool(toolName, t.delegate(mem),
			tool.WithDescription(fmt.Sprintf("Transfer a task to the %s. Role: %s.", m.Name, m.Role))))
	}

	c, err := newClient(provider, s, leaderPrompt(t.members, s.instructions, s.markdown), delegations...)
	if err != nil {
		return nil, fmt.Errorf("team: leader: %w", err)
	}
	t.leader = react.New(c, react.WithName("leader"), react.WithMaxIterations(s.maxIterations))
	return t, nil
}

func newClient(provider ai.Provider, s *settings, systemPrompt string, tools ...tool.GenericTool) (*client.Client, error) {
	opts := []client.Option{
		client.WithModel(s.model),
		client.WithSystemPrompt(systemPrompt),
		client.WithTools(tools...),
		client.WithMiddleware(s.middlewares...),
	}
	if s.temperature != nil {
		opts = append(opts, client.WithTemperature(*s.temperature))
	}
	if s.observer != nil {
		opts = append(opts, client.WithObserver(s.observer))
	}
	return client.New(provider, opts...)
}

// DelegationInput is what the leader sends to a member.
type DelegationInput struct {
	Task           string `json:"task" jsonschema:"description=A clear and concise description of the task the member should achieve"`
	ExpectedOutput string `json:"expected_output,omitempty" jsonschema:"description=The output the member should produce"`
}

type DelegationOutput struct {
	Member   string `json:"member"`
	Response string `json:"response"`
}

func (t *Team) delegate(m *member) func(context.Context, DelegationInput) (DelegationOutput, error) {
	return func(ctx context.Context, in DelegationInput) (DelegationOutput, error) {
		task := strings.TrimSpace(in.Task)
		if task == "" {
			return DelegationOutput{}, fmt.Errorf("empty task for %s", m.Name)
		}
		prompt := task
		if expected := strings.TrimSpace(in.ExpectedOutput); expected != "" {
			prompt += "\n\nExpected output: " + expected
		}

		if span := observability.SpanFromContext(ctx); span != nil {
			span.AddEvent(observability.EventDelegation,
				observability.String(observability.AttrAgentName, m.Name),
				observability.String(observability.AttrToolInput, task),
			)
		}
		t.logger.DebugContext(ctx, "delegating task", slog.String("member", m.Name), slog.String("task", task))

		result, err := m.agent.ExecuteWith(ctx, prompt, t.echoToolCalls)
		if err != nil {
			return DelegationOutput{}, err
		}
		return DelegationOutput{Member: m.Name, Response: result.Answer}, nil
	}
}

// Answer runs the leader on prompt. With stream set, content is written to
// the output as it arrives; otherwise the final answer is written once.
// Reasoning is never written nor returned.
func (t *Team) Answer(ctx context.Context, prompt string, stream bool) (string, error) {
	w := t.out
	onEvent := func(e react.Event) {
		switch e.Type {
		case react.EventIterationStart:
			if stream {
				w.endLine()
			}
		case react.EventContent:
			if stream {
				w.write(e.Content)
			}
		case react.EventToolCall:
			t.echo(w, e)
		}
	}

	var result *react.Result
	var err error
	if stream {
		result, err = t.leader.ExecuteStream(ctx, prompt).CollectWith(onEvent)
	} else {
		result, err = t.leader.ExecuteWith(ctx, prompt, onEvent)
	}
	if err != nil {
		w.endLine()
		return "", err
	}

	answer := strings.TrimSpace(result.Answer)
	if !stream && answer != "" {
		w.write(answer)
	}
	w.endLine()
	return answer, nil
}

func (t *Team) echoToolCalls(e react.Event) {
	if e.Type == react.EventToolCall {
		t.echo(t.out, e)
	}
}

func (t *Team) echo(w *lineWriter, e react.Event) {
	if !t.showToolCalls {
		return
	}
	w.endLine()
	w.write(" - Running: " + FormatToolCall(e.ToolName, e.ToolInput))
	w.endLine()
}

// Members returns the member names in declaration order.
func (t *Team) Members() []string {
	names := make([]string, len(t.members))
	for i, m := range t.members {
		names[i] = m.Name
	}
	return names
}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	return strings.Trim(nonWord.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// lineWriter tracks whether the cursor is at the start of a line so tool
// call echoes never end up glued to streamed text.
type lineWriter struct {
	w           io.Writer
	atLineStart bool
}

func (l *lineWriter) write(s string) {
	if s == "" {
		return
	}
	_, _ = io.WriteString(l.w, s)
	l.atLineStart = strings.HasSuffix(s, "\n")
}

func (l *lineWriter) endLine() {
	if !l.atLineStart {
		_, _ = io.WriteString(l.w, "\n")
		l.atLineStart = true
	}
}
