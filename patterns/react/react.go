package react

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leofalp/finchat/core/client"
	"github.com/leofalp/finchat/providers/ai"
	"github.com/leofalp/finchat/providers/observability"
)

const DefaultMaxIterations = 5

var (
	// ErrMaxIterations is returned when the model keeps calling tools past
	// the iteration budget.
	ErrMaxIterations = errors.New("react: maximum iterations reached without a final answer")
	// ErrUnknownTool is reported to the model when it calls a tool that is
	// not in the client's catalog.
	ErrUnknownTool = errors.New("react: unknown tool")
)

// Agent drives the loop over a configured client.
type Agent struct {
	client        *client.Client
	name          string
	maxIterations int
}

type Option func(*Agent)

// WithMaxIterations bounds the number of model calls per run.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithName labels spans and logs produced by the agent.
func WithName(name string) Option {
	return func(a *Agent) { a.name = name }
}

func New(c *client.Client, opts ...Option) *Agent {
	a := &Agent{
		client:        c,
		name:          "agent",
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) Name() string { return a.name }

// Result is the outcome of a completed run.
type Result struct {
	Answer     string
	Reasoning  string
	Iterations int
	ToolCalls  int
	Usage      ai.Usage
	// Messages is the full exchange, ending with the final assistant message.
	Messages []ai.Message
}

// Execute runs the loop for a single user prompt with blocking model calls.
func (a *Agent) Execute(ctx context.Context, prompt string) (*Result, error) {
	return a.Run(ctx, []ai.Message{{Role: ai.RoleUser, Content: prompt}})
}

// ExecuteWith is Execute with a callback invoked for every event, e.g. to
// echo tool calls while the run is in progress.
func (a *Agent) ExecuteWith(ctx context.Context, prompt string, onEvent func(Event)) (*Result, error) {
	return a.run(ctx, []ai.Message{{Role: ai.RoleUser, Content: prompt}}, false).CollectWith(onEvent)
}

// Run is Execute over an existing message list.
func (a *Agent) Run(ctx context.Context, messages []ai.Message) (*Result, error) {
	return a.run(ctx, messages, false).Collect()
}

// ExecuteStream runs the loop with streamed model calls.
func (a *Agent) ExecuteStream(ctx context.Context, prompt string) *Stream {
	return a.RunStream(ctx, []ai.Message{{Role: ai.RoleUser, Content: prompt}})
}

func (a *Agent) RunStream(ctx context.Context, messages []ai.Message) *Stream {
	return a.run(ctx, messages, true)
}

// executeTool runs one tool call and returns the message content sent back
// to the model. The returned error describes a failed call; it is also
// encoded in the content.
func (a *Agent) executeTool(ctx context.Context, call ai.ToolCall) (string, error) {
	observer := a.client.Observer()
	name := call.Function.Name

	t, ok := a.client.Tools().Get(name)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownTool, name)
		a.countTool(ctx, observer, name, err)
		return encodeToolResult(ai.NewToolResultError(ai.ToolErrorNotFound, err.Error())), err
	}

	output, err := t.Call(ctx, call.Function.Arguments)
	a.countTool(ctx, observer, name, err)
	if err != nil {
		return encodeToolResult(ai.NewToolResultError(ai.ToolErrorExecutionFailed, err.Error())), err
	}

	var data any = output
	if json.Valid([]byte(output)) {
		data = json.RawMessage(output)
	}
	return encodeToolResult(ai.NewToolResultSuccess(data)), nil
}

func (a *Agent) countTool(ctx context.Context, observer observability.Provider, name string, err error) {
	if observer == nil {
		return
	}
	attrs := []observability.Attribute{
		observability.String(observability.AttrToolName, name),
		observability.String(observability.AttrAgentName, a.name),
	}
	observer.Counter(observability.MetricToolExecutionCount).Add(ctx, 1, attrs...)
	if err != nil {
		observer.Counter(observability.MetricToolExecutionFailures).Add(ctx, 1, attrs...)
		observer.Warn(ctx, "tool call failed", append(attrs, observability.Error(err))...)
	}
}

func encodeToolResult(result ai.ToolResult) string {
	encoded, err := result.ToJSON()
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q,"message":"cannot encode tool result"}`, ai.ToolErrorExecutionFailed)
	}
	return encoded
}
