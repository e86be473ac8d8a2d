package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leofalp/finchat/core/parse"
	"github.com/leofalp/finchat/internal/jsonschema"
	"github.com/leofalp/finchat/internal/utils"
	"github.com/leofalp/finchat/providers/ai"
	"github.com/leofalp/finchat/providers/observability"
)

// GenericTool is a tool whose input and output types have been erased.
type GenericTool interface {
	ToolInfo() ai.ToolDescription
	// Call runs the tool with JSON arguments and returns its JSON output.
	Call(ctx context.Context, inputJSON string) (string, error)
}

// Tool binds a name and description to a typed function.
type Tool[I, O any] struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Function    func(ctx context.Context, input I) (O, error)
}

var _ GenericTool = (*Tool[struct{}, struct{}])(nil)

type Option func(*options)

type options struct {
	description string
}

func WithDescription(description string) Option {
	return func(o *options) {
		o.description = description
	}
}

// NewTool builds a Tool. It panics if no schema can be derived from I, which
// is a programming error caught the first time the tool is constructed.
//
//	price := tool.NewTool("get_current_stock_price", fetchPrice,
//	    tool.WithDescription("Current price of a stock"))
func NewTool[I, O any](name string, function func(ctx context.Context, input I) (O, error), opts ...Option) *Tool[I, O] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	schema, err := jsonschema.GenerateJSONSchema[I]()
	if err != nil {
		panic(fmt.Sprintf("tool %s: cannot derive input schema: %v", name, err))
	}

	return &Tool[I, O]{
		Name:        name,
		Description: o.description,
		Parameters:  schema,
		Function:    function,
	}
}

func (t *Tool[I, O]) ToolInfo() ai.ToolDescription {
	return ai.ToolDescription{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Call parses inputJSON leniently, runs the function and marshals its
// output. Execution is recorded as events on the span in ctx.
func (t *Tool[I, O]) Call(ctx context.Context, inputJSON string) (string, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.AddEvent(observability.EventToolExecutionStart,
			observability.String(observability.AttrToolName, t.Name),
			observability.String(observability.AttrToolInput, inputJSON),
		)
	}

	start := time.Now()
	output, err := t.call(ctx, inputJSON)
	elapsed := time.Since(start)

	if span != nil {
		attrs := []observability.Attribute{
			observability.String(observability.AttrToolName, t.Name),
			observability.Duration(observability.AttrToolDuration, elapsed),
		}
		if err != nil {
			attrs = append(attrs, observability.String(observability.AttrToolError, err.Error()))
		} else {
			attrs = append(attrs, observability.String(observability.AttrToolOutput, utils.TruncateString(output, 0)))
		}
		span.AddEvent(observability.EventToolExecutionEnd, attrs...)
	}
	return output, err
}

func (t *Tool[I, O]) call(ctx context.Context, inputJSON string) (string, error) {
	if inputJSON == "" {
		inputJSON = "{}"
	}
	input, err := parse.ParseStringAs[I](inputJSON)
	if err != nil {
		return "", fmt.Errorf("invalid arguments for %s: %w", t.Name, err)
	}

	output, err := t.Function(ctx, input)
	if err != nil {
		return "", err
	}

	encoded, err := json.Marshal(output)
	if err != nil {
		return "", fmt.Errorf("encoding %s output: %w", t.Name, err)
	}
	return string(encoded), nil
}
