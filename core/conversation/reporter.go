package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/fatih/color"
)

// ErrorReporter is the operator error channel.
type ErrorReporter interface {
	Report(ctx context.Context, msg string, err error)
}

// StderrReporter writes a one-line message followed by a diagnostic trace:
// every error in the wrapped chain and a goroutine stack (see Trace).
type StderrReporter struct {
	mu     sync.Mutex
	out    io.Writer
	header *color.Color
}

func NewStderrReporter(w io.Writer) *StderrReporter {
	return &StderrReporter{out: w}
}

// WithColor paints the message line. Colour output still honours
// color.NoColor.
func (r *StderrReporter) WithColor(c *color.Color) *StderrReporter {
	r.header = c
	return r
}

func (r *StderrReporter) Report(_ context.Context, msg string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := fmt.Sprintf("%s: %v", msg, err)
	if r.header != nil {
		_, _ = r.header.Fprintln(r.out, line)
	} else {
		_, _ = fmt.Fprintln(r.out, line)
	}
	_, _ = io.WriteString(r.out, Trace(err))
}

// Trace renders the error chain and a stack trace. A recovered panic
// carries the stack of the panic site; any other error only has the stack
// of the goroutine reporting it, and is labelled as such.
func Trace(err error) string {
	var b []byte
	b = append(b, "Error chain:\n"...)
	for depth, e := 0, err; e != nil; depth, e = depth+1, errors.Unwrap(e) {
		b = fmt.Appendf(b, "  [%d] %T: %v\n", depth, e, e)
	}

	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		b = append(b, "Panic stack:\n"...)
		b = append(b, panicErr.Stack...)
	} else {
		b = append(b, "Reported from:\n"...)
		b = append(b, debug.Stack()...)
	}
	if len(b) > 0 && b[len(b)-1] != '\n' {
		b = append(b, '\n')
	}
	return string(b)
}

type logReporter struct {
	logger *slog.Logger
}

func (r logReporter) Report(ctx context.Context, msg string, err error) {
	r.logger.ErrorContext(ctx, msg, slog.Any("error", err))
}
