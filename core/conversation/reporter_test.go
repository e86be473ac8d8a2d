package conversation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestStderrReporter_ErrorChain(t *testing.T) {
	buf := &bytes.Buffer{}
	root := errors.New("connection refused")
	err := fmt.Errorf("leader iteration 1: %w", root)

	NewStderrReporter(buf).Report(context.Background(), "Error processing query", err)

	out := buf.String()
	if !strings.HasPrefix(out, "Error processing query: leader iteration 1: connection refused\n") {
		t.Errorf("headline missing:\n%s", out)
	}
	for _, want := range []string{"Error chain:", "[0] *fmt.wrapError", "[1] *errors.errorString: connection refused", "Reported from:\ngoroutine "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Panic stack:") {
		t.Errorf("plain error labelled as a panic:\n%s", out)
	}
}

func TestStderrReporter_PanicStack(t *testing.T) {
	buf := &bytes.Buffer{}
	err := &PanicError{Value: "boom", Stack: []byte("goroutine 7 [running]:\nmain.explode()\n")}

	NewStderrReporter(buf).Report(context.Background(), "Error processing query", err)

	out := buf.String()
	if !strings.Contains(out, "answerer panicked: boom") || !strings.Contains(out, "Panic stack:\ngoroutine 7 [running]:\nmain.explode()") {
		t.Errorf("panic stack not printed:\n%s", out)
	}
	if strings.Contains(out, "Reported from:") {
		t.Errorf("reporting-site stack printed for a panic:\n%s", out)
	}
}

func TestStderrReporter_Color(t *testing.T) {
	buf := &bytes.Buffer{}
	red := color.New(color.FgRed)
	red.EnableColor()

	NewStderrReporter(buf).WithColor(red).Report(context.Background(), "Error processing query", errors.New("x"))

	if !strings.HasPrefix(buf.String(), "\x1b[31m") {
		t.Errorf("headline not coloured: %q", buf.String())
	}
}
