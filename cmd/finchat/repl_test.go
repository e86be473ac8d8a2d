package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/leofalp/finchat/core/conversation"
)

type promptLog struct {
	prompts []string
	streams []bool
}

func (p *promptLog) answerer(answer string) conversation.Answerer {
	return conversation.AnswererFunc(func(_ context.Context, prompt string, stream bool) (string, error) {
		p.prompts = append(p.prompts, prompt)
		p.streams = append(p.streams, stream)
		return answer, nil
	})
}

func TestRepl_QuitWords(t *testing.T) {
	for _, word := range []string{"quit", "exit", "q", "QUIT", "Exit", "  q  "} {
		t.Run(word, func(t *testing.T) {
			log := &promptLog{}
			out := &bytes.Buffer{}
			r := &repl{
				manager: conversation.New(log.answerer("ok")),
				in:      strings.NewReader("Hello\n" + word + "\nnever asked\n"),
				out:     out,
			}

			if err := r.run(context.Background()); err != nil {
				t.Fatalf("run: %v", err)
			}
			if len(log.prompts) != 1 || log.prompts[0] != "Hello" {
				t.Errorf("prompts = %q", log.prompts)
			}
			if !strings.Contains(out.String(), "Goodbye!") {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}

func TestRepl_FollowUpAndBlankLines(t *testing.T) {
	log := &promptLog{}
	out := &bytes.Buffer{}
	r := &repl{
		manager: conversation.New(log.answerer("ok")),
		in:      strings.NewReader("Tell me about NVDA\n\n   \nwhat is its P/E\n"),
		out:     out,
		stream:  true,
	}

	if err := r.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(log.prompts) != 2 {
		t.Fatalf("prompts = %q", log.prompts)
	}
	if !strings.HasPrefix(log.prompts[1], "Previous conversation context:") {
		t.Errorf("follow-up not augmented: %q", log.prompts[1])
	}
	if !log.streams[0] || !log.streams[1] {
		t.Error("stream flag not forwarded")
	}
	if got := strings.Count(out.String(), promptText); got != 5 {
		t.Errorf("prompt shown %d times, want 5", got)
	}
}

func TestRepl_PassesLineVerbatim(t *testing.T) {
	ctx := context.Background()
	log := &promptLog{}
	manager := conversation.New(log.answerer("ok"))
	r := &repl{
		manager: manager,
		in:      strings.NewReader("  Tell me about NVDA  \n"),
		out:     io.Discard,
	}

	if err := r.run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(log.prompts) != 1 || log.prompts[0] != "  Tell me about NVDA  " {
		t.Errorf("prompts = %q", log.prompts)
	}
	if turns := manager.Turns(ctx); len(turns) == 0 || turns[0].Content != "  Tell me about NVDA  " {
		t.Errorf("recorded turns = %+v", turns)
	}
}

func TestRepl_Interrupted(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log := &promptLog{}
	out := &bytes.Buffer{}
	r := &repl{manager: conversation.New(log.answerer("ok")), in: pr, out: out}

	if err := r.run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(log.prompts) != 0 {
		t.Errorf("prompts = %q", log.prompts)
	}
	if !strings.Contains(out.String(), "Goodbye!") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRepl_InterruptDuringQuery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reported := 0
	reporter := reporterFunc(func(context.Context, string, error) { reported++ })
	manager := conversation.New(
		conversation.AnswererFunc(func(ctx context.Context, _ string, _ bool) (string, error) {
			cancel()
			return "", ctx.Err()
		}),
		conversation.WithErrorReporter(interruptFilter{ctx: ctx, next: reporter}),
	)

	out := &bytes.Buffer{}
	r := &repl{manager: manager, in: strings.NewReader("Hello\nsecond\n"), out: out}
	if err := r.run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if reported != 0 {
		t.Errorf("cancellation reported %d times", reported)
	}
	if !strings.Contains(out.String(), "Goodbye!") {
		t.Errorf("output = %q", out.String())
	}
}

func TestInterruptFilter_PassesOtherErrors(t *testing.T) {
	var got []error
	filter := interruptFilter{
		ctx:  context.Background(),
		next: reporterFunc(func(_ context.Context, _ string, err error) { got = append(got, err) }),
	}

	filter.Report(context.Background(), "Error processing query", context.Canceled)
	filter.Report(context.Background(), "Error processing query", errors.New("rate limited"))

	if len(got) != 2 {
		t.Errorf("reported %d errors, want 2 while not interrupted", len(got))
	}
}

func TestRepl_ReadError(t *testing.T) {
	failure := errors.New("stdin closed")
	r := &repl{
		manager: conversation.New((&promptLog{}).answerer("ok")),
		in:      io.MultiReader(strings.NewReader("Hello\n"), errReader{failure}),
		out:     io.Discard,
	}
	if err := r.run(context.Background()); !errors.Is(err, failure) {
		t.Errorf("err = %v, want %v", err, failure)
	}
}

type reporterFunc func(ctx context.Context, msg string, err error)

func (f reporterFunc) Report(ctx context.Context, msg string, err error) { f(ctx, msg, err) }

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
