package main

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/leofalp/finchat/core/conversation"
)

const promptText = "Enter your question (or 'quit' to exit): "

var quitWords = map[string]bool{"quit": true, "exit": true, "q": true}

// repl reads one question per line until a quit word, end of input or
// cancellation of ctx.
type repl struct {
	manager     *conversation.Manager
	in          io.Reader
	out         io.Writer
	stream      bool
	interactive bool
}

func (r *repl) run(ctx context.Context) error {
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines, readErr := r.readLines(readCtx)

	prompt := color.New(color.FgCyan, color.Bold)
	for {
		_, _ = io.WriteString(r.out, "\n")
		_, _ = prompt.Fprint(r.out, promptText)

		select {
		case <-ctx.Done():
			r.goodbye(true)
			return nil

		case line, ok := <-lines:
			if !ok {
				r.goodbye(r.interactive)
				return <-readErr
			}

			input := strings.TrimSpace(line)
			if quitWords[strings.ToLower(input)] {
				r.goodbye(false)
				return nil
			}
			if input == "" {
				continue
			}

			r.manager.ProcessQuery(ctx, line, r.stream)
			if ctx.Err() != nil {
				r.goodbye(true)
				return nil
			}
		}
	}
}

func (r *repl) readLines(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
		readErr <- scanner.Err()
	}()
	return lines, readErr
}

func (r *repl) goodbye(newline bool) {
	if newline {
		_, _ = io.WriteString(r.out, "\n")
	}
	_, _ = color.New(color.FgGreen).Fprintln(r.out, "Goodbye!")
}
