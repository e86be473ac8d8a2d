package react

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/leofalp/finchat/providers/ai"
	"github.com/leofalp/finchat/providers/observability"
)

// EventType identifies the phase of the loop that produced an Event.
type EventType string

const (
	EventIterationStart EventType = "iteration_start"
	EventReasoning      EventType = "reasoning"
	EventContent        EventType = "content"
	// EventToolCall is emitted once per call, after the model's reply for
	// the iteration has been fully received.
	EventToolCall    EventType = "tool_call"
	EventToolResult  EventType = "tool_result"
	EventFinalAnswer EventType = "final_answer"
	// EventError ends the stream.
	EventError EventType = "error"
)

type Event struct {
	Type      EventType `json:"type"`
	Iteration int       `json:"iteration"`
	// Content is a delta for EventContent and the whole answer for
	// EventFinalAnswer.
	Content    string `json:"content,omitempty"`
	Reasoning  string `json:"reasoning,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
	ToolInput  string `json:"tool_input,omitempty"`
	ToolOutput string `json:"tool_output,omitempty"`
	// Err is set on EventError, and on EventToolResult when the call failed.
	Err error `json:"-"`
}

// Stream is a running agent loop. It must be consumed through Iter or
// Collect; breaking out of Iter early stops the loop.
type Stream struct {
	iterator iter.Seq2[Event, error]
	result   *Result
}

func (s *Stream) Iter() iter.Seq2[Event, error] {
	return s.iterator
}

// Collect drains the stream and returns the run's result.
func (s *Stream) Collect() (*Result, error) {
	return s.CollectWith(nil)
}

// CollectWith is Collect with a callback invoked for every event.
func (s *Stream) CollectWith(onEvent func(Event)) (*Result, error) {
	for event, err := range s.iterator {
		if err != nil {
			return nil, err
		}
		if onEvent != nil {
			onEvent(event)
		}
	}
	if s.result == nil {
		return nil, fmt.Errorf("react: stream ended without a result")
	}
	return s.result, nil
}

func (a *Agent) run(ctx context.Context, messages []ai.Message, streaming bool) *Stream {
	s := &Stream{}
	s.iterator = func(yield func(Event, error) bool) {
		ctx, span := a.startSpan(ctx, streaming)
		if span != nil {
			defer span.End()
		}

		fail := func(iteration int, err error) {
			if span != nil {
				span.RecordError(err)
				span.SetStatus(observability.StatusError, err.Error())
			}
			yield(Event{Type: EventError, Iteration: iteration, Err: err}, err)
		}

		history := slices.Clone(messages)
		result := &Result{}

		for iteration := 1; iteration <= a.maxIterations; iteration++ {
			if err := ctx.Err(); err != nil {
				fail(iteration, err)
				return
			}
			if span != nil {
				span.AddEvent(observability.EventLLMRequestStart, observability.Int(observability.AttrAgentIteration, iteration))
			}
			if !yield(Event{Type: EventIterationStart, Iteration: iteration}, nil) {
				return
			}

			response, proceed, err := a.complete(ctx, history, iteration, streaming, yield)
			if !proceed {
				return
			}
			if err != nil {
				fail(iteration, fmt.Errorf("%s iteration %d: %w", a.name, iteration, err))
				return
			}

			result.Iterations = iteration
			if response.Usage != nil {
				result.Usage.PromptTokens += response.Usage.PromptTokens
				result.Usage.CompletionTokens += response.Usage.CompletionTokens
				result.Usage.TotalTokens += response.Usage.TotalTokens
			}
			history = append(history, response.AssistantMessage())

			if a.client.IsStopMessage(response) {
				result.Answer = response.Content
				result.Reasoning = response.Reasoning
				result.Messages = history
				s.result = result
				if span != nil {
					span.SetAttributes(
						observability.Int(observability.AttrAgentIteration, iteration),
						observability.Int(observability.AttrLLMTokensTotal, result.Usage.TotalTokens),
					)
					span.SetStatus(observability.StatusOK, "")
				}
				yield(Event{Type: EventFinalAnswer, Iteration: iteration, Content: response.Content}, nil)
				return
			}

			for _, call := range response.ToolCalls {
				result.ToolCalls++
				if !yield(Event{
					Type:       EventToolCall,
					Iteration:  iteration,
					ToolCallID: call.ID,
					ToolName:   call.Function.Name,
					ToolInput:  call.Function.Arguments,
				}, nil) {
					return
				}

				content, toolErr := a.executeTool(ctx, call)
				history = append(history, ai.Message{
					Role:       ai.RoleTool,
					Content:    content,
					ToolCallID: call.ID,
					Name:       call.Function.Name,
				})

				if !yield(Event{
					Type:       EventToolResult,
					Iteration:  iteration,
					ToolCallID: call.ID,
					ToolName:   call.Function.Name,
					ToolOutput: content,
					Err:        toolErr,
				}, nil) {
					return
				}
			}
		}

		fail(a.maxIterations, fmt.Errorf("%s: %w (%d)", a.name, ErrMaxIterations, a.maxIterations))
	}
	return s
}

// complete performs one model call, forwarding content and reasoning to
// yield. proceed is false when the consumer stopped the stream.
func (a *Agent) complete(
	ctx context.Context,
	history []ai.Message,
	iteration int,
	streaming bool,
	yield func(Event, error) bool,
) (response *ai.ChatResponse, proceed bool, err error) {
	if !streaming {
		response, err = a.client.Send(ctx, history)
		if err != nil {
			return nil, true, err
		}
		if response.Reasoning != "" && !yield(Event{Type: EventReasoning, Iteration: iteration, Reasoning: response.Reasoning}, nil) {
			return nil, false, nil
		}
		if response.Content != "" && !yield(Event{Type: EventContent, Iteration: iteration, Content: response.Content}, nil) {
			return nil, false, nil
		}
		return response, true, nil
	}

	stream, err := a.client.Stream(ctx, history)
	if err != nil {
		return nil, true, err
	}

	var acc ai.Accumulator
	for event, streamErr := range stream.Iter() {
		if streamErr != nil {
			return acc.Response(), true, streamErr
		}
		acc.Add(event)

		switch event.Type {
		case ai.StreamEventContent:
			if event.Content != "" && !yield(Event{Type: EventContent, Iteration: iteration, Content: event.Content}, nil) {
				return nil, false, nil
			}
		case ai.StreamEventReasoning:
			if event.Reasoning != "" && !yield(Event{Type: EventReasoning, Iteration: iteration, Reasoning: event.Reasoning}, nil) {
				return nil, false, nil
			}
		}
	}
	return acc.Response(), true, nil
}

func (a *Agent) startSpan(ctx context.Context, streaming bool) (context.Context, observability.Span) {
	observer := a.client.Observer()
	if observer == nil {
		return ctx, nil
	}
	ctx, span := observer.StartSpan(ctx, observability.SpanAgentRun,
		observability.String(observability.AttrAgentName, a.name),
		observability.Bool(observability.AttrLLMStreaming, streaming),
	)
	ctx = observability.ContextWithObserver(ctx, observer)
	return ctx, span
}
