package client

import (
	"context"
	"time"

	"github.com/leofalp/finchat/internal/utils"
	"github.com/leofalp/finchat/providers/ai"
	"github.com/leofalp/finchat/providers/observability"
)

// NewObservabilityMiddleware opens a span per call and records request
// counters, durations and token usage. For streams the outcome is recorded
// once the iterator is drained, abandoned or fails.
//
// The span and observer are put in the context passed down the chain, so
// providers and tools can attach events with observability.SpanFromContext.
func NewObservabilityMiddleware(observer observability.Provider, defaultModel string) MiddlewareConfig {
	return MiddlewareConfig{
		Send:   observeSend(observer, defaultModel),
		Stream: observeStream(observer, defaultModel),
	}
}

func observeSend(observer observability.Provider, defaultModel string) Middleware {
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			model := effectiveModel(request.Model, defaultModel)
			ctx, span := startCallSpan(ctx, observer, observability.SpanClientSendMessage, model, request)

			start := time.Now()
			response, err := next(ctx, request)
			elapsed := time.Since(start)
			if err != nil {
				recordFailure(ctx, span, observer, model, "llm send failed", err, elapsed)
				return nil, err
			}

			recordSuccess(ctx, span, observer, response, model, elapsed)
			return response, nil
		}
	}
}

func observeStream(observer observability.Provider, defaultModel string) StreamMiddleware {
	return func(next StreamFunc) StreamFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
			model := effectiveModel(request.Model, defaultModel)
			ctx, span := startCallSpan(ctx, observer, observability.SpanClientStreamMessage, model, request)

			start := time.Now()
			stream, err := next(ctx, request)
			if err != nil {
				recordFailure(ctx, span, observer, model, "llm stream failed", err, time.Since(start))
				return nil, err
			}
			return observeEvents(ctx, stream, span, observer, model, start), nil
		}
	}
}

func startCallSpan(ctx context.Context, observer observability.Provider, name, model string, request ai.ChatRequest) (context.Context, observability.Span) {
	ctx, span := observer.StartSpan(ctx, name,
		observability.String(observability.AttrLLMModel, model),
		observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
		observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
	)
	ctx = observability.ContextWithSpan(ctx, span)
	ctx = observability.ContextWithObserver(ctx, observer)
	return ctx, span
}

func observeEvents(
	ctx context.Context,
	stream *ai.ChatStream,
	span observability.Span,
	observer observability.Provider,
	model string,
	start time.Time,
) *ai.ChatStream {
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		summary := &ai.ChatResponse{Model: model}

		for event, err := range stream.Iter() {
			if err != nil {
				recordFailure(ctx, span, observer, model, "llm stream failed", err, time.Since(start))
				yield(event, err)
				return
			}

			switch event.Type {
			case ai.StreamEventUsage:
				summary.Usage = event.Usage
			case ai.StreamEventDone:
				summary.FinishReason = event.FinishReason
			case ai.StreamEventToolCall:
				if event.ToolCall != nil && event.ToolCall.Name != "" {
					summary.ToolCalls = append(summary.ToolCalls, ai.ToolCall{
						Function: ai.ToolCallFunction{Name: event.ToolCall.Name},
					})
				}
			}

			if !yield(event, nil) {
				span.SetStatus(observability.StatusOK, "llm stream abandoned")
				span.End()
				observer.Info(ctx, "llm stream abandoned",
					observability.String(observability.AttrLLMModel, model),
					observability.Duration(observability.AttrDuration, time.Since(start)),
				)
				return
			}
		}

		recordSuccess(ctx, span, observer, summary, model, time.Since(start))
	})
}

func recordFailure(
	ctx context.Context,
	span observability.Span,
	observer observability.Provider,
	model, message string,
	err error,
	elapsed time.Duration,
) {
	span.RecordError(err)
	span.SetStatus(observability.StatusError, message)
	span.End()

	observer.Error(ctx, message,
		observability.Error(err),
		observability.Duration(observability.AttrDuration, elapsed),
		observability.String(observability.AttrLLMModel, model),
	)
	observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, "error"),
		observability.String(observability.AttrLLMModel, model),
	)
}

func recordSuccess(
	ctx context.Context,
	span observability.Span,
	observer observability.Provider,
	response *ai.ChatResponse,
	model string,
	elapsed time.Duration,
) {
	observer.Histogram(observability.MetricClientRequestDuration).Record(ctx, elapsed.Seconds(),
		observability.String(observability.AttrLLMModel, model),
	)
	observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, "success"),
		observability.String(observability.AttrLLMModel, model),
	)

	logAttrs := []observability.Attribute{
		observability.String(observability.AttrLLMModel, model),
		observability.String(observability.AttrLLMFinishReason, response.FinishReason),
		observability.Duration(observability.AttrDuration, elapsed),
		observability.Int(observability.AttrClientToolCalls, len(response.ToolCalls)),
	}

	if usage := response.Usage; usage != nil {
		observer.Counter(observability.MetricClientTokensTotal).Add(ctx, int64(usage.TotalTokens),
			observability.String(observability.AttrLLMModel, model))
		observer.Counter(observability.MetricClientTokensPrompt).Add(ctx, int64(usage.PromptTokens),
			observability.String(observability.AttrLLMModel, model))
		observer.Counter(observability.MetricClientTokensCompletion).Add(ctx, int64(usage.CompletionTokens),
			observability.String(observability.AttrLLMModel, model))

		tokens := []observability.Attribute{
			observability.Int(observability.AttrLLMTokensPrompt, usage.PromptTokens),
			observability.Int(observability.AttrLLMTokensCompletion, usage.CompletionTokens),
			observability.Int(observability.AttrLLMTokensTotal, usage.TotalTokens),
		}
		span.SetAttributes(tokens...)
		logAttrs = append(logAttrs, tokens...)
	}

	if len(response.ToolCalls) > 0 {
		names := make([]string, len(response.ToolCalls))
		for i, call := range response.ToolCalls {
			names[i] = call.Function.Name
		}
		logAttrs = append(logAttrs, observability.StringSlice("tool_calls", names))
	}
	if response.Content != "" {
		logAttrs = append(logAttrs, observability.String("response", utils.TruncateString(response.Content, 100)))
	}

	observer.Info(ctx, "llm call completed", logAttrs...)

	span.SetStatus(observability.StatusOK, "success")
	span.End()
}

// effectiveModel prefers the request's model over the client default.
func effectiveModel(requestModel, defaultModel string) string {
	if requestModel != "" {
		return requestModel
	}
	return defaultModel
}
