package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/leofalp/finchat/core/client"
	"github.com/leofalp/finchat/internal/utils"
	"github.com/leofalp/finchat/providers/ai"
)

// LogLevel controls how much of each call is logged.
type LogLevel int

const (
	// LogLevelMinimal logs the model, duration and token counts.
	LogLevelMinimal LogLevel = iota
	// LogLevelStandard adds message and tool counts and the finish reason.
	LogLevelStandard
	// LogLevelVerbose adds the last message and the answer, truncated. It
	// logs user prompts verbatim; keep it for local debugging.
	LogLevelVerbose
)

// ParseLogLevel maps "minimal", "standard" and "verbose" to a LogLevel.
// Anything else yields LogLevelStandard.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "minimal":
		return LogLevelMinimal
	case "verbose":
		return LogLevelVerbose
	default:
		return LogLevelStandard
	}
}

const truncateLen = 500

// NewLoggingMiddleware logs every provider call on logger. For streams the
// completion record is written once the stream has been drained.
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send:   logSend(logger, level),
		Stream: logStream(logger, level),
	}
}

func logSend(logger *slog.Logger, level LogLevel) client.Middleware {
	return func(next client.SendFunc) client.SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			logger.InfoContext(ctx, "llm send", requestAttrs(request, level)...)

			start := time.Now()
			response, err := next(ctx, request)
			elapsed := time.Since(start)
			if err != nil {
				logger.ErrorContext(ctx, "llm send failed",
					slog.String("model", request.Model),
					slog.Duration("duration", elapsed),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			logger.InfoContext(ctx, "llm send completed", responseAttrs(request.Model, response, elapsed, level)...)
			return response, nil
		}
	}
}

func logStream(logger *slog.Logger, level LogLevel) client.StreamMiddleware {
	return func(next client.StreamFunc) client.StreamFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
			logger.InfoContext(ctx, "llm stream", requestAttrs(request, level)...)

			start := time.Now()
			stream, err := next(ctx, request)
			if err != nil {
				logger.ErrorContext(ctx, "llm stream failed",
					slog.String("model", request.Model),
					slog.Duration("duration", time.Since(start)),
					slog.String("error", err.Error()),
				)
				return nil, err
			}
			return logEvents(ctx, stream, logger, request.Model, level, start), nil
		}
	}
}

func logEvents(
	ctx context.Context,
	stream *ai.ChatStream,
	logger *slog.Logger,
	model string,
	level LogLevel,
	start time.Time,
) *ai.ChatStream {
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		summary := &ai.ChatResponse{}
		var content []byte

		for event, err := range stream.Iter() {
			if err != nil {
				logger.ErrorContext(ctx, "llm stream failed",
					slog.String("model", model),
					slog.Duration("duration", time.Since(start)),
					slog.String("error", err.Error()),
				)
				yield(event, err)
				return
			}

			switch event.Type {
			case ai.StreamEventUsage:
				summary.Usage = event.Usage
			case ai.StreamEventDone:
				summary.FinishReason = event.FinishReason
			case ai.StreamEventContent:
				if level >= LogLevelVerbose && len(content) < truncateLen {
					content = append(content, event.Content...)
				}
			case ai.StreamEventToolCall:
				if event.ToolCall != nil && event.ToolCall.Name != "" {
					summary.ToolCalls = append(summary.ToolCalls, ai.ToolCall{})
				}
			}

			if !yield(event, nil) {
				logger.InfoContext(ctx, "llm stream abandoned",
					slog.String("model", model),
					slog.Duration("duration", time.Since(start)),
				)
				return
			}
		}

		summary.Content = string(content)
		logger.InfoContext(ctx, "llm stream completed", responseAttrs(model, summary, time.Since(start), level)...)
	})
}

func requestAttrs(request ai.ChatRequest, level LogLevel) []any {
	attrs := []any{slog.String("model", request.Model)}
	if level >= LogLevelStandard {
		attrs = append(attrs,
			slog.Int("message_count", len(request.Messages)),
			slog.Int("tool_count", len(request.Tools)),
		)
	}
	if level >= LogLevelVerbose && len(request.Messages) > 0 {
		last := request.Messages[len(request.Messages)-1]
		attrs = append(attrs,
			slog.String("last_message_role", string(last.Role)),
			slog.String("last_message_content", utils.TruncateString(last.Content, truncateLen)),
		)
	}
	return attrs
}

func responseAttrs(requestModel string, response *ai.ChatResponse, elapsed time.Duration, level LogLevel) []any {
	model := response.Model
	if model == "" {
		model = requestModel
	}
	attrs := []any{
		slog.String("model", model),
		slog.Duration("duration", elapsed),
	}
	if response.Usage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", response.Usage.PromptTokens),
			slog.Int("completion_tokens", response.Usage.CompletionTokens),
			slog.Int("total_tokens", response.Usage.TotalTokens),
		)
	}
	if level >= LogLevelStandard {
		if response.FinishReason != "" {
			attrs = append(attrs, slog.String("finish_reason", response.FinishReason))
		}
		if len(response.ToolCalls) > 0 {
			attrs = append(attrs, slog.Int("tool_calls", len(response.ToolCalls)))
		}
	}
	if level >= LogLevelVerbose && response.Content != "" {
		attrs = append(attrs, slog.String("response_content", utils.TruncateString(response.Content, truncateLen)))
	}
	return attrs
}
