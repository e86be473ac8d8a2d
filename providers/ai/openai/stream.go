package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/leofalp/finchat/internal/utils"
	"github.com/leofalp/finchat/providers/ai"
	"github.com/leofalp/finchat/providers/observability"
)

type chatCompletionChunk struct {
	ID      string        `json:"id"`
	Model   string        `json:"model"`
	Choices []chunkChoice `json:"choices"`
	Usage   *chatUsage    `json:"usage,omitempty"`
	// Groq reports usage under x_groq instead of the top level.
	XGroq *struct {
		Usage *chatUsage `json:"usage,omitempty"`
	} `json:"x_groq,omitempty"`
}

type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

type chunkDelta struct {
	Role      string          `json:"role,omitempty"`
	Content   *string         `json:"content,omitempty"`
	Reasoning *string         `json:"reasoning,omitempty"`
	ToolCalls []chunkToolCall `json:"tool_calls,omitempty"`
}

type chunkToolCall struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Function struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	} `json:"function"`
}

// StreamMessage sends the request with stream=true. The returned stream
// closes the HTTP body when iteration stops.
func (p *Provider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	p.annotate(ctx, request, true)

	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body := toChatCompletionRequest(request, p.capabilities)
	body.Stream = true
	if p.capabilities.StreamUsage {
		body.StreamOptions = &streamOptions{IncludeUsage: true}
	}

	res, err := utils.DoPostStream(ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, body)
	if err != nil {
		if observer := observability.ObserverFromContext(ctx); observer != nil {
			observer.Trace(ctx, "Streaming request failed", observability.Error(err))
		}
		return nil, err
	}

	scanner := utils.NewSSEScanner(res.Body)
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		defer utils.CloseWithLog(res.Body)

		var splitter thinkSplitter
		for {
			if err := ctx.Err(); err != nil {
				yield(ai.StreamEvent{}, err)
				return
			}

			payload, err := scanner.Next()
			if err == io.EOF {
				for _, event := range textEvents(splitter.flush()) {
					if !yield(event, nil) {
						return
					}
				}
				return
			}
			if err != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("SSE read error: %w", err))
				return
			}

			var chunk chatCompletionChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("failed to parse streaming chunk: %w", err))
				return
			}

			for _, event := range chunkToEvents(&chunk, &splitter) {
				if !yield(event, nil) {
					return
				}
			}
		}
	}), nil
}

// chunkToEvents converts one SSE chunk. Content goes through the splitter
// so inline <think> text becomes reasoning events.
func chunkToEvents(chunk *chatCompletionChunk, splitter *thinkSplitter) []ai.StreamEvent {
	var events []ai.StreamEvent

	for _, choice := range chunk.Choices {
		delta := choice.Delta
		if delta.Reasoning != nil && *delta.Reasoning != "" {
			events = append(events, ai.StreamEvent{Type: ai.StreamEventReasoning, Reasoning: *delta.Reasoning})
		}
		if delta.Content != nil && *delta.Content != "" {
			events = append(events, textEvents(splitter.feed(*delta.Content))...)
		}
		for _, call := range delta.ToolCalls {
			events = append(events, ai.StreamEvent{
				Type: ai.StreamEventToolCall,
				ToolCall: &ai.ToolCallDelta{
					Index:     call.Index,
					ID:        call.ID,
					Name:      call.Function.Name,
					Arguments: call.Function.Arguments,
				},
			})
		}
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			events = append(events, textEvents(splitter.flush())...)
			events = append(events, ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: *choice.FinishReason})
		}
	}

	usage := chunk.Usage
	if usage == nil && chunk.XGroq != nil {
		usage = chunk.XGroq.Usage
	}
	if usage != nil {
		events = append(events, ai.StreamEvent{Type: ai.StreamEventUsage, Usage: usage.toGeneric()})
	}
	return events
}

func textEvents(reasoning, answer string) []ai.StreamEvent {
	var events []ai.StreamEvent
	if reasoning != "" {
		events = append(events, ai.StreamEvent{Type: ai.StreamEventReasoning, Reasoning: reasoning})
	}
	if answer != "" {
		events = append(events, ai.StreamEvent{Type: ai.StreamEventContent, Content: answer})
	}
	return events
}
