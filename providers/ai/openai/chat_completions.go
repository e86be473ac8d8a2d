package openai

import (
	"github.com/leofalp/finchat/internal/jsonschema"
	"github.com/leofalp/finchat/providers/ai"
)

type chatCompletionRequest struct {
	Model             string         `json:"model"`
	Messages          []chatMessage  `json:"messages"`
	Tools             []chatTool     `json:"tools,omitempty"`
	ToolChoice        string         `json:"tool_choice,omitempty"`
	ParallelToolCalls *bool          `json:"parallel_tool_calls,omitempty"`
	Temperature       *float64       `json:"temperature,omitempty"`
	MaxTokens         *int           `json:"max_tokens,omitempty"`
	ReasoningFormat   string         `json:"reasoning_format,omitempty"`
	Stream            bool           `json:"stream,omitempty"`
	StreamOptions     *streamOptions `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage,omitempty"`
}

type chatChoice struct {
	Index        int                 `json:"index"`
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type chatResponseMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Reasoning string         `json:"reasoning,omitempty"`
	ToolCalls []chatToolCall `json:"tool_calls,omitempty"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (u *chatUsage) toGeneric() *ai.Usage {
	if u == nil {
		return nil
	}
	return &ai.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

func toChatCompletionRequest(request ai.ChatRequest, caps Capabilities) chatCompletionRequest {
	req := chatCompletionRequest{
		Model:           request.Model,
		Temperature:     request.Temperature,
		ReasoningFormat: caps.ReasoningFormat,
	}
	if request.MaxTokens > 0 {
		maxTokens := request.MaxTokens
		req.MaxTokens = &maxTokens
	}

	if request.SystemPrompt != "" {
		req.Messages = append(req.Messages, chatMessage{Role: string(ai.RoleSystem), Content: request.SystemPrompt})
	}
	for _, msg := range request.Messages {
		out := chatMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		}
		for _, call := range msg.ToolCalls {
			wire := chatToolCall{ID: call.ID, Type: "function"}
			wire.Function.Name = call.Function.Name
			wire.Function.Arguments = call.Function.Arguments
			out.ToolCalls = append(out.ToolCalls, wire)
		}
		req.Messages = append(req.Messages, out)
	}

	for _, tool := range request.Tools {
		req.Tools = append(req.Tools, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	if len(req.Tools) > 0 {
		req.ToolChoice = "auto"
		if caps.ParallelToolCalls {
			parallel := true
			req.ParallelToolCalls = &parallel
		}
	}
	return req
}

func fromChatCompletionResponse(resp *chatCompletionResponse) *ai.ChatResponse {
	choice := resp.Choices[0]

	reasoning, content := splitThinkTags(choice.Message.Content)
	if choice.Message.Reasoning != "" {
		if reasoning != "" {
			reasoning = choice.Message.Reasoning + "\n" + reasoning
		} else {
			reasoning = choice.Message.Reasoning
		}
	}

	out := &ai.ChatResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      content,
		Reasoning:    reasoning,
		FinishReason: choice.FinishReason,
		Usage:        resp.Usage.toGeneric(),
	}
	for _, call := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ai.ToolCall{
			ID:   call.ID,
			Type: "function",
			Function: ai.ToolCallFunction{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}
	return out
}
