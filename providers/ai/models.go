package ai

import (
	"encoding/json"

	"github.com/leofalp/finchat/internal/jsonschema"
)

// MessageRole is the author of a Message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ChatRequest is one round-trip to a model.
type ChatRequest struct {
	Model        string            `json:"model,omitempty"`
	SystemPrompt string            `json:"system_prompt,omitempty"`
	Messages     []Message         `json:"messages"`
	Tools        []ToolDescription `json:"tools,omitempty"`
	Temperature  *float64          `json:"temperature,omitempty"`
	MaxTokens    int               `json:"max_tokens,omitempty"`
}

// ToolDescription advertises a callable tool to the model.
type ToolDescription struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// Message is a single entry of a chat exchange.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`

	// ToolCalls is set on assistant messages that request tool execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID and Name are set on RoleTool messages.
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`

	Reasoning string `json:"reasoning,omitempty"`
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON, possibly malformed
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse is the model's reply to a ChatRequest.
type ChatResponse struct {
	ID           string     `json:"id"`
	Model        string     `json:"model"`
	Content      string     `json:"content"`
	Reasoning    string     `json:"reasoning,omitempty"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
}

// AssistantMessage converts the response into the message to append to the
// conversation before tool results are added.
func (r *ChatResponse) AssistantMessage() Message {
	return Message{
		Role:      RoleAssistant,
		Content:   r.Content,
		ToolCalls: r.ToolCalls,
		Reasoning: r.Reasoning,
	}
}

// ToolResult is the envelope returned to the model after a tool runs, so
// failures reach the model as data instead of aborting the turn.
type ToolResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Error codes used in ToolResult.Error.
const (
	ToolErrorNotFound        = "tool_not_found"
	ToolErrorExecutionFailed = "tool_execution_failed"
)

func NewToolResultSuccess(data any) ToolResult {
	return ToolResult{Success: true, Data: data}
}

func NewToolResultError(code, message string) ToolResult {
	return ToolResult{Error: code, Message: message}
}

func (tr ToolResult) ToJSON() (string, error) {
	encoded, err := json.Marshal(tr)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
