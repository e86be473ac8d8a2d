package observability

// Attribute keys, span names, event names and metric names shared by all
// components. Keep new keys grouped with their neighbours.

// --- LLM Provider Attributes ---

const (
	AttrLLMProvider     = "llm.provider"
	AttrLLMModel        = "llm.model"
	AttrLLMEndpoint     = "llm.endpoint"
	AttrLLMResponseID   = "llm.response.id"
	AttrLLMFinishReason = "llm.finish_reason"
	AttrLLMStreaming    = "llm.streaming"

	AttrLLMTokensPrompt     = "llm.tokens.prompt"     // #nosec G101 -- LLM tokens, not credentials
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101 -- LLM tokens, not credentials
	AttrLLMTokensTotal      = "llm.tokens.total"      // #nosec G101 -- LLM tokens, not credentials
)

// --- Tool Execution Attributes ---

const (
	AttrToolName     = "tool.name"
	AttrToolInput    = "tool.input"
	AttrToolOutput   = "tool.output"
	AttrToolDuration = "tool.duration"
	AttrToolError    = "tool.error"
)

// --- Request Attributes ---

const (
	AttrRequestMessagesCount = "request.messages_count"
	AttrRequestToolsCount    = "request.tools_count"
	AttrClientToolCalls      = "client.tool_calls"
)

// --- HTTP Attributes ---

const (
	AttrHTTPMethod           = "http.method"
	AttrHTTPStatusCode       = "http.status_code"
	AttrHTTPURL              = "http.url"
	AttrHTTPRequestBodySize  = "http.request.body.size"
	AttrHTTPResponseBodySize = "http.response.body.size"
	AttrHTTPDuration         = "http.request.duration"
)

// --- Memory Attributes ---

const (
	AttrMemoryMessageRole   = "memory.message.role"
	AttrMemoryMessageLength = "memory.message.length"
	AttrMemoryTotalMessages = "memory.total_messages"
)

// --- Agent Attributes ---

const (
	AttrAgentName      = "agent.name"
	AttrAgentIteration = "agent.iteration"
)

// --- Conversation Attributes ---

const (
	AttrConversationSession   = "conversation.session"
	AttrConversationTopic     = "conversation.topic"
	AttrConversationAugmented = "conversation.augmented"
	AttrConversationTurns     = "conversation.turns"
	AttrConversationStream    = "conversation.stream"
)

// --- General Attributes ---

const (
	AttrError             = "error"
	AttrDuration          = "duration"
	AttrStatus            = "status"
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	SpanClientSendMessage   = "client.send_message"
	SpanClientStreamMessage = "client.stream_message"
	SpanAgentRun            = "agent.run"
	SpanProcessQuery        = "conversation.process_query"
)

// --- Event Names ---

const (
	EventLLMRequestStart    = "llm.request.start"
	EventLLMRequestEnd      = "llm.request.end"
	EventToolExecutionStart = "tool.execution.start"
	EventToolExecutionEnd   = "tool.execution.end"
	EventMemoryAppend       = "memory.append"
	EventTopicChanged       = "conversation.topic.changed"
	EventDelegation         = "team.delegation"
)

// --- Metric Names ---

const (
	MetricClientRequestCount     = "finchat.client.request.count"
	MetricClientRequestDuration  = "finchat.client.request.duration"
	MetricClientTokensTotal      = "finchat.client.tokens.total"
	MetricClientTokensPrompt     = "finchat.client.tokens.prompt"
	MetricClientTokensCompletion = "finchat.client.tokens.completion"
	MetricConversationQueries    = "finchat.conversation.queries"
	MetricConversationFailures   = "finchat.conversation.failures"
	MetricConversationAugmented  = "finchat.conversation.augmented"
	MetricToolExecutionCount     = "finchat.tool.execution.count"
	MetricToolExecutionFailures  = "finchat.tool.execution.failures"
)
