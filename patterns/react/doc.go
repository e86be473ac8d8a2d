// Package react runs the ReAct loop: the model either answers or asks for
// tools, tool results are appended to the conversation, and the model is
// asked again until it answers or the iteration budget runs out.
//
// [Agent.Execute] blocks until the final answer. [Agent.ExecuteStream]
// yields an [Event] for every content delta, tool call and tool result.
// Tool failures and unknown tools are reported back to the model as an
// [ai.ToolResult] instead of ending the run.
package react
