// Package openai implements [ai.Provider] and [ai.StreamProvider] for
// OpenAI-compatible /chat/completions endpoints. Groq is the default host.
//
// Reasoning models such as deepseek-r1 may return their chain of thought
// inline as <think>...</think>. Both the blocking and the streaming paths
// move it into the Reasoning field so callers only see the answer in Content.
package openai
