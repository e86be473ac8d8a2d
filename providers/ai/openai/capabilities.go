package openai

import "strings"

// Capabilities describes what an OpenAI-compatible host accepts.
type Capabilities struct {
	Name string
	// StreamUsage enables stream_options.include_usage.
	StreamUsage bool
	// ParallelToolCalls sends parallel_tool_calls=true when tools are present.
	ParallelToolCalls bool
	// ReasoningFormat is Groq's reasoning_format parameter ("parsed", "raw"
	// or "hidden"). Empty omits it.
	ReasoningFormat string
}

func detectCapabilities(baseURL string) Capabilities {
	host := strings.ToLower(baseURL)

	switch {
	case strings.Contains(host, "api.groq.com"):
		return Capabilities{Name: "groq", StreamUsage: false, ParallelToolCalls: true, ReasoningFormat: "raw"}
	case strings.Contains(host, "api.openai.com"):
		return Capabilities{Name: "openai", StreamUsage: true, ParallelToolCalls: true}
	case strings.Contains(host, "openrouter.ai"):
		return Capabilities{Name: "openrouter", StreamUsage: true, ParallelToolCalls: true}
	case strings.Contains(host, ":11434"):
		return Capabilities{Name: "ollama"}
	default:
		return Capabilities{Name: "openai-compatible"}
	}
}
