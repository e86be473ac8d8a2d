package team

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/leofalp/finchat/internal/utils"
)

const markdownInstruction = "Use markdown to format your answers."

func memberPrompt(m Member, markdown bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your name is %s.\n", m.Name)
	if m.Role != "" {
		fmt.Fprintf(&b, "Your role is: %s.\n", m.Role)
	}
	writeInstructions(&b, m.Instructions, markdown)
	return strings.TrimSpace(b.String())
}

func leaderPrompt(members []*member, instructions []string, markdown bool) string {
	var b strings.Builder
	b.WriteString("You are the leader of a team of agents. To get information, transfer a task to the member best suited for it ")
	b.WriteString("by calling its transfer tool with a clear task and the output you expect. ")
	b.WriteString("Compose your final answer from what the members return.\n\n")
	b.WriteString("Team members:\n")
	for _, m := range members {
		fmt.Fprintf(&b, "- %s (tool %s)", m.Name, m.toolName)
		if m.Role != "" {
			fmt.Fprintf(&b, ": %s", m.Role)
		}
		b.WriteString("\n")
	}
	writeInstructions(&b, instructions, markdown)
	return strings.TrimSpace(b.String())
}

func writeInstructions(b *strings.Builder, instructions []string, markdown bool) {
	all := slices.Clone(instructions)
	if markdown {
		all = append(all, markdownInstruction)
	}
	if len(all) == 0 {
		return
	}
	b.WriteString("\nInstructions:\n")
	for _, instruction := range all {
		fmt.Fprintf(b, "- %s\n", instruction)
	}
}

// FormatToolCall renders a call as name(key=value, ...) with keys sorted.
// Arguments that are not a JSON object are shown raw.
func FormatToolCall(name, arguments string) string {
	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return fmt.Sprintf("%s(%s)", name, strings.TrimSpace(arguments))
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		switch v := args[k].(type) {
		case map[string]any, []any:
			parts[i] = k + "=" + utils.JSONToString(v)
		default:
			parts[i] = fmt.Sprintf("%s=%v", k, v)
		}
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}
