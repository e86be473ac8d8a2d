package openai

import (
	"strings"
	"testing"
)

func TestSplitThinkTags(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantReasoning string
		wantAnswer    string
	}{
		{"no tags", "NVDA closed at 120.", "", "NVDA closed at 120."},
		{"leading block", "<think>\nlook up price\n</think>\n\nNVDA closed at 120.", "look up price", "NVDA closed at 120."},
		{"two blocks", "<think>a</think>x<think>b</think>y", "a\nb", "xy"},
		{"unterminated", "answer<think>still thinking", "still thinking", "answer"},
		{"empty block", "<think></think>ok", "", "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reasoning, answer := splitThinkTags(tt.content)
			if reasoning != tt.wantReasoning {
				t.Errorf("reasoning = %q, want %q", reasoning, tt.wantReasoning)
			}
			if answer != tt.wantAnswer {
				t.Errorf("answer = %q, want %q", answer, tt.wantAnswer)
			}
		})
	}
}

func TestThinkSplitter_TagsAcrossChunks(t *testing.T) {
	tests := []struct {
		name          string
		chunks        []string
		wantReasoning string
		wantAnswer    string
	}{
		{"whole tags", []string{"<think>plan</think>", "\n\nAnswer"}, "plan", "Answer"},
		{"open tag split", []string{"<th", "ink>plan</think>Answer"}, "plan", "Answer"},
		{"close tag split", []string{"<think>pl", "an</thi", "nk> Answer"}, "plan", "Answer"},
		{"byte by byte", strings.Split("<think>p</think>A", ""), "p", "A"},
		{"no tags", []string{"Tesla ", "is ", "up"}, "", "Tesla is up"},
		{"lookalike text", []string{"a < b and <th", "ings>"}, "", "a < b and <things>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s thinkSplitter
			var reasoning, answer strings.Builder
			for _, chunk := range tt.chunks {
				r, a := s.feed(chunk)
				reasoning.WriteString(r)
				answer.WriteString(a)
			}
			r, a := s.flush()
			reasoning.WriteString(r)
			answer.WriteString(a)

			if reasoning.String() != tt.wantReasoning {
				t.Errorf("reasoning = %q, want %q", reasoning.String(), tt.wantReasoning)
			}
			if answer.String() != tt.wantAnswer {
				t.Errorf("answer = %q, want %q", answer.String(), tt.wantAnswer)
			}
		})
	}
}

func TestPartialTagSuffix(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"abc", 0},
		{"abc<", 1},
		{"abc<thin", 5},
		{"<think", 6},
		{"", 0},
	}
	for _, tt := range tests {
		if got := partialTagSuffix(tt.text, thinkOpen); got != tt.want {
			t.Errorf("partialTagSuffix(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
