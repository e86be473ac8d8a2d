package openai

import "strings"

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// splitThinkTags separates <think> blocks from the visible answer. An
// unterminated block swallows the rest of the text as reasoning.
func splitThinkTags(content string) (reasoning, answer string) {
	var r, a strings.Builder
	rest := content
	for {
		start := strings.Index(rest, thinkOpen)
		if start < 0 {
			a.WriteString(rest)
			break
		}
		a.WriteString(rest[:start])
		rest = rest[start+len(thinkOpen):]

		end := strings.Index(rest, thinkClose)
		if end < 0 {
			appendReasoning(&r, rest)
			break
		}
		appendReasoning(&r, rest[:end])
		rest = rest[end+len(thinkClose):]
	}
	return r.String(), strings.TrimSpace(a.String())
}

func appendReasoning(b *strings.Builder, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(text)
}

// thinkSplitter does the same as splitThinkTags for a stream of content
// fragments where a tag may be cut across chunk boundaries.
type thinkSplitter struct {
	inThink bool
	pending string
	// leading suppresses whitespace between a closing tag and the answer.
	leading bool
}

// feed consumes a fragment and returns the reasoning and answer text that can
// be emitted now.
func (s *thinkSplitter) feed(fragment string) (reasoning, answer string) {
	text := s.pending + fragment
	s.pending = ""

	var r, a strings.Builder
	for text != "" {
		tag := thinkOpen
		if s.inThink {
			tag = thinkClose
		}

		idx := strings.Index(text, tag)
		if idx >= 0 {
			s.emit(&r, &a, text[:idx])
			text = text[idx+len(tag):]
			s.inThink = !s.inThink
			if !s.inThink {
				s.leading = true
			}
			continue
		}

		// Hold back a suffix that could be the start of the tag.
		keep := partialTagSuffix(text, tag)
		s.emit(&r, &a, text[:len(text)-keep])
		s.pending = text[len(text)-keep:]
		break
	}
	return r.String(), a.String()
}

// flush returns whatever was held back once the stream ends.
func (s *thinkSplitter) flush() (reasoning, answer string) {
	var r, a strings.Builder
	s.emit(&r, &a, s.pending)
	s.pending = ""
	return r.String(), a.String()
}

func (s *thinkSplitter) emit(r, a *strings.Builder, text string) {
	if text == "" {
		return
	}
	if s.inThink {
		r.WriteString(text)
		return
	}
	if s.leading {
		text = strings.TrimLeft(text, " \t\r\n")
		if text == "" {
			return
		}
		s.leading = false
	}
	a.WriteString(text)
}

// partialTagSuffix returns the length of the longest suffix of text that is
// a proper prefix of tag.
func partialTagSuffix(text, tag string) int {
	maxLen := len(tag) - 1
	if maxLen > len(text) {
		maxLen = len(text)
	}
	for n := maxLen; n > 0; n-- {
		if strings.HasSuffix(text, tag[:n]) {
			return n
		}
	}
	return 0
}
