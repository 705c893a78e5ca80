package llm

import "strings"

// Thinking markup emitted by reasoning models.
const (
	ThinkOpen  = "<think>"
	ThinkClose = "</think>"
)

// StripThinking removes every <think>...</think> span, including spans that
// cross lines, and trims the result.
func StripThinking(text string) string {
	return StripDelimited(text, ThinkOpen, ThinkClose)
}

// StripDelimited removes every non-overlapping open...close span, matching
// each open with the nearest following close, and trims the result.
// An open without a close is left in place.
func StripDelimited(text, open, close string) string {
	if open == "" || close == "" {
		return strings.TrimSpace(text)
	}
	var sb strings.Builder
	rest := text
	for {
		i := strings.Index(rest, open)
		if i < 0 {
			break
		}
		j := strings.Index(rest[i+len(open):], close)
		if j < 0 {
			break
		}
		sb.WriteString(rest[:i])
		rest = rest[i+len(open)+j+len(close):]
	}
	sb.WriteString(rest)
	return strings.TrimSpace(sb.String())
}
