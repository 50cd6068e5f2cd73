package utils

import "strings"

// MaxExcerptLength caps user-facing excerpts of tool output.
const MaxExcerptLength = 200

// Excerpt shortens raw tool output for display. The text is cut at the first
// blank line when there is one, and never exceeds MaxExcerptLength characters
// plus an ellipsis.
func Excerpt(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	if i := strings.Index(text, "\n\n"); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > MaxExcerptLength {
		return string(runes[:MaxExcerptLength]) + "..."
	}
	return text
}
