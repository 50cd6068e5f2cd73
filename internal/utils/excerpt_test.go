package utils

import (
	"strings"
	"testing"
)

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"short text kept", "  boom  ", "boom"},
		{"cut at blank line", "first line\nsecond\n\nstack trace here", "first line\nsecond"},
		{"windows newlines", "head\r\n\r\ntail", "head"},
		{"long text capped", strings.Repeat("x", 250), strings.Repeat("x", MaxExcerptLength) + "..."},
		{"long first paragraph capped", strings.Repeat("z", 300) + "\n\ntail", strings.Repeat("z", MaxExcerptLength) + "..."},
		{"exactly at cap", strings.Repeat("y", MaxExcerptLength), strings.Repeat("y", MaxExcerptLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excerpt(tt.raw); got != tt.want {
				t.Errorf("Excerpt() = %q, want %q", got, tt.want)
			}
		})
	}
}
