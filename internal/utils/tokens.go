package utils

import "strings"

// CountTokens estimates prompt tokens at roughly 4 characters per token.
// Any non-empty text counts as at least one token.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if n := len([]rune(text)) / 4; n > 0 {
		return n
	}
	return 1
}

// TruncateToTokenLimit cuts text to about limit tokens. When the cut falls
// inside a line it backs up to the previous line break, provided that keeps
// at least half of the budget, so Markdown sections are not split mid-row.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * 4
	if charLimit >= len(runes) {
		return text
	}
	cut := string(runes[:charLimit])
	if i := strings.LastIndexByte(cut, '\n'); i >= len(cut)/2 {
		return cut[:i+1]
	}
	return cut
}
