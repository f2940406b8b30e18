package util

import "strings"

// Snippet returns the cleaned text cut to maxRunes, with an ellipsis when
// something was dropped.
func Snippet(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = 240
	}
	s = CleanText(SanitizeText(s))
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	cut := strings.TrimSpace(string(runes[:maxRunes]))
	if i := strings.LastIndexByte(cut, ' '); i > maxRunes/2 {
		cut = cut[:i]
	}
	return cut + "..."
}
