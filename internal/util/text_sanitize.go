package util

import "strings"

// SanitizeText drops NUL and other control bytes that some PDF extractors
// emit and that Postgres text columns reject. Newlines, carriage returns
// and tabs survive so page text keeps its shape until CleanText runs.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimSpace(strings.Map(func(ch rune) rune {
		switch {
		case ch == '\n', ch == '\r', ch == '\t':
			return ch
		case ch < 0x20, ch == 0x7f, ch == '�':
			return -1
		}
		return ch
	}, s))
}
