package util

import "strings"

// sentenceWindow is how far back from a window's end ChunkText looks for a
// sentence terminator.
const sentenceWindow = 100

// CleanText collapses every whitespace run (newlines included) to a single
// space and trims both ends.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ChunkText splits text into overlapping windows of at most chunkSize runes,
// snapping each window end back to the last '.', '?' or '!' found within the
// final sentenceWindow runes. The caller must keep 0 <= overlap < chunkSize.
//
// The next window starts at end-overlap. Near the end of the text this can
// yield a trailing chunk contained in its predecessor; that is kept as is.
func ChunkText(text string, chunkSize, overlap int) []string {
	cleaned := CleanText(text)
	runes := []rune(cleaned)
	if len(runes) <= chunkSize {
		if cleaned == "" {
			return nil
		}
		return []string{cleaned}
	}

	out := make([]string, 0, len(runes)/max(chunkSize-overlap, 1)+1)
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end < len(runes) {
			searchStart := max(end-sentenceWindow, start)
			if brk := lastTerminator(runes, searchStart, end); brk > start {
				end = brk + 1
			}
		}
		part := strings.TrimSpace(string(runes[start:min(end, len(runes))]))
		if part != "" {
			out = append(out, part)
		}
		next := end - overlap
		if next <= start {
			// a snapped window shorter than the overlap would never advance
			next = end
		}
		start = next
	}
	return out
}

func lastTerminator(runes []rune, from, to int) int {
	for i := to - 1; i >= from; i-- {
		switch runes[i] {
		case '.', '?', '!':
			return i
		}
	}
	return -1
}
