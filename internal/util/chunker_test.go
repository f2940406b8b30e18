package util

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleSentences(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "Sentence number %d talks about the moor and the hound.\n\n  ", i)
	}
	return b.String()
}

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	require.Equal(t, "a b c", CleanText("  a\n\n b\t\t c \r\n"))
	require.Equal(t, "", CleanText(" \n\t "))
}

func TestChunkTextShortInput(t *testing.T) {
	require.Equal(t, []string{"hello world."}, ChunkText("  hello \n world. ", 500, 50))
	require.Empty(t, ChunkText("   \n ", 500, 50))
	require.Empty(t, ChunkText("", 500, 50))
}

func TestChunkTextExactlyChunkSize(t *testing.T) {
	text := strings.Repeat("a", 500)
	require.Equal(t, []string{text}, ChunkText(text, 500, 50))
}

func TestChunkTextSnapsToSentenceEnd(t *testing.T) {
	text := sampleSentences(40)
	chunks := ChunkText(text, 500, 50)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks[:len(chunks)-1] {
		require.NotEmpty(t, c)
		require.LessOrEqual(t, len([]rune(c)), 500)
		require.True(t, strings.HasSuffix(c, "."), "chunk should end on a sentence: %q", c)
	}
}

func TestChunkTextOverlapAndOrder(t *testing.T) {
	text := sampleSentences(40)
	cleaned := CleanText(text)
	chunks := ChunkText(text, 500, 50)
	pos := 0
	for i, c := range chunks {
		idx := strings.Index(cleaned[pos:], c)
		require.GreaterOrEqual(t, idx, 0, "chunk %d not found in reading order", i)
		pos += idx
		if i > 0 {
			prev := chunks[i-1]
			tail := prev[len(prev)-40:]
			require.Contains(t, c, strings.TrimSpace(tail[len(tail)-20:]))
		}
		pos++
	}
}

func TestChunkTextNoTerminatorFallsBackToRawBoundary(t *testing.T) {
	text := strings.Repeat("abcdefghij", 30)
	chunks := ChunkText(text, 100, 10)
	require.Equal(t, text[:100], chunks[0])
	require.Equal(t, text[90:190], chunks[1])
}

func TestChunkTextTrailingRemainderKept(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := ChunkText(text, 100, 20)
	// windows start at 0, 80, 160, 240
	require.Len(t, chunks, 4)
	require.Equal(t, strings.Repeat("x", 10), chunks[3])
}

func TestChunkTextDeterministic(t *testing.T) {
	text := sampleSentences(60)
	require.Equal(t, ChunkText(text, 300, 40), ChunkText(text, 300, 40))
}

func TestChunkTextMultibyte(t *testing.T) {
	text := strings.Repeat("é", 150)
	chunks := ChunkText(text, 100, 10)
	require.Len(t, chunks, 2)
	require.Equal(t, 100, len([]rune(chunks[0])))
	require.Equal(t, 60, len([]rune(chunks[1])))
}

func TestChunkTextAdvancesWhenSnapFallsInsideOverlap(t *testing.T) {
	// the terminator at rune 30 snaps the first window to 31 runes, which is
	// shorter than the overlap; the next window must start at 31, not before 0
	text := strings.Repeat("a", 30) + "." + strings.Repeat("x", 200)
	chunks := ChunkText(text, 120, 100)

	want := []string{strings.Repeat("a", 30) + "."}
	for i := 0; i < 5; i++ {
		want = append(want, strings.Repeat("x", 120))
	}
	for _, n := range []int{100, 80, 60, 40, 20} {
		want = append(want, strings.Repeat("x", n))
	}
	require.Equal(t, want, chunks)
}
