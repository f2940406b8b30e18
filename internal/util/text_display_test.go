package util

import (
	"strings"
	"testing"
)

func TestSnippetShortTextUnchanged(t *testing.T) {
	if got := Snippet("Hello\x00   world \n", 100); got != "Hello world" {
		t.Fatalf("unexpected snippet: %q", got)
	}
}

func TestSnippetTruncatesOnWordBoundary(t *testing.T) {
	in := strings.Repeat("elementary ", 50)
	got := Snippet(in, 40)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if strings.Contains(got, "elementar...") {
		t.Fatalf("cut mid-word: %q", got)
	}
	if len([]rune(got)) > 43 {
		t.Fatalf("snippet too long: %d", len([]rune(got)))
	}
}
