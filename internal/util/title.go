package util

import (
	"path/filepath"
	"strings"
	"unicode"
)

// TitleFromFilename strips the extension, turns '_' and '-' into spaces and
// title-cases each run of letters.
func TitleFromFilename(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)

	var b strings.Builder
	b.Grow(len(base))
	prevLetter := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) && !prevLetter:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}
