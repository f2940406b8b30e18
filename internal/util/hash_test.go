package util

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFingerprintFileSameBytesDifferentPaths(t *testing.T) {
	dir := t.TempDir()
	content := []byte(strings.Repeat("%PDF-1.4 holmes ", 1000))
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "copy", "b.pdf")
	require.NoError(t, os.WriteFile(a, content, 0o644))
	require.NoError(t, EnsureDir(filepath.Dir(b)))
	require.NoError(t, os.WriteFile(b, content, 0o644))

	ha, err := FingerprintFile(a)
	require.NoError(t, err)
	hb, err := FingerprintFile(b)
	require.NoError(t, err)
	require.Equal(t, ha, hb)
	require.Len(t, ha, 64)
	sum := sha256.Sum256(content)
	require.Equal(t, hex.EncodeToString(sum[:]), ha)
}

func TestFingerprintFileOneByteChanged(t *testing.T) {
	dir := t.TempDir()
	content := []byte(strings.Repeat("z", 10000))
	a := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(a, content, 0o644))
	ha, err := FingerprintFile(a)
	require.NoError(t, err)

	content[7777] = 'y'
	require.NoError(t, os.WriteFile(a, content, 0o644))
	hb, err := FingerprintFile(a)
	require.NoError(t, err)
	require.NotEqual(t, ha, hb)
}

func TestFingerprintFileMissing(t *testing.T) {
	_, err := FingerprintFile(filepath.Join(t.TempDir(), "nope.pdf"))
	require.ErrorIs(t, err, ErrNotFound)
}
