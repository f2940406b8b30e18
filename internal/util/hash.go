package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

const hashBlockSize = 4096

// SHA256HexFromReader streams r through SHA-256 in fixed-size blocks.
func SHA256HexFromReader(r io.Reader) (string, error) {
	h := sha256.New()
	// hide WriterTo/ReaderFrom so the block size is honoured
	if _, err := io.CopyBuffer(h, struct{ io.Reader }{r}, make([]byte, hashBlockSize)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FingerprintFile returns the hex SHA-256 digest of the file's raw bytes.
func FingerprintFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()
	sum, err := SHA256HexFromReader(f)
	if err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return sum, nil
}
