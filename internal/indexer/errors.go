package indexer

import (
	"fmt"

	"docrag/internal/models"
	"docrag/internal/util"
)

// DuplicateError reports that a file's fingerprint is already indexed.
// It matches util.ErrDuplicateContent with errors.Is.
type DuplicateError struct {
	Existing models.Document
}

func (e *DuplicateError) Error() string {
	return "Document already indexed: " + e.Existing.Filename
}

func (e *DuplicateError) Unwrap() error { return util.ErrDuplicateContent }

// GenerationError reports a failed call to the generation provider after
// context was found. It matches util.ErrGeneration and never util.ErrNoResults.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("Error generating answer: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
