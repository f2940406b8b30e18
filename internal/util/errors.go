package util

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateContent  = errors.New("document already indexed")
	ErrNoResults         = errors.New("no relevant documents found")
	ErrPersistence       = errors.New("persistence failure")
	ErrGeneration        = errors.New("generation failure")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
