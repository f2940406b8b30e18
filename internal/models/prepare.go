package models

import (
	"fmt"
	"time"

	"docrag/internal/util"

	"github.com/google/uuid"
)

// PrepareInsert assigns ids and timestamps and checks that chunk ordinals and
// vector lengths are consistent before anything touches the database.
func PrepareInsert(doc Document, chunks []Chunk, dim int) (Document, []Chunk, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.IndexedAt.IsZero() {
		doc.IndexedAt = time.Now().UTC()
	}
	if doc.ChunkCount != len(chunks) {
		return doc, nil, fmt.Errorf("%w: chunk_count %d but %d chunks", util.ErrPersistence, doc.ChunkCount, len(chunks))
	}
	out := make([]Chunk, len(chunks))
	for i, c := range chunks {
		if c.ChunkIndex != i {
			return doc, nil, fmt.Errorf("%w: chunk ordinal %d at position %d", util.ErrPersistence, c.ChunkIndex, i)
		}
		if len(c.Embedding) != dim {
			return doc, nil, fmt.Errorf("%w: %w: chunk %d has %d dims, want %d", util.ErrPersistence, util.ErrDimensionMismatch, i, len(c.Embedding), dim)
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = doc.IndexedAt
		}
		c.DocumentID = doc.ID
		out[i] = c
	}
	return doc, out, nil
}
