package vector

import (
	"context"
	"fmt"

	"docrag/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

type Searcher struct {
	q Queryer
}

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func NewSearcher(q Queryer) *Searcher {
	return &Searcher{q: q}
}

// SearchChunks returns the topK chunks nearest to queryVec by pgvector's
// cosine distance operator, across every document.
func (s *Searcher) SearchChunks(ctx context.Context, queryVec []float32, topK int) ([]models.ChunkResult, error) {
	if topK <= 0 {
		return []models.ChunkResult{}, nil
	}
	rows, err := s.q.Query(ctx, `
SELECT c.id::text,
       c.document_id::text,
       c.chunk_index,
       c.chunk_text,
       c.created_at,
       d.filename,
       COALESCE(d.title, d.filename) AS title,
       c.embedding <=> $1::vector AS distance
FROM document_chunks c
JOIN documents d ON d.id = c.document_id
WHERE c.embedding IS NOT NULL
ORDER BY c.embedding <=> $1::vector
LIMIT $2`, pgvector.NewVector(queryVec), topK)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	results := make([]models.ChunkResult, 0, topK)
	for rows.Next() {
		var r models.ChunkResult
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.ChunkIndex, &r.Text, &r.CreatedAt, &r.Filename, &r.Title, &r.Distance); err != nil {
			return nil, fmt.Errorf("scan chunk result: %w", err)
		}
		r.Score = 1 - r.Distance
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}
