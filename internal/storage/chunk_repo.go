package storage

import (
	"context"
	"errors"
	"fmt"

	"docrag/internal/models"
	"docrag/internal/util"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

const pgUniqueViolation = "23505"

type ChunkRepo struct {
	db  *DB
	dim int
}

func NewChunkRepo(db *DB, dim int) *ChunkRepo {
	return &ChunkRepo{db: db, dim: dim}
}

// InsertDocumentWithChunks writes the document row and all of its chunks in
// one transaction. A file_hash collision surfaces as ErrDuplicateContent.
func (r *ChunkRepo) InsertDocumentWithChunks(ctx context.Context, doc models.Document, chunks []models.Chunk) (models.Document, error) {
	doc, chunks, err := models.PrepareInsert(doc, chunks, r.dim)
	if err != nil {
		return models.Document{}, err
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: begin tx insert document: %w", util.ErrPersistence, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
INSERT INTO documents (id, filename, title, file_hash, chunk_count, indexed_at)
VALUES ($1, $2, NULLIF($3,''), $4, $5, $6)`,
		doc.ID, doc.Filename, doc.Title, doc.FileHash, doc.ChunkCount, doc.IndexedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.Document{}, fmt.Errorf("%w: hash %s", util.ErrDuplicateContent, doc.FileHash)
		}
		return models.Document{}, fmt.Errorf("%w: insert document: %w", util.ErrPersistence, err)
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(`
INSERT INTO document_chunks (id, document_id, chunk_text, chunk_index, embedding, created_at)
VALUES ($1, $2, $3, $4, $5::vector, $6)`,
			c.ID, c.DocumentID, c.Text, c.ChunkIndex, pgvector.NewVector(c.Embedding), c.CreatedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return models.Document{}, fmt.Errorf("%w: insert chunks: %w", util.ErrPersistence, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Document{}, fmt.Errorf("%w: commit document tx: %w", util.ErrPersistence, err)
	}
	return doc, nil
}

func (r *ChunkRepo) Count(ctx context.Context, documentID string) (int, error) {
	var n int
	var err error
	if documentID == "" {
		err = r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&n)
	} else {
		if _, perr := uuid.Parse(documentID); perr != nil {
			return 0, nil
		}
		err = r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM document_chunks WHERE document_id=$1`, documentID).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}
