package storage

import (
	"context"
	"errors"
	"fmt"

	"docrag/internal/models"
	"docrag/internal/util"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = `id::text, filename, COALESCE(title,''), file_hash, chunk_count, indexed_at`

func scanDocument(row pgx.Row) (models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.Filename, &d.Title, &d.FileHash, &d.ChunkCount, &d.IndexedAt)
	return d, err
}

func (r *DocumentRepo) FindByHash(ctx context.Context, fileHash string) (models.Document, bool, error) {
	d, err := scanDocument(r.db.Pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE file_hash=$1`, fileHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, false, nil
	}
	if err != nil {
		return models.Document{}, false, fmt.Errorf("find document by hash: %w", err)
	}
	return d, true, nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, id string) (models.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Document{}, fmt.Errorf("%w: document %s", util.ErrNotFound, id)
	}
	d, err := scanDocument(r.db.Pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, fmt.Errorf("%w: document %s", util.ErrNotFound, id)
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("get document by id: %w", err)
	}
	return d, nil
}

func (r *DocumentRepo) List(ctx context.Context) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY indexed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// Delete removes the document row; chunks go with it through ON DELETE CASCADE.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: document %s", util.ErrNotFound, id)
	}
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM documents WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete document: %w", util.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: document %s", util.ErrNotFound, id)
	}
	return nil
}
