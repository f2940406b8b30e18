package storage

import (
	"context"
	"fmt"

	"docrag/internal/models"

	"github.com/google/uuid"
)

type GenerationAuditRepo struct {
	db *DB
}

func NewGenerationAuditRepo(db *DB) *GenerationAuditRepo {
	return &GenerationAuditRepo{db: db}
}

func (r *GenerationAuditRepo) Insert(ctx context.Context, rec models.GenerationCall) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO generation_calls (id, question, context_count, provider_name, model, status, error_type, latency_ms)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7,''), $8)`,
		rec.ID, rec.Question, rec.ContextCount, rec.ProviderName, rec.Model, rec.Status, rec.ErrorType, rec.LatencyMS)
	if err != nil {
		return fmt.Errorf("insert generation call: %w", err)
	}
	return nil
}
