package storage

import (
	"context"
	"fmt"
	"time"

	"docrag/internal/config"
	"docrag/internal/models"
	"docrag/internal/storage/sqlite"
	"docrag/internal/vector"
)

// Store is the persistence contract the indexer depends on. Implementations
// keep file_hash unique, cascade document deletes to chunks and write a
// document together with its chunks atomically.
type Store interface {
	FindDocumentByHash(ctx context.Context, fileHash string) (models.Document, bool, error)
	GetDocument(ctx context.Context, id string) (models.Document, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	CreateDocumentWithChunks(ctx context.Context, doc models.Document, chunks []models.Chunk) (models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	SearchChunks(ctx context.Context, queryVec []float32, topK int) ([]models.ChunkResult, error)
	CountChunks(ctx context.Context, documentID string) (int, error)
	RecordGeneration(ctx context.Context, rec models.GenerationCall) error
	Close() error
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*sqlite.Store)(nil)
)

// PostgresStore backs Store with pgx and pgvector.
type PostgresStore struct {
	db        *DB
	documents *DocumentRepo
	chunks    *ChunkRepo
	audit     *GenerationAuditRepo
	searcher  *vector.Searcher
}

func NewPostgresStore(db *DB, dim int) *PostgresStore {
	return &PostgresStore{
		db:        db,
		documents: NewDocumentRepo(db),
		chunks:    NewChunkRepo(db, dim),
		audit:     NewGenerationAuditRepo(db),
		searcher:  vector.NewSearcher(db.Pool),
	}
}

func (s *PostgresStore) FindDocumentByHash(ctx context.Context, fileHash string) (models.Document, bool, error) {
	return s.documents.FindByHash(ctx, fileHash)
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (models.Document, error) {
	return s.documents.GetByID(ctx, id)
}

func (s *PostgresStore) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return s.documents.List(ctx)
}

func (s *PostgresStore) CreateDocumentWithChunks(ctx context.Context, doc models.Document, chunks []models.Chunk) (models.Document, error) {
	return s.chunks.InsertDocumentWithChunks(ctx, doc, chunks)
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, id string) error {
	return s.documents.Delete(ctx, id)
}

func (s *PostgresStore) SearchChunks(ctx context.Context, queryVec []float32, topK int) ([]models.ChunkResult, error) {
	return s.searcher.SearchChunks(ctx, queryVec, topK)
}

func (s *PostgresStore) CountChunks(ctx context.Context, documentID string) (int, error) {
	return s.chunks.Count(ctx, documentID)
}

func (s *PostgresStore) RecordGeneration(ctx context.Context, rec models.GenerationCall) error {
	return s.audit.Insert(ctx, rec)
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// Open builds the Store selected by cfg.StoreBackend and applies its schema.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		st, err := sqlite.Open(cfg.SQLitePath, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres", "":
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		db, err := NewDB(connectCtx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(connectCtx, cfg.EmbedDim); err != nil {
			db.Close()
			return nil, err
		}
		return NewPostgresStore(db, cfg.EmbedDim), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
}
