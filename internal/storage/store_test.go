package storage

import (
	"context"
	"os"
	"testing"

	"docrag/internal/config"
	"docrag/internal/models"
	"docrag/internal/util"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteBackend(t *testing.T) {
	cfg := config.Default()
	cfg.StoreBackend = "sqlite"
	cfg.SQLitePath = ":memory:"
	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer s.Close()

	docs, err := s.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestOpenUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.StoreBackend = "mongo"
	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
}

// TestPostgresStoreRoundTrip needs a pgvector-enabled database in
// DOCRAG_TEST_POSTGRES_URL.
func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("DOCRAG_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("DOCRAG_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()
	cfg := config.Default()
	cfg.StoreBackend = "postgres"
	cfg.PostgresURL = dsn
	cfg.EmbedDim = 3
	s, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer s.Close()

	hash := uuid.NewString()
	doc, err := s.CreateDocumentWithChunks(ctx, models.Document{Filename: "pg.pdf", Title: "Pg", FileHash: hash, ChunkCount: 2}, []models.Chunk{
		{ChunkIndex: 0, Text: "first", Embedding: []float32{1, 0, 0}},
		{ChunkIndex: 1, Text: "second", Embedding: []float32{0, 1, 0}},
	})
	require.NoError(t, err)
	defer func() { _ = s.DeleteDocument(ctx, doc.ID) }()

	_, err = s.CreateDocumentWithChunks(ctx, models.Document{Filename: "pg2.pdf", FileHash: hash, ChunkCount: 0}, nil)
	require.ErrorIs(t, err, util.ErrDuplicateContent)

	results, err := s.SearchChunks(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NoError(t, s.DeleteDocument(ctx, doc.ID))
	n, err := s.CountChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Zero(t, n)
	require.ErrorIs(t, s.DeleteDocument(ctx, "not-a-uuid"), util.ErrNotFound)
}
