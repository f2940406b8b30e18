package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DOCRAG_CHUNK_SIZE", "")
	t.Setenv("DOCRAG_TOP_K", "")
	cfg := Load()
	require.Equal(t, 500, cfg.ChunkSize)
	require.Equal(t, 50, cfg.ChunkOverlap)
	require.Equal(t, 384, cfg.EmbedDim)
	require.Equal(t, 3, cfg.TopK)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DOCRAG_CHUNK_SIZE", "800")
	t.Setenv("DOCRAG_STORE", "SQLite")
	t.Setenv("DOCRAG_TOP_K", "not-a-number")
	cfg := Load()
	require.Equal(t, 800, cfg.ChunkSize)
	require.Equal(t, "sqlite", cfg.StoreBackend)
	require.Equal(t, 3, cfg.TopK)
}
