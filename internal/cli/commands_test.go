package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/answer"
	"docrag/internal/app"
	"docrag/internal/config"
	"docrag/internal/embedding"
	"docrag/internal/extract"
	"docrag/internal/indexer"
	"docrag/internal/logger"
	"docrag/internal/providers"
	"docrag/internal/storage/sqlite"
	"docrag/internal/util"
)

// testOpener shares one in-memory store across invocations; Close on the
// returned App is a no-op so the data survives between commands.
func testOpener(t *testing.T) (Opener, config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.BooksFolder = t.TempDir()
	cfg.DataOutRoot = t.TempDir()
	st, err := sqlite.Open(":memory:", cfg.EmbedDim)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	emb, err := embedding.New(providers.NewHashingProvider(cfg.EmbedDim), cfg.EmbedDim, cfg.EmbedBatchSize, 0)
	require.NoError(t, err)
	ex := extract.ExtractorFunc(func(ctx context.Context, path string) ([]string, error) {
		return []string{"Captain Ahab hunted the white whale. " + filepath.Base(path)}, nil
	})
	svc := indexer.NewService(cfg, st, emb, ex, answer.New(providers.NewMockProvider(cfg.EmbedDim), answer.Options{}), nil)
	a := &app.App{Cfg: cfg, Log: logger.Nop(), Svc: svc}
	return func(ctx context.Context) (*app.App, error) { return a, nil }, cfg
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(open)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHasSubcommands(t *testing.T) {
	root := NewRootCommand(nil)
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"index", "ask", "search", "docs", "rm", "serve"} {
		assert.Contains(t, names, want)
	}
}

func TestIndexSearchAskDocsRm(t *testing.T) {
	open, cfg := testOpener(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.BooksFolder, "moby_dick.pdf"), []byte("moby"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.BooksFolder, "typee.pdf"), []byte("typee"), 0o644))

	out, err := run(t, open, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 2, failed 0")

	out, err = run(t, open, "search", "white", "whale", "-k", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "[1]")
	assert.NotContains(t, out, "[2]")

	out, err = run(t, open, "ask", "Who hunted the whale?")
	require.NoError(t, err)
	assert.Contains(t, out, "Mock answer drawn from 2 context passage(s).")
	assert.Contains(t, out, "Sources:")

	out, err = run(t, open, "docs")
	require.NoError(t, err)
	assert.Contains(t, out, "Moby Dick")

	a, _ := open(context.Background())
	docs, err := a.Svc.GetIndexedDocuments(context.Background())
	require.NoError(t, err)
	out, err = run(t, open, "rm", docs[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted")

	_, err = run(t, open, "rm", docs[0].ID)
	require.ErrorIs(t, err, util.ErrNotFound)
}

func TestIndexSingleFileDuplicate(t *testing.T) {
	open, cfg := testOpener(t)
	path := filepath.Join(cfg.BooksFolder, "moby.pdf")
	require.NoError(t, os.WriteFile(path, []byte("moby"), 0o644))

	out, err := run(t, open, "index", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed moby.pdf")

	_, err = run(t, open, "index", path)
	require.ErrorIs(t, err, util.ErrDuplicateContent)
}

func TestAskOnEmptyIndex(t *testing.T) {
	open, _ := testOpener(t)
	_, err := run(t, open, "ask", "anything")
	require.ErrorIs(t, err, util.ErrNoResults)
}

func TestRmRequiresOneArg(t *testing.T) {
	open, _ := testOpener(t)
	_, err := run(t, open, "rm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}
