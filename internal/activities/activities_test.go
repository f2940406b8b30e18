package activities

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"docrag/internal/answer"
	"docrag/internal/config"
	"docrag/internal/embedding"
	"docrag/internal/extract"
	"docrag/internal/indexer"
	"docrag/internal/models"
	"docrag/internal/providers"
	"docrag/internal/storage/sqlite"
)

func newActivities(t *testing.T) (*Activities, config.Config) {
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
		if filepath.Base(path) == "broken.pdf" {
			return nil, errors.New("malformed pdf")
		}
		return []string{"Some text about " + filepath.Base(path) + "."}, nil
	})
	svc := indexer.NewService(cfg, st, emb, ex, answer.New(providers.NewMockProvider(cfg.EmbedDim), answer.Options{}), nil)
	return New(cfg, svc, nil), cfg
}

func TestListPDFsActivityCreatesMissingFolder(t *testing.T) {
	a, _ := newActivities(t)
	dir := filepath.Join(t.TempDir(), "books")
	out, err := a.ListPDFsActivity(context.Background(), ListPDFsInput{InputDir: dir})
	require.NoError(t, err)
	require.True(t, out.Created)
	require.Empty(t, out.Paths)
	require.DirExists(t, dir)
}

func TestListPDFsActivityDefaultsToBooksFolder(t *testing.T) {
	a, cfg := newActivities(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.BooksFolder, "b.PDF"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.BooksFolder, "a.pdf"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.BooksFolder, "c.txt"), []byte("c"), 0o644))

	out, err := a.ListPDFsActivity(context.Background(), ListPDFsInput{})
	require.NoError(t, err)
	require.False(t, out.Created)
	require.Equal(t, []string{filepath.Join(cfg.BooksFolder, "a.pdf"), filepath.Join(cfg.BooksFolder, "b.PDF")}, out.Paths)
}

func TestIndexDocumentActivity(t *testing.T) {
	a, cfg := newActivities(t)
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(a)

	path := filepath.Join(cfg.BooksFolder, "whales.pdf")
	require.NoError(t, os.WriteFile(path, []byte("whales"), 0o644))

	val, err := env.ExecuteActivity(a.IndexDocumentActivity, IndexDocumentInput{Path: path})
	require.NoError(t, err)
	var out IndexDocumentOutput
	require.NoError(t, val.Get(&out))
	require.Equal(t, "whales.pdf", out.Filename)
	require.Equal(t, 1, out.ChunkCount)

	_, err = env.ExecuteActivity(a.IndexDocumentActivity, IndexDocumentInput{Path: path})
	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, ErrTypeDuplicate, appErr.Type())
	require.True(t, appErr.NonRetryable())
}

func TestIndexDocumentActivityClassifiesFailures(t *testing.T) {
	a, cfg := newActivities(t)
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(a)

	_, err := env.ExecuteActivity(a.IndexDocumentActivity, IndexDocumentInput{Path: filepath.Join(cfg.BooksFolder, "ghost.pdf")})
	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, ErrTypeNotFound, appErr.Type())

	broken := filepath.Join(cfg.BooksFolder, "broken.pdf")
	require.NoError(t, os.WriteFile(broken, []byte("x"), 0o644))
	_, err = env.ExecuteActivity(a.IndexDocumentActivity, IndexDocumentInput{Path: broken})
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, ErrTypeInvalid, appErr.Type())
}

func TestWriteIndexReportActivity(t *testing.T) {
	a, cfg := newActivities(t)
	report := models.IndexReport{Indexed: []models.IndexedDocument{{Filename: "a.pdf", Title: "A", ChunkCount: 2}}, Failed: []models.IndexFailure{}}
	require.NoError(t, a.WriteIndexReportActivity(context.Background(), report))
	require.FileExists(t, filepath.Join(cfg.DataOutRoot, indexer.ReportFileName))
}
