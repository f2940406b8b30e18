package activities

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"go.temporal.io/sdk/temporal"

	"docrag/internal/config"
	"docrag/internal/indexer"
	"docrag/internal/logger"
	"docrag/internal/models"
	"docrag/internal/providers"
	"docrag/internal/util"
)

// Error types carried on non-retryable application errors.
const (
	ErrTypeDuplicate = "DuplicateContent"
	ErrTypeNotFound  = "NotFound"
	ErrTypeInvalid   = "InvalidDocument"
)

type Activities struct {
	cfg config.Config
	svc *indexer.Service
	log *logger.Logger
}

func New(cfg config.Config, svc *indexer.Service, log *logger.Logger) *Activities {
	if log == nil {
		log = logger.Nop()
	}
	return &Activities{cfg: cfg, svc: svc, log: log}
}

func (a *Activities) ListPDFsActivity(ctx context.Context, in ListPDFsInput) (ListPDFsOutput, error) {
	dir := in.InputDir
	if dir == "" {
		dir = a.cfg.BooksFolder
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := util.EnsureDir(dir); err != nil {
			return ListPDFsOutput{}, err
		}
		return ListPDFsOutput{Paths: []string{}, Created: true}, nil
	}
	paths, err := util.ListPDFs(dir)
	if err != nil {
		return ListPDFsOutput{}, err
	}
	return ListPDFsOutput{Paths: paths}, nil
}

// IndexDocumentActivity indexes one file. Outcomes that a retry cannot change
// are returned as non-retryable application errors; storage and provider
// failures are left to the activity retry policy.
func (a *Activities) IndexDocumentActivity(ctx context.Context, in IndexDocumentInput) (IndexDocumentOutput, error) {
	doc, err := a.svc.IndexDocument(ctx, in.Path)
	if err == nil {
		return IndexDocumentOutput{DocumentID: doc.ID, Filename: doc.Filename, Title: doc.Title, ChunkCount: doc.ChunkCount}, nil
	}
	var dup *indexer.DuplicateError
	switch {
	case errors.As(err, &dup):
		return IndexDocumentOutput{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeDuplicate, err)
	case errors.Is(err, util.ErrNotFound):
		return IndexDocumentOutput{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeNotFound, err)
	case errors.Is(err, util.ErrPersistence), errors.Is(err, context.DeadlineExceeded), providers.Retryable(err):
		a.log.Warn("index document activity failed", "path", in.Path, "error", err)
		return IndexDocumentOutput{}, err
	default:
		// extraction and embedding shape errors
		return IndexDocumentOutput{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalid, err)
	}
}

func (a *Activities) WriteIndexReportActivity(ctx context.Context, report models.IndexReport) error {
	return util.WriteJSONAtomic(filepath.Join(a.cfg.DataOutRoot, indexer.ReportFileName), report)
}
