// Package indexer drives ingestion of PDFs into the vector store and answers
// questions over what has been ingested.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"docrag/internal/answer"
	"docrag/internal/config"
	"docrag/internal/embedding"
	"docrag/internal/extract"
	"docrag/internal/logger"
	"docrag/internal/models"
	"docrag/internal/storage"
	"docrag/internal/util"
)

const (
	folderFailureName = "books folder"
	ReportFileName    = "index_report.json"
)

type Service struct {
	cfg       config.Config
	store     storage.Store
	embedder  *embedding.Embedder
	extractor extract.Extractor
	synth     *answer.Synthesizer
	log       *logger.Logger
}

func NewService(cfg config.Config, store storage.Store, embedder *embedding.Embedder, extractor extract.Extractor, synth *answer.Synthesizer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{cfg: cfg, store: store, embedder: embedder, extractor: extractor, synth: synth, log: log}
}

// IndexDocument ingests one PDF. The document row and all of its chunks are
// written in one transaction; on any failure nothing is persisted.
func (s *Service) IndexDocument(ctx context.Context, path string) (models.Document, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Document{}, fmt.Errorf("%w: file %s", util.ErrNotFound, path)
		}
		return models.Document{}, fmt.Errorf("stat %s: %w", path, err)
	}
	filename := filepath.Base(path)
	log := s.log.With("filename", filename)

	pages, err := s.extractor.ExtractPages(ctx, path)
	if err != nil {
		return models.Document{}, fmt.Errorf("extract text: %w", err)
	}
	text := extract.JoinPages(pages)

	fileHash, err := util.FingerprintFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("fingerprint file: %w", err)
	}
	existing, found, err := s.store.FindDocumentByHash(ctx, fileHash)
	if err != nil {
		return models.Document{}, err
	}
	if found {
		return models.Document{}, &DuplicateError{Existing: existing}
	}

	parts := util.ChunkText(text, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if len(parts) == 0 {
		log.Warn("no extractable text", "pages", len(pages))
	}
	vecs, err := s.embedder.EmbedBatch(ctx, parts)
	if err != nil {
		return models.Document{}, fmt.Errorf("embed chunks: %w", err)
	}
	chunks := make([]models.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = models.Chunk{ChunkIndex: i, Text: part, Embedding: vecs[i]}
	}

	doc := models.Document{
		Filename:   filename,
		Title:      util.TitleFromFilename(filename),
		FileHash:   fileHash,
		ChunkCount: len(chunks),
	}
	doc, err = s.store.CreateDocumentWithChunks(ctx, doc, chunks)
	if err != nil {
		if errors.Is(err, util.ErrDuplicateContent) {
			// lost a race with a concurrent indexer of the same bytes
			if prior, ok, findErr := s.store.FindDocumentByHash(ctx, fileHash); findErr == nil && ok {
				return models.Document{}, &DuplicateError{Existing: prior}
			}
		}
		return models.Document{}, err
	}
	log.Info("document indexed", "document_id", doc.ID, "chunks", doc.ChunkCount)
	return doc, nil
}

// IndexAllDocuments indexes every PDF directly under folder, or under the
// configured books folder when folder is empty. Per-file problems are
// reported in the result; only an unreadable folder is returned as an error.
func (s *Service) IndexAllDocuments(ctx context.Context, folder string) (models.IndexReport, error) {
	if folder == "" {
		folder = s.cfg.BooksFolder
	}
	report := models.IndexReport{Indexed: []models.IndexedDocument{}, Failed: []models.IndexFailure{}}

	if _, err := os.Stat(folder); errors.Is(err, os.ErrNotExist) {
		if err := util.EnsureDir(folder); err != nil {
			return report, err
		}
		report.Failed = append(report.Failed, models.IndexFailure{Filename: folderFailureName, Error: "Folder was empty, created now"})
		s.writeReport(report)
		return report, nil
	}
	paths, err := util.ListPDFs(folder)
	if err != nil {
		return report, err
	}
	if len(paths) == 0 {
		report.Failed = append(report.Failed, models.IndexFailure{Filename: folderFailureName, Error: "No PDF files found"})
		s.writeReport(report)
		return report, nil
	}

	started := time.Now()
	type outcome struct {
		doc models.Document
		err error
	}
	results := make([]outcome, len(paths))
	workers := max(s.cfg.IndexWorkers, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			doc, err := s.IndexDocument(gctx, p)
			results[i] = outcome{doc: doc, err: err}
			// cancellation is the only error that stops the batch
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	for i, r := range results {
		if r.err != nil {
			s.log.Warn("index document failed", "filename", filepath.Base(paths[i]), "error", r.err)
			report.Failed = append(report.Failed, models.IndexFailure{Filename: filepath.Base(paths[i]), Error: r.err.Error()})
			continue
		}
		report.Indexed = append(report.Indexed, models.IndexedDocument{Filename: r.doc.Filename, Title: r.doc.Title, ChunkCount: r.doc.ChunkCount})
	}
	s.log.Info("index run finished", "folder", folder, "indexed", len(report.Indexed), "failed", len(report.Failed), "workers", workers, "elapsed", time.Since(started))
	s.writeReport(report)
	return report, nil
}

func (s *Service) writeReport(report models.IndexReport) {
	if s.cfg.DataOutRoot == "" {
		return
	}
	path := filepath.Join(s.cfg.DataOutRoot, ReportFileName)
	if err := util.WriteJSONAtomic(path, report); err != nil {
		s.log.Warn("write index report failed", "path", path, "error", err)
	}
}

// SearchSimilarChunks returns at most topK chunks across the whole corpus in
// ascending cosine distance to the query. topK <= 0 uses the configured default.
func (s *Service) SearchSimilarChunks(ctx context.Context, query string, topK int) ([]models.ChunkResult, error) {
	if topK <= 0 {
		topK = s.cfg.TopK
	}
	qv, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.store.SearchChunks(ctx, qv, topK)
}

// GenerateAnswer retrieves context for question and asks the synthesizer to
// answer from it. An empty index yields util.ErrNoResults without any call
// to the generation provider.
func (s *Service) GenerateAnswer(ctx context.Context, question string) (models.Answer, error) {
	sources, err := s.SearchSimilarChunks(ctx, question, s.cfg.TopK)
	if err != nil {
		return models.Answer{}, err
	}
	if len(sources) == 0 {
		return models.Answer{}, fmt.Errorf("%w. Please index some documents first", util.ErrNoResults)
	}
	passages := make([]string, len(sources))
	for i, c := range sources {
		passages[i] = c.Text
	}
	text, err := s.synth.Synthesize(ctx, question, passages)
	if err != nil {
		return models.Answer{}, &GenerationError{Err: err}
	}
	return models.Answer{Question: question, Answer: text, Sources: sources}, nil
}

func (s *Service) GetIndexedDocuments(ctx context.Context) ([]models.Document, error) {
	return s.store.ListDocuments(ctx)
}

// DeleteDocument removes a document and its chunks in one statement.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.log.Info("document deleted", "document_id", id)
	return nil
}

// CountChunks reports stored chunks for one document, or all when id is empty.
func (s *Service) CountChunks(ctx context.Context, id string) (int, error) {
	return s.store.CountChunks(ctx, id)
}
