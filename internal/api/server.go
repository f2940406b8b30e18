package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"

	"docrag/internal/config"
	"docrag/internal/indexer"
	"docrag/internal/logger"
	"docrag/internal/util"
	"docrag/internal/workflows"
)

type Server struct {
	cfg      config.Config
	svc      *indexer.Service
	log      *logger.Logger
	temporal tclient.Client
}

// NewServer wires the HTTP surface. tc may be nil, in which case durable
// indexing through Temporal is unavailable and /index always runs inline.
func NewServer(cfg config.Config, svc *indexer.Service, log *logger.Logger, tc tclient.Client) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{cfg: cfg, svc: svc, log: log, temporal: tc}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/index", s.handleIndex)
	mux.HandleFunc("/index/runs/", s.handleIndexRun)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/documents", s.handleDocuments)
	mux.HandleFunc("/documents/", s.handleDocumentScoped)
	return withCORS(withRequestLog(s.log, mux))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleIndex indexes the configured books folder. With ?durable=1 and a
// Temporal client the run is handed to CorpusIndexWorkflow instead.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if r.URL.Query().Get("durable") == "1" {
		s.startDurableIndex(w, r)
		return
	}
	report, err := s.svc.IndexAllDocuments(r.Context(), "")
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Document indexing completed",
		"indexed":       report.Indexed,
		"failed":        report.Failed,
		"total_indexed": len(report.Indexed),
		"total_failed":  len(report.Failed),
	})
}

func (s *Server) startDurableIndex(w http.ResponseWriter, r *http.Request) {
	if s.temporal == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("temporal is not configured"))
		return
	}
	opts := tclient.StartWorkflowOptions{
		ID:                    "corpus-index-" + time.Now().UTC().Format("20060102T150405.000"),
		TaskQueue:             s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
	}
	run, err := s.temporal.ExecuteWorkflow(r.Context(), opts, workflows.CorpusIndexWorkflow, workflows.CorpusIndexInput{
		InputDir:              s.cfg.BooksFolder,
		MaxConcurrentChildren: s.cfg.IngestMaxChildren,
	})
	if err != nil {
		writeErr(w, http.StatusBadGateway, fmt.Errorf("start index workflow: %w", err))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"workflow_id": run.GetID(), "run_id": run.GetRunID()})
}

func (s *Server) handleIndexRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.temporal == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("temporal is not configured"))
		return
	}
	workflowID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/index/runs/"), "/")
	if workflowID == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	val, err := s.temporal.QueryWorkflow(r.Context(), workflowID, "", workflows.QueryGetProgress)
	if err != nil {
		writeErr(w, http.StatusNotFound, fmt.Errorf("%w: index run %s", util.ErrNotFound, workflowID))
		return
	}
	var progress workflows.CorpusIndexProgress
	if err := val.Get(&progress); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// handleUpload stores one PDF in the books folder and indexes it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeErr(w, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds %d bytes", s.cfg.MaxUploadBytes))
			return
		}
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	fh, ok := firstSingleFile(r.MultipartForm.File)
	if !ok {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no file provided"))
		return
	}
	if !util.IsPDFName(fh.Filename) {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("only PDF files are allowed"))
		return
	}
	if err := util.EnsureDir(s.cfg.BooksFolder); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	savedPath, err := saveUploadedFile(s.cfg.BooksFolder, fh)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			writeErr(w, http.StatusConflict, err)
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	doc, err := s.svc.IndexDocument(r.Context(), savedPath)
	if err != nil {
		_ = os.Remove(savedPath)
		s.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Document uploaded and indexed", "document": doc})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("question is required"))
		return
	}
	ans, err := s.svc.GenerateAnswer(r.Context(), question)
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("query is required"))
		return
	}
	chunks, err := s.svc.SearchSimilarChunks(r.Context(), query, req.TopK)
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "chunks": chunks})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	docs, err := s.svc.GetIndexedDocuments(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleDocumentScoped(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/documents/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	if r.Method != http.MethodDelete {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if err := s.svc.DeleteDocument(r.Context(), id); err != nil {
		s.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Document deleted successfully"})
}

// writeDomainErr maps indexer errors onto HTTP statuses.
func (s *Server) writeDomainErr(w http.ResponseWriter, err error) {
	var (
		dup    *indexer.DuplicateError
		genErr *indexer.GenerationError
	)
	switch {
	case errors.As(err, &dup):
		writeErr(w, http.StatusConflict, err)
	case errors.Is(err, util.ErrNotFound), errors.Is(err, util.ErrNoResults):
		writeErr(w, http.StatusNotFound, err)
	case errors.As(err, &genErr):
		s.log.Error("generation failed", "error", err)
		writeErr(w, http.StatusBadGateway, err)
	case errors.Is(err, context.Canceled):
		writeErr(w, 499, err)
	default:
		s.log.Error("request failed", "error", err)
		writeErr(w, http.StatusInternalServerError, err)
	}
}

// saveUploadedFile writes fh into dstDir through a temp file and refuses to
// replace a file that is already there.
func saveUploadedFile(dstDir string, fh *multipart.FileHeader) (string, error) {
	finalPath := util.SafeJoin(dstDir, fh.Filename)
	if _, err := os.Stat(finalPath); err == nil {
		return "", fmt.Errorf("%w: %s", os.ErrExist, filepath.Base(finalPath))
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dstDir, "upload-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	if _, err := io.Copy(tmp, src); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := linkNoReplace(tmp.Name(), finalPath); err != nil {
		return "", err
	}
	return finalPath, nil
}

// linkNoReplace publishes src at dst only if dst does not exist yet. The
// caller removes src.
func linkNoReplace(src, dst string) error {
	if err := os.Link(src, dst); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", os.ErrExist, filepath.Base(dst))
		}
		return fmt.Errorf("publish upload: %w", err)
	}
	return nil
}

func firstSingleFile(m map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	if v := m["file"]; len(v) > 0 {
		return v[0], true
	}
	for _, v := range m {
		if len(v) > 0 {
			return v[0], true
		}
	}
	return nil, false
}
