// Package sqlite is an embedded Store for single-node setups and tests.
// Vectors are kept as little-endian float32 blobs and ranked in process.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docrag/internal/models"
	"docrag/internal/util"
	"docrag/internal/vector"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		title TEXT,
		file_hash TEXT NOT NULL UNIQUE,
		chunk_count INTEGER NOT NULL DEFAULT 0,
		indexed_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_filename ON documents (filename)`,
	`CREATE TABLE IF NOT EXISTS document_chunks (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		chunk_text TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		embedding BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE (document_id, chunk_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_document_chunks_document_id ON document_chunks (document_id)`,
	`CREATE TABLE IF NOT EXISTS generation_calls (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		context_count INTEGER NOT NULL,
		provider_name TEXT NOT NULL,
		model TEXT NOT NULL,
		status TEXT NOT NULL,
		error_type TEXT,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	)`,
}

type Store struct {
	db  *sql.DB
	dim int
}

// Open opens (or creates) the database at path. ":memory:" gives a private
// in-memory database pinned to a single connection.
func Open(path string, dim int) (*Store, error) {
	memory := path == ":memory:"
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn += "&_pragma=journal_mode(WAL)&_txlock=immediate"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return &Store{db: db, dim: dim}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const documentColumns = `id, filename, COALESCE(title,''), file_hash, chunk_count, indexed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (models.Document, error) {
	var d models.Document
	var indexedAt int64
	if err := row.Scan(&d.ID, &d.Filename, &d.Title, &d.FileHash, &d.ChunkCount, &indexedAt); err != nil {
		return models.Document{}, err
	}
	d.IndexedAt = time.Unix(0, indexedAt).UTC()
	return d, nil
}

func (s *Store) FindDocumentByHash(ctx context.Context, fileHash string) (models.Document, bool, error) {
	d, err := scanDocument(s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE file_hash = ?`, fileHash))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, false, nil
	}
	if err != nil {
		return models.Document{}, false, fmt.Errorf("find document by hash: %w", err)
	}
	return d, true, nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (models.Document, error) {
	d, err := scanDocument(s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, fmt.Errorf("%w: document %s", util.ErrNotFound, id)
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("get document by id: %w", err)
	}
	return d, nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY indexed_at DESC, rowid DESC`)
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

func (s *Store) CreateDocumentWithChunks(ctx context.Context, doc models.Document, chunks []models.Chunk) (models.Document, error) {
	doc, chunks, err := models.PrepareInsert(doc, chunks, s.dim)
	if err != nil {
		return models.Document{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: begin tx insert document: %w", util.ErrPersistence, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO documents (id, filename, title, file_hash, chunk_count, indexed_at)
VALUES (?, ?, NULLIF(?, ''), ?, ?, ?)`,
		doc.ID, doc.Filename, doc.Title, doc.FileHash, doc.ChunkCount, doc.IndexedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Document{}, fmt.Errorf("%w: hash %s", util.ErrDuplicateContent, doc.FileHash)
		}
		return models.Document{}, fmt.Errorf("%w: insert document: %w", util.ErrPersistence, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO document_chunks (id, document_id, chunk_text, chunk_index, embedding, created_at)
VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: prepare chunk insert: %w", util.ErrPersistence, err)
	}
	defer stmt.Close()
	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Text, c.ChunkIndex, encodeVector(c.Embedding), c.CreatedAt.UnixNano()); err != nil {
			return models.Document{}, fmt.Errorf("%w: insert chunk %d: %w", util.ErrPersistence, c.ChunkIndex, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return models.Document{}, fmt.Errorf("%w: commit document tx: %w", util.ErrPersistence, err)
	}
	return doc, nil
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: delete document: %w", util.ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete document: %w", util.ErrPersistence, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: document %s", util.ErrNotFound, id)
	}
	return nil
}

// SearchChunks loads every chunk vector and ranks them by cosine distance.
func (s *Store) SearchChunks(ctx context.Context, queryVec []float32, topK int) ([]models.ChunkResult, error) {
	if topK <= 0 {
		return []models.ChunkResult{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.document_id, c.chunk_index, c.chunk_text, c.created_at, c.embedding,
       d.filename, COALESCE(d.title, d.filename)
FROM document_chunks c
JOIN documents d ON d.id = c.document_id
ORDER BY d.indexed_at, c.chunk_index`)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	candidates := make([]models.ChunkResult, 0, 256)
	vectors := make([][]float32, 0, 256)
	for rows.Next() {
		var (
			r         models.ChunkResult
			createdAt int64
			blob      []byte
		)
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.ChunkIndex, &r.Text, &createdAt, &blob, &r.Filename, &r.Title); err != nil {
			return nil, fmt.Errorf("scan chunk result: %w", err)
		}
		r.CreatedAt = time.Unix(0, createdAt).UTC()
		candidates = append(candidates, r)
		vectors = append(vectors, decodeVector(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}

	ranked := vector.Rank(queryVec, vectors, topK)
	out := make([]models.ChunkResult, 0, len(ranked))
	for _, sc := range ranked {
		r := candidates[sc.Index]
		r.Distance = sc.Distance
		r.Score = 1 - sc.Distance
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) CountChunks(ctx context.Context, documentID string) (int, error) {
	var n int
	var err error
	if documentID == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_chunks WHERE document_id = ?`, documentID).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

func (s *Store) RecordGeneration(ctx context.Context, rec models.GenerationCall) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO generation_calls (id, question, context_count, provider_name, model, status, error_type, latency_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?)`,
		rec.ID, rec.Question, rec.ContextCount, rec.ProviderName, rec.Model, rec.Status, rec.ErrorType, rec.LatencyMS, rec.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert generation call: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
