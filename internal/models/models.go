package models

import "time"

// Document is one ingested source file. FileHash is unique across documents.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Title      string    `json:"title"`
	FileHash   string    `json:"file_hash"`
	ChunkCount int       `json:"chunk_count"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// Chunk is a slice of a document's cleaned text. ChunkIndex values for a
// document form a dense 0..ChunkCount-1 sequence.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"chunk_text"`
	Embedding  []float32 `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

type ChunkResult struct {
	Chunk
	Filename string  `json:"filename"`
	Title    string  `json:"title"`
	Distance float64 `json:"distance"`
	Score    float64 `json:"score"`
}

type IndexedDocument struct {
	Filename   string `json:"filename"`
	Title      string `json:"title"`
	ChunkCount int    `json:"chunk_count"`
}

type IndexFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type IndexReport struct {
	Indexed []IndexedDocument `json:"indexed"`
	Failed  []IndexFailure    `json:"failed"`
}

// GenerationCall is one audited call to the generation provider.
type GenerationCall struct {
	ID           string    `json:"id"`
	Question     string    `json:"question"`
	ContextCount int       `json:"context_count"`
	ProviderName string    `json:"provider_name"`
	Model        string    `json:"model"`
	Status       string    `json:"status"`
	ErrorType    string    `json:"error_type,omitempty"`
	LatencyMS    int64     `json:"latency_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Answer is a generated reply together with the passages it was grounded on.
type Answer struct {
	Question string        `json:"question"`
	Answer   string        `json:"answer"`
	Sources  []ChunkResult `json:"sources"`
}
