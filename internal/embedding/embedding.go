// Package embedding owns the process-wide embedding model and turns text
// into fixed-width vectors through it.
package embedding

import (
	"context"
	"fmt"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"docrag/internal/config"
	"docrag/internal/providers"
	"docrag/internal/util"
)

// Embedder is safe for concurrent use.
type Embedder struct {
	provider  providers.EmbeddingProvider
	dim       int
	batchSize int
	cache     *lru.Cache[string, []float32]
}

// New wraps a ready provider. cacheSize <= 0 disables the query cache.
func New(p providers.EmbeddingProvider, dim, batchSize, cacheSize int) (*Embedder, error) {
	if p == nil {
		return nil, fmt.Errorf("embedding provider is nil")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	e := &Embedder{provider: p, dim: dim, batchSize: batchSize}
	if cacheSize > 0 {
		c, err := lru.New[string, []float32](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create embedding cache: %w", err)
		}
		e.cache = c
	}
	return e, nil
}

var (
	sharedMu sync.Mutex
	shared   *Embedder
)

// Shared returns the process-wide Embedder, calling build at most once.
// A failed build is not remembered, so a later call may retry it.
func Shared(cfg config.Config, build func() (providers.EmbeddingProvider, error)) (*Embedder, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared != nil {
		return shared, nil
	}
	p, err := build()
	if err != nil {
		return nil, fmt.Errorf("load embedding model: %w", err)
	}
	e, err := New(p, cfg.EmbedDim, cfg.EmbedBatchSize, cfg.EmbedCacheSize)
	if err != nil {
		return nil, err
	}
	shared = e
	return shared, nil
}

func (e *Embedder) Dim() int { return e.dim }

// Embed returns the vector for one text, consulting the LRU cache first.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.cache != nil {
		if v, ok := e.cache.Get(text); ok {
			return slices.Clone(v), nil
		}
	}
	out, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Add(text, slices.Clone(out[0]))
	}
	return out[0], nil
}

// EmbedBatch returns one vector per text in input order. Texts are sent to
// the provider in slices of at most batchSize.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		vecs, err := e.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, info, err := e.provider.Embed(ctx, providers.EmbedRequest{Operation: "embed", Inputs: texts, Dimension: e.dim})
	if err != nil {
		return nil, fmt.Errorf("embed with %s: %w", info.Name, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embed with %s: got %d vectors for %d texts", info.Name, len(vecs), len(texts))
	}
	for i, v := range vecs {
		if len(v) != e.dim {
			return nil, fmt.Errorf("%w: %s vector %d has %d dims, want %d", util.ErrDimensionMismatch, info.Name, i, len(v), e.dim)
		}
	}
	return vecs, nil
}
