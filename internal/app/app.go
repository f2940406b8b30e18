// Package app assembles the indexer and its collaborators from configuration.
package app

import (
	"context"
	"fmt"

	"docrag/internal/answer"
	"docrag/internal/config"
	"docrag/internal/embedding"
	"docrag/internal/extract"
	"docrag/internal/indexer"
	"docrag/internal/logger"
	"docrag/internal/providers"
	"docrag/internal/storage"
)

type App struct {
	Cfg   config.Config
	Log   *logger.Logger
	Store storage.Store
	Svc   *indexer.Service
}

// Build opens the configured store, loads the shared embedding model and
// returns a ready Service. Close releases the store.
func Build(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("build providers: %w", err)
	}
	emb, err := embedding.Shared(cfg, func() (providers.EmbeddingProvider, error) {
		p, ref := pm.EmbedProvider()
		log.Info("embedding model loaded", "provider", ref.String())
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	if emb.Dim() != cfg.EmbedDim {
		return nil, fmt.Errorf("embedding dimension %d does not match configured %d", emb.Dim(), cfg.EmbedDim)
	}
	st, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	synth := answer.New(pm.LLM(), answer.Options{
		MaxTokens:   cfg.GenMaxTokens,
		MaxAttempts: cfg.GenMaxAttempts,
		Recorder:    st,
		Logger:      log,
	})
	svc := indexer.NewService(cfg, st, emb, extract.NewPDFExtractor(), synth, log)
	return &App{Cfg: cfg, Log: log, Store: st, Svc: svc}, nil
}

func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
