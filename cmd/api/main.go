package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"

	"docrag/internal/api"
	"docrag/internal/app"
	"docrag/internal/config"
	"docrag/internal/logger"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("build app", "error", err)
	}
	defer a.Close()

	// durable indexing is optional; the API still serves without Temporal
	var tc client.Client
	if c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress}); err != nil {
		log.Warn("temporal unavailable, durable indexing disabled", "address", cfg.TemporalAddress, "error", err)
	} else {
		tc = c
		defer c.Close()
	}

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           api.NewServer(cfg, a.Svc, log, tc).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("docrag api listening", "addr", cfg.APIAddr, "store", cfg.StoreBackend, "llm_providers", cfg.LLMProviders, "embed_providers", cfg.EmbedProviders)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("serve", "error", err)
	}
}
