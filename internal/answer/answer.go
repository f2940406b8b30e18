// Package answer turns retrieved passages and a question into a grounded
// answer from a generation provider.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"docrag/internal/logger"
	"docrag/internal/models"
	"docrag/internal/providers"
	"docrag/internal/util"
)

const (
	PassageSeparator = "\n\n---\n\n"

	SystemPrompt = "You are a helpful assistant that answers questions using ONLY the provided context. " +
		"If the context does not contain enough information to answer the question, say so clearly. " +
		"Be concise but thorough."
)

// Recorder persists one audit row per generation call.
type Recorder interface {
	RecordGeneration(ctx context.Context, rec models.GenerationCall) error
}

type Options struct {
	MaxTokens   int
	MaxAttempts int
	Recorder    Recorder
	Logger      *logger.Logger
	// NewBackOff overrides the retry schedule; tests use it to avoid sleeping.
	NewBackOff func() backoff.BackOff
}

type Synthesizer struct {
	llm  providers.LLMProvider
	opts Options
	log  *logger.Logger
}

func New(llm providers.LLMProvider, opts Options) *Synthesizer {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.NewBackOff == nil {
		opts.NewBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = 30 * time.Second
			return b
		}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Synthesizer{llm: llm, opts: opts, log: log}
}

// BuildPrompt renders the user message for question over passages.
func BuildPrompt(question string, passages []string) string {
	var sb strings.Builder
	sb.WriteString("Context from documents:\n\n")
	sb.WriteString(strings.Join(passages, PassageSeparator))
	sb.WriteString(PassageSeparator)
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nPlease provide a detailed answer based on the context above.")
	return sb.String()
}

// Synthesize returns the provider's answer verbatim. Rate-limit and transient
// failures are retried up to MaxAttempts; every failure wraps util.ErrGeneration.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, passages []string) (string, error) {
	req := providers.GenerateRequest{
		Operation: "answer",
		System:    SystemPrompt,
		Prompt:    BuildPrompt(question, passages),
		MaxTokens: s.opts.MaxTokens,
	}

	started := time.Now()
	var (
		resp providers.GenerateResponse
		info providers.ProviderInfo
		tries int
	)
	op := func() error {
		tries++
		var err error
		resp, info, err = s.llm.Generate(ctx, req)
		if err == nil {
			return nil
		}
		if !providers.Retryable(err) {
			return backoff.Permanent(err)
		}
		s.log.Warn("generation attempt failed", "attempt", tries, "provider", info.Name, "error", err)
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(s.opts.NewBackOff(), uint64(s.opts.MaxAttempts-1)), ctx)
	err := backoff.Retry(op, b)

	s.record(ctx, models.GenerationCall{
		Question:     question,
		ContextCount: len(passages),
		ProviderName: info.Name,
		Model:        info.Model,
		LatencyMS:    time.Since(started).Milliseconds(),
	}, err)

	if err != nil {
		return "", fmt.Errorf("%w: %w", util.ErrGeneration, err)
	}
	return resp.Text, nil
}

func (s *Synthesizer) record(ctx context.Context, rec models.GenerationCall, err error) {
	if s.opts.Recorder == nil {
		return
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()
	rec.Status = "ok"
	if err != nil {
		rec.Status = "error"
		rec.ErrorType = string(providers.ClassifyError(err))
	}
	if recErr := s.opts.Recorder.RecordGeneration(context.WithoutCancel(ctx), rec); recErr != nil {
		s.log.Warn("record generation call failed", "error", recErr)
	}
}
