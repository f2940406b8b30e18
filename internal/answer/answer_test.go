package answer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docrag/internal/models"
	"docrag/internal/providers"
	"docrag/internal/util"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(providers.GenerateResponse), args.Get(1).(providers.ProviderInfo), args.Error(2)
}

type memRecorder struct {
	mu   sync.Mutex
	recs []models.GenerationCall
}

func (r *memRecorder) RecordGeneration(ctx context.Context, rec models.GenerationCall) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

func noWait() backoff.BackOff { return &backoff.ZeroBackOff{} }

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("Who is Ahab?", []string{"Ahab is captain.", "The Pequod sails."})
	require.Equal(t, "Context from documents:\n\nAhab is captain.\n\n---\n\nThe Pequod sails.\n\n---\n\nQuestion: Who is Ahab?\n\nPlease provide a detailed answer based on the context above.", got)
}

func TestSynthesizeReturnsTextVerbatim(t *testing.T) {
	llm := &mockLLM{}
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(req providers.GenerateRequest) bool {
		return req.System == SystemPrompt && req.MaxTokens == 1024
	})).Return(providers.GenerateResponse{Text: "  Ahab.\n"}, providers.ProviderInfo{Name: "stub", Model: "m"}, nil).Once()
	rec := &memRecorder{}

	s := New(llm, Options{Recorder: rec, NewBackOff: noWait})
	out, err := s.Synthesize(context.Background(), "Who?", []string{"Ahab is captain."})
	require.NoError(t, err)
	require.Equal(t, "  Ahab.\n", out)
	llm.AssertExpectations(t)

	require.Len(t, rec.recs, 1)
	require.Equal(t, "ok", rec.recs[0].Status)
	require.Equal(t, 1, rec.recs[0].ContextCount)
	require.Equal(t, "stub", rec.recs[0].ProviderName)
}

func TestSynthesizeRetriesRateLimit(t *testing.T) {
	llm := &mockLLM{}
	llm.On("Generate", mock.Anything, mock.Anything).
		Return(providers.GenerateResponse{}, providers.ProviderInfo{Name: "stub"}, errors.New("error 429: rate limited")).Twice()
	llm.On("Generate", mock.Anything, mock.Anything).
		Return(providers.GenerateResponse{Text: "ok"}, providers.ProviderInfo{Name: "stub"}, nil).Once()

	s := New(llm, Options{MaxAttempts: 3, NewBackOff: noWait})
	out, err := s.Synthesize(context.Background(), "q", []string{"c"})
	require.NoError(t, err)
	require.Equal(t, "ok", out)
	llm.AssertNumberOfCalls(t, "Generate", 3)
}

func TestSynthesizeGivesUpAfterMaxAttempts(t *testing.T) {
	llm := &mockLLM{}
	llm.On("Generate", mock.Anything, mock.Anything).
		Return(providers.GenerateResponse{}, providers.ProviderInfo{Name: "stub"}, errors.New("service unavailable"))
	rec := &memRecorder{}

	s := New(llm, Options{MaxAttempts: 2, Recorder: rec, NewBackOff: noWait})
	_, err := s.Synthesize(context.Background(), "q", []string{"c"})
	require.ErrorIs(t, err, util.ErrGeneration)
	llm.AssertNumberOfCalls(t, "Generate", 2)
	require.Equal(t, "error", rec.recs[0].Status)
	require.Equal(t, string(providers.ErrorTransient), rec.recs[0].ErrorType)
}

func TestSynthesizeDoesNotRetryPermanentErrors(t *testing.T) {
	llm := &mockLLM{}
	cause := errors.New("bad request")
	llm.On("Generate", mock.Anything, mock.Anything).
		Return(providers.GenerateResponse{}, providers.ProviderInfo{Name: "stub"}, cause)

	s := New(llm, Options{MaxAttempts: 5, NewBackOff: noWait})
	_, err := s.Synthesize(context.Background(), "q", []string{"c"})
	require.ErrorIs(t, err, util.ErrGeneration)
	require.ErrorIs(t, err, cause)
	llm.AssertNumberOfCalls(t, "Generate", 1)
}
