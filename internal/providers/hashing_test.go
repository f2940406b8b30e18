package providers

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"docrag/internal/vector"
)

func TestHashingEmbedDeterministicAndNormalised(t *testing.T) {
	p := NewHashingProvider(64)
	vecs, info, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{"The whale swims.", "The whale swims."}})
	require.NoError(t, err)
	require.Equal(t, "hashing", info.Name)
	require.Len(t, vecs, 2)
	require.Len(t, vecs[0], 64)
	require.Equal(t, vecs[0], vecs[1])

	var norm float64
	for _, x := range vecs[0] {
		norm += float64(x) * float64(x)
	}
	require.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestHashingEmbedSharedVocabularyIsCloser(t *testing.T) {
	p := NewHashingProvider(384)
	vecs, _, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{
		"Who is the captain of the whaling ship?",
		"Captain Ahab commands the whaling ship Pequod.",
		"Elizabeth Bennet attends a ball in Hertfordshire.",
	}})
	require.NoError(t, err)
	near := vector.CosineDistance(vecs[0], vecs[1])
	far := vector.CosineDistance(vecs[0], vecs[2])
	require.Less(t, near, far)
}

func TestHashingEmbedEmptyTextIsZeroVector(t *testing.T) {
	vecs, _, err := NewHashingProvider(8).Embed(context.Background(), EmbedRequest{Inputs: []string{"  the of  "}})
	require.NoError(t, err)
	require.Equal(t, make([]float32, 8), vecs[0])
}

func TestHashingEmbedHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewHashingProvider(8).Embed(ctx, EmbedRequest{Inputs: []string{"x"}})
	require.ErrorIs(t, err, context.Canceled)
}
