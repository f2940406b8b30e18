package providers

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"docrag/internal/vector"
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {}, "for": {},
	"from": {}, "has": {}, "in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {},
	"that": {}, "the": {}, "this": {}, "to": {}, "was": {}, "were": {}, "which": {}, "with": {},
	"what": {}, "who": {}, "how": {}, "does": {}, "do": {}, "did": {},
}

// HashingProvider is a local embedding model. Unigrams and adjacent-word
// bigrams are hashed into a fixed number of signed buckets, weighted with
// sublinear term frequency and L2-normalised, so texts sharing vocabulary
// land close in cosine distance.
type HashingProvider struct {
	dim int
}

func NewHashingProvider(dim int) *HashingProvider {
	if dim <= 0 {
		dim = 384
	}
	return &HashingProvider{dim: dim}
}

func (h *HashingProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	dim := req.Dimension
	if dim <= 0 {
		dim = h.dim
	}
	info := ProviderInfo{Name: "hashing", Model: fmt.Sprintf("hashing-uni-bi-%d", dim), Key: "local"}
	out := make([][]float32, 0, len(req.Inputs))
	for _, text := range req.Inputs {
		if err := ctx.Err(); err != nil {
			return nil, info, err
		}
		out = append(out, h.vectorize(text, dim))
	}
	return out, info, nil
}

func (h *HashingProvider) vectorize(text string, dim int) []float32 {
	tokens := tokenize(text)
	counts := make(map[string]float64, len(tokens)*2)
	for i, tok := range tokens {
		counts[tok]++
		if i > 0 {
			counts[tokens[i-1]+" "+tok] += 0.5
		}
	}
	vec := make([]float32, dim)
	for term, tf := range counts {
		sum := xxhash.Sum64String(term)
		idx := int(sum % uint64(dim))
		w := 1 + math.Log(tf)
		if tf < 1 {
			w = tf
		}
		if sum&(1<<63) != 0 {
			w = -w
		}
		vec[idx] += float32(w)
	}
	return vector.Normalize(vec)
}

func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := words[:0]
	for _, w := range words {
		if _, skip := stopwords[w]; skip {
			continue
		}
		out = append(out, w)
	}
	return out
}
