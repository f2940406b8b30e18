package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveOllamaEmbedModel_Default(t *testing.T) {
	t.Setenv("DOCRAG_OLLAMA_EMBED_MODEL", "")
	if got := resolveOllamaEmbedModel(""); got != "all-minilm" {
		t.Fatalf("expected default all-minilm, got %q", got)
	}
	if got := resolveOllamaEmbedModel("nomic-embed-text"); got != "nomic-embed-text" {
		t.Fatalf("expected direct model, got %q", got)
	}
}

func TestMatchDimension(t *testing.T) {
	src := []float32{1, 2, 3}
	a := matchDimension(src, 2)
	if len(a) != 2 || a[0] != 1 || a[1] != 2 {
		t.Fatalf("truncate failed: %#v", a)
	}
	b := matchDimension(src, 5)
	if len(b) != 5 || b[0] != 1 || b[2] != 3 || b[3] != 0 || b[4] != 0 {
		t.Fatalf("pad failed: %#v", b)
	}
}

func TestOllamaEmbedOneRequestPerInput(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["prompt"] == "" {
			t.Errorf("missing prompt")
		}
		_, _ = w.Write([]byte(`{"embedding":[0.5,0.5,0.5,0.5]}`))
	}))
	defer srv.Close()
	t.Setenv("DOCRAG_OLLAMA_BASE_URL", srv.URL)

	vecs, info, err := NewOllamaEmbeddingProvider("").Embed(context.Background(), EmbedRequest{Inputs: []string{"a", "b"}, Dimension: 3})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if hits != 2 || len(vecs) != 2 || len(vecs[1]) != 3 || info.Name != "ollama" {
		t.Fatalf("unexpected result hits=%d vecs=%v info=%+v", hits, vecs, info)
	}
}
