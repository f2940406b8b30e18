package providers

import "testing"

func TestParseProviderList(t *testing.T) {
	refs := ParseProviderList("anthropic|openai:key1| Ollama:nomic ")
	if len(refs) != 3 {
		t.Fatalf("expected 3 providers got %d", len(refs))
	}
	if refs[1].Name != "openai" || refs[1].KeyAlias != "key1" {
		t.Fatalf("unexpected parse result: %+v", refs[1])
	}
	if refs[2].Name != "ollama" || refs[2].String() != "ollama:nomic" {
		t.Fatalf("unexpected parse result: %+v", refs[2])
	}
}

func TestParseProviderListEmpty(t *testing.T) {
	if refs := ParseProviderList(" | "); len(refs) != 0 {
		t.Fatalf("expected no providers got %+v", refs)
	}
}
