package llm

import (
	"context"
	"math"
	"testing"
)

func TestValidateProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		want     Provider
		wantErr  bool
	}{
		{name: "valid openai", provider: "openai", want: ProviderOpenAI},
		{name: "valid ollama", provider: "ollama", want: ProviderOllama},
		{name: "valid anthropic", provider: "anthropic", want: ProviderAnthropic},
		{name: "valid gemini", provider: "gemini", want: ProviderGemini},
		{name: "valid hashing", provider: "hashing", want: ProviderHashing},
		{name: "invalid provider", provider: "invalid", wantErr: true},
		{name: "empty provider", provider: "", wantErr: true},
		{name: "case sensitive - OPENAI fails", provider: "OPENAI", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateProvider(tt.provider)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProvider() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ValidateProvider() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEmbeddingModel_Errors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "openai without key", cfg: Config{Provider: ProviderOpenAI}},
		{name: "gemini without key", cfg: Config{Provider: ProviderGemini}},
		{name: "anthropic has no embeddings", cfg: Config{Provider: ProviderAnthropic, APIKey: "k"}},
		{name: "unknown", cfg: Config{Provider: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEmbeddingModel(ctx, tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewChatModel_Errors(t *testing.T) {
	ctx := context.Background()
	for _, p := range []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderHashing} {
		if _, err := NewChatModel(ctx, Config{Provider: p}); err == nil {
			t.Errorf("NewChatModel(%s) expected error", p)
		}
	}
}

func TestEmbeddingModelName(t *testing.T) {
	tests := []struct {
		cfg  Config
		want string
	}{
		{Config{Provider: ProviderOpenAI}, DefaultOpenAIEmbeddingModel},
		{Config{Provider: ProviderOllama}, DefaultOllamaEmbeddingModel},
		{Config{Provider: ProviderOllama, EmbeddingModel: "mxbai-embed-large"}, "mxbai-embed-large"},
		{Config{Provider: ProviderHashing}, "hashing-256"},
		{Config{Provider: ProviderHashing, Dimensions: 64}, "hashing-64"},
	}
	for _, tt := range tests {
		if got := tt.cfg.EmbeddingModelName(); got != tt.want {
			t.Errorf("EmbeddingModelName(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}

func TestHashingEmbedder(t *testing.T) {
	ctx := context.Background()
	emb, err := NewEmbeddingModel(ctx, Config{Provider: ProviderHashing, Dimensions: 128})
	if err != nil {
		t.Fatalf("NewEmbeddingModel: %v", err)
	}
	vecs, err := emb.EmbedStrings(ctx, []string{"shared mental models", "shared mental models", "heart rate", ""})
	if err != nil {
		t.Fatalf("EmbedStrings: %v", err)
	}
	if len(vecs) != 4 || len(vecs[0]) != 128 {
		t.Fatalf("unexpected shape %d x %d", len(vecs), len(vecs[0]))
	}
	for i := range vecs[0] {
		if vecs[0][i] != vecs[1][i] {
			t.Fatal("embedding is not deterministic")
		}
	}
	var n float64
	for _, v := range vecs[0] {
		n += v * v
	}
	if math.Abs(n-1) > 1e-9 {
		t.Errorf("norm = %v, want 1", n)
	}
	for _, v := range vecs[3] {
		if v != 0 {
			t.Fatal("empty text should embed to the zero vector")
		}
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := emb.EmbedStrings(cancelled, []string{"x"}); err == nil {
		t.Error("expected context error")
	}
}
