package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/llm"
)

func TestResolveAPIKey(t *testing.T) {
	resetViperForTest(t)
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	assert.Equal(t, "env-key", ResolveAPIKey(llm.ProviderOpenAI))
	assert.Equal(t, "google-key", ResolveAPIKey(llm.ProviderGemini))
	assert.Empty(t, ResolveAPIKey(llm.ProviderOllama))

	viper.Set("api_keys.openai", " config-key ")
	assert.Equal(t, "config-key", ResolveAPIKey(llm.ProviderOpenAI), "config wins over env")
}

func TestEmbeddingLLMConfig(t *testing.T) {
	resetViperForTest(t)

	cfg, err := EmbeddingLLMConfig(EmbeddingConfig{Provider: "ollama", Model: "mxbai-embed-large"})
	require.NoError(t, err)
	assert.Equal(t, llm.Provider(llm.ProviderOllama), cfg.Provider)
	assert.Equal(t, llm.DefaultOllamaURL, cfg.BaseURL)
	assert.Equal(t, "mxbai-embed-large", cfg.EmbeddingModelName())

	cfg, err = EmbeddingLLMConfig(EmbeddingConfig{Provider: "hashing", Dimensions: 32})
	require.NoError(t, err)
	assert.Equal(t, "hashing-32", cfg.EmbeddingModelName())

	_, err = EmbeddingLLMConfig(EmbeddingConfig{Provider: "tei"})
	assert.Error(t, err)
}

func TestExplainLLMConfig(t *testing.T) {
	resetViperForTest(t)

	_, ok, err := ExplainLLMConfig(ExplainConfig{})
	require.NoError(t, err)
	assert.False(t, ok, "no provider keeps the text explainer")

	cfg, ok, err := ExplainLLMConfig(ExplainConfig{Provider: "anthropic"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "claude-sonnet-4-5", cfg.Model)

	_, _, err = ExplainLLMConfig(ExplainConfig{Provider: "hashing"})
	assert.Error(t, err)
}
