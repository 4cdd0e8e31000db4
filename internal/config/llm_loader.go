package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/llm"
)

// EmbeddingLLMConfig builds the embedding client settings. Precedence:
// explicit config > environment variables > defaults.
func EmbeddingLLMConfig(c EmbeddingConfig) (llm.Config, error) {
	provider, err := llm.ValidateProvider(c.Provider)
	if err != nil {
		return llm.Config{}, fmt.Errorf("embedding: %w", err)
	}
	baseURL := c.BaseURL
	if baseURL == "" && provider == llm.ProviderOllama {
		baseURL = llm.DefaultOllamaURL
	}
	return llm.Config{
		Provider:       provider,
		EmbeddingModel: c.Model,
		APIKey:         ResolveAPIKey(provider),
		BaseURL:        baseURL,
		Dimensions:     c.Dimensions,
	}, nil
}

// ExplainLLMConfig builds the chat client settings for the narrator. The
// bool is false when no provider is configured.
func ExplainLLMConfig(c ExplainConfig) (llm.Config, bool, error) {
	if c.Provider == "" {
		return llm.Config{}, false, nil
	}
	provider, err := llm.ValidateProvider(c.Provider)
	if err != nil {
		return llm.Config{}, false, fmt.Errorf("explain: %w", err)
	}
	if provider == llm.ProviderHashing {
		return llm.Config{}, false, fmt.Errorf("explain: provider %s has no chat model", provider)
	}
	model := c.Model
	if model == "" {
		model = llm.DefaultModelForProvider(string(provider))
	}
	baseURL := c.BaseURL
	if baseURL == "" && provider == llm.ProviderOllama {
		baseURL = llm.DefaultOllamaURL
	}
	return llm.Config{
		Provider: provider,
		Model:    model,
		APIKey:   ResolveAPIKey(provider),
		BaseURL:  baseURL,
	}, true, nil
}

// ResolveAPIKey returns the best API key for the given provider using
// per-provider config keys, then provider-specific env vars.
func ResolveAPIKey(provider llm.Provider) string {
	path := fmt.Sprintf("api_keys.%s", provider)
	if viper.IsSet(path) {
		if key := strings.TrimSpace(viper.GetString(path)); key != "" {
			return key
		}
	}
	return providerEnvKey(provider)
}

func providerEnvKey(provider llm.Provider) string {
	switch provider {
	case llm.ProviderOpenAI:
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case llm.ProviderAnthropic:
		return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	case llm.ProviderGemini:
		key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		if key == "" {
			key = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
		}
		return key
	default:
		return ""
	}
}
