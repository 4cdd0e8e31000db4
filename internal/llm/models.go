package llm

import (
	"sort"
	"strings"
)

// ModelKind separates chat models from embedding models.
type ModelKind string

const (
	KindChat      ModelKind = "chat"
	KindEmbedding ModelKind = "embedding"
)

// Model describes one known model.
type Model struct {
	ID         string
	ProviderID string
	Kind       ModelKind
	Aliases    []string
	IsDefault  bool
}

// ModelRegistry lists the models the explainer knows defaults for. Other
// model IDs are accepted and passed through to the provider.
var ModelRegistry = []Model{
	{ID: "gpt-5-mini", ProviderID: ProviderOpenAI, Kind: KindChat, Aliases: []string{"gpt-5-mini-2025-08-07"}, IsDefault: true},
	{ID: "gpt-4.1-mini", ProviderID: ProviderOpenAI, Kind: KindChat, Aliases: []string{"gpt-4.1-mini-2025-04-14"}},
	{ID: DefaultOpenAIEmbeddingModel, ProviderID: ProviderOpenAI, Kind: KindEmbedding, IsDefault: true},
	{ID: "text-embedding-3-large", ProviderID: ProviderOpenAI, Kind: KindEmbedding},
	{ID: "claude-sonnet-4-5", ProviderID: ProviderAnthropic, Kind: KindChat, IsDefault: true},
	{ID: "claude-haiku-4-5", ProviderID: ProviderAnthropic, Kind: KindChat},
	{ID: "gemini-2.5-flash", ProviderID: ProviderGemini, Kind: KindChat, IsDefault: true},
	{ID: DefaultGeminiEmbeddingModel, ProviderID: ProviderGemini, Kind: KindEmbedding, IsDefault: true},
	{ID: "llama3.2", ProviderID: ProviderOllama, Kind: KindChat, IsDefault: true},
	{ID: DefaultOllamaEmbeddingModel, ProviderID: ProviderOllama, Kind: KindEmbedding, IsDefault: true},
	{ID: "mxbai-embed-large", ProviderID: ProviderOllama, Kind: KindEmbedding},
}

var modelIndex map[string]*Model

func init() {
	modelIndex = make(map[string]*Model)
	for i := range ModelRegistry {
		m := &ModelRegistry[i]
		modelIndex[m.ID] = m
		for _, alias := range m.Aliases {
			modelIndex[alias] = m
		}
	}
}

// GetModel returns the model for an ID or alias, or nil.
func GetModel(modelID string) *Model {
	return modelIndex[modelID]
}

// DefaultModelForProvider returns the default chat model ID for a provider.
func DefaultModelForProvider(providerID string) string {
	for _, m := range ModelRegistry {
		if m.ProviderID == providerID && m.Kind == KindChat && m.IsDefault {
			// the dated alias is what the OpenAI API pins
			if providerID == ProviderOpenAI && len(m.Aliases) > 0 {
				return m.Aliases[0]
			}
			return m.ID
		}
	}
	return ""
}

// InferProvider guesses the provider from a model name.
func InferProvider(modelID string) (string, bool) {
	if m := GetModel(modelID); m != nil {
		return m.ProviderID, true
	}
	switch {
	case strings.HasPrefix(modelID, "gpt-"), strings.HasPrefix(modelID, "text-embedding-3"):
		return ProviderOpenAI, true
	case strings.HasPrefix(modelID, "claude-"):
		return ProviderAnthropic, true
	case strings.HasPrefix(modelID, "gemini-"), strings.HasPrefix(modelID, "text-embedding-0"):
		return ProviderGemini, true
	case strings.HasPrefix(modelID, "llama"), strings.HasPrefix(modelID, "mistral"), strings.HasPrefix(modelID, "nomic-"):
		return ProviderOllama, true
	}
	return "", false
}

// ModelsFor lists the known models of a provider and kind, default first.
func ModelsFor(providerID string, kind ModelKind) []Model {
	var out []Model
	for _, m := range ModelRegistry {
		if m.ProviderID == providerID && m.Kind == kind {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].ID < out[j].ID
	})
	return out
}
