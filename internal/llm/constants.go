package llm

// Provider constants
const (
	// DefaultProvider needs no network and no key
	DefaultProvider = ProviderHashing

	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"

	// ProviderHashing is a local feature-hashing embedder (embeddings only)
	ProviderHashing = "hashing"
)

// Embedding model constants
const (
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"
	DefaultOllamaEmbeddingModel = "nomic-embed-text"
	DefaultGeminiEmbeddingModel = "text-embedding-004"
	DefaultHashingDimensions    = 256
)

// DefaultOllamaURL is the default URL for Ollama server
const DefaultOllamaURL = "http://localhost:11434"
