package config

import (
	"os"
	"path/filepath"
)

// Default configuration values
const (
	// Server defaults
	DefaultHost = "0.0.0.0"
	DefaultPort = 8000

	// Store defaults. 384 matches all-minilm / all-MiniLM-L6-v2 class
	// embedding models; the store dimension is fixed for its lifetime and
	// must match the embedding service.
	DefaultDimensions    = 384
	DefaultStoreFileName = "vector_store"

	// Embedding defaults
	DefaultEmbeddingProvider = "ollama"
	DefaultOllamaURL         = "http://localhost:11434"
	DefaultOllamaEmbedModel  = "all-minilm"
	DefaultOpenAIEmbedModel  = "text-embedding-3-small"

	// LLM defaults
	DefaultLLMProvider    = "openai"
	DefaultOllamaLLMModel = "llama3"
	DefaultOpenAILLMModel = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-haiku-20240307"

	// Retrieval defaults
	DefaultTopK = 2
)

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ragserve")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ragserve"
	}
	return filepath.Join(home, ".config", "ragserve")
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "ragserve")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ragserve"
	}
	return filepath.Join(home, ".local", "share", "ragserve")
}

// DefaultStorePath returns the default artifact path prefix for the vector store.
func DefaultStorePath() string {
	return filepath.Join(DefaultDataDir(), "processed", DefaultStoreFileName)
}

// DefaultArchivePath returns the default directory for raw ingested documents.
func DefaultArchivePath() string {
	return filepath.Join(DefaultDataDir(), "raw")
}
