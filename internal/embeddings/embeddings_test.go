package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ncarver/ragserve/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetModelDimensions(t *testing.T) {
	tests := []struct {
		model    string
		expected int
	}{
		// Ollama models
		{"nomic-embed-text", 768},
		{"mxbai-embed-large", 1024},
		{"all-minilm", 384},

		// OpenAI models
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},

		// Unknown model
		{"unknown-model", 0},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetModelDimensions(tt.model))
		})
	}
}

func TestNewOllamaService(t *testing.T) {
	t.Run("with default URL", func(t *testing.T) {
		svc, err := NewOllamaService("", "all-minilm")
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:11434", svc.baseURL)
		assert.Equal(t, 384, svc.Dimensions())
		assert.Equal(t, ProviderOllama, svc.Provider())
		assert.Equal(t, "all-minilm", svc.ModelName())
	})

	t.Run("trailing slash removed", func(t *testing.T) {
		svc, err := NewOllamaService("http://custom:8080/", "nomic-embed-text")
		require.NoError(t, err)
		assert.Equal(t, "http://custom:8080", svc.baseURL)
	})

	t.Run("unknown model defaults to 768", func(t *testing.T) {
		svc, err := NewOllamaService("", "custom-model")
		require.NoError(t, err)
		assert.Equal(t, 768, svc.Dimensions())
	})
}

func TestNewOpenAIService(t *testing.T) {
	t.Run("requires API key", func(t *testing.T) {
		_, err := NewOpenAIService("", "text-embedding-3-small", "", 0)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "API key is required")
	})

	t.Run("with known model dimensions", func(t *testing.T) {
		svc, err := NewOpenAIService("sk-test", "text-embedding-3-small", "", 0)
		require.NoError(t, err)
		assert.Equal(t, 1536, svc.Dimensions())
		assert.Equal(t, ProviderOpenAI, svc.Provider())
	})

	t.Run("with explicit dimensions", func(t *testing.T) {
		svc, err := NewOpenAIService("sk-test", "text-embedding-3-large", "", 512)
		require.NoError(t, err)
		assert.Equal(t, 512, svc.Dimensions())
	})
}

func TestNewService(t *testing.T) {
	t.Run("creates Ollama service", func(t *testing.T) {
		cfg := &config.Config{
			Embeddings: config.EmbeddingsConfig{
				Provider: "ollama",
				Ollama: config.OllamaEmbedConfig{
					URL:   "http://localhost:11434",
					Model: "all-minilm",
				},
			},
		}

		svc, err := NewService(cfg)
		require.NoError(t, err)
		assert.Equal(t, ProviderOllama, svc.Provider())
	})

	t.Run("creates OpenAI service", func(t *testing.T) {
		cfg := &config.Config{
			Embeddings: config.EmbeddingsConfig{
				Provider: "openai",
				OpenAI: config.OpenAIEmbedConfig{
					APIKey: "sk-test",
					Model:  "text-embedding-3-small",
				},
			},
		}

		svc, err := NewService(cfg)
		require.NoError(t, err)
		assert.Equal(t, ProviderOpenAI, svc.Provider())
	})

	t.Run("rejects unsupported provider", func(t *testing.T) {
		cfg := &config.Config{
			Embeddings: config.EmbeddingsConfig{Provider: "nope"},
		}

		_, err := NewService(cfg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported")
	})
}

func TestOllamaEmbedBatch(t *testing.T) {
	var gotReq ollamaEmbedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := ollamaEmbedResponse{
			Embeddings: make([][]float32, len(gotReq.Input)),
		}
		for i := range resp.Embeddings {
			resp.Embeddings[i] = []float32{float32(i), 0, 0}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc, err := NewOllamaService(server.URL, "nomic-embed-text")
	require.NoError(t, err)

	embeddings, err := svc.EmbedBatch(context.Background(), []string{"doc one", "doc two"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)

	// Document task prefix applied, order preserved
	assert.Equal(t, "search_document: doc one", gotReq.Input[0])
	assert.Equal(t, "search_document: doc two", gotReq.Input[1])
	assert.Equal(t, []float32{0, 0, 0}, embeddings[0])
	assert.Equal(t, []float32{1, 0, 0}, embeddings[1])
}

func TestOllamaEmbedQueryPrefix(t *testing.T) {
	var gotReq ollamaEmbedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embeddings: [][]float32{{1, 2, 3}},
		})
	}))
	defer server.Close()

	svc, err := NewOllamaService(server.URL, "nomic-embed-text")
	require.NoError(t, err)

	vec, err := svc.EmbedQuery(context.Background(), "what is BRCA1")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
	assert.Equal(t, "search_query: what is BRCA1", gotReq.Input[0])
}

func TestOllamaEmbedBatchEmpty(t *testing.T) {
	svc, err := NewOllamaService("", "all-minilm")
	require.NoError(t, err)

	embeddings, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, embeddings)
}

func TestOllamaEmbedBatchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	svc, err := NewOllamaService(server.URL, "all-minilm")
	require.NoError(t, err)

	// Whole batch fails together
	_, err = svc.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
