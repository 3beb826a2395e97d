package retrieval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncarver/ragserve/internal/embeddings"
	"github.com/ncarver/ragserve/internal/llm"
	"github.com/ncarver/ragserve/internal/store"
)

// fakeEmbedder maps known texts to fixed 3-dimensional vectors.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 0}
		}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int               { return 3 }
func (f *fakeEmbedder) Provider() embeddings.Provider { return embeddings.Provider("fake") }
func (f *fakeEmbedder) ModelName() string             { return "fake-embed" }

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Complete(context.Context, []llm.Message, llm.CompletionOptions) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) Provider() llm.Provider { return llm.Provider("fake") }
func (f *fakeLLM) ModelName() string      { return "fake-llm" }

func newTestOrchestrator(t *testing.T, emb embeddings.Service, ll llm.Service, opts Options) *Orchestrator {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "vector_store"), 3)
	require.NoError(t, err)

	var gen *llm.Generator
	if ll != nil {
		gen = llm.NewGenerator(ll)
	}
	return New(s, emb, gen, opts)
}

func defaultEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float32{
		"alpha content": {1, 0, 0},
		"beta content":  {0, 1, 0},
		"gamma content": {0, 0, 1},
	}}
}

func TestIngestAndQuery(t *testing.T) {
	o := newTestOrchestrator(t, defaultEmbedder(), &fakeLLM{response: "grounded answer"}, Options{DefaultTopK: 2})

	ids, err := o.Ingest(context.Background(), []DocumentInput{
		{Title: "Alpha", Content: "alpha content"},
		{ID: "doc-beta", Title: "Beta", Content: "beta content"},
		{Title: "Gamma", Content: "gamma content"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)

	// Caller-supplied id is kept, missing ids are generated
	assert.Equal(t, "doc-beta", ids[1])
	assert.NotEmpty(t, ids[0])
	assert.NotEmpty(t, ids[2])
	assert.NotEqual(t, ids[0], ids[2])

	resp, err := o.AnswerQuery(context.Background(), "beta content", 2, false)
	require.NoError(t, err)

	assert.Equal(t, "beta content", resp.Query)
	assert.Equal(t, "grounded answer", resp.Answer)
	require.Len(t, resp.RetrievedDocuments, 2)
	// The closest document is the one embedded at the query's position
	assert.Equal(t, "doc-beta", resp.RetrievedDocuments[0].ID)
	assert.Equal(t, float64(0), resp.RetrievedDocuments[0].Score)
	assert.LessOrEqual(t, resp.RetrievedDocuments[0].Score, resp.RetrievedDocuments[1].Score)
	assert.GreaterOrEqual(t, resp.ProcessingTime, float64(0))
}

func TestIngestEmptyBatch(t *testing.T) {
	o := newTestOrchestrator(t, defaultEmbedder(), nil, Options{})

	ids, err := o.Ingest(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, 0, o.DocumentCount())
}

func TestIngestEmbeddingFailureLeavesStoreUntouched(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("gateway down")}
	o := newTestOrchestrator(t, emb, nil, Options{})

	_, err := o.Ingest(context.Background(), []DocumentInput{{Content: "anything"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed")
	assert.Equal(t, 0, o.DocumentCount())
}

func TestIngestSetsContentHash(t *testing.T) {
	o := newTestOrchestrator(t, defaultEmbedder(), nil, Options{})

	ids, err := o.Ingest(context.Background(), []DocumentInput{{Title: "A", Content: "alpha content"}})
	require.NoError(t, err)

	doc, ok := o.Document(ids[0])
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(doc.Hash, "xxh64:"))
}

func TestIngestArchivesRawDocuments(t *testing.T) {
	archive := t.TempDir()
	o := newTestOrchestrator(t, defaultEmbedder(), nil, Options{ArchiveDir: archive})

	ids, err := o.Ingest(context.Background(), []DocumentInput{
		{Title: "Alpha", Content: "alpha content"},
		{Title: "Beta", Content: "beta content"},
	})
	require.NoError(t, err)

	for _, id := range ids {
		data, err := os.ReadFile(filepath.Join(archive, id+".json"))
		require.NoError(t, err)
		assert.Contains(t, string(data), id)
	}
}

func TestAnswerQueryEmptyQuery(t *testing.T) {
	o := newTestOrchestrator(t, defaultEmbedder(), nil, Options{})

	_, err := o.AnswerQuery(context.Background(), "   ", 2, false)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestAnswerQueryDefaultTopK(t *testing.T) {
	o := newTestOrchestrator(t, defaultEmbedder(), &fakeLLM{response: "ok"}, Options{DefaultTopK: 1})

	_, err := o.Ingest(context.Background(), []DocumentInput{
		{Content: "alpha content"},
		{Content: "beta content"},
	})
	require.NoError(t, err)

	resp, err := o.AnswerQuery(context.Background(), "alpha content", 0, false)
	require.NoError(t, err)
	assert.Len(t, resp.RetrievedDocuments, 1)
}

func TestAnswerQueryEmptyStore(t *testing.T) {
	o := newTestOrchestrator(t, defaultEmbedder(), &fakeLLM{response: "no context available"}, Options{})

	resp, err := o.AnswerQuery(context.Background(), "anything", 5, false)
	require.NoError(t, err)
	assert.Empty(t, resp.RetrievedDocuments)
	assert.Equal(t, "no context available", resp.Answer)
}

func TestAnswerQueryGenerationFailureDegrades(t *testing.T) {
	o := newTestOrchestrator(t, defaultEmbedder(), &fakeLLM{err: errors.New("model unavailable")}, Options{})

	_, err := o.Ingest(context.Background(), []DocumentInput{{Content: "alpha content"}})
	require.NoError(t, err)

	resp, err := o.AnswerQuery(context.Background(), "alpha content", 1, false)
	require.NoError(t, err)

	// Retrieval still succeeds; the answer carries the error text
	assert.Len(t, resp.RetrievedDocuments, 1)
	assert.Contains(t, resp.Answer, "Error generating answer:")
}

func TestAnswerQueryNoGenerator(t *testing.T) {
	o := newTestOrchestrator(t, defaultEmbedder(), nil, Options{})

	_, err := o.Ingest(context.Background(), []DocumentInput{{Content: "alpha content"}})
	require.NoError(t, err)

	resp, err := o.AnswerQuery(context.Background(), "alpha content", 1, false)
	require.NoError(t, err)
	assert.Len(t, resp.RetrievedDocuments, 1)
	assert.Contains(t, resp.Answer, "not configured")
}
