// Package retrieval orchestrates the ingestion and query pipelines: it
// owns the embedding gateway, the vector store, and the answer generator,
// and sequences the calls between them.
package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ncarver/ragserve/internal/embeddings"
	"github.com/ncarver/ragserve/internal/llm"
	"github.com/ncarver/ragserve/internal/store"
)

// Client-input errors, distinguished from internal failures so transport
// layers can map them to invalid-request responses.
var (
	// ErrEmptyQuery is returned when a query is blank after trimming
	// whitespace.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrNoDocuments marks an ingestion request that names no documents.
	// The orchestrator itself treats an empty batch as a no-op; this is for
	// callers that require at least one document per request.
	ErrNoDocuments = errors.New("at least one document is required")
)

// DocumentInput is a document submitted for ingestion. ID is optional; a
// missing id gets a generated UUID.
type DocumentInput struct {
	ID       string         `json:"id,omitempty"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Metadata store.Metadata `json:"metadata,omitempty"`
}

// RetrievedDocument is one retrieval hit as returned to callers. Score is
// the squared L2 distance between the query and document embeddings; lower
// means more similar.
type RetrievedDocument struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata store.Metadata `json:"metadata,omitempty"`
}

// QueryResponse is the full result of a retrieval-augmented query.
type QueryResponse struct {
	Query              string              `json:"query"`
	Answer             string              `json:"answer"`
	RetrievedDocuments []RetrievedDocument `json:"retrieved_documents"`
	ProcessingTime     float64             `json:"processing_time"` // seconds
}

// Orchestrator wires the embedding service, vector store, and answer
// generator into the two top-level pipelines: Ingest and AnswerQuery.
type Orchestrator struct {
	store       *store.Store
	embedder    embeddings.Service
	generator   *llm.Generator
	defaultTopK int
	archiveDir  string
}

// Options configures an Orchestrator beyond its required collaborators.
type Options struct {
	// DefaultTopK is the number of documents retrieved when the caller does
	// not specify one.
	DefaultTopK int

	// ArchiveDir, when set, receives a raw JSON copy of every ingested
	// document.
	ArchiveDir string
}

// New creates an orchestrator. The generator may be nil, in which case
// queries return retrieved documents without a generated answer.
func New(s *store.Store, embedder embeddings.Service, generator *llm.Generator, opts Options) *Orchestrator {
	topK := opts.DefaultTopK
	if topK <= 0 {
		topK = 2
	}
	return &Orchestrator{
		store:       s,
		embedder:    embedder,
		generator:   generator,
		defaultTopK: topK,
		archiveDir:  opts.ArchiveDir,
	}
}

// Ingest embeds and stores a batch of documents, returning their ids in
// input order. The whole batch is embedded in one gateway call and added to
// the store as one unit, so a failure anywhere leaves the store untouched.
// An empty batch is a no-op.
func (o *Orchestrator) Ingest(ctx context.Context, inputs []DocumentInput) ([]string, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	docs := make([]store.Document, len(inputs))
	texts := make([]string, len(inputs))
	for i, in := range inputs {
		id := in.ID
		if id == "" {
			id = uuid.NewString()
		}
		docs[i] = store.Document{
			ID:       id,
			Title:    in.Title,
			Content:  in.Content,
			Hash:     contentHash(in.Content),
			Metadata: in.Metadata,
		}
		texts[i] = in.Content
	}

	vectors, err := o.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}

	if err := o.store.Add(docs, vectors); err != nil {
		return nil, fmt.Errorf("failed to store documents: %w", err)
	}

	o.archive(docs)

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	log.Info("Ingested documents", "count", len(ids), "total", o.store.Len())
	return ids, nil
}

// AnswerQuery runs the retrieval-augmented query pipeline: embed the query,
// retrieve the topK nearest documents, and generate an answer grounded in
// them. topK <= 0 selects the configured default. A generation failure does
// not fail the query; the response carries the retrieved documents along
// with an error message in the answer field.
func (o *Orchestrator) AnswerQuery(ctx context.Context, query string, topK int, elaborate bool) (*QueryResponse, error) {
	started := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = o.defaultTopK
	}

	vector, err := o.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := o.store.Search(vector, topK)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	retrieved := make([]RetrievedDocument, len(hits))
	contextDocs := make([]llm.ContextDocument, len(hits))
	for i, hit := range hits {
		retrieved[i] = RetrievedDocument{
			ID:       hit.Document.ID,
			Title:    hit.Document.Title,
			Content:  hit.Document.Content,
			Score:    hit.Distance,
			Metadata: hit.Document.Metadata,
		}
		contextDocs[i] = llm.ContextDocument{
			Title:   hit.Document.Title,
			Content: hit.Document.Content,
			Score:   hit.Distance,
		}
	}

	answer := o.generate(ctx, query, contextDocs, elaborate)

	return &QueryResponse{
		Query:              query,
		Answer:             answer,
		RetrievedDocuments: retrieved,
		ProcessingTime:     time.Since(started).Seconds(),
	}, nil
}

// Document returns a stored document by id.
func (o *Orchestrator) Document(id string) (store.Document, bool) {
	return o.store.Get(id)
}

// DocumentCount returns the number of stored documents.
func (o *Orchestrator) DocumentCount() int {
	return o.store.Len()
}

// generate produces the answer text, degrading to an error message when
// generation fails so the caller still gets the retrieved documents.
func (o *Orchestrator) generate(ctx context.Context, query string, docs []llm.ContextDocument, elaborate bool) string {
	if o.generator == nil {
		return "Answer generation is not configured. Retrieved documents are included below."
	}

	answer, err := o.generator.GenerateAnswer(ctx, query, docs, elaborate)
	if err != nil {
		log.Warn("Answer generation failed", "error", err)
		return fmt.Sprintf("Error generating answer: %v", err)
	}
	return answer
}

// archive writes a raw JSON copy of each document to the archive directory.
// Archiving is best-effort: a failure is logged and ingestion proceeds.
func (o *Orchestrator) archive(docs []store.Document) {
	if o.archiveDir == "" {
		return
	}
	if err := os.MkdirAll(o.archiveDir, 0o755); err != nil {
		log.Warn("Failed to create archive directory", "path", o.archiveDir, "error", err)
		return
	}

	for _, doc := range docs {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			log.Warn("Failed to marshal document for archive", "id", doc.ID, "error", err)
			continue
		}
		path := filepath.Join(o.archiveDir, doc.ID+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Warn("Failed to archive document", "id", doc.ID, "error", err)
		}
	}
}

// contentHash returns a stable content fingerprint.
func contentHash(content string) string {
	return fmt.Sprintf("xxh64:%x", xxhash.Sum64String(content))
}
