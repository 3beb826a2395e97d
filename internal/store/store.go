package store

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Store pairs the vector index with the document store and keeps them in
// ordinal lockstep: position i in the index always resolves to the i-th
// inserted document id. All mutation goes through Add so the two structures
// can never be updated independently.
type Store struct {
	mu    sync.RWMutex
	path  string
	index *flatIndex
	docs  *docStore
}

// Open loads the store at path, or creates a fresh empty one of the given
// dimension. Missing or unreadable artifacts are not fatal: a vector store
// is a cache of embeddings, and losing it is recoverable by re-ingestion,
// so load failures fail open to an empty store with a warning.
func Open(path string, dimensions int) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}

	ix, ds, err := loadArtifacts(path, dimensions)
	switch {
	case err == nil:
		log.Info("Loaded vector store", "path", path, "documents", ds.size())
	case os.IsNotExist(err):
		log.Debug("No existing store artifacts, starting empty", "path", path)
		ix, ds = nil, nil
	default:
		log.Warn("Failed to load vector store, starting empty", "path", path, "error", err)
		ix, ds = nil, nil
	}

	if ix == nil {
		ix, err = newFlatIndex(dimensions)
		if err != nil {
			return nil, err
		}
		ds = newDocStore()
	}

	return &Store{path: path, index: ix, docs: ds}, nil
}

// Add inserts documents and their embeddings as one unit, in matching order,
// then persists both artifacts. A zero-length batch is a no-op with no
// persistence write. A save failure is reported as a warning only: the
// in-memory state stays authoritative and the next successful Add rewrites
// both artifacts in full.
func (s *Store) Add(docs []Document, embeddings [][]float32) error {
	if len(docs) == 0 {
		return nil
	}
	if len(docs) != len(embeddings) {
		return fmt.Errorf("document/embedding count mismatch: %d documents, %d embeddings", len(docs), len(embeddings))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.insert(embeddings); err != nil {
		return err
	}
	for _, doc := range docs {
		s.docs.put(doc)
	}

	if err := saveArtifacts(s.path, s.index, s.docs); err != nil {
		log.Warn("Failed to persist vector store", "path", s.path, "error", err)
	}
	return nil
}

// Search runs a k-nearest-neighbor query and hydrates each hit into a full
// document. Results are ordered by ascending distance. A hit whose document
// record is missing is skipped with a warning; an unresolvable ordinal means
// the pairing invariant is broken and is returned as an error.
func (s *Store) Search(query []float32, k int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits, err := s.index.search(query, k)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		id, err := s.docs.resolvePosition(h.ordinal)
		if err != nil {
			return nil, fmt.Errorf("vector store corrupted: %w", err)
		}
		doc, ok := s.docs.get(id)
		if !ok {
			log.Warn("Document missing for indexed vector", "id", id, "ordinal", h.ordinal)
			continue
		}
		results = append(results, SearchResult{Document: doc, Distance: h.distance})
	}
	return results, nil
}

// Get returns the document for id; a miss is a normal outcome.
func (s *Store) Get(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs.get(id)
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs.size()
}

// Dimensions returns the fixed embedding dimension of the store.
func (s *Store) Dimensions() int {
	return s.index.dimensions
}

// Path returns the store's on-disk location (artifact path prefix).
func (s *Store) Path() string {
	return s.path
}

// Save rewrites both artifacts from the current in-memory state.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return saveArtifacts(s.path, s.index, s.docs)
}
