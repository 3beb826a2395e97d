package store

import "fmt"

// docStore holds document records keyed by id, plus the explicit
// insertion-ordered id sequence used to resolve vector index ordinals back
// to documents. The sequence is the source of truth for ordering; map
// iteration order is never relied on.
type docStore struct {
	byID  map[string]Document
	order []string
}

func newDocStore() *docStore {
	return &docStore{
		byID:  make(map[string]Document),
		order: make([]string, 0),
	}
}

// put inserts or overwrites the record for doc.ID. The id joins the ordinal
// sequence only on first insert; overwriting never reorders.
func (ds *docStore) put(doc Document) {
	if _, exists := ds.byID[doc.ID]; !exists {
		ds.order = append(ds.order, doc.ID)
	}
	ds.byID[doc.ID] = doc
}

// get returns the record for id. A miss is a normal outcome.
func (ds *docStore) get(id string) (Document, bool) {
	doc, ok := ds.byID[id]
	return doc, ok
}

// resolvePosition returns the id inserted at the given ordinal. An
// out-of-range ordinal means the index and the document store have diverged,
// which callers must treat as an internal error.
func (ds *docStore) resolvePosition(ordinal int) (string, error) {
	if ordinal < 0 || ordinal >= len(ds.order) {
		return "", fmt.Errorf("ordinal %d out of range [0,%d)", ordinal, len(ds.order))
	}
	return ds.order[ordinal], nil
}

// size returns the number of stored documents.
func (ds *docStore) size() int {
	return len(ds.order)
}
