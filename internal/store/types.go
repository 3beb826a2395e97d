// Package store provides the vector store: an exact-search vector index
// paired with an insertion-ordered document store, persisted to disk.
package store

// Document is a stored document. The embedding itself is not kept on the
// record; it lives in the vector index at the ordinal position matching the
// document's slot in the insertion order.
type Document struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Hash     string   `json:"hash,omitempty"` // content hash (xxh64:...)
	Metadata Metadata `json:"metadata,omitempty"`
}

// SearchResult is a single nearest-neighbor hit.
type SearchResult struct {
	Document Document `json:"document"`
	Distance float64  `json:"distance"` // squared L2; lower is more similar
}
