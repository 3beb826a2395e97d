package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Persisted artifacts: <path>.vec holds the vector index (dimension, count,
// then count*dimension little-endian float32s in ordinal order) and
// <path>.docs.json holds the document records as a JSON array in insertion
// order. Array semantics on both sides keep the ordinal correspondence
// lossless across a round trip.
const (
	vectorArtifactExt   = ".vec"
	documentArtifactExt = ".docs.json"
)

func vectorArtifactPath(path string) string   { return path + vectorArtifactExt }
func documentArtifactPath(path string) string { return path + documentArtifactExt }

// saveArtifacts rewrites both artifacts in full. Full rewrite trades write
// amplification for crash safety: there is no partial-append state to
// corrupt.
func saveArtifacts(path string, ix *flatIndex, ds *docStore) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := writeVectorArtifact(vectorArtifactPath(path), ix); err != nil {
		return err
	}
	return writeDocumentArtifact(documentArtifactPath(path), ds)
}

// loadArtifacts reads both artifacts back. It returns os-level errors
// unwrapped so the caller can distinguish a missing artifact (fresh store)
// from a corrupt one (also a fresh store, but worth a louder warning).
func loadArtifacts(path string, dimensions int) (*flatIndex, *docStore, error) {
	ix, err := readVectorArtifact(vectorArtifactPath(path), dimensions)
	if err != nil {
		return nil, nil, err
	}
	ds, err := readDocumentArtifact(documentArtifactPath(path))
	if err != nil {
		return nil, nil, err
	}
	if ix.size() != ds.size() {
		return nil, nil, fmt.Errorf("artifact mismatch: %d vectors, %d documents", ix.size(), ds.size())
	}
	return ix, ds, nil
}

func writeVectorArtifact(path string, ix *flatIndex) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create vector artifact: %w", err)
	}
	defer f.Close()

	if err := binary.Write(f, binary.LittleEndian, uint32(ix.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(ix.size())); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for _, vec := range ix.vectors {
		if _, err := f.Write(float32SliceToBytes(vec)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

func readVectorArtifact(path string, dimensions int) (*flatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != dimensions {
		return nil, fmt.Errorf("dimension mismatch: artifact has %d, store expects %d", dim, dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}

	ix, err := newFlatIndex(dimensions)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, dimensions*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, fmt.Errorf("read vector %d: %w", i, err)
		}
		ix.vectors = append(ix.vectors, bytesToFloat32Slice(buf))
	}
	return ix, nil
}

func writeDocumentArtifact(path string, ds *docStore) error {
	docs := make([]Document, 0, ds.size())
	for _, id := range ds.order {
		docs = append(docs, ds.byID[id])
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write document artifact: %w", err)
	}
	return nil
}

func readDocumentArtifact(path string) (*docStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("unmarshal documents: %w", err)
	}
	ds := newDocStore()
	for _, doc := range docs {
		ds.put(doc)
	}
	return ds, nil
}

func float32SliceToBytes(s []float32) []byte {
	out := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*4:(i+1)*4], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : (i+1)*4]))
	}
	return out
}
