package vector

import "errors"

// ClassName is the Weaviate class holding all document chunks.
const ClassName = "DocumentChunk"

var (
	// ErrIndexUnavailable is returned when the backing store cannot be
	// reached or rejects an operation.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch is returned when a vector's length does not match
	// the dimension the index was initialized with.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Record is one stored chunk: the embedding plus the payload needed to build
// answers and citations. Records are written once during ingestion and never
// updated.
type Record struct {
	Text     string
	Source   string
	Position int
	Vector   []float32
}
