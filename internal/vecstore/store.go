package vecstore

import (
	"context"
	"errors"
	"time"

	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

var (
	// ErrNotFound is returned when a requested document doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrUnavailable is returned when a backend cannot serve a collection
	ErrUnavailable = errors.New("backend unavailable")
	// ErrDimensionMismatch is returned when a vector's length doesn't match the store
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Document identifies one indexed source file within a collection.
type Document struct {
	Collection  types.DocType
	SourcePath  string
	ContentHash [32]byte
	ModTime     time.Time
}

// Point is one embedded chunk of a document.
type Point struct {
	Key       string // stable identifier, source path plus line range
	Content   string
	StartLine int
	EndLine   int
	Vector    []float32
	Metadata  map[string]string
}

// Store serves nearest-neighbor and lexical candidate lookups per collection.
// Implementations are safe for concurrent use after initialization.
type Store interface {
	// ReplaceDocument atomically replaces a document and all of its points.
	ReplaceDocument(ctx context.Context, doc Document, points []Point) error

	// DocumentHash returns the stored content hash for a source path, or
	// ErrNotFound if the document has never been indexed.
	DocumentHash(ctx context.Context, collection types.DocType, sourcePath string) ([]byte, error)

	// DeleteDocument removes a document and its points. Missing documents
	// are not an error.
	DeleteDocument(ctx context.Context, collection types.DocType, sourcePath string) error

	// Nearest returns up to k candidates from one collection ordered by
	// ascending distance. An unreachable backend returns ErrUnavailable.
	Nearest(ctx context.Context, collection types.DocType, vector []float32, k int) ([]types.RawCandidate, error)

	// Lexical returns up to k candidates whose content matches any query
	// token, used for fallback scoring when Nearest cannot serve. Candidate
	// distances are zero and must not be interpreted.
	Lexical(ctx context.Context, collection types.DocType, tokens []string, k int) ([]types.RawCandidate, error)

	// Available reports whether a collection can currently serve lookups.
	Available(ctx context.Context, collection types.DocType) bool

	// Stats returns per-collection point counts.
	Stats(ctx context.Context) (map[types.DocType]int, error)

	// Close releases backend resources.
	Close() error
}
