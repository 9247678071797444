package vecstore

import (
	"context"
	"sort"
	"sync"

	"github.com/Foundup/Foundups-Agent-sub010/internal/scorer"
	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

// MemoryStore is a brute-force in-memory store for tests and throwaway runs.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	docs      map[types.DocType]map[string]memoryDoc
}

type memoryDoc struct {
	hash   [32]byte
	points []Point
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		dimension: dimension,
		docs:      make(map[types.DocType]map[string]memoryDoc),
	}
}

func (s *MemoryStore) ReplaceDocument(_ context.Context, doc Document, points []Point) error {
	for _, p := range points {
		if len(p.Vector) != s.dimension {
			return ErrDimensionMismatch
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[doc.Collection] == nil {
		s.docs[doc.Collection] = make(map[string]memoryDoc)
	}
	s.docs[doc.Collection][doc.SourcePath] = memoryDoc{hash: doc.ContentHash, points: points}
	return nil
}

func (s *MemoryStore) DocumentHash(_ context.Context, collection types.DocType, sourcePath string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[collection][sourcePath]
	if !ok {
		return nil, ErrNotFound
	}
	hash := make([]byte, len(doc.hash))
	copy(hash, doc.hash[:])
	return hash, nil
}

func (s *MemoryStore) DeleteDocument(_ context.Context, collection types.DocType, sourcePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs[collection], sourcePath)
	return nil
}

func (s *MemoryStore) Nearest(_ context.Context, collection types.DocType, vector []float32, k int) ([]types.RawCandidate, error) {
	if k <= 0 {
		return []types.RawCandidate{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]types.RawCandidate, 0, 64)
	for sourcePath, doc := range s.docs[collection] {
		for _, p := range doc.points {
			if len(p.Vector) != len(vector) {
				continue
			}
			candidates = append(candidates, rawCandidate(collection, sourcePath, p, cosineDistance(vector, p.Vector)))
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func (s *MemoryStore) Lexical(_ context.Context, collection types.DocType, tokens []string, k int) ([]types.RawCandidate, error) {
	if len(tokens) == 0 || k <= 0 {
		return []types.RawCandidate{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]types.RawCandidate, 0, k)
	for sourcePath, doc := range s.docs[collection] {
		for _, p := range doc.points {
			if scorer.KeywordMatches(tokens, p.Content) == 0 {
				continue
			}
			candidates = append(candidates, rawCandidate(collection, sourcePath, p, 0))
			if len(candidates) == k {
				return candidates, nil
			}
		}
	}
	return candidates, nil
}

func (s *MemoryStore) Available(context.Context, types.DocType) bool {
	return true
}

func (s *MemoryStore) Stats(context.Context) (map[types.DocType]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[types.DocType]int, len(types.AllDocTypes()))
	for _, dt := range types.AllDocTypes() {
		count := 0
		for _, doc := range s.docs[dt] {
			count += len(doc.points)
		}
		stats[dt] = count
	}
	return stats, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func rawCandidate(collection types.DocType, sourcePath string, p Point, distance float64) types.RawCandidate {
	payload := map[string]any{
		"content":    p.Content,
		"start_line": p.StartLine,
		"end_line":   p.EndLine,
	}
	for k, v := range p.Metadata {
		payload[k] = v
	}
	return types.RawCandidate{
		Collection: collection,
		Identifier: p.Key,
		SourcePath: sourcePath,
		Distance:   distance,
		Payload:    payload,
	}
}
