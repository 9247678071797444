package vecstore

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

func seedMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(3)
	ctx := context.Background()

	doc := Document{
		Collection:  types.DocTypeCode,
		SourcePath:  "internal/retry/backoff.go",
		ContentHash: [32]byte{1},
	}
	points := []Point{
		{Key: "internal/retry/backoff.go:1", Content: "retry handler with exponential backoff", StartLine: 1, EndLine: 40, Vector: []float32{1, 0, 0}},
		{Key: "internal/retry/backoff.go:41", Content: "jitter helpers for retry delays", StartLine: 41, EndLine: 80, Vector: []float32{0.8, 0.6, 0}},
	}
	if err := s.ReplaceDocument(ctx, doc, points); err != nil {
		t.Fatalf("ReplaceDocument failed: %v", err)
	}

	other := Document{
		Collection:  types.DocTypeCode,
		SourcePath:  "internal/auth/session.go",
		ContentHash: [32]byte{2},
	}
	otherPoints := []Point{
		{Key: "internal/auth/session.go:1", Content: "session token validation", StartLine: 1, EndLine: 30, Vector: []float32{0, 1, 0}},
	}
	if err := s.ReplaceDocument(ctx, other, otherPoints); err != nil {
		t.Fatalf("ReplaceDocument failed: %v", err)
	}
	return s
}

func TestMemoryNearestOrdering(t *testing.T) {
	s := seedMemoryStore(t)
	ctx := context.Background()

	candidates, err := s.Nearest(ctx, types.DocTypeCode, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Nearest failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}

	if candidates[0].Identifier != "internal/retry/backoff.go:1" {
		t.Errorf("closest candidate = %s, want the exact-match point", candidates[0].Identifier)
	}
	if math.Abs(candidates[0].Distance) > 1e-6 {
		t.Errorf("exact match distance = %v, want 0", candidates[0].Distance)
	}
	// Second point has cosine similarity 0.8 against the query, distance 0.2.
	if math.Abs(candidates[1].Distance-0.2) > 1e-6 {
		t.Errorf("second distance = %v, want 0.2", candidates[1].Distance)
	}
}

func TestMemoryNearestCapsAtK(t *testing.T) {
	s := seedMemoryStore(t)
	candidates, err := s.Nearest(context.Background(), types.DocTypeCode, []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("Nearest failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Errorf("got %d candidates, want 1", len(candidates))
	}
}

func TestMemoryNearestEmptyCollection(t *testing.T) {
	s := seedMemoryStore(t)
	candidates, err := s.Nearest(context.Background(), types.DocTypeSkill, []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Nearest on empty collection must not error: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("got %d candidates, want 0", len(candidates))
	}
}

func TestMemoryLexical(t *testing.T) {
	s := seedMemoryStore(t)
	candidates, err := s.Lexical(context.Background(), types.DocTypeCode, []string{"backoff"}, 10)
	if err != nil {
		t.Fatalf("Lexical failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].SourcePath != "internal/retry/backoff.go" {
		t.Errorf("SourcePath = %s", candidates[0].SourcePath)
	}
}

func TestMemoryDocumentHash(t *testing.T) {
	s := seedMemoryStore(t)
	ctx := context.Background()

	hash, err := s.DocumentHash(ctx, types.DocTypeCode, "internal/retry/backoff.go")
	if err != nil {
		t.Fatalf("DocumentHash failed: %v", err)
	}
	if hash[0] != 1 {
		t.Errorf("hash[0] = %d, want 1", hash[0])
	}

	_, err = s.DocumentHash(ctx, types.DocTypeCode, "no/such/file.go")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryReplaceDocumentDropsOldPoints(t *testing.T) {
	s := seedMemoryStore(t)
	ctx := context.Background()

	doc := Document{
		Collection:  types.DocTypeCode,
		SourcePath:  "internal/retry/backoff.go",
		ContentHash: [32]byte{9},
	}
	replacement := []Point{
		{Key: "internal/retry/backoff.go:1", Content: "rewritten", StartLine: 1, EndLine: 10, Vector: []float32{0, 0, 1}},
	}
	if err := s.ReplaceDocument(ctx, doc, replacement); err != nil {
		t.Fatalf("ReplaceDocument failed: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	// One replacement point plus the untouched auth document point.
	if stats[types.DocTypeCode] != 2 {
		t.Errorf("code points = %d, want 2", stats[types.DocTypeCode])
	}
}

func TestMemoryDimensionMismatch(t *testing.T) {
	s := NewMemoryStore(3)
	err := s.ReplaceDocument(context.Background(), Document{Collection: types.DocTypeCode, SourcePath: "a.go"}, []Point{
		{Key: "a.go:1", Vector: []float32{1, 0}},
	})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestMemoryStatsIncludesZeroCollections(t *testing.T) {
	s := NewMemoryStore(3)
	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	for _, dt := range types.AllDocTypes() {
		if count, ok := stats[dt]; !ok || count != 0 {
			t.Errorf("stats[%s] = %d (present %v), want 0", dt, count, ok)
		}
	}
}
