package vecstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

// fakeQdrant records requests and serves canned responses.
type fakeQdrant struct {
	mu       sync.Mutex
	requests []recordedRequest
	search   []map[string]any
	scroll   []map[string]any
}

type recordedRequest struct {
	method string
	path   string
	apiKey string
	body   map[string]any
}

func (f *fakeQdrant) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			apiKey: r.Header.Get("api-key"),
			body:   body,
		})
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/collections/holoindex_code/points/search":
			_ = json.NewEncoder(w).Encode(map[string]any{"result": f.search})
		case r.URL.Path == "/collections/holoindex_code/points/scroll":
			_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"points": f.scroll}})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"points_count": 7}})
		}
	})
}

func (f *fakeQdrant) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.method + " " + r.path
	}
	return out
}

func newTestQdrant(t *testing.T, fake *fakeQdrant) *QdrantStore {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	store, err := NewQdrantStore(context.Background(), QdrantConfig{
		URL:              srv.URL,
		APIKey:           "secret",
		CollectionPrefix: "holoindex_",
		Dimension:        3,
		Timeout:          2 * time.Second,
	})
	require.NoError(t, err)
	return store
}

func TestQdrantCreatesCollectionsOnStartup(t *testing.T) {
	fake := &fakeQdrant{}
	newTestQdrant(t, fake)

	paths := fake.paths()
	require.Len(t, paths, 4)
	assert.Contains(t, paths, "PUT /collections/holoindex_code")
	assert.Contains(t, paths, "PUT /collections/holoindex_protocol_doc")
	assert.Contains(t, paths, "PUT /collections/holoindex_test")
	assert.Contains(t, paths, "PUT /collections/holoindex_skill")

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "secret", fake.requests[0].apiKey)
}

func TestQdrantNearestConvertsScoreToDistance(t *testing.T) {
	fake := &fakeQdrant{
		search: []map[string]any{
			{"score": 0.8, "payload": map[string]any{"point_key": "a.go:1", "source_path": "a.go", "content": "hit"}},
		},
	}
	store := newTestQdrant(t, fake)

	candidates, err := store.Nearest(context.Background(), types.DocTypeCode, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	assert.Equal(t, "a.go:1", candidates[0].Identifier)
	assert.Equal(t, "a.go", candidates[0].SourcePath)
	assert.InDelta(t, 0.2, candidates[0].Distance, 1e-9)
}

func TestQdrantNearestUnreachable(t *testing.T) {
	store := &QdrantStore{
		url:       "http://127.0.0.1:1", // nothing listens here
		prefix:    "holoindex_",
		dimension: 3,
		client:    &http.Client{Timeout: 200 * time.Millisecond},
	}

	_, err := store.Nearest(context.Background(), types.DocTypeCode, []float32{1, 0, 0}, 5)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestQdrantDocumentHash(t *testing.T) {
	fake := &fakeQdrant{
		scroll: []map[string]any{
			{"payload": map[string]any{"content_hash": "abcd", "source_path": "a.go"}},
		},
	}
	store := newTestQdrant(t, fake)

	hash, err := store.DocumentHash(context.Background(), types.DocTypeCode, "a.go")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xab, 0xcd}, hash)
}

func TestQdrantDocumentHashNotFound(t *testing.T) {
	fake := &fakeQdrant{}
	store := newTestQdrant(t, fake)

	_, err := store.DocumentHash(context.Background(), types.DocTypeCode, "missing.go")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQdrantReplaceDocumentDeletesThenUpserts(t *testing.T) {
	fake := &fakeQdrant{}
	store := newTestQdrant(t, fake)

	doc := Document{Collection: types.DocTypeCode, SourcePath: "a.go", ContentHash: [32]byte{1}}
	err := store.ReplaceDocument(context.Background(), doc, []Point{
		{Key: "a.go:1", Content: "chunk", StartLine: 1, EndLine: 10, Vector: []float32{1, 0, 0}},
	})
	require.NoError(t, err)

	paths := fake.paths()
	// 4 startup PUTs, then delete, then upsert.
	require.Len(t, paths, 6)
	assert.Equal(t, "POST /collections/holoindex_code/points/delete", paths[4])
	assert.Equal(t, "PUT /collections/holoindex_code/points", paths[5])

	fake.mu.Lock()
	defer fake.mu.Unlock()
	points := fake.requests[5].body["points"].([]any)
	point := points[0].(map[string]any)
	// Point IDs must be UUID-shaped for Qdrant to accept them.
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`), point["id"])

	payload := point["payload"].(map[string]any)
	assert.Equal(t, "a.go", payload["source_path"])
	assert.NotEmpty(t, payload["content_hash"])
}

func TestQdrantLexicalFiltersClientSide(t *testing.T) {
	fake := &fakeQdrant{
		scroll: []map[string]any{
			{"payload": map[string]any{"point_key": "a.go:1", "source_path": "a.go", "content": "retry with backoff"}},
			{"payload": map[string]any{"point_key": "b.go:1", "source_path": "b.go", "content": "unrelated"}},
		},
	}
	store := newTestQdrant(t, fake)

	candidates, err := store.Lexical(context.Background(), types.DocTypeCode, []string{"backoff"}, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "a.go:1", candidates[0].Identifier)
}

func TestQdrantStats(t *testing.T) {
	fake := &fakeQdrant{}
	store := newTestQdrant(t, fake)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	for _, dt := range types.AllDocTypes() {
		assert.Equal(t, 7, stats[dt])
	}
}

func TestPointUUIDDeterministic(t *testing.T) {
	a := pointUUID("a.go:1")
	b := pointUUID("a.go:1")
	c := pointUUID("a.go:2")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
