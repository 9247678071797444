package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Foundup/Foundups-Agent-sub010/internal/config"
	"github.com/Foundup/Foundups-Agent-sub010/internal/embedder"
	"github.com/Foundup/Foundups-Agent-sub010/internal/engine"
	"github.com/Foundup/Foundups-Agent-sub010/internal/indexer"
	"github.com/Foundup/Foundups-Agent-sub010/internal/retriever"
	"github.com/Foundup/Foundups-Agent-sub010/internal/router"
	"github.com/Foundup/Foundups-Agent-sub010/internal/routines"
	"github.com/Foundup/Foundups-Agent-sub010/internal/scorer"
	"github.com/Foundup/Foundups-Agent-sub010/internal/vecstore"
	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

var testVec = []float32{1, 0, 0}

// fixedEmbedder returns the same vector for every text so seeded points are
// exact matches.
type fixedEmbedder struct{}

func (fixedEmbedder) GenerateEmbedding(context.Context, embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	return &embedder.Embedding{Vector: testVec, Dimension: len(testVec), Provider: "fixed", Model: "fixed"}, nil
}

func (f fixedEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	out := &embedder.BatchEmbeddingResponse{Provider: "fixed", Model: "fixed"}
	for range req.Texts {
		emb, _ := f.GenerateEmbedding(ctx, embedder.EmbeddingRequest{})
		out.Embeddings = append(out.Embeddings, emb)
	}
	return out, nil
}

func (fixedEmbedder) Dimension() int   { return len(testVec) }
func (fixedEmbedder) Provider() string { return "fixed" }
func (fixedEmbedder) Model() string    { return "fixed" }
func (fixedEmbedder) Close() error     { return nil }

func newTestServer(t *testing.T, store vecstore.Store) *Server {
	t.Helper()

	emb := fixedEmbedder{}
	sc := scorer.New(0.35, map[string]float64{
		"protocol_doc": 0.9, "skill": 0.8, "code": 0.7, "test": 0.5,
	})
	registry := routines.NewRegistry(routines.Options{OversizedLines: 800})

	eng := engine.New(engine.Options{
		Retriever: retriever.New(store, emb, sc, nil),
		Router:    router.New(registry, nil, nil),
		Store:     store,
		Embedder:  emb,
		CacheSize: 8,
		CacheTTL:  time.Minute,
	})
	require.NoError(t, eng.Bootstrap())

	idx := indexer.New(store, emb, config.CorpusConfig{
		ChunkLines: 40,
		Workers:    2,
		LockPath:   filepath.Join(t.TempDir(), "index.lock"),
	}, nil)

	srv, err := NewServer(Options{Engine: eng, Indexer: idx})
	require.NoError(t, err)
	return srv
}

func seedCode(t *testing.T, store vecstore.Store, path, content string) {
	t.Helper()
	err := store.ReplaceDocument(context.Background(), vecstore.Document{
		Collection: types.DocTypeCode,
		SourcePath: path,
	}, []vecstore.Point{{
		Key:       fmt.Sprintf("%s:1-40", path),
		Content:   content,
		StartLine: 1,
		EndLine:   40,
		Vector:    testVec,
	}})
	require.NoError(t, err)
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, r)
	require.NotEmpty(t, r.Content)
	tc, ok := r.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestNewServerRequiresEngine(t *testing.T) {
	_, err := NewServer(Options{})
	require.Error(t, err)
}

func TestHandleSearchReturnsBundle(t *testing.T) {
	store := vecstore.NewMemoryStore(3)
	seedCode(t, store, "internal/retry/retry.go", "retry handler with exponential backoff")
	srv := newTestServer(t, store)

	res, err := srv.handleSearch(context.Background(), makeReq(map[string]interface{}{
		"query": "retry handler with backoff",
		"limit": float64(5),
	}))
	require.NoError(t, err)

	var bundle types.ResultBundle
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &bundle))

	assert.Equal(t, types.SchemaVersion, bundle.SchemaVersion)
	assert.True(t, bundle.OK)
	assert.NotEmpty(t, bundle.HitsByType[types.DocTypeCode])
	// Legacy alias carries the same hits.
	assert.Equal(t, bundle.HitsByType[types.DocTypeCode], bundle.CodeHits)
}

func TestHandleSearchZeroHitsIsNotAnError(t *testing.T) {
	srv := newTestServer(t, vecstore.NewMemoryStore(3))

	res, err := srv.handleSearch(context.Background(), makeReq(map[string]interface{}{
		"query": "completely unindexed functionality",
	}))
	require.NoError(t, err)

	var bundle types.ResultBundle
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &bundle))

	assert.True(t, bundle.OK)
	assert.Zero(t, bundle.TotalHits())
	assert.Equal(t, types.StateResultMissing, bundle.Metadata.State)
}

func TestHandleSearchRejectsEmptyQuery(t *testing.T) {
	srv := newTestServer(t, vecstore.NewMemoryStore(3))

	_, err := srv.handleSearch(context.Background(), makeReq(map[string]interface{}{
		"query": "",
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrorCodeEmptyQuery, mcpErr.Code)
}

func TestHandleSearchRejectsBadDocType(t *testing.T) {
	srv := newTestServer(t, vecstore.NewMemoryStore(3))

	_, err := srv.handleSearch(context.Background(), makeReq(map[string]interface{}{
		"query":     "anything",
		"doc_types": []interface{}{"binary"},
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleSearchRejectsOversizedLimit(t *testing.T) {
	srv := newTestServer(t, vecstore.NewMemoryStore(3))

	_, err := srv.handleSearch(context.Background(), makeReq(map[string]interface{}{
		"query": "anything",
		"limit": float64(types.MaxLimit + 1),
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleIndexCorpus(t *testing.T) {
	corpus := t.TempDir()
	writeFile(t, corpus, "pkg/auth/login.go", "package auth\n\nfunc Login() {}\n")
	writeFile(t, corpus, "docs/protocol_12.md", "# Protocol 12\n\nAll writes require review.\n")

	store := vecstore.NewMemoryStore(3)
	srv := newTestServer(t, store)

	res, err := srv.handleIndexCorpus(context.Background(), makeReq(map[string]interface{}{
		"roots": []interface{}{corpus},
	}))
	require.NoError(t, err)

	var response struct {
		Indexed        bool `json:"indexed"`
		FilesIndexed   int  `json:"files_indexed"`
		PointsUpserted int  `json:"points_upserted"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &response))

	assert.True(t, response.Indexed)
	assert.Equal(t, 2, response.FilesIndexed)
	assert.GreaterOrEqual(t, response.PointsUpserted, 2)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats[types.DocTypeCode])
	assert.Equal(t, 1, stats[types.DocTypeProtocolDoc])
}

func TestHandleIndexCorpusWithoutRoots(t *testing.T) {
	srv := newTestServer(t, vecstore.NewMemoryStore(3))

	_, err := srv.handleIndexCorpus(context.Background(), makeReq(map[string]interface{}{}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleGetStatus(t *testing.T) {
	store := vecstore.NewMemoryStore(3)
	seedCode(t, store, "internal/a/a.go", "package a")
	srv := newTestServer(t, store)

	res, err := srv.handleGetStatus(context.Background(), makeReq(map[string]interface{}{}))
	require.NoError(t, err)

	var response struct {
		Server      string `json:"server"`
		State       string `json:"state"`
		Ready       bool   `json:"ready"`
		Collections struct {
			Counts    map[string]int  `json:"counts"`
			Available map[string]bool `json:"available"`
		} `json:"collections"`
		Build struct {
			Mode string `json:"mode"`
		} `json:"build"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &response))

	assert.Equal(t, ServerName, response.Server)
	assert.Equal(t, string(types.StateIndexReady), response.State)
	assert.True(t, response.Ready)
	assert.Equal(t, 1, response.Collections.Counts["code"])
	assert.True(t, response.Collections.Available["code"])
	assert.NotEmpty(t, response.Build.Mode)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
