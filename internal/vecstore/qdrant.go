package vecstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Foundup/Foundups-Agent-sub010/internal/scorer"
	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

// lexicalScrollLimit bounds how many points the fallback path scans per call.
const lexicalScrollLimit = 256

// QdrantStore is a minimal REST client to Qdrant. Each doc type maps to its
// own Qdrant collection named prefix plus doc type. It assumes cosine
// distance and creates missing collections at startup.
type QdrantStore struct {
	url       string
	apiKey    string
	prefix    string
	dimension int
	client    *http.Client
}

// QdrantConfig holds connection settings for a Qdrant server.
type QdrantConfig struct {
	URL              string
	APIKey           string
	CollectionPrefix string
	Dimension        int
	Timeout          time.Duration
}

// NewQdrantStore connects to Qdrant and ensures one collection per doc type.
func NewQdrantStore(ctx context.Context, cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", cfg.Dimension)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	s := &QdrantStore{
		url:       cfg.URL,
		apiKey:    cfg.APIKey,
		prefix:    cfg.CollectionPrefix,
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: timeout},
	}

	for _, dt := range types.AllDocTypes() {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     cfg.Dimension,
				"distance": "Cosine",
			},
		}
		// Qdrant returns 200 if the collection already exists with the same schema
		if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection(dt)), body); err != nil {
			return nil, fmt.Errorf("failed to create collection %s: %w", s.collection(dt), err)
		}
	}
	return s, nil
}

func (s *QdrantStore) collection(dt types.DocType) string {
	return s.prefix + string(dt)
}

// ReplaceDocument deletes any points for the source path, then upserts the
// new ones. Each point payload carries the document content hash so reindex
// runs can skip unchanged files.
func (s *QdrantStore) ReplaceDocument(ctx context.Context, doc Document, points []Point) error {
	if err := s.DeleteDocument(ctx, doc.Collection, doc.SourcePath); err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}

	hash := hex.EncodeToString(doc.ContentHash[:])
	qpoints := make([]map[string]any, len(points))
	for i, p := range points {
		if len(p.Vector) != s.dimension {
			return ErrDimensionMismatch
		}
		payload := map[string]any{
			"point_key":    p.Key,
			"source_path":  doc.SourcePath,
			"content":      p.Content,
			"start_line":   p.StartLine,
			"end_line":     p.EndLine,
			"content_hash": hash,
		}
		for k, v := range p.Metadata {
			payload[k] = v
		}
		qpoints[i] = map[string]any{
			"id":      pointUUID(p.Key),
			"vector":  p.Vector,
			"payload": payload,
		}
	}

	body := map[string]any{"points": qpoints}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection(doc.Collection))
	return s.putJSON(ctx, url, body)
}

// DocumentHash reads the content hash off any point for the source path.
func (s *QdrantStore) DocumentHash(ctx context.Context, collection types.DocType, sourcePath string) ([]byte, error) {
	req := map[string]any{
		"filter":       sourcePathFilter(sourcePath),
		"limit":        1,
		"with_payload": true,
	}
	var resp struct {
		Result struct {
			Points []struct {
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/scroll", s.url, s.collection(collection))
	if err := s.postJSON(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Result.Points) == 0 {
		return nil, ErrNotFound
	}
	encoded, _ := resp.Result.Points[0].Payload["content_hash"].(string)
	if encoded == "" {
		return nil, ErrNotFound
	}
	return hex.DecodeString(encoded)
}

// DeleteDocument removes every point whose payload names the source path.
func (s *QdrantStore) DeleteDocument(ctx context.Context, collection types.DocType, sourcePath string) error {
	body := map[string]any{"filter": sourcePathFilter(sourcePath)}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection(collection))
	return s.postJSON(ctx, url, body, nil)
}

// Nearest queries one collection for the k closest points.
func (s *QdrantStore) Nearest(ctx context.Context, collection types.DocType, vector []float32, k int) ([]types.RawCandidate, error) {
	if k <= 0 {
		return []types.RawCandidate{}, nil
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection(collection))
	if err := s.postJSON(ctx, url, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	candidates := make([]types.RawCandidate, 0, len(resp.Result))
	for _, r := range resp.Result {
		// Qdrant reports cosine similarity; candidates carry distance
		candidates = append(candidates, candidateFromPayload(collection, r.Payload, 1-r.Score))
	}
	return candidates, nil
}

// Lexical scrolls a bounded window of points and keeps those whose content
// contains any query token. Qdrant has no server-side text scoring for
// unindexed payload fields, so this fallback filters client-side.
func (s *QdrantStore) Lexical(ctx context.Context, collection types.DocType, tokens []string, k int) ([]types.RawCandidate, error) {
	if len(tokens) == 0 || k <= 0 {
		return []types.RawCandidate{}, nil
	}
	req := map[string]any{
		"limit":        lexicalScrollLimit,
		"with_payload": true,
	}
	var resp struct {
		Result struct {
			Points []struct {
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/scroll", s.url, s.collection(collection))
	if err := s.postJSON(ctx, url, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	candidates := make([]types.RawCandidate, 0, k)
	for _, p := range resp.Result.Points {
		content, _ := p.Payload["content"].(string)
		if scorer.KeywordMatches(tokens, content) == 0 {
			continue
		}
		candidates = append(candidates, candidateFromPayload(collection, p.Payload, 0))
		if len(candidates) == k {
			break
		}
	}
	return candidates, nil
}

// Available reports whether the collection answers a metadata request.
func (s *QdrantStore) Available(ctx context.Context, collection types.DocType) bool {
	url := fmt.Sprintf("%s/collections/%s", s.url, s.collection(collection))
	return s.getJSON(ctx, url, nil) == nil
}

// Stats reads per-collection point counts from collection metadata.
func (s *QdrantStore) Stats(ctx context.Context) (map[types.DocType]int, error) {
	stats := make(map[types.DocType]int, len(types.AllDocTypes()))
	for _, dt := range types.AllDocTypes() {
		var resp struct {
			Result struct {
				PointsCount int `json:"points_count"`
			} `json:"result"`
		}
		url := fmt.Sprintf("%s/collections/%s", s.url, s.collection(dt))
		if err := s.getJSON(ctx, url, &resp); err != nil {
			return nil, err
		}
		stats[dt] = resp.Result.PointsCount
	}
	return stats, nil
}

// Close is a no-op; the HTTP client holds no persistent connections worth draining.
func (s *QdrantStore) Close() error {
	return nil
}

func sourcePathFilter(sourcePath string) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{"key": "source_path", "match": map[string]any{"value": sourcePath}},
		},
	}
}

func candidateFromPayload(collection types.DocType, payload map[string]any, distance float64) types.RawCandidate {
	key, _ := payload["point_key"].(string)
	sourcePath, _ := payload["source_path"].(string)
	return types.RawCandidate{
		Collection: collection,
		Identifier: key,
		SourcePath: sourcePath,
		Distance:   distance,
		Payload:    payload,
	}
}

// pointUUID derives a deterministic UUID from a point key. Qdrant only
// accepts integer or UUID point IDs.
func pointUUID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x-%x-%x-%x-%x", sum[0:4], sum[4:6], sum[6:8], sum[8:10], sum[10:16])
}

func (s *QdrantStore) putJSON(ctx context.Context, url string, body any) error {
	return s.send(ctx, http.MethodPut, url, body, nil)
}

func (s *QdrantStore) postJSON(ctx context.Context, url string, body any, out any) error {
	return s.send(ctx, http.MethodPost, url, body, out)
}

func (s *QdrantStore) getJSON(ctx context.Context, url string, out any) error {
	return s.send(ctx, http.MethodGet, url, nil, out)
}

func (s *QdrantStore) send(ctx context.Context, method, url string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
