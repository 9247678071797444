package vecstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

// searchNearest performs vector similarity search over one collection
func searchNearest(ctx context.Context, db *sql.DB, collection types.DocType, vector []float32, k int) ([]types.RawCandidate, error) {
	if k <= 0 {
		return []types.RawCandidate{}, nil
	}
	// Use optimized SQL-based search when sqlite-vec is available
	if VectorExtensionAvailable {
		return searchNearestOptimized(ctx, db, collection, vector, k)
	}
	// Fall back to Go-based computation for purego builds
	return searchNearestFallback(ctx, db, collection, vector, k)
}

// searchNearestOptimized uses the sqlite-vec extension to compute cosine
// distance at the database layer, so ordering and LIMIT happen in SQL.
func searchNearestOptimized(ctx context.Context, db *sql.DB, collection types.DocType, vector []float32, k int) ([]types.RawCandidate, error) {
	query := `
		SELECT p.point_key, d.source_path, p.content, p.start_line, p.end_line, p.metadata,
		       vec_distance_cosine(p.vector, ?) AS distance
		FROM points p
		INNER JOIN documents d ON p.document_id = d.id
		WHERE d.collection = ? AND p.dimension = ?
		ORDER BY distance ASC
		LIMIT ?
	`
	rows, err := db.QueryContext(ctx, query, serializeVector(vector), string(collection), len(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]types.RawCandidate, 0, k)
	for rows.Next() {
		var (
			key, sourcePath, content string
			startLine, endLine       int
			metadata                 sql.NullString
			distance                 float64
		)
		if err := rows.Scan(&key, &sourcePath, &content, &startLine, &endLine, &metadata, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		candidates = append(candidates, types.RawCandidate{
			Collection: collection,
			Identifier: key,
			SourcePath: sourcePath,
			Distance:   distance,
			Payload:    buildPayload(content, startLine, endLine, metadata),
		})
	}
	return candidates, rows.Err()
}

// searchNearestFallback computes cosine distance in Go. Used when the
// sqlite-vec extension is not available (purego builds).
func searchNearestFallback(ctx context.Context, db *sql.DB, collection types.DocType, vector []float32, k int) ([]types.RawCandidate, error) {
	query := `
		SELECT p.point_key, d.source_path, p.content, p.start_line, p.end_line, p.metadata, p.vector
		FROM points p
		INNER JOIN documents d ON p.document_id = d.id
		WHERE d.collection = ?
	`
	rows, err := db.QueryContext(ctx, query, string(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]types.RawCandidate, 0, 256)
	for rows.Next() {
		var (
			key, sourcePath, content string
			startLine, endLine       int
			metadata                 sql.NullString
			blob                     []byte
		)
		if err := rows.Scan(&key, &sourcePath, &content, &startLine, &endLine, &metadata, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}

		stored := deserializeVector(blob)
		if len(stored) != len(vector) {
			continue // Dimension mismatch, skip
		}

		candidates = append(candidates, types.RawCandidate{
			Collection: collection,
			Identifier: key,
			SourcePath: sourcePath,
			Distance:   cosineDistance(vector, stored),
			Payload:    buildPayload(content, startLine, endLine, metadata),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// searchLexical matches query tokens against point content via FTS5.
func searchLexical(ctx context.Context, db *sql.DB, collection types.DocType, tokens []string, k int) ([]types.RawCandidate, error) {
	match := buildFTSQuery(tokens)
	if match == "" || k <= 0 {
		return []types.RawCandidate{}, nil
	}

	query := `
		SELECT p.point_key, d.source_path, p.content, p.start_line, p.end_line, p.metadata
		FROM points_fts
		INNER JOIN points p ON points_fts.rowid = p.id
		INNER JOIN documents d ON p.document_id = d.id
		WHERE points_fts MATCH ? AND d.collection = ?
		LIMIT ?
	`
	rows, err := db.QueryContext(ctx, query, match, string(collection), k)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]types.RawCandidate, 0, k)
	for rows.Next() {
		var (
			key, sourcePath, content string
			startLine, endLine       int
			metadata                 sql.NullString
		)
		if err := rows.Scan(&key, &sourcePath, &content, &startLine, &endLine, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		candidates = append(candidates, types.RawCandidate{
			Collection: collection,
			Identifier: key,
			SourcePath: sourcePath,
			Distance:   0,
			Payload:    buildPayload(content, startLine, endLine, metadata),
		})
	}
	return candidates, rows.Err()
}

// buildFTSQuery joins tokens into an OR match expression. Tokens are quoted
// so FTS5 operators inside them have no effect.
func buildFTSQuery(tokens []string) string {
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.ReplaceAll(tok, `"`, ``)
		if tok == "" {
			continue
		}
		terms = append(terms, `"`+tok+`"`)
	}
	return strings.Join(terms, " OR ")
}

// buildPayload assembles the candidate payload from point columns.
func buildPayload(content string, startLine, endLine int, metadata sql.NullString) map[string]any {
	payload := map[string]any{
		"content":    content,
		"start_line": startLine,
		"end_line":   endLine,
	}
	if metadata.Valid && metadata.String != "" {
		var meta map[string]string
		if err := json.Unmarshal([]byte(metadata.String), &meta); err == nil {
			for k, v := range meta {
				payload[k] = v
			}
		}
	}
	return payload
}
