package vecstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// querier returns the DB querier
func (s *SQLiteStore) querier() querier {
	return s.db
}

// ReplaceDocument atomically replaces a document row and all of its points.
func (s *SQLiteStore) ReplaceDocument(ctx context.Context, doc Document, points []Point) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	docID, err := upsertDocumentWithQuerier(ctx, tx, doc)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE document_id = ?`, docID); err != nil {
		return fmt.Errorf("failed to clear points: %w", err)
	}

	for _, p := range points {
		if err := insertPointWithQuerier(ctx, tx, docID, p); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// upsertDocumentWithQuerier is the internal implementation that uses a querier
func upsertDocumentWithQuerier(ctx context.Context, q querier, doc Document) (int64, error) {
	query := `
		INSERT INTO documents (collection, source_path, content_hash, mod_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, source_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			mod_time = excluded.mod_time,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	var id int64
	err := q.QueryRowContext(ctx, query,
		string(doc.Collection), doc.SourcePath, doc.ContentHash[:], doc.ModTime, now, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert document: %w", err)
	}
	return id, nil
}

// insertPointWithQuerier is the internal implementation that uses a querier
func insertPointWithQuerier(ctx context.Context, q querier, docID int64, p Point) error {
	var metadata any
	if len(p.Metadata) > 0 {
		data, err := json.Marshal(p.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode point metadata: %w", err)
		}
		metadata = string(data)
	}

	query := `
		INSERT INTO points (document_id, point_key, content, start_line, end_line, vector, dimension, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id, start_line, end_line) DO UPDATE SET
			point_key = excluded.point_key,
			content = excluded.content,
			vector = excluded.vector,
			dimension = excluded.dimension,
			metadata = excluded.metadata
	`
	_, err := q.ExecContext(ctx, query,
		docID, p.Key, p.Content, p.StartLine, p.EndLine,
		serializeVector(p.Vector), len(p.Vector), metadata, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert point: %w", err)
	}
	return nil
}

// DocumentHash returns the stored content hash for a source path.
func (s *SQLiteStore) DocumentHash(ctx context.Context, collection types.DocType, sourcePath string) ([]byte, error) {
	query := `SELECT content_hash FROM documents WHERE collection = ? AND source_path = ?`
	var hash []byte
	err := s.querier().QueryRowContext(ctx, query, string(collection), sourcePath).Scan(&hash)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return hash, nil
}

// DeleteDocument removes a document; points cascade.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, collection types.DocType, sourcePath string) error {
	query := `DELETE FROM documents WHERE collection = ? AND source_path = ?`
	_, err := s.querier().ExecContext(ctx, query, string(collection), sourcePath)
	return err
}

// Nearest returns up to k candidates ordered by ascending cosine distance.
func (s *SQLiteStore) Nearest(ctx context.Context, collection types.DocType, vector []float32, k int) ([]types.RawCandidate, error) {
	return searchNearest(ctx, s.db, collection, vector, k)
}

// Lexical returns up to k candidates matching the query tokens via FTS5.
func (s *SQLiteStore) Lexical(ctx context.Context, collection types.DocType, tokens []string, k int) ([]types.RawCandidate, error) {
	return searchLexical(ctx, s.db, collection, tokens, k)
}

// Available reports whether the database can serve lookups.
func (s *SQLiteStore) Available(ctx context.Context, collection types.DocType) bool {
	return s.db.PingContext(ctx) == nil
}

// Stats returns per-collection point counts. Collections with no documents
// report zero.
func (s *SQLiteStore) Stats(ctx context.Context) (map[types.DocType]int, error) {
	query := `
		SELECT d.collection, COUNT(p.id)
		FROM documents d
		LEFT JOIN points p ON p.document_id = d.id
		GROUP BY d.collection
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	stats := make(map[types.DocType]int, len(types.AllDocTypes()))
	for _, dt := range types.AllDocTypes() {
		stats[dt] = 0
	}
	for rows.Next() {
		var collection string
		var count int
		if err := rows.Scan(&collection, &count); err != nil {
			return nil, err
		}
		stats[types.DocType(collection)] = count
	}
	return stats, rows.Err()
}
