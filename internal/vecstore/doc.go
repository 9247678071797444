// Package vecstore provides the vector store backends serving nearest-neighbor
// candidates per collection.
//
// A Store partitions indexed chunks into one logical collection per doc type
// (code, protocol_doc, test, skill). Lookups return raw candidates carrying a
// distance; converting distance to similarity and ranking is the scorer's job,
// not the store's.
//
// # Backends
//
// Three implementations share the Store interface:
//   - SQLiteStore: embedded single-file store, the default. Vectors live in a
//     BLOB column; similarity is computed by the sqlite-vec extension when
//     built with the sqlite_vec tag, or in Go otherwise.
//   - QdrantStore: REST client against a Qdrant server, one Qdrant collection
//     per doc type.
//   - MemoryStore: brute-force in-memory store for tests and throwaway runs.
//
// # Distances
//
// All backends report cosine distance (1 - cosine similarity), so a distance
// of 0 is an exact match and 2 an opposite vector. Slightly negative values
// from float rounding are possible and handled downstream.
//
// # Build Modes
//
// The SQLite backend compiles against github.com/mattn/go-sqlite3 with
//
//	CGO_ENABLED=1 go build -tags "sqlite_vec,fts5" ./...
//
// or against the pure Go modernc.org/sqlite driver by default:
//
//	CGO_ENABLED=0 go build ./...
package vecstore
