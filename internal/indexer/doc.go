// Package indexer walks corpus roots and feeds the vector store.
//
// One run discovers files, classifies each into a collection, chunks its
// content into line windows, embeds the windows in batches, and atomically
// replaces the document in the store. Skill cards are discovered separately
// from SKILL.md frontmatter and indexed with canonical text.
//
// # Basic Usage
//
//	idx := indexer.New(store, emb, cfg.Corpus, logger)
//
//	stats, err := idx.Run(ctx, indexer.Job{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("indexed %d, skipped %d in %v\n",
//	    stats.FilesIndexed, stats.FilesSkipped, stats.Duration)
//
// # Corpus Classification
//
// Files classify by name and extension:
//   - SKILL.md               -> skill
//   - *.md, *.rst, *.txt     -> protocol_doc
//   - source extensions with test naming (_test., test_, .test.) -> test
//   - remaining source extensions -> code
//
// Everything else (binaries, lockfiles, generated data) is not indexed. A
// Job may force one doc type for every discovered file, which backs the
// index tool's doc_type override.
//
// # Incremental Indexing
//
// Re-runs skip unchanged files by comparing the stored content hash:
//
//	hash := sha256.Sum256(raw)
//	stored, err := store.DocumentHash(ctx, collection, relPath)
//	if err == nil && bytes.Equal(stored, hash[:]) {
//	    // unchanged, skip
//	}
//
// Changed files are replaced wholesale; the store guarantees the old points
// disappear with the new ones' arrival.
//
// # Concurrency and Locking
//
// Files index on an errgroup worker pool sized by config, with shared
// progress counters. Per-file failures are recorded and do not stop the run;
// only context cancellation aborts it. A flock-guarded lock file makes
// indexing a singleton across processes: a second concurrent run returns
// ErrIndexRunning instead of corrupting counts.
package indexer
