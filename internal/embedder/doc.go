// Package embedder turns text into fixed-length vectors for similarity search.
//
// The engine treats embedding as a black box behind the Embedder interface.
// Two providers are built in: an OpenAI-compatible API client and a
// deterministic local provider that needs no network or model files.
//
// # Basic Usage
//
//	emb, err := embedder.NewFromConfig(cfg.Embedding)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "retry handler with exponential backoff",
//	})
//	fmt.Printf("Vector dimension: %d\n", len(result.Vector))
//
// # Batch Processing
//
// Indexing embeds chunks in batches to cut round trips:
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts: []string{chunk1, chunk2, chunk3},
//	})
//
// Batches are capped at MaxBatchSize texts; callers split larger inputs.
//
// # Caching
//
// Providers accept an optional in-process LRU cache keyed by content hash,
// so re-indexing unchanged files never re-embeds them. For a cache shared
// across daemon restarts, wrap any provider in CachedEmbedder backed by
// Redis:
//
//	cached := embedder.NewCachedEmbedder(emb, redisStore, ttl, counter, logger)
//
// Cache failures log a warning and fall through to the provider; they are
// never surfaced to callers.
//
// # Providers
//
// The OpenAI provider works against api.openai.com or any compatible
// endpoint via BaseURL. API calls retry with exponential backoff on
// transient failures. The local provider hashes tokens into a fixed-size
// normalized vector; it trades quality for determinism and zero setup, which
// suits tests and air-gapped machines.
package embedder
