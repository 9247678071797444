// Package types provides shared type definitions for the HoloIndex retrieval engine.
//
// This package defines the domain vocabulary used across the engine: queries,
// candidates, scored hits, intent classifications, session states, routine
// results, and the versioned result bundle returned to callers.
//
// # Core Types
//
// Query is the immutable input to a search cycle:
//
//	q := types.Query{
//	    RawText: "where is the auth module",
//	    Limit:   10,
//	}
//
// ScoredHit is a normalized, scored candidate eligible for ranking. Hits are
// derived once and never mutated afterwards:
//
//	hit := types.ScoredHit{
//	    SourcePath:     "modules/auth/handler.go",
//	    DocType:        types.DocTypeCode,
//	    Similarity:     0.67,
//	    KeywordScore:   0.5,
//	    PriorityWeight: 0.7,
//	    Score:          0.65,
//	}
//
// # Result Bundle
//
// ResultBundle is the sole return contract of the engine. It is tagged with a
// fixed schema identifier and carries both the canonical hits_by_type mapping
// and legacy flat aliases for older consumers:
//
//	bundle.HitsByType[types.DocTypeCode] // canonical
//	bundle.CodeHits                      // legacy alias, same data
//
// Error bundles have a distinguishable shape: OK is false, Diagnostic is set,
// and no hit lists are present.
//
// # Invariants
//
// Scores and similarities are normalized to [0, 1]. A hit that survives the
// minimum-similarity floor always has Similarity > 0. Exactly one intent class
// is produced per query. A single query cycle never reports both
// StateResultFound and StateResultMissing.
package types
