// Package scorer implements hit normalization and hybrid ranking.
//
// Raw backend candidates carry a distance. NormalizeDistance converts it to a
// similarity in (0,1] via 1/(1+distance), which is monotonically decreasing
// and needs no knowledge of the upstream metric's scale. Invalid distances
// (negative or NaN) clamp to zero distance rather than erroring, so a single
// bad candidate never aborts a batch.
//
// # Hybrid Score
//
// The ranking score blends three signals, each in [0,1]:
//
//	score = 0.5*priority_weight + 0.3*similarity + 0.2*keyword_score
//
// Skill documents shift weight toward authority and away from textual
// overlap:
//
//	score = 0.6*priority_weight + 0.3*similarity + 0.1*keyword_score
//
// Weights sum to 1.0 in both modes, so the score stays in [0,1].
//
// # Lexical Fallback
//
// When the vector backend is unavailable or returns nothing, FallbackSimilarity
// estimates similarity from token overlap alone:
//
//	similarity = min(1.0, matched_tokens / max(1, token_count*2.5))
//
// The denominator grows with query length, so long queries need
// proportionally more overlap to rank.
package scorer
