package scorer

import (
	"math"
	"strings"

	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

// defaultPriorityWeight ranks doc types with no configured weight mid-band.
const defaultPriorityWeight = 0.5

// Scorer applies the hybrid ranking model with externally supplied knobs.
type Scorer struct {
	floor   float64
	weights map[types.DocType]float64
}

// New builds a Scorer from the configured minimum-similarity floor and
// per-doc-type priority weights. Weight map keys are doc type names.
func New(floor float64, weights map[string]float64) *Scorer {
	w := make(map[types.DocType]float64, len(weights))
	for name, v := range weights {
		w[types.DocType(name)] = v
	}
	return &Scorer{floor: floor, weights: w}
}

// Floor returns the minimum similarity below which hits are dropped.
func (s *Scorer) Floor() float64 {
	return s.floor
}

// Passes reports whether a similarity survives the floor.
func (s *Scorer) Passes(similarity float64) bool {
	return similarity >= s.floor
}

// Weight returns the priority weight for a doc type.
func (s *Scorer) Weight(dt types.DocType) float64 {
	if w, ok := s.weights[dt]; ok {
		return w
	}
	return defaultPriorityWeight
}

// Score combines priority weight, similarity, and keyword overlap into one
// ranking value. Skill documents weight authority over textual overlap.
func (s *Scorer) Score(dt types.DocType, similarity, keywordScore float64) float64 {
	pw := s.Weight(dt)
	if dt == types.DocTypeSkill {
		return 0.6*pw + 0.3*similarity + 0.1*keywordScore
	}
	return 0.5*pw + 0.3*similarity + 0.2*keywordScore
}

// NormalizeDistance converts a backend distance to a similarity in (0,1].
// Negative or NaN distances are treated as zero distance. The second return
// reports whether the input was clamped, so the caller can log it.
func NormalizeDistance(distance float64) (float64, bool) {
	clamped := false
	if math.IsNaN(distance) || distance < 0 {
		distance = 0
		clamped = true
	}
	return 1 / (1 + distance), clamped
}

// KeywordMatches counts how many query tokens appear in the candidate text.
// Each token counts at most once. Matching is case-insensitive substring
// containment over the folded text.
func KeywordMatches(queryTokens []string, text string) int {
	if len(queryTokens) == 0 || text == "" {
		return 0
	}
	folded := Fold(text)
	matches := 0
	for _, tok := range queryTokens {
		if strings.Contains(folded, tok) {
			matches++
		}
	}
	return matches
}

// KeywordScore returns the fraction of query tokens found in the candidate
// text, in [0,1].
func KeywordScore(queryTokens []string, text string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	return float64(KeywordMatches(queryTokens, text)) / float64(len(queryTokens))
}

// FallbackSimilarity estimates similarity from lexical overlap alone, used
// when the vector backend produced no candidates. matches is the count of
// query tokens found in the candidate text and tokenCount the query's token
// count. The result is bounded in [0,1] and shrinks as queries get longer.
func FallbackSimilarity(matches, tokenCount int) float64 {
	denom := math.Max(1, float64(tokenCount)*2.5)
	return math.Min(1.0, float64(matches)/denom)
}
