package scorer

import (
	"math"
	"testing"

	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-3
}

func testScorer() *Scorer {
	return New(0.35, map[string]float64{
		"protocol_doc": 0.9,
		"skill":        0.8,
		"code":         0.7,
		"test":         0.5,
	})
}

func TestNormalizeDistance(t *testing.T) {
	tests := []struct {
		name        string
		distance    float64
		want        float64
		wantClamped bool
	}{
		{"zero distance", 0, 1.0, false},
		{"half distance survives floor", 0.5, 0.6667, false},
		{"distance two drops below floor", 2.0, 0.3333, false},
		{"negative clamps to one", -1.5, 1.0, true},
		{"nan clamps to one", math.NaN(), 1.0, true},
		{"large distance stays positive", 1e9, 1 / (1 + 1e9), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped := NormalizeDistance(tt.distance)
			if !almostEqual(got, tt.want) {
				t.Errorf("NormalizeDistance(%v) = %v, want %v", tt.distance, got, tt.want)
			}
			if clamped != tt.wantClamped {
				t.Errorf("NormalizeDistance(%v) clamped = %v, want %v", tt.distance, clamped, tt.wantClamped)
			}
			if got <= 0 || got > 1 {
				t.Errorf("NormalizeDistance(%v) = %v, outside (0,1]", tt.distance, got)
			}
		})
	}
}

func TestNormalizeDistanceMonotonic(t *testing.T) {
	prev := math.Inf(1)
	for d := 0.0; d <= 10; d += 0.25 {
		sim, _ := NormalizeDistance(d)
		if sim >= prev {
			t.Fatalf("similarity not strictly decreasing at d=%v: %v >= %v", d, sim, prev)
		}
		prev = sim
	}
}

func TestFloorFiltering(t *testing.T) {
	s := testScorer()

	surviving, _ := NormalizeDistance(0.5)
	if !s.Passes(surviving) {
		t.Errorf("similarity %v should survive floor %v", surviving, s.Floor())
	}

	dropped, _ := NormalizeDistance(2.0)
	if s.Passes(dropped) {
		t.Errorf("similarity %v should be dropped by floor %v", dropped, s.Floor())
	}
}

func TestScoreWeights(t *testing.T) {
	s := testScorer()

	tests := []struct {
		name         string
		docType      types.DocType
		similarity   float64
		keywordScore float64
		want         float64
	}{
		{
			name:         "code blends half priority",
			docType:      types.DocTypeCode,
			similarity:   0.8,
			keywordScore: 0.5,
			want:         0.5*0.7 + 0.3*0.8 + 0.2*0.5,
		},
		{
			name:         "protocol doc outranks code at equal signals",
			docType:      types.DocTypeProtocolDoc,
			similarity:   0.8,
			keywordScore: 0.5,
			want:         0.5*0.9 + 0.3*0.8 + 0.2*0.5,
		},
		{
			name:         "skill shifts weight to authority",
			docType:      types.DocTypeSkill,
			similarity:   0.8,
			keywordScore: 0.5,
			want:         0.6*0.8 + 0.3*0.8 + 0.1*0.5,
		},
		{
			name:         "all-zero signals floor at half priority",
			docType:      types.DocTypeTest,
			similarity:   0,
			keywordScore: 0,
			want:         0.5 * 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.docType, tt.similarity, tt.keywordScore)
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("Score = %v, outside [0,1]", got)
			}
		})
	}
}

func TestScoreBounded(t *testing.T) {
	s := testScorer()
	for _, dt := range types.AllDocTypes() {
		for sim := 0.0; sim <= 1.0; sim += 0.2 {
			for kw := 0.0; kw <= 1.0; kw += 0.2 {
				got := s.Score(dt, sim, kw)
				if got < 0 || got > 1 {
					t.Fatalf("Score(%s, %v, %v) = %v, outside [0,1]", dt, sim, kw, got)
				}
			}
		}
	}
}

func TestWeightDefault(t *testing.T) {
	s := New(0.35, nil)
	if got := s.Weight(types.DocTypeCode); got != defaultPriorityWeight {
		t.Errorf("Weight for unconfigured type = %v, want %v", got, defaultPriorityWeight)
	}
}

func TestFallbackSimilarity(t *testing.T) {
	tests := []struct {
		name       string
		matches    int
		tokenCount int
		want       float64
	}{
		// "retry handler with backoff": 4 tokens, 3 match lexically.
		{"three of four tokens", 3, 4, 0.3},
		{"full overlap short query", 1, 1, 0.4},
		{"zero matches", 0, 4, 0},
		{"zero tokens uses unit denominator", 2, 0, 1.0},
		{"capped at one", 50, 4, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackSimilarity(tt.matches, tt.tokenCount)
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("FallbackSimilarity(%d, %d) = %v, want %v", tt.matches, tt.tokenCount, got, tt.want)
			}
		})
	}
}

func TestFallbackBoundarySitsBelowDefaultFloor(t *testing.T) {
	s := testScorer()
	sim := FallbackSimilarity(3, 4)
	if s.Passes(sim) {
		t.Errorf("fallback similarity %v must not survive floor %v", sim, s.Floor())
	}
}

func TestKeywordMatching(t *testing.T) {
	text := "Retry the handler and apply exponential backoff on failure"
	tokens := Tokenize("retry handler with backoff")

	if len(tokens) != 4 {
		t.Fatalf("Tokenize returned %d tokens, want 4: %v", len(tokens), tokens)
	}

	matches := KeywordMatches(tokens, text)
	if matches != 3 {
		t.Errorf("KeywordMatches = %d, want 3", matches)
	}

	score := KeywordScore(tokens, text)
	if math.Abs(score-0.75) > epsilon {
		t.Errorf("KeywordScore = %v, want 0.75", score)
	}
}

func TestKeywordScoreEmptyInputs(t *testing.T) {
	if got := KeywordScore(nil, "anything"); got != 0 {
		t.Errorf("KeywordScore(nil, text) = %v, want 0", got)
	}
	if got := KeywordMatches([]string{"a"}, ""); got != 0 {
		t.Errorf("KeywordMatches(tokens, empty) = %v, want 0", got)
	}
}
