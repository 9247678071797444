package types

// RawCandidate is an unscored nearest-neighbor result from a collaborator
// backend. Candidates are owned transiently by the retrieval coordinator for
// the duration of one query and never escape it.
type RawCandidate struct {
	Collection DocType
	Identifier string
	SourcePath string
	// Distance is the backend's distance metric, >= 0. Negative values are
	// treated as zero during normalization, never as an error.
	Distance float64
	Payload  map[string]any
}

// Malformed reports whether the candidate is unusable. Malformed candidates
// are skipped individually and counted; they never abort a batch.
func (c *RawCandidate) Malformed() bool {
	return c.Identifier == "" || c.SourcePath == ""
}

// PayloadString returns a string payload field, or "" when absent.
func (c *RawCandidate) PayloadString(key string) string {
	if c.Payload == nil {
		return ""
	}
	s, _ := c.Payload[key].(string)
	return s
}

// PayloadInt returns an integer payload field, or 0 when absent. JSON-decoded
// payloads carry numbers as float64; both forms are accepted.
func (c *RawCandidate) PayloadInt(key string) int {
	if c.Payload == nil {
		return 0
	}
	switch v := c.Payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// ScoredHit is a normalized, scored candidate eligible for ranking.
// Derived once per surviving candidate and never mutated after creation.
type ScoredHit struct {
	SourcePath     string  `json:"source_path"`
	DocType        DocType `json:"doc_type"`
	StartLine      int     `json:"start_line,omitempty"`
	EndLine        int     `json:"end_line,omitempty"`
	Similarity     float64 `json:"similarity"`
	KeywordScore   float64 `json:"keyword_score"`
	PriorityWeight float64 `json:"priority_weight"`
	Score          float64 `json:"score"`
	Snippet        string  `json:"snippet,omitempty"`
}

// Validate checks the hit's numeric invariants.
func (h *ScoredHit) Validate() error {
	if h.SourcePath == "" {
		return ErrMissingSourcePath
	}
	if !h.DocType.Valid() {
		return ErrUnknownDocType
	}
	if h.Similarity <= 0 || h.Similarity > 1 {
		return ErrSimilarityOutOfRange
	}
	if h.KeywordScore < 0 || h.KeywordScore > 1 {
		return ErrKeywordScoreOutOfRange
	}
	if h.PriorityWeight < 0 || h.PriorityWeight > 1 {
		return ErrPriorityWeightOutOfRange
	}
	if h.Score < 0 || h.Score > 1 {
		return ErrScoreOutOfRange
	}
	return nil
}

// Less orders hits for within-type ranking: score descending, ties broken by
// shorter source path, then lexicographic path. Deterministic across runs.
func (h *ScoredHit) Less(other *ScoredHit) bool {
	if h.Score != other.Score {
		return h.Score > other.Score
	}
	if len(h.SourcePath) != len(other.SourcePath) {
		return len(h.SourcePath) < len(other.SourcePath)
	}
	return h.SourcePath < other.SourcePath
}
