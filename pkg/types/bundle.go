package types

import "time"

// SchemaVersion tags every bundle the engine emits. Schema changes require a
// new version tag, never silent field removal.
const SchemaVersion = "holoindex/v1"

// BundleMetadata carries per-query accounting.
type BundleMetadata struct {
	// Counts holds surviving hit counts per doc type, including zeroes for
	// queried types that produced nothing.
	Counts map[DocType]int `json:"counts"`
	// ElapsedMS is wall-clock time of the retrieval phase.
	ElapsedMS int64 `json:"elapsed_ms"`
	// Intent is the classified intent of the query.
	Intent IntentClass `json:"intent,omitempty"`
	// State is the terminal session state of the cycle.
	State SessionState `json:"state,omitempty"`
	// Degraded lists subsystems that failed soft during the cycle
	// (unreachable collections, failed routines, abandoned lookups).
	Degraded []string `json:"degraded,omitempty"`
}

// ResultBundle is the versioned artifact returned to callers. Built fresh per
// query by append-then-freeze composition; never partially mutated after being
// returned.
//
// The canonical hit mapping is HitsByType. CodeHits, DocHits, TestHits, and
// SkillHits are legacy flat aliases written from the same internal
// representation so older and newer consumers read consistent values.
type ResultBundle struct {
	SchemaVersion string    `json:"schema_version"`
	GeneratedAt   time.Time `json:"generated_at"`
	OK            bool      `json:"ok"`

	Task       string `json:"task,omitempty"`
	ModuleHint string `json:"module_hint,omitempty"`
	ModulePath string `json:"module_path,omitempty"`

	// StructuredMemory maps routine names to their outputs.
	StructuredMemory map[string]any `json:"structured_memory,omitempty"`
	// TaskRetrieval summarizes the retrieval phase for the calling agent.
	TaskRetrieval map[string]any `json:"task_retrieval,omitempty"`

	HitsByType map[DocType][]ScoredHit `json:"hits_by_type,omitempty"`

	// Legacy aliases for pre-v1 consumers.
	CodeHits  []ScoredHit `json:"code_hits,omitempty"`
	DocHits   []ScoredHit `json:"doc_hits,omitempty"`
	TestHits  []ScoredHit `json:"test_hits,omitempty"`
	SkillHits []ScoredHit `json:"skill_hits,omitempty"`

	Metadata BundleMetadata `json:"metadata"`

	// Diagnostic is set only on error bundles.
	Diagnostic string `json:"diagnostic,omitempty"`
}

// TotalHits returns the number of hits across all doc types.
func (b *ResultBundle) TotalHits() int {
	n := 0
	for _, hits := range b.HitsByType {
		n += len(hits)
	}
	return n
}

// NewErrorBundle builds the distinguishable error shape: ok false, diagnostic
// set, no hit lists.
func NewErrorBundle(task, diagnostic string) *ResultBundle {
	return &ResultBundle{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		OK:            false,
		Task:          task,
		Diagnostic:    diagnostic,
		Metadata: BundleMetadata{
			Counts: map[DocType]int{},
			State:  StateError,
		},
	}
}
