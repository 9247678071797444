package types

// RoutineID identifies a post-retrieval analysis routine.
type RoutineID string

const (
	// RoutineHealth analyzes overall module health from retrieved hits.
	RoutineHealth RoutineID = "health_analysis"
	// RoutineReinvention detects functionality that already exists in the corpus.
	RoutineReinvention RoutineID = "reinvention_detection"
	// RoutineOversized flags files exceeding the configured size threshold.
	RoutineOversized RoutineID = "oversized_files"
	// RoutineStructure checks module layout against expected scaffolding.
	RoutineStructure RoutineID = "module_structure"
	// RoutineCoaching produces actionable hints for the calling agent.
	RoutineCoaching RoutineID = "coaching_hints"
	// RoutineOrphans detects indexed sources no hit references anymore.
	RoutineOrphans RoutineID = "orphan_detection"
	// RoutineDocCompliance checks documentation coverage of retrieved modules.
	RoutineDocCompliance RoutineID = "doc_compliance"
	// RoutineResearch performs a network-bound auxiliary lookup. Research
	// intent only.
	RoutineResearch RoutineID = "research_lookup"
)

// RequiresNetwork reports whether the routine performs network I/O. The
// execution router refuses to run network routines for any intent other than
// research; keeping the property on the identifier makes that gate checkable
// without running the routine.
func (r RoutineID) RequiresNetwork() bool {
	return r == RoutineResearch
}

// RoutineResult is the outcome of one analysis routine. Failures are values:
// a failed routine yields Degraded=true with a diagnostic, never an abort.
type RoutineResult struct {
	Name     RoutineID      `json:"name"`
	OK       bool           `json:"ok"`
	Degraded bool           `json:"degraded,omitempty"`
	Guidance string         `json:"guidance,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// DegradedResult builds the standard failure-shaped result for a routine.
func DegradedResult(id RoutineID, err error) RoutineResult {
	res := RoutineResult{
		Name:     id,
		OK:       false,
		Degraded: true,
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}
