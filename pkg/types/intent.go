package types

// IntentClass is the classified purpose of a query. It gates which analysis
// routines run and whether network-bound auxiliary lookups are permitted.
type IntentClass string

const (
	// IntentDocLookup answers compliance and protocol questions.
	IntentDocLookup IntentClass = "doc_lookup"
	// IntentCodeLocation answers "where is X" style questions.
	IntentCodeLocation IntentClass = "code_location"
	// IntentModuleHealth answers module size, structure, and hygiene questions.
	IntentModuleHealth IntentClass = "module_health"
	// IntentResearch marks queries that cannot be answered from the local
	// corpus. It is the only class permitted to trigger network lookups.
	IntentResearch IntentClass = "research"
	// IntentGeneral is the fallthrough class.
	IntentGeneral IntentClass = "general"
)

// AllIntents returns every intent class in precedence order: on signal
// collision the earliest class wins. doc_lookup and code_location answers are
// cheap and unambiguous; research is the most expensive path and must never
// fire speculatively.
func AllIntents() []IntentClass {
	return []IntentClass{
		IntentDocLookup,
		IntentCodeLocation,
		IntentModuleHealth,
		IntentResearch,
		IntentGeneral,
	}
}

// Valid reports whether the intent class is known.
func (i IntentClass) Valid() bool {
	switch i {
	case IntentDocLookup, IntentCodeLocation, IntentModuleHealth, IntentResearch, IntentGeneral:
		return true
	}
	return false
}

// IntentClassification is the output of the intent classifier. Computed
// exactly once per query; never multi-valued.
type IntentClassification struct {
	Intent         IntentClass `json:"intent"`
	Confidence     float64     `json:"confidence"`
	MatchedSignals []string    `json:"matched_signals,omitempty"`
}
