package types

import "strings"

const (
	// DefaultLimit is the per-doc-type hit cap applied when a query does not set one.
	DefaultLimit = 10
	// MaxLimit bounds the per-doc-type hit cap.
	MaxLimit = 100
)

// Query is the immutable input to one search cycle. Callers build it once and
// submit it; the engine never mutates a submitted query.
type Query struct {
	RawText string
	Limit   int
	// DocTypeFilter restricts retrieval to the listed collections.
	// Empty means all collections.
	DocTypeFilter []DocType
	// Context carries caller-supplied hints (module name, task description)
	// consumed by the intent classifier and analysis routines.
	Context map[string]string
}

// Validate checks the query and reports the first violation.
func (q *Query) Validate() error {
	if strings.TrimSpace(q.RawText) == "" {
		return ErrEmptyQuery
	}
	if q.Limit < 0 {
		return ErrInvalidLimit
	}
	for _, dt := range q.DocTypeFilter {
		if !dt.Valid() {
			return ErrUnknownDocType
		}
	}
	return nil
}

// EffectiveLimit returns the per-doc-type cap with defaults and bounds applied.
func (q *Query) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	if q.Limit > MaxLimit {
		return MaxLimit
	}
	return q.Limit
}

// DocTypes returns the collections this query targets in canonical order.
func (q *Query) DocTypes() []DocType {
	if len(q.DocTypeFilter) == 0 {
		return AllDocTypes()
	}
	// Preserve canonical order regardless of filter order.
	want := make(map[DocType]bool, len(q.DocTypeFilter))
	for _, dt := range q.DocTypeFilter {
		want[dt] = true
	}
	out := make([]DocType, 0, len(want))
	for _, dt := range AllDocTypes() {
		if want[dt] {
			out = append(out, dt)
		}
	}
	return out
}

// ContextValue returns a context hint by key, or "" when absent.
func (q *Query) ContextValue(key string) string {
	if q.Context == nil {
		return ""
	}
	return q.Context[key]
}
