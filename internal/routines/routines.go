// Package routines implements the post-retrieval analysis routines the
// execution router dispatches per intent. Local routines are pure functions
// over the read-only scored hits plus query context; the research lookup is
// the single network-bound routine and is only reachable through the
// research intent.
package routines

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

// Input is the read-only view handed to every routine. Routines must not
// mutate the hit slices or the query.
type Input struct {
	Query  *types.Query
	Intent types.IntentClassification
	Hits   map[types.DocType][]types.ScoredHit
}

// TotalHits returns the number of hits across all doc types.
func (in Input) TotalHits() int {
	n := 0
	for _, hits := range in.Hits {
		n += len(hits)
	}
	return n
}

// Each calls fn for every hit across all doc types in canonical type order.
func (in Input) Each(fn func(types.ScoredHit)) {
	for _, dt := range types.AllDocTypes() {
		for _, h := range in.Hits[dt] {
			fn(h)
		}
	}
}

// Routine is one analysis step. Run returns an error only for unexpected
// failures; expected degradation (timeouts, missing configuration) is
// reported inside the result. The router converts errors and panics into
// degraded results, so a misbehaving routine never aborts the batch.
type Routine interface {
	ID() types.RoutineID
	Run(ctx context.Context, in Input) (types.RoutineResult, error)
}

// Registry resolves routine identifiers to implementations.
type Registry map[types.RoutineID]Routine

// Options configures the built-in routine set.
type Options struct {
	// OversizedLines is the observed-line threshold above which a source
	// file is flagged. Zero selects the default.
	OversizedLines int
	// Research, when non-nil, registers the network-bound lookup routine.
	Research Routine
}

// NewRegistry builds the full routine set.
func NewRegistry(opts Options) Registry {
	if opts.OversizedLines <= 0 {
		opts.OversizedLines = defaultOversizedLines
	}
	reg := Registry{}
	for _, r := range []Routine{
		healthAnalysis{},
		reinventionDetection{},
		oversizedFiles{threshold: opts.OversizedLines},
		moduleStructure{},
		coachingHints{},
		orphanDetection{},
		docCompliance{},
	} {
		reg[r.ID()] = r
	}
	if opts.Research != nil {
		reg[opts.Research.ID()] = opts.Research
	}
	return reg
}

// moduleOf maps a source path to its module root, at most two directory
// segments deep. Root-level files group under ".".
func moduleOf(p string) string {
	dir := path.Dir(strings.TrimPrefix(p, "/"))
	if dir == "." || dir == "" {
		return "."
	}
	parts := strings.Split(dir, "/")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, "/")
}

// baseName strips the directory and extension from a source path.
func baseName(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// modulesWith returns the sorted module roots present in one doc type's hits.
func modulesWith(hits []types.ScoredHit) map[string]bool {
	mods := make(map[string]bool, len(hits))
	for _, h := range hits {
		mods[moduleOf(h.SourcePath)] = true
	}
	return mods
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
