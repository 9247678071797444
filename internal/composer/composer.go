// Package composer assembles the versioned ResultBundle from the outputs of
// the retrieval, classification, and routine phases. Composition is pure
// aggregation: hits arrive already scored, filtered, sorted, and capped, and
// are never re-scored or re-filtered here.
package composer

import (
	"fmt"
	"path"
	"time"

	"github.com/Foundup/Foundups-Agent-sub010/internal/retriever"
	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

// Inputs carries one query cycle's phase outputs.
type Inputs struct {
	Query          *types.Query
	Classification types.IntentClassification
	Retrieval      *retriever.Result
	RoutineResults []types.RoutineResult
	State          types.SessionState
}

// Compose builds the bundle. The canonical hits_by_type mapping and the
// legacy flat aliases are written from the same slices, so consumers of
// either shape read identical values.
func Compose(in Inputs) *types.ResultBundle {
	bundle := &types.ResultBundle{
		SchemaVersion: types.SchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		OK:            in.State != types.StateError,
		Task:          in.Query.RawText,
		ModuleHint:    in.Query.ContextValue("module"),
		Metadata: types.BundleMetadata{
			Counts:    in.Retrieval.Counts,
			ElapsedMS: in.Retrieval.ElapsedMS,
			Intent:    in.Classification.Intent,
			State:     in.State,
			Degraded:  degradedNotes(in),
		},
	}

	total := 0
	hitsByType := make(map[types.DocType][]types.ScoredHit, len(in.Retrieval.HitsByType))
	for dt, hits := range in.Retrieval.HitsByType {
		if len(hits) == 0 {
			continue
		}
		frozen := make([]types.ScoredHit, len(hits))
		copy(frozen, hits)
		hitsByType[dt] = frozen
		total += len(frozen)
	}
	if len(hitsByType) > 0 {
		bundle.HitsByType = hitsByType
	}
	bundle.CodeHits = hitsByType[types.DocTypeCode]
	bundle.DocHits = hitsByType[types.DocTypeProtocolDoc]
	bundle.TestHits = hitsByType[types.DocTypeTest]
	bundle.SkillHits = hitsByType[types.DocTypeSkill]

	if code := hitsByType[types.DocTypeCode]; len(code) > 0 {
		bundle.ModulePath = path.Dir(code[0].SourcePath)
	}

	outcome := "missing"
	if total > 0 {
		outcome = "found"
	}
	bundle.TaskRetrieval = map[string]any{
		"query":      in.Query.RawText,
		"intent":     string(in.Classification.Intent),
		"confidence": in.Classification.Confidence,
		"total_hits": total,
		"outcome":    outcome,
	}
	if len(in.Classification.MatchedSignals) > 0 {
		bundle.TaskRetrieval["matched_signals"] = in.Classification.MatchedSignals
	}

	if len(in.RoutineResults) > 0 {
		memory := make(map[string]any, len(in.RoutineResults))
		for _, res := range in.RoutineResults {
			memory[string(res.Name)] = res
		}
		bundle.StructuredMemory = memory
	}

	return bundle
}

// degradedNotes merges retrieval-phase degradation with per-routine failures
// in phase order.
func degradedNotes(in Inputs) []string {
	notes := make([]string, 0, len(in.Retrieval.Degraded))
	notes = append(notes, in.Retrieval.Degraded...)
	for _, res := range in.RoutineResults {
		if !res.Degraded {
			continue
		}
		note := fmt.Sprintf("routine %s degraded", res.Name)
		if res.Error != "" {
			note += ": " + res.Error
		}
		notes = append(notes, note)
	}
	if len(notes) == 0 {
		return nil
	}
	return notes
}
