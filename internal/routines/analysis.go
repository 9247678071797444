package routines

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Foundup/Foundups-Agent-sub010/internal/scorer"
	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

const defaultOversizedLines = 800

// strongMatchScore marks a retrieved hit as good enough that the caller
// should read it before writing anything new.
const strongMatchScore = 0.75

// healthAnalysis summarizes retrieval shape: hit counts, score spread, and
// modules that surfaced without accompanying tests.
type healthAnalysis struct{}

func (healthAnalysis) ID() types.RoutineID { return types.RoutineHealth }

func (healthAnalysis) Run(_ context.Context, in Input) (types.RoutineResult, error) {
	total := in.TotalHits()
	counts := make(map[string]any, len(in.Hits))
	collections := 0
	var simSum float64
	in.Each(func(h types.ScoredHit) { simSum += h.Similarity })
	for dt, hits := range in.Hits {
		counts[string(dt)] = len(hits)
		if len(hits) > 0 {
			collections++
		}
	}

	details := map[string]any{
		"total_hits": total,
		"counts":     counts,
	}
	if total > 0 {
		details["mean_similarity"] = round2(simSum / float64(total))
	}

	codeMods := modulesWith(in.Hits[types.DocTypeCode])
	testMods := modulesWith(in.Hits[types.DocTypeTest])
	var untested []string
	for mod := range codeMods {
		if !testMods[mod] {
			untested = append(untested, mod)
		}
	}
	sort.Strings(untested)

	guidance := fmt.Sprintf("%d hits across %d collections", total, collections)
	if len(untested) > 0 {
		details["untested_modules"] = untested
		guidance += fmt.Sprintf("; %d modules surfaced without test coverage: %s",
			len(untested), strings.Join(untested, ", "))
	}

	return types.RoutineResult{
		Name:     types.RoutineHealth,
		OK:       true,
		Guidance: guidance,
		Details:  details,
	}, nil
}

// reinventionDetection looks for signs the queried functionality already
// exists: duplicate basenames across modules, and strong code matches when
// the query reads like a creation task.
type reinventionDetection struct{}

func (reinventionDetection) ID() types.RoutineID { return types.RoutineReinvention }

var creationWords = map[string]bool{
	"create": true, "implement": true, "build": true, "write": true,
	"add": true, "new": true,
}

func (reinventionDetection) Run(_ context.Context, in Input) (types.RoutineResult, error) {
	byBase := map[string]map[string]bool{}
	for _, h := range in.Hits[types.DocTypeCode] {
		base := baseName(h.SourcePath)
		if byBase[base] == nil {
			byBase[base] = map[string]bool{}
		}
		byBase[base][moduleOf(h.SourcePath)] = true
	}
	duplicates := map[string]any{}
	for base, mods := range byBase {
		if len(mods) >= 2 {
			duplicates[base] = sortedKeys(mods)
		}
	}

	creationQuery := false
	for _, tok := range scorer.Tokenize(in.Query.RawText) {
		if creationWords[tok] {
			creationQuery = true
			break
		}
	}
	var existing []string
	if creationQuery {
		for _, h := range in.Hits[types.DocTypeCode] {
			if h.Score >= strongMatchScore {
				existing = append(existing, h.SourcePath)
			}
		}
	}

	details := map[string]any{}
	var notes []string
	if len(duplicates) > 0 {
		details["duplicate_basenames"] = duplicates
		notes = append(notes, fmt.Sprintf("%d basenames appear in multiple modules", len(duplicates)))
	}
	if len(existing) > 0 {
		details["existing_implementations"] = existing
		notes = append(notes, fmt.Sprintf("creation-flavored query but strong matches already exist: %s",
			strings.Join(existing, ", ")))
	}
	guidance := "no duplication signals among retrieved hits"
	if len(notes) > 0 {
		guidance = strings.Join(notes, "; ")
	}

	return types.RoutineResult{
		Name:     types.RoutineReinvention,
		OK:       true,
		Guidance: guidance,
		Details:  details,
	}, nil
}

// oversizedFiles flags sources whose hits reach past the line threshold. A
// hit ending at line N proves the file is at least N lines long; the routine
// never re-reads files.
type oversizedFiles struct {
	threshold int
}

func (oversizedFiles) ID() types.RoutineID { return types.RoutineOversized }

func (r oversizedFiles) Run(_ context.Context, in Input) (types.RoutineResult, error) {
	observed := map[string]int{}
	in.Each(func(h types.ScoredHit) {
		if h.EndLine > observed[h.SourcePath] {
			observed[h.SourcePath] = h.EndLine
		}
	})

	var oversized []string
	for p, lines := range observed {
		if lines >= r.threshold {
			oversized = append(oversized, p)
		}
	}
	sort.Strings(oversized)

	details := map[string]any{"threshold_lines": r.threshold}
	guidance := fmt.Sprintf("no retrieved file reaches %d lines", r.threshold)
	if len(oversized) > 0 {
		entries := make([]map[string]any, 0, len(oversized))
		for _, p := range oversized {
			entries = append(entries, map[string]any{
				"source_path":    p,
				"observed_lines": observed[p],
			})
		}
		details["oversized"] = entries
		guidance = fmt.Sprintf("%d files exceed %d lines and are candidates for splitting: %s",
			len(oversized), r.threshold, strings.Join(oversized, ", "))
	}

	return types.RoutineResult{
		Name:     types.RoutineOversized,
		OK:       true,
		Guidance: guidance,
		Details:  details,
	}, nil
}

// moduleStructure reports how hits distribute across module roots, so the
// caller can tell a concentrated owner from scattered partial matches.
type moduleStructure struct{}

func (moduleStructure) ID() types.RoutineID { return types.RoutineStructure }

func (moduleStructure) Run(_ context.Context, in Input) (types.RoutineResult, error) {
	perModule := map[string]int{}
	total := 0
	in.Each(func(h types.ScoredHit) {
		perModule[moduleOf(h.SourcePath)]++
		total++
	})

	details := map[string]any{"module_counts": toAnyMap(perModule)}
	if total == 0 {
		return types.RoutineResult{
			Name:     types.RoutineStructure,
			OK:       true,
			Guidance: "no hits to map onto module structure",
			Details:  details,
		}, nil
	}

	top, topCount := "", 0
	for mod, n := range perModule {
		if n > topCount || (n == topCount && mod < top) {
			top, topCount = mod, n
		}
	}
	details["top_module"] = top

	guidance := fmt.Sprintf("hits concentrate in %s (%d of %d)", top, topCount, total)
	if float64(topCount)/float64(total) < 0.5 && len(perModule) > 2 {
		guidance = fmt.Sprintf("hits scatter across %d modules with no clear owner; strongest is %s (%d of %d)",
			len(perModule), top, topCount, total)
	}

	return types.RoutineResult{
		Name:     types.RoutineStructure,
		OK:       true,
		Guidance: guidance,
		Details:  details,
	}, nil
}

// coachingHints tells the calling agent what to do with the results: read
// the strong match, reuse the recorded skill, or broaden the query before
// concluding the code does not exist.
type coachingHints struct{}

func (coachingHints) ID() types.RoutineID { return types.RoutineCoaching }

func (coachingHints) Run(_ context.Context, in Input) (types.RoutineResult, error) {
	details := map[string]any{}

	if in.TotalHits() == 0 {
		return types.RoutineResult{
			Name:     types.RoutineCoaching,
			OK:       true,
			Guidance: "nothing in the index matches; broaden the query or reindex the corpus before concluding the code does not exist",
			Details:  details,
		}, nil
	}

	var top types.ScoredHit
	in.Each(func(h types.ScoredHit) {
		if h.Score > top.Score {
			top = h
		}
	})
	details["top_score"] = round2(top.Score)
	details["top_path"] = top.SourcePath

	var notes []string
	if top.Score >= strongMatchScore {
		notes = append(notes, fmt.Sprintf("strong existing match at %s; read it before writing new code", top.SourcePath))
	} else {
		notes = append(notes, fmt.Sprintf("partial matches only; strongest is %s", top.SourcePath))
	}
	if skills := in.Hits[types.DocTypeSkill]; len(skills) > 0 {
		details["skill_path"] = skills[0].SourcePath
		notes = append(notes, fmt.Sprintf("a recorded skill covers this: %s", skills[0].SourcePath))
	}

	return types.RoutineResult{
		Name:     types.RoutineCoaching,
		OK:       true,
		Guidance: strings.Join(notes, "; "),
		Details:  details,
	}, nil
}

// orphanDetection flags code modules that surfaced with neither tests nor
// protocol documentation anywhere in the result set.
type orphanDetection struct{}

func (orphanDetection) ID() types.RoutineID { return types.RoutineOrphans }

func (orphanDetection) Run(_ context.Context, in Input) (types.RoutineResult, error) {
	codeMods := modulesWith(in.Hits[types.DocTypeCode])
	testMods := modulesWith(in.Hits[types.DocTypeTest])
	docMods := modulesWith(in.Hits[types.DocTypeProtocolDoc])

	var orphans []string
	for mod := range codeMods {
		if !testMods[mod] && !docMods[mod] {
			orphans = append(orphans, mod)
		}
	}
	sort.Strings(orphans)

	details := map[string]any{}
	guidance := "every retrieved code module has test or documentation presence"
	if len(orphans) > 0 {
		details["orphan_modules"] = orphans
		guidance = fmt.Sprintf("%d code modules surfaced with neither tests nor docs: %s",
			len(orphans), strings.Join(orphans, ", "))
	}

	return types.RoutineResult{
		Name:     types.RoutineOrphans,
		OK:       true,
		Guidance: guidance,
		Details:  details,
	}, nil
}

// docCompliance resolves protocol references in the query against the
// protocol_doc hits and reports documentation coverage otherwise.
type docCompliance struct{}

func (docCompliance) ID() types.RoutineID { return types.RoutineDocCompliance }

var protocolRefPattern = regexp.MustCompile(`(?i)\b(?:wsp|protocol)[ _-]?(\d+)\b`)

func (docCompliance) Run(_ context.Context, in Input) (types.RoutineResult, error) {
	refs := protocolRefs(in.Query.RawText)
	docHits := in.Hits[types.DocTypeProtocolDoc]

	details := map[string]any{}

	if len(refs) > 0 {
		var matched, missing []string
		for _, ref := range refs {
			if refAppears(ref, docHits) {
				matched = append(matched, ref)
			} else {
				missing = append(missing, ref)
			}
		}
		details["protocol_refs"] = refs
		if len(matched) > 0 {
			details["matched"] = matched
		}
		if len(missing) > 0 {
			details["missing"] = missing
		}
		guidance := fmt.Sprintf("all referenced protocols documented locally: %s", strings.Join(matched, ", "))
		if len(missing) > 0 {
			guidance = fmt.Sprintf("protocols not found in the local corpus: %s; compliance cannot be verified offline",
				strings.Join(missing, ", "))
		}
		return types.RoutineResult{
			Name:     types.RoutineDocCompliance,
			OK:       true,
			Guidance: guidance,
			Details:  details,
		}, nil
	}

	codeMods := modulesWith(in.Hits[types.DocTypeCode])
	docMods := modulesWith(docHits)
	var undocumented []string
	for mod := range codeMods {
		if !docMods[mod] {
			undocumented = append(undocumented, mod)
		}
	}
	sort.Strings(undocumented)

	guidance := fmt.Sprintf("%d protocol documents retrieved", len(docHits))
	if len(undocumented) > 0 {
		details["undocumented_modules"] = undocumented
		guidance += fmt.Sprintf("; modules without documentation in results: %s",
			strings.Join(undocumented, ", "))
	}

	return types.RoutineResult{
		Name:     types.RoutineDocCompliance,
		OK:       true,
		Guidance: guidance,
		Details:  details,
	}, nil
}

// protocolRefs extracts normalized protocol numbers ("wsp 42" -> "42") in
// order of first appearance, deduplicated.
func protocolRefs(text string) []string {
	seen := map[string]bool{}
	var refs []string
	for _, m := range protocolRefPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			refs = append(refs, m[1])
		}
	}
	return refs
}

func refAppears(ref string, hits []types.ScoredHit) bool {
	for _, h := range hits {
		folded := scorer.Fold(h.SourcePath + " " + h.Snippet)
		for _, m := range protocolRefPattern.FindAllStringSubmatch(folded, -1) {
			if m[1] == ref {
				return true
			}
		}
	}
	return false
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func toAnyMap(m map[string]int) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
