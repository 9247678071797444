package routines

import (
	"context"
	"strings"
	"testing"

	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

func hitAt(dt types.DocType, path string, score float64) types.ScoredHit {
	return types.ScoredHit{
		SourcePath:     path,
		DocType:        dt,
		Similarity:     score,
		KeywordScore:   score,
		PriorityWeight: 0.7,
		Score:          score,
	}
}

func inputFor(query string, hits map[types.DocType][]types.ScoredHit) Input {
	if hits == nil {
		hits = map[types.DocType][]types.ScoredHit{}
	}
	return Input{Query: &types.Query{RawText: query}, Hits: hits}
}

func run(t *testing.T, r Routine, in Input) types.RoutineResult {
	t.Helper()
	res, err := r.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("%s Run() error = %v", r.ID(), err)
	}
	if res.Name != r.ID() {
		t.Fatalf("result name = %s, want %s", res.Name, r.ID())
	}
	return res
}

func TestModuleOf(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"internal/retry/backoff.go", "internal/retry"},
		{"modules/auth/session/token.go", "modules/auth"},
		{"main.go", "."},
		{"/internal/retry/backoff.go", "internal/retry"},
		{"docs/wsp_42.md", "docs"},
	}
	for _, tt := range tests {
		if got := moduleOf(tt.path); got != tt.want {
			t.Errorf("moduleOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestHealthAnalysisFlagsUntestedModules(t *testing.T) {
	res := run(t, healthAnalysis{}, inputFor("retry", map[types.DocType][]types.ScoredHit{
		types.DocTypeCode: {
			hitAt(types.DocTypeCode, "internal/retry/backoff.go", 0.8),
			hitAt(types.DocTypeCode, "internal/db/pool.go", 0.6),
		},
		types.DocTypeTest: {
			hitAt(types.DocTypeTest, "internal/retry/backoff_test.go", 0.7),
		},
	}))

	if !res.OK || res.Degraded {
		t.Fatalf("health must succeed, got %+v", res)
	}
	if res.Details["total_hits"] != 3 {
		t.Errorf("total_hits = %v, want 3", res.Details["total_hits"])
	}
	untested, _ := res.Details["untested_modules"].([]string)
	if len(untested) != 1 || untested[0] != "internal/db" {
		t.Errorf("untested_modules = %v, want [internal/db]", untested)
	}
	if !strings.Contains(res.Guidance, "internal/db") {
		t.Errorf("guidance %q must name the untested module", res.Guidance)
	}
}

func TestReinventionDetectsDuplicateBasenames(t *testing.T) {
	res := run(t, reinventionDetection{}, inputFor("login flow", map[types.DocType][]types.ScoredHit{
		types.DocTypeCode: {
			hitAt(types.DocTypeCode, "modules/auth/login.go", 0.6),
			hitAt(types.DocTypeCode, "platform/gateway/login.go", 0.55),
		},
	}))

	dups, ok := res.Details["duplicate_basenames"].(map[string]any)
	if !ok {
		t.Fatalf("duplicate_basenames missing: %v", res.Details)
	}
	mods, _ := dups["login"].([]string)
	if len(mods) != 2 {
		t.Errorf("login duplicated in %v, want 2 modules", mods)
	}
}

func TestReinventionFlagsExistingOnCreationQuery(t *testing.T) {
	hits := map[types.DocType][]types.ScoredHit{
		types.DocTypeCode: {hitAt(types.DocTypeCode, "internal/retry/backoff.go", 0.82)},
	}

	res := run(t, reinventionDetection{}, inputFor("implement retry backoff", hits))
	if _, ok := res.Details["existing_implementations"]; !ok {
		t.Errorf("creation query with strong match must flag existing implementations: %v", res.Details)
	}

	res = run(t, reinventionDetection{}, inputFor("how does retry backoff work", hits))
	if _, ok := res.Details["existing_implementations"]; ok {
		t.Errorf("non-creation query must not flag existing implementations")
	}
}

func TestOversizedFilesUsesObservedLines(t *testing.T) {
	big := hitAt(types.DocTypeCode, "modules/holo/engine.go", 0.6)
	big.EndLine = 950
	small := hitAt(types.DocTypeCode, "modules/holo/util.go", 0.6)
	small.EndLine = 120

	res := run(t, oversizedFiles{threshold: 800}, inputFor("engine", map[types.DocType][]types.ScoredHit{
		types.DocTypeCode: {big, small},
	}))

	entries, ok := res.Details["oversized"].([]map[string]any)
	if !ok || len(entries) != 1 {
		t.Fatalf("oversized = %v, want one entry", res.Details["oversized"])
	}
	if entries[0]["source_path"] != "modules/holo/engine.go" {
		t.Errorf("flagged %v, want modules/holo/engine.go", entries[0]["source_path"])
	}
	if entries[0]["observed_lines"] != 950 {
		t.Errorf("observed_lines = %v, want 950", entries[0]["observed_lines"])
	}
}

func TestOversizedFilesQuietBelowThreshold(t *testing.T) {
	h := hitAt(types.DocTypeCode, "a.go", 0.6)
	h.EndLine = 60
	res := run(t, oversizedFiles{threshold: 800}, inputFor("x", map[types.DocType][]types.ScoredHit{
		types.DocTypeCode: {h},
	}))
	if _, ok := res.Details["oversized"]; ok {
		t.Errorf("below-threshold hit must not be flagged")
	}
}

func TestModuleStructureConcentration(t *testing.T) {
	res := run(t, moduleStructure{}, inputFor("retry", map[types.DocType][]types.ScoredHit{
		types.DocTypeCode: {
			hitAt(types.DocTypeCode, "internal/retry/backoff.go", 0.8),
			hitAt(types.DocTypeCode, "internal/retry/jitter.go", 0.7),
			hitAt(types.DocTypeCode, "internal/retry/budget.go", 0.6),
			hitAt(types.DocTypeCode, "pkg/util/clock.go", 0.5),
		},
	}))

	if res.Details["top_module"] != "internal/retry" {
		t.Errorf("top_module = %v, want internal/retry", res.Details["top_module"])
	}
	if !strings.Contains(res.Guidance, "concentrate in internal/retry (3 of 4)") {
		t.Errorf("guidance = %q, want concentration note", res.Guidance)
	}
}

func TestModuleStructureScatter(t *testing.T) {
	res := run(t, moduleStructure{}, inputFor("util", map[types.DocType][]types.ScoredHit{
		types.DocTypeCode: {
			hitAt(types.DocTypeCode, "a/x/one.go", 0.5),
			hitAt(types.DocTypeCode, "b/y/two.go", 0.5),
			hitAt(types.DocTypeCode, "c/z/three.go", 0.5),
			hitAt(types.DocTypeCode, "d/w/four.go", 0.5),
		},
	}))
	if !strings.Contains(res.Guidance, "scatter") {
		t.Errorf("guidance = %q, want scatter note", res.Guidance)
	}
}

func TestCoachingZeroHitsGuidesCreation(t *testing.T) {
	res := run(t, coachingHints{}, inputFor("quantum scheduler", nil))
	if !strings.Contains(res.Guidance, "broaden the query") {
		t.Errorf("zero-hit guidance = %q, want broaden-the-query note", res.Guidance)
	}
}

func TestCoachingStrongMatchSaysReadFirst(t *testing.T) {
	res := run(t, coachingHints{}, inputFor("retry backoff", map[types.DocType][]types.ScoredHit{
		types.DocTypeCode: {hitAt(types.DocTypeCode, "internal/retry/backoff.go", 0.82)},
		types.DocTypeSkill: {
			hitAt(types.DocTypeSkill, "skills/retry/SKILL.md", 0.78),
		},
	}))

	if !strings.Contains(res.Guidance, "read it before writing new code") {
		t.Errorf("guidance = %q, want read-first note", res.Guidance)
	}
	if !strings.Contains(res.Guidance, "skills/retry/SKILL.md") {
		t.Errorf("guidance = %q, want the recorded skill", res.Guidance)
	}
	if res.Details["top_path"] != "internal/retry/backoff.go" {
		t.Errorf("top_path = %v", res.Details["top_path"])
	}
}

func TestOrphanDetection(t *testing.T) {
	res := run(t, orphanDetection{}, inputFor("cleanup", map[types.DocType][]types.ScoredHit{
		types.DocTypeCode: {
			hitAt(types.DocTypeCode, "modules/legacy/glue.go", 0.5),
			hitAt(types.DocTypeCode, "internal/retry/backoff.go", 0.6),
		},
		types.DocTypeTest: {
			hitAt(types.DocTypeTest, "internal/retry/backoff_test.go", 0.6),
		},
	}))

	orphans, _ := res.Details["orphan_modules"].([]string)
	if len(orphans) != 1 || orphans[0] != "modules/legacy" {
		t.Errorf("orphan_modules = %v, want [modules/legacy]", orphans)
	}
}

func TestDocComplianceResolvesProtocolRefs(t *testing.T) {
	docHit := hitAt(types.DocTypeProtocolDoc, "docs/wsp_42.md", 0.9)
	docHit.Snippet = "WSP 42: module size and hygiene requirements"

	res := run(t, docCompliance{}, inputFor("does this violate wsp 42 and wsp 99",
		map[types.DocType][]types.ScoredHit{
			types.DocTypeProtocolDoc: {docHit},
		}))

	matched, _ := res.Details["matched"].([]string)
	missing, _ := res.Details["missing"].([]string)
	if len(matched) != 1 || matched[0] != "42" {
		t.Errorf("matched = %v, want [42]", matched)
	}
	if len(missing) != 1 || missing[0] != "99" {
		t.Errorf("missing = %v, want [99]", missing)
	}
	if !strings.Contains(res.Guidance, "cannot be verified offline") {
		t.Errorf("guidance = %q, want offline-verification note", res.Guidance)
	}
}

func TestDocComplianceReportsUndocumentedModules(t *testing.T) {
	res := run(t, docCompliance{}, inputFor("retry helpers", map[types.DocType][]types.ScoredHit{
		types.DocTypeCode: {hitAt(types.DocTypeCode, "internal/retry/backoff.go", 0.7)},
	}))

	undoc, _ := res.Details["undocumented_modules"].([]string)
	if len(undoc) != 1 || undoc[0] != "internal/retry" {
		t.Errorf("undocumented_modules = %v, want [internal/retry]", undoc)
	}
}

func TestProtocolRefsDeduplicated(t *testing.T) {
	refs := protocolRefs("wsp 42, WSP-42, protocol 7")
	if len(refs) != 2 || refs[0] != "42" || refs[1] != "7" {
		t.Errorf("protocolRefs = %v, want [42 7]", refs)
	}
}

func TestNewRegistryContents(t *testing.T) {
	reg := NewRegistry(Options{})
	if len(reg) != 7 {
		t.Fatalf("registry has %d routines, want 7 without research", len(reg))
	}
	for id, r := range reg {
		if r.ID() != id {
			t.Errorf("registry key %s maps to routine %s", id, r.ID())
		}
		if id.RequiresNetwork() {
			t.Errorf("local registry must not contain network routines, found %s", id)
		}
	}

	reg = NewRegistry(Options{Research: NewResearch("http://example.test", 0, nil)})
	if _, ok := reg[types.RoutineResearch]; !ok {
		t.Errorf("research routine missing after registration")
	}
	if len(reg) != 8 {
		t.Errorf("registry has %d routines, want 8 with research", len(reg))
	}
}
