package types

import (
	"errors"
	"sort"
	"testing"
)

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr error
	}{
		{"valid", Query{RawText: "where is the retry logic"}, nil},
		{"empty text", Query{RawText: ""}, ErrEmptyQuery},
		{"whitespace only", Query{RawText: "   \t\n"}, ErrEmptyQuery},
		{"negative limit", Query{RawText: "x", Limit: -1}, ErrInvalidLimit},
		{"unknown doc type", Query{RawText: "x", DocTypeFilter: []DocType{"binary"}}, ErrUnknownDocType},
		{"valid filter", Query{RawText: "x", DocTypeFilter: []DocType{DocTypeSkill}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestQueryEffectiveLimit(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultLimit},
		{5, 5},
		{MaxLimit, MaxLimit},
		{MaxLimit + 50, MaxLimit},
	}
	for _, tt := range tests {
		q := Query{RawText: "x", Limit: tt.limit}
		if got := q.EffectiveLimit(); got != tt.want {
			t.Errorf("EffectiveLimit() with limit %d = %d, want %d", tt.limit, got, tt.want)
		}
	}
}

func TestQueryDocTypesCanonicalOrder(t *testing.T) {
	q := Query{RawText: "x", DocTypeFilter: []DocType{DocTypeSkill, DocTypeCode, DocTypeCode}}
	got := q.DocTypes()
	want := []DocType{DocTypeCode, DocTypeSkill}
	if len(got) != len(want) {
		t.Fatalf("DocTypes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("DocTypes() = %v, want %v", got, want)
		}
	}

	unfiltered := Query{RawText: "x"}
	if len(unfiltered.DocTypes()) != len(AllDocTypes()) {
		t.Errorf("empty filter must target all doc types")
	}
}

func TestRawCandidateMalformed(t *testing.T) {
	ok := RawCandidate{Identifier: "a.go:1-5", SourcePath: "a.go"}
	if ok.Malformed() {
		t.Errorf("complete candidate reported malformed")
	}
	noID := RawCandidate{SourcePath: "a.go"}
	if !noID.Malformed() {
		t.Errorf("candidate without identifier must be malformed")
	}
	noPath := RawCandidate{Identifier: "a.go:1-5"}
	if !noPath.Malformed() {
		t.Errorf("candidate without source path must be malformed")
	}
}

func TestScoredHitOrdering(t *testing.T) {
	hits := []ScoredHit{
		{SourcePath: "pkg/deep/nested/handler.go", Score: 0.7},
		{SourcePath: "b.go", Score: 0.7},
		{SourcePath: "a.go", Score: 0.7},
		{SourcePath: "z.go", Score: 0.9},
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Less(&hits[j]) })

	want := []string{"z.go", "a.go", "b.go", "pkg/deep/nested/handler.go"}
	for i, path := range want {
		if hits[i].SourcePath != path {
			t.Fatalf("order[%d] = %s, want %s", i, hits[i].SourcePath, path)
		}
	}
}

func TestScoredHitValidate(t *testing.T) {
	valid := ScoredHit{
		SourcePath:     "a.go",
		DocType:        DocTypeCode,
		Similarity:     0.8,
		KeywordScore:   0.5,
		PriorityWeight: 0.7,
		Score:          0.69,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid hit rejected: %v", err)
	}

	zeroSim := valid
	zeroSim.Similarity = 0
	if !errors.Is(zeroSim.Validate(), ErrSimilarityOutOfRange) {
		t.Errorf("zero similarity must be rejected; survivors always carry similarity > 0")
	}

	overSim := valid
	overSim.Similarity = 1.1
	if !errors.Is(overSim.Validate(), ErrSimilarityOutOfRange) {
		t.Errorf("similarity above 1 must be rejected")
	}
}

func TestNewErrorBundleShape(t *testing.T) {
	b := NewErrorBundle("find retry", "store exploded")
	if b.OK {
		t.Errorf("error bundle must have ok=false")
	}
	if b.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %q, want %q", b.SchemaVersion, SchemaVersion)
	}
	if b.Diagnostic == "" {
		t.Errorf("error bundle must carry a diagnostic")
	}
	if b.Metadata.State != StateError {
		t.Errorf("State = %s, want %s", b.Metadata.State, StateError)
	}
	if b.TotalHits() != 0 {
		t.Errorf("error bundle must carry no hits")
	}
	if b.Metadata.Counts == nil {
		t.Errorf("Counts must be an empty map, not nil")
	}
}

func TestIntentPrecedenceOrder(t *testing.T) {
	want := []IntentClass{IntentDocLookup, IntentCodeLocation, IntentModuleHealth, IntentResearch, IntentGeneral}
	got := AllIntents()
	if len(got) != len(want) {
		t.Fatalf("AllIntents() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("precedence[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRoutineNetworkGate(t *testing.T) {
	for _, r := range []RoutineID{
		RoutineHealth, RoutineReinvention, RoutineOversized, RoutineStructure,
		RoutineCoaching, RoutineOrphans, RoutineDocCompliance,
	} {
		if r.RequiresNetwork() {
			t.Errorf("%s must not require network", r)
		}
	}
	if !RoutineResearch.RequiresNetwork() {
		t.Errorf("research lookup must be the only network-bound routine")
	}
}

func TestSessionStateTerminal(t *testing.T) {
	terminals := map[SessionState]bool{
		StateResultFound:   true,
		StateResultMissing: true,
		StateError:         true,
	}
	for _, s := range []SessionState{
		StateBootstrap, StateIndexReady, StateSearchExecuting,
		StateResultFound, StateResultMissing, StateError,
	} {
		if s.Terminal() != terminals[s] {
			t.Errorf("%s Terminal() = %v, want %v", s, s.Terminal(), terminals[s])
		}
	}
}
