package indexer

import (
	"testing"

	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want types.DocType
	}{
		{"internal/auth/handler.go", types.DocTypeCode},
		{"src/billing/invoice.py", types.DocTypeCode},
		{"web/app.tsx", types.DocTypeCode},
		{"schema/users.sql", types.DocTypeCode},

		{"internal/auth/handler_test.go", types.DocTypeTest},
		{"tests/test_invoice.py", types.DocTypeTest},
		{"web/app.test.ts", types.DocTypeTest},
		{"web/app.spec.js", types.DocTypeTest},

		{"docs/protocol_12.md", types.DocTypeProtocolDoc},
		{"compliance/review.rst", types.DocTypeProtocolDoc},
		{"NOTES.txt", types.DocTypeProtocolDoc},
		// README is a doc even in a code tree.
		{"internal/auth/README.md", types.DocTypeProtocolDoc},

		{"skills/retry-backoff/SKILL.md", types.DocTypeSkill},
		{"SKILL.md", types.DocTypeSkill},

		// Not corpus content.
		{"bin/server", ""},
		{"go.sum", ""},
		{"assets/logo.png", ""},
	}
	for _, tt := range tests {
		if got := Classify(tt.path); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestClassifyTestNamingDoesNotLeakIntoStems(t *testing.T) {
	// "contest.go" ends in "test" but is not a test file.
	if got := Classify("pkg/contest.go"); got != types.DocTypeCode {
		t.Fatalf("Classify(contest.go) = %q, want code", got)
	}
	// "latest_test.go" is.
	if got := Classify("pkg/latest_test.go"); got != types.DocTypeTest {
		t.Fatalf("Classify(latest_test.go) = %q, want test", got)
	}
}
