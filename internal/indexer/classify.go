package indexer

import (
	"path"
	"strings"

	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

// codeExtensions lists source file extensions indexed into the code and test
// collections. The corpus is mixed-language, so this is broader than Go.
var codeExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".jsx": true, ".ts": true,
	".tsx": true, ".java": true, ".rs": true, ".c": true, ".h": true,
	".cpp": true, ".hpp": true, ".cs": true, ".rb": true, ".sh": true,
	".sql": true,
}

// docExtensions lists document extensions indexed into protocol_doc.
var docExtensions = map[string]bool{
	".md": true, ".rst": true, ".txt": true,
}

// Classify maps a slash-separated relative path to its collection. Files
// outside the known extension sets return the empty doc type and are not
// indexed.
func Classify(relPath string) types.DocType {
	base := path.Base(relPath)
	if base == "SKILL.md" {
		return types.DocTypeSkill
	}

	ext := strings.ToLower(path.Ext(base))
	if docExtensions[ext] {
		return types.DocTypeProtocolDoc
	}
	if codeExtensions[ext] {
		if isTestName(strings.ToLower(base), ext) {
			return types.DocTypeTest
		}
		return types.DocTypeCode
	}
	return ""
}

// isTestName recognizes the common test naming conventions across the
// corpus's languages: Go's _test suffix, Python's test_ prefix, and the
// dotted .test. infix used by JS toolchains.
func isTestName(base, ext string) bool {
	stem := strings.TrimSuffix(base, ext)
	return strings.HasSuffix(stem, "_test") ||
		strings.HasPrefix(stem, "test_") ||
		strings.HasSuffix(stem, ".test") ||
		strings.HasSuffix(stem, ".spec")
}
