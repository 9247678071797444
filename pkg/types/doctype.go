package types

import "fmt"

// DocType identifies a logical collection of the corpus.
type DocType string

const (
	// DocTypeCode is source code indexed from module trees.
	DocTypeCode DocType = "code"
	// DocTypeProtocolDoc is compliance and protocol documentation.
	DocTypeProtocolDoc DocType = "protocol_doc"
	// DocTypeTest is test sources.
	DocTypeTest DocType = "test"
	// DocTypeSkill is reusable skill snippets discovered from SKILL.md files.
	DocTypeSkill DocType = "skill"
)

// AllDocTypes returns every doc type in canonical order. The order is fixed
// and doubles as the cross-type tie-break: when hits of different types carry
// identical scores, code sorts before protocol_doc, then test, then skill.
func AllDocTypes() []DocType {
	return []DocType{DocTypeCode, DocTypeProtocolDoc, DocTypeTest, DocTypeSkill}
}

// ParseDocType converts a string to a DocType.
func ParseDocType(s string) (DocType, error) {
	switch DocType(s) {
	case DocTypeCode, DocTypeProtocolDoc, DocTypeTest, DocTypeSkill:
		return DocType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDocType, s)
	}
}

// Valid reports whether the doc type is one of the known collections.
func (d DocType) Valid() bool {
	switch d {
	case DocTypeCode, DocTypeProtocolDoc, DocTypeTest, DocTypeSkill:
		return true
	}
	return false
}

// Rank returns the position of the doc type in canonical order,
// or len(AllDocTypes()) for unknown values.
func (d DocType) Rank() int {
	for i, t := range AllDocTypes() {
		if t == d {
			return i
		}
	}
	return len(AllDocTypes())
}
