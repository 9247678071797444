package types

import "errors"

// Domain errors for type validation and collaborator failures
var (
	// Query errors
	ErrEmptyQuery     = errors.New("query text cannot be empty")
	ErrInvalidLimit   = errors.New("limit must be positive")
	ErrUnknownDocType = errors.New("unknown doc type")

	// Hit validation errors
	ErrMissingSourcePath        = errors.New("source path is required")
	ErrSimilarityOutOfRange     = errors.New("similarity must be in (0, 1]")
	ErrKeywordScoreOutOfRange   = errors.New("keyword score must be between 0 and 1")
	ErrPriorityWeightOutOfRange = errors.New("priority weight must be between 0 and 1")
	ErrScoreOutOfRange          = errors.New("score must be between 0 and 1")

	// Session errors
	ErrInvalidTransition = errors.New("invalid session state transition")
)
