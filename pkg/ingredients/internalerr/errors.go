package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNoBlocks      = errors.New("tagger produced no ingredient blocks")
	ErrMalformedLine = errors.New("malformed tagger output line")
	ErrModelMissing  = errors.New("tagger model not found")
	ErrInvocation    = errors.New("tagger invocation failed")
	ErrInvalidConfig = errors.New("invalid configuration")
)
