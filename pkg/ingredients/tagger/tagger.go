// Package tagger defines the sequence-tagger capability and its
// implementations. A tagger receives export text (one token per line, tab
// separated features, blank line between ingredients) and returns the same
// lines with a trailing TAG/confidence column.
package tagger

import (
	"context"
	"fmt"

	"github.com/cognicore/ingredients/pkg/ingredients/internalerr"
)

// Tagger assigns one tag and confidence to every token line of input.
type Tagger interface {
	Tag(ctx context.Context, input string) (string, error)
}

// Fingerprinter is implemented by taggers whose output is fully determined
// by a fixed artifact. The fingerprint changes whenever that artifact does.
type Fingerprinter interface {
	Fingerprint() string
}

// Func adapts an ordinary function to the Tagger interface.
type Func func(ctx context.Context, input string) (string, error)

// Tag calls f(ctx, input).
func (f Func) Tag(ctx context.Context, input string) (string, error) {
	return f(ctx, input)
}

// InvocationError reports a tagger that could not produce output.
type InvocationError struct {
	Tagger   string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *InvocationError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Tagger, e.Err)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Is makes errors.Is(err, internalerr.ErrInvocation) hold.
func (e *InvocationError) Is(target error) bool {
	return target == internalerr.ErrInvocation
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
