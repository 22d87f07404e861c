package huffc

import "errors"

// Sentinel error kinds. Wrap with fmt.Errorf("%w: ...") at call sites
// for context the way the CLI reports path/offset.
var (
	// ErrInvalidHeader covers unsupported bits-per-symbol, out-of-range
	// dummy counts, and truncated headers.
	ErrInvalidHeader = errors.New("huffc: invalid header")

	// ErrMalformedStream covers a static decode finishing with cur != root
	// and an adaptive decode whose NYT bit buffer is neither empty nor full
	// at end of stream.
	ErrMalformedStream = errors.New("huffc: malformed stream")

	// ErrInvalidCodeLengths covers a code-length table that cannot form a
	// canonical tree.
	ErrInvalidCodeLengths = errors.New("huffc: invalid code lengths")

	// ErrInvariantViolation marks an internal-consistency failure (sibling
	// property, weight additivity). It must never occur on well-formed
	// input; tests should trigger none.
	ErrInvariantViolation = errors.New("huffc: invariant violation")
)
