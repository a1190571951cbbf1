package relay

import (
	"errors"
	"fmt"
)

// Every failure kind gets its own sentinel so callers can distinguish them
// with errors.Is.  Nothing here retries, logs, or returns sentinels in place
// of errors.
var (
	// ErrInvalidArgument covers nil operations, nil sources, and nil
	// required constructor dependencies.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedStrategy is returned when a dispatcher was built with
	// a Strategy value the dispatch switch does not recognize.
	ErrUnsupportedStrategy = errors.New("unsupported dispatch strategy")

	// ErrNoTargets is returned by round-robin selection against an empty
	// target set.
	ErrNoTargets = errors.New("no targets available")

	// ErrAllTargetsFailed matches AllTargetsFailedError via errors.Is.
	ErrAllTargetsFailed = errors.New("all targets failed")

	// ErrNotRegistered is returned when a type has no binding in the
	// registry, or when no conditional rule matched and no fallback was
	// configured.
	ErrNotRegistered = errors.New("not registered")

	// ErrEmptyChain is returned by Chain.Execute when no steps were added.
	ErrEmptyChain = errors.New("adapter chain has no steps configured")

	// ErrStepMismatch is returned when a chain step's source type does not
	// line up with what the chain produces at that point.  The violation is
	// detected when the step is added and reported by Execute.
	ErrStepMismatch = errors.New("adapter chain step types do not line up")

	// ErrSourceTypeMismatch is returned when the value handed to Execute
	// is not of the first step's declared source type.
	ErrSourceTypeMismatch = errors.New("source type mismatch")

	// ErrInvalidTransformer is returned when a resolved transformer does
	// not expose a usable Transform method for its step.
	ErrInvalidTransformer = errors.New("invalid transformer")

	// ErrResultTypeMismatch is returned when the value coming out of the
	// final step is not of the chain's declared result type.
	ErrResultTypeMismatch = errors.New("result type mismatch")
)

// AllTargetsFailedError reports that every target raised under the Failover
// or FirstSuccessful strategies.  Only the last underlying failure is kept;
// earlier ones are discarded on purpose.
type AllTargetsFailedError struct {
	Targets int
	Last    error
}

func (e *AllTargetsFailedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("all %d targets failed", e.Targets)
	}
	return fmt.Sprintf("all %d targets failed, last: %s", e.Targets, e.Last)
}

// Unwrap exposes the last underlying failure for diagnostic chaining.
func (e *AllTargetsFailedError) Unwrap() error { return e.Last }

// Is lets errors.Is(err, ErrAllTargetsFailed) succeed without losing the
// wrapped cause.
func (e *AllTargetsFailedError) Is(target error) bool {
	return target == ErrAllTargetsFailed
}
