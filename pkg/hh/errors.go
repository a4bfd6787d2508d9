package hh

import "fmt"

// UnifyErrorKind classifies a recoverable unification failure. All of
// these cause the current clause attempt to be discarded and the
// inference table rolled back to the snapshot taken before the
// attempt; none of them are fatal to the surrounding solve.
type UnifyErrorKind int

const (
	ErrHeadMismatch UnifyErrorKind = iota
	ErrArityMismatch
	ErrOccursCheck
	ErrUniverseViolation
)

func (k UnifyErrorKind) String() string {
	switch k {
	case ErrHeadMismatch:
		return "head mismatch"
	case ErrArityMismatch:
		return "arity mismatch"
	case ErrOccursCheck:
		return "occurs check"
	case ErrUniverseViolation:
		return "universe violation"
	default:
		return "unify error"
	}
}

// UnifyError is returned by relate/unify whenever two terms cannot be
// made equal. Callers (fulfillment, the recursive solver) treat it as
// an ordinary negative result: roll back to the pre-attempt snapshot
// and move on to the next clause, rather than propagating a panic.
type UnifyError struct {
	Kind UnifyErrorKind
	Msg  string
}

func (e *UnifyError) Error() string {
	return fmt.Sprintf("hh: unify error (%s): %s", e.Kind, e.Msg)
}

func newUnifyError(kind UnifyErrorKind, format string, args ...interface{}) *UnifyError {
	return &UnifyError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// InvariantViolation marks a programmer error: shifting a term out
// below its free variables, binding an already-bound inference
// variable, or folding a term minted by a different interner. These
// are never produced by ill-formed client input, only by a bug in the
// engine itself, so callers are expected to let them panic rather than
// recover and continue.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string {
	return "hh: invariant violation: " + e.Msg
}
