package hh

import "fmt"

// BoundVar identifies a variable bound by an enclosing binder using De
// Bruijn indices: Debruijn counts how many binders out the variable is
// bound (0 = the innermost binder), and Index distinguishes variables
// bound by the same binder (e.g. the second parameter of a ∀⟨a,b⟩).
type BoundVar struct {
	Debruijn int
	Index    int
}

func (b BoundVar) String() string {
	return fmt.Sprintf("^%d.%d", b.Debruijn, b.Index)
}

// shifted returns b as seen from delta additional binders out, i.e.
// with Debruijn increased by delta.
func (b BoundVar) shifted(delta int) BoundVar {
	return BoundVar{Debruijn: b.Debruijn + delta, Index: b.Index}
}

// ParameterKind tags which of the three term sorts a bound variable,
// inference variable or canonical binder slot stands for.
type ParameterKind int

const (
	ParamKindTy ParameterKind = iota
	ParamKindLifetime
	ParamKindConst
)

func (k ParameterKind) String() string {
	switch k {
	case ParamKindTy:
		return "type"
	case ParamKindLifetime:
		return "lifetime"
	case ParamKindConst:
		return "const"
	default:
		return "unknown-kind"
	}
}

// CanonicalVarKind describes one slot in a Canonical's outer binder:
// what sort of term it stands for, and the universe it was drawn from.
type CanonicalVarKind struct {
	Kind     ParameterKind
	Universe UniverseIndex
}

// Canonical pairs a vector of binder slots with a body that refers to
// them purely through De Bruijn indices 0..n-1 against that outer
// binder. Two canonical forms that are bit-identical after this
// renaming are considered equal, which is what lets the solver cache
// and compare goals across distinct inference tables.
type Canonical[T any] struct {
	Binders []CanonicalVarKind
	Value   T
}

// NumVars returns how many variables the canonical body binds.
func (c Canonical[T]) NumVars() int {
	return len(c.Binders)
}

// UCanonical additionally renumbers the universes occurring in a
// Canonical's binder vector to a dense prefix U0..Uk-1, recording a
// UniverseMap to reverse the renaming. This is what makes two goals
// that differ only in the *names* of their universes compare equal.
type UCanonical[T any] struct {
	Canonical Canonical[T]
	Universes UniverseMap
}

func (c Canonical[T]) String() string {
	return fmt.Sprintf("Canonical[%d vars]", len(c.Binders))
}
