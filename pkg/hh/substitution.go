package hh

import "fmt"

// Substitution maps the De Bruijn slots of one binder to concrete
// generic arguments. Applying it is the single operation every
// binder-opening step in this package reduces to: opening a ∀ or ∃,
// instantiating a clause, or resolving a canonical form's outer binder
// all apply a Substitution built from fresh placeholders or inference
// variables.
type Substitution struct {
	Args []GenericArg
}

// NewSubstitution builds a Substitution from a slice of arguments,
// ordered so Args[i] replaces bound index i.
func NewSubstitution(args []GenericArg) *Substitution {
	return &Substitution{Args: args}
}

func (s *Substitution) String() string {
	return fmt.Sprintf("Substitution(%d args)", len(s.Args))
}

// substFolder removes exactly one binder (the one at relative depth 0
// when the fold started) by replacing its bound variables with s.Args,
// and renumbers every variable bound further out by one fewer binder.
type substFolder struct {
	IdentityFolder
	interner *Interner
	s        *Substitution
}

func (f substFolder) argFor(v BoundVar, outerBinder int) (GenericArg, bool) {
	if v.Debruijn != outerBinder {
		return GenericArg{}, false
	}
	if v.Index < 0 || v.Index >= len(f.s.Args) {
		panic(fmt.Sprintf("hh: substitution has no argument for bound index %d (binder has %d slots)", v.Index, len(f.s.Args)))
	}
	return f.s.Args[v.Index], true
}

func (f substFolder) FoldTyVar(in *Interner, v BoundVar, outerBinder int) *Type {
	if arg, ok := f.argFor(v, outerBinder); ok {
		if arg.Kind != ArgKindTy {
			panic("hh: substitution kind mismatch: expected type argument")
		}
		return ShiftInTy(in, arg.Ty, outerBinder)
	}
	if v.Debruijn > outerBinder {
		return in.InternTy(BoundVarTy{Var: BoundVar{Debruijn: v.Debruijn - 1, Index: v.Index}})
	}
	return in.InternTy(BoundVarTy{Var: v})
}

func (f substFolder) FoldLifetimeVar(in *Interner, v BoundVar, outerBinder int) *Lifetime {
	if arg, ok := f.argFor(v, outerBinder); ok {
		if arg.Kind != ArgKindLifetime {
			panic("hh: substitution kind mismatch: expected lifetime argument")
		}
		return shiftInLifetime(in, arg.Lifetime, outerBinder)
	}
	if v.Debruijn > outerBinder {
		return in.InternLifetime(BoundVarLt{Var: BoundVar{Debruijn: v.Debruijn - 1, Index: v.Index}})
	}
	return in.InternLifetime(BoundVarLt{Var: v})
}

func (f substFolder) FoldConstVar(in *Interner, v BoundVar, outerBinder int) *Const {
	if arg, ok := f.argFor(v, outerBinder); ok {
		if arg.Kind != ArgKindConst {
			panic("hh: substitution kind mismatch: expected const argument")
		}
		return shiftInConst(in, arg.Const, outerBinder)
	}
	if v.Debruijn > outerBinder {
		return in.InternConst(BoundVarConst{Var: BoundVar{Debruijn: v.Debruijn - 1, Index: v.Index}})
	}
	return in.InternConst(BoundVarConst{Var: v})
}

func shiftInLifetime(in *Interner, l *Lifetime, n int) *Lifetime {
	return FoldLifetime(in, l, shiftFolder{delta: n}, 0)
}

func shiftInConst(in *Interner, c *Const, n int) *Const {
	return FoldConst(in, c, shiftFolder{delta: n}, 0)
}

// ApplySubstitutionType substitutes the outermost binder of t with s.
func ApplySubstitutionType(in *Interner, t *Type, s *Substitution) *Type {
	return FoldType(in, t, substFolder{interner: in, s: s}, 0)
}

// ApplySubstitutionGoal substitutes the outermost binder of g with s.
func ApplySubstitutionGoal(in *Interner, g *Goal, s *Substitution) *Goal {
	return FoldGoal(in, g, substFolder{interner: in, s: s}, 0)
}

// ApplySubstitutionClause substitutes the outermost binder of a
// clause's own quantifier with s; used when a clause carries no
// binders of its own (s has zero args) this is a no-op identity.
func ApplySubstitutionClause(in *Interner, c *Clause, s *Substitution) *Clause {
	return FoldClause(in, c, substFolder{interner: in, s: s}, 0)
}

// ApplySubstitutionArg substitutes the outermost binder inside a.
func ApplySubstitutionArg(in *Interner, a GenericArg, s *Substitution) GenericArg {
	return FoldGenericArg(in, a, substFolder{interner: in, s: s}, 0)
}

// ApplySubstitutionLifetime substitutes the outermost binder of l with s.
func ApplySubstitutionLifetime(in *Interner, l *Lifetime, s *Substitution) *Lifetime {
	return FoldLifetime(in, l, substFolder{interner: in, s: s}, 0)
}
