package hh

import "fmt"

// Folder is the single recursion scheme every binder-aware operation
// in this package is built from: substitution, shifting, universe
// renaming and canonicalization are all folders that differ only in
// what they do at a variable occurrence. Fold walks a term and invokes
// the matching callback at each bound-variable, inference-variable or
// placeholder leaf, passing outerBinder (how many binders the walk has
// descended through so far) so the folder can adjust De Bruijn depths.
//
// A Folder that does not need to touch one of the three term sorts can
// embed IdentityFolder to inherit a pass-through implementation.
type Folder interface {
	FoldTyVar(in *Interner, v BoundVar, outerBinder int) *Type
	FoldTyInferenceVar(in *Interner, v InferenceVarID, outerBinder int) *Type
	FoldTyPlaceholder(in *Interner, p Placeholder, outerBinder int) *Type

	FoldLifetimeVar(in *Interner, v BoundVar, outerBinder int) *Lifetime
	FoldLifetimeInferenceVar(in *Interner, v InferenceVarID, outerBinder int) *Lifetime
	FoldLifetimePlaceholder(in *Interner, p Placeholder, outerBinder int) *Lifetime

	FoldConstVar(in *Interner, v BoundVar, outerBinder int) *Const
	FoldConstInferenceVar(in *Interner, v InferenceVarID, outerBinder int) *Const
	FoldConstPlaceholder(in *Interner, p Placeholder, outerBinder int) *Const
}

// IdentityFolder implements Folder by reconstructing the same variable
// it was given, shifted by nothing. Embed it and override only the
// callbacks a particular folder actually cares about.
type IdentityFolder struct{}

func (IdentityFolder) FoldTyVar(in *Interner, v BoundVar, _ int) *Type {
	return in.InternTy(BoundVarTy{Var: v})
}
func (IdentityFolder) FoldTyInferenceVar(in *Interner, v InferenceVarID, _ int) *Type {
	return in.InternTy(InferenceVarTy{Var: v})
}
func (IdentityFolder) FoldTyPlaceholder(in *Interner, p Placeholder, _ int) *Type {
	return in.InternTy(PlaceholderTy{Placeholder: p})
}
func (IdentityFolder) FoldLifetimeVar(in *Interner, v BoundVar, _ int) *Lifetime {
	return in.InternLifetime(BoundVarLt{Var: v})
}
func (IdentityFolder) FoldLifetimeInferenceVar(in *Interner, v InferenceVarID, _ int) *Lifetime {
	return in.InternLifetime(InferenceVarLt{Var: v})
}
func (IdentityFolder) FoldLifetimePlaceholder(in *Interner, p Placeholder, _ int) *Lifetime {
	return in.InternLifetime(PlaceholderLt{Placeholder: p})
}
func (IdentityFolder) FoldConstVar(in *Interner, v BoundVar, _ int) *Const {
	return in.InternConst(BoundVarConst{Var: v})
}
func (IdentityFolder) FoldConstInferenceVar(in *Interner, v InferenceVarID, _ int) *Const {
	return in.InternConst(InferenceVarConst{Var: v})
}
func (IdentityFolder) FoldConstPlaceholder(in *Interner, p Placeholder, _ int) *Const {
	return in.InternConst(PlaceholderConst{Placeholder: p})
}

// FoldType recurses over t, invoking f at every variable leaf and
// reinterning every structural node whose children changed.
// outerBinder counts how many binders this call has already descended
// through; it is threaded so f can tell a variable bound locally
// (Debruijn < outerBinder) from one free relative to the fold's start.
func FoldType(in *Interner, t *Type, f Folder, outerBinder int) *Type {
	switch d := t.data.(type) {
	case BoundVarTy:
		return f.FoldTyVar(in, d.Var, outerBinder)
	case InferenceVarTy:
		return f.FoldTyInferenceVar(in, d.Var, outerBinder)
	case PlaceholderTy:
		return f.FoldTyPlaceholder(in, d.Placeholder, outerBinder)
	case AdtTy:
		return in.InternTy(AdtTy{ID: d.ID, Args: foldArgs(in, d.Args, f, outerBinder)})
	case TupleTy:
		elems := make([]*Type, len(d.Elems))
		for i, e := range d.Elems {
			elems[i] = FoldType(in, e, f, outerBinder)
		}
		return in.InternTy(TupleTy{Elems: elems})
	case ArrayTy:
		return in.InternTy(ArrayTy{
			Elem: FoldType(in, d.Elem, f, outerBinder),
			Len:  FoldConst(in, d.Len, f, outerBinder),
		})
	case SliceTy:
		return in.InternTy(SliceTy{Elem: FoldType(in, d.Elem, f, outerBinder)})
	case RefTy:
		return in.InternTy(RefTy{
			Lifetime: FoldLifetime(in, d.Lifetime, f, outerBinder),
			Mutable:  d.Mutable,
			Referent: FoldType(in, d.Referent, f, outerBinder),
		})
	case RawPtrTy:
		return in.InternTy(RawPtrTy{Mutable: d.Mutable, Pointee: FoldType(in, d.Pointee, f, outerBinder)})
	case FnDefTy:
		return in.InternTy(FnDefTy{ID: d.ID, Args: foldArgs(in, d.Args, f, outerBinder)})
	case FnPointerTy:
		inner := outerBinder + d.NumBinders
		params := make([]*Type, len(d.Params))
		for i, p := range d.Params {
			params[i] = FoldType(in, p, f, inner)
		}
		return in.InternTy(FnPointerTy{
			NumBinders: d.NumBinders,
			Safety:     d.Safety,
			ABI:        d.ABI,
			Variadic:   d.Variadic,
			Params:     params,
			Return:     FoldType(in, d.Return, f, inner),
		})
	case ClosureTy:
		return in.InternTy(ClosureTy{ID: d.ID, Args: foldArgs(in, d.Args, f, outerBinder)})
	case CoroutineTy:
		return in.InternTy(CoroutineTy{ID: d.ID, Args: foldArgs(in, d.Args, f, outerBinder)})
	case ProjectionTy:
		return in.InternTy(ProjectionTy{AssocTypeID: d.AssocTypeID, Args: foldArgs(in, d.Args, f, outerBinder)})
	case OpaqueTy:
		return in.InternTy(OpaqueTy{ID: d.ID, Args: foldArgs(in, d.Args, f, outerBinder)})
	case DynTy:
		bounds := make([]*QuantifiedWhereClause, len(d.Bounds))
		for i, b := range d.Bounds {
			bounds[i] = &QuantifiedWhereClause{
				Binders: b.Binders,
				Goal:    FoldGoal(in, b.Goal, f, outerBinder+len(b.Binders)),
			}
		}
		return in.InternTy(DynTy{Bounds: bounds, Lifetime: FoldLifetime(in, d.Lifetime, f, outerBinder)})
	case NeverTy, ScalarTy, ErrorTy:
		return t
	default:
		panic(fmt.Sprintf("hh: unhandled TypeData %T in FoldType", d))
	}
}

func foldArgs(in *Interner, args []GenericArg, f Folder, outerBinder int) []GenericArg {
	out := make([]GenericArg, len(args))
	for i, a := range args {
		out[i] = FoldGenericArg(in, a, f, outerBinder)
	}
	return out
}

// FoldGenericArg folds whichever of Ty, Lifetime or Const the argument carries.
func FoldGenericArg(in *Interner, a GenericArg, f Folder, outerBinder int) GenericArg {
	switch a.Kind {
	case ArgKindTy:
		return TyArg(FoldType(in, a.Ty, f, outerBinder))
	case ArgKindLifetime:
		return LifetimeArg(FoldLifetime(in, a.Lifetime, f, outerBinder))
	default:
		return ConstArg(FoldConst(in, a.Const, f, outerBinder))
	}
}

// FoldLifetime recurses over l.
func FoldLifetime(in *Interner, l *Lifetime, f Folder, outerBinder int) *Lifetime {
	switch d := l.data.(type) {
	case BoundVarLt:
		return f.FoldLifetimeVar(in, d.Var, outerBinder)
	case InferenceVarLt:
		return f.FoldLifetimeInferenceVar(in, d.Var, outerBinder)
	case PlaceholderLt:
		return f.FoldLifetimePlaceholder(in, d.Placeholder, outerBinder)
	default:
		return l // static, erased, empty, error: no variables inside
	}
}

// FoldConst recurses over c.
func FoldConst(in *Interner, c *Const, f Folder, outerBinder int) *Const {
	switch d := c.data.(type) {
	case BoundVarConst:
		return f.FoldConstVar(in, d.Var, outerBinder)
	case InferenceVarConst:
		return f.FoldConstInferenceVar(in, d.Var, outerBinder)
	case PlaceholderConst:
		return f.FoldConstPlaceholder(in, d.Placeholder, outerBinder)
	case ConcreteConst:
		return in.InternConst(ConcreteConst{Ty: FoldType(in, d.Ty, f, outerBinder), Value: d.Value})
	default:
		panic(fmt.Sprintf("hh: unhandled ConstData %T in FoldConst", d))
	}
}

// FoldGoal recurses over g, descending outerBinder across ∀/∃ binders
// and across the extra slots a hypothetical's own clause binders add.
func FoldGoal(in *Interner, g *Goal, f Folder, outerBinder int) *Goal {
	switch d := g.data.(type) {
	case ImplementedTraitGoal:
		return in.InternGoal(ImplementedTraitGoal{Trait: d.Trait, Args: foldArgs(in, d.Args, f, outerBinder)})
	case ProjectionEqGoal:
		return in.InternGoal(ProjectionEqGoal{
			Projection: FoldType(in, d.Projection, f, outerBinder),
			Ty:         FoldType(in, d.Ty, f, outerBinder),
		})
	case NormalizeGoal:
		return in.InternGoal(NormalizeGoal{
			Projection: FoldType(in, d.Projection, f, outerBinder),
			Ty:         FoldType(in, d.Ty, f, outerBinder),
		})
	case WellFormedTyGoal:
		return in.InternGoal(WellFormedTyGoal{Ty: FoldType(in, d.Ty, f, outerBinder)})
	case WellFormedTraitGoal:
		return in.InternGoal(WellFormedTraitGoal{Trait: d.Trait, Args: foldArgs(in, d.Args, f, outerBinder)})
	case FromEnvTyGoal:
		return in.InternGoal(FromEnvTyGoal{Ty: FoldType(in, d.Ty, f, outerBinder)})
	case FromEnvTraitGoal:
		return in.InternGoal(FromEnvTraitGoal{Trait: d.Trait, Args: foldArgs(in, d.Args, f, outerBinder)})
	case IsLocalGoal:
		return in.InternGoal(IsLocalGoal{Ty: FoldType(in, d.Ty, f, outerBinder)})
	case IsUpstreamGoal:
		return in.InternGoal(IsUpstreamGoal{Ty: FoldType(in, d.Ty, f, outerBinder)})
	case DownstreamTypeGoal:
		return in.InternGoal(DownstreamTypeGoal{Ty: FoldType(in, d.Ty, f, outerBinder)})
	case CompatibleModeGoal, ObjectSafeGoal:
		return g
	case EqGoal:
		return in.InternGoal(EqGoal{
			A:        FoldGenericArg(in, d.A, f, outerBinder),
			B:        FoldGenericArg(in, d.B, f, outerBinder),
			Variance: d.Variance,
		})
	case ForallGoal:
		return in.InternGoal(ForallGoal{Binders: d.Binders, Body: FoldGoal(in, d.Body, f, outerBinder+len(d.Binders))})
	case ExistsGoal:
		return in.InternGoal(ExistsGoal{Binders: d.Binders, Body: FoldGoal(in, d.Body, f, outerBinder+len(d.Binders))})
	case ImpliesGoal:
		hyps := make([]*Clause, len(d.Hypotheses))
		for i, h := range d.Hypotheses {
			hyps[i] = FoldClause(in, h, f, outerBinder)
		}
		return in.InternGoal(ImpliesGoal{Hypotheses: hyps, Consequence: FoldGoal(in, d.Consequence, f, outerBinder)})
	case AndGoal:
		return in.InternGoal(AndGoal{Left: FoldGoal(in, d.Left, f, outerBinder), Right: FoldGoal(in, d.Right, f, outerBinder)})
	case OrGoal:
		return in.InternGoal(OrGoal{Left: FoldGoal(in, d.Left, f, outerBinder), Right: FoldGoal(in, d.Right, f, outerBinder)})
	case NotGoal:
		return in.InternGoal(NotGoal{Inner: FoldGoal(in, d.Inner, f, outerBinder)})
	case CannotProveGoal:
		return g
	default:
		panic(fmt.Sprintf("hh: unhandled GoalData %T in FoldGoal", d))
	}
}

// FoldClause folds a clause's consequence and conditions, descending
// past its own outer binder.
func FoldClause(in *Interner, c *Clause, f Folder, outerBinder int) *Clause {
	inner := outerBinder + len(c.Binders)
	conds := make([]*Goal, len(c.Conditions))
	for i, cond := range c.Conditions {
		conds[i] = FoldGoal(in, cond, f, inner)
	}
	return in.InternClause(Clause{
		Binders:     c.Binders,
		Consequence: FoldGoal(in, c.Consequence, f, inner),
		Conditions:  conds,
		Priority:    c.Priority,
	})
}

// --- shifting ----------------------------------------------------------

type shiftFolder struct {
	IdentityFolder
	delta int
}

func (s shiftFolder) FoldTyVar(in *Interner, v BoundVar, outerBinder int) *Type {
	return in.InternTy(BoundVarTy{Var: shiftedVar(v, outerBinder, s.delta)})
}
func (s shiftFolder) FoldLifetimeVar(in *Interner, v BoundVar, outerBinder int) *Lifetime {
	return in.InternLifetime(BoundVarLt{Var: shiftedVar(v, outerBinder, s.delta)})
}
func (s shiftFolder) FoldConstVar(in *Interner, v BoundVar, outerBinder int) *Const {
	return in.InternConst(BoundVarConst{Var: shiftedVar(v, outerBinder, s.delta)})
}

// shiftedVar shifts v by delta only if it is free relative to
// outerBinder (Debruijn >= outerBinder); a variable bound within the
// portion of the term the fold has already descended past is never
// touched, since it is not free with respect to the shift's scope.
func shiftedVar(v BoundVar, outerBinder, delta int) BoundVar {
	if v.Debruijn < outerBinder {
		return v
	}
	newDepth := v.Debruijn + delta
	if newDepth < outerBinder {
		panic(fmt.Sprintf("hh: shift underflow: shifting %v by %d below binder depth %d", v, delta, outerBinder))
	}
	return BoundVar{Debruijn: newDepth, Index: v.Index}
}

// ShiftInTy increments the De Bruijn depth of every free variable in t
// by n, adjusting for a term moving n binders further from its root.
func ShiftInTy(in *Interner, t *Type, n int) *Type {
	return FoldType(in, t, shiftFolder{delta: n}, 0)
}

// ShiftOutTy decrements the De Bruijn depth of every free variable in
// t by n. It panics (shift underflow) if that would move any free
// variable's depth below zero, which signals a caller shifting a term
// out further than it is actually free to move.
func ShiftOutTy(in *Interner, t *Type, n int) *Type {
	return FoldType(in, t, shiftFolder{delta: -n}, 0)
}

func ShiftInGoal(in *Interner, g *Goal, n int) *Goal {
	return FoldGoal(in, g, shiftFolder{delta: n}, 0)
}

func ShiftOutGoal(in *Interner, g *Goal, n int) *Goal {
	return FoldGoal(in, g, shiftFolder{delta: -n}, 0)
}

// --- visiting ------------------------------------------------------

// Visitor is the read-only analogue of Folder: instead of rebuilding a
// term it inspects variable occurrences and returns true to request an
// early stop (e.g. "occurs-check found the variable", "collected every
// free inference variable").
type Visitor interface {
	VisitTyVar(v BoundVar, outerBinder int) bool
	VisitTyInferenceVar(v InferenceVarID, outerBinder int) bool
	VisitTyPlaceholder(p Placeholder, outerBinder int) bool

	VisitLifetimeVar(v BoundVar, outerBinder int) bool
	VisitLifetimeInferenceVar(v InferenceVarID, outerBinder int) bool
	VisitLifetimePlaceholder(p Placeholder, outerBinder int) bool

	VisitConstVar(v BoundVar, outerBinder int) bool
	VisitConstInferenceVar(v InferenceVarID, outerBinder int) bool
	VisitConstPlaceholder(p Placeholder, outerBinder int) bool
}

// IdentityVisitor implements Visitor by never requesting a stop;
// embed it and override only the handful of callbacks a particular
// walk cares about, same as IdentityFolder.
type IdentityVisitor struct{}

func (IdentityVisitor) VisitTyVar(BoundVar, int) bool                { return false }
func (IdentityVisitor) VisitTyInferenceVar(InferenceVarID, int) bool { return false }
func (IdentityVisitor) VisitTyPlaceholder(Placeholder, int) bool     { return false }

func (IdentityVisitor) VisitLifetimeVar(BoundVar, int) bool                { return false }
func (IdentityVisitor) VisitLifetimeInferenceVar(InferenceVarID, int) bool { return false }
func (IdentityVisitor) VisitLifetimePlaceholder(Placeholder, int) bool     { return false }

func (IdentityVisitor) VisitConstVar(BoundVar, int) bool                { return false }
func (IdentityVisitor) VisitConstInferenceVar(InferenceVarID, int) bool { return false }
func (IdentityVisitor) VisitConstPlaceholder(Placeholder, int) bool     { return false }

// VisitType walks t, short-circuiting (returning true) as soon as the
// visitor reports a hit.
func VisitType(t *Type, v Visitor, outerBinder int) bool {
	switch d := t.data.(type) {
	case BoundVarTy:
		return v.VisitTyVar(d.Var, outerBinder)
	case InferenceVarTy:
		return v.VisitTyInferenceVar(d.Var, outerBinder)
	case PlaceholderTy:
		return v.VisitTyPlaceholder(d.Placeholder, outerBinder)
	case AdtTy:
		return visitArgs(d.Args, v, outerBinder)
	case TupleTy:
		for _, e := range d.Elems {
			if VisitType(e, v, outerBinder) {
				return true
			}
		}
		return false
	case ArrayTy:
		return VisitType(d.Elem, v, outerBinder) || VisitConst(d.Len, v, outerBinder)
	case SliceTy:
		return VisitType(d.Elem, v, outerBinder)
	case RefTy:
		return VisitLifetime(d.Lifetime, v, outerBinder) || VisitType(d.Referent, v, outerBinder)
	case RawPtrTy:
		return VisitType(d.Pointee, v, outerBinder)
	case FnDefTy:
		return visitArgs(d.Args, v, outerBinder)
	case FnPointerTy:
		inner := outerBinder + d.NumBinders
		for _, p := range d.Params {
			if VisitType(p, v, inner) {
				return true
			}
		}
		return VisitType(d.Return, v, inner)
	case ClosureTy:
		return visitArgs(d.Args, v, outerBinder)
	case CoroutineTy:
		return visitArgs(d.Args, v, outerBinder)
	case ProjectionTy:
		return visitArgs(d.Args, v, outerBinder)
	case OpaqueTy:
		return visitArgs(d.Args, v, outerBinder)
	case DynTy:
		for _, b := range d.Bounds {
			if VisitGoal(b.Goal, v, outerBinder+len(b.Binders)) {
				return true
			}
		}
		return VisitLifetime(d.Lifetime, v, outerBinder)
	case NeverTy, ScalarTy, ErrorTy:
		return false
	default:
		panic(fmt.Sprintf("hh: unhandled TypeData %T in VisitType", d))
	}
}

func visitArgs(args []GenericArg, v Visitor, outerBinder int) bool {
	for _, a := range args {
		if VisitGenericArg(a, v, outerBinder) {
			return true
		}
	}
	return false
}

func VisitGenericArg(a GenericArg, v Visitor, outerBinder int) bool {
	switch a.Kind {
	case ArgKindTy:
		return VisitType(a.Ty, v, outerBinder)
	case ArgKindLifetime:
		return VisitLifetime(a.Lifetime, v, outerBinder)
	default:
		return VisitConst(a.Const, v, outerBinder)
	}
}

func VisitLifetime(l *Lifetime, v Visitor, outerBinder int) bool {
	switch d := l.data.(type) {
	case BoundVarLt:
		return v.VisitLifetimeVar(d.Var, outerBinder)
	case InferenceVarLt:
		return v.VisitLifetimeInferenceVar(d.Var, outerBinder)
	case PlaceholderLt:
		return v.VisitLifetimePlaceholder(d.Placeholder, outerBinder)
	default:
		return false
	}
}

func VisitConst(c *Const, v Visitor, outerBinder int) bool {
	switch d := c.data.(type) {
	case BoundVarConst:
		return v.VisitConstVar(d.Var, outerBinder)
	case InferenceVarConst:
		return v.VisitConstInferenceVar(d.Var, outerBinder)
	case PlaceholderConst:
		return v.VisitConstPlaceholder(d.Placeholder, outerBinder)
	case ConcreteConst:
		return VisitType(d.Ty, v, outerBinder)
	default:
		panic(fmt.Sprintf("hh: unhandled ConstData %T in VisitConst", d))
	}
}

func VisitGoal(g *Goal, v Visitor, outerBinder int) bool {
	switch d := g.data.(type) {
	case ImplementedTraitGoal:
		return visitArgs(d.Args, v, outerBinder)
	case ProjectionEqGoal:
		return VisitType(d.Projection, v, outerBinder) || VisitType(d.Ty, v, outerBinder)
	case NormalizeGoal:
		return VisitType(d.Projection, v, outerBinder) || VisitType(d.Ty, v, outerBinder)
	case WellFormedTyGoal:
		return VisitType(d.Ty, v, outerBinder)
	case WellFormedTraitGoal:
		return visitArgs(d.Args, v, outerBinder)
	case FromEnvTyGoal:
		return VisitType(d.Ty, v, outerBinder)
	case FromEnvTraitGoal:
		return visitArgs(d.Args, v, outerBinder)
	case IsLocalGoal:
		return VisitType(d.Ty, v, outerBinder)
	case IsUpstreamGoal:
		return VisitType(d.Ty, v, outerBinder)
	case DownstreamTypeGoal:
		return VisitType(d.Ty, v, outerBinder)
	case CompatibleModeGoal, ObjectSafeGoal:
		return false
	case EqGoal:
		return VisitGenericArg(d.A, v, outerBinder) || VisitGenericArg(d.B, v, outerBinder)
	case ForallGoal:
		return VisitGoal(d.Body, v, outerBinder+len(d.Binders))
	case ExistsGoal:
		return VisitGoal(d.Body, v, outerBinder+len(d.Binders))
	case ImpliesGoal:
		for _, h := range d.Hypotheses {
			if VisitClause(h, v, outerBinder) {
				return true
			}
		}
		return VisitGoal(d.Consequence, v, outerBinder)
	case AndGoal:
		return VisitGoal(d.Left, v, outerBinder) || VisitGoal(d.Right, v, outerBinder)
	case OrGoal:
		return VisitGoal(d.Left, v, outerBinder) || VisitGoal(d.Right, v, outerBinder)
	case NotGoal:
		return VisitGoal(d.Inner, v, outerBinder)
	case CannotProveGoal:
		return false
	default:
		panic(fmt.Sprintf("hh: unhandled GoalData %T in VisitGoal", d))
	}
}

func VisitClause(c *Clause, v Visitor, outerBinder int) bool {
	inner := outerBinder + len(c.Binders)
	if VisitGoal(c.Consequence, v, inner) {
		return true
	}
	for _, cond := range c.Conditions {
		if VisitGoal(cond, v, inner) {
			return true
		}
	}
	return false
}
