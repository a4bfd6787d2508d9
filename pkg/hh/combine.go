package hh

// ClauseOutcome is one clause's (or environment assumption's)
// contribution to solving a goal, ready to be folded together by
// CombineClauseOutcomes.
type ClauseOutcome struct {
	Priority    ClausePriority
	FromEnv     bool
	Subst       Canonical[*Substitution]
	Constraints []OutlivesConstraint
}

// CombineClauseOutcomes implements §4.6: priorities are resolved
// first (a successful High-priority clause eclipses every Low-priority
// one), then assumptions drawn from the environment are favored over
// ones drawn from program clauses when both kinds are present and
// disagree, and what remains is reduced to Unique or Ambiguous by
// comparing refined substitutions structurally and, if they differ,
// anti-unifying them.
func CombineClauseOutcomes(in *Interner, outcomes []ClauseOutcome) Solution {
	if len(outcomes) == 0 {
		return AmbiguousSolution(UnknownGuidance())
	}

	highSucceeded := false
	for _, o := range outcomes {
		if o.Priority == PriorityHigh {
			highSucceeded = true
			break
		}
	}
	if highSucceeded {
		filtered := outcomes[:0:0]
		for _, o := range outcomes {
			if o.Priority == PriorityHigh {
				filtered = append(filtered, o)
			}
		}
		outcomes = filtered
	}

	envCount := 0
	for _, o := range outcomes {
		if o.FromEnv {
			envCount++
		}
	}
	if envCount > 0 && envCount < len(outcomes) {
		filtered := outcomes[:0:0]
		for _, o := range outcomes {
			if o.FromEnv {
				filtered = append(filtered, o)
			}
		}
		outcomes = filtered
	}

	distinct := make([]Canonical[*Substitution], 0, len(outcomes))
	distinctConstraints := make([][]OutlivesConstraint, 0, len(outcomes))
	for _, o := range outcomes {
		dup := false
		for _, d := range distinct {
			if substitutionsAgree(d, o.Subst) {
				dup = true
				break
			}
		}
		if !dup {
			distinct = append(distinct, o.Subst)
			distinctConstraints = append(distinctConstraints, o.Constraints)
		}
	}

	if len(distinct) == 1 {
		return UniqueSolution(UCanonical[*ConstrainedSubst]{
			Canonical: Canonical[*ConstrainedSubst]{
				Binders: distinct[0].Binders,
				Value:   &ConstrainedSubst{Subst: distinct[0].Value, Constraints: distinctConstraints[0]},
			},
		})
	}

	combined := distinct[0]
	for _, next := range distinct[1:] {
		combined, _ = AntiUnify(in, combined, next)
	}
	if isBareGeneralization(combined) {
		return AmbiguousSolution(UnknownGuidance())
	}
	return AmbiguousSolution(DefiniteGuidance(combined))
}

// generalizer implements anti-unification (the least general
// generalization, or most general common instance) of two already-
// canonicalized terms: it walks both in lockstep and, wherever their
// shapes agree, rebuilds the shared structure; wherever they diverge
// it introduces one fresh generalization variable per distinct
// mismatching pair, reusing the same variable for repeated
// occurrences of an identical pair so that correlations between
// answers are preserved rather than erased.
type generalizer struct {
	interner *Interner
	binders  []CanonicalVarKind
	cacheTy  map[[2]uint64]int
	cacheLt  map[[2]uint64]int
	cacheCn  map[[2]uint64]int
	useCount map[int]int
}

func newGeneralizer(in *Interner) *generalizer {
	return &generalizer{
		interner: in,
		cacheTy:  make(map[[2]uint64]int),
		cacheLt:  make(map[[2]uint64]int),
		cacheCn:  make(map[[2]uint64]int),
		useCount: make(map[int]int),
	}
}

func (g *generalizer) slot(kind ParameterKind) int {
	idx := len(g.binders)
	g.binders = append(g.binders, CanonicalVarKind{Kind: kind, Universe: RootUniverse})
	return idx
}

func (g *generalizer) mark(idx int) int {
	g.useCount[idx]++
	return idx
}

// AntiUnify computes the most general common instance of two
// canonical substitutions produced for the same goal. It returns the
// result together with whether it is "trivial": entirely free
// variables correlated with nothing, meaning it carries no usable
// information at all.
func AntiUnify(in *Interner, a, b Canonical[*Substitution]) (Canonical[*Substitution], bool) {
	if len(a.Value.Args) != len(b.Value.Args) {
		return a, true
	}
	g := newGeneralizer(in)
	args := make([]GenericArg, len(a.Value.Args))
	for i := range a.Value.Args {
		args[i] = g.genArg(a.Value.Args[i], b.Value.Args[i])
	}
	result := Canonical[*Substitution]{Binders: g.binders, Value: &Substitution{Args: args}}
	return result, isBareGeneralization(result)
}

func (g *generalizer) genArg(a, b GenericArg) GenericArg {
	if a.Kind != b.Kind {
		return TyArg(g.interner.InternTy(ErrorTy{}))
	}
	switch a.Kind {
	case ArgKindTy:
		return TyArg(g.genTy(a.Ty, b.Ty))
	case ArgKindLifetime:
		return LifetimeArg(g.genLifetime(a.Lifetime, b.Lifetime))
	default:
		return ConstArg(g.genConst(a.Const, b.Const))
	}
}

func (g *generalizer) genTy(a, b *Type) *Type {
	if a.String() == b.String() {
		return a
	}
	switch da := a.data.(type) {
	case AdtTy:
		if db, ok := b.data.(AdtTy); ok && da.ID == db.ID && len(da.Args) == len(db.Args) {
			args := make([]GenericArg, len(da.Args))
			for i := range da.Args {
				args[i] = g.genArg(da.Args[i], db.Args[i])
			}
			return g.interner.InternTy(AdtTy{ID: da.ID, Args: args})
		}
	case TupleTy:
		if db, ok := b.data.(TupleTy); ok && len(da.Elems) == len(db.Elems) {
			elems := make([]*Type, len(da.Elems))
			for i := range da.Elems {
				elems[i] = g.genTy(da.Elems[i], db.Elems[i])
			}
			return g.interner.InternTy(TupleTy{Elems: elems})
		}
	case SliceTy:
		if db, ok := b.data.(SliceTy); ok {
			return g.interner.InternTy(SliceTy{Elem: g.genTy(da.Elem, db.Elem)})
		}
	case ArrayTy:
		if db, ok := b.data.(ArrayTy); ok {
			return g.interner.InternTy(ArrayTy{Elem: g.genTy(da.Elem, db.Elem), Len: g.genConst(da.Len, db.Len)})
		}
	case RefTy:
		if db, ok := b.data.(RefTy); ok && da.Mutable == db.Mutable {
			return g.interner.InternTy(RefTy{
				Lifetime: g.genLifetime(da.Lifetime, db.Lifetime),
				Mutable:  da.Mutable,
				Referent: g.genTy(da.Referent, db.Referent),
			})
		}
	case RawPtrTy:
		if db, ok := b.data.(RawPtrTy); ok && da.Mutable == db.Mutable {
			return g.interner.InternTy(RawPtrTy{Mutable: da.Mutable, Pointee: g.genTy(da.Pointee, db.Pointee)})
		}
	case FnDefTy:
		if db, ok := b.data.(FnDefTy); ok && da.ID == db.ID && len(da.Args) == len(db.Args) {
			args := make([]GenericArg, len(da.Args))
			for i := range da.Args {
				args[i] = g.genArg(da.Args[i], db.Args[i])
			}
			return g.interner.InternTy(FnDefTy{ID: da.ID, Args: args})
		}
	}
	return g.freshTy(a, b)
}

func (g *generalizer) freshTy(a, b *Type) *Type {
	key := [2]uint64{a.id, b.id}
	idx, ok := g.cacheTy[key]
	if !ok {
		idx = g.slot(ParamKindTy)
		g.cacheTy[key] = idx
	}
	g.mark(idx)
	return g.interner.InternTy(BoundVarTy{Var: BoundVar{Debruijn: 0, Index: idx}})
}

func (g *generalizer) genLifetime(a, b *Lifetime) *Lifetime {
	if a.String() == b.String() {
		return a
	}
	key := [2]uint64{a.id, b.id}
	idx, ok := g.cacheLt[key]
	if !ok {
		idx = g.slot(ParamKindLifetime)
		g.cacheLt[key] = idx
	}
	g.mark(idx)
	return g.interner.InternLifetime(BoundVarLt{Var: BoundVar{Debruijn: 0, Index: idx}})
}

func (g *generalizer) genConst(a, b *Const) *Const {
	if a.String() == b.String() {
		return a
	}
	key := [2]uint64{a.id, b.id}
	idx, ok := g.cacheCn[key]
	if !ok {
		idx = g.slot(ParamKindConst)
		g.cacheCn[key] = idx
	}
	g.mark(idx)
	return g.interner.InternConst(BoundVarConst{Var: BoundVar{Debruijn: 0, Index: idx}})
}

// isBareGeneralization reports whether every top-level argument of a
// generalized substitution is an unconstrained, unshared fresh
// variable -- an anti-unifier that recorded no information at all.
func isBareGeneralization(c Canonical[*Substitution]) bool {
	counts := make(map[int]int)
	for _, arg := range c.Value.Args {
		idx, ok := boundVarTopIndex(arg)
		if !ok {
			return false
		}
		counts[idx]++
	}
	for _, n := range counts {
		if n > 1 {
			return false
		}
	}
	return true
}

func boundVarTopIndex(a GenericArg) (int, bool) {
	switch a.Kind {
	case ArgKindTy:
		if d, ok := a.Ty.data.(BoundVarTy); ok && d.Var.Debruijn == 0 {
			return d.Var.Index, true
		}
	case ArgKindLifetime:
		if d, ok := a.Lifetime.data.(BoundVarLt); ok && d.Var.Debruijn == 0 {
			return d.Var.Index, true
		}
	case ArgKindConst:
		if d, ok := a.Const.data.(BoundVarConst); ok && d.Var.Debruijn == 0 {
			return d.Var.Index, true
		}
	}
	return 0, false
}
