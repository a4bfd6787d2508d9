package hh

import "fmt"

// OutlivesConstraint records a residual `'a: 'b` region requirement
// produced by unification instead of being solved on the spot; the
// fulfillment context collects these and hands them back to the
// caller in a Unique Solution's ConstrainedSubst.Constraints rather
// than discharging them itself.
type OutlivesConstraint struct {
	Longer  *Lifetime
	Shorter *Lifetime
}

// UnificationResult is everything a successful relate/unify call
// produces beyond the mutations already applied to the inference
// table: new domain goals that must still be proven (from alias vs.
// anything unification) and region constraints still to be checked.
type UnificationResult struct {
	Goals       []*Goal
	Constraints []OutlivesConstraint
}

func (r *UnificationResult) addGoal(g *Goal) {
	r.Goals = append(r.Goals, g)
}

func (r *UnificationResult) absorb(other *UnificationResult) {
	r.Goals = append(r.Goals, other.Goals...)
	r.Constraints = append(r.Constraints, other.Constraints...)
}

// unifier carries the state threaded through one top-level relate
// call: the table mutations it performs are committed as they
// happen, so on any error the caller is expected to roll back to the
// snapshot it took before calling Relate.
type unifier struct {
	table  *InferenceTable
	in     *Interner
	result UnificationResult
}

// Relate unifies (variance == Invariant) or subtypes (Covariant /
// Contravariant) a against b, mutating the table's union-find in
// place and returning the residual goals and region constraints
// needed to fully discharge the relation. On failure it returns a
// *UnifyError and the table is left partially mutated: callers must
// roll back to a snapshot taken before calling Relate.
func (t *InferenceTable) Relate(variance Variance, a, b GenericArg) (*UnificationResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	u := &unifier{table: t, in: t.interner}
	if err := u.relateArg(variance, a, b); err != nil {
		return nil, err
	}
	return &u.result, nil
}

func (u *unifier) relateArg(variance Variance, a, b GenericArg) error {
	a = u.table.normalizeShallowLocked(a)
	b = u.table.normalizeShallowLocked(b)
	if a.Kind != b.Kind {
		return newUnifyError(ErrHeadMismatch, "generic arg kind mismatch: %v vs %v", a.Kind, b.Kind)
	}
	switch a.Kind {
	case ArgKindTy:
		return u.relateTy(variance, a.Ty, b.Ty)
	case ArgKindLifetime:
		return u.relateLifetime(variance, a.Lifetime, b.Lifetime)
	default:
		return u.relateConst(a.Const, b.Const)
	}
}

// relateTy is the heart of §4.2: it dispatches on the shallow-resolved
// shape of each side before touching substructure.
func (u *unifier) relateTy(variance Variance, a, b *Type) error {
	aInf, aIsInf := a.data.(InferenceVarTy)
	bInf, bIsInf := b.data.(InferenceVarTy)

	switch {
	case aIsInf && bIsInf:
		u.table.union(aInf.Var, bInf.Var)
		return nil
	case aIsInf:
		return u.bindTyVar(aInf.Var, b)
	case bIsInf:
		return u.bindTyVar(bInf.Var, a)
	}

	// Alias (projection/opaque) vs. anything concrete does not unify
	// structurally: it becomes a residual Normalize/ProjectionEq goal
	// for the fulfillment context to solve by applying clauses.
	if isAliasTy(a) && !isAliasTy(b) {
		u.result.addGoal(u.in.InternGoal(NormalizeGoal{Projection: a, Ty: b}))
		return nil
	}
	if isAliasTy(b) && !isAliasTy(a) {
		u.result.addGoal(u.in.InternGoal(NormalizeGoal{Projection: b, Ty: a}))
		return nil
	}
	if isAliasTy(a) && isAliasTy(b) {
		// Two aliases: require them to normalize to a common type via a
		// fresh existential rather than guessing which side drives.
		fresh := u.table.newVariableArgLocked(ParamKindTy, u.table.maxUniverse)
		u.result.addGoal(u.in.InternGoal(NormalizeGoal{Projection: a, Ty: fresh.Ty}))
		u.result.addGoal(u.in.InternGoal(NormalizeGoal{Projection: b, Ty: fresh.Ty}))
		return nil
	}

	if _, ok := a.data.(PlaceholderTy); ok {
		return u.relatePlaceholderTy(a, b)
	}
	if _, ok := b.data.(PlaceholderTy); ok {
		return u.relatePlaceholderTy(b, a)
	}

	return u.zipTy(variance, a, b)
}

func isAliasTy(t *Type) bool {
	switch t.data.(type) {
	case ProjectionTy, OpaqueTy:
		return true
	default:
		return false
	}
}

func (u *unifier) relatePlaceholderTy(p *Type, other *Type) error {
	op, ok := other.data.(PlaceholderTy)
	if !ok {
		return newUnifyError(ErrHeadMismatch, "placeholder %s cannot unify with non-placeholder %s", p, other)
	}
	pd := p.data.(PlaceholderTy)
	if !pd.Placeholder.Equal(op.Placeholder) {
		return newUnifyError(ErrHeadMismatch, "distinct placeholders %s and %s", pd.Placeholder, op.Placeholder)
	}
	return nil
}

// bindTyVar binds an unbound inference variable v to value, after an
// occurs-check and a universe-escape check: every placeholder and
// every other inference variable reachable inside value must live in
// a universe v can see, and value must not mention v itself. A
// variable with too-high a universe found inside value is promoted
// down to v's universe rather than failing outright, mirroring how a
// type built entirely from variables and placeholders that are all
// themselves promotable is still assignable.
func (u *unifier) bindTyVar(v InferenceVarID, value *Type) error {
	_, e := u.table.find(v)
	vUniverse := e.universe

	occ := &occursVisitor{table: u.table, self: v, maxUniverse: vUniverse}
	if VisitType(value, occ, 0) {
		if occ.foundSelf {
			return newUnifyError(ErrOccursCheck, "variable %v occurs in %s", v, value)
		}
		return newUnifyError(ErrUniverseViolation, "type %s escapes universe of %v", value, v)
	}
	for _, pv := range occ.promote {
		u.table.promote(pv, vUniverse)
	}

	u.table.bind(v, TyArg(value))
	return nil
}

// occursVisitor walks a term looking for the variable being bound
// (occurs check) and for placeholders or other inference variables
// that live in a universe the binding variable cannot see. When it
// finds an inference variable in too high a universe it records it
// for promotion instead of failing (promotion makes the binding
// legal by lowering that variable's universe), but a placeholder in
// too high a universe is an unconditional universe violation since a
// placeholder's universe can never be changed.
type occursVisitor struct {
	IdentityVisitor
	table       *InferenceTable
	self        InferenceVarID
	maxUniverse UniverseIndex
	foundSelf   bool
	promote     []InferenceVarID
}

func (v *occursVisitor) VisitTyInferenceVar(id InferenceVarID, _ int) bool {
	return v.visitInferenceVar(id)
}
func (v *occursVisitor) VisitLifetimeInferenceVar(id InferenceVarID, _ int) bool {
	return v.visitInferenceVar(id)
}
func (v *occursVisitor) VisitConstInferenceVar(id InferenceVarID, _ int) bool {
	return v.visitInferenceVar(id)
}

func (v *occursVisitor) visitInferenceVar(id InferenceVarID) bool {
	root, e := v.table.find(id)
	if root == v.self {
		v.foundSelf = true
		return true
	}
	if e.bound {
		// A bound variable stands for its value, so the value is searched
		// in its place: the occurs and universe checks apply to the term
		// as it reads after normalization.
		return VisitGenericArg(e.value, v, 0)
	}
	if e.universe > v.maxUniverse {
		// Recorded for promotion, not a failure: keep visiting.
		v.promote = append(v.promote, root)
	}
	return false
}

func (v *occursVisitor) VisitTyPlaceholder(p Placeholder, _ int) bool {
	return p.Universe > v.maxUniverse
}
func (v *occursVisitor) VisitLifetimePlaceholder(p Placeholder, _ int) bool {
	return p.Universe > v.maxUniverse
}
func (v *occursVisitor) VisitConstPlaceholder(p Placeholder, _ int) bool {
	return p.Universe > v.maxUniverse
}

// zipTy relates two structurally-headed types of matching shape,
// propagating variance through the positions where the language's
// subtyping rules let it vary: covariantly into a reference's
// pointee, contravariantly into a function pointer's parameters and
// covariantly into its return, invariantly everywhere else (mutable
// references, ADT/closure/opaque type arguments).
func (u *unifier) zipTy(variance Variance, a, b *Type) error {
	switch da := a.data.(type) {
	case AdtTy:
		db, ok := b.data.(AdtTy)
		if !ok || da.ID != db.ID {
			return newUnifyError(ErrHeadMismatch, "%s vs %s", a, b)
		}
		return u.zipArgs(Invariant, da.Args, db.Args)

	case TupleTy:
		db, ok := b.data.(TupleTy)
		if !ok || len(da.Elems) != len(db.Elems) {
			return newUnifyError(ErrArityMismatch, "%s vs %s", a, b)
		}
		for i := range da.Elems {
			if err := u.relateTy(Invariant, da.Elems[i], db.Elems[i]); err != nil {
				return err
			}
		}
		return nil

	case ArrayTy:
		db, ok := b.data.(ArrayTy)
		if !ok {
			return newUnifyError(ErrHeadMismatch, "%s vs %s", a, b)
		}
		if err := u.relateTy(Invariant, da.Elem, db.Elem); err != nil {
			return err
		}
		return u.relateConst(da.Len, db.Len)

	case SliceTy:
		db, ok := b.data.(SliceTy)
		if !ok {
			return newUnifyError(ErrHeadMismatch, "%s vs %s", a, b)
		}
		return u.relateTy(Invariant, da.Elem, db.Elem)

	case RefTy:
		db, ok := b.data.(RefTy)
		if !ok || da.Mutable != db.Mutable {
			return newUnifyError(ErrHeadMismatch, "%s vs %s", a, b)
		}
		if err := u.relateLifetime(variance, da.Lifetime, db.Lifetime); err != nil {
			return err
		}
		inner := variance
		if da.Mutable {
			inner = Invariant
		}
		return u.relateTy(inner, da.Referent, db.Referent)

	case RawPtrTy:
		db, ok := b.data.(RawPtrTy)
		if !ok || da.Mutable != db.Mutable {
			return newUnifyError(ErrHeadMismatch, "%s vs %s", a, b)
		}
		return u.relateTy(Invariant, da.Pointee, db.Pointee)

	case FnDefTy:
		db, ok := b.data.(FnDefTy)
		if !ok || da.ID != db.ID {
			return newUnifyError(ErrHeadMismatch, "%s vs %s", a, b)
		}
		return u.zipArgs(Invariant, da.Args, db.Args)

	case FnPointerTy:
		db, ok := b.data.(FnPointerTy)
		if !ok || da.Safety != db.Safety || da.ABI != db.ABI || da.Variadic != db.Variadic ||
			len(da.Params) != len(db.Params) {
			return newUnifyError(ErrHeadMismatch, "%s vs %s", a, b)
		}
		aParams, aReturn := da.Params, da.Return
		if da.NumBinders > 0 {
			aParams, aReturn = u.skolemizeFnPointer(da)
		}
		bParams, bReturn := db.Params, db.Return
		if db.NumBinders > 0 {
			bParams, bReturn = u.skolemizeFnPointer(db)
		}
		for i := range aParams {
			if err := u.relateTy(variance.Flip(), aParams[i], bParams[i]); err != nil {
				return err
			}
		}
		return u.relateTy(variance, aReturn, bReturn)

	case ClosureTy:
		db, ok := b.data.(ClosureTy)
		if !ok || da.ID != db.ID {
			return newUnifyError(ErrHeadMismatch, "%s vs %s", a, b)
		}
		return u.zipArgs(Invariant, da.Args, db.Args)

	case CoroutineTy:
		db, ok := b.data.(CoroutineTy)
		if !ok || da.ID != db.ID {
			return newUnifyError(ErrHeadMismatch, "%s vs %s", a, b)
		}
		return u.zipArgs(Invariant, da.Args, db.Args)

	case DynTy:
		db, ok := b.data.(DynTy)
		if !ok || len(da.Bounds) != len(db.Bounds) {
			return newUnifyError(ErrHeadMismatch, "%s vs %s", a, b)
		}
		if err := u.relateLifetime(variance, da.Lifetime, db.Lifetime); err != nil {
			return err
		}
		for i := range da.Bounds {
			if !quantifiedWhereClauseEqual(da.Bounds[i], db.Bounds[i]) {
				return newUnifyError(ErrHeadMismatch, "dyn bound %d mismatch", i)
			}
		}
		return nil

	case NeverTy:
		if _, ok := b.data.(NeverTy); !ok {
			return newUnifyError(ErrHeadMismatch, "%s vs %s", a, b)
		}
		return nil

	case ScalarTy:
		db, ok := b.data.(ScalarTy)
		if !ok || da.Kind != db.Kind {
			return newUnifyError(ErrHeadMismatch, "%s vs %s", a, b)
		}
		return nil

	case ErrorTy:
		// An error type unifies with anything: it already signals a
		// problem reported elsewhere and must not cascade further ones.
		return nil

	default:
		panic(fmt.Sprintf("hh: unhandled TypeData %T in zipTy", da))
	}
}

// skolemizeFnPointer opens one layer of a `for<'a, ...> fn(...)`
// pointer's own binders with fresh placeholders minted in a new
// universe, the same instantiate-with-placeholders move
// Fulfillment.push makes for a ForallGoal: a higher-ranked fn-pointer
// signature only ever quantifies over lifetimes, so every slot is
// treated as one. Comparing two independently-skolemized sides is
// sound because relateLifetime no longer requires two concrete
// lifetimes to be syntactically identical -- it falls back to a
// mutual-outlives constraint, which is exactly what equating two
// fresh placeholders should produce.
func (u *unifier) skolemizeFnPointer(d FnPointerTy) ([]*Type, *Type) {
	uv := u.table.newUniverseLocked()
	args := make([]GenericArg, d.NumBinders)
	for i := range args {
		args[i] = placeholderArg(u.in, ParamKindLifetime, Placeholder{Universe: uv, Index: uint32(i)})
	}
	subst := NewSubstitution(args)
	params := make([]*Type, len(d.Params))
	for i, p := range d.Params {
		params[i] = ApplySubstitutionType(u.in, p, subst)
	}
	return params, ApplySubstitutionType(u.in, d.Return, subst)
}

func (u *unifier) zipArgs(variance Variance, as, bs []GenericArg) error {
	if len(as) != len(bs) {
		return newUnifyError(ErrArityMismatch, "%d args vs %d args", len(as), len(bs))
	}
	for i := range as {
		if err := u.relateArg(variance, as[i], bs[i]); err != nil {
			return err
		}
	}
	return nil
}

func quantifiedWhereClauseEqual(a, b *QuantifiedWhereClause) bool {
	if len(a.Binders) != len(b.Binders) {
		return false
	}
	return a.Goal.String() == b.Goal.String()
}

// relateLifetime unifies two lifetimes when either is an inference
// variable (after a universe-escape check against placeholders).
// Otherwise regions are never forced structurally equal: a Co/
// Contravariant relation records a single outlives constraint in the
// direction the variance implies, and an Invariant relation -- two
// regions required equal, as at a trait argument position -- records
// both directions at once ('a: 'b and 'b: 'a), since region equality
// is itself just mutual outlives and the constraint is left for a
// downstream region-checker to discharge (§7: constraints are
// propagated, not solved, here).
func (u *unifier) relateLifetime(variance Variance, a, b *Lifetime) error {
	a = u.table.normalizeShallowLifetimeLocked(a)
	b = u.table.normalizeShallowLifetimeLocked(b)

	aInf, aIsInf := a.data.(InferenceVarLt)
	bInf, bIsInf := b.data.(InferenceVarLt)

	switch {
	case aIsInf && bIsInf:
		u.table.union(aInf.Var, bInf.Var)
		return nil
	case aIsInf:
		return u.bindLifetimeVar(aInf.Var, b)
	case bIsInf:
		return u.bindLifetimeVar(bInf.Var, a)
	}

	if variance == Invariant {
		u.result.Constraints = append(u.result.Constraints,
			OutlivesConstraint{Longer: a, Shorter: b},
			OutlivesConstraint{Longer: b, Shorter: a},
		)
		return nil
	}

	longer, shorter := a, b
	if variance == Contravariant {
		longer, shorter = b, a
	}
	u.result.Constraints = append(u.result.Constraints, OutlivesConstraint{Longer: longer, Shorter: shorter})
	return nil
}

func (u *unifier) bindLifetimeVar(v InferenceVarID, value *Lifetime) error {
	_, e := u.table.find(v)
	if p, ok := value.data.(PlaceholderLt); ok && p.Placeholder.Universe > e.universe {
		return newUnifyError(ErrUniverseViolation, "lifetime %s escapes universe of %v", value, v)
	}
	if inf, ok := value.data.(InferenceVarLt); ok {
		u.table.promote(inf.Var, e.universe)
	}
	u.table.bind(v, LifetimeArg(value))
	return nil
}

// relateConst unifies two consts, which in this engine are always
// invariant: const generics do not participate in subtyping.
func (u *unifier) relateConst(a, b *Const) error {
	a = u.table.normalizeShallowLocked(ConstArg(a)).Const
	b = u.table.normalizeShallowLocked(ConstArg(b)).Const

	aInf, aIsInf := a.data.(InferenceVarConst)
	bInf, bIsInf := b.data.(InferenceVarConst)

	switch {
	case aIsInf && bIsInf:
		u.table.union(aInf.Var, bInf.Var)
		return nil
	case aIsInf:
		return u.bindConstVar(aInf.Var, b)
	case bIsInf:
		return u.bindConstVar(bInf.Var, a)
	}

	ac, aConcrete := a.data.(ConcreteConst)
	bc, bConcrete := b.data.(ConcreteConst)
	if aConcrete && bConcrete {
		if ac.Value.Bits != bc.Value.Bits {
			return newUnifyError(ErrHeadMismatch, "const %s vs %s", a, b)
		}
		return u.relateTy(Invariant, ac.Ty, bc.Ty)
	}

	if a.String() != b.String() {
		return newUnifyError(ErrHeadMismatch, "const %s vs %s", a, b)
	}
	return nil
}

func (u *unifier) bindConstVar(v InferenceVarID, value *Const) error {
	_, e := u.table.find(v)
	occ := &occursVisitor{table: u.table, self: v, maxUniverse: e.universe}
	if VisitConst(value, occ, 0) {
		if occ.foundSelf {
			return newUnifyError(ErrOccursCheck, "variable %v occurs in %s", v, value)
		}
		return newUnifyError(ErrUniverseViolation, "const %s escapes universe of %v", value, v)
	}
	for _, pv := range occ.promote {
		u.table.promote(pv, e.universe)
	}
	u.table.bind(v, ConstArg(value))
	return nil
}
