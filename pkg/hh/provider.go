package hh

import "sync"

// MemoryClauseProvider is a small in-memory ClauseProvider, indexed by
// trait so that ProgramClausesFor never has to scan impls it cannot
// possibly match. The indexed-lookup-over-a-growing-fact-set idiom is
// the same one an in-memory relational store built for this kind of
// search would use; here the "relation" is simply "impls of trait T"
// rather than arbitrary ground tuples, since an impl's own binders and
// where-clauses -- not just its columns -- are what the solver needs
// back.
//
// Safe for concurrent reads; adding declarations after construction is
// guarded by a mutex so a provider can be built up incrementally by a
// single setup goroutine before being shared across concurrent
// queries (each of which only reads it).
type MemoryClauseProvider struct {
	mu sync.RWMutex

	adts         map[AdtID]AdtDatum
	traits       map[TraitID]TraitDatum
	impls        map[ImplID]ImplDatum
	implsByTr    map[TraitID][]ImplID
	implsByAssoc map[AssocTypeID][]ImplID
	opaques      map[OpaqueID]OpaqueTyDatum
	coroutines   map[CoroutineID]CoroutineDatum
	wellKnown    map[WellKnownTrait]TraitID
	coinduct     PredicateSet

	interner *Interner
	nextImpl int
}

// NewMemoryClauseProvider builds an empty provider whose goals and
// clauses are interned through in.
func NewMemoryClauseProvider(in *Interner) *MemoryClauseProvider {
	return &MemoryClauseProvider{
		adts:         make(map[AdtID]AdtDatum),
		traits:       make(map[TraitID]TraitDatum),
		impls:        make(map[ImplID]ImplDatum),
		implsByTr:    make(map[TraitID][]ImplID),
		implsByAssoc: make(map[AssocTypeID][]ImplID),
		opaques:      make(map[OpaqueID]OpaqueTyDatum),
		coroutines: make(map[CoroutineID]CoroutineDatum),
		wellKnown:  make(map[WellKnownTrait]TraitID),
		coinduct:   NewPredicateSet(),
		interner:   in,
	}
}

// AddTrait declares a trait, optionally binding it to one of the
// language's well-known markers.
func (p *MemoryClauseProvider) AddTrait(d TraitDatum, marker ...WellKnownTrait) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.traits[d.ID] = d
	if d.AutoTrait {
		p.coinduct.Add(d.ID)
	}
	for _, m := range marker {
		p.wellKnown[m] = d.ID
	}
}

// AddAdt declares an ADT.
func (p *MemoryClauseProvider) AddAdt(d AdtDatum) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.adts[d.ID] = d
}

// AddOpaqueTy declares an opaque type (an `impl Trait` return type).
func (p *MemoryClauseProvider) AddOpaqueTy(d OpaqueTyDatum) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opaques[d.ID] = d
}

// AddCoroutine declares a coroutine/generator type.
func (p *MemoryClauseProvider) AddCoroutine(d CoroutineDatum) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.coroutines[d.ID] = d
}

// AddImpl declares an impl block, indexing it under its trait so
// ProgramClausesFor can find it without scanning every impl in the
// database.
func (p *MemoryClauseProvider) AddImpl(d ImplDatum) ImplID {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d.ID == (ImplID{}) {
		d.ID = ImplID{Index: p.nextImpl}
		p.nextImpl++
	}
	p.impls[d.ID] = d
	p.implsByTr[d.Trait] = append(p.implsByTr[d.Trait], d.ID)
	for _, b := range d.AssocBindings {
		p.implsByAssoc[b.Assoc] = append(p.implsByAssoc[b.Assoc], d.ID)
	}
	return d.ID
}

// ProgramClausesFor implements ClauseProvider: for an
// ImplementedTraitGoal it returns one clause per impl of that trait
// (Self: Trait<Args> :- WhereClauses); for a WellFormedTyGoal over an
// ADT or a WellFormedTraitGoal it returns the single clause generated
// from that declaration's own binders and where-clauses (§4.7: a type
// or trait reference is well-formed exactly when its own declared
// bounds hold of its arguments); for a ProjectionEqGoal it returns one
// clause per impl that binds the projected associated type
// (<Self as Trait>::Assoc = Value :- WhereClauses), same guard as the
// impl's own ImplementedTraitGoal clause. Every other domain goal
// still has no program clauses of its own (its provability comes
// entirely from the environment or from a ForallGoal wrapping a
// trait's where-clauses -- this provider deliberately keeps those out
// of scope, see DESIGN.md).
func (p *MemoryClauseProvider) ProgramClausesFor(env *Environment, goal *Goal) ([]*Clause, bool, error) {
	switch d := goal.Data().(type) {
	case ImplementedTraitGoal:
		return p.implClausesFor(d.Trait), false, nil
	case WellFormedTyGoal:
		return p.wellFormedTyClauses(d.Ty), false, nil
	case WellFormedTraitGoal:
		return p.wellFormedTraitClauses(d.Trait), false, nil
	case ProjectionEqGoal:
		return p.projectionClausesFor(d.Projection), false, nil
	default:
		return nil, false, nil
	}
}

func (p *MemoryClauseProvider) implClausesFor(trait TraitID) []*Clause {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := p.implsByTr[trait]
	clauses := make([]*Clause, 0, len(ids))
	for _, id := range ids {
		impl := p.impls[id]
		consequence := p.interner.InternGoal(ImplementedTraitGoal{Trait: impl.Trait, Args: impl.TraitArgs})
		clauses = append(clauses, &Clause{
			Binders:     impl.Binders,
			Consequence: consequence,
			Conditions:  quantifiedConditions(p.interner, impl.WhereClauses),
			Priority:    impl.Priority,
		})
	}
	return clauses
}

// wellFormedTyClauses returns the one clause declaring when an ADT
// reference is well-formed: ∀⟨Binders⟩ WF(Adt<Binders>) :- WhereClauses,
// matching the ADT's own declared binders and where-clauses against
// ty's ADT identity rather than ty's actual arguments (the solver
// unifies the clause's bound-variable consequence against the goal,
// same as any other clause). Non-ADT types have no declaration for the
// provider to consult, so they contribute no clauses; that leaves them
// neither proved nor disproved well-formed by this provider, which is
// consistent with it only modeling the declarations it was actually
// given.
func (p *MemoryClauseProvider) wellFormedTyClauses(ty *Type) []*Clause {
	adtTy, ok := ty.Data().(AdtTy)
	if !ok {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.adts[adtTy.ID]
	if !ok {
		return nil
	}
	consequence := p.interner.InternGoal(WellFormedTyGoal{
		Ty: p.interner.InternTy(AdtTy{ID: d.ID, Args: boundVarArgs(p.interner, d.Binders)}),
	})
	return []*Clause{{
		Binders:     d.Binders,
		Consequence: consequence,
		Conditions:  quantifiedConditions(p.interner, d.WhereClauses),
	}}
}

// wellFormedTraitClauses is wellFormedTyClauses's counterpart for
// WellFormedTraitGoal: ∀⟨Binders⟩ WF(Trait<Binders>) :- WhereClauses.
func (p *MemoryClauseProvider) wellFormedTraitClauses(trait TraitID) []*Clause {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.traits[trait]
	if !ok {
		return nil
	}
	consequence := p.interner.InternGoal(WellFormedTraitGoal{
		Trait: d.ID,
		Args:  boundVarArgs(p.interner, d.Binders),
	})
	return []*Clause{{
		Binders:     d.Binders,
		Consequence: consequence,
		Conditions:  quantifiedConditions(p.interner, d.WhereClauses),
	}}
}

// projectionClausesFor returns one clause per impl binding the
// associated type projection names: ∀⟨Binders⟩ <Self as Trait>::Assoc
// = Value :- WhereClauses. projection must be a *Type wrapping
// ProjectionTy; any other shape (the alias has not yet been resolved
// to a concrete AssocTypeID) contributes no clauses.
func (p *MemoryClauseProvider) projectionClausesFor(projection *Type) []*Clause {
	proj, ok := projection.Data().(ProjectionTy)
	if !ok {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := p.implsByAssoc[proj.AssocTypeID]
	var clauses []*Clause
	for _, id := range ids {
		impl := p.impls[id]
		for _, b := range impl.AssocBindings {
			if b.Assoc != proj.AssocTypeID {
				continue
			}
			consequence := p.interner.InternGoal(ProjectionEqGoal{
				Projection: p.interner.InternTy(ProjectionTy{AssocTypeID: b.Assoc, Args: impl.TraitArgs}),
				Ty:         b.Value,
			})
			clauses = append(clauses, &Clause{
				Binders:     impl.Binders,
				Consequence: consequence,
				Conditions:  quantifiedConditions(p.interner, impl.WhereClauses),
				Priority:    impl.Priority,
			})
		}
	}
	return clauses
}

// quantifiedConditions lowers a declaration's where-clauses into the
// Conditions list a Clause carries, wrapping any that quantify further
// variables of their own in a ForallGoal.
func quantifiedConditions(in *Interner, wcs []QuantifiedWhereClause) []*Goal {
	conditions := make([]*Goal, len(wcs))
	for i, wc := range wcs {
		if len(wc.Binders) == 0 {
			conditions[i] = wc.Goal
			continue
		}
		conditions[i] = in.InternGoal(ForallGoal{Binders: wc.Binders, Body: wc.Goal})
	}
	return conditions
}

// boundVarArgs builds the generic argument list referencing binders'
// own bound variables in order, the shape a declaration's consequence
// must take so that unifying it against a caller's concrete goal binds
// each declared parameter to the caller's actual argument.
func boundVarArgs(in *Interner, binders []CanonicalVarKind) []GenericArg {
	args := make([]GenericArg, len(binders))
	for i, bk := range binders {
		bv := BoundVar{Debruijn: 0, Index: i}
		switch bk.Kind {
		case ParamKindLifetime:
			args[i] = LifetimeArg(in.InternLifetime(BoundVarLt{Var: bv}))
		case ParamKindConst:
			args[i] = ConstArg(in.InternConst(BoundVarConst{Var: bv}))
		default:
			args[i] = TyArg(in.InternTy(BoundVarTy{Var: bv}))
		}
	}
	return args
}

// IsCoinductivePredicate reports true for any goal about a trait
// declared auto (§4.4's canonical coinductive case).
func (p *MemoryClauseProvider) IsCoinductivePredicate(goal *Goal) bool {
	d, ok := goal.Data().(ImplementedTraitGoal)
	if !ok {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.coinduct.Contains(d.Trait)
}

// VariancesForAdt returns the declared ADT's variances, or an all-
// invariant default if it is unknown (a conservative choice: treating
// an unknown parameter as invariant only ever rejects programs that a
// more precise variance would have accepted, never the reverse).
func (p *MemoryClauseProvider) VariancesForAdt(id AdtID) Variances {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if d, ok := p.adts[id]; ok {
		return Variances{ParamVariance: invariantKinds(len(d.Binders))}
	}
	return Variances{}
}

// VariancesForFnDef has no declaration table of its own in this
// provider (fn items never got a datum type in ClauseProvider's
// surface); every parameter is reported invariant.
func (p *MemoryClauseProvider) VariancesForFnDef(id FnDefID) Variances {
	return Variances{}
}

func invariantKinds(n int) []Variance {
	if n == 0 {
		return nil
	}
	ks := make([]Variance, n)
	for i := range ks {
		ks[i] = Invariant
	}
	return ks
}

// ImplsOf returns every impl declared for trait, in declaration order.
// It implements ImplEnumerator, letting a CoherenceChecker enumerate
// candidate pairs without the core's ClauseProvider interface having
// to expose a generic "all impls of trait" accessor of its own.
func (p *MemoryClauseProvider) ImplsOf(trait TraitID) []ImplID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]ImplID, len(p.implsByTr[trait]))
	copy(out, p.implsByTr[trait])
	return out
}

// WellKnownTraitID implements ClauseProvider.
func (p *MemoryClauseProvider) WellKnownTraitID(marker WellKnownTrait) (TraitID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.wellKnown[marker]
	return id, ok
}

// AdtDatum, TraitDatum, ImplDatum, OpaqueTyDatum and CoroutineDatum
// implement ClauseProvider's data accessors.
func (p *MemoryClauseProvider) AdtDatum(id AdtID) (AdtDatum, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.adts[id]
	return d, ok
}

func (p *MemoryClauseProvider) TraitDatum(id TraitID) (TraitDatum, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.traits[id]
	return d, ok
}

func (p *MemoryClauseProvider) ImplDatum(id ImplID) (ImplDatum, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.impls[id]
	return d, ok
}

func (p *MemoryClauseProvider) OpaqueTyDatum(id OpaqueID) (OpaqueTyDatum, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.opaques[id]
	return d, ok
}

func (p *MemoryClauseProvider) CoroutineDatum(id CoroutineID) (CoroutineDatum, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.coroutines[id]
	return d, ok
}

// DisplayName renders a DefID-bearing identifier for diagnostics.
func (p *MemoryClauseProvider) DisplayName(id interface{ String() string }) string {
	return id.String()
}
