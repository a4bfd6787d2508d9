package hh

import "sort"

// canonicalizer is the Folder that implements InferenceTable.Canonicalize:
// at every inference-variable leaf it shallow-resolves through the
// union-find, then either recurses into the bound value (still
// canonicalizing any variables nested inside it) or, if the variable
// is unbound, assigns it the next De Bruijn slot under the canonical
// form's fresh outer binder.
type canonicalizer struct {
	IdentityFolder
	table   *InferenceTable
	varMap  map[InferenceVarID]int
	binders []CanonicalVarKind
}

func newCanonicalizer(t *InferenceTable) *canonicalizer {
	return &canonicalizer{table: t, varMap: make(map[InferenceVarID]int)}
}

func (c *canonicalizer) slotFor(root InferenceVarID, kind ParameterKind, universe UniverseIndex) int {
	if idx, ok := c.varMap[root]; ok {
		return idx
	}
	idx := len(c.binders)
	c.varMap[root] = idx
	c.binders = append(c.binders, CanonicalVarKind{Kind: kind, Universe: universe})
	return idx
}

func (c *canonicalizer) FoldTyInferenceVar(in *Interner, v InferenceVarID, outerBinder int) *Type {
	root, e := c.table.find(v)
	if e.bound {
		return FoldType(in, e.value.Ty, c, outerBinder)
	}
	idx := c.slotFor(root, ParamKindTy, e.universe)
	return in.InternTy(BoundVarTy{Var: BoundVar{Debruijn: outerBinder, Index: idx}})
}

func (c *canonicalizer) FoldLifetimeInferenceVar(in *Interner, v InferenceVarID, outerBinder int) *Lifetime {
	root, e := c.table.find(v)
	if e.bound {
		return FoldLifetime(in, e.value.Lifetime, c, outerBinder)
	}
	idx := c.slotFor(root, ParamKindLifetime, e.universe)
	return in.InternLifetime(BoundVarLt{Var: BoundVar{Debruijn: outerBinder, Index: idx}})
}

func (c *canonicalizer) FoldConstInferenceVar(in *Interner, v InferenceVarID, outerBinder int) *Const {
	root, e := c.table.find(v)
	if e.bound {
		return FoldConst(in, e.value.Const, c, outerBinder)
	}
	idx := c.slotFor(root, ParamKindConst, e.universe)
	return in.InternConst(BoundVarConst{Var: BoundVar{Debruijn: outerBinder, Index: idx}})
}

// CanonicalizeGoal renames every free inference variable reachable
// from g to a dense De Bruijn prefix under a fresh outer binder.
func (t *InferenceTable) CanonicalizeGoal(g *Goal) Canonical[*Goal] {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := newCanonicalizer(t)
	body := FoldGoal(t.interner, g, c, 0)
	return Canonical[*Goal]{Binders: c.binders, Value: body}
}

// CanonicalizeInEnvironment canonicalizes a goal together with the
// environment it is proved in, sharing one binder across both so a
// variable appearing in an assumption and in the goal gets one slot.
func (t *InferenceTable) CanonicalizeInEnvironment(ie *InEnvironment) Canonical[*InEnvironment] {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := newCanonicalizer(t)
	clauses := make([]*Clause, len(ie.Env.Clauses))
	for i, cl := range ie.Env.Clauses {
		clauses[i] = FoldClause(t.interner, cl, c, 0)
	}
	goal := FoldGoal(t.interner, ie.Goal, c, 0)
	return Canonical[*InEnvironment]{
		Binders: c.binders,
		Value:   &InEnvironment{Env: &Environment{Clauses: clauses}, Goal: goal},
	}
}

// CanonicalizeSubstitution canonicalizes every argument of a
// substitution, e.g. when packaging a ConstrainedSubst answer.
func (t *InferenceTable) CanonicalizeSubstitution(s *Substitution) Canonical[*Substitution] {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := newCanonicalizer(t)
	args := make([]GenericArg, len(s.Args))
	for i, a := range s.Args {
		args[i] = FoldGenericArg(t.interner, a, c, 0)
	}
	return Canonical[*Substitution]{Binders: c.binders, Value: &Substitution{Args: args}}
}

// CanonicalizeInEnvironmentForSolve is CanonicalizeInEnvironment plus
// UCanonicalizeInEnvironment in one step, additionally returning, for
// each binder slot of the result, which inference variable of this
// table it replaced -- the information Fulfillment needs to bind the
// answer an external solver produces back onto the caller's own
// variables.
func (t *InferenceTable) CanonicalizeInEnvironmentForSolve(env *Environment, goal *Goal) (UCanonical[*InEnvironment], []InferenceVarID) {
	t.mu.Lock()
	c := newCanonicalizer(t)
	clauses := make([]*Clause, len(env.Clauses))
	for i, cl := range env.Clauses {
		clauses[i] = FoldClause(t.interner, cl, c, 0)
	}
	body := FoldGoal(t.interner, goal, c, 0)
	t.mu.Unlock()

	originalVars := make([]InferenceVarID, len(c.binders))
	for root, idx := range c.varMap {
		originalVars[idx] = root
	}

	newBinders, remap := renumberUniverses(c.binders)
	return UCanonical[*InEnvironment]{
		Canonical: Canonical[*InEnvironment]{
			Binders: newBinders,
			Value:   &InEnvironment{Env: &Environment{Clauses: clauses}, Goal: body},
		},
		Universes: remap,
	}, originalVars
}

// UCanonicalizeGoal additionally renumbers the universes occurring in
// a canonicalized goal's binder vector to a dense U0..Uk-1 prefix.
func UCanonicalizeGoal(c Canonical[*Goal]) UCanonical[*Goal] {
	newBinders, remap := renumberUniverses(c.Binders)
	return UCanonical[*Goal]{
		Canonical: Canonical[*Goal]{Binders: newBinders, Value: c.Value},
		Universes: remap,
	}
}

// UCanonicalizeInEnvironment is UCanonicalizeGoal for an InEnvironment payload.
func UCanonicalizeInEnvironment(c Canonical[*InEnvironment]) UCanonical[*InEnvironment] {
	newBinders, remap := renumberUniverses(c.Binders)
	return UCanonical[*InEnvironment]{
		Canonical: Canonical[*InEnvironment]{Binders: newBinders, Value: c.Value},
		Universes: remap,
	}
}

// renumberUniverses collects the distinct universes occurring in
// binders, sorts them, and maps each occurrence to its position in
// that sorted, deduplicated sequence -- the dense U0..Uk-1 prefix.
func renumberUniverses(binders []CanonicalVarKind) ([]CanonicalVarKind, UniverseMap) {
	seen := make(map[UniverseIndex]struct{})
	for _, b := range binders {
		seen[b.Universe] = struct{}{}
	}
	distinct := make([]UniverseIndex, 0, len(seen))
	for u := range seen {
		distinct = append(distinct, u)
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i] < distinct[j] })

	toNew := make(map[UniverseIndex]UniverseIndex, len(distinct))
	for i, u := range distinct {
		toNew[u] = UniverseIndex(i)
	}

	newBinders := make([]CanonicalVarKind, len(binders))
	for i, b := range binders {
		newBinders[i] = CanonicalVarKind{Kind: b.Kind, Universe: toNew[b.Universe]}
	}
	return newBinders, UniverseMap{Original: distinct}
}

// InvertThenCanonicalize replaces every unbound inference variable
// free in g with a bound variable of a fresh outer binder (listed in
// the returned Binders with its kind and universe), and bound
// inference variables with their values. Placeholders already in g
// are left unchanged; they are not turned into inference variables.
// It fails (returns false) if g contains a type inference variable
// bound to a term that still mentions an inference variable; bound
// lifetime and const variables are not checked this way.
func (t *InferenceTable) InvertThenCanonicalize(g *Goal) (Canonical[*Goal], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	inv := &inverter{table: t, varMap: make(map[InferenceVarID]int)}
	body := FoldGoal(t.interner, g, inv, 0)
	if inv.blocked {
		return Canonical[*Goal]{}, false
	}
	return Canonical[*Goal]{Binders: inv.binders, Value: body}, true
}

// inverter turns unbound inference variables into bound-variable slots
// of the produced canonical form (recorded in binders) and leaves
// placeholders as they are; see InvertThenCanonicalize.
type inverter struct {
	IdentityFolder
	table   *InferenceTable
	varMap  map[InferenceVarID]int
	binders []CanonicalVarKind
	blocked bool
}

func (inv *inverter) FoldTyInferenceVar(in *Interner, v InferenceVarID, outerBinder int) *Type {
	root, e := inv.table.find(v)
	if e.bound {
		if containsInferenceVar(e.value) {
			inv.blocked = true
			return in.InternTy(ErrorTy{})
		}
		return FoldType(in, e.value.Ty, inv, outerBinder)
	}
	idx, ok := inv.varMap[root]
	if !ok {
		idx = len(inv.binders)
		inv.varMap[root] = idx
		inv.binders = append(inv.binders, CanonicalVarKind{Kind: ParamKindTy, Universe: e.universe})
	}
	return in.InternTy(BoundVarTy{Var: BoundVar{Debruijn: outerBinder, Index: idx}})
}

func (inv *inverter) FoldLifetimeInferenceVar(in *Interner, v InferenceVarID, outerBinder int) *Lifetime {
	root, e := inv.table.find(v)
	if e.bound {
		return FoldLifetime(in, e.value.Lifetime, inv, outerBinder)
	}
	idx, ok := inv.varMap[root]
	if !ok {
		idx = len(inv.binders)
		inv.varMap[root] = idx
		inv.binders = append(inv.binders, CanonicalVarKind{Kind: ParamKindLifetime, Universe: e.universe})
	}
	return in.InternLifetime(BoundVarLt{Var: BoundVar{Debruijn: outerBinder, Index: idx}})
}

func (inv *inverter) FoldConstInferenceVar(in *Interner, v InferenceVarID, outerBinder int) *Const {
	root, e := inv.table.find(v)
	if e.bound {
		return FoldConst(in, e.value.Const, inv, outerBinder)
	}
	idx, ok := inv.varMap[root]
	if !ok {
		idx = len(inv.binders)
		inv.varMap[root] = idx
		inv.binders = append(inv.binders, CanonicalVarKind{Kind: ParamKindConst, Universe: e.universe})
	}
	return in.InternConst(BoundVarConst{Var: BoundVar{Debruijn: outerBinder, Index: idx}})
}

func containsInferenceVar(a GenericArg) bool {
	v := &inferenceVarProbe{}
	return VisitGenericArg(a, v, 0)
}

type inferenceVarProbe struct{}

func (inferenceVarProbe) VisitTyVar(BoundVar, int) bool                   { return false }
func (inferenceVarProbe) VisitTyInferenceVar(InferenceVarID, int) bool    { return true }
func (inferenceVarProbe) VisitTyPlaceholder(Placeholder, int) bool        { return false }
func (inferenceVarProbe) VisitLifetimeVar(BoundVar, int) bool             { return false }
func (inferenceVarProbe) VisitLifetimeInferenceVar(InferenceVarID, int) bool {
	return true
}
func (inferenceVarProbe) VisitLifetimePlaceholder(Placeholder, int) bool  { return false }
func (inferenceVarProbe) VisitConstVar(BoundVar, int) bool                { return false }
func (inferenceVarProbe) VisitConstInferenceVar(InferenceVarID, int) bool { return true }
func (inferenceVarProbe) VisitConstPlaceholder(Placeholder, int) bool     { return false }
