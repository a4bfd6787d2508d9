package hh

import (
	"fmt"
	"sync"
)

// ufEntry is one slot of the union-find over inference variables. A
// root entry (hasParent == false) carries either an Unbound universe
// or a Bound value; a non-root entry only ever carries Parent, which
// find() chases to the representative for the whole equivalence class.
type ufEntry struct {
	hasParent bool
	parent    InferenceVarID

	bound    bool
	universe UniverseIndex
	value    GenericArg
}

// Snapshot is an opaque mark returned by InferenceTable.Snapshot,
// passed back to RollbackTo or Commit to close a transaction.
type Snapshot int

// InferenceTable owns the union-find over one query's inference
// variables and drives unification, canonicalization and
// instantiation against it. A table is created per top-level query
// and per recursive sub-query that opens a fresh universe; its state
// never outlives that query.
type InferenceTable struct {
	mu sync.Mutex

	interner *Interner
	vars     map[InferenceVarID]*ufEntry
	nextVar  map[ParameterKind]uint32

	maxUniverse UniverseIndex

	undoLog []func()
}

// NewInferenceTable creates an empty table rooted at UniverseIndex 0.
func NewInferenceTable(interner *Interner) *InferenceTable {
	return &InferenceTable{
		interner: interner,
		vars:     make(map[InferenceVarID]*ufEntry),
		nextVar:  make(map[ParameterKind]uint32),
	}
}

// Interner returns the interner this table mints terms through.
func (t *InferenceTable) Interner() *Interner { return t.interner }

// MaxUniverse returns the highest universe opened so far in this table.
func (t *InferenceTable) MaxUniverse() UniverseIndex { return t.maxUniverse }

// NewUniverse opens and returns a fresh universe strictly above every
// universe opened so far; called when a ∀-binder is entered.
func (t *InferenceTable) NewUniverse() UniverseIndex {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.newUniverseLocked()
}

func (t *InferenceTable) newUniverseLocked() UniverseIndex {
	old := t.maxUniverse
	t.maxUniverse = t.maxUniverse.Next()
	t.pushUndo(func() { t.maxUniverse = old })
	return t.maxUniverse
}

// NewVariable mints a fresh, unbound inference variable of the given
// kind in universe u.
func (t *InferenceTable) NewVariable(kind ParameterKind, u UniverseIndex) InferenceVarID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.newVariableLocked(kind, u)
}

func (t *InferenceTable) newVariableLocked(kind ParameterKind, u UniverseIndex) InferenceVarID {
	id := t.nextVar[kind]
	t.nextVar[kind] = id + 1
	v := InferenceVarID{id: id, kind: kind}
	t.vars[v] = &ufEntry{bound: false, universe: u}
	t.pushUndo(func() { delete(t.vars, v) })
	return v
}

// NewVariableArg mints a fresh variable and wraps it as the matching
// GenericArg kind in one step; a convenience used throughout the solver.
func (t *InferenceTable) NewVariableArg(kind ParameterKind, u UniverseIndex) GenericArg {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.newVariableArgLocked(kind, u)
}

func (t *InferenceTable) newVariableArgLocked(kind ParameterKind, u UniverseIndex) GenericArg {
	v := t.newVariableLocked(kind, u)
	switch kind {
	case ParamKindTy:
		return TyArg(t.interner.InternTy(InferenceVarTy{Var: v}))
	case ParamKindLifetime:
		return LifetimeArg(t.interner.InternLifetime(InferenceVarLt{Var: v}))
	default:
		return ConstArg(t.interner.InternConst(InferenceVarConst{Var: v}))
	}
}

func (t *InferenceTable) pushUndo(f func()) {
	t.undoLog = append(t.undoLog, f)
}

// Snapshot marks the current transaction boundary.
func (t *InferenceTable) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot(len(t.undoLog))
}

// RollbackTo undoes every mutation recorded since s, restoring the
// table to exactly the state it had when s was taken.
func (t *InferenceTable) RollbackTo(s Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.undoLog) - 1; i >= int(s); i-- {
		t.undoLog[i]()
	}
	t.undoLog = t.undoLog[:s]
}

// Commit discards the ability to roll back to s without undoing
// anything; the mutations since s become permanent (until an earlier
// snapshot is itself rolled back).
func (t *InferenceTable) Commit(s Snapshot) {
	// Undo closures already applied are simply retained in the log so
	// that an *earlier* snapshot can still unwind them; commit only
	// promises the caller will not roll back to s itself.
	_ = s
}

// find returns the representative entry for v, chasing parent links.
// It does not path-compress: compression would itself need undo-log
// entries to stay correct across rollback, and chains stay short in
// practice because union always attaches the newer root to the older.
func (t *InferenceTable) find(v InferenceVarID) (InferenceVarID, *ufEntry) {
	for {
		e, ok := t.vars[v]
		if !ok {
			panic(fmt.Sprintf("hh: inference variable %v not known to this table", v))
		}
		if !e.hasParent {
			return v, e
		}
		v = e.parent
	}
}

// NormalizeShallow replaces the outermost layer of a bound inference
// variable with its binding, repeating until the result is not itself
// a bound inference variable. It never recurses into substructure: a
// compound term bound to a variable may still contain other unresolved
// inference variables inside it.
func (t *InferenceTable) NormalizeShallowArg(a GenericArg) GenericArg {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.normalizeShallowLocked(a)
}

func (t *InferenceTable) normalizeShallowLocked(a GenericArg) GenericArg {
	for {
		var v InferenceVarID
		switch a.Kind {
		case ArgKindTy:
			d, ok := a.Ty.data.(InferenceVarTy)
			if !ok {
				return a
			}
			v = d.Var
		case ArgKindLifetime:
			d, ok := a.Lifetime.data.(InferenceVarLt)
			if !ok {
				return a
			}
			v = d.Var
		default:
			d, ok := a.Const.data.(InferenceVarConst)
			if !ok {
				return a
			}
			v = d.Var
		}
		_, e := t.find(v)
		if !e.bound {
			switch a.Kind {
			case ArgKindTy:
				return TyArg(t.interner.InternTy(InferenceVarTy{Var: v}))
			case ArgKindLifetime:
				return LifetimeArg(t.interner.InternLifetime(InferenceVarLt{Var: v}))
			default:
				return ConstArg(t.interner.InternConst(InferenceVarConst{Var: v}))
			}
		}
		a = e.value
	}
}

// NormalizeShallowTy is NormalizeShallowArg specialized to types.
func (t *InferenceTable) NormalizeShallowTy(ty *Type) *Type {
	return t.NormalizeShallowArg(TyArg(ty)).Ty
}

// NormalizeShallowLifetime is NormalizeShallowArg specialized to lifetimes.
func (t *InferenceTable) NormalizeShallowLifetime(l *Lifetime) *Lifetime {
	return t.NormalizeShallowArg(LifetimeArg(l)).Lifetime
}

func (t *InferenceTable) normalizeShallowLifetimeLocked(l *Lifetime) *Lifetime {
	return t.normalizeShallowLocked(LifetimeArg(l)).Lifetime
}

// bind records that v is now bound to value. Callers must have already
// run the occurs-check and universe-check; bind itself only mutates
// state and logs its inverse.
func (t *InferenceTable) bind(v InferenceVarID, value GenericArg) {
	root, e := t.find(v)
	oldBound, oldUniverse, oldValue := e.bound, e.universe, e.value
	e.bound = true
	e.value = value
	t.pushUndo(func() {
		ent := t.vars[root]
		ent.bound, ent.universe, ent.value = oldBound, oldUniverse, oldValue
	})
}

// union merges the equivalence classes of a and b (both must be
// currently unbound), keeping the lower of the two universes as the
// merged root's universe.
func (t *InferenceTable) union(a, b InferenceVarID) {
	ra, ea := t.find(a)
	rb, eb := t.find(b)
	if ra == rb {
		return
	}
	mergedUniverse := ea.universe
	if eb.universe < mergedUniverse {
		mergedUniverse = eb.universe
	}
	oldEaUniverse := ea.universe
	ea.universe = mergedUniverse
	eb.hasParent = true
	eb.parent = ra
	oldEbHasParent, oldEbParent := false, InferenceVarID{}
	t.pushUndo(func() {
		ea.universe = oldEaUniverse
		eb.hasParent = oldEbHasParent
		eb.parent = oldEbParent
	})
}

// promote lowers the universe of an unbound variable to at most u. Per
// the invariant that a variable's universe is monotone non-increasing,
// this never raises a universe, only lowers it.
func (t *InferenceTable) promote(v InferenceVarID, u UniverseIndex) {
	_, e := t.find(v)
	if e.universe <= u {
		return
	}
	old := e.universe
	e.universe = u
	t.pushUndo(func() { e.universe = old })
}

// Universe returns the current universe of an inference variable (its
// own universe if unbound, meaningless once bound).
func (t *InferenceTable) Universe(v InferenceVarID) UniverseIndex {
	_, e := t.find(v)
	return e.universe
}

// IsUnbound reports whether v's representative is still unbound.
func (t *InferenceTable) IsUnbound(v InferenceVarID) bool {
	_, e := t.find(v)
	return !e.bound
}

// InstantiateCanonical opens a Canonical's outer binder with fresh
// inference variables, one per binder slot, each minted in its
// recorded universe, and applies the resulting substitution to Value.
func InstantiateCanonical[T any](t *InferenceTable, c Canonical[T], apply func(*Substitution) T) (T, *Substitution) {
	args := make([]GenericArg, len(c.Binders))
	for i, bk := range c.Binders {
		args[i] = t.NewVariableArg(bk.Kind, bk.Universe)
	}
	subst := NewSubstitution(args)
	return apply(subst), subst
}
