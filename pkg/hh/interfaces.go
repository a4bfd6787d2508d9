package hh

// ClauseProvider is the boundary between the core solver and whatever
// owns program knowledge: trait, impl, ADT, opaque-type and coroutine
// declarations, plus the well-formedness and coinduction rules that
// fall out of them. The core never inspects a declaration directly;
// every domain goal it cannot discharge from the environment alone is
// routed through one of these methods, and the result is fed back
// through the same unification and fulfillment machinery used for
// clauses written directly in an Environment.
//
// Implementations are expected to be safe for concurrent use: a
// ConcurrentQueryPool runs independent queries against the same
// provider from multiple goroutines. A single search calls it from one
// goroutine only.
type ClauseProvider interface {
	// ProgramClausesFor returns every clause whose consequence could
	// possibly unify with goal, considered under env (so that e.g. a
	// blanket impl gated on an uninstantiated where-clause is still
	// offered up; the solver is responsible for rejecting it during
	// unification). Floundered is returned when the goal contains
	// enough unresolved structure (e.g. an unbound Self type behind a
	// negation) that enumerating clauses would be unsound; the caller
	// must treat this exactly like ErrFloundered.
	ProgramClausesFor(env *Environment, goal *Goal) ([]*Clause, bool, error)

	// IsCoinductivePredicate reports whether proofs of this goal are
	// allowed to appeal to themselves cyclically (auto traits and
	// well-formedness goals are the usual cases) rather than being
	// rejected as an infinite regress.
	IsCoinductivePredicate(goal *Goal) bool

	// VariancesForAdt and VariancesForFnDef report the declared
	// variance of each generic parameter. Unification in this package
	// does not call them: it relates ADT and fn-item type arguments
	// invariantly.
	VariancesForAdt(id AdtID) Variances
	VariancesForFnDef(id FnDefID) Variances

	// WellKnownTraitID maps one of the language's built-in marker
	// traits (Sized, Copy, Send, Sync, ...) to the TraitID the rest of
	// the database knows it by, so the core can recognize them without
	// hardcoding a name. The second result is false if the provider's
	// database does not define that marker at all.
	WellKnownTraitID(marker WellKnownTrait) (TraitID, bool)

	// Data accessors. The core treats every result as opaque payload:
	// it never branches on field contents, only passes them back to
	// the provider (e.g. when building the clauses an AdtDatum's
	// where-clauses imply) or uses them for display.
	AdtDatum(id AdtID) (AdtDatum, bool)
	TraitDatum(id TraitID) (TraitDatum, bool)
	ImplDatum(id ImplID) (ImplDatum, bool)
	OpaqueTyDatum(id OpaqueID) (OpaqueTyDatum, bool)
	CoroutineDatum(id CoroutineID) (CoroutineDatum, bool)

	// DisplayName renders a DefID-bearing identifier for diagnostics
	// and logging; the core's own String() methods fall back to the
	// bare Name field when no provider is available.
	DisplayName(id interface{ String() string }) string
}

// WellKnownTrait enumerates the marker traits the core's built-in
// goals (auto trait coinduction, object safety, Sized checks) need to
// recognize by identity rather than by name.
type WellKnownTrait int

const (
	WellKnownSized WellKnownTrait = iota
	WellKnownCopy
	WellKnownClone
	WellKnownSend
	WellKnownSync
	WellKnownUnpin
	WellKnownUnsize
	WellKnownDrop
	WellKnownFnOnce
	WellKnownFnMut
	WellKnownFn
)

func (w WellKnownTrait) String() string {
	switch w {
	case WellKnownSized:
		return "Sized"
	case WellKnownCopy:
		return "Copy"
	case WellKnownClone:
		return "Clone"
	case WellKnownSend:
		return "Send"
	case WellKnownSync:
		return "Sync"
	case WellKnownUnpin:
		return "Unpin"
	case WellKnownUnsize:
		return "Unsize"
	case WellKnownDrop:
		return "Drop"
	case WellKnownFnOnce:
		return "FnOnce"
	case WellKnownFnMut:
		return "FnMut"
	case WellKnownFn:
		return "Fn"
	default:
		return "?well-known-trait"
	}
}

// ImplID names an impl block; distinct from the other DefID kinds in
// terms.go because an impl has no surface name of its own to display.
type ImplID struct{ Index int }

func (id ImplID) String() string { return "impl" }

// AdtDatum, TraitDatum, ImplDatum, OpaqueTyDatum and CoroutineDatum
// carry exactly the binder/where-clause shape the core needs in
// order to build the implicit clauses every declaration contributes
// (well-formedness, implied bounds, auto-trait coinduction): a
// declaration's own generic binders plus the where-clauses attached
// to it. Anything beyond that (field types, method signatures, doc
// comments) belongs to the provider's own database and is never
// looked up by the core.
type AdtDatum struct {
	ID         AdtID
	Binders    []CanonicalVarKind
	WhereClauses []QuantifiedWhereClause
	Coinductive  bool
}

type TraitDatum struct {
	ID           TraitID
	Binders      []CanonicalVarKind
	WhereClauses []QuantifiedWhereClause
	// AutoTrait marks a trait whose only impls the provider ever
	// offers are the compiler-synthesized per-field ones, making every
	// goal about it coinductive.
	AutoTrait bool
	// ObjectSafe is precomputed by the provider rather than derived by
	// the core, since the rules for it reach into method signatures
	// the core never sees.
	ObjectSafe bool
}

type ImplDatum struct {
	ID           ImplID
	Binders      []CanonicalVarKind
	Trait        TraitID
	TraitArgs    []GenericArg
	WhereClauses []QuantifiedWhereClause
	Priority     ClausePriority
	// AssocBindings lists this impl's `type Assoc = Value;` items, Value
	// expressed in terms of the impl's own Binders exactly like
	// TraitArgs. Each becomes a ProjectionEq program clause
	// (§4.7) guarded by the same WhereClauses as the impl itself.
	AssocBindings []AssocBinding
}

// AssocBinding is one associated-type item inside an impl block.
type AssocBinding struct {
	Assoc AssocTypeID
	Value *Type
}

type OpaqueTyDatum struct {
	ID      OpaqueID
	Binders []CanonicalVarKind
	Bound   QuantifiedWhereClause
}

type CoroutineDatum struct {
	ID      CoroutineID
	Binders []CanonicalVarKind
}
