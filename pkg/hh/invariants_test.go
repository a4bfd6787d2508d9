package hh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCanonicalFormIsNormalForm checks that canonicalizing an
// already-canonical value is a no-op: a Canonical's Value only ever
// refers to its own outer binder through BoundVarTy/BoundVarLt/
// BoundVarConst, never through a live inference variable, so folding
// it again under a fresh table finds nothing left to rename.
func TestCanonicalFormIsNormalForm(t *testing.T) {
	in := NewInterner()
	table := NewInferenceTable(in)

	tv := table.NewVariableArg(ParamKindTy, RootUniverse)
	goal := in.InternGoal(ImplementedTraitGoal{
		Trait: TraitID{Name: "Clone"},
		Args:  []GenericArg{tv},
	})

	once := table.CanonicalizeGoal(goal)
	require.Len(t, once.Binders, 1)

	again := NewInferenceTable(in).CanonicalizeGoal(once.Value)
	require.Empty(t, again.Binders, "a goal with no free inference variables gains no new binder slots")
	require.Equal(t, once.Value.String(), again.Value.String())
}

// TestUniverseSoundnessRejectsEscapingPlaceholder binds a variable
// from a lower universe to a type that embeds a placeholder from a
// strictly higher universe. A placeholder's universe can never be
// lowered, so this must fail with ErrUniverseViolation rather than
// silently producing an unsound binding.
func TestUniverseSoundnessRejectsEscapingPlaceholder(t *testing.T) {
	in := NewInterner()
	table := NewInferenceTable(in)

	lowVar := table.NewVariableArg(ParamKindTy, RootUniverse)
	highUniverse := table.NewUniverse()
	placeholder := TyArg(in.InternTy(PlaceholderTy{Placeholder: Placeholder{Universe: highUniverse, Index: 0}}))
	escaping := TyArg(in.InternTy(AdtTy{
		ID:   AdtID{Name: "Box"},
		Args: []GenericArg{placeholder},
	}))

	_, err := table.Relate(Covariant, lowVar, escaping)
	require.Error(t, err)
	uerr, ok := err.(*UnifyError)
	require.True(t, ok)
	require.Equal(t, ErrUniverseViolation, uerr.Kind)
}

// TestOccursCheckRejectsSelfReferentialBinding checks that a variable
// can never be bound to a term that contains itself, even nested
// inside a constructor.
func TestOccursCheckRejectsSelfReferentialBinding(t *testing.T) {
	in := NewInterner()
	table := NewInferenceTable(in)

	v := table.NewVariableArg(ParamKindTy, RootUniverse)
	selfReferential := TyArg(in.InternTy(AdtTy{
		ID:   AdtID{Name: "Box"},
		Args: []GenericArg{v},
	}))

	_, err := table.Relate(Covariant, v, selfReferential)
	require.Error(t, err)
	uerr, ok := err.(*UnifyError)
	require.True(t, ok)
	require.Equal(t, ErrOccursCheck, uerr.Kind)
}

// TestSnapshotDisciplineRestoresCanonicalForm binds a variable, takes
// a snapshot, binds it again to something else, then rolls back: the
// variable must come back exactly as unbound as it was before the
// snapshot, which canonicalize makes observable by assigning it the
// same binder slot it held pre-snapshot rather than folding through a
// stale binding.
func TestSnapshotDisciplineRestoresCanonicalForm(t *testing.T) {
	in := NewInterner()
	table := NewInferenceTable(in)

	tv := table.NewVariableArg(ParamKindTy, RootUniverse)
	goal := in.InternGoal(ImplementedTraitGoal{
		Trait: TraitID{Name: "Clone"},
		Args:  []GenericArg{tv},
	})

	before := table.CanonicalizeGoal(goal)

	s := table.Snapshot()
	foo := TyArg(in.InternTy(AdtTy{ID: AdtID{Name: "Foo"}}))
	_, err := table.Relate(Covariant, tv, foo)
	require.NoError(t, err)

	bound := table.CanonicalizeGoal(goal)
	require.Empty(t, bound.Binders, "once bound, the goal canonicalizes with no free variables left")

	table.RollbackTo(s)

	after := table.CanonicalizeGoal(goal)
	require.Equal(t, before.Binders, after.Binders)
	require.Equal(t, before.Value.String(), after.Value.String())
}

// TestPriorityMonotonicityNeverReturnsLowWhenHighSucceeds exercises
// CombineClauseOutcomes directly: a High-priority clause and a
// Low-priority clause succeed with two different substitutions, and
// the Low substitution must never surface in the combined result.
func TestPriorityMonotonicityNeverReturnsLowWhenHighSucceeds(t *testing.T) {
	in := NewInterner()

	fooTy := in.InternTy(AdtTy{ID: AdtID{Name: "Foo"}})
	barTy := in.InternTy(AdtTy{ID: AdtID{Name: "Bar"}})

	high := Canonical[*Substitution]{Value: &Substitution{Args: []GenericArg{TyArg(fooTy)}}}
	low := Canonical[*Substitution]{Value: &Substitution{Args: []GenericArg{TyArg(barTy)}}}

	sol := CombineClauseOutcomes(in, []ClauseOutcome{
		{Priority: PriorityLow, Subst: low},
		{Priority: PriorityHigh, Subst: high},
	})

	require.True(t, sol.IsUnique())
	require.Equal(t, fooTy.String(), sol.Unique.Canonical.Value.Subst.Args[0].Ty.String())
}

// TestMixedCoinductiveInductiveCycleHasNoSolution wires a cycle
// between a coinductive auto trait (Send) and an ordinary inductive
// trait (Other), each implied by the other: `T: Send :- T: Other` and
// `T: Other :- T: Send`. Per §4.4 a cycle that mixes the two kinds of
// predicate is rejected outright rather than treated as a coinductive
// self-proof, unlike the purely-coinductive Send/Vec cycle elsewhere
// in this package.
func TestMixedCoinductiveInductiveCycleHasNoSolution(t *testing.T) {
	in := NewInterner()
	provider := NewMemoryClauseProvider(in)

	send := TraitID{Name: "Send"}
	other := TraitID{Name: "Other"}
	provider.AddTrait(TraitDatum{ID: send, AutoTrait: true})
	provider.AddTrait(TraitDatum{ID: other})

	tVar := TyArg(in.InternTy(BoundVarTy{Var: BoundVar{Debruijn: 0, Index: 0}}))
	// T: Send :- T: Other
	provider.AddImpl(ImplDatum{
		Binders:   []CanonicalVarKind{{Kind: ParamKindTy}},
		Trait:     send,
		TraitArgs: []GenericArg{tVar},
		WhereClauses: []QuantifiedWhereClause{{
			Goal: in.InternGoal(ImplementedTraitGoal{Trait: other, Args: []GenericArg{tVar}}),
		}},
	})
	// T: Other :- T: Send
	provider.AddImpl(ImplDatum{
		Binders:   []CanonicalVarKind{{Kind: ParamKindTy}},
		Trait:     other,
		TraitArgs: []GenericArg{tVar},
		WhereClauses: []QuantifiedWhereClause{{
			Goal: in.InternGoal(ImplementedTraitGoal{Trait: send, Args: []GenericArg{tVar}}),
		}},
	})

	table := NewInferenceTable(in)
	tv := table.NewVariableArg(ParamKindTy, RootUniverse)
	goal := in.InternGoal(ImplementedTraitGoal{Trait: other, Args: []GenericArg{tv}})
	ucgoal, _ := table.CanonicalizeInEnvironmentForSolve(&Environment{}, goal)

	solver := NewRecursiveSolver(context.Background(), in, provider, DefaultConfig())
	sol, err := solver.Solve(ucgoal)
	require.NoError(t, err)
	require.False(t, sol.IsUnique(), "a mixed coinductive/inductive cycle must not prove itself")
}

// TestDeterminismAcrossInvocations solves the same goal against two
// independent inference tables (structurally-equal input) and checks
// the two solutions are structurally equal.
func TestDeterminismAcrossInvocations(t *testing.T) {
	in := NewInterner()
	provider := NewMemoryClauseProvider(in)

	clone := TraitID{Name: "Clone"}
	foo := AdtID{Name: "Foo"}
	provider.AddTrait(TraitDatum{ID: clone})
	provider.AddAdt(AdtDatum{ID: foo})
	provider.AddImpl(ImplDatum{Trait: clone, TraitArgs: []GenericArg{TyArg(in.InternTy(AdtTy{ID: foo}))}})

	solveOnce := func() Solution {
		table := NewInferenceTable(in)
		goal := in.InternGoal(ImplementedTraitGoal{
			Trait: clone,
			Args:  []GenericArg{TyArg(in.InternTy(AdtTy{ID: foo}))},
		})
		ucgoal, _ := table.CanonicalizeInEnvironmentForSolve(&Environment{}, goal)
		solver := NewRecursiveSolver(context.Background(), in, provider, DefaultConfig())
		sol, err := solver.Solve(ucgoal)
		require.NoError(t, err)
		return sol
	}

	a := solveOnce()
	b := solveOnce()
	require.Equal(t, a.Kind, b.Kind)
	require.True(t, a.IsUnique())
	require.Equal(t, a.Unique.Canonical.Value.Subst.String(), b.Unique.Canonical.Value.Subst.String())
}
