package hh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestWellFormedAdtHoldsWhenBoundSatisfied wires `trait Clone {} struct
// Foo {} struct Vec<T> where T: Clone {}` (the ADT's own where-clause,
// not an impl's) and checks that WF(Vec<Foo>) succeeds because Foo:
// Clone holds, generated entirely from MemoryClauseProvider's
// declaration-derived clause rather than anything hand-built into the
// goal.
func TestWellFormedAdtHoldsWhenBoundSatisfied(t *testing.T) {
	in := NewInterner()
	provider := NewMemoryClauseProvider(in)

	clone := TraitID{Name: "Clone"}
	foo := AdtID{Name: "Foo"}
	vec := AdtID{Name: "Vec"}

	provider.AddTrait(TraitDatum{ID: clone})
	provider.AddAdt(AdtDatum{ID: foo})

	tVar := TyArg(in.InternTy(BoundVarTy{Var: BoundVar{Debruijn: 0, Index: 0}}))
	provider.AddAdt(AdtDatum{
		ID:      vec,
		Binders: []CanonicalVarKind{{Kind: ParamKindTy}},
		WhereClauses: []QuantifiedWhereClause{{
			Goal: in.InternGoal(ImplementedTraitGoal{Trait: clone, Args: []GenericArg{tVar}}),
		}},
	})
	provider.AddImpl(ImplDatum{
		Trait:     clone,
		TraitArgs: []GenericArg{TyArg(in.InternTy(AdtTy{ID: foo}))},
	})

	vecFoo := in.InternTy(AdtTy{ID: vec, Args: []GenericArg{TyArg(in.InternTy(AdtTy{ID: foo}))}})

	table := NewInferenceTable(in)
	goal := in.InternGoal(WellFormedTyGoal{Ty: vecFoo})
	ucgoal, _ := table.CanonicalizeInEnvironmentForSolve(&Environment{}, goal)

	solver := NewRecursiveSolver(context.Background(), in, provider, DefaultConfig())
	sol, err := solver.Solve(ucgoal)
	require.NoError(t, err)
	require.True(t, sol.IsUnique(), "WF(Vec<Foo>) should hold since Foo: Clone")
}

// TestWellFormedAdtFailsWhenBoundUnsatisfied is the same declaration
// set applied to Vec<Bar>, where Bar never implements Clone: the
// generated WF clause's condition cannot be discharged.
func TestWellFormedAdtFailsWhenBoundUnsatisfied(t *testing.T) {
	in := NewInterner()
	provider := NewMemoryClauseProvider(in)

	clone := TraitID{Name: "Clone"}
	bar := AdtID{Name: "Bar"}
	vec := AdtID{Name: "Vec"}

	provider.AddTrait(TraitDatum{ID: clone})
	provider.AddAdt(AdtDatum{ID: bar})

	tVar := TyArg(in.InternTy(BoundVarTy{Var: BoundVar{Debruijn: 0, Index: 0}}))
	provider.AddAdt(AdtDatum{
		ID:      vec,
		Binders: []CanonicalVarKind{{Kind: ParamKindTy}},
		WhereClauses: []QuantifiedWhereClause{{
			Goal: in.InternGoal(ImplementedTraitGoal{Trait: clone, Args: []GenericArg{tVar}}),
		}},
	})

	vecBar := in.InternTy(AdtTy{ID: vec, Args: []GenericArg{TyArg(in.InternTy(AdtTy{ID: bar}))}})

	table := NewInferenceTable(in)
	goal := in.InternGoal(WellFormedTyGoal{Ty: vecBar})
	ucgoal, _ := table.CanonicalizeInEnvironmentForSolve(&Environment{}, goal)

	solver := NewRecursiveSolver(context.Background(), in, provider, DefaultConfig())
	sol, err := solver.Solve(ucgoal)
	require.NoError(t, err)
	require.False(t, sol.IsUnique(), "WF(Vec<Bar>) should not hold since Bar: Clone has no impl")
}

// TestWellFormedTraitUsesOwnWhereClauses checks WellFormedTraitGoal
// directly: `trait Super {} trait Sub where Self: Super {}` declared
// via TraitDatum's own Binders/WhereClauses, generating a clause
// exactly the way MemoryClauseProvider generates one for an impl.
func TestWellFormedTraitUsesOwnWhereClauses(t *testing.T) {
	in := NewInterner()
	provider := NewMemoryClauseProvider(in)

	super := TraitID{Name: "Super"}
	sub := TraitID{Name: "Sub"}
	foo := AdtID{Name: "Foo"}

	provider.AddTrait(TraitDatum{ID: super})
	selfVar := TyArg(in.InternTy(BoundVarTy{Var: BoundVar{Debruijn: 0, Index: 0}}))
	provider.AddTrait(TraitDatum{
		ID:      sub,
		Binders: []CanonicalVarKind{{Kind: ParamKindTy}},
		WhereClauses: []QuantifiedWhereClause{{
			Goal: in.InternGoal(ImplementedTraitGoal{Trait: super, Args: []GenericArg{selfVar}}),
		}},
	})
	provider.AddAdt(AdtDatum{ID: foo})
	provider.AddImpl(ImplDatum{Trait: super, TraitArgs: []GenericArg{TyArg(in.InternTy(AdtTy{ID: foo}))}})

	table := NewInferenceTable(in)
	goal := in.InternGoal(WellFormedTraitGoal{Trait: sub, Args: []GenericArg{TyArg(in.InternTy(AdtTy{ID: foo}))}})
	ucgoal, _ := table.CanonicalizeInEnvironmentForSolve(&Environment{}, goal)

	solver := NewRecursiveSolver(context.Background(), in, provider, DefaultConfig())
	sol, err := solver.Solve(ucgoal)
	require.NoError(t, err)
	require.True(t, sol.IsUnique(), "WF(Foo: Sub) should hold since Foo: Super")
}
