package hh

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildCloneProgram wires up spec.md §8 scenario 1: `trait Clone {}
// struct Foo {} struct Vec<T> {} impl<T> Clone for Vec<T> where T:
// Clone {} impl Clone for Foo {}`.
func buildCloneProgram(t *testing.T) (*Interner, *MemoryClauseProvider, TraitID, AdtID, AdtID) {
	t.Helper()
	in := NewInterner()
	provider := NewMemoryClauseProvider(in)

	clone := TraitID{Name: "Clone"}
	foo := AdtID{Name: "Foo"}
	vec := AdtID{Name: "Vec"}

	provider.AddTrait(TraitDatum{ID: clone})
	provider.AddAdt(AdtDatum{ID: foo})
	provider.AddAdt(AdtDatum{ID: vec, Binders: []CanonicalVarKind{{Kind: ParamKindTy}}})

	provider.AddImpl(ImplDatum{
		Trait:     clone,
		TraitArgs: []GenericArg{TyArg(in.InternTy(AdtTy{ID: foo}))},
	})

	tVar := TyArg(in.InternTy(BoundVarTy{Var: BoundVar{Debruijn: 0, Index: 0}}))
	provider.AddImpl(ImplDatum{
		Binders:   []CanonicalVarKind{{Kind: ParamKindTy}},
		Trait:     clone,
		TraitArgs: []GenericArg{TyArg(in.InternTy(AdtTy{ID: vec, Args: []GenericArg{tVar}}))},
		WhereClauses: []QuantifiedWhereClause{{
			Goal: in.InternGoal(ImplementedTraitGoal{Trait: clone, Args: []GenericArg{tVar}}),
		}},
	})

	return in, provider, clone, foo, vec
}

func solveImplementedTrait(t *testing.T, in *Interner, provider ClauseProvider, selfTy *Type, trait TraitID) Solution {
	t.Helper()
	table := NewInferenceTable(in)
	goal := in.InternGoal(ImplementedTraitGoal{Trait: trait, Args: []GenericArg{TyArg(selfTy)}})
	ucgoal, _ := table.CanonicalizeInEnvironmentForSolve(&Environment{}, goal)
	solver := NewRecursiveSolver(nil, in, provider, DefaultConfig())
	sol, err := solver.Solve(ucgoal)
	require.NoError(t, err)
	return sol
}

func TestRecursiveSolverVecFooClone(t *testing.T) {
	in, provider, clone, foo, vec := buildCloneProgram(t)
	vecFoo := in.InternTy(AdtTy{ID: vec, Args: []GenericArg{TyArg(in.InternTy(AdtTy{ID: foo}))}})

	sol := solveImplementedTrait(t, in, provider, vecFoo, clone)
	require.True(t, sol.IsUnique(), "Vec<Foo>: Clone should have a unique proof")
}

func TestRecursiveSolverVecBarCloneFails(t *testing.T) {
	in, provider, clone, _, vec := buildCloneProgram(t)
	bar := AdtID{Name: "Bar"}
	provider.AddAdt(AdtDatum{ID: bar})
	vecBar := in.InternTy(AdtTy{ID: vec, Args: []GenericArg{TyArg(in.InternTy(AdtTy{ID: bar}))}})

	sol := solveImplementedTrait(t, in, provider, vecBar, clone)
	require.False(t, sol.IsUnique())
	require.True(t, sol.Guidance.Kind == GuidanceUnknown || sol.Kind == SolutionAmbiguous)
}

func TestCoherenceCheckerNoOverlap(t *testing.T) {
	in, provider, clone, _, _ := buildCloneProgram(t)
	solver := NewRecursiveSolver(nil, in, provider, DefaultConfig())
	checker := NewCoherenceChecker(in, provider, solver)

	overlaps, err := checker.OverlappingImpls(clone)
	require.NoError(t, err)
	require.Empty(t, overlaps, "impl Clone for Foo and impl<T> Clone for Vec<T> have distinct heads")
}

func TestCoherenceCheckerDetectsOverlap(t *testing.T) {
	in := NewInterner()
	provider := NewMemoryClauseProvider(in)
	clone := TraitID{Name: "Clone"}
	foo := AdtID{Name: "Foo"}
	provider.AddTrait(TraitDatum{ID: clone})
	provider.AddAdt(AdtDatum{ID: foo})

	provider.AddImpl(ImplDatum{Trait: clone, TraitArgs: []GenericArg{TyArg(in.InternTy(AdtTy{ID: foo}))}})
	provider.AddImpl(ImplDatum{Trait: clone, TraitArgs: []GenericArg{TyArg(in.InternTy(AdtTy{ID: foo}))}})

	solver := NewRecursiveSolver(nil, in, provider, DefaultConfig())
	checker := NewCoherenceChecker(in, provider, solver)

	overlaps, err := checker.OverlappingImpls(clone)
	require.NoError(t, err)
	require.Len(t, overlaps, 1, "two impls of Clone for Foo trivially overlap")
}
