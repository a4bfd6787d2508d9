package hh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildMapProgram wires up spec.md §8 scenario 2: `trait Map<T> {}
// struct Foo {} struct Bar {} impl Map<Bar> for Foo {} impl Map<Foo>
// for Bar {}`.
func buildMapProgram(t *testing.T) (*Interner, *MemoryClauseProvider, TraitID, AdtID, AdtID) {
	t.Helper()
	in := NewInterner()
	provider := NewMemoryClauseProvider(in)

	mapTrait := TraitID{Name: "Map"}
	foo := AdtID{Name: "Foo"}
	bar := AdtID{Name: "Bar"}

	provider.AddTrait(TraitDatum{ID: mapTrait})
	provider.AddAdt(AdtDatum{ID: foo})
	provider.AddAdt(AdtDatum{ID: bar})

	provider.AddImpl(ImplDatum{
		Trait: mapTrait,
		TraitArgs: []GenericArg{
			TyArg(in.InternTy(AdtTy{ID: foo})),
			TyArg(in.InternTy(AdtTy{ID: bar})),
		},
	})
	provider.AddImpl(ImplDatum{
		Trait: mapTrait,
		TraitArgs: []GenericArg{
			TyArg(in.InternTy(AdtTy{ID: bar})),
			TyArg(in.InternTy(AdtTy{ID: foo})),
		},
	})

	return in, provider, mapTrait, foo, bar
}

// existentialGoalForMap builds `∃A. A: Map<Bar>` (second = Bar) or
// `∃A,B. A: Map<B>` (second = nil), canonicalizing it through a
// fresh inference table the way an ordinary client query would.
func existentialGoalForMap(in *Interner, provider ClauseProvider, trait TraitID, second *Type) (UCanonical[*InEnvironment], *InferenceTable) {
	table := NewInferenceTable(in)
	a := table.NewVariableArg(ParamKindTy, RootUniverse)
	var b GenericArg
	if second != nil {
		b = TyArg(second)
	} else {
		b = table.NewVariableArg(ParamKindTy, RootUniverse)
	}
	goal := in.InternGoal(ImplementedTraitGoal{Trait: trait, Args: []GenericArg{a, b}})
	ucgoal, _ := table.CanonicalizeInEnvironmentForSolve(&Environment{}, goal)
	return ucgoal, table
}

func TestRecursiveSolverMapUniqueWhenSecondFixed(t *testing.T) {
	in, provider, mapTrait, _, bar := buildMapProgram(t)
	barTy := in.InternTy(AdtTy{ID: bar})
	ucgoal, _ := existentialGoalForMap(in, provider, mapTrait, barTy)

	solver := NewRecursiveSolver(context.Background(), in, provider, DefaultConfig())
	sol, err := solver.Solve(ucgoal)
	require.NoError(t, err)
	require.True(t, sol.IsUnique(), "∃A. A: Map<Bar> should pin A := Foo uniquely")
}

func TestRecursiveSolverMapAmbiguousWhenBothOpen(t *testing.T) {
	in, provider, mapTrait, _, _ := buildMapProgram(t)
	ucgoal, _ := existentialGoalForMap(in, provider, mapTrait, nil)

	solver := NewRecursiveSolver(context.Background(), in, provider, DefaultConfig())
	sol, err := solver.Solve(ucgoal)
	require.NoError(t, err)
	require.False(t, sol.IsUnique())
	require.Equal(t, SolutionAmbiguous, sol.Kind)
}

func TestSLGEngineEnumeratesBothAnswers(t *testing.T) {
	in, provider, mapTrait, _, _ := buildMapProgram(t)
	ucgoal, _ := existentialGoalForMap(in, provider, mapTrait, nil)

	engine := NewSLGEngine(context.Background(), in, provider, DefaultConfig())

	var got []Solution
	ok := SolveMulti(context.Background(), engine, ucgoal, func(answer Solution, hasMore bool) bool {
		got = append(got, answer)
		return true
	})
	require.True(t, ok)
	require.Len(t, got, 2, "both Map impls should surface as distinct table answers")
	for _, s := range got {
		require.True(t, s.IsUnique())
	}
}

func TestSLGEngineSolveCombinesToAmbiguous(t *testing.T) {
	in, provider, mapTrait, _, _ := buildMapProgram(t)
	ucgoal, _ := existentialGoalForMap(in, provider, mapTrait, nil)

	engine := NewSLGEngine(context.Background(), in, provider, DefaultConfig())
	sol, err := engine.Solve(ucgoal)
	require.NoError(t, err)
	require.Equal(t, SolutionAmbiguous, sol.Kind)
}

func TestRecursiveSolverCoinductiveSendCycle(t *testing.T) {
	in := NewInterner()
	provider := NewMemoryClauseProvider(in)

	send := TraitID{Name: "Send"}
	vec := AdtID{Name: "Vec"}
	provider.AddTrait(TraitDatum{ID: send, AutoTrait: true})
	provider.AddAdt(AdtDatum{ID: vec, Binders: []CanonicalVarKind{{Kind: ParamKindTy}}})

	// T: Send :- Vec<T>: Send
	tVar := TyArg(in.InternTy(BoundVarTy{Var: BoundVar{Debruijn: 0, Index: 0}}))
	provider.AddImpl(ImplDatum{
		Binders:   []CanonicalVarKind{{Kind: ParamKindTy}},
		Trait:     send,
		TraitArgs: []GenericArg{tVar},
		WhereClauses: []QuantifiedWhereClause{{
			Goal: in.InternGoal(ImplementedTraitGoal{
				Trait: send,
				Args:  []GenericArg{TyArg(in.InternTy(AdtTy{ID: vec, Args: []GenericArg{tVar}}))},
			}),
		}},
	})
	// Vec<T>: Send :- T: Send
	provider.AddImpl(ImplDatum{
		Binders:   []CanonicalVarKind{{Kind: ParamKindTy}},
		Trait:     send,
		TraitArgs: []GenericArg{TyArg(in.InternTy(AdtTy{ID: vec, Args: []GenericArg{tVar}}))},
		WhereClauses: []QuantifiedWhereClause{{
			Goal: in.InternGoal(ImplementedTraitGoal{Trait: send, Args: []GenericArg{tVar}}),
		}},
	})

	table := NewInferenceTable(in)
	tv := table.NewVariableArg(ParamKindTy, RootUniverse)
	goal := in.InternGoal(ImplementedTraitGoal{Trait: send, Args: []GenericArg{tv}})
	ucgoal, _ := table.CanonicalizeInEnvironmentForSolve(&Environment{}, goal)

	solver := NewRecursiveSolver(context.Background(), in, provider, DefaultConfig())
	sol, err := solver.Solve(ucgoal)
	require.NoError(t, err)
	require.True(t, sol.IsUnique(), "a purely coinductive cycle over an auto trait proves itself")
}
