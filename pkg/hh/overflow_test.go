package hh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestOverflowNeverPanics wires a single self-referential clause with
// no base case -- `∀X. X: Bar :- ∀Y. Y: Bar` -- and asks `Foo: Bar`.
// Whether the recursive solver bottoms out via cycle detection or via
// Config.OverflowDepth, the result must come back as an ordinary
// not-unique Solution rather than a panic or a hang; OverflowDepth is
// set low here so the test itself terminates quickly regardless of
// which path the solver actually takes.
func TestOverflowNeverPanics(t *testing.T) {
	in := NewInterner()
	provider := NewMemoryClauseProvider(in)

	bar := TraitID{Name: "Bar"}
	foo := AdtID{Name: "Foo"}
	provider.AddTrait(TraitDatum{ID: bar})
	provider.AddAdt(AdtDatum{ID: foo})

	xVar := TyArg(in.InternTy(BoundVarTy{Var: BoundVar{Debruijn: 0, Index: 0}}))
	yVar := TyArg(in.InternTy(BoundVarTy{Var: BoundVar{Debruijn: 0, Index: 0}}))
	provider.AddImpl(ImplDatum{
		Binders:   []CanonicalVarKind{{Kind: ParamKindTy}},
		Trait:     bar,
		TraitArgs: []GenericArg{xVar},
		WhereClauses: []QuantifiedWhereClause{{
			Binders: []CanonicalVarKind{{Kind: ParamKindTy}},
			Goal:    in.InternGoal(ImplementedTraitGoal{Trait: bar, Args: []GenericArg{yVar}}),
		}},
	})

	table := NewInferenceTable(in)
	goal := in.InternGoal(ImplementedTraitGoal{Trait: bar, Args: []GenericArg{TyArg(in.InternTy(AdtTy{ID: foo}))}})
	ucgoal, _ := table.CanonicalizeInEnvironmentForSolve(&Environment{}, goal)

	cfg := DefaultConfig()
	cfg.OverflowDepth = 8
	solver := NewRecursiveSolver(context.Background(), in, provider, cfg)

	require.NotPanics(t, func() {
		sol, err := solver.Solve(ucgoal)
		require.NoError(t, err)
		require.False(t, sol.IsUnique(), "an unbounded self-referential clause can never prove Foo: Bar")
	})
}
