package hh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRecursiveSolverDoesNotCacheInsideOpenCycle extends the two-hop
// Send/Vec coinductive cycle with a third ADT in the loop (T: Send :-
// Box<T>: Send :- Vec<T>: Send :- T: Send) so that proving the
// top-level goal recurses through two intermediate goals before
// cycling back to itself. Both intermediates are only ever reached
// while the root goal's own frame is still an open cycle, so neither
// may end up in the shared AnswerCache -- only the root's own,
// fully-converged answer may.
func TestRecursiveSolverDoesNotCacheInsideOpenCycle(t *testing.T) {
	in := NewInterner()
	provider := NewMemoryClauseProvider(in)

	send := TraitID{Name: "Send"}
	box := AdtID{Name: "Box"}
	vec := AdtID{Name: "Vec"}
	provider.AddTrait(TraitDatum{ID: send, AutoTrait: true})
	provider.AddAdt(AdtDatum{ID: box, Binders: []CanonicalVarKind{{Kind: ParamKindTy}}})
	provider.AddAdt(AdtDatum{ID: vec, Binders: []CanonicalVarKind{{Kind: ParamKindTy}}})

	tVar := TyArg(in.InternTy(BoundVarTy{Var: BoundVar{Debruijn: 0, Index: 0}}))

	// T: Send :- Box<T>: Send
	provider.AddImpl(ImplDatum{
		Binders:   []CanonicalVarKind{{Kind: ParamKindTy}},
		Trait:     send,
		TraitArgs: []GenericArg{tVar},
		WhereClauses: []QuantifiedWhereClause{{
			Goal: in.InternGoal(ImplementedTraitGoal{
				Trait: send,
				Args:  []GenericArg{TyArg(in.InternTy(AdtTy{ID: box, Args: []GenericArg{tVar}}))},
			}),
		}},
	})
	// Box<T>: Send :- Vec<T>: Send
	provider.AddImpl(ImplDatum{
		Binders:   []CanonicalVarKind{{Kind: ParamKindTy}},
		Trait:     send,
		TraitArgs: []GenericArg{TyArg(in.InternTy(AdtTy{ID: box, Args: []GenericArg{tVar}}))},
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

	cache := NewAnswerCache()
	cfg := DefaultConfig().WithCache(cache)
	solver := NewRecursiveSolver(context.Background(), in, provider, cfg)

	sol, err := solver.Solve(ucgoal)
	require.NoError(t, err)
	require.True(t, sol.IsUnique(), "a three-hop coinductive cycle still proves itself")

	rootKey := ucanonGoalKey(ucgoal)
	_, rootCached := cache.Get(rootKey)
	require.True(t, rootCached, "the root goal's own converged answer must be cached")
	require.Equal(t, 1, cache.Len(), "Box<T>: Send and Vec<T>: Send were only ever reached inside the still-open root cycle and must not be cached")
}
