package hh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestProjectionEqResolvesToImplBinding wires `trait Identity { type
// Item; } impl Identity for A { type Item = A; } impl Identity for B
// { type Item = B; }` purely from ImplDatum.AssocBindings, then asks
// `∃T. <T as Identity>::Item = A`, which is what `T: Identity<Item =
// A>` desugars to (the impl's own Self binding comes along for free
// when the ProjectionEq clause's head unifies against T).
func TestProjectionEqResolvesToImplBinding(t *testing.T) {
	in := NewInterner()
	provider := NewMemoryClauseProvider(in)

	identity := TraitID{Name: "Identity"}
	item := AssocTypeID{Name: "Item"}
	a := AdtID{Name: "A"}
	b := AdtID{Name: "B"}

	provider.AddTrait(TraitDatum{ID: identity})
	provider.AddAdt(AdtDatum{ID: a})
	provider.AddAdt(AdtDatum{ID: b})

	aTy := TyArg(in.InternTy(AdtTy{ID: a}))
	bTy := TyArg(in.InternTy(AdtTy{ID: b}))

	provider.AddImpl(ImplDatum{
		Trait:         identity,
		TraitArgs:     []GenericArg{aTy},
		AssocBindings: []AssocBinding{{Assoc: item, Value: aTy.Ty}},
	})
	provider.AddImpl(ImplDatum{
		Trait:         identity,
		TraitArgs:     []GenericArg{bTy},
		AssocBindings: []AssocBinding{{Assoc: item, Value: bTy.Ty}},
	})

	table := NewInferenceTable(in)
	tv := table.NewVariableArg(ParamKindTy, RootUniverse)
	goal := in.InternGoal(ProjectionEqGoal{
		Projection: in.InternTy(ProjectionTy{AssocTypeID: item, Args: []GenericArg{tv}}),
		Ty:         aTy.Ty,
	})
	ucgoal, _ := table.CanonicalizeInEnvironmentForSolve(&Environment{}, goal)

	solver := NewRecursiveSolver(context.Background(), in, provider, DefaultConfig())
	sol, err := solver.Solve(ucgoal)
	require.NoError(t, err)
	require.True(t, sol.IsUnique(), "<?0 as Identity>::Item = A should pick out ?0 := A")
	require.Len(t, sol.Unique.Canonical.Value.Subst.Args, 1)
}

// TestProjectionEqFailsForWrongBinding checks the negative case: asking
// whether <A as Identity>::Item = B holds against an impl that only
// binds Item = A has no solution.
func TestProjectionEqFailsForWrongBinding(t *testing.T) {
	in := NewInterner()
	provider := NewMemoryClauseProvider(in)

	identity := TraitID{Name: "Identity"}
	item := AssocTypeID{Name: "Item"}
	a := AdtID{Name: "A"}
	b := AdtID{Name: "B"}

	provider.AddTrait(TraitDatum{ID: identity})
	provider.AddAdt(AdtDatum{ID: a})
	provider.AddAdt(AdtDatum{ID: b})

	aTy := TyArg(in.InternTy(AdtTy{ID: a}))
	bTy := TyArg(in.InternTy(AdtTy{ID: b}))

	provider.AddImpl(ImplDatum{
		Trait:         identity,
		TraitArgs:     []GenericArg{aTy},
		AssocBindings: []AssocBinding{{Assoc: item, Value: aTy.Ty}},
	})

	table := NewInferenceTable(in)
	goal := in.InternGoal(ProjectionEqGoal{
		Projection: in.InternTy(ProjectionTy{AssocTypeID: item, Args: []GenericArg{aTy}}),
		Ty:         bTy.Ty,
	})
	ucgoal, _ := table.CanonicalizeInEnvironmentForSolve(&Environment{}, goal)

	solver := NewRecursiveSolver(context.Background(), in, provider, DefaultConfig())
	sol, err := solver.Solve(ucgoal)
	require.NoError(t, err)
	require.False(t, sol.IsUnique(), "<A as Identity>::Item = B should not hold")
}
