package hh

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestInvariantLifetimeRelationYieldsMutualOutlives exercises the
// `Ref<'a, Unit>` vs `Ref<'b, Unit>` equality at the heart of relating
// two invariant reference types: unifying two distinct free lifetimes
// at an invariant position never requires them to be syntactically
// identical, it leaves a residual `'a: 'b` and `'b: 'a` pair for a
// downstream region-checker, exactly as an Eq impl for two
// differently-lived references would.
func TestInvariantLifetimeRelationYieldsMutualOutlives(t *testing.T) {
	in := NewInterner()
	table := NewInferenceTable(in)
	u := table.NewUniverse()

	aLt := in.InternLifetime(PlaceholderLt{Placeholder: Placeholder{Universe: u, Index: 0}})
	bLt := in.InternLifetime(PlaceholderLt{Placeholder: Placeholder{Universe: u, Index: 1}})
	unit := in.InternTy(AdtTy{ID: AdtID{Name: "Unit"}})

	refA := in.InternTy(RefTy{Lifetime: aLt, Referent: unit})
	refB := in.InternTy(RefTy{Lifetime: bLt, Referent: unit})

	res, err := table.Relate(Invariant, TyArg(refA), TyArg(refB))
	require.NoError(t, err)
	require.Len(t, res.Constraints, 2)

	has := func(longer, shorter *Lifetime) bool {
		for _, c := range res.Constraints {
			if c.Longer == longer && c.Shorter == shorter {
				return true
			}
		}
		return false
	}
	require.True(t, has(aLt, bLt), "'a outlives 'b must be among the residue")
	require.True(t, has(bLt, aLt), "'b outlives 'a must be among the residue")
}

// TestHigherRankedFnPointerEqualityYieldsMutualOutlives relates a
// higher-ranked `for<'c> fn(&'c U, &'c I)` against a monomorphic
// `fn(&'a U, &'b I)`: the higher-ranked side's own binder is
// skolemized with a fresh placeholder before the parameter types are
// zipped, so 'c ends up related separately against both 'a and 'b --
// the same mutual-outlives residue as the plain reference case, just
// reached through the fn-pointer zip instead of a direct Ref/Ref
// comparison.
func TestHigherRankedFnPointerEqualityYieldsMutualOutlives(t *testing.T) {
	in := NewInterner()
	table := NewInferenceTable(in)
	u := table.NewUniverse()

	aLt := in.InternLifetime(PlaceholderLt{Placeholder: Placeholder{Universe: u, Index: 0}})
	bLt := in.InternLifetime(PlaceholderLt{Placeholder: Placeholder{Universe: u, Index: 1}})
	uTy := in.InternTy(AdtTy{ID: AdtID{Name: "U"}})
	iTy := in.InternTy(AdtTy{ID: AdtID{Name: "I"}})

	boundC := in.InternLifetime(BoundVarLt{Var: BoundVar{Debruijn: 0, Index: 0}})
	higherRanked := in.InternTy(FnPointerTy{
		NumBinders: 1,
		Params: []*Type{
			in.InternTy(RefTy{Lifetime: boundC, Referent: uTy}),
			in.InternTy(RefTy{Lifetime: boundC, Referent: iTy}),
		},
		Return: in.InternTy(TupleTy{}),
	})
	monomorphic := in.InternTy(FnPointerTy{
		NumBinders: 0,
		Params: []*Type{
			in.InternTy(RefTy{Lifetime: aLt, Referent: uTy}),
			in.InternTy(RefTy{Lifetime: bLt, Referent: iTy}),
		},
		Return: in.InternTy(TupleTy{}),
	})

	res, err := table.Relate(Invariant, TyArg(higherRanked), TyArg(monomorphic))
	require.NoError(t, err)
	require.Len(t, res.Constraints, 4, "'c vs 'a and 'c vs 'b each leave a mutual-outlives pair")
}
