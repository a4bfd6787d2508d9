package hh

import "fmt"

// ImplEnumerator is the optional capability a ClauseProvider may offer
// beyond the core's own interface: listing every impl it has declared
// for a trait. CoherenceChecker needs this to form candidate pairs;
// the core solver itself never needs it, since every domain goal it
// asks a provider to answer already names the Self type the relevant
// impls must match.
type ImplEnumerator interface {
	ImplsOf(trait TraitID) []ImplID
}

// CoherenceChecker finds pairs of impls of the same trait that could
// both apply to the same type. It is a client of the CORE, built from
// an ordinary DomainSolver and ClauseProvider, not a new proof
// procedure: two impls overlap exactly when their trait arguments can
// be unified and both impls' where-clauses can be simultaneously
// satisfied under that unification, which is the same question
// `Fulfillment` answers for any other goal, applied here under two
// independent sets of existential variables rather than one.
//
// What the checker deliberately does not do is orchestrate a coherence
// *policy* -- specialization, negative reasoning about upstream
// crates, or orphan rules -- all of which spec.md names as outside the
// CORE; it only answers "can these two impls' heads and where-clauses
// be satisfied together."
type CoherenceChecker struct {
	interner *Interner
	provider ClauseProvider
	solver   DomainSolver
}

// NewCoherenceChecker builds a checker sharing in, provider and solver
// with whatever ordinary queries the client also runs.
func NewCoherenceChecker(in *Interner, provider ClauseProvider, solver DomainSolver) *CoherenceChecker {
	return &CoherenceChecker{interner: in, provider: provider, solver: solver}
}

// OverlappingImpls reports every unordered pair of impls of trait
// whose heads and where-clauses are jointly satisfiable. provider must
// also implement ImplEnumerator (MemoryClauseProvider does).
func (c *CoherenceChecker) OverlappingImpls(trait TraitID) ([][2]ImplID, error) {
	enum, ok := c.provider.(ImplEnumerator)
	if !ok {
		return nil, fmt.Errorf("hh: provider %T does not support impl enumeration", c.provider)
	}
	ids := enum.ImplsOf(trait)

	var overlaps [][2]ImplID
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			ov, err := c.overlaps(ids[i], ids[j])
			if err != nil {
				return nil, err
			}
			if ov {
				overlaps = append(overlaps, [2]ImplID{ids[i], ids[j]})
			}
		}
	}
	return overlaps, nil
}

// overlaps instantiates a and b each under their own fresh existential
// variables in a shared inference table, unifies their trait argument
// lists pairwise, and discharges both impls' where-clauses; it reports
// true unless that attempt fails outright (a hard unification error or
// a where-clause with no solution), matching chalk's own coherence
// check of attempting the two impls' heads against each other.
func (c *CoherenceChecker) overlaps(a, b ImplID) (bool, error) {
	implA, ok := c.provider.ImplDatum(a)
	if !ok {
		return false, fmt.Errorf("hh: unknown impl %v", a)
	}
	implB, ok := c.provider.ImplDatum(b)
	if !ok {
		return false, fmt.Errorf("hh: unknown impl %v", b)
	}
	if len(implA.TraitArgs) != len(implB.TraitArgs) {
		return false, nil
	}

	table := NewInferenceTable(c.interner)

	traitArgsA, condA := instantiateImplHead(table, implA)
	traitArgsB, condB := instantiateImplHead(table, implB)

	env := &Environment{}
	f := newFulfillment(table, c.solver)

	for i := range traitArgsA {
		res, err := table.Relate(Invariant, traitArgsA[i], traitArgsB[i])
		if err != nil {
			return false, nil
		}
		if err := f.applyUnifyResult(env, res); err != nil {
			return false, nil
		}
	}
	for _, g := range condA {
		if err := f.push(env, g); err != nil {
			return false, nil
		}
	}
	for _, g := range condB {
		if err := f.push(env, g); err != nil {
			return false, nil
		}
	}
	if err := f.runFixpoint(); err != nil {
		return false, nil
	}
	return true, nil
}

// instantiateImplHead substitutes fresh existential variables for
// impl's own binders, returning its trait argument list and
// where-clause goals (as ForallGoal-wrapped bodies for any clause that
// itself quantifies further variables) under that substitution.
func instantiateImplHead(table *InferenceTable, impl ImplDatum) ([]GenericArg, []*Goal) {
	in := table.Interner()
	args := make([]GenericArg, len(impl.Binders))
	for i, bk := range impl.Binders {
		args[i] = table.NewVariableArg(bk.Kind, table.MaxUniverse())
	}
	subst := NewSubstitution(args)

	traitArgs := make([]GenericArg, len(impl.TraitArgs))
	for i, a := range impl.TraitArgs {
		traitArgs[i] = ApplySubstitutionArg(in, a, subst)
	}
	conditions := make([]*Goal, len(impl.WhereClauses))
	for i, wc := range impl.WhereClauses {
		if len(wc.Binders) == 0 {
			conditions[i] = ApplySubstitutionGoal(in, wc.Goal, subst)
			continue
		}
		conditions[i] = ApplySubstitutionGoal(in, in.InternGoal(ForallGoal{Binders: wc.Binders, Body: wc.Goal}), subst)
	}
	return traitArgs, conditions
}
