package hh

import (
	"context"
)

// stackFrame is one in-progress domain goal on a RecursiveSolver's
// search stack (§4.4): what it is, whether any recursive attempt
// looped back to it, whether it is allowed to prove itself
// coinductively, and its current best guess at an answer.
type stackFrame struct {
	key         string
	coinductive bool
	cyclic      bool
	provisional *Solution

	// sccTainted marks a frame whose own answer was computed while some
	// ancestor frame further down the stack was itself mid-cycle (i.e.
	// this goal was only reached by recursing back through that
	// ancestor). Such an answer is correct for this one call -- it is
	// exactly what the ancestor's *current* provisional substitution
	// implies -- but it is not the ancestor's fixed-point answer, which
	// is only known once the ancestor's own loop converges. A tainted
	// frame's answer must never be written to the shared AnswerCache.
	sccTainted bool
}

// RecursiveSolver is the primary DomainSolver (§4.4): it proves a
// u-canonical domain goal by trying every applicable program clause
// -- drawn from the goal's own environment and from an external
// ClauseProvider -- instantiating each under a fresh inference table,
// and combining the outcomes. Cyclic goals are resolved by iterating
// to a fixed point, distinguishing purely coinductive cycles (which
// may prove themselves) from mixed cycles (which may not).
//
// One RecursiveSolver instance is owned exclusively by a single
// top-level query, matching the single-threaded cooperative model of
// §5: its stack is not safe for concurrent use. The AnswerCache it
// may be given, by contrast, is shared and its own accesses are
// internally synchronized.
type RecursiveSolver struct {
	ctx      context.Context
	interner *Interner
	provider ClauseProvider
	cfg      Config
	cache    *AnswerCache
	log      *Logger
	stack    []*stackFrame
}

// WithLogger attaches a Logger, returning the solver for chaining.
func (s *RecursiveSolver) WithLogger(l *Logger) *RecursiveSolver {
	s.log = l
	return s
}

// NewRecursiveSolver builds a solver for one top-level query, minting
// every clause attempt's fresh inference table through in so that
// terms produced by different attempts remain comparable. ctx is
// consulted at least once per clause application (§5 Cancellation);
// a cancelled or expired ctx unwinds the in-progress search, returning
// Ambiguous(Unknown) with any collected constraints discarded.
func NewRecursiveSolver(ctx context.Context, in *Interner, provider ClauseProvider, cfg Config) *RecursiveSolver {
	if ctx == nil {
		ctx = context.Background()
	}
	return &RecursiveSolver{ctx: ctx, interner: in, provider: provider, cfg: cfg, cache: cfg.Cache(), log: NewNopLogger()}
}

// Solve implements DomainSolver.
func (s *RecursiveSolver) Solve(goal UCanonical[*InEnvironment]) (Solution, error) {
	key := ucanonGoalKey(goal)

	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}

	if idx := s.indexOf(key); idx >= 0 {
		frame := s.stack[idx]
		frame.cyclic = true
		// Every frame strictly above the ancestor we just cycled back to
		// sits between it and here on the call chain, so its eventual
		// answer is only provisional until the ancestor's own fixpoint
		// loop (down at idx) converges: taint them all against caching.
		for i := idx + 1; i < len(s.stack); i++ {
			s.stack[i].sccTainted = true
		}
		coinductive := s.provider.IsCoinductivePredicate(goal.Canonical.Value.Goal)
		if s.mixedCycle(idx, coinductive) {
			return Solution{}, ErrNoSolution
		}
		if frame.provisional == nil {
			return Solution{}, ErrNoSolution
		}
		return *frame.provisional, nil
	}

	if len(s.stack) >= s.cfg.OverflowDepth {
		return AmbiguousSolution(UnknownGuidance()), nil
	}

	coinductive := s.provider.IsCoinductivePredicate(goal.Canonical.Value.Goal)
	frame := &stackFrame{key: key, coinductive: coinductive}
	if coinductive {
		trivial := UniqueSolution(UCanonical[*ConstrainedSubst]{
			Canonical: Canonical[*ConstrainedSubst]{
				Binders: goal.Canonical.Binders,
				Value:   &ConstrainedSubst{Subst: identitySubstitution(s.interner, goal.Canonical.Binders)},
			},
			Universes: goal.Universes,
		})
		frame.provisional = &trivial
	}
	s.stack = append(s.stack, frame)
	defer func() { s.stack = s.stack[:len(s.stack)-1] }()

	var final Solution
	for iteration := 0; ; iteration++ {
		if s.ctx.Err() != nil {
			return AmbiguousSolution(UnknownGuidance()), nil
		}
		if iteration >= s.cfg.OverflowDepth {
			return AmbiguousSolution(UnknownGuidance()), nil
		}

		frame.cyclic = false
		outcome, err := s.attemptAllClauses(goal)
		if err != nil {
			return Solution{}, err
		}
		if s.ctx.Err() != nil {
			return AmbiguousSolution(UnknownGuidance()), nil
		}

		if !frame.cyclic {
			final = outcome
			break
		}
		if frame.provisional != nil && solutionsEqual(*frame.provisional, outcome) {
			final = outcome
			break
		}
		frame.provisional = &outcome
	}

	// A tainted frame's answer depended on an ancestor's still-open
	// cycle and is never safe to cache, however complete it looks from
	// this call alone; see stackFrame.sccTainted.
	if s.cache != nil && !frame.sccTainted {
		s.cache.Put(key, final)
	}
	return final, nil
}

// indexOf returns the stack position of key, or -1 if it is not
// currently in progress.
func (s *RecursiveSolver) indexOf(key string) int {
	for i, f := range s.stack {
		if f.key == key {
			return i
		}
	}
	return -1
}

// mixedCycle reports whether the cycle closing back to stack
// position from mixes coinductive and inductive goals, which §4.4
// requires to be rejected rather than allowed to prove itself.
func (s *RecursiveSolver) mixedCycle(from int, goalCoinductive bool) bool {
	for i := from; i < len(s.stack); i++ {
		if s.stack[i].coinductive != goalCoinductive {
			return true
		}
	}
	return false
}

// attemptAllClauses runs one fixpoint iteration: every applicable
// clause is tried in a fresh inference table and the per-clause
// outcomes are folded together per §4.6.
func (s *RecursiveSolver) attemptAllClauses(goal UCanonical[*InEnvironment]) (Solution, error) {
	results, err := tryClauses(s.ctx, s.interner, s.provider, s, s.log, goal)
	if err != nil {
		return Solution{}, err
	}
	outcomes := make([]ClauseOutcome, len(results))
	for i, r := range results {
		outcomes[i] = ClauseOutcome{Priority: r.priority, FromEnv: r.fromEnv, Subst: r.subst, Constraints: r.constraints}
	}
	return CombineClauseOutcomes(s.interner, outcomes), nil
}

// conjoin folds goals into a right-leaning AndGoal chain, or returns
// nil if there is nothing to prove.
func conjoin(in *Interner, goals []*Goal) *Goal {
	if len(goals) == 0 {
		return nil
	}
	result := goals[len(goals)-1]
	for i := len(goals) - 2; i >= 0; i-- {
		result = in.InternGoal(AndGoal{Left: goals[i], Right: result})
	}
	return result
}

// identitySubstitution builds the substitution that maps every binder
// slot to a bound-variable reference to itself: the trivial,
// maximally-permissive provisional answer a coinductive cycle starts
// its fixpoint iteration from (chalk's "assume true, then refine").
func identitySubstitution(in *Interner, binders []CanonicalVarKind) *Substitution {
	args := make([]GenericArg, len(binders))
	for i, bk := range binders {
		args[i] = boundVarArg(in, bk.Kind, i)
	}
	return NewSubstitution(args)
}

func boundVarArg(in *Interner, kind ParameterKind, index int) GenericArg {
	v := BoundVar{Debruijn: 0, Index: index}
	switch kind {
	case ParamKindTy:
		return TyArg(in.InternTy(BoundVarTy{Var: v}))
	case ParamKindLifetime:
		return LifetimeArg(in.InternLifetime(BoundVarLt{Var: v}))
	default:
		return ConstArg(in.InternConst(BoundVarConst{Var: v}))
	}
}

// solutionsEqual drives the recursive solver's fixpoint check (§4.4
// step d): two solutions are the same iteration-over-iteration result
// if they agree on Kind and, when Unique or Ambiguous-with-guidance,
// on their substitution.
func solutionsEqual(a, b Solution) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == SolutionUnique {
		return substitutionsAgree(
			Canonical[*Substitution]{Binders: a.Unique.Canonical.Binders, Value: a.Unique.Canonical.Value.Subst},
			Canonical[*Substitution]{Binders: b.Unique.Canonical.Binders, Value: b.Unique.Canonical.Value.Subst},
		)
	}
	if a.Guidance.Kind != b.Guidance.Kind {
		return false
	}
	if a.Guidance.Kind == GuidanceUnknown {
		return true
	}
	return substitutionsAgree(a.Guidance.Subst, b.Guidance.Subst)
}
