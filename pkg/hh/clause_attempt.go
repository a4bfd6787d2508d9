package hh

import "context"

// clauseAttemptResult is one clause (or environment assumption) that
// proved goal, expressed purely in the u-canonical query's own binder
// numbering -- the shared unit both DomainSolver implementations
// build from: RecursiveSolver folds every clauseAttemptResult for a
// goal into one Solution via CombineClauseOutcomes (§4.4 step b); the
// SLG engine instead keeps each as a distinct table answer (§4.5),
// combining only when asked for a single Solution.
type clauseAttemptResult struct {
	priority    ClausePriority
	fromEnv     bool
	subst       Canonical[*Substitution]
	constraints []OutlivesConstraint
}

// tryClauses instantiates every clause applicable to goal -- drawn
// from its own environment and from provider.ProgramClausesFor -- in
// its own fresh inference table, unifies the clause's consequence
// against the goal, discharges any residual unification goals and the
// clause's conditions through solver, and returns one
// clauseAttemptResult per clause that survived. It is the shared core
// of §4.4 step a and the SLG engine's strand resolution.
func tryClauses(ctx context.Context, interner *Interner, provider ClauseProvider, solver DomainSolver, log *Logger, goal UCanonical[*InEnvironment]) ([]clauseAttemptResult, error) {
	env := goal.Canonical.Value.Env
	domainGoal := goal.Canonical.Value.Goal

	type candidate struct {
		clause  *Clause
		fromEnv bool
	}
	candidates := make([]candidate, 0, len(env.Clauses))
	for _, cl := range env.Clauses {
		candidates = append(candidates, candidate{clause: cl, fromEnv: true})
	}
	extra, floundered, err := provider.ProgramClausesFor(env, domainGoal)
	if err != nil {
		return nil, err
	}
	if floundered {
		return nil, ErrFloundered
	}
	for _, cl := range extra {
		candidates = append(candidates, candidate{clause: cl})
	}

	results := make([]clauseAttemptResult, 0, len(candidates))
	gkey := ucanonGoalKey(goal)

	for _, cand := range candidates {
		var constraints []OutlivesConstraint
		if ctx.Err() != nil {
			break
		}

		table := NewInferenceTable(interner)
		in := table.Interner()
		universes := make([]UniverseIndex, len(goal.Universes.Original))
		for i := range universes {
			universes[i] = table.NewUniverse()
		}
		existVars := make([]InferenceVarID, len(goal.Canonical.Binders))
		args := make([]GenericArg, len(goal.Canonical.Binders))
		for i, bk := range goal.Canonical.Binders {
			u := RootUniverse
			if int(bk.Universe) < len(universes) {
				u = universes[bk.Universe]
			}
			v := table.NewVariable(bk.Kind, u)
			existVars[i] = v
			args[i] = varAsArg(in, v)
		}
		subst := NewSubstitution(args)

		instEnv := &Environment{Clauses: make([]*Clause, len(env.Clauses))}
		for i, cl := range env.Clauses {
			instEnv.Clauses[i] = ApplySubstitutionClause(in, cl, subst)
		}
		instGoal := ApplySubstitutionGoal(in, domainGoal, subst)

		clauseArgs := make([]GenericArg, len(cand.clause.Binders))
		for i, bk := range cand.clause.Binders {
			clauseArgs[i] = table.NewVariableArg(bk.Kind, table.MaxUniverse())
		}
		clauseSubst := NewSubstitution(clauseArgs)
		consequence := ApplySubstitutionGoal(in, cand.clause.Consequence, clauseSubst)
		conditions := make([]*Goal, len(cand.clause.Conditions))
		for i, cond := range cand.clause.Conditions {
			conditions[i] = ApplySubstitutionGoal(in, cond, clauseSubst)
		}

		unifyRes, uerr := unifyDomainGoalHeads(table, instGoal, consequence)
		if uerr != nil {
			log.logClauseAttempt(gkey, cand.clause.Priority, cand.fromEnv, false)
			continue
		}

		f := newFulfillment(table, solver)
		bodyFailed := false
		for _, g := range unifyRes.Goals {
			if o, ferr := f.Solve(instEnv, g); ferr != nil {
				bodyFailed = true
				break
			} else if o.Ambiguous {
				bodyFailed = true
				break
			} else {
				constraints = append(constraints, o.Constraints...)
			}
		}
		if bodyFailed {
			log.logClauseAttempt(gkey, cand.clause.Priority, cand.fromEnv, false)
			continue
		}

		bodyGoal := conjoin(in, conditions)
		committed := true
		if bodyGoal != nil {
			o, ferr := f.Solve(instEnv, bodyGoal)
			if ferr != nil || o.Ambiguous {
				committed = false
			} else {
				constraints = append(constraints, o.Constraints...)
			}
		}
		if !committed {
			log.logClauseAttempt(gkey, cand.clause.Priority, cand.fromEnv, false)
			continue
		}
		constraints = append(constraints, unifyRes.Constraints...)

		resultArgs := make([]GenericArg, len(existVars))
		for i, v := range existVars {
			resultArgs[i] = table.NormalizeShallowArg(varAsArg(in, v))
		}
		answerSubst := table.CanonicalizeSubstitution(NewSubstitution(resultArgs))
		results = append(results, clauseAttemptResult{
			priority:    cand.clause.Priority,
			fromEnv:     cand.fromEnv,
			subst:       answerSubst,
			constraints: constraints,
		})
		log.logClauseAttempt(gkey, cand.clause.Priority, cand.fromEnv, true)
	}

	return results, nil
}
