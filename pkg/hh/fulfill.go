package hh

import (
	"errors"

	"go.uber.org/multierr"
)

// ErrNoSolution is returned by Fulfillment.Solve, by a DomainSolver,
// and by relate-driven helpers whenever a goal is provably false
// rather than merely not-yet-decided. It is the ordinary negative
// result callers are expected to handle, never a programmer error.
var ErrNoSolution = errors.New("hh: no solution")

// ErrFloundered marks a negative subgoal that still has free
// existential variables after simplification and so cannot be
// soundly decided either way.
var ErrFloundered = errors.New("hh: floundered")

const maxFixpointIterations = 64

// DomainSolver is the boundary Fulfillment crosses to actually prove
// a leaf domain goal: it u-canonicalizes the goal together with its
// environment, hands it to whichever proof procedure is configured
// (the recursive solver of §4.4 or the SLG engine of §4.5, both
// implementing this same interface), and gets back a Solution
// expressed in the u-canonical form's own binder numbering.
type DomainSolver interface {
	Solve(goal UCanonical[*InEnvironment]) (Solution, error)
}

// obligation is one domain-goal leaf Fulfillment has not yet reduced
// to a final Unique answer.
type obligation struct {
	env      *Environment
	goal     *Goal
	resolved bool
	guidance Guidance
}

// Fulfillment reduces one Hereditary-Harrop goal to a conjunction of
// domain-goal leaves, driving the inference table via relate as it
// simplifies ∀/∃/⇒/∧/∨/¬, then discharges the leaves against a
// DomainSolver until a fixpoint is reached.
type Fulfillment struct {
	table       *InferenceTable
	solver      DomainSolver
	obligations []*obligation
	constraints []OutlivesConstraint
}

func newFulfillment(table *InferenceTable, solver DomainSolver) *Fulfillment {
	return &Fulfillment{table: table, solver: solver}
}

// FulfillmentOutcome summarizes whether a goal's proof was fully
// pinned down or only ambiguously so, plus whatever region
// constraints were set aside along the way.
type FulfillmentOutcome struct {
	Ambiguous   bool
	Constraints []OutlivesConstraint
}

// Solve reduces goal under env to a FulfillmentOutcome, mutating the
// table with every binding discovered along the way. It returns
// ErrNoSolution if goal is provably false, ErrFloundered if a negation
// could not be soundly decided, or another error only for a hard
// failure in an underlying DomainSolver.
func (t *InferenceTable) Solve(solver DomainSolver, env *Environment, goal *Goal) (FulfillmentOutcome, error) {
	f := newFulfillment(t, solver)
	return f.Solve(env, goal)
}

func (f *Fulfillment) Solve(env *Environment, goal *Goal) (FulfillmentOutcome, error) {
	if err := f.push(env, goal); err != nil {
		return FulfillmentOutcome{}, err
	}
	if err := f.runFixpoint(); err != nil {
		return FulfillmentOutcome{}, err
	}

	ambiguous := false
	for _, ob := range f.obligations {
		if !ob.resolved {
			ambiguous = true
		}
	}
	return FulfillmentOutcome{Ambiguous: ambiguous, Constraints: f.constraints}, nil
}

// runFixpoint repeatedly re-attempts every unresolved obligation:
// earlier unifications (including ones made by a just-resolved
// sibling obligation) may turn a previously Ambiguous domain goal
// into a Unique one. Progress is any obligation transitioning to
// resolved; the loop stops when a full pass makes none.
func (f *Fulfillment) runFixpoint() error {
	for iter := 0; iter < maxFixpointIterations; iter++ {
		progress := false
		for _, ob := range f.obligations {
			if ob.resolved {
				continue
			}
			unique, guidance, err := f.resolveDomainLeaf(ob.env, ob.goal)
			if err != nil {
				return err
			}
			if unique {
				ob.resolved = true
				progress = true
			}
			ob.guidance = guidance
		}
		if !progress {
			return nil
		}
	}
	return nil
}

// push simplifies goal under env: logical connectives are reduced
// immediately (recursing, or for ∨/¬ resolving a nested Fulfillment
// synchronously), and domain goals are queued as obligations for the
// fixpoint phase.
func (f *Fulfillment) push(env *Environment, goal *Goal) error {
	switch d := goal.Data().(type) {
	case EqGoal:
		res, err := f.table.Relate(d.Variance, d.A, d.B)
		if err != nil {
			return ErrNoSolution
		}
		return f.applyUnifyResult(env, res)

	case ForallGoal:
		u := f.table.NewUniverse()
		args := make([]GenericArg, len(d.Binders))
		for i, bk := range d.Binders {
			args[i] = placeholderArg(f.table.interner, bk.Kind, Placeholder{Universe: u, Index: uint32(i)})
		}
		body := ApplySubstitutionGoal(f.table.interner, d.Body, NewSubstitution(args))
		return f.push(env, body)

	case ExistsGoal:
		u := f.table.MaxUniverse()
		args := make([]GenericArg, len(d.Binders))
		for i, bk := range d.Binders {
			args[i] = f.table.NewVariableArg(bk.Kind, u)
		}
		body := ApplySubstitutionGoal(f.table.interner, d.Body, NewSubstitution(args))
		return f.push(env, body)

	case ImpliesGoal:
		return f.push(env.Extended(d.Hypotheses), d.Consequence)

	case AndGoal:
		// Both conjuncts are pushed regardless of whether the first
		// fails, per §4.3's "push both, in a fair order" -- a right
		// conjunct that also fails is independent information, not
		// noise to discard, so the failures are combined rather than
		// reporting only whichever happened to be checked first.
		leftErr := f.push(env, d.Left)
		rightErr := f.push(env, d.Right)
		return multierr.Append(leftErr, rightErr)

	case OrGoal:
		outcome, err := f.resolveOr(env, d.Left, d.Right)
		if err != nil {
			return err
		}
		f.constraints = append(f.constraints, outcome.Constraints...)
		return nil

	case NotGoal:
		return f.resolveNot(env, d.Inner)

	case CannotProveGoal:
		return ErrNoSolution

	default:
		if !IsDomainGoal(goal) {
			panic("hh: unhandled GoalData in Fulfillment.push")
		}
		f.obligations = append(f.obligations, &obligation{env: env, goal: goal})
		return nil
	}
}

func (f *Fulfillment) applyUnifyResult(env *Environment, res *UnificationResult) error {
	f.constraints = append(f.constraints, res.Constraints...)
	for _, g := range res.Goals {
		if err := f.push(env, g); err != nil {
			return err
		}
	}
	return nil
}

// solveBranchGoal fully resolves goal in a nested Fulfillment sharing
// this one's table, so its bindings and obligations are independent
// bookkeeping but its unifications are visible to the caller until
// rolled back.
func (f *Fulfillment) solveBranchGoal(env *Environment, goal *Goal) (FulfillmentOutcome, error) {
	sub := newFulfillment(f.table, f.solver)
	return sub.Solve(env, goal)
}

// resolveOr tries both disjuncts from the same starting state
// (snapshotting and rolling back between attempts so neither sees the
// other's bindings), then: if exactly one succeeded, replays it to
// commit its bindings as the only viable path; if both succeeded, the
// result is Ambiguous and neither branch's specific bindings are
// committed, since they may disagree; if neither succeeded, the whole
// disjunction fails.
func (f *Fulfillment) resolveOr(env *Environment, left, right *Goal) (FulfillmentOutcome, error) {
	snap := f.table.Snapshot()
	leftOut, leftErr := f.solveBranchGoal(env, left)
	f.table.RollbackTo(snap)
	rightOut, rightErr := f.solveBranchGoal(env, right)
	f.table.RollbackTo(snap)

	leftOK := leftErr == nil
	rightOK := rightErr == nil

	switch {
	case !leftOK && !rightOK:
		return FulfillmentOutcome{}, ErrNoSolution
	case leftOK && !rightOK:
		return f.solveBranchGoal(env, left)
	case rightOK && !leftOK:
		return f.solveBranchGoal(env, right)
	default:
		constraints := append(append([]OutlivesConstraint{}, leftOut.Constraints...), rightOut.Constraints...)
		return FulfillmentOutcome{Ambiguous: true, Constraints: constraints}, nil
	}
}

// resolveNot implements ¬G: G must be ground (no free existential
// variables survive simplification against the current bindings) or
// the negation flounders; otherwise it is attempted in a fresh table
// so none of its own bindings (there should be none, since it is
// ground) can leak, and succeeds iff that attempt fails.
func (f *Fulfillment) resolveNot(env *Environment, inner *Goal) error {
	canon := f.table.CanonicalizeGoal(inner)
	if len(canon.Binders) > 0 {
		return ErrFloundered
	}

	fresh := NewInferenceTable(f.table.interner)
	sub := newFulfillment(fresh, f.solver)
	_, err := sub.Solve(env, canon.Value)
	switch {
	case errors.Is(err, ErrNoSolution):
		return nil
	case err != nil:
		return err
	default:
		return ErrNoSolution
	}
}

// resolveDomainLeaf canonicalizes one domain-goal obligation together
// with its environment, hands it to the configured DomainSolver, and
// on a Unique answer binds the obligation's original variables to the
// solved values, folding any further residual goals (e.g. from a
// NormalizeGoal that itself still needed unification) back into this
// Fulfillment.
func (f *Fulfillment) resolveDomainLeaf(env *Environment, goal *Goal) (bool, Guidance, error) {
	ucgoal, originalVars := f.table.CanonicalizeInEnvironmentForSolve(env, goal)
	sol, err := f.solver.Solve(ucgoal)
	if err != nil {
		return false, Guidance{}, err
	}
	if !sol.IsUnique() {
		return false, sol.Guidance, nil
	}

	remapped, err := f.remapAnswerUniverses(ucgoal.Universes, sol.Unique.Canonical)
	if err != nil {
		return false, Guidance{}, err
	}

	answer, _ := InstantiateCanonical(f.table, remapped, func(s *Substitution) *ConstrainedSubst {
		args := make([]GenericArg, len(remapped.Value.Subst.Args))
		for i, a := range remapped.Value.Subst.Args {
			args[i] = ApplySubstitutionArg(f.table.interner, a, s)
		}
		constraints := make([]OutlivesConstraint, len(remapped.Value.Constraints))
		for i, c := range remapped.Value.Constraints {
			constraints[i] = OutlivesConstraint{
				Longer:  ApplySubstitutionLifetime(f.table.interner, c.Longer, s),
				Shorter: ApplySubstitutionLifetime(f.table.interner, c.Shorter, s),
			}
		}
		return &ConstrainedSubst{Subst: &Substitution{Args: args}, Constraints: constraints}
	})

	for i, origVar := range originalVars {
		res, err := f.table.Relate(Invariant, varAsArg(f.table.interner, origVar), answer.Subst.Args[i])
		if err != nil {
			return false, Guidance{}, ErrNoSolution
		}
		if err := f.applyUnifyResult(env, res); err != nil {
			return false, Guidance{}, err
		}
	}
	f.constraints = append(f.constraints, answer.Constraints...)
	return true, Guidance{}, nil
}

// remapAnswerUniverses translates a DomainSolver answer's universe
// indices, which are relative to the solver's own private table, back
// into universes of the caller's table: indices that fall within the
// query's own universe map translate through it; any further universe
// the solver opened while proving the goal (e.g. entering an
// additional ∀ inside a clause body) gets a freshly minted universe in
// the caller's table, in the order it first appears.
func (f *Fulfillment) remapAnswerUniverses(queryUniverses UniverseMap, answer Canonical[*ConstrainedSubst]) (Canonical[*ConstrainedSubst], error) {
	k := len(queryUniverses.Original)
	newBinders := make([]CanonicalVarKind, len(answer.Binders))
	mapped := make(map[UniverseIndex]UniverseIndex)
	for i, bk := range answer.Binders {
		u, ok := mapped[bk.Universe]
		if !ok {
			if int(bk.Universe) < k {
				u = queryUniverses.Original[bk.Universe]
			} else {
				u = f.table.NewUniverse()
			}
			mapped[bk.Universe] = u
		}
		newBinders[i] = CanonicalVarKind{Kind: bk.Kind, Universe: u}
	}
	return Canonical[*ConstrainedSubst]{Binders: newBinders, Value: answer.Value}, nil
}

func placeholderArg(in *Interner, kind ParameterKind, p Placeholder) GenericArg {
	switch kind {
	case ParamKindTy:
		return TyArg(in.InternTy(PlaceholderTy{Placeholder: p}))
	case ParamKindLifetime:
		return LifetimeArg(in.InternLifetime(PlaceholderLt{Placeholder: p}))
	default:
		return ConstArg(in.InternConst(PlaceholderConst{Placeholder: p}))
	}
}

func varAsArg(in *Interner, v InferenceVarID) GenericArg {
	switch v.Kind() {
	case ParamKindTy:
		return TyArg(in.InternTy(InferenceVarTy{Var: v}))
	case ParamKindLifetime:
		return LifetimeArg(in.InternLifetime(InferenceVarLt{Var: v}))
	default:
		return ConstArg(in.InternConst(InferenceVarConst{Var: v}))
	}
}
