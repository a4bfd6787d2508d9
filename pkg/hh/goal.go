package hh

import (
	"fmt"
	"strings"
)

// Goal is an interned handle to a node of the Hereditary Harrop goal
// language: a domain goal (leaf), an equality goal, or one of the
// logical connectives ∀, ∃, ⇒, ∧, ∨, ¬, plus the explicit "cannot
// prove" marker used when a goal floundered or overflowed.
type Goal struct {
	id   uint64
	data GoalData
}

func (g *Goal) Data() GoalData { return g.data }
func (g *Goal) ID() uint64     { return g.id }

// GoalData is the payload of an interned Goal.
type GoalData interface{ isGoalData() }

// --- domain goals ----------------------------------------------------
//
// Domain goals are the leaves fulfillment hands off to the solver.
// They never contain a logical connective; once reduction reaches one
// of these the solver takes over by trying program clauses.

// ImplementedTraitGoal is `Self: Trait<Args>`.
type ImplementedTraitGoal struct {
	Trait TraitID
	Args  []GenericArg // Args[0] is the Self type
}

// ProjectionEqGoal is `<Self as Trait>::Assoc = Ty`.
type ProjectionEqGoal struct {
	Projection *Type // a ProjectionTy
	Ty         *Type
}

// NormalizeGoal asks the solver to reduce a projection to a concrete
// type rather than merely check equality against a candidate.
type NormalizeGoal struct {
	Projection *Type // a ProjectionTy
	Ty         *Type
}

type WellFormedTyGoal struct{ Ty *Type }
type WellFormedTraitGoal struct {
	Trait TraitID
	Args  []GenericArg
}

// FromEnvTyGoal and FromEnvTraitGoal succeed if their argument is assumable directly from the
// environment's clauses without further program-clause search.
type FromEnvTyGoal struct{ Ty *Type }
type FromEnvTraitGoal struct {
	Trait TraitID
	Args  []GenericArg
}

type IsLocalGoal struct{ Ty *Type }
type IsUpstreamGoal struct{ Ty *Type }
type DownstreamTypeGoal struct{ Ty *Type }
type CompatibleModeGoal struct{}
type ObjectSafeGoal struct{ Trait TraitID }

func (ImplementedTraitGoal) isGoalData() {}
func (ProjectionEqGoal) isGoalData()     {}
func (NormalizeGoal) isGoalData()        {}
func (WellFormedTyGoal) isGoalData()     {}
func (WellFormedTraitGoal) isGoalData()  {}
func (FromEnvTyGoal) isGoalData()        {}
func (FromEnvTraitGoal) isGoalData()     {}
func (IsLocalGoal) isGoalData()          {}
func (IsUpstreamGoal) isGoalData()       {}
func (DownstreamTypeGoal) isGoalData()   {}
func (CompatibleModeGoal) isGoalData()   {}
func (ObjectSafeGoal) isGoalData()       {}

// IsDomainGoal reports whether a goal is a leaf domain goal, i.e. one
// the solver (rather than fulfillment's simplifier) is responsible for.
func IsDomainGoal(g *Goal) bool {
	switch g.data.(type) {
	case ImplementedTraitGoal, ProjectionEqGoal, NormalizeGoal, WellFormedTyGoal,
		WellFormedTraitGoal, FromEnvTyGoal, FromEnvTraitGoal, IsLocalGoal,
		IsUpstreamGoal, DownstreamTypeGoal, CompatibleModeGoal, ObjectSafeGoal:
		return true
	default:
		return false
	}
}

// --- logical connectives ---------------------------------------------

// EqGoal relates two generic arguments of the same kind under a variance.
type EqGoal struct {
	A, B     GenericArg
	Variance Variance
}

// ForallGoal is ∀⟨Binders⟩ Body.
type ForallGoal struct {
	Binders []CanonicalVarKind
	Body    *Goal
}

// ExistsGoal is ∃⟨Binders⟩ Body.
type ExistsGoal struct {
	Binders []CanonicalVarKind
	Body    *Goal
}

// ImpliesGoal is (Hypotheses ⇒ Consequence): Hypotheses are added to
// the environment as additional clauses while proving Consequence;
// environment clauses are favored over program clauses when their
// answers disagree.
type ImpliesGoal struct {
	Hypotheses []*Clause
	Consequence *Goal
}

type AndGoal struct{ Left, Right *Goal }
type OrGoal struct{ Left, Right *Goal }
type NotGoal struct{ Inner *Goal }

// CannotProveGoal is the explicit "unknown" goal: a placeholder
// recorded where truncation or overflow gave up on a sub-goal.
type CannotProveGoal struct{}

func (EqGoal) isGoalData()           {}
func (ForallGoal) isGoalData()       {}
func (ExistsGoal) isGoalData()       {}
func (ImpliesGoal) isGoalData()      {}
func (AndGoal) isGoalData()          {}
func (OrGoal) isGoalData()           {}
func (NotGoal) isGoalData()          {}
func (CannotProveGoal) isGoalData()  {}

func (g *Goal) String() string {
	switch d := g.data.(type) {
	case ImplementedTraitGoal:
		return fmt.Sprintf("%s: %s%s", d.Args[0], d.Trait, formatArgs(d.Args[1:]))
	case ProjectionEqGoal:
		return fmt.Sprintf("%s = %s", d.Projection, d.Ty)
	case NormalizeGoal:
		return fmt.Sprintf("normalize(%s -> %s)", d.Projection, d.Ty)
	case WellFormedTyGoal:
		return fmt.Sprintf("WF(%s)", d.Ty)
	case WellFormedTraitGoal:
		return fmt.Sprintf("WF(%s%s)", d.Trait, formatArgs(d.Args))
	case FromEnvTyGoal:
		return fmt.Sprintf("FromEnv(%s)", d.Ty)
	case FromEnvTraitGoal:
		return fmt.Sprintf("FromEnv(%s%s)", d.Trait, formatArgs(d.Args))
	case IsLocalGoal:
		return fmt.Sprintf("IsLocal(%s)", d.Ty)
	case IsUpstreamGoal:
		return fmt.Sprintf("IsUpstream(%s)", d.Ty)
	case DownstreamTypeGoal:
		return fmt.Sprintf("Downstream(%s)", d.Ty)
	case CompatibleModeGoal:
		return "CompatibleMode"
	case ObjectSafeGoal:
		return fmt.Sprintf("ObjectSafe(%s)", d.Trait)
	case EqGoal:
		return fmt.Sprintf("%s == %s", d.A, d.B)
	case ForallGoal:
		return fmt.Sprintf("forall<%d> %s", len(d.Binders), d.Body)
	case ExistsGoal:
		return fmt.Sprintf("exists<%d> %s", len(d.Binders), d.Body)
	case ImpliesGoal:
		return fmt.Sprintf("(%d hyps) => %s", len(d.Hypotheses), d.Consequence)
	case AndGoal:
		return fmt.Sprintf("(%s AND %s)", d.Left, d.Right)
	case OrGoal:
		return fmt.Sprintf("(%s OR %s)", d.Left, d.Right)
	case NotGoal:
		return fmt.Sprintf("NOT %s", d.Inner)
	case CannotProveGoal:
		return "cannot-prove"
	default:
		return "?goal"
	}
}

func goalKey(data GoalData) string {
	argsKey := func(args []GenericArg) string { return genericArgsKey(args) }
	switch d := data.(type) {
	case ImplementedTraitGoal:
		return fmt.Sprintf("impl:%s:%s", d.Trait.Name, argsKey(d.Args))
	case ProjectionEqGoal:
		return fmt.Sprintf("projeq:%d:%d", d.Projection.id, d.Ty.id)
	case NormalizeGoal:
		return fmt.Sprintf("norm:%d:%d", d.Projection.id, d.Ty.id)
	case WellFormedTyGoal:
		return fmt.Sprintf("wfty:%d", d.Ty.id)
	case WellFormedTraitGoal:
		return fmt.Sprintf("wftrait:%s:%s", d.Trait.Name, argsKey(d.Args))
	case FromEnvTyGoal:
		return fmt.Sprintf("fromenvty:%d", d.Ty.id)
	case FromEnvTraitGoal:
		return fmt.Sprintf("fromenvtrait:%s:%s", d.Trait.Name, argsKey(d.Args))
	case IsLocalGoal:
		return fmt.Sprintf("islocal:%d", d.Ty.id)
	case IsUpstreamGoal:
		return fmt.Sprintf("isupstream:%d", d.Ty.id)
	case DownstreamTypeGoal:
		return fmt.Sprintf("downstream:%d", d.Ty.id)
	case CompatibleModeGoal:
		return "compatmode"
	case ObjectSafeGoal:
		return fmt.Sprintf("objsafe:%s", d.Trait.Name)
	case EqGoal:
		return fmt.Sprintf("eq:%s:%s:%d", argKey(d.A), argKey(d.B), d.Variance)
	case ForallGoal:
		return fmt.Sprintf("forall:%d:%d", len(d.Binders), d.Body.id)
	case ExistsGoal:
		return fmt.Sprintf("exists:%d:%d", len(d.Binders), d.Body.id)
	case ImpliesGoal:
		var b strings.Builder
		b.WriteString("implies:")
		for _, h := range d.Hypotheses {
			fmt.Fprintf(&b, "%d,", h.id)
		}
		fmt.Fprintf(&b, ":%d", d.Consequence.id)
		return b.String()
	case AndGoal:
		return fmt.Sprintf("and:%d:%d", d.Left.id, d.Right.id)
	case OrGoal:
		return fmt.Sprintf("or:%d:%d", d.Left.id, d.Right.id)
	case NotGoal:
		return fmt.Sprintf("not:%d", d.Inner.id)
	case CannotProveGoal:
		return "cannotprove"
	default:
		panic(fmt.Sprintf("hh: unhandled GoalData %T in goalKey", data))
	}
}

func argKey(a GenericArg) string {
	switch a.Kind {
	case ArgKindTy:
		return fmt.Sprintf("t%d", a.Ty.id)
	case ArgKindLifetime:
		return fmt.Sprintf("l%d", a.Lifetime.id)
	default:
		return fmt.Sprintf("c%d", a.Const.id)
	}
}

// ClausePriority orders two clauses with the same consequence:
// High eclipses Low once both succeed uniquely. Used to let a
// specializing impl win over a more general blanket impl.
type ClausePriority int

const (
	PriorityHigh ClausePriority = iota
	PriorityLow
)

func (p ClausePriority) String() string {
	if p == PriorityHigh {
		return "high"
	}
	return "low"
}

// Clause is ∀⟨Binders⟩ (Consequence :- Conditions), the unit of
// program knowledge the clause provider hands back to the solver.
// Consequence must be a domain goal; Conditions may be arbitrary goals
// (including further connectives), since a where-clause can itself be
// a higher-ranked or quantified bound.
type Clause struct {
	id          uint64
	Binders     []CanonicalVarKind
	Consequence *Goal
	Conditions  []*Goal
	Priority    ClausePriority
}

func (c *Clause) ID() uint64 { return c.id }

func (c *Clause) String() string {
	if len(c.Conditions) == 0 {
		return c.Consequence.String()
	}
	parts := make([]string, len(c.Conditions))
	for i, cond := range c.Conditions {
		parts[i] = cond.String()
	}
	return fmt.Sprintf("%s :- %s [%s]", c.Consequence, strings.Join(parts, ", "), c.Priority)
}

func clauseKey(c Clause) string {
	var b strings.Builder
	fmt.Fprintf(&b, "clause:%d:%d:%d:", len(c.Binders), c.Consequence.id, c.Priority)
	for _, cond := range c.Conditions {
		fmt.Fprintf(&b, "%d,", cond.id)
	}
	return b.String()
}

// QuantifiedWhereClause is ∀⟨Binders⟩ Goal, the shape a trait bound
// takes inside a dyn Trait object or a where-clause list.
type QuantifiedWhereClause struct {
	Binders []CanonicalVarKind
	Goal    *Goal
}

// Environment is the "H" of an (H ⇒ G) goal once simplified: a list of
// clauses assumed true for the remainder of the proof, consulted ahead
// of (and with priority over) the external clause provider.
type Environment struct {
	Clauses []*Clause
}

// Extended returns a new Environment with extra clauses appended,
// leaving the receiver untouched (environments are shared structure
// across sibling disjuncts and must not be mutated in place).
func (e *Environment) Extended(extra []*Clause) *Environment {
	clauses := make([]*Clause, 0, len(e.Clauses)+len(extra))
	clauses = append(clauses, e.Clauses...)
	clauses = append(clauses, extra...)
	return &Environment{Clauses: clauses}
}

// InEnvironment pairs a goal with the environment it must be proved
// in. This is the payload a client canonicalizes and hands to Solve.
type InEnvironment struct {
	Env  *Environment
	Goal *Goal
}
