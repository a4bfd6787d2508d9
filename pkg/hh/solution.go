package hh

// ConstrainedSubst is a substitution for a goal's free variables
// together with whatever region (lifetime) constraints had to be set
// aside rather than solved outright while unifying toward it.
type ConstrainedSubst struct {
	Subst       *Substitution
	Constraints []OutlivesConstraint
}

// GuidanceKind tags which of the three ambiguous outcomes a Solution
// carries: a fully pinned-down substitution the caller can safely
// default to, one that is merely a hint because other answers exist,
// or no useful information at all.
type GuidanceKind int

const (
	// GuidanceDefinite means every answer found so far is an instance
	// of this substitution: either the answers agree on it, or it is the
	// anti-unifier (most specific common generalization) of answers that
	// disagree.
	GuidanceDefinite GuidanceKind = iota
	// GuidanceSuggested means at least one answer looked like this, but
	// other answers disagree on some variable: callers may display it
	// as a suggestion (e.g. for diagnostics) but must not substitute it.
	GuidanceSuggested
	// GuidanceUnknown means no usable substitution could be extracted at
	// all, typically because the goal floundered or overflowed before
	// producing a single answer.
	GuidanceUnknown
)

func (k GuidanceKind) String() string {
	switch k {
	case GuidanceDefinite:
		return "definite"
	case GuidanceSuggested:
		return "suggested"
	default:
		return "unknown"
	}
}

// Guidance is the payload of an Ambiguous Solution.
type Guidance struct {
	Kind  GuidanceKind
	Subst Canonical[*Substitution]
}

// DefiniteGuidance wraps a fully-agreed substitution.
func DefiniteGuidance(s Canonical[*Substitution]) Guidance {
	return Guidance{Kind: GuidanceDefinite, Subst: s}
}

// SuggestedGuidance wraps a merely-illustrative substitution.
func SuggestedGuidance(s Canonical[*Substitution]) Guidance {
	return Guidance{Kind: GuidanceSuggested, Subst: s}
}

// UnknownGuidance carries no substitution at all.
func UnknownGuidance() Guidance {
	return Guidance{Kind: GuidanceUnknown}
}

// SolutionKind tags whether a Solution is a single unambiguous answer
// or an Ambiguous bundle of guidance about several.
type SolutionKind int

const (
	SolutionUnique SolutionKind = iota
	SolutionAmbiguous
)

// Solution is the result of solving a goal: either the one answer
// that holds under every possible instantiation of its free
// variables (Unique), or a best-effort summary of several candidate
// answers that could not be reduced to one (Ambiguous).
type Solution struct {
	Kind     SolutionKind
	Unique   UCanonical[*ConstrainedSubst]
	Guidance Guidance
}

// UniqueSolution builds a Unique Solution from a u-canonicalized
// constrained substitution.
func UniqueSolution(s UCanonical[*ConstrainedSubst]) Solution {
	return Solution{Kind: SolutionUnique, Unique: s}
}

// AmbiguousSolution builds an Ambiguous Solution carrying the given
// guidance about the candidate answers that were found.
func AmbiguousSolution(g Guidance) Solution {
	return Solution{Kind: SolutionAmbiguous, Guidance: g}
}

// IsUnique reports whether this Solution pins down exactly one answer.
func (s Solution) IsUnique() bool { return s.Kind == SolutionUnique }

// RefinedGuidance reduces a set of concrete answer substitutions found
// for one goal to the Guidance a caller should see: Definite if they
// all agree structurally, Suggested if they diverge but at least one
// was found, Unknown if none were.
func RefinedGuidance(answers []Canonical[*Substitution]) Guidance {
	if len(answers) == 0 {
		return UnknownGuidance()
	}
	first := answers[0]
	for _, a := range answers[1:] {
		if !substitutionsAgree(first, a) {
			return SuggestedGuidance(first)
		}
	}
	return DefiniteGuidance(first)
}

func substitutionsAgree(a, b Canonical[*Substitution]) bool {
	if len(a.Binders) != len(b.Binders) || len(a.Value.Args) != len(b.Value.Args) {
		return false
	}
	for i := range a.Value.Args {
		if a.Value.Args[i].String() != b.Value.Args[i].String() {
			return false
		}
	}
	return true
}
