package hh

import "context"

// AnswerEnumerator is implemented by a DomainSolver that can produce
// more than one answer for the same goal on demand (§4.5): index 0 is
// the first answer, index 1 the next, and so on. EnsureAnswer drives
// whatever work is needed to materialize that answer and reports
// whether any further answer might still exist.
//
// RecursiveSolver (§4.4) only ever combines every applicable clause
// into one Solution, so it implements this trivially: index 0 returns
// its combined Solve result with hasMore false, and any later index
// reports ErrNoSolution. The SLG engine is the one that actually
// streams distinct answers one table slot at a time.
type AnswerEnumerator interface {
	EnsureAnswer(goal UCanonical[*InEnvironment], index int) (Solution, bool, error)
}

// EnsureAnswer implements AnswerEnumerator for RecursiveSolver.
func (s *RecursiveSolver) EnsureAnswer(goal UCanonical[*InEnvironment], index int) (Solution, bool, error) {
	if index > 0 {
		return Solution{}, false, ErrNoSolution
	}
	sol, err := s.Solve(goal)
	if err != nil {
		return Solution{}, false, err
	}
	return sol, false, nil
}

// SolveMultiCallback receives one answer at a time. has_more reports
// whether EnsureAnswer found more work remaining after this answer;
// the callback's return value tells SolveMulti whether to keep going.
type SolveMultiCallback func(answer Solution, hasMore bool) bool

// SolveMulti implements the §6 solve_multi inward operation: it pulls
// answers one at a time from enumerator, checking hasMore after each
// one, since each answer can be arbitrarily expensive to produce. It
// stops when the callback declines to
// continue, when the enumerator reports no more answers, when ctx is
// done, or when an error or no-solution result is reached.
//
// It returns true iff at least one answer was delivered to callback.
func SolveMulti(ctx context.Context, enumerator AnswerEnumerator, goal UCanonical[*InEnvironment], callback SolveMultiCallback) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	delivered := false
	for index := 0; ; index++ {
		if ctx.Err() != nil {
			return delivered
		}
		answer, hasMore, err := enumerator.EnsureAnswer(goal, index)
		if err != nil {
			return delivered
		}
		delivered = true
		if !callback(answer, hasMore) {
			return delivered
		}
		if !hasMore {
			return delivered
		}
	}
}
