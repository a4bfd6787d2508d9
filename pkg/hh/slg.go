package hh

import "context"

// slgAnswer is one simplified answer sitting in a table (§4.5): a
// canonical substitution tagged with the priority and provenance of
// the clause that produced it (needed later by CombineClauseOutcomes)
// and whether it was forced through truncation.
type slgAnswer struct {
	priority    ClausePriority
	fromEnv     bool
	subst       Canonical[*Substitution]
	constraints []OutlivesConstraint
	approximate bool
}

func (a slgAnswer) outcome() ClauseOutcome {
	return ClauseOutcome{Priority: a.priority, FromEnv: a.fromEnv, Subst: a.subst, Constraints: a.constraints}
}

type slgTableStatus int

const (
	slgActive slgTableStatus = iota
	slgComplete
)

// slgMinimums is chalk's Minimums: the lowest stack depth (DFN) this
// table's evaluation has so far depended on positively and
// negatively. While either stays below the table's own DFN, some
// cycle through it is still open and it cannot be marked complete.
type slgMinimums struct {
	positive int
	negative int
}

func (m *slgMinimums) dependOn(kind rune, dfn int) {
	switch kind {
	case '+':
		if dfn < m.positive {
			m.positive = dfn
		}
	case '-':
		if dfn < m.negative {
			m.negative = dfn
		}
	}
}

// slgTable is one u-canonical goal's subgoal table: its accumulated
// simplified answers and the bookkeeping needed to know when no more
// can arrive.
type slgTable struct {
	key      string
	goal     UCanonical[*InEnvironment]
	answers  []slgAnswer
	status   slgTableStatus
	dfn      int
	minimums slgMinimums
}

func newSlgTable(key string, goal UCanonical[*InEnvironment], dfn int) *slgTable {
	return &slgTable{key: key, goal: goal, dfn: dfn, minimums: slgMinimums{positive: dfn, negative: dfn}}
}

// addAnswer inserts a into the table unless an answer with the same
// substitution is already present (the family of simplified answers
// is kept minimal under subset, per §4.5 -- our delayed-literal sets
// are coarse enough that "same substitution" is the only distinction
// worth keeping).
func (t *slgTable) addAnswer(a slgAnswer) bool {
	for _, existing := range t.answers {
		if substitutionsAgree(existing.subst, a.subst) {
			return false
		}
	}
	t.answers = append(t.answers, a)
	return true
}

// SLGEngine is the alternative DomainSolver of §4.5: a tabled,
// answer-streaming proof procedure. Where RecursiveSolver folds every
// applicable clause straight into one combined Solution, SLGEngine
// keeps each distinct answer in a per-goal table and lets a caller
// pull them out one at a time via EnsureAnswer, which is what makes
// solve_multi able to enumerate more than one answer for an otherwise
// ambiguous goal.
//
// Like RecursiveSolver, one SLGEngine is owned by a single top-level
// query (§5): its table map and stack are not safe for concurrent use.
// A strand-level producer/consumer design, the way the originating
// tabling implementation in this codebase's ancestry runs it on
// goroutines, would contradict that single-threaded cooperative
// model, so evaluation here is a straight sequential fixpoint sweep
// per table instead: every round tries every clause again and folds
// any newly-discovered answers in, stopping once a round adds nothing
// new or the overflow budget is spent. This trades true incremental,
// on-demand strand resolution for a simpler batch evaluation that
// still honors the table's externally observable contract (answers
// accumulate, completeness is eventually known, truncation and
// floundering behave identically).
type SLGEngine struct {
	ctx      context.Context
	interner *Interner
	provider ClauseProvider
	cfg      Config
	cache    *AnswerCache
	log      *Logger
	tables   map[string]*slgTable
	stack    []*slgTable
	nextDFN  int
}

// NewSLGEngine builds an engine for one top-level query.
func NewSLGEngine(ctx context.Context, in *Interner, provider ClauseProvider, cfg Config) *SLGEngine {
	if ctx == nil {
		ctx = context.Background()
	}
	return &SLGEngine{
		ctx: ctx, interner: in, provider: provider, cfg: cfg,
		cache: cfg.Cache(), log: NewNopLogger(), tables: make(map[string]*slgTable),
	}
}

// WithLogger attaches a Logger, returning the engine for chaining.
func (e *SLGEngine) WithLogger(l *Logger) *SLGEngine {
	e.log = l
	return e
}

// Solve implements DomainSolver (§4.5 "solve(goal)"): it drives the
// goal's table to completion (or until the overflow budget runs out)
// and combines whatever answers it holds into a final Solution,
// exactly as RecursiveSolver would, for compatibility with §4.4.
func (e *SLGEngine) Solve(goal UCanonical[*InEnvironment]) (Solution, error) {
	key := ucanonGoalKey(goal)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return cached, nil
		}
	}
	table, err := e.getOrCreateTable(goal)
	if err != nil {
		return Solution{}, err
	}
	sol := e.combine(table)
	if table.status == slgComplete && e.cache != nil {
		e.cache.Put(key, sol)
	}
	return sol, nil
}

// EnsureAnswer implements AnswerEnumerator (§4.5 "ensure_answer"): it
// drives goal's table until it holds answer #index or is known
// complete, and reports whether a further answer might still exist.
func (e *SLGEngine) EnsureAnswer(goal UCanonical[*InEnvironment], index int) (Solution, bool, error) {
	table, err := e.getOrCreateTable(goal)
	if err != nil {
		return Solution{}, false, err
	}
	if index >= len(table.answers) {
		return Solution{}, false, ErrNoSolution
	}
	a := table.answers[index]
	sol := UniqueSolution(UCanonical[*ConstrainedSubst]{
		Canonical: Canonical[*ConstrainedSubst]{
			Binders: a.subst.Binders,
			Value:   &ConstrainedSubst{Subst: a.subst.Value, Constraints: a.constraints},
		},
		Universes: table.goal.Universes,
	})
	hasMore := index+1 < len(table.answers) || table.status != slgComplete
	return sol, hasMore, nil
}

func (e *SLGEngine) combine(table *slgTable) Solution {
	outcomes := make([]ClauseOutcome, len(table.answers))
	for i, a := range table.answers {
		outcomes[i] = a.outcome()
	}
	return CombineClauseOutcomes(e.interner, outcomes)
}

func (e *SLGEngine) indexOf(key string) int {
	for i, t := range e.stack {
		if t.key == key {
			return i
		}
	}
	return -1
}

// getOrCreateTable returns goal's table, evaluating it if it is not
// already complete. A cyclic reference back into a table already on
// the stack records the dependency against the caller's own minimums
// (so the caller knows it cannot yet be marked complete) and hands
// back whatever answers that table has accumulated so far, without
// recursing further -- the sequential-sweep analogue of awaiting a
// strand's next answer.
func (e *SLGEngine) getOrCreateTable(goal UCanonical[*InEnvironment]) (*slgTable, error) {
	key := ucanonGoalKey(goal)

	if idx := e.indexOf(key); idx >= 0 {
		t := e.stack[idx]
		if len(e.stack) > 0 {
			caller := e.stack[len(e.stack)-1]
			caller.minimums.dependOn('+', t.dfn)
		}
		return t, nil
	}
	if t, ok := e.tables[key]; ok && t.status == slgComplete {
		return t, nil
	}

	t, ok := e.tables[key]
	if !ok {
		t = newSlgTable(key, goal, e.nextDFN)
		e.nextDFN++
		e.tables[key] = t
	}
	e.stack = append(e.stack, t)
	defer func() { e.stack = e.stack[:len(e.stack)-1] }()

	for iteration := 0; iteration < e.cfg.OverflowDepth; iteration++ {
		if e.ctx.Err() != nil {
			break
		}
		before := len(t.answers)
		beforeMin := t.minimums
		if err := e.evaluateOnce(t); err != nil {
			return t, err
		}
		if len(t.answers) == before && t.minimums == beforeMin {
			break
		}
	}

	if t.minimums.positive >= t.dfn && t.minimums.negative >= t.dfn {
		t.status = slgComplete
	}
	return t, nil
}

// evaluateOnce runs one sweep of every applicable clause for t.goal,
// applying truncation to any answer whose rendered size exceeds the
// configured bound before folding it into the table.
func (e *SLGEngine) evaluateOnce(t *slgTable) error {
	results, err := tryClauses(e.ctx, e.interner, e.provider, e, e.log, t.goal)
	if err != nil {
		return err
	}
	for _, r := range results {
		subst, truncated := truncateSubstitution(e.interner, r.subst, e.cfg.TruncationSize)
		t.addAnswer(slgAnswer{
			priority:    r.priority,
			fromEnv:     r.fromEnv,
			subst:       subst,
			constraints: r.constraints,
			approximate: truncated,
		})
	}
	return nil
}

// truncateSubstitution implements the §4.5 truncation operator: any
// argument whose rendered size exceeds maxSize is replaced with an
// error type standing in for an unknowable approximation, and the
// substitution as a whole is reported truncated. A zero or negative
// maxSize disables truncation.
func truncateSubstitution(in *Interner, s Canonical[*Substitution], maxSize int) (Canonical[*Substitution], bool) {
	if maxSize <= 0 {
		return s, false
	}
	truncated := false
	args := make([]GenericArg, len(s.Value.Args))
	for i, a := range s.Value.Args {
		if a.Kind == ArgKindTy && len(a.Ty.String()) > maxSize {
			args[i] = TyArg(in.InternTy(ErrorTy{}))
			truncated = true
			continue
		}
		args[i] = a
	}
	if !truncated {
		return s, false
	}
	return Canonical[*Substitution]{Binders: s.Binders, Value: &Substitution{Args: args}}, true
}
