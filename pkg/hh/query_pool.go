package hh

import (
	"context"

	"github.com/gitrdm/hhsolve/internal/parallel"
)

// QueryResult is one completed top-level query's outcome, paired with
// the goal it answers so a caller fanning out many queries at once can
// match results back up without threading its own bookkeeping through
// the pool.
type QueryResult struct {
	Goal     UCanonical[*InEnvironment]
	Solution Solution
	Err      error
}

// ConcurrentQueryPool runs multiple independent top-level queries at
// once, each with its own single-threaded solver instance, per §5:
// "Cross-query caching may be guarded by a mutex to permit one solver
// instance per concurrent query, but within a query all work is
// sequential." A RecursiveSolver or SLGEngine's own stack is never
// shared across goroutines; only the Config's AnswerCache and the
// ClauseProvider (itself required to be safe for concurrent reads) are
// shared between queries submitted to the same pool.
//
// The scheduling itself is the teacher's dynamically-scaled WorkerPool
// (trimmed to the parts used here): queueing, backpressure and worker scale-up/down are a
// generic concern of running many independent units of work, not
// something a trait solver needs to reinvent.
type ConcurrentQueryPool struct {
	pool     *parallel.WorkerPool
	interner *Interner
	provider ClauseProvider
	cfg      Config
	log      *Logger
}

// NewConcurrentQueryPool builds a pool of maxWorkers goroutines, each
// capable of driving one top-level query to completion at a time.
// cfg's engine choice and termination bounds are reused for every
// query; if cfg has no AnswerCache attached, one is created and shared
// across every query the pool ever runs, so that repeated or
// overlapping queries benefit from each other's completed answers.
func NewConcurrentQueryPool(maxWorkers int, in *Interner, provider ClauseProvider, cfg Config) *ConcurrentQueryPool {
	if cfg.Cache() == nil {
		cfg = cfg.WithCache(NewAnswerCache())
	}
	return &ConcurrentQueryPool{
		pool:     parallel.NewWorkerPool(maxWorkers),
		interner: in,
		provider: provider,
		cfg:      cfg,
		log:      NewNopLogger(),
	}
}

// WithLogger attaches a Logger used by every solver the pool spins up,
// returning the pool for chaining.
func (p *ConcurrentQueryPool) WithLogger(l *Logger) *ConcurrentQueryPool {
	p.log = l
	return p
}

// newSolver builds the DomainSolver cfg.Engine selects, bound to ctx
// and the pool's shared interner, provider and cache.
func (p *ConcurrentQueryPool) newSolver(ctx context.Context) DomainSolver {
	if p.cfg.Engine == SolverSLG {
		return NewSLGEngine(ctx, p.interner, p.provider, p.cfg).WithLogger(p.log)
	}
	return NewRecursiveSolver(ctx, p.interner, p.provider, p.cfg).WithLogger(p.log)
}

// Submit enqueues goal for solving and delivers its result on the
// returned channel once a worker picks it up and finishes. It returns
// immediately; the channel is closed after exactly one QueryResult is
// sent. If the task cannot be queued (ctx cancelled before a worker
// becomes available, or the pool shut down), that result carries the
// queueing error and no Solution.
func (p *ConcurrentQueryPool) Submit(ctx context.Context, goal UCanonical[*InEnvironment]) <-chan QueryResult {
	results := make(chan QueryResult, 1)
	task := func() {
		solver := p.newSolver(ctx)
		sol, err := solver.Solve(goal)
		results <- QueryResult{Goal: goal, Solution: sol, Err: err}
		close(results)
	}
	if err := p.pool.Submit(ctx, task); err != nil {
		results <- QueryResult{Goal: goal, Err: err}
		close(results)
	}
	return results
}

// SolveAll submits every goal and blocks until all have completed or
// ctx is cancelled, returning one QueryResult per goal in the same
// order. A cancelled ctx fills in the remaining results with ctx.Err.
func (p *ConcurrentQueryPool) SolveAll(ctx context.Context, goals []UCanonical[*InEnvironment]) []QueryResult {
	channels := make([]<-chan QueryResult, len(goals))
	for i, g := range goals {
		channels[i] = p.Submit(ctx, g)
	}
	results := make([]QueryResult, len(goals))
	for i, ch := range channels {
		select {
		case r := <-ch:
			results[i] = r
		case <-ctx.Done():
			results[i] = QueryResult{Goal: goals[i], Err: ctx.Err()}
		}
	}
	return results
}

// Stats reports the pool's execution statistics (tasks submitted,
// completed, failed, worker scaling history).
func (p *ConcurrentQueryPool) Stats() *parallel.ExecutionStats {
	return p.pool.GetStats()
}

// Shutdown waits for in-flight queries to finish and stops accepting
// new ones.
func (p *ConcurrentQueryPool) Shutdown() {
	p.pool.Shutdown()
}
