package hh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConcurrentQueryPoolSolvesEachQuery(t *testing.T) {
	in, provider, clone, foo, vec := buildCloneProgram(t)
	vecFoo := in.InternTy(AdtTy{ID: vec, Args: []GenericArg{TyArg(in.InternTy(AdtTy{ID: foo}))}})

	pool := NewConcurrentQueryPool(4, in, provider, DefaultConfig())
	defer pool.Shutdown()

	var goals []UCanonical[*InEnvironment]
	for i := 0; i < 8; i++ {
		table := NewInferenceTable(in)
		goal := in.InternGoal(ImplementedTraitGoal{Trait: clone, Args: []GenericArg{TyArg(vecFoo)}})
		ucgoal, _ := table.CanonicalizeInEnvironmentForSolve(&Environment{}, goal)
		goals = append(goals, ucgoal)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results := pool.SolveAll(ctx, goals)
	require.Len(t, results, len(goals))
	for _, r := range results {
		require.NoError(t, r.Err)
		require.True(t, r.Solution.IsUnique())
	}

	stats := pool.Stats().GetStats()
	require.Equal(t, int64(len(goals)), stats.TasksSubmitted)
}

func TestConcurrentQueryPoolSharesCache(t *testing.T) {
	in, provider, clone, foo, vec := buildCloneProgram(t)
	vecFoo := in.InternTy(AdtTy{ID: vec, Args: []GenericArg{TyArg(in.InternTy(AdtTy{ID: foo}))}})

	cfg := DefaultConfig().WithCache(NewAnswerCache())
	pool := NewConcurrentQueryPool(2, in, provider, cfg)
	defer pool.Shutdown()

	table := NewInferenceTable(in)
	goal := in.InternGoal(ImplementedTraitGoal{Trait: clone, Args: []GenericArg{TyArg(vecFoo)}})
	ucgoal, _ := table.CanonicalizeInEnvironmentForSolve(&Environment{}, goal)

	ctx := context.Background()
	first := <-pool.Submit(ctx, ucgoal)
	require.NoError(t, first.Err)

	key := ucanonGoalKey(ucgoal)
	_, cached := cfg.Cache().Get(key)
	require.True(t, cached, "completed query should populate the shared cache")
}
