// Command example is a small CLI driving the hh solver over a toy
// program built in from a handful of scenarios: a Clone trait with
// impls for Foo and for Vec<T> where T: Clone, and a Map trait with
// two impls. It
// exists to exercise RecursiveSolver, SLGEngine, SolveMulti,
// ConcurrentQueryPool and CoherenceChecker end to end, the way a real
// client (a compiler's trait checker) would wire the package up.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gitrdm/hhsolve/pkg/hh"
)

var (
	debug  bool
	engine string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "example",
		Short: "Demonstrates the hh trait solver over a small built-in program",
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&engine, "engine", "recursive", "solver engine: recursive or slg")

	root.AddCommand(cloneCmd())
	root.AddCommand(mapCmd())
	root.AddCommand(coherenceCmd())
	root.AddCommand(poolCmd())
	return root
}

func newLogger() *hh.Logger {
	l, err := hh.NewLogger(debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return hh.NewNopLogger()
	}
	return l
}

func solverChoice() hh.SolverChoice {
	if engine == "slg" {
		return hh.SolverSLG
	}
	return hh.SolverRecursive
}

// cloneProgram builds `trait Clone {} struct Foo {} struct Vec<T> {}
// impl Clone for Foo {} impl<T> Clone for Vec<T> where T: Clone {}`.
func cloneProgram(in *hh.Interner) (*hh.MemoryClauseProvider, hh.TraitID, hh.AdtID, hh.AdtID) {
	provider := hh.NewMemoryClauseProvider(in)

	clone := hh.TraitID{Name: "Clone"}
	foo := hh.AdtID{Name: "Foo"}
	vec := hh.AdtID{Name: "Vec"}

	provider.AddTrait(hh.TraitDatum{ID: clone})
	provider.AddAdt(hh.AdtDatum{ID: foo})
	provider.AddAdt(hh.AdtDatum{ID: vec, Binders: []hh.CanonicalVarKind{{Kind: hh.ParamKindTy}}})

	provider.AddImpl(hh.ImplDatum{
		Trait:     clone,
		TraitArgs: []hh.GenericArg{hh.TyArg(in.InternTy(hh.AdtTy{ID: foo}))},
	})

	tVar := hh.TyArg(in.InternTy(hh.BoundVarTy{Var: hh.BoundVar{Debruijn: 0, Index: 0}}))
	provider.AddImpl(hh.ImplDatum{
		Binders:   []hh.CanonicalVarKind{{Kind: hh.ParamKindTy}},
		Trait:     clone,
		TraitArgs: []hh.GenericArg{hh.TyArg(in.InternTy(hh.AdtTy{ID: vec, Args: []hh.GenericArg{tVar}}))},
		WhereClauses: []hh.QuantifiedWhereClause{{
			Goal: in.InternGoal(hh.ImplementedTraitGoal{Trait: clone, Args: []hh.GenericArg{tVar}}),
		}},
	})

	return provider, clone, foo, vec
}

func cloneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clone",
		Short: "Solve Vec<Foo>: Clone via the recursive or SLG engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer log.Sync()

			in := hh.NewInterner()
			provider, clone, foo, vec := cloneProgram(in)
			vecFoo := in.InternTy(hh.AdtTy{ID: vec, Args: []hh.GenericArg{hh.TyArg(in.InternTy(hh.AdtTy{ID: foo}))}})

			table := hh.NewInferenceTable(in)
			goal := in.InternGoal(hh.ImplementedTraitGoal{Trait: clone, Args: []hh.GenericArg{hh.TyArg(vecFoo)}})
			ucgoal, _ := table.CanonicalizeInEnvironmentForSolve(&hh.Environment{}, goal)

			ctx := cmd.Context()
			cfg := hh.DefaultConfig()
			cfg.Engine = solverChoice()

			var sol hh.Solution
			var err error
			if cfg.Engine == hh.SolverSLG {
				sol, err = hh.NewSLGEngine(ctx, in, provider, cfg).WithLogger(log).Solve(ucgoal)
			} else {
				sol, err = hh.NewRecursiveSolver(ctx, in, provider, cfg).WithLogger(log).Solve(ucgoal)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Vec<Foo>: Clone -> unique=%v kind=%v\n", sol.IsUnique(), sol.Kind)
			return nil
		},
	}
}

// mapProgram builds `trait Map<T> {} struct Foo {} struct Bar {} impl
// Map<Bar> for Foo {} impl Map<Foo> for Bar {}`, which has exactly two
// answers for the open goal ∃A,B. A: Map<B>.
func mapProgram(in *hh.Interner) (*hh.MemoryClauseProvider, hh.TraitID) {
	provider := hh.NewMemoryClauseProvider(in)

	mapTrait := hh.TraitID{Name: "Map"}
	foo := hh.AdtID{Name: "Foo"}
	bar := hh.AdtID{Name: "Bar"}

	provider.AddTrait(hh.TraitDatum{ID: mapTrait})
	provider.AddAdt(hh.AdtDatum{ID: foo})
	provider.AddAdt(hh.AdtDatum{ID: bar})

	provider.AddImpl(hh.ImplDatum{
		Trait: mapTrait,
		TraitArgs: []hh.GenericArg{
			hh.TyArg(in.InternTy(hh.AdtTy{ID: foo})),
			hh.TyArg(in.InternTy(hh.AdtTy{ID: bar})),
		},
	})
	provider.AddImpl(hh.ImplDatum{
		Trait: mapTrait,
		TraitArgs: []hh.GenericArg{
			hh.TyArg(in.InternTy(hh.AdtTy{ID: bar})),
			hh.TyArg(in.InternTy(hh.AdtTy{ID: foo})),
		},
	})

	return provider, mapTrait
}

func mapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map",
		Short: "Enumerate every answer to the open goal A: Map<B> via SolveMulti",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer log.Sync()

			in := hh.NewInterner()
			provider, mapTrait := mapProgram(in)

			table := hh.NewInferenceTable(in)
			a := table.NewVariableArg(hh.ParamKindTy, hh.RootUniverse)
			b := table.NewVariableArg(hh.ParamKindTy, hh.RootUniverse)
			goal := in.InternGoal(hh.ImplementedTraitGoal{Trait: mapTrait, Args: []hh.GenericArg{a, b}})
			ucgoal, _ := table.CanonicalizeInEnvironmentForSolve(&hh.Environment{}, goal)

			cfg := hh.DefaultConfig()
			cfg.Engine = hh.SolverSLG
			slg := hh.NewSLGEngine(cmd.Context(), in, provider, cfg).WithLogger(log)

			n := 0
			hh.SolveMulti(cmd.Context(), slg, ucgoal, func(answer hh.Solution, hasMore bool) bool {
				n++
				fmt.Printf("answer %d: unique=%v kind=%v hasMore=%v\n", n, answer.IsUnique(), answer.Kind, hasMore)
				return true
			})
			fmt.Printf("%d total answer(s)\n", n)
			return nil
		},
	}
}

func coherenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coherence",
		Short: "Check the built-in Clone program for overlapping impls",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer log.Sync()

			in := hh.NewInterner()
			provider, clone, _, _ := cloneProgram(in)

			cfg := hh.DefaultConfig()
			cfg.Engine = solverChoice()
			solver := hh.NewRecursiveSolver(cmd.Context(), in, provider, cfg).WithLogger(log)
			checker := hh.NewCoherenceChecker(in, provider, solver)

			overlaps, err := checker.OverlappingImpls(clone)
			if err != nil {
				return err
			}
			if len(overlaps) == 0 {
				fmt.Println("no overlapping impls of Clone")
				return nil
			}
			for _, pair := range overlaps {
				fmt.Printf("overlap: impl %v and impl %v\n", pair[0], pair[1])
			}
			return nil
		},
	}
}

func poolCmd() *cobra.Command {
	var n int
	var workers int
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Solve Vec<Foo>: Clone n times concurrently through a ConcurrentQueryPool",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer log.Sync()

			in := hh.NewInterner()
			provider, clone, foo, vec := cloneProgram(in)
			vecFoo := in.InternTy(hh.AdtTy{ID: vec, Args: []hh.GenericArg{hh.TyArg(in.InternTy(hh.AdtTy{ID: foo}))}})

			cfg := hh.DefaultConfig()
			cfg.Engine = solverChoice()
			pool := hh.NewConcurrentQueryPool(workers, in, provider, cfg).WithLogger(log)
			defer pool.Shutdown()

			goals := make([]hh.UCanonical[*hh.InEnvironment], n)
			for i := range goals {
				table := hh.NewInferenceTable(in)
				goal := in.InternGoal(hh.ImplementedTraitGoal{Trait: clone, Args: []hh.GenericArg{hh.TyArg(vecFoo)}})
				ucgoal, _ := table.CanonicalizeInEnvironmentForSolve(&hh.Environment{}, goal)
				goals[i] = ucgoal
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			start := time.Now()
			results := pool.SolveAll(ctx, goals)
			elapsed := time.Since(start)

			ok := 0
			for _, r := range results {
				if r.Err == nil && r.Solution.IsUnique() {
					ok++
				}
			}
			log.Info("pool run complete",
				zap.Int("queries", n),
				zap.Int("workers", workers),
				zap.Int("unique", ok),
				zap.Duration("elapsed", elapsed),
			)
			fmt.Printf("%d/%d queries solved uniquely across %d workers in %s\n", ok, n, workers, elapsed)
			return nil
		},
	}
	cmd.Flags().IntVar(&n, "n", 8, "number of queries to submit")
	cmd.Flags().IntVar(&workers, "workers", 4, "worker pool size")
	return cmd
}
