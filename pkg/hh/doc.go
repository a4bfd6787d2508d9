// Package hh implements the core of a trait-reference solver for a
// Hereditary Harrop logic: given a set of program clauses, it decides
// whether a goal such as "type T satisfies trait bound Tr<...>" is
// provable, producing a substitution on success and reporting
// ambiguity with inference guidance otherwise.
//
// The package is organized around the three subsystems described by
// the design this engine follows:
//
//   - the term layer (terms.go, interner.go, binder.go, fold.go): an
//     interned universe of types, lifetimes, consts and goals with a
//     De Bruijn binder discipline;
//   - the inference engine (infer_table.go, unify.go, universe.go):
//     universe-stratified inference variables, unification with
//     occurs-check and universe escape checks, and canonicalization;
//   - the goal solver (fulfill.go, solve_recursive.go, slg.go): a
//     cycle-aware recursive prover and an alternative SLG/tabling
//     engine implementing the well-founded semantics.
//
// This package has no opinion on where clauses come from: callers
// supply a ClauseProvider (interfaces.go) that translates their own
// program (trait declarations, impls, ...) into Clause values. Parsing,
// lowering, coherence policy and pretty-printing all live outside this
// package; CoherenceChecker (coherence.go) only reports overlapping impls.
package hh
