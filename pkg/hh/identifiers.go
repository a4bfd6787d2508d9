package hh

import "github.com/google/uuid"

// QueryID names one top-level solve call for logging and for the
// query pool's bookkeeping; it carries no semantic weight for the
// solver itself.
type QueryID string

// NewQueryID mints a fresh, globally unique QueryID.
func NewQueryID() QueryID { return QueryID(uuid.New().String()) }

// PredicateSet is a small set of TraitIDs, used by a ClauseProvider
// implementation to track which predicates it has already declared
// coinductive or object-safe without repeating a linear scan.
type PredicateSet map[TraitID]struct{}

// NewPredicateSet builds a PredicateSet from a list of ids.
func NewPredicateSet(ids ...TraitID) PredicateSet {
	s := make(PredicateSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is a member.
func (s PredicateSet) Contains(id TraitID) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id, returning the set for chaining.
func (s PredicateSet) Add(id TraitID) PredicateSet {
	s[id] = struct{}{}
	return s
}
