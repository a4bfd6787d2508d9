package hh

import "fmt"

// UniverseIndex names one universe in the totally ordered chain
// U0 < U1 < U2 < ... . A variable living in universe Ui may only be
// unified with terms whose free placeholders all lie in universes <= Ui.
type UniverseIndex uint32

// RootUniverse is U0, the universe every top-level query starts in.
const RootUniverse UniverseIndex = 0

// Next returns the universe strictly above u. Placeholders introduced
// when a ∀-binder is opened live in Next() of the universe active at
// the point the binder was encountered.
func (u UniverseIndex) Next() UniverseIndex {
	return u + 1
}

// CanUnifyWith reports whether a placeholder or variable in universe u
// may appear inside a term bound to a variable in universe target,
// i.e. whether u <= target.
func (u UniverseIndex) CanUnifyWith(target UniverseIndex) bool {
	return u <= target
}

func (u UniverseIndex) String() string {
	return fmt.Sprintf("U%d", uint32(u))
}

// UniverseMap reverses a u-canonicalization: index i in the dense
// U0..Uk-1 prefix produced by u-canonicalizing a term maps back to
// Original[i] in the universe space the term was canonicalized from.
//
// u_canonicalize collects the universes that actually occur in a
// canonical body, sorts them, and renumbers them to a dense prefix;
// two canonical goals differing only in universe *names* become equal
// after this step, which is what makes cross-query caching sound.
type UniverseMap struct {
	Original []UniverseIndex
}

// ToOriginal translates a renumbered universe back to the universe it
// was produced from. Panics on an out-of-range index: that indicates
// an internal inconsistency between a UCanonical body and its map.
func (m UniverseMap) ToOriginal(renumbered UniverseIndex) UniverseIndex {
	if int(renumbered) >= len(m.Original) {
		panic(fmt.Sprintf("hh: universe map has %d entries, asked for index %d", len(m.Original), renumbered))
	}
	return m.Original[renumbered]
}

// Len returns the number of distinct universes captured by the map.
func (m UniverseMap) Len() int {
	return len(m.Original)
}

// Placeholder is a skolem constant standing for a universally
// quantified variable once its ∀-binder has been opened. Two
// placeholders are the same iff they share both universe and index.
type Placeholder struct {
	Universe UniverseIndex
	Index    uint32
}

func (p Placeholder) String() string {
	return fmt.Sprintf("!%d_%d", p.Universe, p.Index)
}

// Equal reports structural equality of two placeholders.
func (p Placeholder) Equal(o Placeholder) bool {
	return p.Universe == o.Universe && p.Index == o.Index
}
