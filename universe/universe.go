// Package universe allocates and compares universe indices.
//
// A universe tracks which placeholders a variable is allowed to name.
// Universe 0 (Root) is where the goal starts; each `forall` encountered
// while instantiating a binder introduces a strictly higher universe.
package universe

import (
	"fmt"
	"sync"
)

// Index is a universe index. The root universe is 0; every universe
// created afterwards compares strictly greater than every universe
// that existed when it was created.
type Index int

// Root is the universe every solve begins in.
const Root Index = 0

// CanSee reports whether a variable living in universe u may refer to a
// placeholder living in universe v. This holds iff u >= v: a variable
// can only see placeholders introduced no later than itself.
func CanSee(u, v Index) bool {
	return u >= v
}

func (i Index) String() string {
	return fmt.Sprintf("U%d", int(i))
}

// Store allocates fresh universe indices and tracks the highest one
// ever handed out. A Store is passed alongside an infer.Table rather
// than owned by it: Store.Max picks the universe for fresh existential
// variables, while a bind's scope ceiling is Table.MaxUniverse.
type Store struct {
	mu  sync.Mutex
	max Index
}

// NewStore returns a Store whose only universe so far is Root.
func NewStore() *Store {
	return &Store{max: Root}
}

// Root returns the root universe index (always 0).
func (s *Store) Root() Index {
	return Root
}

// New allocates a universe strictly greater than every universe
// allocated so far from this store.
func (s *Store) New() Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.max++
	return s.max
}

// Max returns the highest universe index allocated so far.
func (s *Store) Max() Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.max
}

// PlaceholderIndex identifies a skolem constant: the universe it was
// introduced in, plus a slot distinguishing it from siblings introduced
// in the same universe. Two placeholders are equal iff both fields
// match.
type PlaceholderIndex struct {
	Universe Index
	Slot      int
}

// Equals reports whether two placeholder indices name the same skolem.
func (p PlaceholderIndex) Equals(o PlaceholderIndex) bool {
	return p.Universe == o.Universe && p.Slot == o.Slot
}

func (p PlaceholderIndex) String() string {
	return fmt.Sprintf("!%d_%d", int(p.Universe), p.Slot)
}

// Placeholders hands out fresh placeholder slots within a single
// universe. A fresh instance is created each time a binder is
// instantiated universally, so slots only need to be unique within
// that one instantiation.
type Placeholders struct {
	universe Index
	next     int
}

// NewPlaceholders returns an allocator for placeholders in universe u.
func NewPlaceholders(u Index) *Placeholders {
	return &Placeholders{universe: u}
}

// Next allocates the next placeholder slot in this universe.
func (p *Placeholders) Next() PlaceholderIndex {
	slot := p.next
	p.next++
	return PlaceholderIndex{Universe: p.universe, Slot: slot}
}
