// Package stats computes room statistics over the dungeon region tree.
//
// Every node gets two sets of counts: Local, over the rooms it owns directly,
// and Aggregate, over the rooms of its whole subtree. Rooms are counted once
// overall and once under their exact type set, so a monster room and a
// monster+treasure room land under different keys.
package stats

import (
	"maps"
	"slices"

	"github.com/cory-johannsen/aeldardin/internal/dungeon"
)

// Counts holds a room total and per-type-set subtotals. Lookups of absent
// type sets read as zero.
type Counts struct {
	AllRooms int                     `json:"all_rooms"`
	ByType   map[dungeon.TypeSet]int `json:"by_type"`
}

// NewCounts returns empty Counts.
func NewCounts() Counts {
	return Counts{ByType: make(map[dungeon.TypeSet]int)}
}

// Of returns the number of rooms whose type set is exactly s.
func (c Counts) Of(s dungeon.TypeSet) int { return c.ByType[s] }

// Types returns the type sets with a non-zero count, in canonical order: the
// empty set first, then by tag membership in vocabulary order.
func (c Counts) Types() []dungeon.TypeSet {
	var types []dungeon.TypeSet
	for s, n := range c.ByType {
		if n != 0 {
			types = append(types, s)
		}
	}
	slices.Sort(types)
	return types
}

func (c *Counts) addRoom(r *dungeon.Room) {
	c.AllRooms++
	c.ByType[r.Types()]++
}

func (c *Counts) merge(other Counts) {
	c.AllRooms += other.AllRooms
	for s, n := range other.ByType {
		c.ByType[s] += n
	}
}

// Clone returns an independent copy of c.
func (c Counts) Clone() Counts {
	out := Counts{AllRooms: c.AllRooms, ByType: maps.Clone(c.ByType)}
	if out.ByType == nil {
		out.ByType = make(map[dungeon.TypeSet]int)
	}
	return out
}

// Tree mirrors one node of the region hierarchy, annotated with its counts.
type Tree struct {
	Label     string  `json:"label"`
	Regions   []*Tree `json:"regions,omitempty"`
	Local     Counts  `json:"local"`
	Aggregate Counts  `json:"aggregate"`
}

// Compute builds the stats tree for n and all its descendants.
//
// Precondition: n must be non-nil.
// Postcondition: For every node, Aggregate.AllRooms equals the node's
// RoomCount(), and Local counts only its LocalRooms().
func Compute(n *dungeon.Node) *Tree {
	tree := &Tree{Label: n.Label()}
	for _, child := range n.Regions() {
		tree.Regions = append(tree.Regions, Compute(child))
	}

	tree.Local = NewCounts()
	for _, r := range n.LocalRooms() {
		tree.Local.addRoom(r)
	}

	tree.Aggregate = NewCounts()
	for _, child := range tree.Regions {
		tree.Aggregate.merge(child.Aggregate)
	}
	tree.Aggregate.merge(tree.Local)
	return tree
}

// Region returns the first direct child with the given label.
//
// Postcondition: Returns (child, true) if found, or (nil, false) otherwise.
func (t *Tree) Region(label string) (*Tree, bool) {
	for _, child := range t.Regions {
		if child.Label == label {
			return child, true
		}
	}
	return nil, false
}

// Find follows a path of labels downward from t.
//
// Postcondition: An empty path returns t itself.
func (t *Tree) Find(path ...string) (*Tree, bool) {
	cur := t
	for _, label := range path {
		next, ok := cur.Region(label)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// ShowLocal reports whether the node owns any rooms itself.
func (t *Tree) ShowLocal() bool { return t.Local.AllRooms > 0 }

// ShowAggregate reports whether descendants contribute rooms, making the
// aggregate total say more than the local one.
func (t *Tree) ShowAggregate() bool { return t.Aggregate.AllRooms != t.Local.AllRooms }
