// Package dungeon provides the dungeon model: a recursive tree of regions
// holding rooms, with a flat index of rooms by key.
//
// The whole tree is built once from a single parse and never changes; the
// derived views are computed on first use and cached per node.
package dungeon

import (
	"errors"
	"maps"
	"slices"
	"sync"
)

// ErrStopWalk may be returned by a Walk callback to end the walk early
// without an error.
var ErrStopWalk = errors.New("stop walk")

// Node is one level of the dungeon hierarchy. The dungeon itself is a Node,
// and so is every zone and region below it.
type Node struct {
	label      string
	path       []string
	children   []*Node
	localRooms []*Room
	advisories []Advisory

	rooms      func() []*Room
	roomsByKey func() (map[Key]*Room, error)
}

func newNode(label string, path []string) *Node {
	n := &Node{label: label, path: path}
	n.rooms = sync.OnceValue(n.collectRooms)
	n.roomsByKey = sync.OnceValues(n.indexRooms)
	return n
}

// Label returns the node's display string, "" when the source gave none.
func (n *Node) Label() string { return n.label }

// Title returns the label. Top-level dungeons call it a title.
func (n *Node) Title() string { return n.label }

// Name returns the label. Nested regions call it a name.
func (n *Node) Name() string { return n.label }

// Path returns the labels from the root down to and including this node.
func (n *Node) Path() []string { return slices.Clone(n.path) }

// Regions returns the child nodes in source order.
func (n *Node) Regions() []*Node { return slices.Clone(n.children) }

// LocalRooms returns the rooms owned directly by this node, excluding those of
// its descendants.
func (n *Node) LocalRooms() []*Room { return slices.Clone(n.localRooms) }

// Rooms returns every room owned by this node or any descendant: each child's
// rooms in child order, depth-first, followed by this node's local rooms.
func (n *Node) Rooms() []*Room { return slices.Clone(n.rooms()) }

// RoomCount returns len(Rooms()).
func (n *Node) RoomCount() int { return len(n.rooms()) }

// RoomsByKey returns an index of Rooms() by key.
//
// Postcondition: Returns the index, or a *DuplicateKeyError when two rooms
// anywhere below this node share a key.
func (n *Node) RoomsByKey() (map[Key]*Room, error) {
	idx, err := n.roomsByKey()
	if err != nil {
		return nil, err
	}
	return maps.Clone(idx), nil
}

// Room looks up a single room by key.
//
// Postcondition: Returns (room, true, nil) if found, (nil, false, nil) if not,
// or a *DuplicateKeyError if the index cannot be built.
func (n *Node) Room(key Key) (*Room, bool, error) {
	idx, err := n.roomsByKey()
	if err != nil {
		return nil, false, err
	}
	r, ok := idx[key]
	return r, ok, nil
}

// Advisories returns the advisories recorded for this node and its
// descendants, in pre-order.
func (n *Node) Advisories() []Advisory {
	var out []Advisory
	_ = Walk(n, func(node *Node) error {
		out = append(out, node.advisories...)
		return nil
	})
	return out
}

func (n *Node) collectRooms() []*Room {
	var all []*Room
	for _, child := range n.children {
		all = append(all, child.rooms()...)
	}
	return append(all, n.localRooms...)
}

func (n *Node) indexRooms() (map[Key]*Room, error) {
	rooms := n.rooms()
	idx := make(map[Key]*Room, len(rooms))
	for _, r := range rooms {
		if existing, ok := idx[r.key]; ok {
			return nil, &DuplicateKeyError{Key: r.key, First: existing, Second: r}
		}
		idx[r.key] = r
	}
	return idx, nil
}

// Walk calls fn for n and every descendant in pre-order. A non-nil error from
// fn ends the walk and is returned, except ErrStopWalk which ends it silently.
func Walk(n *Node, fn func(*Node) error) error {
	if err := walk(n, fn); err != nil && !errors.Is(err, ErrStopWalk) {
		return err
	}
	return nil
}

func walk(n *Node, fn func(*Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, child := range n.children {
		if err := walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}
