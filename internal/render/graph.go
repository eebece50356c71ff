// Package render turns a loaded dungeon into its derived outputs: the
// connectivity graph, the Markdown key and the HTML key.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"github.com/cory-johannsen/aeldardin/internal/dungeon"
)

// GraphNode is one room in the connectivity graph.
type GraphNode struct {
	ID    dungeon.Key
	Label string
	Types dungeon.TypeSet
}

// GraphEdge connects two rooms. Exits are drawn undirected, so an exit and
// its return exit produce one edge. Tag carries the exit qualifier, if any.
type GraphEdge struct {
	From dungeon.Key
	To   dungeon.Key
	Tag  string
}

// Graph is the room connectivity of a dungeon.
type Graph struct {
	Title string
	Nodes []GraphNode
	Edges []GraphEdge
}

type edgeKey struct{ a, b dungeon.Key }

func newEdgeKey(a, b dungeon.Key) edgeKey {
	if b.Compare(a) < 0 {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// BuildGraph collects one node per room and one edge per connected pair.
// An untagged exit wins over a tagged one between the same pair.
//
// Postcondition: Returns the graph, or a *dungeon.DuplicateKeyError.
func BuildGraph(root *dungeon.Node) (*Graph, error) {
	if _, err := root.RoomsByKey(); err != nil {
		return nil, err
	}
	g := &Graph{Title: root.Title()}
	edgeIndex := make(map[edgeKey]int)

	for _, room := range root.Rooms() {
		g.Nodes = append(g.Nodes, GraphNode{ID: room.Key(), Label: room.DisplayName(), Types: room.Types()})
		for _, exit := range room.Exits() {
			k := newEdgeKey(room.Key(), exit.Target)
			if i, seen := edgeIndex[k]; seen {
				if !exit.Tagged() {
					g.Edges[i].Tag = ""
				}
				continue
			}
			edgeIndex[k] = len(g.Edges)
			g.Edges = append(g.Edges, GraphEdge{From: room.Key(), To: exit.Target, Tag: exit.Tag})
		}
	}
	return g, nil
}

// DotOptions controls Graphviz output.
type DotOptions struct {
	// TaggedStyle is the Graphviz edge style for tagged exits: "dashed",
	// "dotted", "bold" or "solid". Empty means "solid".
	TaggedStyle string
}

// WriteDot writes g as an undirected Graphviz graph.
//
// Postcondition: Returns the first write error, if any.
func WriteDot(w io.Writer, g *Graph, opts DotOptions) error {
	var b strings.Builder
	fmt.Fprintf(&b, "graph %s {\n", strconv.Quote(g.Title))
	for _, n := range g.Nodes {
		label := n.Label
		if label != string(n.ID) {
			label = fmt.Sprintf("%s. %s", n.ID, n.Label)
		}
		fmt.Fprintf(&b, "  %s [label=%s];\n", strconv.Quote(string(n.ID)), strconv.Quote(label))
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %s -- %s", strconv.Quote(string(e.From)), strconv.Quote(string(e.To)))
		if e.Tag != "" && opts.TaggedStyle != "" && opts.TaggedStyle != "solid" {
			fmt.Fprintf(&b, " [style=%s]", opts.TaggedStyle)
		}
		b.WriteString(";\n")
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// DanglingExit is an exit whose target key names no room.
type DanglingExit struct {
	From dungeon.Key
	Exit dungeon.Exit
}

// DanglingExits lists exits targeting unknown rooms, in room order.
//
// Postcondition: Returns the list (possibly empty), or a *dungeon.DuplicateKeyError.
func DanglingExits(root *dungeon.Node) ([]DanglingExit, error) {
	idx, err := root.RoomsByKey()
	if err != nil {
		return nil, err
	}
	var out []DanglingExit
	for _, room := range root.Rooms() {
		for _, exit := range room.Exits() {
			if _, ok := idx[exit.Target]; !ok {
				out = append(out, DanglingExit{From: room.Key(), Exit: exit})
			}
		}
	}
	return out, nil
}

// Unreachable lists the rooms that cannot be reached from start by following
// exits in either direction, in room order.
//
// Precondition: start should name an existing room.
// Postcondition: Returns the keys, or an error when start is unknown or the
// room index cannot be built.
func Unreachable(root *dungeon.Node, start dungeon.Key) ([]dungeon.Key, error) {
	idx, err := root.RoomsByKey()
	if err != nil {
		return nil, err
	}
	if _, ok := idx[start]; !ok {
		return nil, fmt.Errorf("start room %s not found", start)
	}

	adjacent := make(map[dungeon.Key][]dungeon.Key)
	for _, room := range root.Rooms() {
		for _, exit := range room.Exits() {
			if _, ok := idx[exit.Target]; !ok {
				continue
			}
			adjacent[room.Key()] = append(adjacent[room.Key()], exit.Target)
			adjacent[exit.Target] = append(adjacent[exit.Target], room.Key())
		}
	}

	visited := mapset.New[dungeon.Key]()
	visited.Put(start)
	queue := []dungeon.Key{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adjacent[cur] {
			if visited.Has(next) {
				continue
			}
			visited.Put(next)
			queue = append(queue, next)
		}
	}

	var out []dungeon.Key
	for _, room := range root.Rooms() {
		if !visited.Has(room.Key()) {
			out = append(out, room.Key())
		}
	}
	return out, nil
}
