package stats

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/aeldardin/internal/dungeon"
)

// indentStep is added per nesting level.
const indentStep = "  "

// Format renders the tree as indented lines. Each child region contributes a
// "<label>:" header followed by its own lines one level deeper. A node's
// local line appears only when it owns rooms, and its aggregate line only
// when descendants add rooms beyond the local ones.
func Format(t *Tree) []string {
	return formatTree(t, "")
}

func formatTree(t *Tree, indent string) []string {
	var lines []string
	for _, child := range t.Regions {
		lines = append(lines, fmt.Sprintf("%s%s:", indent, child.Label))
		lines = append(lines, formatTree(child, indent+indentStep)...)
	}
	if t.ShowLocal() {
		lines = append(lines, fmt.Sprintf("%s%s locally", indent, FormatCounts(t.Local)))
	}
	if t.ShowAggregate() {
		lines = append(lines, indent+FormatCounts(t.Aggregate))
	}
	return lines
}

// FormatCounts renders a total with its per-type breakdown, e.g.
// "17 rooms (3 empty, 12 monster, 2 monster+treasure)".
func FormatCounts(c Counts) string {
	types := c.Types()
	if len(types) == 0 {
		return fmt.Sprintf("%d rooms", c.AllRooms)
	}
	parts := make([]string, 0, len(types))
	for _, s := range types {
		parts = append(parts, fmt.Sprintf("%d %s", c.Of(s), s))
	}
	return fmt.Sprintf("%d rooms (%s)", c.AllRooms, strings.Join(parts, ", "))
}

// Report renders the full statistics listing for a dungeon, headed by its title.
func Report(root *dungeon.Node) string {
	lines := append([]string{fmt.Sprintf("Statistics for '%s':", root.Title())}, Format(Compute(root))...)
	return strings.Join(lines, "\n") + "\n"
}
