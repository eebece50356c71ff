package render

import (
	"bufio"
	"fmt"
	"io"
	"slices"

	"github.com/cory-johannsen/aeldardin/internal/dungeon"
)

// KeyOrder selects the room order of a rendered key.
type KeyOrder string

// Supported key orders.
const (
	// OrderTraversal lists rooms region by region, as Rooms() returns them.
	OrderTraversal KeyOrder = "traversal"
	// OrderKey lists rooms by natural key order.
	OrderKey KeyOrder = "key"
)

// ValidKeyOrder reports whether o is a supported order.
func ValidKeyOrder(o KeyOrder) bool {
	return o == OrderTraversal || o == OrderKey
}

// orderedRooms returns all rooms in the requested order after checking
// that the room index builds.
func orderedRooms(root *dungeon.Node, order KeyOrder) ([]*dungeon.Room, error) {
	if _, err := root.RoomsByKey(); err != nil {
		return nil, err
	}
	rooms := root.Rooms()
	switch order {
	case OrderTraversal, "":
	case OrderKey:
		slices.SortStableFunc(rooms, func(a, b *dungeon.Room) int { return a.Key().Compare(b.Key()) })
	default:
		return nil, fmt.Errorf("unknown key order %q", order)
	}
	return rooms, nil
}

// WriteKey writes a Markdown key you can run the adventure from: a heading
// per room, its description, and its objects as a bullet list.
//
// Postcondition: Returns nil, a *dungeon.DuplicateKeyError, or a write error.
func WriteKey(w io.Writer, root *dungeon.Node, order KeyOrder) error {
	rooms, err := orderedRooms(root, order)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if root.Title() != "" {
		fmt.Fprintf(bw, "# %s\n\n", root.Title())
	}
	for _, room := range rooms {
		heading := fmt.Sprintf("## %s.", room.Key())
		if room.Name() != "" {
			heading += " " + room.Name()
		}
		fmt.Fprintf(bw, "%s\n\n", heading)

		if room.Description() != "" {
			fmt.Fprintf(bw, "%s\n\n", room.Description())
		}
		for _, item := range room.Objects() {
			fmt.Fprintf(bw, "* %s\n", item.Name)
			if item.Description != "" {
				// A two-space indent continues the list item.
				fmt.Fprintf(bw, "  %s\n", item.Description)
			}
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
