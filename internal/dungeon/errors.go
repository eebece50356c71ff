package dungeon

import (
	"fmt"
	"strings"
)

// DuplicateKeyError reports two rooms sharing a key anywhere in the dungeon.
// It is a structural defect of the source data and aborts any query that
// needs the room index.
type DuplicateKeyError struct {
	Key    Key
	First  *Room
	Second *Room
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("unexpected duplicate room %s: %s conflicts with %s", e.Key, e.First, e.Second)
}

// ShapeError reports a value whose shape the model cannot interpret, such as a
// room without a key or an exit that is neither a scalar nor a one-entry mapping.
type ShapeError struct {
	// Path locates the offending value, e.g. "zones[0].regions[1].rooms[3].exits[0]".
	Path string
	// Want describes the accepted shapes.
	Want string
	// Got describes what was found.
	Got string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unexpected shape at %s: want %s, got %s", e.Path, e.Want, e.Got)
}

// Advisory is a non-fatal observation made while loading. It never changes
// what the model contains.
type Advisory struct {
	// Path holds the labels from the root to the node concerned.
	Path    []string
	Message string
}

func (a Advisory) String() string {
	return fmt.Sprintf("%s: %s", strings.Join(a.Path, " / "), a.Message)
}
