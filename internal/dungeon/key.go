package dungeon

import (
	"fmt"
	"slices"
	"strconv"
)

// Key identifies a room. Keys are usually numbers in the source data; they are
// kept in their canonical scalar text form so "1" and 1 name the same room.
type Key string

// String returns the key text.
func (k Key) String() string { return string(k) }

// Compare orders keys naturally: two integer keys compare numerically, an
// integer key sorts before a non-integer key, and anything else compares as text.
//
// Postcondition: Returns -1, 0, or +1.
func (k Key) Compare(other Key) int {
	a, aErr := strconv.ParseInt(string(k), 10, 64)
	b, bErr := strconv.ParseInt(string(other), 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	switch {
	case k < other:
		return -1
	case k > other:
		return 1
	}
	return 0
}

// SortKeys sorts keys in place using Compare.
func SortKeys(keys []Key) {
	slices.SortFunc(keys, Key.Compare)
}

// keyOf converts a parsed YAML scalar into a Key.
//
// Postcondition: Returns (key, true) for string, integer, float and bool
// scalars; ("", false) for nil, mappings and sequences.
func keyOf(v any) (Key, bool) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", false
		}
		return Key(t), true
	case int:
		return Key(strconv.Itoa(t)), true
	case int64:
		return Key(strconv.FormatInt(t, 10)), true
	case uint64:
		return Key(strconv.FormatUint(t, 10)), true
	case float64:
		return Key(strconv.FormatFloat(t, 'f', -1, 64)), true
	case bool:
		return Key(strconv.FormatBool(t)), true
	default:
		return "", false
	}
}

// describe names the shape of a parsed value for error messages.
func describe(v any) string {
	switch v.(type) {
	case nil:
		return "nothing"
	case map[string]any, map[any]any:
		return "a mapping"
	case []any:
		return "a sequence"
	default:
		return fmt.Sprintf("scalar %v", v)
	}
}
