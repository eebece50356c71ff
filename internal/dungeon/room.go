package dungeon

import (
	"fmt"
	"slices"
	"strings"
)

// TypeTag classifies a room's role in the adventure design.
type TypeTag string

// The fixed room-type vocabulary. A room carries a tag when the tag's name is
// present as a key on the room's data, whatever its value.
const (
	Monster  TypeTag = "monster"
	Treasure TypeTag = "treasure"
	Special  TypeTag = "special"
	Trick    TypeTag = "trick"
	Trap     TypeTag = "trap"
)

// TypeTags lists the vocabulary in canonical display order.
var TypeTags = []TypeTag{Monster, Treasure, Special, Trick, Trap}

// emptyTypeName is the display name of a room with no type tags.
const emptyTypeName = "empty"

// TypeSet is an unordered set of TypeTags. It is a comparable value whose
// identity ignores the order tags were found in, so it is safe as a map key.
type TypeSet uint8

// NewTypeSet returns the set holding the given tags.
//
// Precondition: every tag must be a member of TypeTags; unknown tags are ignored.
func NewTypeSet(tags ...TypeTag) TypeSet {
	var s TypeSet
	for _, t := range tags {
		s = s.With(t)
	}
	return s
}

func tagBit(t TypeTag) TypeSet {
	i := slices.Index(TypeTags, t)
	if i < 0 {
		return 0
	}
	return 1 << i
}

// With returns s plus t.
func (s TypeSet) With(t TypeTag) TypeSet { return s | tagBit(t) }

// Has reports whether t is in s.
func (s TypeSet) Has(t TypeTag) bool {
	bit := tagBit(t)
	return bit != 0 && s&bit != 0
}

// IsEmpty reports whether s carries no tags.
func (s TypeSet) IsEmpty() bool { return s == 0 }

// Len returns the number of tags in s.
func (s TypeSet) Len() int {
	n := 0
	for _, t := range TypeTags {
		if s.Has(t) {
			n++
		}
	}
	return n
}

// Tags returns the members of s in canonical order.
func (s TypeSet) Tags() []TypeTag {
	var tags []TypeTag
	for _, t := range TypeTags {
		if s.Has(t) {
			tags = append(tags, t)
		}
	}
	return tags
}

// String joins the tags with "+" in canonical order, or returns "empty".
func (s TypeSet) String() string {
	if s.IsEmpty() {
		return emptyTypeName
	}
	names := make([]string, 0, len(TypeTags))
	for _, t := range s.Tags() {
		names = append(names, string(t))
	}
	return strings.Join(names, "+")
}

// MarshalText encodes s as its String form.
func (s TypeSet) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes the String form, in any tag order.
func (s *TypeSet) UnmarshalText(text []byte) error {
	parsed, err := ParseTypeSet(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseTypeSet parses "empty" or tags joined with "+".
//
// Postcondition: Returns the set, or an error naming the first unknown tag.
func ParseTypeSet(text string) (TypeSet, error) {
	if text == emptyTypeName || text == "" {
		return 0, nil
	}
	var s TypeSet
	for _, part := range strings.Split(text, "+") {
		tag := TypeTag(strings.TrimSpace(part))
		if tagBit(tag) == 0 {
			return 0, fmt.Errorf("unknown room type %q", part)
		}
		s = s.With(tag)
	}
	return s, nil
}

// Exit is a connection from a room to a destination key. Tag is empty for
// ordinary exits and names the qualifier (e.g. "secret") for tagged exits.
type Exit struct {
	Target Key
	Tag    string
}

// Tagged reports whether the exit carried a qualifier in the source.
func (e Exit) Tagged() bool { return e.Tag != "" }

// Item is an object placed in a room. An empty Description means none was given.
type Item struct {
	Name        string
	Description string
}

// Room is an immutable view over one room of the dungeon.
type Room struct {
	key         Key
	name        string
	description string
	exits       []Exit
	objects     []Item
	types       TypeSet
	region      []string
}

// Key returns the room's identifier.
func (r *Room) Key() Key { return r.key }

// Name returns the room's display label, or "" when none was given.
func (r *Room) Name() string { return r.name }

// DisplayName returns the name, falling back to the key.
//
// Postcondition: Returns a non-empty string.
func (r *Room) DisplayName() string {
	if r.name == "" {
		return string(r.key)
	}
	return r.name
}

// Description returns the narrative text, or "" when none was given.
func (r *Room) Description() string { return r.description }

// Exits returns the room's exits in source order.
func (r *Room) Exits() []Exit { return slices.Clone(r.exits) }

// Objects returns the room's items in source order.
func (r *Room) Objects() []Item { return slices.Clone(r.objects) }

// Types returns the room's type tags.
func (r *Room) Types() TypeSet { return r.types }

// RegionPath returns the labels of the nodes from the root down to the one
// owning this room. The root label is included.
func (r *Room) RegionPath() []string { return slices.Clone(r.region) }

func (r *Room) String() string {
	return fmt.Sprintf("room %s (%q in %s)", r.key, r.name, strings.Join(r.region, " / "))
}
