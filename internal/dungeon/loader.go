package dungeon

import (
	"fmt"
	"io"
	"os"
	"slices"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Field names of the dungeon notation. zones and regions are historical
// aliases for the same child relation; both are read and merged.
const (
	fieldTitle       = "title"
	fieldName        = "name"
	fieldZones       = "zones"
	fieldRegions     = "regions"
	fieldRooms       = "rooms"
	fieldKey         = "key"
	fieldDescription = "description"
	fieldExits       = "exits"
	fieldObjects     = "objects"
	fieldItem        = "item"
)

// childFields lists the child-container aliases in merge order.
var childFields = []string{fieldZones, fieldRegions}

const noContainerAdvisory = "Found region with no rooms or regions"

// Load builds the dungeon tree from a generic parsed value, as produced by
// decoding YAML into an empty interface.
//
// Precondition: raw must be a mapping (map[string]any or map[any]any).
// Postcondition: Returns the root Node, or a *ShapeError locating the first
// value the model cannot interpret.
func Load(raw any) (*Node, error) {
	m, ok := asMapping(raw)
	if !ok {
		return nil, &ShapeError{Path: "dungeon", Want: "a mapping", Got: describe(raw)}
	}
	return buildNode(m, nil, "", true)
}

// Loader decodes dungeon YAML and reports load advisories to a logger.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a Loader.
//
// Precondition: logger must be non-nil.
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadFile reads and loads a dungeon YAML file.
//
// Postcondition: Returns the root Node or a non-nil error.
func (l *Loader) LoadFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dungeon file %s: %w", path, err)
	}
	return l.LoadBytes(data)
}

// LoadReader reads the whole of r and loads it. Input is not streamed.
//
// Postcondition: Returns the root Node or a non-nil error.
func (l *Loader) LoadReader(r io.Reader) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading dungeon: %w", err)
	}
	return l.LoadBytes(data)
}

// LoadBytes parses YAML bytes and loads the result. Every advisory is logged
// at Warn level; advisories do not fail the load.
//
// Postcondition: Returns the root Node or a non-nil error.
func (l *Loader) LoadBytes(data []byte) (*Node, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing dungeon YAML: %w", err)
	}
	root, err := Load(raw)
	if err != nil {
		return nil, fmt.Errorf("loading dungeon: %w", err)
	}
	for _, a := range root.Advisories() {
		l.logger.Warn(a.Message, zap.Strings("path", a.Path))
	}
	l.logger.Debug("dungeon loaded",
		zap.String("title", root.Title()),
		zap.Int("regions", len(root.children)),
		zap.Int("rooms", root.RoomCount()),
	)
	return root, nil
}

func buildNode(m map[string]any, parent []string, at string, root bool) (*Node, error) {
	label, err := optionalString(m, fieldTitle, at)
	if err != nil {
		return nil, err
	}
	if label == "" {
		if label, err = optionalString(m, fieldName, at); err != nil {
			return nil, err
		}
	}
	path := append(slices.Clone(parent), label)
	n := newNode(label, path)

	hasContainer := false
	for _, field := range childFields {
		if _, ok := m[field]; ok {
			hasContainer = true
		}
		entries, err := sequence(m[field], join(at, field))
		if err != nil {
			return nil, err
		}
		for i, entry := range entries {
			if entry == nil {
				continue
			}
			entryAt := fmt.Sprintf("%s[%d]", join(at, field), i)
			em, ok := asMapping(entry)
			if !ok {
				return nil, &ShapeError{Path: entryAt, Want: "a region mapping", Got: describe(entry)}
			}
			// Older keys list rooms directly inside a regions container.
			if _, isRoom := em[fieldKey]; isRoom {
				room, err := buildRoom(em, path, entryAt)
				if err != nil {
					return nil, err
				}
				n.localRooms = append(n.localRooms, room)
				continue
			}
			child, err := buildNode(em, path, entryAt, false)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
		}
	}

	if _, ok := m[fieldRooms]; ok {
		hasContainer = true
	}
	entries, err := sequence(m[fieldRooms], join(at, fieldRooms))
	if err != nil {
		return nil, err
	}
	for i, entry := range entries {
		if entry == nil {
			continue
		}
		entryAt := fmt.Sprintf("%s[%d]", join(at, fieldRooms), i)
		em, ok := asMapping(entry)
		if !ok {
			return nil, &ShapeError{Path: entryAt, Want: "a room mapping", Got: describe(entry)}
		}
		room, err := buildRoom(em, path, entryAt)
		if err != nil {
			return nil, err
		}
		n.localRooms = append(n.localRooms, room)
	}

	if !root && !hasContainer {
		n.advisories = append(n.advisories, Advisory{Path: slices.Clone(path), Message: noContainerAdvisory})
	}
	return n, nil
}

func buildRoom(m map[string]any, region []string, at string) (*Room, error) {
	key, ok := keyOf(m[fieldKey])
	if !ok {
		return nil, &ShapeError{Path: join(at, fieldKey), Want: "a scalar room key", Got: describe(m[fieldKey])}
	}
	r := &Room{key: key, region: slices.Clone(region)}

	var err error
	if r.name, err = optionalString(m, fieldName, at); err != nil {
		return nil, err
	}
	if r.description, err = optionalString(m, fieldDescription, at); err != nil {
		return nil, err
	}

	exits, err := sequence(m[fieldExits], join(at, fieldExits))
	if err != nil {
		return nil, err
	}
	for i, raw := range exits {
		exit, err := buildExit(raw, fmt.Sprintf("%s[%d]", join(at, fieldExits), i))
		if err != nil {
			return nil, err
		}
		r.exits = append(r.exits, exit)
	}

	objects, err := sequence(m[fieldObjects], join(at, fieldObjects))
	if err != nil {
		return nil, err
	}
	for i, raw := range objects {
		item, err := buildItem(raw, fmt.Sprintf("%s[%d]", join(at, fieldObjects), i))
		if err != nil {
			return nil, err
		}
		r.objects = append(r.objects, item)
	}

	for _, tag := range TypeTags {
		if _, ok := m[string(tag)]; ok {
			r.types = r.types.With(tag)
		}
	}
	return r, nil
}

// buildExit accepts a bare key, or a one-entry mapping {tag: key}.
func buildExit(raw any, at string) (Exit, error) {
	const want = "an exit key or a one-entry {tag: key} mapping"
	if m, ok := asMapping(raw); ok {
		if len(m) != 1 {
			return Exit{}, &ShapeError{Path: at, Want: want, Got: fmt.Sprintf("a mapping with %d entries", len(m))}
		}
		for tag, target := range m {
			key, ok := keyOf(target)
			if !ok {
				return Exit{}, &ShapeError{Path: join(at, tag), Want: "a scalar exit key", Got: describe(target)}
			}
			return Exit{Target: key, Tag: tag}, nil
		}
	}
	key, ok := keyOf(raw)
	if !ok {
		return Exit{}, &ShapeError{Path: at, Want: want, Got: describe(raw)}
	}
	return Exit{Target: key}, nil
}

// buildItem accepts a bare string, or an {item, description} mapping.
func buildItem(raw any, at string) (Item, error) {
	if s, ok := raw.(string); ok {
		return Item{Name: s}, nil
	}
	m, ok := asMapping(raw)
	if !ok {
		return Item{}, &ShapeError{Path: at, Want: "an item string or an {item, description} mapping", Got: describe(raw)}
	}
	name, err := optionalString(m, fieldItem, at)
	if err != nil {
		return Item{}, err
	}
	if name == "" {
		return Item{}, &ShapeError{Path: join(at, fieldItem), Want: "an item name", Got: describe(m[fieldItem])}
	}
	desc, err := optionalString(m, fieldDescription, at)
	if err != nil {
		return Item{}, err
	}
	return Item{Name: name, Description: desc}, nil
}

func asMapping(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func sequence(v any, at string) ([]any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return t, nil
	default:
		return nil, &ShapeError{Path: at, Want: "a sequence", Got: describe(v)}
	}
}

// optionalString reads a scalar field as text; absent and null read as "".
func optionalString(m map[string]any, field, at string) (string, error) {
	v, ok := m[field]
	if !ok || v == nil {
		return "", nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	key, ok := keyOf(v)
	if !ok {
		return "", &ShapeError{Path: join(at, field), Want: "a string", Got: describe(v)}
	}
	return string(key), nil
}

func join(at, field string) string {
	if at == "" {
		return field
	}
	return at + "." + field
}
