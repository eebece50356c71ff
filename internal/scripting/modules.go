package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/aeldardin/internal/dungeon"
	"github.com/cory-johannsen/aeldardin/internal/stats"
)

// RegisterModules registers the aeldardin helper table into L:
//
//	aeldardin.type_tags          the room-type vocabulary, in display order
//	aeldardin.compare_keys(a, b) natural key order: -1, 0 or 1
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: aeldardin global is defined in L.
func RegisterModules(L *lua.LState) {
	mod := L.NewTable()

	tags := L.NewTable()
	for _, tag := range dungeon.TypeTags {
		tags.Append(lua.LString(tag))
	}
	mod.RawSetString("type_tags", tags)

	mod.RawSetString("compare_keys", L.NewFunction(func(L *lua.LState) int {
		a := dungeon.Key(L.CheckString(1))
		b := dungeon.Key(L.CheckString(2))
		L.Push(lua.LNumber(a.Compare(b)))
		return 1
	}))

	L.SetGlobal("aeldardin", mod)
}

// nodeTable converts n into the table scripts receive. Each node table holds
// label (also as title and name), path, rooms (local), regions and stats.
func nodeTable(L *lua.LState, n *dungeon.Node, tree *stats.Tree) *lua.LTable {
	t := L.NewTable()
	setString(t, "label", n.Label())
	setString(t, "title", n.Title())
	setString(t, "name", n.Name())
	t.RawSetString("path", stringList(L, n.Path()))

	rooms := L.NewTable()
	for _, r := range n.LocalRooms() {
		rooms.Append(roomTable(L, r))
	}
	t.RawSetString("rooms", rooms)

	regions := L.NewTable()
	for i, child := range n.Regions() {
		regions.Append(nodeTable(L, child, tree.Regions[i]))
	}
	t.RawSetString("regions", regions)

	st := L.NewTable()
	st.RawSetString("local", countsTable(L, tree.Local))
	st.RawSetString("aggregate", countsTable(L, tree.Aggregate))
	t.RawSetString("stats", st)
	return t
}

func roomTable(L *lua.LState, r *dungeon.Room) *lua.LTable {
	t := L.NewTable()
	setString(t, "key", string(r.Key()))
	setString(t, "name", r.Name())
	setString(t, "display_name", r.DisplayName())
	setString(t, "description", r.Description())
	setString(t, "type", r.Types().String())

	types := L.NewTable()
	for _, tag := range r.Types().Tags() {
		types.Append(lua.LString(tag))
	}
	t.RawSetString("types", types)

	exits := L.NewTable()
	for _, e := range r.Exits() {
		et := L.NewTable()
		setString(et, "target", string(e.Target))
		setString(et, "tag", e.Tag)
		exits.Append(et)
	}
	t.RawSetString("exits", exits)

	objects := L.NewTable()
	for _, item := range r.Objects() {
		ot := L.NewTable()
		setString(ot, "item", item.Name)
		setString(ot, "description", item.Description)
		objects.Append(ot)
	}
	t.RawSetString("objects", objects)
	return t
}

func countsTable(L *lua.LState, c stats.Counts) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("all_rooms", lua.LNumber(c.AllRooms))
	byType := L.NewTable()
	for _, s := range c.Types() {
		byType.RawSetString(s.String(), lua.LNumber(c.Of(s)))
	}
	t.RawSetString("by_type", byType)
	return t
}

func stringList(L *lua.LState, items []string) *lua.LTable {
	t := L.NewTable()
	for _, s := range items {
		t.Append(lua.LString(s))
	}
	return t
}

// setString leaves the field nil when s is empty.
func setString(t *lua.LTable, field, s string) {
	if s != "" {
		t.RawSetString(field, lua.LString(s))
	}
}
