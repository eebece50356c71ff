package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/aeldardin/internal/dungeon"
)

const vaultYAML = `
title: The Sunless Vault
zones:
  - name: Upper Halls
    regions:
      - name: Gatehouse
        rooms:
          - key: 1
            name: Portcullis
            description: A rusted gate bars the way.
            exits: [2, {secret: 5}]
            objects:
              - a sword
              - item: a chest
                description: locked
          - key: 2
            name: Guard Room
            monster: goblins
            exits: [1, 3]
      - name: Barracks
        rooms:
          - key: 3
            exits: [2, 7]
  - name: Depths
    rooms:
      - key: 5
        exits: [{secret: 1}]
      - key: 6
`

const duplicateYAML = `
title: Twice
zones:
  - name: A
    rooms: [{key: 1}]
  - name: B
    rooms: [{key: 1}]
`

func load(t *testing.T, text string) *dungeon.Node {
	t.Helper()
	root, err := dungeon.NewLoader(zap.NewNop()).LoadBytes([]byte(text))
	require.NoError(t, err)
	return root
}

func TestBuildGraph(t *testing.T) {
	g, err := BuildGraph(load(t, vaultYAML))
	require.NoError(t, err)

	assert.Equal(t, "The Sunless Vault", g.Title)
	assert.Len(t, g.Nodes, 5)
	assert.Equal(t, []GraphEdge{
		{From: "1", To: "2"},
		{From: "1", To: "5", Tag: "secret"},
		{From: "2", To: "3"},
		{From: "3", To: "7"},
	}, g.Edges)
}

func TestBuildGraph_UntaggedWins(t *testing.T) {
	g, err := BuildGraph(load(t, `
title: Mixed
rooms:
  - {key: 1, exits: [{secret: 2}]}
  - {key: 2, exits: [1]}
`))
	require.NoError(t, err)
	require.Len(t, g.Edges, 1)
	assert.Empty(t, g.Edges[0].Tag)
}

func TestWriteDot(t *testing.T) {
	g, err := BuildGraph(load(t, vaultYAML))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDot(&buf, g, DotOptions{TaggedStyle: "dashed"}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `graph "The Sunless Vault" {`))
	assert.Contains(t, out, `"1" [label="1. Portcullis"];`)
	assert.Contains(t, out, `"6" [label="6"];`)
	assert.Contains(t, out, `"1" -- "2";`)
	assert.Contains(t, out, `"1" -- "5" [style=dashed];`)
	assert.Equal(t, 4, strings.Count(out, " -- "))
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestWriteDot_SolidTagged(t *testing.T) {
	g, err := BuildGraph(load(t, vaultYAML))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteDot(&buf, g, DotOptions{TaggedStyle: "solid"}))
	assert.NotContains(t, buf.String(), "style=")
}

func TestDanglingExits(t *testing.T) {
	dangling, err := DanglingExits(load(t, vaultYAML))
	require.NoError(t, err)
	assert.Equal(t, []DanglingExit{{From: "3", Exit: dungeon.Exit{Target: "7"}}}, dangling)
}

func TestUnreachable(t *testing.T) {
	root := load(t, vaultYAML)
	keys, err := Unreachable(root, "1")
	require.NoError(t, err)
	assert.Equal(t, []dungeon.Key{"6"}, keys)

	_, err = Unreachable(root, "42")
	assert.Error(t, err)
}

func TestRenderers_DuplicateKeyAborts(t *testing.T) {
	root := load(t, duplicateYAML)
	var dup *dungeon.DuplicateKeyError

	_, err := BuildGraph(root)
	assert.True(t, errors.As(err, &dup))
	err = WriteKey(&bytes.Buffer{}, root, OrderTraversal)
	assert.True(t, errors.As(err, &dup))
	err = WriteHTML(&bytes.Buffer{}, root)
	assert.True(t, errors.As(err, &dup))
	_, err = DanglingExits(root)
	assert.True(t, errors.As(err, &dup))
}

func TestWriteKey(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteKey(&buf, load(t, vaultYAML), OrderTraversal))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# The Sunless Vault\n\n## 1. Portcullis\n\nA rusted gate bars the way.\n\n* a sword\n* a chest\n  locked\n\n"))
	assert.Contains(t, out, "## 2. Guard Room\n\n")
	assert.Contains(t, out, "## 6.\n\n")
}

func TestWriteKey_Order(t *testing.T) {
	text := `
title: Shuffled
rooms:
  - {key: 10}
  - {key: 2}
  - {key: 1}
`
	headings := func(out string) []string {
		var hs []string
		for _, line := range strings.Split(out, "\n") {
			if strings.HasPrefix(line, "## ") {
				hs = append(hs, line)
			}
		}
		return hs
	}

	var traversal, byKey bytes.Buffer
	require.NoError(t, WriteKey(&traversal, load(t, text), OrderTraversal))
	require.NoError(t, WriteKey(&byKey, load(t, text), OrderKey))
	assert.Equal(t, []string{"## 10.", "## 2.", "## 1."}, headings(traversal.String()))
	assert.Equal(t, []string{"## 1.", "## 2.", "## 10."}, headings(byKey.String()))

	assert.Error(t, WriteKey(&bytes.Buffer{}, load(t, text), KeyOrder("random")))
	assert.True(t, ValidKeyOrder(OrderKey))
	assert.False(t, ValidKeyOrder("random"))
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, load(t, vaultYAML)))
	out := buf.String()

	assert.Contains(t, out, "<h1>The Sunless Vault</h1>")
	assert.Contains(t, out, "<h2>Upper Halls</h2>")
	assert.Contains(t, out, "<h3>Gatehouse</h3>")
	assert.Contains(t, out, "<h4>1. Portcullis</h4>")
	assert.Contains(t, out, "<li>a chest<br>locked</li>")
	assert.Contains(t, out, `<a href="#room-5">5</a> (secret)`)
	assert.Equal(t, 4, strings.Count(out, "<section>"))
}

func TestWriteHTML_EscapesText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, load(t, `
title: "<script>"
rooms:
  - {key: 1, name: "Tom & Jerry"}
`)))
	assert.NotContains(t, buf.String(), "<script>")
	assert.Contains(t, buf.String(), "Tom &amp; Jerry")
}

func TestPropertyGraphEdgesAreUniquePairs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(t, "rooms")
		var rooms []any
		for i := 1; i <= n; i++ {
			var exits []any
			for j := rapid.IntRange(0, 4).Draw(t, "exits"); j > 0; j-- {
				exits = append(exits, rapid.IntRange(1, n).Draw(t, "target"))
			}
			rooms = append(rooms, map[string]any{"key": i, "exits": exits})
		}
		root, err := dungeon.Load(map[string]any{"title": "gen", "rooms": rooms})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		g, err := BuildGraph(root)
		if err != nil {
			t.Fatalf("BuildGraph: %v", err)
		}
		seen := map[edgeKey]bool{}
		for _, e := range g.Edges {
			k := newEdgeKey(e.From, e.To)
			if seen[k] {
				t.Fatalf("edge %s -- %s emitted twice", e.From, e.To)
			}
			seen[k] = true
		}
		unreachable, err := Unreachable(root, "1")
		if err != nil {
			t.Fatalf("Unreachable: %v", err)
		}
		for _, key := range unreachable {
			if seen[newEdgeKey("1", key)] {
				t.Fatalf("room %s is adjacent to the start but reported unreachable", key)
			}
		}
	})
}
