package scripting_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/aeldardin/internal/dungeon"
	"github.com/cory-johannsen/aeldardin/internal/scripting"
)

const dungeonYAML = `
title: Test
zones:
  - name: Z1
    regions:
      - name: R1
        rooms:
          - key: 1
            name: Hall
            exits: [2, {secret: 2}]
            objects: [{item: a chest, description: locked}]
          - key: 2
            monster: true
            treasure: true
`

const listScript = `
function render(d)
  local out = {d.title}
  local function visit(node, depth)
    for _, room in ipairs(node.rooms) do
      local exits = {}
      for _, e in ipairs(room.exits) do
        table.insert(exits, e.target .. (e.tag and ("(" .. e.tag .. ")") or ""))
      end
      table.insert(out, string.rep(" ", depth) .. room.key .. " " .. room.display_name .. " [" .. room.type .. "] -> " .. table.concat(exits, ","))
    end
    for _, child in ipairs(node.regions) do
      table.insert(out, string.rep(" ", depth) .. child.name .. ": " .. child.stats.aggregate.all_rooms)
      visit(child, depth + 1)
    end
  end
  visit(d, 0)
  return table.concat(out, "\n")
end
`

func loadDungeon(t *testing.T, text string) *dungeon.Node {
	t.Helper()
	root, err := dungeon.NewLoader(zap.NewNop()).LoadBytes([]byte(text))
	require.NoError(t, err)
	return root
}

func TestRenderer_Render(t *testing.T) {
	r := scripting.NewRenderer(zap.NewNop(), 0)
	out, err := r.Render(context.Background(), listScript, loadDungeon(t, dungeonYAML))
	require.NoError(t, err)
	assert.Equal(t, "Test\n"+
		"Z1: 2\n"+
		" R1: 2\n"+
		"  1 Hall [empty] -> 2,2(secret)\n"+
		"  2 2 [monster+treasure] -> ", out)
}

func TestRenderer_StatsByType(t *testing.T) {
	r := scripting.NewRenderer(zap.NewNop(), 0)
	out, err := r.Render(context.Background(), `
function render(d)
  return tostring(d.stats.aggregate.by_type["monster+treasure"]) .. "/" .. tostring(d.stats["local"].all_rooms)
end`, loadDungeon(t, dungeonYAML))
	require.NoError(t, err)
	assert.Equal(t, "1/0", out)
}

func TestRenderer_RenderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "title.lua")
	require.NoError(t, os.WriteFile(path, []byte(`function render(d) return "# " .. d.title end`), 0644))

	r := scripting.NewRenderer(zap.NewNop(), 0)
	out, err := r.RenderFile(context.Background(), path, loadDungeon(t, dungeonYAML))
	require.NoError(t, err)
	assert.Equal(t, "# Test", out)

	_, err = r.RenderFile(context.Background(), "/nonexistent/script.lua", loadDungeon(t, dungeonYAML))
	assert.Error(t, err)
}

func TestRenderer_Errors(t *testing.T) {
	root := loadDungeon(t, dungeonYAML)
	cases := map[string]string{
		"syntax error":     `function render(d`,
		"no render hook":   `local x = 1`,
		"non-string value": `function render(d) return 42 end`,
		"infinite loop":    `function render(d) while true do end end`,
	}
	r := scripting.NewRenderer(zap.NewNop(), 1000)
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := r.Render(context.Background(), src, root)
			assert.Error(t, err)
		})
	}
}

func TestRenderer_RuntimeErrorLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := scripting.NewRenderer(zap.New(core), 0)
	_, err := r.Render(context.Background(), `function render(d) error("boom") end`, loadDungeon(t, dungeonYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, logs.Len())
}

func TestRenderer_DuplicateKey(t *testing.T) {
	root := loadDungeon(t, `
title: Twice
rooms: [{key: 1}, {key: 1}]
`)
	r := scripting.NewRenderer(zap.NewNop(), 0)
	_, err := r.Render(context.Background(), `function render(d) return "" end`, root)
	var dup *dungeon.DuplicateKeyError
	assert.True(t, errors.As(err, &dup))
}
