package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keepYAML = `
title: Goblin Keep
zones:
  - name: Courtyard
    rooms:
      - key: 1
        name: Gate
        exits: [2]
      - key: 2
        name: Well
        monster: goblins
        exits: [1, {secret: 3}]
  - name: Cellar
    rooms:
      - key: 3
        name: Hoard
        treasure: true
`

func writeFile(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI(t, "")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: aeldardin")

	code, _, stderr = runCLI(t, "", "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `error: unknown command "frobnicate"`)
}

func TestRun_GraphFromStdin(t *testing.T) {
	code, stdout, _ := runCLI(t, keepYAML, "gv")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, `graph "Goblin Keep" {`))
	assert.Contains(t, stdout, `"2" -- "3" [style=dashed];`)
	assert.Equal(t, 2, strings.Count(stdout, " -- "))
}

func TestRun_GraphSecretStyleFlag(t *testing.T) {
	code, stdout, _ := runCLI(t, keepYAML, "gv", "-secret-style", "dotted", "-")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "[style=dotted]")
}

func TestRun_ConfigFile(t *testing.T) {
	cfg := writeFile(t, "aeldardin.yaml", "render:\n  secret_exit_style: bold\n  key_order: key\n")
	code, stdout, _ := runCLI(t, keepYAML, "-config", cfg, "gv")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "[style=bold]")
}

func TestRun_KeyFromFile(t *testing.T) {
	path := writeFile(t, "keep.yaml", keepYAML)
	code, stdout, _ := runCLI(t, "", "key", path)
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, "# Goblin Keep\n\n## 1. Gate\n\n"))
	assert.Contains(t, stdout, "## 3. Hoard\n\n")

	code, _, stderr := runCLI(t, "", "key", "-order", "random", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `error: unknown key order "random"`)
}

func TestRun_HTML(t *testing.T) {
	code, stdout, _ := runCLI(t, keepYAML, "html")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "<h1>Goblin Keep</h1>")
	assert.Contains(t, stdout, "<h2>Cellar</h2>")
}

func TestRun_Stats(t *testing.T) {
	code, stdout, _ := runCLI(t, keepYAML, "stats")
	require.Equal(t, 0, code)
	assert.Equal(t, "Statistics for 'Goblin Keep':\n"+
		"Courtyard:\n"+
		"  2 rooms (1 empty, 1 monster) locally\n"+
		"Cellar:\n"+
		"  1 rooms (1 treasure) locally\n"+
		"3 rooms (1 empty, 1 monster, 1 treasure)\n", stdout)
}

func TestRun_StatsJSON(t *testing.T) {
	code, stdout, _ := runCLI(t, keepYAML, "stats", "-json")
	require.Equal(t, 0, code)
	var tree map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &tree))
	assert.Equal(t, "Goblin Keep", tree["label"])
}

func TestRun_Script(t *testing.T) {
	script := writeFile(t, "title.lua", `function render(d) return "# " .. d.title end`)
	code, stdout, _ := runCLI(t, keepYAML, "script", "-script", script)
	require.Equal(t, 0, code)
	assert.Equal(t, "# Goblin Keep\n", stdout)

	code, _, stderr := runCLI(t, keepYAML, "script")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "-script is required")
}

func TestRun_Validate(t *testing.T) {
	code, stdout, _ := runCLI(t, keepYAML, "validate")
	assert.Equal(t, 0, code)
	assert.Equal(t, "3 rooms OK\n", stdout)

	code, stdout, _ = runCLI(t, `
title: Broken
rooms:
  - {key: 1, exits: [2, 9]}
  - {key: 2}
  - {key: 3}
zones:
  - name: Void
`, "validate", "-start", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "Warning: Broken / Void: Found region with no rooms or regions\n")
	assert.Contains(t, stdout, "Warning: room 1 has an exit to unknown room 9\n")
	assert.Contains(t, stdout, "Warning: room 3 cannot be reached from room 1\n")
	assert.Contains(t, stdout, "2 problems in 3 rooms\n")
}

func TestRun_ValidateUnknownStart(t *testing.T) {
	code, _, stderr := runCLI(t, keepYAML, "validate", "-start", "42")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "error: start room 42 not found")
}

func TestRun_DuplicateKeyFailsEveryCommand(t *testing.T) {
	dup := `
title: Twice
zones:
  - name: A
    rooms: [{key: 7}]
  - name: B
    rooms: [{key: 7}]
`
	for _, cmd := range []string{"gv", "key", "html", "validate", "archive"} {
		code, stdout, stderr := runCLI(t, dup, cmd)
		assert.Equal(t, 1, code, cmd)
		assert.Empty(t, stdout, cmd)
		assert.Contains(t, stderr, "error: unexpected duplicate room 7", cmd)
	}
}

func TestRun_ShapeError(t *testing.T) {
	code, _, stderr := runCLI(t, "title: Bad\nrooms: 5\n", "stats")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "error: loading dungeon: unexpected shape at rooms: want a sequence")
}

func TestRun_MissingFile(t *testing.T) {
	code, _, stderr := runCLI(t, "", "gv", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "error: reading dungeon file")
}

func TestRun_TooManyFiles(t *testing.T) {
	code, _, stderr := runCLI(t, "", "html", "a.yaml", "b.yaml")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "expected at most one dungeon file")
}
