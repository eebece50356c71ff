package scripting

import (
	"context"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/aeldardin/internal/dungeon"
	"github.com/cory-johannsen/aeldardin/internal/stats"
)

// renderHook is the global function every render script must define.
const renderHook = "render"

// Renderer runs render scripts against a dungeon. Each call gets a fresh VM,
// so scripts cannot share state between renders.
type Renderer struct {
	logger    *zap.Logger
	instLimit int
}

// NewRenderer creates a Renderer.
//
// Precondition: logger must be non-nil; instLimit >= 0 (0 = DefaultInstructionLimit).
// Postcondition: Returns a non-nil Renderer.
func NewRenderer(logger *zap.Logger, instLimit int) *Renderer {
	return &Renderer{logger: logger, instLimit: instLimit}
}

// RenderFile reads a script from path and renders root with it.
//
// Postcondition: Returns the rendered text or a non-nil error.
func (r *Renderer) RenderFile(ctx context.Context, path string, root *dungeon.Node) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("scripting: reading script %q: %w", path, err)
	}
	return r.Render(ctx, string(src), root)
}

// Render executes source, then calls its global render(dungeon) with the
// dungeon table and returns the string it produces.
//
// Precondition: root must be non-nil.
// Postcondition: Returns the script's output; or a *dungeon.DuplicateKeyError;
// or an error when the script fails to load, does not define render, raises
// a Lua error, exceeds the instruction limit, or returns a non-string.
func (r *Renderer) Render(ctx context.Context, source string, root *dungeon.Node) (string, error) {
	if _, err := root.RoomsByKey(); err != nil {
		return "", err
	}
	tree := stats.Compute(root)

	L, cancel := NewSandboxedState(ctx, r.instLimit)
	defer cancel()
	defer L.Close()
	RegisterModules(L)

	if err := L.DoString(source); err != nil {
		return "", fmt.Errorf("scripting: loading script: %w", err)
	}

	fn := L.GetGlobal(renderHook)
	if fn.Type() != lua.LTFunction {
		return "", fmt.Errorf("scripting: script does not define %s(dungeon)", renderHook)
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, nodeTable(L, root, tree)); err != nil {
		r.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", renderHook),
			zap.String("dungeon", root.Title()),
			zap.Error(err),
		)
		return "", fmt.Errorf("scripting: running %s: %w", renderHook, err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	out, ok := ret.(lua.LString)
	if !ok {
		return "", fmt.Errorf("scripting: %s returned %s, want string", renderHook, ret.Type())
	}
	return string(out), nil
}
