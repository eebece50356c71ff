// Package main provides the aeldardin binary, which renders and checks
// dungeons described in YAML.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/aeldardin/internal/config"
	"github.com/cory-johannsen/aeldardin/internal/dungeon"
	"github.com/cory-johannsen/aeldardin/internal/observability"
	"github.com/cory-johannsen/aeldardin/internal/render"
	"github.com/cory-johannsen/aeldardin/internal/scripting"
	"github.com/cory-johannsen/aeldardin/internal/stats"
	"github.com/cory-johannsen/aeldardin/internal/storage/postgres"
)

const usage = `usage: aeldardin [-config file] <command> [flags] [dungeon.yaml]

commands:
  gv        write the room graph in Graphviz dot format
  key       write the Markdown key
  html      write the HTML key
  stats     write room statistics per region
  script    render the dungeon with a Lua script
  validate  report dangling exits, unreachable rooms and layout warnings
  archive   store the dungeon and its statistics in PostgreSQL

The dungeon is read from standard input when no file (or "-") is given.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// env carries what every command needs.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command func(ctx context.Context, e *env, args []string) error

var commands = map[string]command{
	"gv":       runGraph,
	"key":      runKey,
	"html":     runHTML,
	"stats":    runStats,
	"script":   runScript,
	"validate": runValidate,
	"archive":  runArchive,
}

// errProblems marks a validate run that found problems it already reported.
var errProblems = errors.New("validation found problems")

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("aeldardin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "error: unknown command %q\n", name)
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: loading config: %v\n", err)
		return 1
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "error: initializing logger: %v\n", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	e := &env{cfg: cfg, logger: logger.With(zap.String("command", name)), stdin: stdin, stdout: stdout, stderr: stderr}
	start := time.Now()
	err = cmd(ctx, e, fs.Args()[1:])
	e.logger.Debug("command finished", zap.Duration("elapsed", time.Since(start)), zap.Error(err))

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errProblems):
		return 1
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
}

// newFlags returns a subcommand flag set writing to the command's stderr.
func (e *env) newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

// load reads the dungeon named by the remaining arguments, or stdin.
func (e *env) load(fs *flag.FlagSet) (*dungeon.Node, error) {
	loader := dungeon.NewLoader(e.logger)
	switch fs.NArg() {
	case 0:
		return loader.LoadReader(e.stdin)
	case 1:
		if fs.Arg(0) == "-" {
			return loader.LoadReader(e.stdin)
		}
		return loader.LoadFile(fs.Arg(0))
	default:
		return nil, fmt.Errorf("expected at most one dungeon file, got %d", fs.NArg())
	}
}

func runGraph(_ context.Context, e *env, args []string) error {
	fs := e.newFlags("gv")
	style := fs.String("secret-style", e.cfg.Render.SecretExitStyle, "edge style for tagged exits: solid, dashed, dotted, bold")
	if err := fs.Parse(args); err != nil {
		return err
	}
	root, err := e.load(fs)
	if err != nil {
		return err
	}
	g, err := render.BuildGraph(root)
	if err != nil {
		return err
	}
	return render.WriteDot(e.stdout, g, render.DotOptions{TaggedStyle: *style})
}

func runKey(_ context.Context, e *env, args []string) error {
	fs := e.newFlags("key")
	order := fs.String("order", e.cfg.Render.KeyOrder, "room order: traversal or key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !render.ValidKeyOrder(render.KeyOrder(*order)) {
		return fmt.Errorf("unknown key order %q", *order)
	}
	root, err := e.load(fs)
	if err != nil {
		return err
	}
	return render.WriteKey(e.stdout, root, render.KeyOrder(*order))
}

func runHTML(_ context.Context, e *env, args []string) error {
	fs := e.newFlags("html")
	if err := fs.Parse(args); err != nil {
		return err
	}
	root, err := e.load(fs)
	if err != nil {
		return err
	}
	return render.WriteHTML(e.stdout, root)
}

func runStats(_ context.Context, e *env, args []string) error {
	fs := e.newFlags("stats")
	asJSON := fs.Bool("json", false, "write the statistics tree as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	root, err := e.load(fs)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(e.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats.Compute(root))
	}
	_, err = io.WriteString(e.stdout, stats.Report(root))
	return err
}

func runScript(ctx context.Context, e *env, args []string) error {
	fs := e.newFlags("script")
	script := fs.String("script", "", "path to a Lua script defining render(dungeon)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *script == "" {
		return errors.New("script: -script is required")
	}
	root, err := e.load(fs)
	if err != nil {
		return err
	}
	out, err := scripting.NewRenderer(e.logger, e.cfg.Scripting.InstructionLimit).RenderFile(ctx, *script, root)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err = io.WriteString(e.stdout, out)
	return err
}

// runValidate prints one "Warning: ..." line per problem. Layout advisories
// are reported but only dangling exits and unreachable rooms fail the run.
func runValidate(_ context.Context, e *env, args []string) error {
	fs := e.newFlags("validate")
	start := fs.String("start", "", "room the party enters from (default: first room)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	root, err := e.load(fs)
	if err != nil {
		return err
	}

	for _, a := range root.Advisories() {
		fmt.Fprintf(e.stdout, "Warning: %s\n", a)
	}

	dangling, err := render.DanglingExits(root)
	if err != nil {
		return err
	}
	for _, d := range dangling {
		fmt.Fprintf(e.stdout, "Warning: room %s has an exit to unknown room %s\n", d.From, d.Exit.Target)
	}

	problems := len(dangling)
	if rooms := root.Rooms(); len(rooms) > 0 {
		from := dungeon.Key(*start)
		if from == "" {
			from = rooms[0].Key()
		}
		unreachable, err := render.Unreachable(root, from)
		if err != nil {
			return err
		}
		for _, key := range unreachable {
			fmt.Fprintf(e.stdout, "Warning: room %s cannot be reached from room %s\n", key, from)
		}
		problems += len(unreachable)
	}

	if problems > 0 {
		fmt.Fprintf(e.stdout, "%d problems in %d rooms\n", problems, root.RoomCount())
		return errProblems
	}
	fmt.Fprintf(e.stdout, "%d rooms OK\n", root.RoomCount())
	return nil
}

func runArchive(ctx context.Context, e *env, args []string) error {
	fs := e.newFlags("archive")
	list := fs.Bool("list", false, "list archived dungeons instead of storing one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var root *dungeon.Node
	if !*list {
		var err error
		if root, err = e.load(fs); err != nil {
			return err
		}
		if _, err := root.RoomsByKey(); err != nil {
			return err
		}
	}

	pool, err := postgres.NewPool(ctx, e.cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to archive: %w", err)
	}
	defer pool.Close()
	repo := postgres.NewDungeonRepository(pool.DB())

	if *list {
		records, err := repo.List(ctx)
		if err != nil {
			return err
		}
		for _, rec := range records {
			fmt.Fprintf(e.stdout, "%s\t%s\t%d rooms\t%s\n", rec.ID, rec.Title, rec.RoomCount, rec.CreatedAt.Format(time.RFC3339))
		}
		return nil
	}

	rec, err := repo.Save(ctx, root)
	if err != nil {
		return err
	}
	e.logger.Info("dungeon archived",
		zap.String("id", rec.ID.String()),
		zap.String("title", rec.Title),
		zap.Int("rooms", rec.RoomCount),
	)
	fmt.Fprintln(e.stdout, rec.ID)
	return nil
}
