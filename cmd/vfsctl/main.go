// Command vfsctl manipulates a directory through the disk backend.
//
// Usage:
//
//	vfsctl [global flags] <command> [flags] [args]
//
// Writes are staged in a temp file and committed atomically.
// Global flags override values from .vfsctl.json in the working directory, or from the --config file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/diskfs"
	"github.com/ngicks/go-fsys-helper/vfs/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type env struct {
	cfg    config.Config
	fsys   *diskfs.FS
	cx     *vfs.Contextual
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
}

func (e *env) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(e.stdout, format, a...)
}

type globalFlags struct {
	set        *flag.FlagSet
	cwd        string
	configPath string
	root       string
	maxSize    int64
	overflow   string
	tempSuffix string
	logLevel   string
}

func newGlobalFlags() *globalFlags {
	g := &globalFlags{set: flag.NewFlagSet("vfsctl", flag.ContinueOnError)}
	g.set.SetInterspersed(false)
	g.set.StringVarP(&g.cwd, "cwd", "C", "", "run as if started in `dir`")
	g.set.StringVarP(&g.configPath, "config", "c", "", "config `file` (default ./"+config.FileName+")")
	g.set.StringVar(&g.root, "root", "", "served `dir`")
	g.set.Int64Var(&g.maxSize, "max-size", 0, "capacity in bytes, 0 for unlimited")
	g.set.StringVar(&g.overflow, "overflow", "", "what to do on overflow: throw, ignore or evict")
	g.set.StringVar(&g.tempSuffix, "temp-suffix", "", "suffix of staged temp files")
	g.set.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error")
	return g
}

func (g *globalFlags) overrides() (config.Overrides, error) {
	var o config.Overrides
	if g.set.Changed("root") {
		o.Root = &g.root
	}
	if g.set.Changed("max-size") {
		o.MaxSize = &g.maxSize
	}
	if g.set.Changed("overflow") {
		b, err := vfs.ParseOverflowBehavior(g.overflow)
		if err != nil {
			return o, err
		}
		o.Overflow = &b
	}
	if g.set.Changed("temp-suffix") {
		o.TempSuffix = &g.tempSuffix
	}
	if g.set.Changed("log-level") {
		o.LogLevel = &g.logLevel
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	g := newGlobalFlags()
	g.set.SetOutput(io.Discard)
	if err := g.set.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(stdout, g)
			return 0
		}
		fmt.Fprintln(stderr, "error:", err)
		printUsage(stderr, g)
		return 2
	}

	rest := g.set.Args()
	if len(rest) == 0 {
		printUsage(stderr, g)
		return 2
	}
	cmd, ok := commands()[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "error: unknown command %q\n", rest[0])
		printUsage(stderr, g)
		return 2
	}

	cmd.Flags.SetOutput(io.Discard)
	if err := cmd.Flags.Parse(rest[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			cmd.printHelp(stdout)
			return 0
		}
		fmt.Fprintln(stderr, "error:", err)
		cmd.printHelp(stderr)
		return 2
	}
	if n := len(cmd.Flags.Args()); n < cmd.MinArgs || (cmd.MaxArgs >= 0 && n > cmd.MaxArgs) {
		fmt.Fprintln(stderr, "error: wrong number of arguments")
		cmd.printHelp(stderr)
		return 2
	}

	e, err := setup(g, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	if err := cmd.Exec(ctx, e, cmd.Flags.Args()); err != nil {
		e.logger.Debug("command failed", "command", cmd.Name(), "kind", vfs.KindOf(err), "err", err)
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func setup(g *globalFlags, stdin io.Reader, stdout, stderr io.Writer) (*env, error) {
	overrides, err := g.overrides()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(config.LoadInput{
		WorkDir:    g.cwd,
		ConfigPath: g.configPath,
		Overrides:  overrides,
	})
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	if cfg.Source != "" {
		logger.Debug("config loaded", "path", cfg.Source)
	}

	fsys, err := diskfs.New(cfg.Root, diskfs.Option{
		Logger:           logger,
		MaxSize:          cfg.MaxSize,
		OverflowBehavior: cfg.Overflow,
	})
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:    cfg,
		fsys:   fsys,
		cx:     vfs.WithContext(fsys),
		logger: logger,
		stdin:  stdin,
		stdout: stdout,
	}, nil
}

func printUsage(w io.Writer, g *globalFlags) {
	var b strings.Builder
	b.WriteString("Usage: vfsctl [global flags] <command> [flags] [args]\n\nCommands:\n")
	for _, c := range commandList() {
		b.WriteString(c.helpLine())
		b.WriteString("\n")
	}
	b.WriteString("\nGlobal flags:\n")
	b.WriteString(g.set.FlagUsages())
	_, _ = io.WriteString(w, b.String())
}
