package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/txstream"
)

// command is a subcommand of vfsctl.
type command struct {
	Flags *flag.FlagSet
	// Usage is shown after "vfsctl" in help. Its first word is the command name.
	Usage string
	Short string
	// MinArgs and MaxArgs bound positional arguments. MaxArgs < 0 means no upper bound.
	MinArgs, MaxArgs int
	Exec             func(ctx context.Context, e *env, args []string) error
}

func (c *command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

func (c *command) helpLine() string {
	return fmt.Sprintf("  %-28s %s", c.Usage, c.Short)
}

func (c *command) printHelp(w io.Writer) {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage: vfsctl %s\n\n%s\n", c.Usage, c.Short)
	if c.Flags.HasFlags() {
		b.WriteString("\nFlags:\n")
		b.WriteString(c.Flags.FlagUsages())
	}
	_, _ = io.WriteString(w, b.String())
}

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func commandList() []*command {
	return []*command{
		putCmd(false),
		putCmd(true),
		catCmd(),
		lsCmd(),
		mkdirCmd(),
		rmCmd(),
		rmdirCmd(),
		mvCmd(),
		cpCmd(),
		duCmd(),
	}
}

func commands() map[string]*command {
	m := make(map[string]*command)
	for _, c := range commandList() {
		m[c.Name()] = c
	}
	return m
}

// putCmd writes stdin to a file through a transactional stream.
// The target is left untouched unless all of stdin is staged.
func putCmd(appendMode bool) *command {
	c := &command{
		Flags:   newFlags("put"),
		Usage:   "put [--no-clobber] <path>",
		Short:   "replace file content with stdin",
		MinArgs: 1,
		MaxArgs: 1,
	}
	mode := vfs.Create
	if appendMode {
		c.Flags = newFlags("append")
		c.Usage = "append <path>"
		c.Short = "append stdin to file, creating it if missing"
		mode = vfs.Append
	}
	var noClobber bool
	if !appendMode {
		c.Flags.BoolVarP(&noClobber, "no-clobber", "n", false, "fail if the file exists")
	}
	c.Exec = func(ctx context.Context, e *env, args []string) error {
		m := mode
		if noClobber {
			m = vfs.CreateNew
		}
		s, err := txstream.Open(e.fsys, args[0], m, txstream.WithTempSuffix(e.cfg.TempSuffix))
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := vfs.CopyContext(ctx, s, e.stdin)
		if err != nil {
			return err
		}
		if err := s.CommitContext(ctx); err != nil {
			return err
		}
		e.logger.Debug("committed", "path", args[0], "written", n)
		return s.Close()
	}
	return c
}

func catCmd() *command {
	c := &command{
		Flags:   newFlags("cat"),
		Usage:   "cat <path>...",
		Short:   "print files",
		MinArgs: 1,
		MaxArgs: -1,
	}
	c.Exec = func(ctx context.Context, e *env, args []string) error {
		for _, name := range args {
			f, err := e.cx.Open(ctx, name, vfs.Open, vfs.AccessRead, vfs.ShareRead)
			if err != nil {
				return err
			}
			_, err = vfs.CopyContext(ctx, e.stdout, f)
			_ = f.Close()
			if err != nil {
				return err
			}
		}
		return nil
	}
	return c
}

func lsCmd() *command {
	c := &command{
		Flags:   newFlags("ls"),
		Usage:   "ls [-r] [dir] [pattern]",
		Short:   "list directories (with trailing /) then files",
		MaxArgs: 2,
	}
	var (
		recursive bool
		long      bool
	)
	c.Flags.BoolVarP(&recursive, "recursive", "r", false, "descend into subdirectories")
	c.Flags.BoolVarP(&long, "long", "l", false, "print size and last write time")
	c.Exec = func(ctx context.Context, e *env, args []string) error {
		var dir, pattern string
		if len(args) > 0 {
			dir = args[0]
		}
		if len(args) > 1 {
			pattern = args[1]
		}
		scope := vfs.TopOnly
		if recursive {
			scope = vfs.AllDescendants
		}

		dirs, err := vfs.Collect(e.cx.EnumerateDirectories(ctx, dir, pattern, scope))
		if err != nil {
			return err
		}
		files, err := vfs.Collect(e.cx.EnumerateFiles(ctx, dir, pattern, scope))
		if err != nil {
			return err
		}
		for _, d := range dirs {
			e.printf("%s/\n", d)
		}
		for _, f := range files {
			if !long {
				e.printf("%s\n", f)
				continue
			}
			info, err := e.cx.Stat(ctx, f)
			if err != nil {
				// removed while listing.
				continue
			}
			e.printf("%10d %s %s\n", info.Size(), info.ModTime().UTC().Format("2006-01-02T15:04:05Z"), f)
		}
		return nil
	}
	return c
}

func mkdirCmd() *command {
	c := &command{
		Flags:   newFlags("mkdir"),
		Usage:   "mkdir <dir>...",
		Short:   "create directories along with missing parents",
		MinArgs: 1,
		MaxArgs: -1,
	}
	c.Exec = func(ctx context.Context, e *env, args []string) error {
		for _, name := range args {
			if err := e.cx.CreateDirectory(ctx, name); err != nil {
				return err
			}
		}
		return nil
	}
	return c
}

func rmCmd() *command {
	c := &command{
		Flags:   newFlags("rm"),
		Usage:   "rm <path>...",
		Short:   "delete files",
		MinArgs: 1,
		MaxArgs: -1,
	}
	var force bool
	c.Flags.BoolVarP(&force, "force", "f", false, "ignore missing files")
	c.Exec = func(ctx context.Context, e *env, args []string) error {
		for _, name := range args {
			if err := e.cx.DeleteFile(ctx, name); err != nil {
				if force && vfs.KindOf(err) == vfs.KindNotFound {
					continue
				}
				return err
			}
		}
		return nil
	}
	return c
}

func rmdirCmd() *command {
	c := &command{
		Flags:   newFlags("rmdir"),
		Usage:   "rmdir [-r] <dir>",
		Short:   "delete a directory",
		MinArgs: 1,
		MaxArgs: 1,
	}
	var recursive bool
	c.Flags.BoolVarP(&recursive, "recursive", "r", false, "delete contents too")
	c.Exec = func(ctx context.Context, e *env, args []string) error {
		return e.cx.DeleteDirectory(ctx, args[0], recursive)
	}
	return c
}

func mvCmd() *command {
	c := &command{
		Flags:   newFlags("mv"),
		Usage:   "mv [-f] <src> <dst>",
		Short:   "move a file or a directory",
		MinArgs: 2,
		MaxArgs: 2,
	}
	var force bool
	c.Flags.BoolVarP(&force, "force", "f", false, "overwrite an existing destination file")
	c.Exec = func(ctx context.Context, e *env, args []string) error {
		isDir, err := e.cx.DirectoryExists(ctx, args[0])
		if err != nil {
			return err
		}
		if isDir {
			return e.cx.MoveDirectory(ctx, args[0], args[1])
		}
		return e.cx.MoveFile(ctx, args[0], args[1], force)
	}
	return c
}

func cpCmd() *command {
	c := &command{
		Flags:   newFlags("cp"),
		Usage:   "cp [-f] <src> <dst>",
		Short:   "copy a file",
		MinArgs: 2,
		MaxArgs: 2,
	}
	var force bool
	c.Flags.BoolVarP(&force, "force", "f", false, "overwrite an existing destination file")
	c.Exec = func(ctx context.Context, e *env, args []string) error {
		return e.cx.CopyFile(ctx, args[0], args[1], force)
	}
	return c
}

func duCmd() *command {
	c := &command{
		Flags:   newFlags("du"),
		Usage:   "du",
		Short:   "print total size, capacity and overflow behavior",
		MaxArgs: 0,
	}
	c.Exec = func(ctx context.Context, e *env, args []string) error {
		e.printf("total\t%d\n", e.fsys.TotalSize())
		e.printf("max\t%d\n", e.fsys.MaxSize())
		e.printf("overflow\t%s\n", e.fsys.OverflowBehavior())
		return nil
	}
	return c
}
