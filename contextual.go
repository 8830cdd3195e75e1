package vfs

import (
	"context"
	"io"
	"io/fs"
	"iter"
	"time"
)

// Contextual exposes [FileSystem] operations taking a [context.Context].
//
// Every method fails with an error matching [ErrCanceled] and the cause of ctx
// if ctx is already done when called, before touching the file system.
// Operations moving content (ReadFile, WriteFile, CopyFile) additionally stop between chunks.
type Contextual struct {
	fsys FileSystem
}

func WithContext(fsys FileSystem) *Contextual {
	return &Contextual{fsys: fsys}
}

// FileSystem returns the wrapped file system.
func (c *Contextual) FileSystem() FileSystem {
	return c.fsys
}

func checkCtx(ctx context.Context, op, name string) error {
	if ctx.Err() != nil {
		return WrapPathErr(op, name, canceled(ctx))
	}
	return nil
}

func (c *Contextual) FileExists(ctx context.Context, name string) (bool, error) {
	if err := checkCtx(ctx, "fileexists", name); err != nil {
		return false, err
	}
	return c.fsys.FileExists(name), nil
}

func (c *Contextual) DirectoryExists(ctx context.Context, name string) (bool, error) {
	if err := checkCtx(ctx, "directoryexists", name); err != nil {
		return false, err
	}
	return c.fsys.DirectoryExists(name), nil
}

func (c *Contextual) Open(ctx context.Context, name string, mode OpenMode, access Access, share Share) (File, error) {
	if err := checkCtx(ctx, "open", name); err != nil {
		return nil, err
	}
	return c.fsys.Open(name, mode, access, share)
}

func (c *Contextual) CreateDirectory(ctx context.Context, name string) error {
	if err := checkCtx(ctx, "mkdir", name); err != nil {
		return err
	}
	return c.fsys.CreateDirectory(name)
}

func (c *Contextual) DeleteDirectory(ctx context.Context, name string, recursive bool) error {
	if err := checkCtx(ctx, "rmdir", name); err != nil {
		return err
	}
	return c.fsys.DeleteDirectory(name, recursive)
}

func (c *Contextual) DeleteFile(ctx context.Context, name string) error {
	if err := checkCtx(ctx, "remove", name); err != nil {
		return err
	}
	return c.fsys.DeleteFile(name)
}

func (c *Contextual) MoveFile(ctx context.Context, src, dst string, overwrite bool) error {
	if err := checkCtx(ctx, "move", src); err != nil {
		return err
	}
	return c.fsys.MoveFile(src, dst, overwrite)
}

func (c *Contextual) MoveDirectory(ctx context.Context, src, dst string) error {
	if err := checkCtx(ctx, "movedir", src); err != nil {
		return err
	}
	return c.fsys.MoveDirectory(src, dst)
}

// CopyFile copies src to dst.
//
// CopyFile delegates to [FileSystem.CopyFile], which backends implement atomically,
// so it only observes ctx before starting.
func (c *Contextual) CopyFile(ctx context.Context, src, dst string, overwrite bool) error {
	if err := checkCtx(ctx, "copy", src); err != nil {
		return err
	}
	return c.fsys.CopyFile(src, dst, overwrite)
}

func (c *Contextual) EnumerateFiles(ctx context.Context, dir, pattern string, scope SearchScope) (iter.Seq[string], error) {
	if err := checkCtx(ctx, "enumerate", dir); err != nil {
		return nil, err
	}
	seq, err := c.fsys.EnumerateFiles(dir, pattern, scope)
	if err != nil {
		return nil, err
	}
	return untilDone(ctx, seq), nil
}

func (c *Contextual) EnumerateDirectories(ctx context.Context, dir, pattern string, scope SearchScope) (iter.Seq[string], error) {
	if err := checkCtx(ctx, "enumerate", dir); err != nil {
		return nil, err
	}
	seq, err := c.fsys.EnumerateDirectories(dir, pattern, scope)
	if err != nil {
		return nil, err
	}
	return untilDone(ctx, seq), nil
}

// untilDone stops seq once ctx is done.
func untilDone(ctx context.Context, seq iter.Seq[string]) iter.Seq[string] {
	return func(yield func(string) bool) {
		for s := range seq {
			if ctx.Err() != nil || !yield(s) {
				return
			}
		}
	}
}

func (c *Contextual) CreationTime(ctx context.Context, name string) (time.Time, error) {
	if err := checkCtx(ctx, "creationtime", name); err != nil {
		return time.Time{}, err
	}
	return c.fsys.CreationTime(name)
}

func (c *Contextual) LastWriteTime(ctx context.Context, name string) (time.Time, error) {
	if err := checkCtx(ctx, "lastwritetime", name); err != nil {
		return time.Time{}, err
	}
	return c.fsys.LastWriteTime(name)
}

func (c *Contextual) FileLength(ctx context.Context, name string) (int64, error) {
	if err := checkCtx(ctx, "filelength", name); err != nil {
		return 0, err
	}
	return c.fsys.FileLength(name)
}

func (c *Contextual) Attributes(ctx context.Context, name string) (Attributes, error) {
	if err := checkCtx(ctx, "attributes", name); err != nil {
		return 0, err
	}
	return c.fsys.Attributes(name)
}

func (c *Contextual) SetReadOnly(ctx context.Context, name string, readOnly bool) error {
	if err := checkCtx(ctx, "setreadonly", name); err != nil {
		return err
	}
	return c.fsys.SetReadOnly(name, readOnly)
}

func (c *Contextual) Stat(ctx context.Context, name string) (fs.FileInfo, error) {
	if err := checkCtx(ctx, "stat", name); err != nil {
		return nil, err
	}
	return c.fsys.Stat(name)
}

// ReadFile is like [ReadFile] but stops reading once ctx is done.
func (c *Contextual) ReadFile(ctx context.Context, name string) ([]byte, error) {
	f, err := c.Open(ctx, name, Open, AccessRead, ShareRead)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(NewCancellable(ctx, f))
}

// WriteFile is like [WriteFile] but stops writing once ctx is done.
// Bytes written before cancellation stay in the file.
func (c *Contextual) WriteFile(ctx context.Context, name string, r io.Reader) (int64, error) {
	f, err := c.Open(ctx, name, Create, AccessWrite, ShareNone)
	if err != nil {
		return 0, err
	}
	n, err := CopyContext(ctx, f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}
