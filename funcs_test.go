package vfs_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"gotest.tools/v3/assert"

	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/memfs"
)

func TestReadWriteAppend(t *testing.T) {
	fsys := memfs.New(memfs.Option{})
	assert.NilError(t, vfs.WriteFile(fsys, "file", []byte("foo")))
	assert.NilError(t, vfs.AppendFile(fsys, "file", []byte("bar")))
	b, err := vfs.ReadFile(fsys, "file")
	assert.NilError(t, err)
	assert.Equal(t, string(b), "foobar")

	assert.NilError(t, vfs.WriteFile(fsys, "file", []byte("baz")))
	b, err = vfs.ReadFile(fsys, "file")
	assert.NilError(t, err)
	assert.Equal(t, string(b), "baz")

	// ReadFile shares read only.
	w, err := fsys.Open("file", vfs.Open, vfs.AccessWrite, vfs.ShareReadWrite)
	assert.NilError(t, err)
	_, err = vfs.ReadFile(fsys, "file")
	assert.ErrorIs(t, err, vfs.ErrSharingViolation)
	assert.NilError(t, w.Close())

	_, err = vfs.ReadFile(fsys, "missing")
	assert.ErrorIs(t, err, vfs.ErrNotFound)
	assert.ErrorIs(t, vfs.WriteFile(fsys, "missing/file", nil), vfs.ErrNotFound)
}

func TestCollect(t *testing.T) {
	fsys := memfs.New(memfs.Option{})
	for _, name := range []string{"b", "a", "c"} {
		assert.NilError(t, vfs.WriteFile(fsys, name, nil))
	}
	names, err := vfs.Collect(fsys.EnumerateFiles("", "*", vfs.TopOnly))
	assert.NilError(t, err)
	assert.DeepEqual(t, names, []string{"a", "b", "c"})

	_, err = vfs.Collect(fsys.EnumerateFiles("missing", "*", vfs.TopOnly))
	assert.ErrorIs(t, err, vfs.ErrNotFound)
}

func TestContextual(t *testing.T) {
	fsys := memfs.New(memfs.Option{})
	c := vfs.WithContext(fsys)
	assert.Equal(t, c.FileSystem(), vfs.FileSystem(fsys))

	ctx := context.Background()
	n, err := c.WriteFile(ctx, "file", strings.NewReader("content"))
	assert.NilError(t, err)
	assert.Equal(t, n, int64(7))
	b, err := c.ReadFile(ctx, "file")
	assert.NilError(t, err)
	assert.Equal(t, string(b), "content")
	assert.NilError(t, c.CreateDirectory(ctx, "dir"))
	assert.NilError(t, c.CopyFile(ctx, "file", "dir/copy", false))
	names, err := vfs.Collect(c.EnumerateFiles(ctx, "", "*", vfs.AllDescendants))
	assert.NilError(t, err)
	assert.DeepEqual(t, names, []string{"dir/copy", "file"})

	canceledCtx, cancel := context.WithCancelCause(ctx)
	errCause := errors.New("shutting down")
	cancel(errCause)

	for name, fn := range map[string]func() error{
		"exists":    func() error { _, err := c.FileExists(canceledCtx, "file"); return err },
		"open":      func() error { _, err := c.Open(canceledCtx, "file", vfs.Open, vfs.AccessRead, vfs.ShareRead); return err },
		"mkdir":     func() error { return c.CreateDirectory(canceledCtx, "other") },
		"remove":    func() error { return c.DeleteFile(canceledCtx, "file") },
		"move":      func() error { return c.MoveFile(canceledCtx, "file", "moved", false) },
		"copy":      func() error { return c.CopyFile(canceledCtx, "file", "copy", false) },
		"rmdir":     func() error { return c.DeleteDirectory(canceledCtx, "dir", true) },
		"movedir":   func() error { return c.MoveDirectory(canceledCtx, "dir", "dir2") },
		"stat":      func() error { _, err := c.Stat(canceledCtx, "file"); return err },
		"length":    func() error { _, err := c.FileLength(canceledCtx, "file"); return err },
		"readfile":  func() error { _, err := c.ReadFile(canceledCtx, "file"); return err },
		"enumerate": func() error { _, err := c.EnumerateFiles(canceledCtx, "", "*", vfs.TopOnly); return err },
		"writefile": func() error {
			_, err := c.WriteFile(canceledCtx, "file", strings.NewReader("x"))
			return err
		},
	} {
		err := fn()
		assert.Equal(t, vfs.KindOf(err), vfs.KindCanceled, name)
		assert.ErrorIs(t, err, errCause, name)
	}
	// nothing has been changed.
	assert.Assert(t, fsys.FileExists("file"))
	assert.Assert(t, !fsys.FileExists("moved"))
	assert.Assert(t, fsys.DirectoryExists("dir"))
	b, err = vfs.ReadFile(fsys, "file")
	assert.NilError(t, err)
	assert.Equal(t, string(b), "content")
}

type cancelingReader struct {
	r      io.Reader
	cancel context.CancelFunc
	reads  int
}

func (r *cancelingReader) Read(p []byte) (int, error) {
	r.reads++
	if r.reads == 2 {
		r.cancel()
	}
	return r.r.Read(p[:min(len(p), 4)])
}

func TestContextual_stops_between_chunks(t *testing.T) {
	fsys := memfs.New(memfs.Option{})
	c := vfs.WithContext(fsys)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &cancelingReader{r: bytes.NewReader(bytes.Repeat([]byte("x"), 64)), cancel: cancel}
	n, err := c.WriteFile(ctx, "file", src)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, n, int64(8))

	length, err := fsys.FileLength("file")
	assert.NilError(t, err)
	assert.Equal(t, length, int64(8))

	// enumeration stops too.
	for _, name := range []string{"a", "b", "c"} {
		assert.NilError(t, vfs.WriteFile(fsys, name, nil))
	}
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	seq, err := c.EnumerateFiles(ctx, "", "*", vfs.TopOnly)
	assert.NilError(t, err)
	var seen []string
	for name := range seq {
		seen = append(seen, name)
		cancel()
	}
	assert.DeepEqual(t, seen, []string{"a"})
}

func TestIoFs(t *testing.T) {
	fsys := memfs.New(memfs.Option{})
	assert.NilError(t, fsys.CreateDirectory("dir/sub"))
	assert.NilError(t, fsys.CreateDirectory("empty"))
	for name, content := range map[string]string{
		"top.txt":         "top",
		"dir/a.txt":       "a",
		"dir/b.txt":       "bb",
		"dir/sub/c.txt":   "ccc",
		"dir/sub/d.empty": "",
	} {
		assert.NilError(t, vfs.WriteFile(fsys, name, []byte(content)))
	}

	iofs := vfs.ToIoFs(fsys)
	assert.NilError(
		t,
		fstest.TestFS(iofs, "top.txt", "dir/a.txt", "dir/b.txt", "dir/sub/c.txt", "dir/sub/d.empty", "empty"),
	)

	// files being written can not be opened.
	w, err := fsys.Open("top.txt", vfs.Open, vfs.AccessWrite, vfs.ShareNone)
	assert.NilError(t, err)
	_, err = iofs.Open("top.txt")
	assert.ErrorIs(t, err, vfs.ErrSharingViolation)
	assert.NilError(t, w.Close())
}
