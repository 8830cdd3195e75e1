package memfs

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
	"gotest.tools/v3/assert"

	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/vfstest"
)

func TestFs(t *testing.T) {
	vfstest.TestFileSystem(
		t,
		func(t *testing.T) vfs.FileSystem { return New(Option{}) },
		vfstest.Option{},
	)
}

func TestFs_case_insensitive(t *testing.T) {
	fsys := New(Option{CaseInsensitive: true})
	assert.NilError(t, fsys.CreateDirectory("Dir"))
	assert.NilError(t, vfs.WriteFile(fsys, "dir/File.TXT", []byte("foo")))

	assert.Assert(t, fsys.DirectoryExists("DIR"))
	assert.Assert(t, fsys.FileExists("DIR/file.txt"))
	b, err := vfs.ReadFile(fsys, "dIr/fIlE.tXt")
	assert.NilError(t, err)
	assert.Equal(t, string(b), "foo")

	_, err = fsys.Open("dir/FILE.txt", vfs.CreateNew, vfs.AccessWrite, vfs.ShareNone)
	assert.ErrorIs(t, err, vfs.ErrAlreadyExists)

	// names keep the case they were created with.
	seq, err := fsys.EnumerateFiles("DIR", "*.txt", vfs.TopOnly)
	assert.NilError(t, err)
	assert.DeepEqual(t, slices.Collect(seq), []string{"DIR/File.TXT"})

	// renaming only the case.
	assert.NilError(t, fsys.MoveFile("dir/file.txt", "dir/file.txt", false))
	seq, err = fsys.EnumerateFiles("dir", "*", vfs.TopOnly)
	assert.NilError(t, err)
	assert.DeepEqual(t, slices.Collect(seq), []string{"dir/file.txt"})
	assert.Equal(t, fsys.TotalSize(), int64(3))
}

func TestFs_case_sensitive_by_default(t *testing.T) {
	fsys := New(Option{})
	assert.NilError(t, vfs.WriteFile(fsys, "a", []byte("lower")))
	assert.NilError(t, vfs.WriteFile(fsys, "A", []byte("upper")))
	assert.Assert(t, !fsys.FileExists("a\\b"))

	b, err := vfs.ReadFile(fsys, "a")
	assert.NilError(t, err)
	assert.Equal(t, string(b), "lower")
	assert.Equal(t, fsys.TotalSize(), int64(10))
}

func TestFs_backslash(t *testing.T) {
	fsys := New(Option{BackslashSeparator: true})
	assert.NilError(t, fsys.CreateDirectory(`a\b`))
	assert.Assert(t, fsys.DirectoryExists("a/b"))
	assert.NilError(t, vfs.WriteFile(fsys, `\a\b\c.txt`, []byte("c")))
	assert.Assert(t, fsys.FileExists("a/b/c.txt"))
}

func TestFs_timestamps(t *testing.T) {
	t0 := time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("JST", 9*60*60))
	clk := clockwork.NewFakeClockAt(t0)
	fsys := New(Option{Clock: clk})

	assert.NilError(t, vfs.WriteFile(fsys, "file", []byte("foo")))
	clk.Advance(time.Minute)
	t1 := clk.Now()
	f, err := fsys.Open("file", vfs.Append, vfs.AccessWrite, vfs.ShareNone)
	assert.NilError(t, err)
	_, err = f.Write([]byte("bar"))
	assert.NilError(t, err)
	assert.NilError(t, f.Close())

	ctime, err := fsys.CreationTime("file")
	assert.NilError(t, err)
	assert.Equal(t, ctime, t0.UTC())
	mtime, err := fsys.LastWriteTime("file")
	assert.NilError(t, err)
	assert.Equal(t, mtime, t1.UTC())

	info, err := fsys.Stat("file")
	assert.NilError(t, err)
	assert.Equal(t, info.ModTime(), t1.UTC())

	// reading does not change it.
	clk.Advance(time.Minute)
	_, err = vfs.ReadFile(fsys, "file")
	assert.NilError(t, err)
	mtime, err = fsys.LastWriteTime("file")
	assert.NilError(t, err)
	assert.Equal(t, mtime, t1.UTC())
}

func TestFs_orphan_content_is_released(t *testing.T) {
	fsys := New(Option{})
	assert.NilError(t, vfs.WriteFile(fsys, "file", []byte("content")))

	a, err := fsys.Open("file", vfs.Open, vfs.AccessReadWrite, vfs.ShareReadWrite|vfs.ShareDelete)
	assert.NilError(t, err)
	b, err := fsys.Open("file", vfs.Open, vfs.AccessRead, vfs.ShareReadWrite|vfs.ShareDelete)
	assert.NilError(t, err)
	fd := a.(*handle).fd

	assert.NilError(t, fsys.DeleteFile("file"))
	assert.Assert(t, !fd.linked())

	// writes to orphans are not accounted.
	fsys.SetMaxSize(1)
	_, err = a.Seek(0, io.SeekEnd)
	assert.NilError(t, err)
	_, err = a.Write([]byte(" and more"))
	assert.NilError(t, err)
	assert.Equal(t, fsys.TotalSize(), int64(0))

	bin, err := io.ReadAll(b)
	assert.NilError(t, err)
	assert.Equal(t, string(bin), "content and more")

	assert.NilError(t, a.Close())
	assert.Assert(t, fd.content != nil)
	assert.NilError(t, b.Close())
	assert.Assert(t, fd.content == nil)
}

func TestFs_recency(t *testing.T) {
	fsys := New(Option{MaxSize: 12, OverflowBehavior: vfs.EvictOldest})
	for _, name := range []string{"a", "b", "c"} {
		assert.NilError(t, vfs.WriteFile(fsys, name, []byte("1234")))
	}
	// rewriting a makes b the oldest.
	assert.NilError(t, vfs.WriteFile(fsys, "a", []byte("5678")))
	// moving and reading do not count as writes.
	assert.NilError(t, fsys.MoveFile("b", "b2", false))
	_, err := vfs.ReadFile(fsys, "b2")
	assert.NilError(t, err)

	assert.NilError(t, vfs.WriteFile(fsys, "d", []byte("x")))
	assert.Assert(t, !fsys.FileExists("b2"))
	assert.Assert(t, fsys.FileExists("a"))
	assert.Assert(t, fsys.FileExists("c"))
	assert.Equal(t, fsys.TotalSize(), int64(9))
}

func TestFs_logger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	fsys := New(Option{Logger: logger, MaxSize: 4, OverflowBehavior: vfs.EvictOldest})

	assert.NilError(t, vfs.WriteFile(fsys, "old", []byte("1234")))
	assert.NilError(t, vfs.WriteFile(fsys, "new", []byte("5678")))
	assert.Assert(t, strings.Contains(buf.String(), "evicted file"), buf.String())
	assert.Assert(t, strings.Contains(buf.String(), "path=old"), buf.String())

	fsys.SetOverflowBehavior(vfs.IgnoreWrites)
	assert.NilError(t, vfs.AppendFile(fsys, "new", []byte("9")))
	assert.Assert(t, strings.Contains(buf.String(), "write discarded"), buf.String())
}

func TestFs_concurrent(t *testing.T) {
	fsys := New(Option{MaxSize: 1024, OverflowBehavior: vfs.EvictOldest})
	assert.NilError(t, fsys.CreateDirectory("shared"))

	var g errgroup.Group
	for i := range 16 {
		g.Go(func() error {
			for j := range 50 {
				name := fmt.Sprintf("shared/%d_%d", i, j%5)
				err := vfs.WriteFile(fsys, name, bytes.Repeat([]byte{byte(i)}, 10+j))
				if err != nil && vfs.KindOf(err) != vfs.KindCapacityExceeded {
					return err
				}
				if j%7 == 0 {
					if err := fsys.DeleteFile(name); err != nil && vfs.KindOf(err) != vfs.KindSharingViolation {
						return err
					}
				}
				if j%11 == 0 {
					_ = fsys.CopyFile(name, name+".copy", true)
				}
			}
			return nil
		})
	}
	assert.NilError(t, g.Wait())
	assert.Assert(t, fsys.TotalSize() <= 1024)
	vfstest.AssertTotalSize(t, fsys)
}
