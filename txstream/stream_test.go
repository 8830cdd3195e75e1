package txstream_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/memfs"
	"github.com/ngicks/go-fsys-helper/vfs/txstream"
	"github.com/ngicks/go-fsys-helper/vfs/vfstest"
)

func readString(t *testing.T, fsys vfs.FileSystem, name string) string {
	t.Helper()
	b, err := vfs.ReadFile(fsys, name)
	assert.NilError(t, err)
	return string(b)
}

func TestStream_file_system_surface(t *testing.T) {
	rec := vfstest.NewRecorder(memfs.New(memfs.Option{}))
	assert.NilError(t, vfs.WriteFile(rec, "target", []byte("v1")))
	rec.Reset()

	s, err := txstream.Open(rec, "target", vfs.Create)
	assert.NilError(t, err)
	_, err = s.Write([]byte("v2"))
	assert.NilError(t, err)
	assert.NilError(t, s.Commit())
	_, err = s.Write([]byte(" and more"))
	assert.NilError(t, err)
	assert.NilError(t, s.Close())

	assert.DeepEqual(
		t,
		rec.Methods(),
		[]string{
			"FileExists", // probing the target
			"Open",       // staging
			"MoveFile",   // commit
			"Open",       // staging again
			"Open",       // seeding from the committed target
			"DeleteFile", // discarding uncommitted bytes
		},
	)
	for _, c := range rec.Calls() {
		assert.NilError(t, c.Err, "%s failed", c.Method)
	}
	assert.Equal(t, readString(t, rec, "target"), "v2")
}

func TestStream_open_modes(t *testing.T) {
	fsys := memfs.New(memfs.Option{})
	assert.NilError(t, vfs.WriteFile(fsys, "exists", []byte("data")))

	_, err := txstream.Open(fsys, "exists", vfs.CreateNew)
	assert.ErrorIs(t, err, vfs.ErrAlreadyExists)
	_, err = txstream.Open(fsys, "missing", vfs.Open)
	assert.ErrorIs(t, err, vfs.ErrNotFound)
	_, err = txstream.Open(fsys, "missing", vfs.Truncate)
	assert.ErrorIs(t, err, vfs.ErrNotFound)
	_, err = txstream.Open(fsys, "missing/child", vfs.Create)
	assert.ErrorIs(t, err, vfs.ErrNotFound)
	_, err = txstream.Open(fsys, "exists", vfs.OpenMode(100))
	assert.ErrorIs(t, err, vfs.ErrInvalidArgument)
	// failed opens leave nothing behind.
	assert.Assert(t, !fsys.FileExists("exists"+txstream.DefaultTempSuffix))
	assert.Assert(t, !fsys.FileExists("missing"+txstream.DefaultTempSuffix))

	for _, tc := range []struct {
		mode   vfs.OpenMode
		target string
		want   string
	}{
		{vfs.Open, "exists", "data+"},
		{vfs.OpenOrCreate, "exists", "data+"},
		{vfs.Append, "exists", "data+"},
		{vfs.Truncate, "exists", "+"},
		{vfs.Create, "exists", "+"},
		{vfs.OpenOrCreate, "new1", "+"},
		{vfs.Create, "new2", "+"},
		{vfs.CreateNew, "new3", "+"},
		{vfs.Append, "new4", "+"},
	} {
		t.Run(tc.mode.String()+"_"+tc.target, func(t *testing.T) {
			assert.NilError(t, vfs.WriteFile(fsys, "exists", []byte("data")))
			s, err := txstream.Open(fsys, tc.target, tc.mode)
			assert.NilError(t, err)
			defer s.Close()
			_, err = s.Write([]byte("+"))
			assert.NilError(t, err)
			assert.NilError(t, s.Commit())
			assert.Equal(t, readString(t, fsys, tc.target), tc.want)
		})
	}
	vfstest.AssertTotalSize(t, fsys)
}

func TestStream_commit_failure_keeps_temp(t *testing.T) {
	errMove := errors.New("move failed")
	faulty := vfstest.NewFaulty(memfs.New(memfs.Option{}))
	assert.NilError(t, vfs.WriteFile(faulty, "target", []byte("original")))

	s, err := txstream.Open(faulty, "target", vfs.Create)
	assert.NilError(t, err)
	_, err = s.Write([]byte("staged"))
	assert.NilError(t, err)

	faulty.FailOn("MoveFile", errMove)
	assert.ErrorIs(t, s.Commit(), errMove)
	committed, err := s.Committed()
	assert.NilError(t, err)
	assert.Assert(t, !committed)
	assert.Equal(t, readString(t, faulty, "target"), "original")

	// retrying after the cause is gone keeps everything staged so far.
	faulty.FailOn("MoveFile", nil)
	_, err = s.Write([]byte("+more"))
	assert.NilError(t, err)
	assert.NilError(t, s.Commit())
	assert.Equal(t, readString(t, faulty, "target"), "staged+more")
	committed, err = s.Committed()
	assert.NilError(t, err)
	assert.Assert(t, committed)

	// a failed commit survives Close.
	_, err = s.Write([]byte("!"))
	assert.NilError(t, err)
	faulty.FailOn("MoveFile", errMove)
	assert.ErrorIs(t, s.Commit(), errMove)
	assert.NilError(t, s.Close())
	assert.Equal(t, readString(t, faulty, "target"), "staged+more")
	assert.Equal(t, readString(t, faulty, s.TempPath()), "staged+more!")
}

func TestStream_write_failure(t *testing.T) {
	errWrite := errors.New("disk on fire")
	faulty := vfstest.NewFaulty(memfs.New(memfs.Option{}))
	assert.NilError(t, vfs.WriteFile(faulty, "target", []byte("original")))

	s, err := txstream.Open(faulty, "target", vfs.Append)
	assert.NilError(t, err)
	faulty.FailOn("File.Write", errWrite)
	_, err = s.Write([]byte("lost"))
	assert.ErrorIs(t, err, errWrite)
	assert.NilError(t, s.Close())

	assert.Equal(t, readString(t, faulty, "target"), "original")
	assert.Assert(t, !faulty.FileExists(s.TempPath()))
}

func TestStream_capacity(t *testing.T) {
	fsys := memfs.New(memfs.Option{MaxSize: 10})
	assert.NilError(t, vfs.WriteFile(fsys, "target", []byte("12345")))

	s, err := txstream.Open(fsys, "target", vfs.Create)
	assert.NilError(t, err)
	// the temp file counts while staged.
	_, err = s.Write([]byte("abcdef"))
	assert.ErrorIs(t, err, vfs.ErrCapacityExceeded)
	_, err = s.Write([]byte("abcde"))
	assert.NilError(t, err)
	assert.NilError(t, s.Commit())
	assert.NilError(t, s.Close())
	assert.Equal(t, readString(t, fsys, "target"), "abcde")
	assert.Equal(t, fsys.TotalSize(), int64(5))
}

func TestStream_unsupported(t *testing.T) {
	fsys := memfs.New(memfs.Option{})
	s, err := txstream.Open(fsys, "target", vfs.Create)
	assert.NilError(t, err)
	defer s.Close()

	_, err = s.Read(make([]byte, 1))
	assert.ErrorIs(t, err, vfs.ErrNotSupported)
	_, err = s.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, vfs.ErrNotSupported)
	assert.ErrorIs(t, s.Truncate(0), vfs.ErrNotSupported)
	assert.Assert(t, s.CanWrite())
	assert.NilError(t, s.Sync())
	assert.Equal(t, s.Target(), "target")
}

func TestStream_temp_suffix(t *testing.T) {
	fsys := memfs.New(memfs.Option{})
	s, err := txstream.Open(fsys, "target", vfs.Create, txstream.WithTempSuffix(".partial"))
	assert.NilError(t, err)
	assert.Equal(t, s.TempPath(), "target.partial")
	assert.Assert(t, fsys.FileExists("target.partial"))
	assert.Assert(t, !fsys.FileExists("target"))

	_, err = s.Write([]byte("x"))
	assert.NilError(t, err)
	assert.NilError(t, s.Commit())
	assert.Assert(t, !fsys.FileExists("target.partial"))
	assert.NilError(t, s.Close())

	s, err = txstream.Open(fsys, "other", vfs.Create, txstream.WithTempSuffix(""))
	assert.NilError(t, err)
	assert.Equal(t, s.TempPath(), "other"+txstream.DefaultTempSuffix)
	assert.NilError(t, s.Close())
}

func TestStream_commit_context(t *testing.T) {
	fsys := memfs.New(memfs.Option{})
	assert.NilError(t, vfs.WriteFile(fsys, "target", []byte("old")))

	s, err := txstream.Open(fsys, "target", vfs.Create)
	assert.NilError(t, err)
	defer s.Close()
	_, err = s.Write([]byte("new"))
	assert.NilError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.CommitContext(ctx)
	assert.Equal(t, vfs.KindOf(err), vfs.KindCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, readString(t, fsys, "target"), "old")

	assert.NilError(t, s.CommitContext(context.Background()))
	assert.Equal(t, readString(t, fsys, "target"), "new")
	// nothing new staged.
	assert.NilError(t, s.Commit())
}

func TestStream_target_stays_readable(t *testing.T) {
	fsys := memfs.New(memfs.Option{})
	assert.NilError(t, vfs.WriteFile(fsys, "target", []byte("old")))

	s, err := txstream.Open(fsys, "target", vfs.Append)
	assert.NilError(t, err)
	defer s.Close()
	_, err = s.Write([]byte("new"))
	assert.NilError(t, err)

	r, err := fsys.Open("target", vfs.Open, vfs.AccessRead, vfs.ShareRead|vfs.ShareDelete)
	assert.NilError(t, err)
	assert.NilError(t, s.Commit())
	// the reader keeps the content it opened.
	b, err := io.ReadAll(r)
	assert.NilError(t, err)
	assert.Equal(t, string(b), "old")
	assert.NilError(t, r.Close())
	assert.Equal(t, readString(t, fsys, "target"), "oldnew")
}

func TestStream_failed_reseed_starts_over(t *testing.T) {
	fsys := memfs.New(memfs.Option{})

	s, err := txstream.Open(fsys, "target", vfs.Create)
	assert.NilError(t, err)
	defer s.Close()
	_, err = s.Write([]byte("hello"))
	assert.NilError(t, err)
	assert.NilError(t, s.Commit())

	// copying the committed 5 bytes into the temp file does not fit next to the target.
	fsys.SetMaxSize(8)
	_, err = s.Write([]byte(" world"))
	assert.ErrorIs(t, err, vfs.ErrCapacityExceeded)
	assert.Assert(t, !fsys.FileExists(s.TempPath()))
	length, err := s.Length()
	assert.NilError(t, err)
	assert.Equal(t, length, int64(5))

	fsys.SetMaxSize(0)
	_, err = s.Write([]byte("!"))
	assert.NilError(t, err)
	assert.NilError(t, s.Commit())
	assert.NilError(t, s.Close())

	assert.Equal(t, readString(t, fsys, "target"), "hello!")
	assert.Assert(t, !fsys.FileExists(s.TempPath()))
	vfstest.AssertTotalSize(t, fsys)
}

func TestStream_open_next_to_shared_writer(t *testing.T) {
	openWriter := func(t *testing.T, fsys vfs.FileSystem) vfs.File {
		t.Helper()
		w, err := fsys.Open("target", vfs.Open, vfs.AccessWrite, vfs.ShareReadWrite|vfs.ShareDelete)
		assert.NilError(t, err)
		return w
	}

	for _, tc := range []struct {
		mode vfs.OpenMode
		want string
	}{
		{vfs.Create, "+!"},
		{vfs.Truncate, "+!"},
		{vfs.Open, "old+!"},
		{vfs.OpenOrCreate, "old+!"},
		{vfs.Append, "old+!"},
	} {
		t.Run(tc.mode.String(), func(t *testing.T) {
			fsys := memfs.New(memfs.Option{})
			assert.NilError(t, vfs.WriteFile(fsys, "target", []byte("old")))

			w1 := openWriter(t, fsys)
			s, err := txstream.Open(fsys, "target", tc.mode)
			assert.NilError(t, err)
			defer s.Close()
			_, err = s.Write([]byte("+"))
			assert.NilError(t, err)
			assert.NilError(t, s.Commit())

			// the next write copies the committed target while another writer holds it.
			w2 := openWriter(t, fsys)
			_, err = s.Write([]byte("!"))
			assert.NilError(t, err)
			assert.NilError(t, s.Commit())
			assert.NilError(t, s.Close())

			assert.NilError(t, w1.Close())
			assert.NilError(t, w2.Close())
			assert.Equal(t, readString(t, fsys, "target"), tc.want)
		})
	}
}
