package vfstest

import (
	"bytes"
	"io"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/ngicks/go-fsys-helper/vfs"
)

func testExistence(t *testing.T, fsys vfs.FileSystem) {
	assert.NilError(t, fsys.CreateDirectory("dir"))
	writeString(t, fsys, "dir/file.txt", "foo")

	assert.Assert(t, fsys.FileExists("dir/file.txt"))
	assert.Assert(t, fsys.FileExists("/dir/./file.txt"))
	assert.Assert(t, !fsys.FileExists("dir"))
	assert.Assert(t, !fsys.FileExists("dir/missing"))
	assert.Assert(t, !fsys.FileExists("dir/file.txt/nested"))

	assert.Assert(t, fsys.DirectoryExists("dir"))
	assert.Assert(t, fsys.DirectoryExists(""))
	assert.Assert(t, fsys.DirectoryExists("/"))
	assert.Assert(t, !fsys.DirectoryExists("dir/file.txt"))
	assert.Assert(t, !fsys.DirectoryExists("missing"))
}

func testOpenModes(t *testing.T, fsys vfs.FileSystem) {
	type testCase struct {
		mode   vfs.OpenMode
		exists bool
		// kind is the expected error kind, KindOther for success.
		kind    vfs.Kind
		wantLen int64
		wantPos int64
	}
	const content = "existing"
	for _, tc := range []testCase{
		{vfs.CreateNew, false, vfs.KindOther, 0, 0},
		{vfs.CreateNew, true, vfs.KindAlreadyExists, 0, 0},
		{vfs.Create, false, vfs.KindOther, 0, 0},
		{vfs.Create, true, vfs.KindOther, 0, 0},
		{vfs.Open, false, vfs.KindNotFound, 0, 0},
		{vfs.Open, true, vfs.KindOther, int64(len(content)), 0},
		{vfs.OpenOrCreate, false, vfs.KindOther, 0, 0},
		{vfs.OpenOrCreate, true, vfs.KindOther, int64(len(content)), 0},
		{vfs.Truncate, false, vfs.KindNotFound, 0, 0},
		{vfs.Truncate, true, vfs.KindOther, 0, 0},
		{vfs.Append, false, vfs.KindOther, 0, 0},
		{vfs.Append, true, vfs.KindOther, int64(len(content)), int64(len(content))},
	} {
		name := "mode_" + tc.mode.String()
		if tc.exists {
			name += "_exists"
			writeString(t, fsys, name, content)
		}
		f, err := fsys.Open(name, tc.mode, vfs.AccessWrite, vfs.ShareNone)
		if tc.kind != vfs.KindOther {
			assertKind(t, err, tc.kind)
			if tc.exists {
				assert.Equal(t, readString(t, fsys, name), content)
			} else {
				assert.Assert(t, !fsys.FileExists(name))
			}
			continue
		}
		assert.NilError(t, err, "mode = %s, exists = %t", tc.mode, tc.exists)
		info, err := f.Stat()
		assert.NilError(t, err)
		assert.Equal(t, info.Size(), tc.wantLen, "mode = %s, exists = %t", tc.mode, tc.exists)
		assert.Equal(t, position(t, f), tc.wantPos, "mode = %s, exists = %t", tc.mode, tc.exists)
		closeFile(t, f)
		assert.Assert(t, fsys.FileExists(name))
		AssertTotalSize(t, fsys)
	}
}

func testOpenValidation(t *testing.T, fsys vfs.FileSystem) {
	for _, tc := range []struct {
		mode   vfs.OpenMode
		access vfs.Access
		share  vfs.Share
	}{
		{vfs.Append, vfs.AccessRead, vfs.ShareNone},
		{vfs.Append, vfs.AccessReadWrite, vfs.ShareNone},
		{vfs.Truncate, vfs.AccessRead, vfs.ShareNone},
		{vfs.Create, vfs.AccessRead, vfs.ShareNone},
		{vfs.CreateNew, vfs.AccessRead, vfs.ShareNone},
		{0, vfs.AccessRead, vfs.ShareNone},
		{vfs.Open, 0, vfs.ShareNone},
		{vfs.Open, vfs.AccessRead, 0x10},
	} {
		// the parent does not exist; validation must fail first anyway.
		_, err := fsys.Open("missing/file", tc.mode, tc.access, tc.share)
		assertKind(t, err, vfs.KindInvalidArgument)
	}
	assert.Assert(t, !fsys.DirectoryExists("missing"))
}

func testOpenErrors(t *testing.T, fsys vfs.FileSystem) {
	_, err := fsys.Open("missing/file", vfs.OpenOrCreate, vfs.AccessWrite, vfs.ShareNone)
	assertKind(t, err, vfs.KindNotFound)

	assert.NilError(t, fsys.CreateDirectory("dir"))
	_, err = fsys.Open("dir", vfs.OpenOrCreate, vfs.AccessRead, vfs.ShareNone)
	assertKind(t, err, vfs.KindAccessDenied)
	_, err = fsys.Open("", vfs.Open, vfs.AccessRead, vfs.ShareNone)
	assertKind(t, err, vfs.KindAccessDenied)

	writeString(t, fsys, "file", "foo")
	_, err = fsys.Open("file/child", vfs.OpenOrCreate, vfs.AccessWrite, vfs.ShareNone)
	assertKind(t, err, vfs.KindNotFound)

	assert.NilError(t, fsys.SetReadOnly("file", true))
	_, err = fsys.Open("file", vfs.Open, vfs.AccessWrite, vfs.ShareNone)
	assertKind(t, err, vfs.KindAccessDenied)
	_, err = fsys.Open("file", vfs.Create, vfs.AccessWrite, vfs.ShareNone)
	assertKind(t, err, vfs.KindAccessDenied)
	assert.Equal(t, readString(t, fsys, "file"), "foo")
	assert.NilError(t, fsys.SetReadOnly("file", false))
}

func testAppendDiscipline(t *testing.T, fsys vfs.FileSystem) {
	writeString(t, fsys, "log", "0123")

	f := open(t, fsys, "log", vfs.Append, vfs.AccessWrite, vfs.ShareNone)
	assert.Equal(t, position(t, f), int64(4))

	_, err := f.Seek(0, io.SeekStart)
	assertKind(t, err, vfs.KindInvalidArgument)
	_, err = f.Seek(-1, io.SeekEnd)
	assertKind(t, err, vfs.KindInvalidArgument)
	assert.Equal(t, position(t, f), int64(4))

	_, err = f.Read(make([]byte, 1))
	assertKind(t, err, vfs.KindNotSupported)
	assertKind(t, f.Truncate(2), vfs.KindInvalidArgument)

	_, err = f.Write([]byte("45"))
	assert.NilError(t, err)
	// seeking back to the floor is fine; the bytes written in this session may be overwritten.
	pos, err := f.Seek(4, io.SeekStart)
	assert.NilError(t, err)
	assert.Equal(t, pos, int64(4))
	_, err = f.Write([]byte("ab"))
	assert.NilError(t, err)
	closeFile(t, f)

	assert.Equal(t, readString(t, fsys, "log"), "0123ab")
	AssertTotalSize(t, fsys)
}

func testHandle(t *testing.T, fsys vfs.FileSystem) {
	writeString(t, fsys, "file", "hello")

	r := open(t, fsys, "file", vfs.Open, vfs.AccessRead, vfs.ShareRead)
	_, err := r.Write([]byte("x"))
	assertKind(t, err, vfs.KindNotSupported)
	assertKind(t, r.Truncate(0), vfs.KindNotSupported)
	assert.Equal(t, readAll(t, r), "hello")
	n, err := r.Read(make([]byte, 1))
	assert.Equal(t, n, 0)
	assert.ErrorIs(t, err, io.EOF)

	pos, err := r.Seek(-2, io.SeekEnd)
	assert.NilError(t, err)
	assert.Equal(t, pos, int64(3))
	assert.Equal(t, readAll(t, r), "lo")
	_, err = r.Seek(-1, io.SeekStart)
	assertKind(t, err, vfs.KindInvalidArgument)

	info, err := r.Stat()
	assert.NilError(t, err)
	assert.Equal(t, info.Name(), "file")
	assert.Equal(t, info.Size(), int64(5))
	assert.Assert(t, !info.IsDir())
	closeFile(t, r)

	_, err = r.Read(make([]byte, 1))
	assertKind(t, err, vfs.KindInvalidState)
	assertKind(t, r.Close(), vfs.KindInvalidState)

	w := open(t, fsys, "file", vfs.Open, vfs.AccessReadWrite, vfs.ShareNone)
	assert.NilError(t, w.Truncate(8))
	_, err = w.Seek(0, io.SeekEnd)
	assert.NilError(t, err)
	_, err = w.Write([]byte("!"))
	assert.NilError(t, err)
	assert.NilError(t, w.Sync())
	_, err = w.Seek(0, io.SeekStart)
	assert.NilError(t, err)
	assert.Equal(t, readAll(t, w), "hello\x00\x00\x00!")
	assert.NilError(t, w.Truncate(2))
	closeFile(t, w)

	assert.Equal(t, readString(t, fsys, "file"), "he")
	AssertTotalSize(t, fsys)
}

func testRoundTrip(t *testing.T, fsys vfs.FileSystem, maxSize int) {
	for _, size := range []int{0, 1, 4096 + 3, 64 * 1024, maxSize} {
		data := make([]byte, size)
		for i := range data {
			data[i] = byte(i*31 + i/256)
		}
		assert.NilError(t, vfs.WriteFile(fsys, "roundtrip", data))
		got, err := vfs.ReadFile(fsys, "roundtrip")
		assert.NilError(t, err)
		assert.Equal(t, len(got), len(data))
		assert.Assert(t, bytes.Equal(got, data), "size = %d", size)

		n, err := fsys.FileLength("roundtrip")
		assert.NilError(t, err)
		assert.Equal(t, n, int64(size))
		AssertTotalSize(t, fsys)
	}
}
