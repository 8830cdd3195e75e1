package vfstest

import (
	"io"
	"io/fs"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/ngicks/go-fsys-helper/vfs"
)

func testDeleteFile(t *testing.T, fsys vfs.FileSystem) {
	assert.NilError(t, fsys.DeleteFile("missing"))
	assert.NilError(t, fsys.DeleteFile("missing/child"))

	assert.NilError(t, fsys.CreateDirectory("dir"))
	assertKind(t, fsys.DeleteFile("dir"), vfs.KindAccessDenied)

	writeString(t, fsys, "file", "foo")
	assert.NilError(t, fsys.SetReadOnly("file", true))
	assertKind(t, fsys.DeleteFile("file"), vfs.KindAccessDenied)
	assert.Assert(t, fsys.FileExists("file"))
	assert.NilError(t, fsys.SetReadOnly("file", false))

	f := open(t, fsys, "file", vfs.Open, vfs.AccessRead, vfs.ShareReadWrite)
	assertKind(t, fsys.DeleteFile("file"), vfs.KindSharingViolation)
	assert.Assert(t, fsys.FileExists("file"))
	closeFile(t, f)

	assert.NilError(t, fsys.DeleteFile("file"))
	assert.Assert(t, !fsys.FileExists("file"))
	assert.Equal(t, fsys.TotalSize(), int64(0))
}

func testDeleteWithShareDelete(t *testing.T, fsys vfs.FileSystem) {
	writeString(t, fsys, "file", "content")

	f := open(t, fsys, "file", vfs.Open, vfs.AccessRead, vfs.ShareRead|vfs.ShareDelete)
	assert.NilError(t, fsys.DeleteFile("file"))
	assert.Assert(t, !fsys.FileExists("file"))
	assert.Equal(t, fsys.TotalSize(), int64(0))

	buf := make([]byte, 16)
	n, err := io.ReadFull(f, buf[:7])
	assert.NilError(t, err)
	assert.Equal(t, n, 7)
	assert.Equal(t, string(buf[:n]), "content")

	// the name is free for an unrelated file.
	writeString(t, fsys, "file", "new")
	assert.Equal(t, readString(t, fsys, "file"), "new")
	closeFile(t, f)
	assert.Equal(t, readString(t, fsys, "file"), "new")
	AssertTotalSize(t, fsys)
}

func testMoveFile(t *testing.T, fsys vfs.FileSystem) {
	assert.NilError(t, fsys.CreateDirectory("a"))
	assert.NilError(t, fsys.CreateDirectory("b"))
	writeString(t, fsys, "a/src", "source")
	writeString(t, fsys, "b/dst", "destination")

	assertKind(t, fsys.MoveFile("a/missing", "b/x", false), vfs.KindNotFound)
	assertKind(t, fsys.MoveFile("a", "b/x", false), vfs.KindNotFound)
	assertKind(t, fsys.MoveFile("a/src", "missing/x", false), vfs.KindNotFound)
	assertKind(t, fsys.MoveFile("a/src", "b/dst", false), vfs.KindAlreadyExists)
	assertKind(t, fsys.MoveFile("a/src", "b", true), vfs.KindAccessDenied)

	f := open(t, fsys, "a/src", vfs.Open, vfs.AccessRead, vfs.ShareRead)
	assertKind(t, fsys.MoveFile("a/src", "b/x", false), vfs.KindSharingViolation)
	closeFile(t, f)

	assert.NilError(t, fsys.MoveFile("a/src", "b/dst", true))
	assert.Assert(t, !fsys.FileExists("a/src"))
	assert.Equal(t, readString(t, fsys, "b/dst"), "source")
	AssertTotalSize(t, fsys)

	// an open handle with delete share keeps reading the moved file.
	f = open(t, fsys, "b/dst", vfs.Open, vfs.AccessRead, vfs.ShareRead|vfs.ShareDelete)
	assert.NilError(t, fsys.MoveFile("b/dst", "a/moved", false))
	assert.Equal(t, readAll(t, f), "source")
	closeFile(t, f)
	assert.Equal(t, readString(t, fsys, "a/moved"), "source")

	// read-only destinations are not replaced.
	writeString(t, fsys, "a/ro", "ro")
	assert.NilError(t, fsys.SetReadOnly("a/ro", true))
	assertKind(t, fsys.MoveFile("a/moved", "a/ro", true), vfs.KindAccessDenied)
	assert.Equal(t, readString(t, fsys, "a/ro"), "ro")
	assert.NilError(t, fsys.SetReadOnly("a/ro", false))
	AssertTotalSize(t, fsys)
}

func testCopyFile(t *testing.T, fsys vfs.FileSystem) {
	writeString(t, fsys, "src", "source")
	writeString(t, fsys, "dst", "old")

	assertKind(t, fsys.CopyFile("missing", "x", false), vfs.KindNotFound)
	assertKind(t, fsys.CopyFile("src", "missing/x", false), vfs.KindNotFound)
	assertKind(t, fsys.CopyFile("src", "dst", false), vfs.KindAlreadyExists)
	assert.Equal(t, readString(t, fsys, "dst"), "old")

	assert.NilError(t, fsys.CopyFile("src", "copy", false))
	assert.NilError(t, fsys.CopyFile("src", "dst", true))
	assert.Equal(t, readString(t, fsys, "copy"), "source")
	assert.Equal(t, readString(t, fsys, "dst"), "source")
	AssertTotalSize(t, fsys)

	// copies are independent.
	writeString(t, fsys, "copy", "changed")
	assert.Equal(t, readString(t, fsys, "src"), "source")

	w := open(t, fsys, "dst", vfs.Open, vfs.AccessRead, vfs.ShareReadWrite)
	assertKind(t, fsys.CopyFile("src", "dst", true), vfs.KindSharingViolation)
	closeFile(t, w)

	// the source may be read by others while being copied.
	r := open(t, fsys, "src", vfs.Open, vfs.AccessRead, vfs.ShareRead)
	assert.NilError(t, fsys.CopyFile("src", "dst2", false))
	closeFile(t, r)
	AssertTotalSize(t, fsys)
}

func testDirectories(t *testing.T, fsys vfs.FileSystem) {
	assert.NilError(t, fsys.CreateDirectory("a/b/c"))
	assert.Assert(t, fsys.DirectoryExists("a"))
	assert.Assert(t, fsys.DirectoryExists("a/b/c"))
	assert.NilError(t, fsys.CreateDirectory("a/b"))
	assert.NilError(t, fsys.CreateDirectory(""))

	writeString(t, fsys, "a/file", "foo")
	assertKind(t, fsys.CreateDirectory("a/file"), vfs.KindAlreadyExists)
	assertKind(t, fsys.CreateDirectory("a/file/sub"), vfs.KindAlreadyExists)

	assertKind(t, fsys.DeleteDirectory("missing", false), vfs.KindNotFound)
	assertKind(t, fsys.DeleteDirectory("a/file", false), vfs.KindNotFound)
	assertKind(t, fsys.DeleteDirectory("a", false), vfs.KindDirectoryNotEmpty)
	assertKind(t, fsys.DeleteDirectory("", true), vfs.KindAccessDenied)

	assert.NilError(t, fsys.DeleteDirectory("a/b/c", false))
	assert.Assert(t, !fsys.DirectoryExists("a/b/c"))

	writeString(t, fsys, "a/b/nested", "nested")
	f := open(t, fsys, "a/b/nested", vfs.Open, vfs.AccessRead, vfs.ShareRead)
	assertKind(t, fsys.DeleteDirectory("a", true), vfs.KindSharingViolation)
	// nothing is removed when any file can not be.
	assert.Assert(t, fsys.FileExists("a/file"))
	assert.Assert(t, fsys.FileExists("a/b/nested"))
	closeFile(t, f)

	assert.NilError(t, fsys.SetReadOnly("a/file", true))
	assertKind(t, fsys.DeleteDirectory("a", true), vfs.KindAccessDenied)
	assert.Assert(t, fsys.FileExists("a/b/nested"))
	assert.NilError(t, fsys.SetReadOnly("a/file", false))

	assert.NilError(t, fsys.DeleteDirectory("a", true))
	assert.Assert(t, !fsys.DirectoryExists("a"))
	assert.Assert(t, !fsys.FileExists("a/b/nested"))
	assert.Equal(t, fsys.TotalSize(), int64(0))
}

func testMoveDirectory(t *testing.T, fsys vfs.FileSystem) {
	assert.NilError(t, fsys.CreateDirectory("src/sub"))
	writeString(t, fsys, "src/a", "a")
	writeString(t, fsys, "src/sub/b", "bb")
	assert.NilError(t, fsys.CreateDirectory("taken"))

	assertKind(t, fsys.MoveDirectory("missing", "x"), vfs.KindNotFound)
	assertKind(t, fsys.MoveDirectory("src/a", "x"), vfs.KindNotFound)
	assertKind(t, fsys.MoveDirectory("src", "taken"), vfs.KindAlreadyExists)
	assertKind(t, fsys.MoveDirectory("src", "src/a"), vfs.KindAlreadyExists)
	assertKind(t, fsys.MoveDirectory("src", "src/sub/inner"), vfs.KindInvalidArgument)

	f := open(t, fsys, "src/sub/b", vfs.Open, vfs.AccessRead, vfs.ShareRead)
	assertKind(t, fsys.MoveDirectory("src", "moved"), vfs.KindSharingViolation)
	closeFile(t, f)

	assert.NilError(t, fsys.MoveDirectory("src", "new/parent/moved"))
	assert.Assert(t, !fsys.DirectoryExists("src"))
	assert.Assert(t, fsys.DirectoryExists("new/parent/moved/sub"))
	assert.Equal(t, readString(t, fsys, "new/parent/moved/a"), "a")
	assert.Equal(t, readString(t, fsys, "new/parent/moved/sub/b"), "bb")
	AssertTotalSize(t, fsys)
}

func testEnumerate(t *testing.T, fsys vfs.FileSystem) {
	assert.NilError(t, fsys.CreateDirectory("d/x/y"))
	assert.NilError(t, fsys.CreateDirectory("d/w"))
	for _, name := range []string{"d/b.txt", "d/a.txt", "d/c.csv", "d/noext", "d/x/n.txt", "d/x/y/m.txt"} {
		writeString(t, fsys, name, name)
	}

	assert.DeepEqual(t, files(t, fsys, "d", "*", vfs.TopOnly), []string{"d/a.txt", "d/b.txt", "d/c.csv", "d/noext"})
	assert.DeepEqual(t, files(t, fsys, "d", "*.*", vfs.TopOnly), []string{"d/a.txt", "d/b.txt", "d/c.csv", "d/noext"})
	assert.DeepEqual(t, files(t, fsys, "/d/", "", vfs.TopOnly), []string{"d/a.txt", "d/b.txt", "d/c.csv", "d/noext"})
	assert.DeepEqual(t, files(t, fsys, "d", "*.txt", vfs.TopOnly), []string{"d/a.txt", "d/b.txt"})
	assert.DeepEqual(
		t,
		files(t, fsys, "d", "*.txt", vfs.AllDescendants),
		[]string{"d/a.txt", "d/b.txt", "d/x/n.txt", "d/x/y/m.txt"},
	)
	assert.DeepEqual(t, files(t, fsys, "d/x", "?.txt", vfs.AllDescendants), []string{"d/x/n.txt", "d/x/y/m.txt"})

	assert.DeepEqual(t, dirs(t, fsys, "d", "*", vfs.TopOnly), []string{"d/w", "d/x"})
	assert.DeepEqual(t, dirs(t, fsys, "d", "*", vfs.AllDescendants), []string{"d/w", "d/x", "d/x/y"})
	assert.DeepEqual(t, dirs(t, fsys, "", "*", vfs.TopOnly), []string{"d"})
	assert.Equal(t, len(files(t, fsys, "d/w", "*", vfs.AllDescendants)), 0)

	_, err := fsys.EnumerateFiles("missing", "*", vfs.TopOnly)
	assertKind(t, err, vfs.KindNotFound)
	_, err = fsys.EnumerateDirectories("d/a.txt", "*", vfs.TopOnly)
	assertKind(t, err, vfs.KindNotFound)
	_, err = fsys.EnumerateFiles("d", "[", vfs.TopOnly)
	assertKind(t, err, vfs.KindInvalidArgument)
}

func testAttributesAndTimes(t *testing.T, fsys vfs.FileSystem) {
	assert.NilError(t, fsys.CreateDirectory("dir"))
	writeString(t, fsys, "dir/file", "foo")

	attr, err := fsys.Attributes("dir")
	assert.NilError(t, err)
	assert.Assert(t, attr.IsDirectory())
	attr, err = fsys.Attributes("dir/file")
	assert.NilError(t, err)
	assert.Equal(t, attr, vfs.AttrNormal)

	assert.NilError(t, fsys.SetReadOnly("dir/file", true))
	attr, err = fsys.Attributes("dir/file")
	assert.NilError(t, err)
	assert.Assert(t, attr.IsReadOnly())
	info, err := fsys.Stat("dir/file")
	assert.NilError(t, err)
	assert.Equal(t, info.Mode().Perm()&0o200, fs.FileMode(0))
	assert.NilError(t, fsys.SetReadOnly("dir/file", false))

	_, err = fsys.Attributes("missing")
	assertKind(t, err, vfs.KindNotFound)
	assertKind(t, fsys.SetReadOnly("missing", true), vfs.KindNotFound)

	n, err := fsys.FileLength("dir/file")
	assert.NilError(t, err)
	assert.Equal(t, n, int64(3))
	_, err = fsys.FileLength("dir")
	assertKind(t, err, vfs.KindNotFound)

	info, err = fsys.Stat("dir")
	assert.NilError(t, err)
	assert.Assert(t, info.IsDir())
	_, err = fsys.Stat("missing")
	assertKind(t, err, vfs.KindNotFound)

	for _, name := range []string{"dir", "dir/file"} {
		ctime, err := fsys.CreationTime(name)
		assert.NilError(t, err)
		mtime, err := fsys.LastWriteTime(name)
		assert.NilError(t, err)
		assert.Assert(t, !ctime.IsZero())
		assert.Assert(t, !mtime.IsZero())
		assert.Equal(t, ctime.Location(), time.UTC)
		assert.Equal(t, mtime.Location(), time.UTC)
	}
	_, err = fsys.CreationTime("missing")
	assertKind(t, err, vfs.KindNotFound)
	_, err = fsys.LastWriteTime("missing")
	assertKind(t, err, vfs.KindNotFound)
}
