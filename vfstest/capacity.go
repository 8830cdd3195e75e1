package vfstest

import (
	"io"
	"math/rand/v2"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/ngicks/go-fsys-helper/vfs"
)

func testCapacityThrow(t *testing.T, fsys vfs.FileSystem) {
	writeString(t, fsys, "a", "12345")
	writeString(t, fsys, "b", "123")
	fsys.SetOverflowBehavior(vfs.ThrowException)
	fsys.SetMaxSize(fsys.TotalSize())
	assert.Equal(t, fsys.MaxSize(), int64(8))

	// net zero change.
	f := open(t, fsys, "a", vfs.Open, vfs.AccessWrite, vfs.ShareNone)
	_, err := f.Write([]byte("abcde"))
	assert.NilError(t, err)
	// one more byte.
	_, err = f.Write([]byte("f"))
	assertKind(t, err, vfs.KindCapacityExceeded)
	assertKind(t, f.Truncate(6), vfs.KindCapacityExceeded)
	// shrinking is always accepted.
	assert.NilError(t, f.Truncate(4))
	closeFile(t, f)
	assert.Equal(t, readString(t, fsys, "a"), "abcd")
	AssertTotalSize(t, fsys)

	fsys.SetMaxSize(fsys.TotalSize())
	assertKind(t, vfs.AppendFile(fsys, "b", []byte("x")), vfs.KindCapacityExceeded)
	assert.Equal(t, readString(t, fsys, "b"), "123")

	f = open(t, fsys, "a", vfs.Open, vfs.AccessWrite, vfs.ShareNone)
	_, err = f.Write([]byte("wxyz!"))
	assertKind(t, err, vfs.KindCapacityExceeded)
	closeFile(t, f)
	assert.Equal(t, readString(t, fsys, "a"), "abcd")

	assertKind(t, fsys.CopyFile("a", "c", false), vfs.KindCapacityExceeded)
	assert.Assert(t, !fsys.FileExists("c"))
	// replacing with smaller content.
	assert.NilError(t, fsys.CopyFile("b", "a", true))
	assert.Equal(t, readString(t, fsys, "a"), "123")
	assert.Equal(t, fsys.TotalSize(), int64(6))

	fsys.SetMaxSize(0)
	assert.NilError(t, vfs.AppendFile(fsys, "b", []byte("unlimited")))
	AssertTotalSize(t, fsys)
}

func testCapacityIgnore(t *testing.T, fsys vfs.FileSystem) {
	writeString(t, fsys, "a", "1234")
	fsys.SetOverflowBehavior(vfs.IgnoreWrites)
	fsys.SetMaxSize(6)

	f := open(t, fsys, "a", vfs.Append, vfs.AccessWrite, vfs.ShareNone)
	n, err := f.Write([]byte("567"))
	assert.NilError(t, err)
	assert.Equal(t, n, 3)
	assert.Equal(t, position(t, f), int64(4))
	n, err = f.Write([]byte("56"))
	assert.NilError(t, err)
	assert.Equal(t, n, 2)
	closeFile(t, f)
	assert.Equal(t, readString(t, fsys, "a"), "123456")

	assert.NilError(t, fsys.CopyFile("a", "b", false))
	assert.Assert(t, !fsys.FileExists("b"))
	assert.Equal(t, fsys.TotalSize(), int64(6))
	AssertTotalSize(t, fsys)
}

func testCapacityEvict(t *testing.T, fsys vfs.FileSystem) {
	fsys.SetOverflowBehavior(vfs.EvictOldest)
	fsys.SetMaxSize(15)

	for _, name := range []string{"old1", "old2", "old3"} {
		writeString(t, fsys, name, "4444")
	}
	assert.Equal(t, fsys.TotalSize(), int64(12))

	writeString(t, fsys, "new", "0123456789")
	assert.Assert(t, !fsys.FileExists("old1"))
	assert.Assert(t, !fsys.FileExists("old2"))
	assert.Assert(t, fsys.FileExists("old3"))
	assert.Equal(t, readString(t, fsys, "new"), "0123456789")
	assert.Equal(t, fsys.TotalSize(), int64(14))

	// open files are not evicted, and nothing is evicted when the write can not fit anyway.
	r := open(t, fsys, "old3", vfs.Open, vfs.AccessRead, vfs.ShareRead)
	assertKind(t, vfs.AppendFile(fsys, "new", []byte("ab")), vfs.KindCapacityExceeded)
	assert.Assert(t, fsys.FileExists("old3"))
	closeFile(t, r)

	// neither are read-only ones.
	assert.NilError(t, fsys.SetReadOnly("old3", true))
	assertKind(t, vfs.AppendFile(fsys, "new", []byte("ab")), vfs.KindCapacityExceeded)
	assert.Assert(t, fsys.FileExists("old3"))
	assert.NilError(t, fsys.SetReadOnly("old3", false))

	assert.NilError(t, vfs.AppendFile(fsys, "new", []byte("a")))
	assert.Assert(t, fsys.FileExists("old3"))
	assert.NilError(t, vfs.AppendFile(fsys, "new", []byte("b")))
	assert.Assert(t, !fsys.FileExists("old3"))
	assert.Equal(t, readString(t, fsys, "new"), "0123456789ab")
	assert.Equal(t, fsys.TotalSize(), int64(12))

	// a write larger than the budget fails without evicting.
	writeString(t, fsys, "small", "s")
	assertKind(t, vfs.WriteFile(fsys, "huge", make([]byte, 16)), vfs.KindCapacityExceeded)
	assert.Assert(t, fsys.FileExists("small"))
	AssertTotalSize(t, fsys)
}

func testTotalSizeInvariant(t *testing.T, fsys vfs.FileSystem, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	names := []string{"a", "b", "d1/c", "d1/d", "d2/e", "d2/sub/f"}
	dirNames := []string{"d1", "d2", "d2/sub"}
	pick := func(s []string) string { return s[rng.IntN(len(s))] }
	payload := func(n int) []byte { return []byte(strings.Repeat("x", n)) }

	for _, d := range dirNames {
		assert.NilError(t, fsys.CreateDirectory(d))
	}
	for i := range 300 {
		switch i {
		case 100:
			fsys.SetMaxSize(256)
			fsys.SetOverflowBehavior(vfs.EvictOldest)
		case 200:
			fsys.SetOverflowBehavior(vfs.ThrowException)
		}
		switch rng.IntN(9) {
		case 0:
			_ = fsys.CreateDirectory(pick(dirNames))
		case 1, 2:
			_ = vfs.WriteFile(fsys, pick(names), payload(rng.IntN(64)))
		case 3:
			_ = vfs.AppendFile(fsys, pick(names), payload(rng.IntN(32)))
		case 4:
			_ = fsys.DeleteFile(pick(names))
		case 5:
			_ = fsys.MoveFile(pick(names), pick(names), rng.IntN(2) == 0)
		case 6:
			_ = fsys.CopyFile(pick(names), pick(names), rng.IntN(2) == 0)
		case 7:
			f, err := fsys.Open(pick(names), vfs.OpenOrCreate, vfs.AccessReadWrite, vfs.ShareNone)
			if err == nil {
				_ = f.Truncate(int64(rng.IntN(48)))
				_, _ = f.Seek(int64(rng.IntN(16)), io.SeekEnd)
				_, _ = f.Write(payload(rng.IntN(8)))
				_ = f.Close()
			}
		case 8:
			if rng.IntN(4) == 0 {
				_ = fsys.DeleteDirectory(pick(dirNames), true)
			}
		}
		AssertTotalSize(t, fsys)
	}
}
