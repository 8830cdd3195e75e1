package vfstest

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/ngicks/go-fsys-helper/vfs"
)

func testShareArbitration(t *testing.T, fsys vfs.FileSystem) {
	writeString(t, fsys, "file", "abc")

	t.Run("readers sharing read", func(t *testing.T) {
		a := open(t, fsys, "file", vfs.Open, vfs.AccessRead, vfs.ShareRead)
		b := open(t, fsys, "file", vfs.Open, vfs.AccessRead, vfs.ShareRead)

		_, err := fsys.Open("file", vfs.Open, vfs.AccessWrite, vfs.ShareReadWrite)
		assertKind(t, err, vfs.KindSharingViolation)

		// out of order release.
		closeFile(t, a)
		_, err = fsys.Open("file", vfs.Open, vfs.AccessWrite, vfs.ShareReadWrite)
		assertKind(t, err, vfs.KindSharingViolation)
		closeFile(t, b)

		c := open(t, fsys, "file", vfs.Open, vfs.AccessWrite, vfs.ShareReadWrite)
		closeFile(t, c)
	})

	t.Run("exclusive", func(t *testing.T) {
		a := open(t, fsys, "file", vfs.Open, vfs.AccessRead, vfs.ShareNone)
		for _, access := range []vfs.Access{vfs.AccessRead, vfs.AccessWrite, vfs.AccessReadWrite} {
			_, err := fsys.Open("file", vfs.Open, access, vfs.ShareReadWrite|vfs.ShareDelete)
			assertKind(t, err, vfs.KindSharingViolation)
		}
		closeFile(t, a)
	})

	t.Run("symmetric", func(t *testing.T) {
		w := open(t, fsys, "file", vfs.Open, vfs.AccessWrite, vfs.ShareReadWrite)
		// w permits reading, but the new handle does not permit w's writing.
		_, err := fsys.Open("file", vfs.Open, vfs.AccessRead, vfs.ShareRead)
		assertKind(t, err, vfs.KindSharingViolation)

		r := open(t, fsys, "file", vfs.Open, vfs.AccessRead, vfs.ShareReadWrite)
		closeFile(t, r)
		closeFile(t, w)
	})

	t.Run("violation does not truncate", func(t *testing.T) {
		r := open(t, fsys, "file", vfs.Open, vfs.AccessRead, vfs.ShareRead)
		_, err := fsys.Open("file", vfs.Create, vfs.AccessWrite, vfs.ShareReadWrite)
		assertKind(t, err, vfs.KindSharingViolation)
		_, err = fsys.Open("file", vfs.Truncate, vfs.AccessWrite, vfs.ShareReadWrite)
		assertKind(t, err, vfs.KindSharingViolation)
		assert.Equal(t, readAll(t, r), "abc")
		closeFile(t, r)
		assert.Equal(t, readString(t, fsys, "file"), "abc")
	})

	t.Run("delete share does not grant read or write", func(t *testing.T) {
		a := open(t, fsys, "file", vfs.Open, vfs.AccessRead, vfs.ShareDelete)
		_, err := fsys.Open("file", vfs.Open, vfs.AccessRead, vfs.ShareReadWrite|vfs.ShareDelete)
		assertKind(t, err, vfs.KindSharingViolation)
		closeFile(t, a)
	})

	t.Run("different files do not interfere", func(t *testing.T) {
		writeString(t, fsys, "other", "x")
		a := open(t, fsys, "file", vfs.Open, vfs.AccessReadWrite, vfs.ShareNone)
		b := open(t, fsys, "other", vfs.Open, vfs.AccessReadWrite, vfs.ShareNone)
		closeFile(t, b)
		closeFile(t, a)
	})
}
