package vfstest

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/txstream"
)

func testTransactionStream(t *testing.T, fsys vfs.FileSystem) {
	t.Run("rollback", func(t *testing.T) {
		writeString(t, fsys, "rollback", "ORIGINAL_IMPORTANT_DATA")

		errBoom := errors.New("boom")
		err := func() error {
			s, err := txstream.Open(fsys, "rollback", vfs.Create)
			if err != nil {
				return err
			}
			defer s.Close()
			if _, err := s.Write([]byte("PARTIAL")); err != nil {
				return err
			}
			return errBoom
		}()
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, readString(t, fsys, "rollback"), "ORIGINAL_IMPORTANT_DATA")
		assert.Assert(t, !fsys.FileExists("rollback"+txstream.DefaultTempSuffix))
		AssertTotalSize(t, fsys)
	})

	t.Run("multi commit", func(t *testing.T) {
		writeString(t, fsys, "multi", "")
		s, err := txstream.Open(fsys, "multi", vfs.Create)
		assert.NilError(t, err)
		defer s.Close()

		for _, step := range []struct{ write, want string }{
			{"hello", "hello"},
			{" world", "hello world"},
			{"!", "hello world!"},
		} {
			_, err := s.Write([]byte(step.write))
			assert.NilError(t, err)
			committed, err := s.Committed()
			assert.NilError(t, err)
			assert.Assert(t, !committed)

			assert.NilError(t, s.Commit())
			assert.Equal(t, readString(t, fsys, "multi"), step.want)
			committed, err = s.Committed()
			assert.NilError(t, err)
			assert.Assert(t, committed)

			length, err := s.Length()
			assert.NilError(t, err)
			assert.Equal(t, length, int64(len(step.want)))
			pos, err := s.Position()
			assert.NilError(t, err)
			assert.Equal(t, pos, int64(len(step.want)))
		}
		assert.NilError(t, s.Close())
		assert.Equal(t, readString(t, fsys, "multi"), "hello world!")
		assert.Assert(t, !fsys.FileExists("multi"+txstream.DefaultTempSuffix))
		AssertTotalSize(t, fsys)
	})

	t.Run("close twice", func(t *testing.T) {
		writeString(t, fsys, "twice", "keep")
		s, err := txstream.Open(fsys, "twice", vfs.Append)
		assert.NilError(t, err)
		_, err = s.Write([]byte("discarded"))
		assert.NilError(t, err)

		assert.NilError(t, s.Close())
		sizeAfterFirst := fsys.TotalSize()
		assert.NilError(t, s.Close())
		assert.Equal(t, fsys.TotalSize(), sizeAfterFirst)
		assert.Equal(t, readString(t, fsys, "twice"), "keep")
		assert.Assert(t, !fsys.FileExists("twice"+txstream.DefaultTempSuffix))

		assert.Assert(t, !s.CanWrite())
		_, err = s.Write([]byte("x"))
		assertKind(t, err, vfs.KindInvalidState)
		assertKind(t, s.Commit(), vfs.KindInvalidState)
		_, err = s.Length()
		assertKind(t, err, vfs.KindInvalidState)
		_, err = s.Position()
		assertKind(t, err, vfs.KindInvalidState)
		_, err = s.Committed()
		assertKind(t, err, vfs.KindInvalidState)
	})

	t.Run("stale temp", func(t *testing.T) {
		writeString(t, fsys, "stale"+txstream.DefaultTempSuffix, "GARBAGE")

		s, err := txstream.Open(fsys, "stale", vfs.Append)
		assert.NilError(t, err)
		_, err = s.Write([]byte("newdata"))
		assert.NilError(t, err)
		assert.NilError(t, s.Commit())
		assert.NilError(t, s.Close())

		assert.Equal(t, readString(t, fsys, "stale"), "newdata")
		assert.Assert(t, !fsys.FileExists("stale"+txstream.DefaultTempSuffix))
	})

	t.Run("append seeds from target", func(t *testing.T) {
		writeString(t, fsys, "seeded", "head,")
		s, err := txstream.Open(fsys, "seeded", vfs.Append)
		assert.NilError(t, err)
		length, err := s.Length()
		assert.NilError(t, err)
		assert.Equal(t, length, int64(5))
		_, err = s.Write([]byte("tail"))
		assert.NilError(t, err)
		// not visible until committed.
		assert.Equal(t, readString(t, fsys, "seeded"), "head,")
		assert.NilError(t, s.Commit())
		assert.NilError(t, s.Close())
		assert.Equal(t, readString(t, fsys, "seeded"), "head,tail")
	})
}
