// Package vfstest provides a behavioral test suite every [vfs.FileSystem] implementation should pass,
// together with wrappers useful for testing code built on top of the contract.
package vfstest

import (
	"io"
	"slices"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/ngicks/go-fsys-helper/vfs"
)

// Factory returns a new empty file system with no size budget. Each subtest calls it once.
type Factory func(t *testing.T) vfs.FileSystem

// Option tunes TestFileSystem.
type Option struct {
	// RoundTripMax is the largest content size the round trip test writes.
	// If zero, 3 MiB is used.
	RoundTripMax int
	// Seed seeds random operation sequences. If zero, a fixed seed is used.
	Seed uint64
}

func (o Option) applyDefaults() Option {
	if o.RoundTripMax == 0 {
		o.RoundTripMax = 3 << 20
	}
	if o.Seed == 0 {
		o.Seed = 0x5eed
	}
	return o
}

// TestFileSystem runs the whole suite against file systems newFsys returns.
func TestFileSystem(t *testing.T, newFsys Factory, opt Option) {
	opt = opt.applyDefaults()
	for _, tc := range []struct {
		name string
		fn   func(t *testing.T, fsys vfs.FileSystem)
	}{
		{"existence", testExistence},
		{"open modes", testOpenModes},
		{"open validation", testOpenValidation},
		{"open errors", testOpenErrors},
		{"append discipline", testAppendDiscipline},
		{"handle", testHandle},
		{"share arbitration", testShareArbitration},
		{"delete file", testDeleteFile},
		{"delete with share delete", testDeleteWithShareDelete},
		{"move file", testMoveFile},
		{"copy file", testCopyFile},
		{"directories", testDirectories},
		{"move directory", testMoveDirectory},
		{"enumerate", testEnumerate},
		{"attributes and times", testAttributesAndTimes},
		{"capacity throw", testCapacityThrow},
		{"capacity ignore", testCapacityIgnore},
		{"capacity evict", testCapacityEvict},
		{"round trip", func(t *testing.T, fsys vfs.FileSystem) { testRoundTrip(t, fsys, opt.RoundTripMax) }},
		{"total size invariant", func(t *testing.T, fsys vfs.FileSystem) { testTotalSizeInvariant(t, fsys, opt.Seed) }},
		{"transaction stream", testTransactionStream},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newFsys(t))
		})
	}
}

func writeString(t *testing.T, fsys vfs.FileSystem, name, content string) {
	t.Helper()
	assert.NilError(t, vfs.WriteFile(fsys, name, []byte(content)))
}

func readString(t *testing.T, fsys vfs.FileSystem, name string) string {
	t.Helper()
	b, err := vfs.ReadFile(fsys, name)
	assert.NilError(t, err)
	return string(b)
}

func readAll(t *testing.T, f io.Reader) string {
	t.Helper()
	b, err := io.ReadAll(f)
	assert.NilError(t, err)
	return string(b)
}

func assertKind(t *testing.T, err error, kind vfs.Kind) {
	t.Helper()
	assert.Assert(t, err != nil, "expected %s error, got nil", kind)
	assert.Equal(t, vfs.KindOf(err), kind, "err = %v", err)
}

func open(t *testing.T, fsys vfs.FileSystem, name string, mode vfs.OpenMode, access vfs.Access, share vfs.Share) vfs.File {
	t.Helper()
	f, err := fsys.Open(name, mode, access, share)
	assert.NilError(t, err)
	return f
}

func closeFile(t *testing.T, f io.Closer) {
	t.Helper()
	assert.NilError(t, f.Close())
}

func position(t *testing.T, f io.Seeker) int64 {
	t.Helper()
	pos, err := f.Seek(0, io.SeekCurrent)
	assert.NilError(t, err)
	return pos
}

func files(t *testing.T, fsys vfs.FileSystem, dir, pattern string, scope vfs.SearchScope) []string {
	t.Helper()
	seq, err := fsys.EnumerateFiles(dir, pattern, scope)
	assert.NilError(t, err)
	return slices.Collect(seq)
}

func dirs(t *testing.T, fsys vfs.FileSystem, dir, pattern string, scope vfs.SearchScope) []string {
	t.Helper()
	seq, err := fsys.EnumerateDirectories(dir, pattern, scope)
	assert.NilError(t, err)
	return slices.Collect(seq)
}

// SumLengths sums lengths of every file reachable from the root.
func SumLengths(t *testing.T, fsys vfs.FileSystem) int64 {
	t.Helper()
	var sum int64
	for _, name := range files(t, fsys, "", "*", vfs.AllDescendants) {
		n, err := fsys.FileLength(name)
		assert.NilError(t, err)
		sum += n
	}
	return sum
}

// AssertTotalSize checks TotalSize equals the sum of lengths of every file reachable from the root.
func AssertTotalSize(t *testing.T, fsys vfs.FileSystem) {
	t.Helper()
	assert.Equal(t, fsys.TotalSize(), SumLengths(t, fsys))
}
