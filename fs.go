package vfs

import (
	"io"
	"io/fs"
	"iter"
	"time"
)

// FileSystem is the storage contract every backend implements.
//
// All operations are atomic with respect to each other.
// Errors are returned as [*fs.PathError] or [*os.LinkError] wrapping one of the sentinel errors
// defined in this package; use [errors.Is] or [KindOf] to branch on them.
type FileSystem interface {
	// FileExists reports whether name exists and is a file.
	FileExists(name string) bool
	// DirectoryExists reports whether name exists and is a directory.
	DirectoryExists(name string) bool

	// Open opens name and returns a handle.
	//
	// mode decides what happens depending on whether the file exists.
	// access is what the returned handle is allowed to do and share is what other handles
	// opened while the returned one stays open are allowed to do.
	// The parent directory must exist.
	Open(name string, mode OpenMode, access Access, share Share) (File, error)

	// CreateDirectory creates name and every missing ancestor.
	// It is a no-op if the directory already exists.
	CreateDirectory(name string) error
	// DeleteDirectory removes the directory name.
	// It fails with ErrDirectoryNotEmpty if the directory has children and recursive is false.
	DeleteDirectory(name string, recursive bool) error

	// DeleteFile removes the file name. It is a no-op if name does not exist.
	//
	// Open handles must all have been opened with ShareDelete.
	// Those handles stay readable and writable until closed.
	DeleteFile(name string) error
	// MoveFile renames src to dst.
	// If overwrite is true an existing dst is replaced atomically.
	MoveFile(src, dst string, overwrite bool) error
	// CopyFile copies the content of src to dst.
	CopyFile(src, dst string, overwrite bool) error
	// MoveDirectory renames the directory src to dst, creating missing ancestors of dst.
	// dst must not exist.
	MoveDirectory(src, dst string) error

	// EnumerateFiles yields paths of files under dir whose base name matches pattern.
	EnumerateFiles(dir, pattern string, scope SearchScope) (iter.Seq[string], error)
	// EnumerateDirectories yields paths of directories under dir whose base name matches pattern.
	EnumerateDirectories(dir, pattern string, scope SearchScope) (iter.Seq[string], error)

	CreationTime(name string) (time.Time, error)
	LastWriteTime(name string) (time.Time, error)
	// FileLength returns the size of the file name in bytes.
	FileLength(name string) (int64, error)
	Attributes(name string) (Attributes, error)
	SetReadOnly(name string, readOnly bool) error
	Stat(name string) (fs.FileInfo, error)

	// TotalSize returns the sum of the lengths of all files reachable from the root.
	TotalSize() int64
	// MaxSize returns the size budget. 0 means unlimited.
	MaxSize() int64
	// SetMaxSize sets the size budget. Negative values are treated as 0.
	// Lowering the budget below TotalSize does not evict anything by itself.
	SetMaxSize(n int64)
	OverflowBehavior() OverflowBehavior
	SetOverflowBehavior(b OverflowBehavior)
}

// File is an open handle returned from [FileSystem.Open].
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
	// Name returns the path the file was opened with, in canonical form.
	Name() string
	Stat() (fs.FileInfo, error)
	// Truncate changes the length of the file.
	Truncate(size int64) error
	Sync() error
}
