package vfs

import (
	"cmp"
	"fmt"
	"io"
	"io/fs"
	"slices"
)

var (
	_ fs.FS         = (*IoFs)(nil)
	_ fs.ReadDirFS  = (*IoFs)(nil)
	_ fs.ReadFileFS = (*IoFs)(nil)
	_ fs.StatFS     = (*IoFs)(nil)
)

// IoFs is a read-only [fs.FS] view of a FileSystem.
// Files are opened with [ShareRead], so opening a file fails while it is being written.
type IoFs struct {
	fsys FileSystem
}

func ToIoFs(fsys FileSystem) *IoFs {
	return &IoFs{fsys: fsys}
}

func validPath(op, name string) error {
	if !fs.ValidPath(name) {
		return &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	return nil
}

func (fsys *IoFs) Open(name string) (fs.File, error) {
	if err := validPath("open", name); err != nil {
		return nil, err
	}
	if fsys.fsys.DirectoryExists(name) {
		return &dirFile{fsys: fsys, name: name}, nil
	}
	f, err := fsys.fsys.Open(name, Open, AccessRead, ShareRead)
	if err != nil {
		return nil, WrapPathErr("open", name, err)
	}
	return &readOnlyFile{File: f, fsys: fsys, name: name}, nil
}

func (fsys *IoFs) ReadDir(name string) ([]fs.DirEntry, error) {
	if err := validPath("readdir", name); err != nil {
		return nil, err
	}
	seq, err := fsys.fsys.EnumerateDirectories(name, "*", TopOnly)
	if err != nil {
		return nil, WrapPathErr("readdir", name, err)
	}
	dirs := slices.Collect(seq)
	seq, err = fsys.fsys.EnumerateFiles(name, "*", TopOnly)
	if err != nil {
		return nil, WrapPathErr("readdir", name, err)
	}
	files := slices.Collect(seq)

	entries := make([]fs.DirEntry, 0, len(dirs)+len(files))
	for _, p := range slices.Concat(dirs, files) {
		info, err := fsys.fsys.Stat(p)
		if err != nil {
			// removed meanwhile.
			continue
		}
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}
	slices.SortFunc(entries, func(i, j fs.DirEntry) int { return cmp.Compare(i.Name(), j.Name()) })
	return entries, nil
}

func (fsys *IoFs) ReadFile(name string) ([]byte, error) {
	if err := validPath("readfile", name); err != nil {
		return nil, err
	}
	b, err := ReadFile(fsys.fsys, name)
	if err != nil {
		return nil, WrapPathErr("readfile", name, err)
	}
	return b, nil
}

func (fsys *IoFs) Stat(name string) (fs.FileInfo, error) {
	if err := validPath("stat", name); err != nil {
		return nil, err
	}
	return fsys.stat(name)
}

// stat names the root "." regardless of the backend.
func (fsys *IoFs) stat(name string) (fs.FileInfo, error) {
	info, err := fsys.fsys.Stat(name)
	if err != nil {
		return nil, WrapPathErr("stat", name, err)
	}
	if name == "." && info.Name() != "." {
		info = renamedInfo{FileInfo: info, name: "."}
	}
	return info, nil
}

type renamedInfo struct {
	fs.FileInfo
	name string
}

func (i renamedInfo) Name() string { return i.name }

var _ fs.File = (*readOnlyFile)(nil)

type readOnlyFile struct {
	File
	fsys *IoFs
	name string
}

func (f *readOnlyFile) Stat() (fs.FileInfo, error) {
	return f.fsys.stat(f.name)
}

var _ fs.ReadDirFile = (*dirFile)(nil)

type dirFile struct {
	fsys    *IoFs
	name    string
	entries []fs.DirEntry
	read    bool
	closed  bool
}

func (d *dirFile) Stat() (fs.FileInfo, error) {
	if d.closed {
		return nil, &fs.PathError{Op: "stat", Path: d.name, Err: fs.ErrClosed}
	}
	return d.fsys.stat(d.name)
}

func (d *dirFile) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fmt.Errorf("%w: is a directory", fs.ErrInvalid)}
}

func (d *dirFile) Close() error {
	if d.closed {
		return &fs.PathError{Op: "close", Path: d.name, Err: fs.ErrClosed}
	}
	d.closed = true
	return nil
}

func (d *dirFile) ReadDir(n int) ([]fs.DirEntry, error) {
	if d.closed {
		return nil, &fs.PathError{Op: "readdir", Path: d.name, Err: fs.ErrClosed}
	}
	if !d.read {
		entries, err := d.fsys.ReadDir(d.name)
		if err != nil {
			return nil, err
		}
		d.entries = entries
		d.read = true
	}
	if n <= 0 {
		out := d.entries
		d.entries = nil
		return out, nil
	}
	if len(d.entries) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(d.entries))
	out := d.entries[:n:n]
	d.entries = d.entries[n:]
	return out, nil
}
