package aferofs

import (
	"cmp"
	"fmt"
	"io"
	"io/fs"
	"slices"

	"github.com/spf13/afero"

	"github.com/ngicks/go-fsys-helper/vfs"
)

var _ afero.File = (*dir)(nil)

// dir is a handle to a directory. Its entries are read on the first Readdir.
type dir struct {
	fsys    vfs.FileSystem
	name    string
	path    string
	entries []fs.FileInfo
	read    bool
	closed  bool
}

func (d *dir) errClosed(op string) error {
	return &fs.PathError{Op: op, Path: d.name, Err: fs.ErrClosed}
}

func (d *dir) isDirErr(op string) error {
	return &fs.PathError{Op: op, Path: d.name, Err: fmt.Errorf("%w: is a directory", vfs.ErrInvalidArgument)}
}

func (d *dir) Name() string { return d.name }

func (d *dir) Close() error {
	if d.closed {
		return d.errClosed("close")
	}
	d.closed = true
	return nil
}

func (d *dir) Read(p []byte) (int, error)                   { return 0, d.isDirErr("read") }
func (d *dir) ReadAt(p []byte, off int64) (int, error)      { return 0, d.isDirErr("read") }
func (d *dir) Write(p []byte) (int, error)                  { return 0, d.isDirErr("write") }
func (d *dir) WriteAt(p []byte, off int64) (int, error)     { return 0, d.isDirErr("write") }
func (d *dir) WriteString(s string) (int, error)            { return 0, d.isDirErr("write") }
func (d *dir) Seek(offset int64, whence int) (int64, error) { return 0, d.isDirErr("seek") }
func (d *dir) Truncate(size int64) error                    { return d.isDirErr("truncate") }
func (d *dir) Sync() error                                  { return nil }

func (d *dir) Stat() (fs.FileInfo, error) {
	if d.closed {
		return nil, d.errClosed("stat")
	}
	info, err := d.fsys.Stat(d.path)
	if err != nil {
		return nil, vfs.WrapPathErr("stat", d.name, err)
	}
	return info, nil
}

func (d *dir) load() error {
	if d.read {
		return nil
	}
	dirs, err := vfs.Collect(d.fsys.EnumerateDirectories(d.path, "*", vfs.TopOnly))
	if err != nil {
		return vfs.WrapPathErr("readdir", d.name, err)
	}
	files, err := vfs.Collect(d.fsys.EnumerateFiles(d.path, "*", vfs.TopOnly))
	if err != nil {
		return vfs.WrapPathErr("readdir", d.name, err)
	}
	for _, p := range slices.Concat(dirs, files) {
		info, err := d.fsys.Stat(p)
		if err != nil {
			continue
		}
		d.entries = append(d.entries, info)
	}
	slices.SortFunc(d.entries, func(i, j fs.FileInfo) int { return cmp.Compare(i.Name(), j.Name()) })
	d.read = true
	return nil
}

// Readdir behaves like [os.File.Readdir].
func (d *dir) Readdir(count int) ([]fs.FileInfo, error) {
	if d.closed {
		return nil, d.errClosed("readdir")
	}
	if err := d.load(); err != nil {
		return nil, err
	}
	if count <= 0 {
		out := d.entries
		d.entries = nil
		return out, nil
	}
	if len(d.entries) == 0 {
		return nil, io.EOF
	}
	count = min(count, len(d.entries))
	out := d.entries[:count:count]
	d.entries = d.entries[count:]
	return out, nil
}

func (d *dir) Readdirnames(n int) ([]string, error) {
	infos, err := d.Readdir(n)
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, err
}
