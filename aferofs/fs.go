// Package aferofs exposes a [vfs.FileSystem] as an [afero.Fs],
// so that code written against afero can run on any backend.
//
// Handles are opened sharing read, write and delete with others,
// which approximates what POSIX programs expect.
// Ownership and timestamps can not be changed.
package aferofs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/ngicks/go-fsys-helper/vfs"
)

// openShare is the share every handle opened through Fs uses.
const openShare = vfs.ShareReadWrite | vfs.ShareDelete

var _ afero.Fs = (*Fs)(nil)

type Fs struct {
	fsys vfs.FileSystem
}

func New(fsys vfs.FileSystem) *Fs {
	return &Fs{fsys: fsys}
}

func toVfsPath(name string) string {
	return path.Clean("/" + filepath.ToSlash(name))
}

func (a *Fs) Name() string {
	return "vfs"
}

func (a *Fs) Create(name string) (afero.File, error) {
	return a.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

func (a *Fs) Mkdir(name string, perm fs.FileMode) error {
	p := toVfsPath(name)
	switch {
	case a.fsys.DirectoryExists(p), a.fsys.FileExists(p):
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
	case !a.fsys.DirectoryExists(path.Dir(p)):
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrNotExist}
	}
	return vfs.WrapPathErr("mkdir", name, a.fsys.CreateDirectory(p))
}

func (a *Fs) MkdirAll(name string, perm fs.FileMode) error {
	p := toVfsPath(name)
	if a.fsys.DirectoryExists(p) {
		return nil
	}
	return vfs.WrapPathErr("mkdir", name, a.fsys.CreateDirectory(p))
}

func (a *Fs) Open(name string) (afero.File, error) {
	return a.OpenFile(name, os.O_RDONLY, 0)
}

func accessOf(flag int) vfs.Access {
	switch flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR) {
	case os.O_WRONLY:
		return vfs.AccessWrite
	case os.O_RDWR:
		return vfs.AccessReadWrite
	}
	return vfs.AccessRead
}

func modeOf(flag int) vfs.OpenMode {
	switch {
	case flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0:
		return vfs.CreateNew
	case flag&os.O_CREATE != 0 && flag&os.O_TRUNC != 0:
		return vfs.Create
	case flag&os.O_CREATE != 0:
		return vfs.OpenOrCreate
	case flag&os.O_TRUNC != 0:
		return vfs.Truncate
	}
	return vfs.Open
}

func (a *Fs) OpenFile(name string, flag int, perm fs.FileMode) (afero.File, error) {
	p := toVfsPath(name)
	access := accessOf(flag)
	if a.fsys.DirectoryExists(p) {
		if access.CanWrite() {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fmt.Errorf("%w: is a directory", vfs.ErrAccessDenied)}
		}
		return &dir{fsys: a.fsys, name: name, path: p}, nil
	}

	mode := modeOf(flag)
	// write-only O_APPEND maps to Append. Otherwise the cursor is only moved to the end once.
	appendOnly := flag&os.O_APPEND != 0 && access == vfs.AccessWrite && mode == vfs.OpenOrCreate
	if appendOnly {
		mode = vfs.Append
	}
	created := false
	if mode != vfs.Open && mode != vfs.Truncate {
		created = !a.fsys.FileExists(p)
	}

	f, err := a.fsys.Open(p, mode, access, openShare)
	if err != nil {
		return nil, vfs.WrapPathErr("open", name, err)
	}
	if created && perm&0o200 == 0 {
		// the handle keeps writing, as on POSIX.
		if err := a.fsys.SetReadOnly(p, true); err != nil {
			_ = f.Close()
			return nil, vfs.WrapPathErr("open", name, err)
		}
	}
	file := &File{f: f, name: name}
	if flag&os.O_APPEND != 0 && !appendOnly {
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			_ = f.Close()
			return nil, vfs.WrapPathErr("open", name, err)
		}
	}
	return file, nil
}

func (a *Fs) Remove(name string) error {
	p := toVfsPath(name)
	switch {
	case a.fsys.DirectoryExists(p):
		return vfs.WrapPathErr("remove", name, a.fsys.DeleteDirectory(p, false))
	case a.fsys.FileExists(p):
		return vfs.WrapPathErr("remove", name, a.fsys.DeleteFile(p))
	}
	return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
}

func (a *Fs) RemoveAll(name string) error {
	p := toVfsPath(name)
	switch {
	case a.fsys.DirectoryExists(p):
		return vfs.WrapPathErr("removeall", name, a.fsys.DeleteDirectory(p, true))
	case a.fsys.FileExists(p):
		return vfs.WrapPathErr("removeall", name, a.fsys.DeleteFile(p))
	}
	return nil
}

func (a *Fs) Rename(oldname, newname string) error {
	o, n := toVfsPath(oldname), toVfsPath(newname)
	if a.fsys.DirectoryExists(o) {
		return vfs.WrapLinkErr("rename", oldname, newname, a.fsys.MoveDirectory(o, n))
	}
	return vfs.WrapLinkErr("rename", oldname, newname, a.fsys.MoveFile(o, n, true))
}

func (a *Fs) Stat(name string) (fs.FileInfo, error) {
	info, err := a.fsys.Stat(toVfsPath(name))
	if err != nil {
		return nil, vfs.WrapPathErr("stat", name, err)
	}
	return info, nil
}

// Chmod only toggles read-only of files, following the owner write bit of mode.
func (a *Fs) Chmod(name string, mode fs.FileMode) error {
	p := toVfsPath(name)
	if a.fsys.DirectoryExists(p) {
		return nil
	}
	return vfs.WrapPathErr("chmod", name, a.fsys.SetReadOnly(p, mode&0o200 == 0))
}

func (a *Fs) Chown(name string, uid, gid int) error {
	return &fs.PathError{Op: "chown", Path: name, Err: vfs.ErrNotSupported}
}

func (a *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return &fs.PathError{Op: "chtimes", Path: name, Err: vfs.ErrNotSupported}
}
