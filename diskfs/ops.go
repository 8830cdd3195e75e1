package diskfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/natefinch/atomic"
	"github.com/spf13/afero"

	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/internal/bufpool"
	"github.com/ngicks/go-fsys-helper/vfs/internal/quota"
	"github.com/ngicks/go-fsys-helper/vfs/internal/share"
	"github.com/ngicks/go-fsys-helper/vfs/internal/vpath"
)

// copySourceLock is what CopyFile holds on its source while reading it.
var copySourceLock = share.Lock{Access: vfs.AccessRead, Share: vfs.ShareReadWrite | vfs.ShareDelete}

// overwriteLock is what CopyFile holds on an existing destination while replacing its content.
var overwriteLock = share.Lock{Access: vfs.AccessWrite, Share: vfs.ShareNone}

func (d *FS) DeleteFile(name string) error {
	p := d.clean(name)
	d.mu.Lock()
	defer d.mu.Unlock()

	info, err := d.stat(p)
	switch {
	case err != nil:
		return vfs.WrapPathErr("remove", name, err)
	case info == nil:
		return nil
	case info.IsDir():
		return vfs.WrapPathErr("remove", name, vfs.ErrAccessDenied)
	case isReadOnly(info):
		return vfs.WrapPathErr("remove", name, vfs.ErrAccessDenied)
	case !d.locks.DeletePermitted(p):
		return vfs.WrapPathErr("remove", name, vfs.ErrSharingViolation)
	}
	if err := d.base.Remove(d.ap(p)); err != nil {
		return vfs.WrapPathErr("remove", name, err)
	}
	d.unlinked(p, info.Size())
	return nil
}

// unlinked forgets file p of size n which has been removed.
func (d *FS) unlinked(p string, n int64) {
	d.quota.Add(-n)
	d.locks.Drop(p)
	d.forget(p)
}

// sameFile reports whether infos of 2 different paths point to the same file,
// which happens on case insensitive hosts.
func (d *FS) sameFile(a, b fs.FileInfo) bool {
	return d.osBacked() && os.SameFile(a, b)
}

func (d *FS) MoveFile(src, dst string, overwrite bool) error {
	s, t := d.clean(src), d.clean(dst)
	d.mu.Lock()
	defer d.mu.Unlock()
	return vfs.WrapLinkErr("move", src, dst, d.moveFile(s, t, overwrite))
}

func (d *FS) moveFile(s, t string, overwrite bool) error {
	si, err := d.stat(s)
	if err != nil {
		return err
	}
	if si == nil || si.IsDir() {
		return vfs.ErrNotFound
	}
	if !d.locks.DeletePermitted(s) {
		return vfs.ErrSharingViolation
	}
	if s == t {
		return nil
	}
	if err := d.checkParent(t); err != nil {
		return err
	}
	ti, err := d.stat(t)
	if err != nil {
		return err
	}

	switch {
	case ti != nil && d.sameFile(si, ti):
		ti = nil
	case ti != nil && ti.IsDir():
		return vfs.ErrAccessDenied
	case ti != nil && !overwrite:
		return vfs.ErrAlreadyExists
	case ti != nil && isReadOnly(ti):
		return vfs.ErrAccessDenied
	case ti != nil && !d.locks.DeletePermitted(t):
		return vfs.ErrSharingViolation
	}

	switch {
	case ti == nil:
		err = d.base.Rename(d.ap(s), d.ap(t))
	case d.osBacked():
		err = atomic.ReplaceFile(d.realPath(s), d.realPath(t))
	default:
		if err = d.base.Remove(d.ap(t)); err == nil {
			err = d.base.Rename(d.ap(s), d.ap(t))
		}
	}
	if err != nil {
		return err
	}
	if ti != nil {
		d.unlinked(t, ti.Size())
	}
	d.locks.Rekey(s, t)
	if r, ok := d.written[s]; ok {
		delete(d.written, s)
		d.written[t] = r
	}
	return nil
}

func (d *FS) CopyFile(src, dst string, overwrite bool) error {
	s, t := d.clean(src), d.clean(dst)
	d.mu.Lock()
	defer d.mu.Unlock()
	return vfs.WrapLinkErr("copy", src, dst, d.copyFile(s, t, overwrite))
}

func (d *FS) copyFile(s, t string, overwrite bool) error {
	si, err := d.stat(s)
	if err != nil {
		return err
	}
	if si == nil || si.IsDir() {
		return vfs.ErrNotFound
	}
	if err := d.locks.Check(s, copySourceLock); err != nil {
		return err
	}
	if err := d.checkParent(t); err != nil {
		return err
	}
	ti, err := d.stat(t)
	if err != nil {
		return err
	}

	switch {
	case s == t || (ti != nil && d.sameFile(si, ti)):
		return fmt.Errorf("%w: source and destination are the same file", vfs.ErrInvalidArgument)
	case ti != nil && ti.IsDir():
		return vfs.ErrAccessDenied
	case ti != nil && !overwrite:
		return vfs.ErrAlreadyExists
	case ti != nil && isReadOnly(ti):
		return vfs.ErrAccessDenied
	case ti != nil:
		if err := d.locks.Check(t, overwriteLock); err != nil {
			return err
		}
	}

	var prev int64
	perm := d.filePerm
	if ti != nil {
		prev = ti.Size()
		perm = ti.Mode().Perm()
	}
	growth := si.Size() - prev
	outcome, err := d.reserve(growth, s, t)
	if err != nil {
		d.logger.Debug("copy rejected", "src", s, "dst", t, "growth", growth, "err", err)
		return err
	}
	if outcome == quota.Discard {
		d.logger.Debug("copy discarded", "src", s, "dst", t, "growth", growth)
		return nil
	}

	if err := d.copyContent(s, t, perm); err != nil {
		return err
	}
	info, err := d.base.Stat(d.ap(t))
	if err != nil {
		return err
	}
	d.quota.Add(info.Size() - prev)
	d.touch(t)
	return nil
}

func (d *FS) copyContent(s, t string, perm fs.FileMode) (err error) {
	src, err := d.base.Open(d.ap(s))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, src.Close())
	}()

	if d.osBacked() {
		if err := atomic.WriteFile(d.realPath(t), src); err != nil {
			return err
		}
		return d.base.Chmod(d.ap(t), perm)
	}

	dst, err := d.base.OpenFile(d.ap(t), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	_, err = bufpool.Copy(dst, src)
	return errors.Join(err, dst.Close())
}

func (d *FS) CreateDirectory(name string) error {
	p := d.clean(name)
	d.mu.Lock()
	defer d.mu.Unlock()

	var cur string
	for _, elem := range vpath.Split(p) {
		cur = vpath.Join(cur, elem)
		info, err := d.stat(cur)
		switch {
		case err != nil:
			return vfs.WrapPathErr("mkdir", name, err)
		case info == nil:
			if err := d.base.Mkdir(d.ap(cur), d.dirPerm); err != nil {
				return vfs.WrapPathErr("mkdir", name, err)
			}
		case !info.IsDir():
			return vfs.WrapPathErr("mkdir", name, vfs.ErrAlreadyExists)
		}
	}
	return nil
}

type treeEntry struct {
	path string
	info fs.FileInfo
}

// subtree returns directories (including p itself) and files under p,
// parents before their children.
func (d *FS) subtree(p string) (dirs, files []treeEntry, err error) {
	err = afero.Walk(d.base, d.ap(p), func(name string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		e := treeEntry{path: d.fromAp(name), info: info}
		switch {
		case info.IsDir():
			dirs = append(dirs, e)
		case info.Mode().IsRegular():
			files = append(files, e)
		}
		return nil
	})
	return dirs, files, err
}

func (d *FS) DeleteDirectory(name string, recursive bool) error {
	p := d.clean(name)
	d.mu.Lock()
	defer d.mu.Unlock()

	if vpath.IsRoot(p) {
		return vfs.WrapPathErr("rmdir", name, vfs.ErrAccessDenied)
	}
	if ok, err := d.statDir(p); err != nil {
		return vfs.WrapPathErr("rmdir", name, err)
	} else if !ok {
		return vfs.WrapPathErr("rmdir", name, vfs.ErrNotFound)
	}
	children, err := afero.ReadDir(d.base, d.ap(p))
	if err != nil {
		return vfs.WrapPathErr("rmdir", name, err)
	}
	if len(children) > 0 && !recursive {
		return vfs.WrapPathErr("rmdir", name, vfs.ErrDirectoryNotEmpty)
	}

	_, files, err := d.subtree(p)
	if err != nil {
		return vfs.WrapPathErr("rmdir", name, err)
	}
	for _, f := range files {
		if isReadOnly(f.info) {
			return vfs.WrapPathErr("rmdir", name, fmt.Errorf("%w: %s is read-only", vfs.ErrAccessDenied, f.path))
		}
		if !d.locks.DeletePermitted(f.path) {
			return vfs.WrapPathErr("rmdir", name, fmt.Errorf("%w: %s is open", vfs.ErrSharingViolation, f.path))
		}
	}

	err = d.base.RemoveAll(d.ap(p))
	for _, f := range files {
		if err != nil {
			// partially removed.
			if info, _ := d.stat(f.path); info != nil {
				continue
			}
		}
		d.unlinked(f.path, f.info.Size())
	}
	if err != nil {
		return vfs.WrapPathErr("rmdir", name, err)
	}
	return nil
}

func (d *FS) MoveDirectory(src, dst string) error {
	s, t := d.clean(src), d.clean(dst)
	d.mu.Lock()
	defer d.mu.Unlock()
	return vfs.WrapLinkErr("movedir", src, dst, d.moveDirectory(s, t))
}

func (d *FS) moveDirectory(s, t string) error {
	if vpath.IsRoot(s) {
		return vfs.ErrAccessDenied
	}
	if ok, err := d.statDir(s); err != nil {
		return err
	} else if !ok {
		return vfs.ErrNotFound
	}
	if ti, err := d.stat(t); err != nil {
		return err
	} else if ti != nil {
		return vfs.ErrAlreadyExists
	}
	if vpath.Within(t, s) {
		return fmt.Errorf("%w: can not move a directory into itself", vfs.ErrInvalidArgument)
	}

	// ancestors of t must be directories if they exist.
	parent := vpath.Dir(t)
	for ancestor := range vpath.FromHead(parent) {
		info, err := d.stat(ancestor)
		if err != nil {
			return err
		}
		if info == nil {
			break
		}
		if !info.IsDir() {
			return vfs.ErrAlreadyExists
		}
	}

	dirs, files, err := d.subtree(s)
	if err != nil {
		return err
	}
	for _, f := range files {
		if !d.locks.DeletePermitted(f.path) {
			return fmt.Errorf("%w: %s is open", vfs.ErrSharingViolation, f.path)
		}
	}

	if !vpath.IsRoot(parent) {
		if err := d.base.MkdirAll(d.ap(parent), d.dirPerm); err != nil {
			return err
		}
	}
	if d.osBacked() {
		err = d.base.Rename(d.ap(s), d.ap(t))
	} else {
		err = d.moveTree(s, t, dirs, files)
	}
	if err != nil {
		return err
	}

	for key := range d.locks.Keys() {
		if vpath.Within(key, s) {
			d.locks.Rekey(key, vpath.Rebase(key, s, t))
		}
	}
	d.rebase(s, t)
	return nil
}

// moveTree moves the tree entry by entry, for file systems whose Rename does not carry descendants.
func (d *FS) moveTree(s, t string, dirs, files []treeEntry) error {
	for _, dir := range dirs {
		if err := d.base.Mkdir(d.ap(vpath.Rebase(dir.path, s, t)), dir.info.Mode().Perm()); err != nil {
			return err
		}
	}
	for _, f := range files {
		if err := d.base.Rename(d.ap(f.path), d.ap(vpath.Rebase(f.path, s, t))); err != nil {
			return err
		}
	}
	return d.base.RemoveAll(d.ap(s))
}
