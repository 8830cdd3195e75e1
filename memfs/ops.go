package memfs

import (
	"fmt"
	"slices"

	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/internal/quota"
	"github.com/ngicks/go-fsys-helper/vfs/internal/share"
	"github.com/ngicks/go-fsys-helper/vfs/internal/vpath"
)

// copySourceLock is what CopyFile holds on its source while reading it.
var copySourceLock = share.Lock{Access: vfs.AccessRead, Share: vfs.ShareReadWrite | vfs.ShareDelete}

// overwriteLock is what CopyFile holds on an existing destination while replacing its content.
var overwriteLock = share.Lock{Access: vfs.AccessWrite, Share: vfs.ShareNone}

func (f *FS) DeleteFile(name string) error {
	p := f.clean(name)
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.lookup(p)
	switch {
	case n == nil:
		return nil
	case n.isDir():
		return vfs.WrapPathErr("remove", name, vfs.ErrAccessDenied)
	case n.file.readOnly:
		return vfs.WrapPathErr("remove", name, vfs.ErrAccessDenied)
	case !f.locks.DeletePermitted(n.file):
		return vfs.WrapPathErr("remove", name, vfs.ErrSharingViolation)
	}
	f.unlinkFile(n)
	return nil
}

func (f *FS) MoveFile(src, dst string, overwrite bool) error {
	s, d := f.clean(src), f.clean(dst)
	f.mu.Lock()
	defer f.mu.Unlock()
	return vfs.WrapLinkErr("move", src, dst, f.moveFile(s, d, overwrite))
}

func (f *FS) moveFile(s, d string, overwrite bool) error {
	sn := f.lookup(s)
	if sn == nil || sn.isDir() {
		return vfs.ErrNotFound
	}
	if !f.locks.DeletePermitted(sn.file) {
		return vfs.ErrSharingViolation
	}
	parent, base, err := f.lookupParent(d)
	if err != nil {
		return err
	}
	switch dn := f.child(parent, base); {
	case dn == sn:
		// only the case of the name may differ.
		sn.name = base
		return nil
	case dn != nil && dn.isDir():
		return vfs.ErrAccessDenied
	case dn != nil && !overwrite:
		return vfs.ErrAlreadyExists
	case dn != nil && dn.file.readOnly:
		return vfs.ErrAccessDenied
	case dn != nil && !f.locks.DeletePermitted(dn.file):
		return vfs.ErrSharingViolation
	case dn != nil:
		f.unlinkFile(dn)
	}
	f.detach(sn)
	f.attach(sn, parent, base)
	return nil
}

func (f *FS) CopyFile(src, dst string, overwrite bool) error {
	s, d := f.clean(src), f.clean(dst)
	f.mu.Lock()
	defer f.mu.Unlock()
	return vfs.WrapLinkErr("copy", src, dst, f.copyFile(s, d, overwrite))
}

func (f *FS) copyFile(s, d string, overwrite bool) error {
	sn := f.lookup(s)
	if sn == nil || sn.isDir() {
		return vfs.ErrNotFound
	}
	sfd := sn.file
	if err := f.locks.Check(sfd, copySourceLock); err != nil {
		return err
	}
	parent, base, err := f.lookupParent(d)
	if err != nil {
		return err
	}

	var dfd *fileData
	switch dn := f.child(parent, base); {
	case dn == sn:
		return fmt.Errorf("%w: source and destination are the same file", vfs.ErrInvalidArgument)
	case dn != nil && dn.isDir():
		return vfs.ErrAccessDenied
	case dn != nil && !overwrite:
		return vfs.ErrAlreadyExists
	case dn != nil && dn.file.readOnly:
		return vfs.ErrAccessDenied
	case dn != nil:
		if err := f.locks.Check(dn.file, overwriteLock); err != nil {
			return err
		}
		dfd = dn.file
	}

	var prev int64
	if dfd != nil {
		prev = dfd.size()
	}
	growth := sfd.size() - prev
	outcome, err := f.reserve(growth, sfd, dfd)
	if err != nil {
		f.logger.Debug("copy rejected", "src", s, "dst", d, "growth", growth, "err", err)
		return err
	}
	if outcome == quota.Discard {
		f.logger.Debug("copy discarded", "src", s, "dst", d, "growth", growth)
		return nil
	}

	if dfd == nil {
		dfd = f.newFile(parent, base)
	}
	dfd.content = slices.Clone(sfd.content)
	dfd.mtime = f.now()
	f.quota.Add(growth)
	f.touch(dfd)
	return nil
}

func (f *FS) CreateDirectory(name string) error {
	p := f.clean(name)
	f.mu.Lock()
	defer f.mu.Unlock()

	cur := f.nodes[rootID]
	for _, elem := range vpath.Split(p) {
		next := f.child(cur, elem)
		switch {
		case next == nil:
			next = f.newDir(cur, elem)
		case !next.isDir():
			return vfs.WrapPathErr("mkdir", name, vfs.ErrAlreadyExists)
		}
		cur = next
	}
	return nil
}

func (f *FS) DeleteDirectory(name string, recursive bool) error {
	p := f.clean(name)
	f.mu.Lock()
	defer f.mu.Unlock()

	if vpath.IsRoot(p) {
		return vfs.WrapPathErr("rmdir", name, vfs.ErrAccessDenied)
	}
	n := f.lookup(p)
	if n == nil || !n.isDir() {
		return vfs.WrapPathErr("rmdir", name, vfs.ErrNotFound)
	}
	if len(n.children) > 0 && !recursive {
		return vfs.WrapPathErr("rmdir", name, vfs.ErrDirectoryNotEmpty)
	}

	dirs, files := f.subtree(n)
	for _, fn := range files {
		if fn.file.readOnly {
			return vfs.WrapPathErr("rmdir", name, fmt.Errorf("%w: %s is read-only", vfs.ErrAccessDenied, f.pathOf(fn)))
		}
		if !f.locks.DeletePermitted(fn.file) {
			return vfs.WrapPathErr("rmdir", name, fmt.Errorf("%w: %s is open", vfs.ErrSharingViolation, f.pathOf(fn)))
		}
	}
	for _, fn := range files {
		f.unlinkFile(fn)
	}
	f.detach(n)
	for _, dn := range dirs {
		delete(f.nodes, dn.id)
	}
	return nil
}

// subtree returns directories (including n itself) and files under n.
func (f *FS) subtree(n *node) (dirs, files []*node) {
	stack := []*node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		dirs = append(dirs, cur)
		for _, id := range cur.children {
			c := f.nodes[id]
			if c.isDir() {
				stack = append(stack, c)
			} else {
				files = append(files, c)
			}
		}
	}
	return dirs, files
}

func (f *FS) MoveDirectory(src, dst string) error {
	s, d := f.clean(src), f.clean(dst)
	f.mu.Lock()
	defer f.mu.Unlock()
	return vfs.WrapLinkErr("movedir", src, dst, f.moveDirectory(s, d))
}

func (f *FS) moveDirectory(s, d string) error {
	if vpath.IsRoot(s) {
		return vfs.ErrAccessDenied
	}
	sn := f.lookup(s)
	if sn == nil || !sn.isDir() {
		return vfs.ErrNotFound
	}
	if f.lookup(d) != nil {
		return vfs.ErrAlreadyExists
	}
	if vpath.Within(f.fold(d), f.fold(s)) {
		return fmt.Errorf("%w: can not move a directory into itself", vfs.ErrInvalidArgument)
	}

	// ancestors of d must be directories if they exist.
	parentPath := vpath.Dir(d)
	for ancestor := range vpath.FromHead(parentPath) {
		if n := f.lookup(ancestor); n == nil {
			break
		} else if !n.isDir() {
			return vfs.ErrAlreadyExists
		}
	}

	_, files := f.subtree(sn)
	for _, fn := range files {
		if !f.locks.DeletePermitted(fn.file) {
			return fmt.Errorf("%w: %s is open", vfs.ErrSharingViolation, f.pathOf(fn))
		}
	}

	parent := f.nodes[rootID]
	for _, elem := range vpath.Split(parentPath) {
		next := f.child(parent, elem)
		if next == nil {
			next = f.newDir(parent, elem)
		}
		parent = next
	}
	f.detach(sn)
	f.attach(sn, parent, vpath.Base(d))
	return nil
}
