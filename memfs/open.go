package memfs

import (
	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/internal/share"
	"github.com/ngicks/go-fsys-helper/vfs/internal/vpath"
)

func (f *FS) Open(name string, mode vfs.OpenMode, access vfs.Access, shareMode vfs.Share) (vfs.File, error) {
	if err := vfs.ValidateOpen(mode, access, shareMode); err != nil {
		return nil, vfs.WrapPathErr("open", name, err)
	}
	p := f.clean(name)

	f.mu.Lock()
	defer f.mu.Unlock()

	h, err := f.open(p, mode, share.Lock{Access: access, Share: shareMode})
	if err != nil {
		return nil, vfs.WrapPathErr("open", name, err)
	}
	return h, nil
}

func (f *FS) open(p string, mode vfs.OpenMode, req share.Lock) (*handle, error) {
	if vpath.IsRoot(p) {
		return nil, vfs.ErrAccessDenied
	}
	parent, base, err := f.lookupParent(p)
	if err != nil {
		return nil, err
	}

	var fd *fileData
	switch n := f.child(parent, base); {
	case n != nil && n.isDir():
		return nil, vfs.ErrAccessDenied
	case n != nil:
		fd = n.file
		if mode == vfs.CreateNew {
			return nil, vfs.ErrAlreadyExists
		}
		if fd.readOnly && req.Access.CanWrite() {
			return nil, vfs.ErrAccessDenied
		}
		if err := f.locks.Check(fd, req); err != nil {
			return nil, err
		}
		if mode == vfs.Create || mode == vfs.Truncate {
			f.quota.Add(-fd.size())
			fd.resize(0)
			fd.mtime = f.now()
			f.touch(fd)
		}
	default:
		if mode == vfs.Open || mode == vfs.Truncate {
			return nil, vfs.ErrNotFound
		}
		fd = f.newFile(parent, base)
	}

	entry, err := f.locks.Acquire(fd, req)
	if err != nil {
		return nil, err
	}
	h := &handle{
		fsys:   f,
		fd:     fd,
		entry:  entry,
		name:   p,
		access: req.Access,
	}
	if mode == vfs.Append {
		h.append = true
		h.floor = fd.size()
		h.pos = h.floor
	}
	return h, nil
}
