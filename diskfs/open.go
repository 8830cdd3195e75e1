package diskfs

import (
	"os"

	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/internal/share"
	"github.com/ngicks/go-fsys-helper/vfs/internal/vpath"
)

func (d *FS) Open(name string, mode vfs.OpenMode, access vfs.Access, shareMode vfs.Share) (vfs.File, error) {
	if err := vfs.ValidateOpen(mode, access, shareMode); err != nil {
		return nil, vfs.WrapPathErr("open", name, err)
	}
	p := d.clean(name)

	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := d.open(p, mode, share.Lock{Access: access, Share: shareMode})
	if err != nil {
		return nil, vfs.WrapPathErr("open", name, err)
	}
	return f, nil
}

func openFlag(access vfs.Access) int {
	switch access {
	case vfs.AccessRead:
		return os.O_RDONLY
	case vfs.AccessWrite:
		return os.O_WRONLY
	}
	return os.O_RDWR
}

// exclusive reports whether handles opened with s must be the only one on the file across processes.
func exclusive(s vfs.Share) bool {
	return s&vfs.ShareReadWrite == 0
}

func (d *FS) open(p string, mode vfs.OpenMode, req share.Lock) (*file, error) {
	if vpath.IsRoot(p) {
		return nil, vfs.ErrAccessDenied
	}
	info, err := d.stat(p)
	if err != nil {
		return nil, err
	}

	switch {
	case info != nil && info.IsDir():
		return nil, vfs.ErrAccessDenied
	case info != nil:
		if mode == vfs.CreateNew {
			return nil, vfs.ErrAlreadyExists
		}
		if isReadOnly(info) && req.Access.CanWrite() {
			return nil, vfs.ErrAccessDenied
		}
		if err := d.locks.Check(p, req); err != nil {
			return nil, err
		}
	default:
		if mode == vfs.Open || mode == vfs.Truncate {
			return nil, vfs.ErrNotFound
		}
		if err := d.checkParent(p); err != nil {
			return nil, err
		}
	}

	created := info == nil
	flag := openFlag(req.Access)
	if created {
		flag |= os.O_CREATE | os.O_EXCL
	}
	f, err := d.base.OpenFile(d.ap(p), flag, d.filePerm)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*file, error) {
		_ = f.Close()
		if created {
			_ = d.base.Remove(d.ap(p))
		}
		return nil, err
	}

	// truncate only after the lock is taken.
	if err := lockFile(f, exclusive(req.Share)); err != nil {
		return fail(err)
	}
	var size int64
	switch {
	case created:
		d.touch(p)
	case mode == vfs.Create || mode == vfs.Truncate:
		if err := f.Truncate(0); err != nil {
			return fail(err)
		}
		d.quota.Add(-info.Size())
		d.touch(p)
	default:
		size = info.Size()
	}

	entry, err := d.locks.Acquire(p, req)
	if err != nil {
		return fail(err)
	}
	fh := &file{
		fsys:   d,
		f:      f,
		entry:  entry,
		name:   p,
		access: req.Access,
	}
	if mode == vfs.Append {
		fh.append = true
		fh.floor = size
		fh.pos = size
	}
	return fh, nil
}
