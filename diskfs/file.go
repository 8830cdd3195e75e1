package diskfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/afero"

	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/internal/quota"
	"github.com/ngicks/go-fsys-helper/vfs/internal/share"
)

var _ vfs.File = (*file)(nil)

// file is guarded by the mutex of fsys.
// Its cursor is tracked here; the underlying file is only accessed with ReadAt and WriteAt.
type file struct {
	fsys   *FS
	f      afero.File
	entry  *share.Entry[string]
	name   string
	access vfs.Access

	append bool
	floor  int64
	pos    int64
	closed bool
}

func (f *file) Name() string {
	return f.name
}

func (f *file) check(op string, need vfs.Access) error {
	if f.closed {
		return vfs.WrapPathErr(op, f.name, vfs.ErrClosed)
	}
	if need != 0 && f.access&need == 0 {
		return vfs.WrapPathErr(op, f.name, fmt.Errorf("%w: handle is not opened for %s", vfs.ErrNotSupported, need))
	}
	return nil
}

func (f *file) size() (int64, error) {
	info, err := f.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (f *file) Read(p []byte) (int, error) {
	f.fsys.mu.Lock()
	defer f.fsys.mu.Unlock()

	if err := f.check("read", vfs.AccessRead); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := f.f.ReadAt(p, f.pos)
	f.pos += int64(n)
	if n > 0 && errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}

func (f *file) Write(p []byte) (int, error) {
	f.fsys.mu.Lock()
	defer f.fsys.mu.Unlock()

	if err := f.check("write", vfs.AccessWrite); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	size, err := f.size()
	if err != nil {
		return 0, vfs.WrapPathErr("write", f.name, err)
	}
	growth := max(f.pos+int64(len(p))-size, 0)
	if discard, err := f.reserve(growth); err != nil {
		return 0, vfs.WrapPathErr("write", f.name, err)
	} else if discard {
		return len(p), nil
	}

	n, err := f.f.WriteAt(p, f.pos)
	f.pos += int64(n)
	f.written(max(f.pos-size, 0))
	if err != nil {
		return n, vfs.WrapPathErr("write", f.name, err)
	}
	return n, nil
}

// reserve reports whether the write must be discarded.
// Growth of unlinked files is not accounted.
func (f *file) reserve(growth int64) (bool, error) {
	if growth <= 0 || f.entry.Orphaned() {
		return false, nil
	}
	outcome, err := f.fsys.reserve(growth, f.entry.Key())
	if err != nil {
		f.fsys.logger.Debug("write rejected", "path", f.entry.Key(), "growth", growth, "err", err)
		return false, err
	}
	if outcome == quota.Discard {
		f.fsys.logger.Debug("write discarded", "path", f.entry.Key(), "growth", growth)
		return true, nil
	}
	return false, nil
}

func (f *file) written(growth int64) {
	if f.entry.Orphaned() {
		return
	}
	f.fsys.quota.Add(growth)
	f.fsys.touch(f.entry.Key())
}

func (f *file) Seek(offset int64, whence int) (int64, error) {
	f.fsys.mu.Lock()
	defer f.fsys.mu.Unlock()

	if err := f.check("seek", 0); err != nil {
		return 0, err
	}

	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = f.pos
	case io.SeekEnd:
		size, err := f.size()
		if err != nil {
			return 0, vfs.WrapPathErr("seek", f.name, err)
		}
		base = size
	default:
		return 0, vfs.WrapPathErr("seek", f.name, fmt.Errorf("%w: unknown whence %d", vfs.ErrInvalidArgument, whence))
	}

	pos := base + offset
	switch {
	case pos < 0:
		return 0, vfs.WrapPathErr("seek", f.name, fmt.Errorf("%w: negative position", vfs.ErrInvalidArgument))
	case f.append && pos < f.floor:
		return 0, vfs.WrapPathErr(
			"seek",
			f.name,
			fmt.Errorf("%w: can not seek before %d in append mode", vfs.ErrInvalidArgument, f.floor),
		)
	}
	f.pos = pos
	return pos, nil
}

func (f *file) Truncate(size int64) error {
	f.fsys.mu.Lock()
	defer f.fsys.mu.Unlock()

	if err := f.check("truncate", vfs.AccessWrite); err != nil {
		return err
	}
	switch {
	case size < 0:
		return vfs.WrapPathErr("truncate", f.name, fmt.Errorf("%w: negative size", vfs.ErrInvalidArgument))
	case f.append && size < f.floor:
		return vfs.WrapPathErr(
			"truncate",
			f.name,
			fmt.Errorf("%w: can not truncate below %d in append mode", vfs.ErrInvalidArgument, f.floor),
		)
	}

	cur, err := f.size()
	if err != nil {
		return vfs.WrapPathErr("truncate", f.name, err)
	}
	delta := size - cur
	if discard, err := f.reserve(delta); err != nil {
		return vfs.WrapPathErr("truncate", f.name, err)
	} else if discard {
		return nil
	}
	if err := f.f.Truncate(size); err != nil {
		return vfs.WrapPathErr("truncate", f.name, err)
	}
	f.written(delta)
	return nil
}

func (f *file) Stat() (fs.FileInfo, error) {
	f.fsys.mu.Lock()
	defer f.fsys.mu.Unlock()

	if err := f.check("stat", 0); err != nil {
		return nil, err
	}
	info, err := f.f.Stat()
	if err != nil {
		return nil, vfs.WrapPathErr("stat", f.name, err)
	}
	return info, nil
}

func (f *file) Sync() error {
	f.fsys.mu.Lock()
	defer f.fsys.mu.Unlock()

	if err := f.check("sync", 0); err != nil {
		return err
	}
	return vfs.WrapPathErr("sync", f.name, f.f.Sync())
}

func (f *file) Close() error {
	f.fsys.mu.Lock()
	defer f.fsys.mu.Unlock()

	if err := f.check("close", 0); err != nil {
		return err
	}
	f.closed = true
	f.fsys.locks.Release(f.entry)
	return vfs.WrapPathErr("close", f.name, f.f.Close())
}
