package memfs

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/internal/quota"
	"github.com/ngicks/go-fsys-helper/vfs/internal/share"
	"github.com/ngicks/go-fsys-helper/vfs/internal/vpath"
)

var _ vfs.File = (*handle)(nil)

// handle is guarded by the mutex of fsys.
type handle struct {
	fsys   *FS
	fd     *fileData
	entry  *share.Entry[*fileData]
	name   string
	access vfs.Access

	append bool
	// floor is the end of file at the time the handle was opened in append mode.
	floor  int64
	pos    int64
	closed bool
}

func (h *handle) Name() string {
	return h.name
}

func (h *handle) check(op string, need vfs.Access) error {
	if h.closed {
		return vfs.WrapPathErr(op, h.name, vfs.ErrClosed)
	}
	if need != 0 && h.access&need == 0 {
		return vfs.WrapPathErr(op, h.name, fmt.Errorf("%w: handle is not opened for %s", vfs.ErrNotSupported, need))
	}
	return nil
}

func (h *handle) Read(p []byte) (int, error) {
	h.fsys.mu.Lock()
	defer h.fsys.mu.Unlock()

	if err := h.check("read", vfs.AccessRead); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if h.pos >= h.fd.size() {
		return 0, io.EOF
	}
	n := copy(p, h.fd.content[h.pos:])
	h.pos += int64(n)
	return n, nil
}

func (h *handle) Write(p []byte) (int, error) {
	h.fsys.mu.Lock()
	defer h.fsys.mu.Unlock()

	if err := h.check("write", vfs.AccessWrite); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	end := h.pos + int64(len(p))
	growth := max(end-h.fd.size(), 0)
	if discard, err := h.reserve(growth); err != nil {
		return 0, vfs.WrapPathErr("write", h.name, err)
	} else if discard {
		return len(p), nil
	}

	h.fd.writeAt(p, h.pos)
	h.pos = end
	h.written(growth)
	return len(p), nil
}

// reserve reports whether the write must be discarded.
// Growth of unlinked files is not accounted.
func (h *handle) reserve(growth int64) (bool, error) {
	if growth <= 0 || !h.fd.linked() {
		return false, nil
	}
	outcome, err := h.fsys.reserve(growth, h.fd)
	if err != nil {
		h.fsys.logger.Debug("write rejected", "path", h.name, "growth", growth, "err", err)
		return false, err
	}
	if outcome == quota.Discard {
		h.fsys.logger.Debug("write discarded", "path", h.name, "growth", growth)
		return true, nil
	}
	return false, nil
}

func (h *handle) written(growth int64) {
	h.fd.mtime = h.fsys.now()
	if h.fd.linked() {
		h.fsys.quota.Add(growth)
		h.fsys.touch(h.fd)
	}
}

func (h *handle) Seek(offset int64, whence int) (int64, error) {
	h.fsys.mu.Lock()
	defer h.fsys.mu.Unlock()

	if err := h.check("seek", 0); err != nil {
		return 0, err
	}

	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = h.pos
	case io.SeekEnd:
		base = h.fd.size()
	default:
		return 0, vfs.WrapPathErr("seek", h.name, fmt.Errorf("%w: unknown whence %d", vfs.ErrInvalidArgument, whence))
	}

	pos := base + offset
	switch {
	case pos < 0:
		return 0, vfs.WrapPathErr("seek", h.name, fmt.Errorf("%w: negative position", vfs.ErrInvalidArgument))
	case h.append && pos < h.floor:
		return 0, vfs.WrapPathErr(
			"seek",
			h.name,
			fmt.Errorf("%w: can not seek before %d in append mode", vfs.ErrInvalidArgument, h.floor),
		)
	}
	h.pos = pos
	return pos, nil
}

func (h *handle) Truncate(size int64) error {
	h.fsys.mu.Lock()
	defer h.fsys.mu.Unlock()

	if err := h.check("truncate", vfs.AccessWrite); err != nil {
		return err
	}
	switch {
	case size < 0:
		return vfs.WrapPathErr("truncate", h.name, fmt.Errorf("%w: negative size", vfs.ErrInvalidArgument))
	case h.append && size < h.floor:
		return vfs.WrapPathErr(
			"truncate",
			h.name,
			fmt.Errorf("%w: can not truncate below %d in append mode", vfs.ErrInvalidArgument, h.floor),
		)
	}

	delta := size - h.fd.size()
	if discard, err := h.reserve(delta); err != nil {
		return vfs.WrapPathErr("truncate", h.name, err)
	} else if discard {
		return nil
	}
	h.fd.resize(size)
	h.written(delta)
	return nil
}

func (h *handle) Stat() (fs.FileInfo, error) {
	h.fsys.mu.Lock()
	defer h.fsys.mu.Unlock()

	if err := h.check("stat", 0); err != nil {
		return nil, err
	}
	return statFile(vpath.Base(h.name), h.fd), nil
}

func (h *handle) Sync() error {
	h.fsys.mu.Lock()
	defer h.fsys.mu.Unlock()
	return h.check("sync", 0)
}

func (h *handle) Close() error {
	h.fsys.mu.Lock()
	defer h.fsys.mu.Unlock()

	if err := h.check("close", 0); err != nil {
		return err
	}
	h.closed = true
	h.fsys.locks.Release(h.entry)
	if !h.fd.linked() && h.fsys.locks.Held(h.fd) == 0 {
		h.fd.content = nil
	}
	return nil
}
