// Package diskfs implements [vfs.FileSystem] as a pass-through over a directory on a real disk,
// or over any [afero.Fs].
//
// Open modes, share arbitration, read-only files and the size budget behave as in memfs.
// Share modes are arbitrated between handles opened through the same FS;
// for OS backed instances handles additionally take advisory flock(2) locks
// so that other processes opening files through diskfs see exclusive handles.
//
// TotalSize is computed by walking the root when the FS is constructed and
// maintained for changes made through the FS afterwards. Changes made by others are not observed.
package diskfs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/internal/quota"
	"github.com/ngicks/go-fsys-helper/vfs/internal/share"
	"github.com/ngicks/go-fsys-helper/vfs/internal/vpath"
)

// Option configures FS.
type Option struct {
	// Logger receives debug records on evictions and rejected or discarded writes.
	// If nil, nothing is logged.
	Logger *slog.Logger
	// MaxSize is the initial size budget. 0 means unlimited.
	MaxSize          int64
	OverflowBehavior vfs.OverflowBehavior
	// FilePerm is the permission of newly created files. If zero, 0o644 is used.
	FilePerm fs.FileMode
	// DirPerm is the permission of newly created directories. If zero, 0o755 is used.
	DirPerm fs.FileMode
}

func (o Option) applyDefaults() Option {
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.FilePerm == 0 {
		o.FilePerm = 0o644
	}
	if o.DirPerm == 0 {
		o.DirPerm = 0o755
	}
	return o
}

var _ vfs.FileSystem = (*FS)(nil)

// FS is a disk backed [vfs.FileSystem].
type FS struct {
	mu sync.Mutex

	base afero.Fs
	// root is the host directory for OS backed instances, empty otherwise.
	root     string
	logger   *slog.Logger
	filePerm fs.FileMode
	dirPerm  fs.FileMode

	quota *quota.Accountant
	locks *share.Table[string]
	// written maps files to the order of the last write made through the FS.
	written map[string]uint64
	recency uint64
}

// New returns an FS rooted at the host directory root, which must exist.
func New(root string, opt Option) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, vfs.WrapPathErr("new", root, fmt.Errorf("%w: not a directory", vfs.ErrInvalidArgument))
	}
	return newFs(afero.NewBasePathFs(afero.NewOsFs(), abs), abs, opt)
}

// NewOnFs returns an FS over base. Paths are resolved against the root of base.
func NewOnFs(base afero.Fs, opt Option) (*FS, error) {
	return newFs(base, "", opt)
}

func newFs(base afero.Fs, root string, opt Option) (*FS, error) {
	opt = opt.applyDefaults()
	d := &FS{
		base:     base,
		root:     root,
		logger:   opt.Logger,
		filePerm: opt.FilePerm,
		dirPerm:  opt.DirPerm,
		quota:    quota.New(opt.MaxSize, opt.OverflowBehavior),
		locks:    share.NewTable[string](),
		written:  make(map[string]uint64),
	}
	var total int64
	err := afero.Walk(base, d.ap(""), func(_ string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("diskfs: scanning root: %w", err)
	}
	d.quota.Add(total)
	return d, nil
}

func (d *FS) clean(name string) string {
	return vpath.Clean(name, false)
}

// ap converts canonical path p into a path for base.
func (d *FS) ap(p string) string {
	return filepath.FromSlash("/" + p)
}

// fromAp converts a path of base into canonical form.
func (d *FS) fromAp(name string) string {
	return d.clean(filepath.ToSlash(name))
}

// realPath converts canonical path p into a host path. Only valid for OS backed instances.
func (d *FS) realPath(p string) string {
	return filepath.Join(d.root, filepath.FromSlash(p))
}

func (d *FS) osBacked() bool {
	return d.root != ""
}

// stat returns nil info and nil error if p does not exist.
// A file in the middle of p is treated as p not existing.
func (d *FS) stat(p string) (fs.FileInfo, error) {
	info, err := d.base.Stat(d.ap(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || isNotDir(err) {
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}

func isNotDir(err error) bool {
	return errors.Is(err, syscall.ENOTDIR)
}

func (d *FS) statDir(p string) (bool, error) {
	info, err := d.stat(p)
	if err != nil {
		return false, err
	}
	return info != nil && info.IsDir(), nil
}

func (d *FS) checkParent(p string) error {
	ok, err := d.statDir(vpath.Dir(p))
	if err != nil {
		return err
	}
	if !ok {
		return vfs.ErrNotFound
	}
	return nil
}

func isReadOnly(info fs.FileInfo) bool {
	return info.Mode().Perm()&0o200 == 0
}

func (d *FS) FileExists(name string) bool {
	info, err := d.stat(d.clean(name))
	return err == nil && info != nil && info.Mode().IsRegular()
}

func (d *FS) DirectoryExists(name string) bool {
	ok, err := d.statDir(d.clean(name))
	return err == nil && ok
}

func (d *FS) statExisting(op, name string) (string, fs.FileInfo, error) {
	p := d.clean(name)
	info, err := d.stat(p)
	if err != nil {
		return "", nil, vfs.WrapPathErr(op, name, err)
	}
	if info == nil {
		return "", nil, vfs.WrapPathErr(op, name, vfs.ErrNotFound)
	}
	return p, info, nil
}

func (d *FS) CreationTime(name string) (time.Time, error) {
	p, info, err := d.statExisting("creationtime", name)
	if err != nil {
		return time.Time{}, err
	}
	if d.osBacked() {
		if t, ok := birthTime(d.realPath(p)); ok {
			return t.UTC(), nil
		}
	}
	return info.ModTime().UTC(), nil
}

func (d *FS) LastWriteTime(name string) (time.Time, error) {
	_, info, err := d.statExisting("lastwritetime", name)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime().UTC(), nil
}

func (d *FS) FileLength(name string) (int64, error) {
	_, info, err := d.statExisting("filelength", name)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, vfs.WrapPathErr("filelength", name, vfs.ErrNotFound)
	}
	return info.Size(), nil
}

func (d *FS) Attributes(name string) (vfs.Attributes, error) {
	_, info, err := d.statExisting("attributes", name)
	if err != nil {
		return 0, err
	}
	switch {
	case info.IsDir():
		return vfs.AttrDirectory, nil
	case isReadOnly(info):
		return vfs.AttrReadOnly, nil
	}
	return vfs.AttrNormal, nil
}

func (d *FS) SetReadOnly(name string, readOnly bool) error {
	p, info, err := d.statExisting("setreadonly", name)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return vfs.WrapPathErr("setreadonly", name, vfs.ErrNotFound)
	}
	perm := info.Mode().Perm()
	if readOnly {
		perm &^= 0o222
	} else {
		perm |= 0o200
	}
	return vfs.WrapPathErr("setreadonly", name, d.base.Chmod(d.ap(p), perm))
}

func (d *FS) Stat(name string) (fs.FileInfo, error) {
	_, info, err := d.statExisting("stat", name)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (d *FS) TotalSize() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quota.Total()
}

func (d *FS) MaxSize() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quota.Max()
}

func (d *FS) SetMaxSize(n int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quota.SetMax(n)
}

func (d *FS) OverflowBehavior() vfs.OverflowBehavior {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quota.Behavior()
}

func (d *FS) SetOverflowBehavior(b vfs.OverflowBehavior) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quota.SetBehavior(b)
}
