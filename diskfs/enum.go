package diskfs

import (
	"fmt"
	"iter"

	"github.com/spf13/afero"

	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/internal/vpath"
)

// EnumerateFiles implements [vfs.FileSystem].
// Directories are read as the iteration reaches them.
func (d *FS) EnumerateFiles(dir, pattern string, scope vfs.SearchScope) (iter.Seq[string], error) {
	return d.enumerate(dir, pattern, scope, false)
}

// EnumerateDirectories implements [vfs.FileSystem].
// Directories are read as the iteration reaches them.
func (d *FS) EnumerateDirectories(dir, pattern string, scope vfs.SearchScope) (iter.Seq[string], error) {
	return d.enumerate(dir, pattern, scope, true)
}

func (d *FS) enumerate(dir, pattern string, scope vfs.SearchScope, dirs bool) (iter.Seq[string], error) {
	if !scope.IsValid() {
		return nil, vfs.WrapPathErr("enumerate", dir, fmt.Errorf("%w: unknown scope %d", vfs.ErrInvalidArgument, scope))
	}
	if !vpath.ValidPattern(pattern) {
		return nil, vfs.WrapPathErr("enumerate", dir, fmt.Errorf("%w: bad pattern %q", vfs.ErrInvalidArgument, pattern))
	}
	p := d.clean(dir)

	d.mu.Lock()
	ok, err := d.statDir(p)
	d.mu.Unlock()
	if err != nil {
		return nil, vfs.WrapPathErr("enumerate", dir, err)
	}
	if !ok {
		return nil, vfs.WrapPathErr("enumerate", dir, vfs.ErrNotFound)
	}

	var walk func(p string, yield func(string) bool) bool
	walk = func(p string, yield func(string) bool) bool {
		d.mu.Lock()
		children, err := afero.ReadDir(d.base, d.ap(p))
		d.mu.Unlock()
		if err != nil {
			// removed after being reached.
			d.logger.Debug("reading directory failed", "path", p, "err", err)
			return true
		}
		for _, c := range children {
			cp := vpath.Join(p, c.Name())
			isDir := c.IsDir()
			if !isDir && !c.Mode().IsRegular() {
				continue
			}
			if isDir == dirs && vpath.Match(pattern, c.Name()) {
				if !yield(cp) {
					return false
				}
			}
			if isDir && scope == vfs.AllDescendants {
				if !walk(cp, yield) {
					return false
				}
			}
		}
		return true
	}
	return func(yield func(string) bool) {
		walk(p, yield)
	}, nil
}
