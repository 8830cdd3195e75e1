package memfs

import (
	"cmp"
	"fmt"
	"iter"
	"slices"

	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/internal/vpath"
)

// EnumerateFiles implements [vfs.FileSystem].
// The result is snapshotted at the time of the call.
func (f *FS) EnumerateFiles(dir, pattern string, scope vfs.SearchScope) (iter.Seq[string], error) {
	return f.enumerate(dir, pattern, scope, false)
}

// EnumerateDirectories implements [vfs.FileSystem].
// The result is snapshotted at the time of the call.
func (f *FS) EnumerateDirectories(dir, pattern string, scope vfs.SearchScope) (iter.Seq[string], error) {
	return f.enumerate(dir, pattern, scope, true)
}

func (f *FS) enumerate(dir, pattern string, scope vfs.SearchScope, dirs bool) (iter.Seq[string], error) {
	if !scope.IsValid() {
		return nil, vfs.WrapPathErr("enumerate", dir, fmt.Errorf("%w: unknown scope %d", vfs.ErrInvalidArgument, scope))
	}
	if !vpath.ValidPattern(pattern) {
		return nil, vfs.WrapPathErr("enumerate", dir, fmt.Errorf("%w: bad pattern %q", vfs.ErrInvalidArgument, pattern))
	}
	p := f.clean(dir)

	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.lookup(p)
	if n == nil || !n.isDir() {
		return nil, vfs.WrapPathErr("enumerate", dir, vfs.ErrNotFound)
	}
	foldedPattern := f.fold(pattern)

	var out []string
	var walk func(n *node, p string)
	walk = func(n *node, p string) {
		for _, c := range f.sortedChildren(n) {
			cp := vpath.Join(p, c.name)
			if c.isDir() == dirs && vpath.Match(foldedPattern, f.fold(c.name)) {
				out = append(out, cp)
			}
			if c.isDir() && scope == vfs.AllDescendants {
				walk(c, cp)
			}
		}
	}
	walk(n, p)
	return slices.Values(out), nil
}

func (f *FS) sortedChildren(n *node) []*node {
	children := make([]*node, 0, len(n.children))
	for _, id := range n.children {
		children = append(children, f.nodes[id])
	}
	slices.SortFunc(children, func(i, j *node) int { return cmp.Compare(i.name, j.name) })
	return children
}
