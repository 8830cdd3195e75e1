// Package memfs implements [vfs.FileSystem] entirely in memory.
//
// The namespace is an arena of nodes addressed by id; a node refers to its parent by id.
// One mutex guards the whole namespace, including every read and write through open handles,
// so that size accounting and eviction are never raced.
//
// Deleting a file that is still open (which requires every open handle to share delete)
// unlinks it from the namespace while the handles keep the content alive until closed.
package memfs

import (
	"container/list"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/clock"
	"github.com/ngicks/go-fsys-helper/vfs/internal/quota"
	"github.com/ngicks/go-fsys-helper/vfs/internal/share"
	"github.com/ngicks/go-fsys-helper/vfs/internal/vpath"
)

// Option configures FS.
type Option struct {
	// Clock is used for timestamps. If nil, clock.RealWallClock() will be used.
	Clock clock.WallClock
	// Logger receives debug records on evictions and rejected or discarded writes.
	// If nil, nothing is logged.
	Logger *slog.Logger
	// MaxSize is the initial size budget. 0 means unlimited.
	MaxSize          int64
	OverflowBehavior vfs.OverflowBehavior
	// CaseInsensitive makes names compare equal under Unicode case folding.
	// Names keep the case they were created with.
	CaseInsensitive bool
	// BackslashSeparator makes '\' a path separator as well as '/'.
	BackslashSeparator bool
}

func (o Option) applyDefaults() Option {
	if o.Clock == nil {
		o.Clock = clock.RealWallClock()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

var _ vfs.FileSystem = (*FS)(nil)

// FS is an in-memory [vfs.FileSystem].
// The zero value is not usable; use [New].
type FS struct {
	mu sync.Mutex

	clock     clock.WallClock
	logger    *slog.Logger
	fold      func(string) string
	backslash bool

	nodes  map[nodeID]*node
	nextID nodeID

	locks *share.Table[*fileData]
	quota *quota.Accountant

	// lru orders linked files by recency, least recently written at front.
	lru     *list.List
	recency uint64
}

type nodeID uint64

const rootID nodeID = 1

// node is either a directory (file == nil) or a file.
type node struct {
	id     nodeID
	parent nodeID
	name   string

	// directory only
	children     map[string]nodeID // keyed by folded name
	ctime, mtime time.Time

	file *fileData
}

func (n *node) isDir() bool {
	return n.file == nil
}

type fileData struct {
	// node is 0 once the file is unlinked from the namespace.
	node         nodeID
	content      []byte
	readOnly     bool
	ctime, mtime time.Time
	recency      uint64
	elem         *list.Element
}

func (d *fileData) linked() bool {
	return d.node != 0
}

func (d *fileData) size() int64 {
	return int64(len(d.content))
}

func (d *fileData) resize(size int64) {
	switch cur := int64(len(d.content)); {
	case size <= cur:
		d.content = d.content[:size]
	case size <= int64(cap(d.content)):
		d.content = d.content[:size]
		clear(d.content[cur:])
	default:
		grown := make([]byte, size, max(size, 2*int64(cap(d.content))))
		copy(grown, d.content)
		d.content = grown
	}
}

func (d *fileData) writeAt(p []byte, off int64) {
	if end := off + int64(len(p)); end > d.size() {
		d.resize(end)
	}
	copy(d.content[off:], p)
}

// New returns an empty FS.
func New(opt Option) *FS {
	opt = opt.applyDefaults()
	f := &FS{
		clock:     opt.Clock,
		logger:    opt.Logger,
		fold:      func(s string) string { return s },
		backslash: opt.BackslashSeparator,
		nodes:     make(map[nodeID]*node),
		nextID:    rootID,
		locks:     share.NewTable[*fileData](),
		quota:     quota.New(opt.MaxSize, opt.OverflowBehavior),
		lru:       list.New(),
	}
	if opt.CaseInsensitive {
		f.fold = cases.Fold().String
	}
	now := f.now()
	f.nodes[rootID] = &node{
		id:       rootID,
		children: make(map[string]nodeID),
		ctime:    now,
		mtime:    now,
	}
	f.nextID++
	return f
}

func (f *FS) now() time.Time {
	return f.clock.Now().UTC()
}

func (f *FS) clean(name string) string {
	return vpath.Clean(name, f.backslash)
}

func (f *FS) child(dir *node, name string) *node {
	id, ok := dir.children[f.fold(name)]
	if !ok {
		return nil
	}
	return f.nodes[id]
}

// lookup returns the node at canonical path p, or nil if there is none.
func (f *FS) lookup(p string) *node {
	cur := f.nodes[rootID]
	for _, elem := range vpath.Split(p) {
		if !cur.isDir() {
			return nil
		}
		cur = f.child(cur, elem)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// lookupParent returns the directory that should contain p, and the base name of p.
func (f *FS) lookupParent(p string) (*node, string, error) {
	parent := f.lookup(vpath.Dir(p))
	if parent == nil || !parent.isDir() {
		return nil, "", vfs.ErrNotFound
	}
	return parent, vpath.Base(p), nil
}

func (f *FS) pathOf(n *node) string {
	var p string
	for ; n.id != rootID; n = f.nodes[n.parent] {
		if p == "" {
			p = n.name
		} else {
			p = n.name + "/" + p
		}
	}
	return p
}

func (f *FS) newNode(parent *node, name string) *node {
	n := &node{id: f.nextID, parent: parent.id, name: name}
	f.nextID++
	f.nodes[n.id] = n
	parent.children[f.fold(name)] = n.id
	parent.mtime = f.now()
	return n
}

func (f *FS) newDir(parent *node, name string) *node {
	n := f.newNode(parent, name)
	n.children = make(map[string]nodeID)
	n.ctime = parent.mtime
	n.mtime = parent.mtime
	return n
}

func (f *FS) newFile(parent *node, name string) *fileData {
	n := f.newNode(parent, name)
	n.file = &fileData{node: n.id, ctime: parent.mtime, mtime: parent.mtime}
	f.touch(n.file)
	return n.file
}

// detach removes n from its parent without deleting it from the arena.
func (f *FS) detach(n *node) {
	parent := f.nodes[n.parent]
	delete(parent.children, f.fold(n.name))
	parent.mtime = f.now()
}

func (f *FS) attach(n *node, parent *node, name string) {
	n.parent = parent.id
	n.name = name
	parent.children[f.fold(name)] = n.id
	parent.mtime = f.now()
}

// unlinkFile removes file node n from the namespace.
// Content is released now if no handle holds it, otherwise when the last one is closed.
func (f *FS) unlinkFile(n *node) {
	fd := n.file
	f.detach(n)
	delete(f.nodes, n.id)
	f.quota.Add(-fd.size())
	f.lru.Remove(fd.elem)
	fd.elem = nil
	fd.node = 0
	if f.locks.Held(fd) == 0 {
		fd.content = nil
	}
}

func (f *FS) FileExists(name string) bool {
	p := f.clean(name)
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.lookup(p)
	return n != nil && !n.isDir()
}

func (f *FS) DirectoryExists(name string) bool {
	p := f.clean(name)
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.lookup(p)
	return n != nil && n.isDir()
}

func (f *FS) CreationTime(name string) (time.Time, error) {
	p := f.clean(name)
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.lookup(p)
	switch {
	case n == nil:
		return time.Time{}, vfs.WrapPathErr("creationtime", name, vfs.ErrNotFound)
	case n.isDir():
		return n.ctime, nil
	}
	return n.file.ctime, nil
}

func (f *FS) LastWriteTime(name string) (time.Time, error) {
	p := f.clean(name)
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.lookup(p)
	switch {
	case n == nil:
		return time.Time{}, vfs.WrapPathErr("lastwritetime", name, vfs.ErrNotFound)
	case n.isDir():
		return n.mtime, nil
	}
	return n.file.mtime, nil
}

func (f *FS) FileLength(name string) (int64, error) {
	p := f.clean(name)
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.lookup(p)
	if n == nil || n.isDir() {
		return 0, vfs.WrapPathErr("filelength", name, vfs.ErrNotFound)
	}
	return n.file.size(), nil
}

func (f *FS) Attributes(name string) (vfs.Attributes, error) {
	p := f.clean(name)
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.lookup(p)
	switch {
	case n == nil:
		return 0, vfs.WrapPathErr("attributes", name, vfs.ErrNotFound)
	case n.isDir():
		return vfs.AttrDirectory, nil
	case n.file.readOnly:
		return vfs.AttrReadOnly, nil
	}
	return vfs.AttrNormal, nil
}

func (f *FS) SetReadOnly(name string, readOnly bool) error {
	p := f.clean(name)
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.lookup(p)
	if n == nil || n.isDir() {
		return vfs.WrapPathErr("setreadonly", name, vfs.ErrNotFound)
	}
	n.file.readOnly = readOnly
	return nil
}

func (f *FS) Stat(name string) (fs.FileInfo, error) {
	p := f.clean(name)
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.lookup(p)
	if n == nil {
		return nil, vfs.WrapPathErr("stat", name, vfs.ErrNotFound)
	}
	return f.statNode(n), nil
}

func (f *FS) statNode(n *node) fileInfo {
	name := n.name
	if n.id == rootID {
		name = "."
	}
	if n.isDir() {
		return fileInfo{name: name, mode: fs.ModeDir | 0o755, modTime: n.mtime}
	}
	return statFile(name, n.file)
}

func statFile(name string, fd *fileData) fileInfo {
	mode := fs.FileMode(0o644)
	if fd.readOnly {
		mode = 0o444
	}
	return fileInfo{name: name, size: fd.size(), mode: mode, modTime: fd.mtime}
}

func (f *FS) TotalSize() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quota.Total()
}

func (f *FS) MaxSize() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quota.Max()
}

func (f *FS) SetMaxSize(n int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quota.SetMax(n)
}

func (f *FS) OverflowBehavior() vfs.OverflowBehavior {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quota.Behavior()
}

func (f *FS) SetOverflowBehavior(b vfs.OverflowBehavior) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quota.SetBehavior(b)
}

var _ fs.FileInfo = fileInfo{}

type fileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (i fileInfo) Name() string       { return i.name }
func (i fileInfo) Size() int64        { return i.size }
func (i fileInfo) Mode() fs.FileMode  { return i.mode }
func (i fileInfo) ModTime() time.Time { return i.modTime }
func (i fileInfo) IsDir() bool        { return i.mode.IsDir() }
func (i fileInfo) Sys() any           { return nil }
