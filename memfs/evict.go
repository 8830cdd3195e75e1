package memfs

import (
	"slices"

	"github.com/ngicks/go-fsys-helper/vfs/internal/quota"
)

// touch marks fd as the most recently written file.
func (f *FS) touch(fd *fileData) {
	f.recency++
	fd.recency = f.recency
	if fd.elem == nil {
		fd.elem = f.lru.PushBack(fd)
		return
	}
	f.lru.MoveToBack(fd.elem)
}

// reserve asks the accountant for growth more bytes on behalf of the pinned files.
func (f *FS) reserve(growth int64, pinned ...*fileData) (quota.Outcome, error) {
	return f.quota.Reserve(growth, evictor{f: f, pinned: pinned})
}

var _ quota.Evictor = evictor{}

type evictor struct {
	f      *FS
	pinned []*fileData
}

func (e evictor) evictable(fd *fileData) bool {
	return !fd.readOnly && e.f.locks.Held(fd) == 0 && !slices.Contains(e.pinned, fd)
}

func (e evictor) Reclaimable() int64 {
	var sum int64
	for el := e.f.lru.Front(); el != nil; el = el.Next() {
		if fd := el.Value.(*fileData); e.evictable(fd) {
			sum += fd.size()
		}
	}
	return sum
}

func (e evictor) EvictOldest() bool {
	for el := e.f.lru.Front(); el != nil; el = el.Next() {
		fd := el.Value.(*fileData)
		if !e.evictable(fd) {
			continue
		}
		n := e.f.nodes[fd.node]
		e.f.logger.Debug(
			"evicted file",
			"path", e.f.pathOf(n),
			"size", fd.size(),
			"recency", fd.recency,
		)
		e.f.unlinkFile(n)
		return true
	}
	return false
}
