package diskfs

import (
	"cmp"
	"io/fs"
	"maps"
	"slices"
	"time"

	"github.com/spf13/afero"

	"github.com/ngicks/go-fsys-helper/vfs/internal/quota"
	"github.com/ngicks/go-fsys-helper/vfs/internal/vpath"
)

// touch marks p as the most recently written file.
func (d *FS) touch(p string) {
	d.recency++
	d.written[p] = d.recency
}

func (d *FS) forget(p string) {
	delete(d.written, p)
}

func (d *FS) rebase(oldDir, newDir string) {
	moved := make(map[string]uint64)
	for p, r := range d.written {
		if vpath.Within(p, oldDir) {
			moved[vpath.Rebase(p, oldDir, newDir)] = r
			delete(d.written, p)
		}
	}
	maps.Copy(d.written, moved)
}

func (d *FS) reserve(growth int64, pinned ...string) (quota.Outcome, error) {
	return d.quota.Reserve(growth, &evictor{d: d, pinned: pinned})
}

type candidate struct {
	path    string
	size    int64
	recency uint64
	modTime time.Time
}

var _ quota.Evictor = (*evictor)(nil)

// evictor orders files by the last write made through the FS.
// Files never written through it come first, ordered by modification time.
type evictor struct {
	d          *FS
	pinned     []string
	candidates []candidate
	scanned    bool
}

func (e *evictor) scan() {
	if e.scanned {
		return
	}
	e.scanned = true
	err := afero.Walk(e.d.base, e.d.ap(""), func(name string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() || isReadOnly(info) {
			return nil
		}
		p := e.d.fromAp(name)
		if e.d.locks.Held(p) > 0 || slices.Contains(e.pinned, p) {
			return nil
		}
		e.candidates = append(e.candidates, candidate{
			path:    p,
			size:    info.Size(),
			recency: e.d.written[p],
			modTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		e.d.logger.Debug("scanning eviction candidates failed", "err", err)
		e.candidates = nil
		return
	}
	slices.SortFunc(e.candidates, func(i, j candidate) int {
		if c := cmp.Compare(i.recency, j.recency); c != 0 {
			return c
		}
		if c := i.modTime.Compare(j.modTime); c != 0 {
			return c
		}
		return cmp.Compare(i.path, j.path)
	})
}

func (e *evictor) Reclaimable() int64 {
	e.scan()
	var sum int64
	for _, c := range e.candidates {
		sum += c.size
	}
	return sum
}

func (e *evictor) EvictOldest() bool {
	e.scan()
	for len(e.candidates) > 0 {
		c := e.candidates[0]
		e.candidates = e.candidates[1:]
		if err := e.d.base.Remove(e.d.ap(c.path)); err != nil {
			e.d.logger.Debug("evicting file failed", "path", c.path, "err", err)
			continue
		}
		e.d.logger.Debug(
			"evicted file",
			"path", c.path,
			"size", c.size,
			"recency", c.recency,
		)
		e.d.quota.Add(-c.size)
		e.d.forget(c.path)
		return true
	}
	return false
}
