// Package share implements share mode arbitration between handles opened on the same file.
//
// Arbitration is symmetric: a new handle is granted only if its access is permitted
// by the share of every handle already open, and the access of every handle already open
// is permitted by the share of the new one.
// [vfs.ShareDelete] does not take part in it; it only gates deleting and moving the file.
package share

import (
	"iter"
	"maps"

	"github.com/ngicks/go-fsys-helper/vfs"
)

// Lock is the access and share a handle was opened with.
type Lock struct {
	Access vfs.Access
	Share  vfs.Share
}

// Compatible reports whether req may be granted while held is open.
func Compatible(held, req Lock) bool {
	return held.Share.Permits(req.Access) && req.Share.Permits(held.Access)
}

// Entry is a granted Lock registered in a Table.
type Entry[K comparable] struct {
	Lock
	key      K
	orphaned bool
}

// Key returns the key the entry is currently registered under.
// It changes when the table is rekeyed.
func (e *Entry[K]) Key() K {
	return e.key
}

// Orphaned reports whether the file the entry was granted on has been unlinked
// while the entry was held.
func (e *Entry[K]) Orphaned() bool {
	return e.orphaned
}

// Table tracks granted locks per key.
// Table is not safe for concurrent use; callers guard it with the lock that guards the namespace.
type Table[K comparable] struct {
	m map[K]map[*Entry[K]]struct{}
}

func NewTable[K comparable]() *Table[K] {
	return &Table[K]{m: make(map[K]map[*Entry[K]]struct{})}
}

// Check returns [vfs.ErrSharingViolation] if req conflicts with any lock held on key.
func (t *Table[K]) Check(key K, req Lock) error {
	for e := range t.m[key] {
		if !Compatible(e.Lock, req) {
			return vfs.ErrSharingViolation
		}
	}
	return nil
}

// Acquire checks req against locks held on key and registers it if there is no conflict.
func (t *Table[K]) Acquire(key K, req Lock) (*Entry[K], error) {
	if err := t.Check(key, req); err != nil {
		return nil, err
	}
	e := &Entry[K]{Lock: req, key: key}
	set := t.m[key]
	if set == nil {
		set = make(map[*Entry[K]]struct{})
		t.m[key] = set
	}
	set[e] = struct{}{}
	return e, nil
}

// Release unregisters e. Releasing an entry twice, or an entry dropped by Drop, is a no-op.
func (t *Table[K]) Release(e *Entry[K]) {
	set := t.m[e.key]
	if _, ok := set[e]; !ok {
		return
	}
	delete(set, e)
	if len(set) == 0 {
		delete(t.m, e.key)
	}
}

// Held returns the number of locks held on key.
func (t *Table[K]) Held(key K) int {
	return len(t.m[key])
}

// DeletePermitted reports whether every lock held on key was granted with [vfs.ShareDelete].
func (t *Table[K]) DeletePermitted(key K) bool {
	for e := range t.m[key] {
		if e.Share&vfs.ShareDelete == 0 {
			return false
		}
	}
	return true
}

// Drop forgets every lock held on key and marks them orphaned.
// It is called when the file behind key is unlinked while handles stay open.
func (t *Table[K]) Drop(key K) {
	for e := range t.m[key] {
		e.orphaned = true
	}
	delete(t.m, key)
}

// Rekey moves locks held on oldKey to newKey.
// Locks already held on newKey are kept.
func (t *Table[K]) Rekey(oldKey, newKey K) {
	if oldKey == newKey {
		return
	}
	set, ok := t.m[oldKey]
	if !ok {
		return
	}
	delete(t.m, oldKey)
	for e := range set {
		e.key = newKey
	}
	if dst := t.m[newKey]; dst != nil {
		maps.Copy(dst, set)
		return
	}
	t.m[newKey] = set
}

// Keys yields keys currently held. The keys are collected before the first yield,
// so the table may be mutated while iterating.
func (t *Table[K]) Keys() iter.Seq[K] {
	keys := make([]K, 0, len(t.m))
	for k := range t.m {
		keys = append(keys, k)
	}
	return func(yield func(K) bool) {
		for _, k := range keys {
			if !yield(k) {
				return
			}
		}
	}
}
