// Package quota accounts the total size of a file system against a size budget.
package quota

import (
	"fmt"

	"github.com/ngicks/go-fsys-helper/vfs"
)

// Evictor frees space for EvictOldest.
// Both methods are called with the namespace lock held.
type Evictor interface {
	// Reclaimable returns the number of bytes evicting every candidate would free.
	Reclaimable() int64
	// EvictOldest evicts the least recently written candidate.
	// It must report the freed size to the Accountant through Add.
	// It returns false if there was no candidate.
	EvictOldest() bool
}

// Outcome tells the caller of Reserve what to do with the write.
type Outcome int

const (
	// Admit means the write fits. The caller applies it and calls Add with the growth.
	Admit Outcome = iota
	// Discard means the write must be dropped silently.
	Discard
)

// Accountant is not safe for concurrent use.
type Accountant struct {
	total    int64
	max      int64
	behavior vfs.OverflowBehavior
}

func New(max int64, behavior vfs.OverflowBehavior) *Accountant {
	a := &Accountant{behavior: behavior}
	a.SetMax(max)
	return a
}

func (a *Accountant) Total() int64 { return a.total }
func (a *Accountant) Max() int64   { return a.max }

func (a *Accountant) SetMax(n int64) {
	a.max = max(n, 0)
}

func (a *Accountant) Behavior() vfs.OverflowBehavior { return a.behavior }

func (a *Accountant) SetBehavior(b vfs.OverflowBehavior) {
	a.behavior = b
}

// Add commits delta to the total.
func (a *Accountant) Add(delta int64) {
	a.total += delta
}

func (a *Accountant) fits(growth int64) bool {
	return a.max == 0 || a.total+growth <= a.max
}

// Reserve decides whether growth more bytes may be added.
// Non positive growth is always admitted, as is everything while the budget is 0.
//
// Under [vfs.EvictOldest] Reserve first checks that growth fits once everything ev can reclaim is gone.
// If it does not, nothing is evicted and [vfs.ErrCapacityExceeded] is returned.
//
// Reserve does not commit growth. It may however evict files through ev, which commits their sizes.
func (a *Accountant) Reserve(growth int64, ev Evictor) (Outcome, error) {
	if growth <= 0 || a.fits(growth) {
		return Admit, nil
	}
	switch a.behavior {
	case vfs.IgnoreWrites:
		return Discard, nil
	case vfs.EvictOldest:
		if ev == nil || a.total-ev.Reclaimable()+growth > a.max {
			return Admit, a.exceeded(growth)
		}
		for !a.fits(growth) {
			if !ev.EvictOldest() {
				return Admit, a.exceeded(growth)
			}
		}
		return Admit, nil
	}
	return Admit, a.exceeded(growth)
}

func (a *Accountant) exceeded(growth int64) error {
	return fmt.Errorf(
		"%w: adding %d bytes to %d exceeds max size %d",
		vfs.ErrCapacityExceeded, growth, a.total, a.max,
	)
}
