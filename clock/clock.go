// Package clock abstracts the wall clock file systems stamp creation and last write times with.
//
// Tests drive time with a fake clock such as clockwork.NewFakeClockAt, which satisfies [WallClock].
package clock

import "time"

// WallClock is an interface wrapping basic Now method, which returns wall clock time.
// For real clock that wraps [time.Now], use [RealWallClock].
type WallClock interface {
	Now() time.Time
}

type realWallClock struct{}

func (c realWallClock) Now() time.Time {
	return time.Now()
}

func RealWallClock() WallClock {
	return realWallClock{}
}
