package clock

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"gotest.tools/v3/assert"
)

var _ WallClock = clockwork.Clock(nil)

func TestRealWallClock(t *testing.T) {
	before := time.Now()
	now := RealWallClock().Now()
	assert.Assert(t, !now.Before(before))
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	var c WallClock = clockwork.NewFakeClockAt(start)
	assert.Equal(t, c.Now(), start)

	c.(*clockwork.FakeClock).Advance(time.Second)
	assert.Equal(t, c.Now(), start.Add(time.Second))
}
