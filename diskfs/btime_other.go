//go:build !linux

package diskfs

import "time"

func birthTime(name string) (time.Time, bool) {
	return time.Time{}, false
}
