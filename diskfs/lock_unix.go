//go:build unix

package diskfs

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"

	"github.com/ngicks/go-fsys-helper/vfs"
)

// lockFile takes a non-blocking advisory lock on f if it is backed by a host file.
// The lock is released when f is closed.
func lockFile(f afero.File, exclusive bool) error {
	of, ok := osFile(f)
	if !ok {
		return nil
	}
	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	for {
		err := unix.Flock(int(of.Fd()), how|unix.LOCK_NB)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EWOULDBLOCK):
			return fmt.Errorf("%w: locked by another process", vfs.ErrSharingViolation)
		}
		return fmt.Errorf("flock: %w", err)
	}
}
