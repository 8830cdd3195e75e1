//go:build !unix

package diskfs

import "github.com/spf13/afero"

func lockFile(f afero.File, exclusive bool) error {
	return nil
}
