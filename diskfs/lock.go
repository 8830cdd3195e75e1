package diskfs

import (
	"os"

	"github.com/spf13/afero"
)

// osFile unwraps the *os.File behind f if any.
func osFile(f afero.File) (*os.File, bool) {
	switch x := f.(type) {
	case *os.File:
		return x, true
	case *afero.BasePathFile:
		of, ok := x.File.(*os.File)
		return of, ok
	}
	return nil, false
}
