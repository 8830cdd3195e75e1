//go:build linux

package diskfs

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/ngicks/go-fsys-helper/vfs"
)

func TestFs_creation_time(t *testing.T) {
	fsys, _ := newOs(t, Option{})
	before := time.Now().Add(-time.Second)
	assert.NilError(t, vfs.WriteFile(fsys, "file", []byte("foo")))
	time.Sleep(20 * time.Millisecond)
	assert.NilError(t, vfs.AppendFile(fsys, "file", []byte("bar")))

	ctime, err := fsys.CreationTime("file")
	assert.NilError(t, err)
	mtime, err := fsys.LastWriteTime("file")
	assert.NilError(t, err)
	assert.Equal(t, ctime.Location(), time.UTC)
	assert.Assert(t, ctime.After(before), "ctime = %s", ctime)
	assert.Assert(t, !ctime.After(mtime), "ctime = %s, mtime = %s", ctime, mtime)
}
