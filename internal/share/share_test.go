package share

import (
	"slices"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/ngicks/go-fsys-helper/vfs"
)

func TestCompatible(t *testing.T) {
	type testCase struct {
		held, req Lock
		want      bool
	}
	for _, tc := range []testCase{
		{Lock{vfs.AccessRead, vfs.ShareRead}, Lock{vfs.AccessRead, vfs.ShareRead}, true},
		{Lock{vfs.AccessRead, vfs.ShareRead}, Lock{vfs.AccessWrite, vfs.ShareRead}, false},
		{Lock{vfs.AccessRead, vfs.ShareReadWrite}, Lock{vfs.AccessWrite, vfs.ShareRead}, true},
		// the held handle's access must be permitted by the new share too.
		{Lock{vfs.AccessWrite, vfs.ShareReadWrite}, Lock{vfs.AccessRead, vfs.ShareRead}, false},
		{Lock{vfs.AccessWrite, vfs.ShareReadWrite}, Lock{vfs.AccessRead, vfs.ShareWrite}, true},
		{Lock{vfs.AccessRead, vfs.ShareNone}, Lock{vfs.AccessRead, vfs.ShareReadWrite}, false},
		{Lock{vfs.AccessRead, vfs.ShareDelete}, Lock{vfs.AccessRead, vfs.ShareRead}, false},
		{Lock{vfs.AccessReadWrite, vfs.ShareReadWrite | vfs.ShareDelete}, Lock{vfs.AccessReadWrite, vfs.ShareReadWrite}, true},
	} {
		assert.Equal(t, Compatible(tc.held, tc.req), tc.want, "held = %+v, req = %+v", tc.held, tc.req)
	}
}

func TestTable(t *testing.T) {
	tbl := NewTable[string]()

	r1, err := tbl.Acquire("a", Lock{vfs.AccessRead, vfs.ShareRead | vfs.ShareDelete})
	assert.NilError(t, err)
	_, err = tbl.Acquire("a", Lock{vfs.AccessWrite, vfs.ShareReadWrite})
	assert.ErrorIs(t, err, vfs.ErrSharingViolation)
	r2, err := tbl.Acquire("a", Lock{vfs.AccessRead, vfs.ShareRead})
	assert.NilError(t, err)
	assert.Equal(t, tbl.Held("a"), 2)
	assert.Assert(t, !tbl.DeletePermitted("a"))

	// out of order release.
	tbl.Release(r2)
	assert.Assert(t, tbl.DeletePermitted("a"))
	tbl.Release(r2)
	assert.Equal(t, tbl.Held("a"), 1)

	tbl.Rekey("a", "b")
	assert.Equal(t, tbl.Held("a"), 0)
	assert.Equal(t, tbl.Held("b"), 1)
	assert.Equal(t, r1.Key(), "b")
	assert.DeepEqual(t, slices.Collect(tbl.Keys()), []string{"b"})

	tbl.Drop("b")
	assert.Assert(t, r1.Orphaned())
	assert.Equal(t, tbl.Held("b"), 0)

	// a new file under the same key is not affected by releasing the orphan.
	r3, err := tbl.Acquire("b", Lock{vfs.AccessRead, vfs.ShareNone})
	assert.NilError(t, err)
	tbl.Release(r1)
	assert.Equal(t, tbl.Held("b"), 1)
	tbl.Release(r3)
	assert.Equal(t, tbl.Held("b"), 0)

	assert.Assert(t, tbl.DeletePermitted("missing"))
}
