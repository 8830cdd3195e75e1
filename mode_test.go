package vfs

import (
	"encoding/json"
	"testing"

	"gotest.tools/v3/assert"
)

func TestValidateOpen(t *testing.T) {
	for _, tc := range []struct {
		mode   OpenMode
		access Access
		share  Share
		ok     bool
	}{
		{Open, AccessRead, ShareRead, true},
		{OpenOrCreate, AccessReadWrite, ShareNone, true},
		{Append, AccessWrite, ShareRead | ShareDelete, true},
		{Create, AccessWrite, ShareReadWrite, true},
		{CreateNew, AccessReadWrite, ShareNone, true},
		{Truncate, AccessWrite, ShareNone, true},
		{Open, AccessWrite, ShareNone, true},

		{OpenMode(0), AccessRead, ShareRead, false},
		{OpenMode(7), AccessRead, ShareRead, false},
		{Open, Access(0), ShareRead, false},
		{Open, Access(4), ShareRead, false},
		{Open, AccessRead, Share(8), false},
		{Append, AccessRead, ShareNone, false},
		{Append, AccessReadWrite, ShareNone, false},
		{Create, AccessRead, ShareNone, false},
		{CreateNew, AccessRead, ShareNone, false},
		{Truncate, AccessRead, ShareNone, false},
	} {
		err := ValidateOpen(tc.mode, tc.access, tc.share)
		if tc.ok {
			assert.NilError(t, err, "%s %s %s", tc.mode, tc.access, tc.share)
		} else {
			assert.ErrorIs(t, err, ErrInvalidArgument, "%s %s %s", tc.mode, tc.access, tc.share)
		}
	}
}

func TestShare_Permits(t *testing.T) {
	assert.Assert(t, ShareRead.Permits(AccessRead))
	assert.Assert(t, !ShareRead.Permits(AccessWrite))
	assert.Assert(t, !ShareRead.Permits(AccessReadWrite))
	assert.Assert(t, ShareReadWrite.Permits(AccessReadWrite))
	assert.Assert(t, !ShareNone.Permits(AccessRead))
	assert.Assert(t, !ShareDelete.Permits(AccessRead))
	assert.Assert(t, (ShareWrite | ShareDelete).Permits(AccessWrite))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, OpenOrCreate.String(), "OpenOrCreate")
	assert.Equal(t, OpenMode(9).String(), "OpenMode(9)")
	assert.Equal(t, AccessReadWrite.String(), "ReadWrite")
	assert.Equal(t, ShareNone.String(), "None")
	assert.Equal(t, (ShareRead | ShareDelete).String(), "Read|Delete")
	assert.Equal(t, Share(0x13).String(), "Read|Write|0x10")
	assert.Equal(t, (AttrReadOnly | AttrDirectory).String(), "ReadOnly|Directory")
	assert.Equal(t, AttrNormal.String(), "Normal")
	assert.Equal(t, EvictOldest.String(), "EvictOldest")
}

func TestOverflowBehavior_text(t *testing.T) {
	for input, want := range map[string]OverflowBehavior{
		"":               ThrowException,
		"throw":          ThrowException,
		"ThrowException": ThrowException,
		" Ignore ":       IgnoreWrites,
		"ignorewrites":   IgnoreWrites,
		"EVICT":          EvictOldest,
		"EvictOldest":    EvictOldest,
	} {
		got, err := ParseOverflowBehavior(input)
		assert.NilError(t, err, "input = %q", input)
		assert.Equal(t, got, want, "input = %q", input)
	}
	_, err := ParseOverflowBehavior("drop")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	type conf struct {
		Overflow OverflowBehavior `json:"overflow"`
	}
	var c conf
	assert.NilError(t, json.Unmarshal([]byte(`{"overflow":"evict"}`), &c))
	assert.Equal(t, c.Overflow, EvictOldest)
	b, err := json.Marshal(c)
	assert.NilError(t, err)
	assert.Equal(t, string(b), `{"overflow":"EvictOldest"}`)

	_, err = json.Marshal(conf{Overflow: OverflowBehavior(5)})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorContains(t, json.Unmarshal([]byte(`{"overflow":"drop"}`), &c), "unknown overflow behavior")
}
