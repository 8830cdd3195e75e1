package vfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"gotest.tools/v3/assert"
)

func TestKindOf(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want Kind
	}{
		{nil, KindOther},
		{errors.New("foo"), KindOther},
		{ErrNotFound, KindNotFound},
		{&fs.PathError{Op: "open", Path: "foo", Err: syscall.ENOENT}, KindNotFound},
		{WrapPathErr("open", "foo", ErrAlreadyExists), KindAlreadyExists},
		{WrapLinkErr("move", "a", "b", ErrSharingViolation), KindSharingViolation},
		{WrapPathErr("remove", "foo", ErrAccessDenied), KindAccessDenied},
		{fmt.Errorf("%w: 1 more byte", ErrCapacityExceeded), KindCapacityExceeded},
		{context.Canceled, KindCanceled},
		{fmt.Errorf("%w: %w", ErrCanceled, context.DeadlineExceeded), KindCanceled},
		{WrapPathErr("read", "foo", ErrClosed), KindInvalidState},
		{WrapPathErr("write", "foo", ErrNotSupported), KindNotSupported},
		{WrapPathErr("rmdir", "foo", ErrDirectoryNotEmpty), KindDirectoryNotEmpty},
		{fmt.Errorf("%w: bad pattern", ErrInvalidArgument), KindInvalidArgument},
		// canceled wins over what it wraps.
		{errors.Join(ErrCanceled, ErrNotFound), KindCanceled},
	} {
		assert.Equal(t, KindOf(tc.err), tc.want, "err = %v", tc.err)
	}
	assert.Equal(t, KindSharingViolation.String(), "SharingViolation")
	assert.Equal(t, Kind(100).String(), "Other")
}

func TestWrapPathErr(t *testing.T) {
	assert.NilError(t, WrapPathErr("open", "foo", nil))

	err := WrapPathErr("open", "foo", ErrNotFound)
	var pathErr *fs.PathError
	assert.Assert(t, errors.As(err, &pathErr))
	assert.Equal(t, pathErr.Op, "open")
	assert.Equal(t, pathErr.Path, "foo")

	// fields are overwritten instead of nesting.
	rewrapped := WrapPathErr("", "bar", err)
	assert.Equal(t, rewrapped.Error(), "open bar: file does not exist")

	linkErr := WrapLinkErr("move", "a", "b", ErrAlreadyExists)
	var le *os.LinkError
	assert.Assert(t, errors.As(linkErr, &le))
	assert.Equal(t, le.Old, "a")
	assert.Equal(t, le.New, "b")
	assert.ErrorIs(t, linkErr, ErrAlreadyExists)
}
