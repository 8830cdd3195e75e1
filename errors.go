package vfs

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

var (
	ErrNotFound        = fs.ErrNotExist
	ErrAlreadyExists   = fs.ErrExist
	ErrAccessDenied    = fs.ErrPermission
	ErrInvalidArgument = fs.ErrInvalid
	// ErrClosed is returned from operations on closed handles and streams.
	ErrClosed = fs.ErrClosed

	ErrSharingViolation  = errors.New("sharing violation")
	ErrCapacityExceeded  = errors.New("capacity exceeded")
	ErrCanceled          = errors.New("operation canceled")
	ErrNotSupported      = errors.New("operation not supported")
	ErrDirectoryNotEmpty = errors.New("directory not empty")
)

// Kind classifies errors returned from this package and its implementations.
type Kind int

const (
	KindOther Kind = iota
	KindNotFound
	KindAlreadyExists
	KindSharingViolation
	KindAccessDenied
	KindCapacityExceeded
	KindCanceled
	KindInvalidState
	KindInvalidArgument
	KindNotSupported
	KindDirectoryNotEmpty
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindAlreadyExists:
		return "AlreadyExists"
	case KindSharingViolation:
		return "SharingViolation"
	case KindAccessDenied:
		return "AccessDenied"
	case KindCapacityExceeded:
		return "CapacityExceeded"
	case KindCanceled:
		return "Canceled"
	case KindInvalidState:
		return "InvalidState"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindNotSupported:
		return "NotSupported"
	case KindDirectoryNotEmpty:
		return "DirectoryNotEmpty"
	}
	return "Other"
}

// KindOf returns the Kind of err. It returns KindOther for nil and unknown errors.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindOther
	case errors.Is(err, ErrCanceled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrSharingViolation):
		return KindSharingViolation
	case errors.Is(err, ErrCapacityExceeded):
		return KindCapacityExceeded
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrAccessDenied):
		return KindAccessDenied
	case errors.Is(err, ErrNotSupported):
		return KindNotSupported
	case errors.Is(err, ErrClosed):
		return KindInvalidState
	case errors.Is(err, ErrDirectoryNotEmpty):
		return KindDirectoryNotEmpty
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	}
	return KindOther
}

// WrapPathErr wraps err into [*fs.PathError].
//
// If err is nil, WrapPathErr also returns nil.
//
// If err is already a PathError, its fields are overwritten
// by non zero op and/or path.
func WrapPathErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if pathErr, ok := err.(*fs.PathError); ok {
		if op != "" {
			pathErr.Op = op
		}
		if path != "" {
			pathErr.Path = path
		}
		return err
	}
	return &fs.PathError{Op: op, Path: path, Err: err}
}

// WrapLinkErr is like [WrapPathErr] but for operations involving 2 paths.
func WrapLinkErr(op, old, new string, err error) error {
	if err == nil {
		return nil
	}
	if linkErr, ok := err.(*os.LinkError); ok {
		if op != "" {
			linkErr.Op = op
		}
		if old != "" {
			linkErr.Old = old
		}
		if new != "" {
			linkErr.New = new
		}
		return err
	}
	return &os.LinkError{Op: op, Old: old, New: new, Err: err}
}
