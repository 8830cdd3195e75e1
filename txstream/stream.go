// Package txstream implements a write-only stream which stages writes in a temp file
// and atomically replaces the target on commit.
//
// The stream only relies on [vfs.FileSystem.Open], [vfs.FileSystem.FileExists],
// reads and writes through returned handles, [vfs.FileSystem.MoveFile] with overwrite
// and [vfs.FileSystem.DeleteFile], so it works the same on every backend.
//
// The temp file sits next to the target, named the target plus a suffix (".tmp" by default).
// Commit moves it over the target. Close without a successful commit since the last write
// removes the temp file, leaving the target as it was.
package txstream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ngicks/go-common/serr"

	"github.com/ngicks/go-fsys-helper/vfs"
	"github.com/ngicks/go-fsys-helper/vfs/internal/bufpool"
)

const DefaultTempSuffix = ".tmp"

type config struct {
	tempSuffix string
}

type Option func(c *config)

// WithTempSuffix sets the suffix appended to the target path to derive the temp path.
// An empty suffix is ignored.
func WithTempSuffix(suffix string) Option {
	return func(c *config) {
		if suffix != "" {
			c.tempSuffix = suffix
		}
	}
}

// targetShare is the share the stream opens the target with while copying it into the temp file.
// It admits other readers, writers and deleters so copying never conflicts with them.
const targetShare = vfs.ShareReadWrite | vfs.ShareDelete

var _ io.WriteCloser = (*Stream)(nil)

// Stream is a transactional write stream. Stream is not safe for concurrent use.
type Stream struct {
	fsys   vfs.FileSystem
	target string
	temp   string

	f          vfs.File // handle to the temp file, nil while not staging.
	tempExists bool
	length     int64
	committed  bool
	// failed is set when a commit failed, and cleared by the next successful one.
	// The temp file is never removed while set.
	failed bool
	closed bool
}

// Open opens a stream targeting target.
//
// mode is interpreted against the target:
// CreateNew fails if the target exists, Open and Truncate fail if it does not.
// For Open, OpenOrCreate and Append an existing target is copied into the temp file first,
// so writes logically append to it.
// For CreateNew, Create and Truncate the temp file starts empty.
// Any temp file left over from earlier is discarded in every mode.
func Open(fsys vfs.FileSystem, target string, mode vfs.OpenMode, opts ...Option) (*Stream, error) {
	if !mode.IsValid() {
		return nil, vfs.WrapPathErr("open", target, fmt.Errorf("%w: unknown open mode %s", vfs.ErrInvalidArgument, mode))
	}
	cfg := config{tempSuffix: DefaultTempSuffix}
	for _, opt := range opts {
		opt(&cfg)
	}

	seeds := mode == vfs.Open || mode == vfs.OpenOrCreate || mode == vfs.Append

	var (
		src    vfs.File
		exists bool
	)
	if seeds {
		f, err := fsys.Open(target, vfs.Open, vfs.AccessRead, targetShare)
		switch {
		case err == nil:
			src, exists = f, true
			defer src.Close()
		case !errors.Is(err, vfs.ErrNotFound):
			return nil, err
		}
	} else {
		exists = fsys.FileExists(target)
	}

	switch mode {
	case vfs.CreateNew:
		if exists {
			return nil, vfs.WrapPathErr("open", target, vfs.ErrAlreadyExists)
		}
	case vfs.Open, vfs.Truncate:
		if !exists {
			return nil, vfs.WrapPathErr("open", target, vfs.ErrNotFound)
		}
	}

	s := &Stream{
		fsys:   fsys,
		target: target,
		temp:   target + cfg.tempSuffix,
	}
	if err := s.stage(); err != nil {
		return nil, err
	}
	if src != nil {
		if err := s.seed(src); err != nil {
			return nil, serr.Gather(err, s.discard())
		}
	}
	return s, nil
}

// stage creates an empty temp file, truncating whatever was there.
func (s *Stream) stage() error {
	f, err := s.fsys.Open(s.temp, vfs.Create, vfs.AccessWrite, vfs.ShareNone)
	if err != nil {
		return err
	}
	s.f = f
	s.tempExists = true
	s.length = 0
	return nil
}

func (s *Stream) seed(src io.Reader) error {
	n, err := bufpool.Copy(s.f, src)
	s.length = n
	return err
}

// discard closes and removes the temp file.
func (s *Stream) discard() error {
	var closeErr, removeErr error
	if s.f != nil {
		closeErr = s.f.Close()
		s.f = nil
	}
	if s.tempExists {
		removeErr = s.fsys.DeleteFile(s.temp)
		s.tempExists = false
	}
	return serr.Gather(
		serr.Prefix("closing temp file: ", closeErr),
		serr.Prefix("removing temp file: ", removeErr),
	)
}

// reopen gets a handle to the temp file after a commit closed it.
// If copying the committed target fails, the partially seeded temp file is discarded
// so the next write starts over.
func (s *Stream) reopen() error {
	if s.failed && s.tempExists {
		f, err := s.fsys.Open(s.temp, vfs.Append, vfs.AccessWrite, vfs.ShareNone)
		if err != nil {
			return err
		}
		s.f = f
		return nil
	}

	committedLen := s.length
	abort := func(err error) error {
		s.length = committedLen
		return serr.Gather(err, s.discard())
	}

	if err := s.stage(); err != nil {
		return err
	}
	src, err := s.fsys.Open(s.target, vfs.Open, vfs.AccessRead, targetShare)
	if err != nil {
		if errors.Is(err, vfs.ErrNotFound) {
			// removed by someone else since the commit.
			return nil
		}
		return abort(err)
	}
	defer src.Close()
	if err := s.seed(src); err != nil {
		return abort(err)
	}
	return nil
}

func (s *Stream) closedErr(op string) error {
	return vfs.WrapPathErr(op, s.target, vfs.ErrClosed)
}

// Write stages p in the temp file. The target is not touched until Commit.
func (s *Stream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, s.closedErr("write")
	}
	if len(p) == 0 {
		return 0, nil
	}
	if s.f == nil {
		if err := s.reopen(); err != nil {
			return 0, err
		}
	}
	n, err := s.f.Write(p)
	s.length += int64(n)
	if n > 0 {
		s.committed = false
	}
	return n, err
}

// Commit moves the temp file over the target.
//
// After a successful commit the stream stays usable; bytes written afterwards
// are appended to what was committed, and become visible on the next commit.
//
// If the move fails, the temp file is left in place with everything staged so far,
// also after Close, and the error is returned as is. Commit never retries by itself;
// calling it again retries the move.
func (s *Stream) Commit() error {
	if s.closed {
		return s.closedErr("commit")
	}
	if s.f != nil {
		err := s.f.Close()
		s.f = nil
		if err != nil {
			s.failed = true
			return err
		}
	}
	if !s.tempExists {
		// nothing staged since the last commit.
		return nil
	}
	if err := s.fsys.MoveFile(s.temp, s.target, true); err != nil {
		s.failed = true
		return err
	}
	s.tempExists = false
	s.failed = false
	s.committed = true
	return nil
}

// CommitContext is like Commit but fails without committing if ctx is already done.
func (s *Stream) CommitContext(ctx context.Context) error {
	if ctx.Err() != nil {
		return vfs.WrapPathErr("commit", s.target, fmt.Errorf("%w: %w", vfs.ErrCanceled, context.Cause(ctx)))
	}
	return s.Commit()
}

// Close releases the stream.
// Unless the last commit failed, staged but uncommitted bytes are discarded along with the temp file.
// Close is idempotent; calls after the first are no-ops returning nil.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.failed {
		if s.f == nil {
			return nil
		}
		err := s.f.Close()
		s.f = nil
		return serr.Prefix("closing temp file: ", err)
	}
	return s.discard()
}

// Sync flushes the temp file.
func (s *Stream) Sync() error {
	if s.closed {
		return s.closedErr("sync")
	}
	if s.f == nil {
		return nil
	}
	return s.f.Sync()
}

// Position returns the number of bytes the target will hold after the next commit.
// The stream is append-only, so it always equals Length.
func (s *Stream) Position() (int64, error) {
	if s.closed {
		return 0, s.closedErr("position")
	}
	return s.length, nil
}

func (s *Stream) Length() (int64, error) {
	if s.closed {
		return 0, s.closedErr("length")
	}
	return s.length, nil
}

// Committed reports whether everything written so far has been committed.
func (s *Stream) Committed() (bool, error) {
	if s.closed {
		return false, s.closedErr("committed")
	}
	return s.committed, nil
}

// CanWrite reports whether the stream accepts writes. It is false once closed.
func (s *Stream) CanWrite() bool {
	return !s.closed
}

// Target returns the target path.
func (s *Stream) Target() string { return s.target }

// TempPath returns the path writes are staged in.
func (s *Stream) TempPath() string { return s.temp }

func (s *Stream) Read(p []byte) (int, error) {
	return 0, vfs.WrapPathErr("read", s.target, vfs.ErrNotSupported)
}

func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	return 0, vfs.WrapPathErr("seek", s.target, vfs.ErrNotSupported)
}

func (s *Stream) Truncate(size int64) error {
	return vfs.WrapPathErr("truncate", s.target, vfs.ErrNotSupported)
}
