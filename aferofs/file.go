package aferofs

import (
	"io"
	"io/fs"
	"sync"

	"github.com/spf13/afero"

	"github.com/ngicks/go-fsys-helper/vfs"
)

var _ afero.File = (*File)(nil)

// File adapts [vfs.File] to [afero.File].
// ReadAt and WriteAt move the cursor of the underlying handle and restore it afterwards.
type File struct {
	mu   sync.Mutex
	f    vfs.File
	name string
}

func (f *File) Name() string {
	return f.name
}

func (f *File) Close() error {
	return f.f.Close()
}

func (f *File) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.Read(p)
}

func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	err = f.at(off, func() error {
		n, err = io.ReadFull(f.f, p)
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return err
	})
	return n, err
}

func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.Write(p)
}

func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	err = f.at(off, func() error {
		n, err = f.f.Write(p)
		return err
	})
	return n, err
}

func (f *File) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

// at runs fn with the cursor moved to off.
func (f *File) at(off int64, fn func() error) error {
	prev, err := f.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := f.f.Seek(off, io.SeekStart); err != nil {
		return err
	}
	fnErr := fn()
	if _, err := f.f.Seek(prev, io.SeekStart); err != nil && fnErr == nil {
		return err
	}
	return fnErr
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.Seek(offset, whence)
}

func (f *File) Stat() (fs.FileInfo, error) {
	return f.f.Stat()
}

func (f *File) Sync() error {
	return f.f.Sync()
}

func (f *File) Truncate(size int64) error {
	return f.f.Truncate(size)
}

func (f *File) Readdir(count int) ([]fs.FileInfo, error) {
	return nil, &fs.PathError{Op: "readdir", Path: f.name, Err: vfs.ErrInvalidArgument}
}

func (f *File) Readdirnames(n int) ([]string, error) {
	return nil, &fs.PathError{Op: "readdirnames", Path: f.name, Err: vfs.ErrInvalidArgument}
}
