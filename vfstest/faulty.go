package vfstest

import (
	"sync"

	"github.com/ngicks/go-fsys-helper/vfs"
)

var _ vfs.FileSystem = (*Faulty)(nil)

// Faulty wraps a vfs.FileSystem and fails chosen methods with injected errors.
//
// Faults are keyed by method name: "Open", "DeleteFile", "MoveFile", "CopyFile",
// "CreateDirectory", "DeleteDirectory", "MoveDirectory",
// and "File.Write", "File.Close" for handles returned from Open.
// Methods without a fault are forwarded to the wrapped file system.
type Faulty struct {
	vfs.FileSystem

	mu     sync.Mutex
	faults map[string]error
}

func NewFaulty(inner vfs.FileSystem) *Faulty {
	return &Faulty{FileSystem: inner, faults: make(map[string]error)}
}

// FailOn makes method fail with err. A nil err removes the fault.
func (f *Faulty) FailOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.faults, method)
		return
	}
	f.faults[method] = err
}

func (f *Faulty) fault(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.faults[method]
}

func (f *Faulty) Open(name string, mode vfs.OpenMode, access vfs.Access, share vfs.Share) (vfs.File, error) {
	if err := f.fault("Open"); err != nil {
		return nil, vfs.WrapPathErr("open", name, err)
	}
	file, err := f.FileSystem.Open(name, mode, access, share)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fsys: f}, nil
}

func (f *Faulty) DeleteFile(name string) error {
	if err := f.fault("DeleteFile"); err != nil {
		return vfs.WrapPathErr("remove", name, err)
	}
	return f.FileSystem.DeleteFile(name)
}

func (f *Faulty) MoveFile(src, dst string, overwrite bool) error {
	if err := f.fault("MoveFile"); err != nil {
		return vfs.WrapLinkErr("move", src, dst, err)
	}
	return f.FileSystem.MoveFile(src, dst, overwrite)
}

func (f *Faulty) CopyFile(src, dst string, overwrite bool) error {
	if err := f.fault("CopyFile"); err != nil {
		return vfs.WrapLinkErr("copy", src, dst, err)
	}
	return f.FileSystem.CopyFile(src, dst, overwrite)
}

func (f *Faulty) CreateDirectory(name string) error {
	if err := f.fault("CreateDirectory"); err != nil {
		return vfs.WrapPathErr("mkdir", name, err)
	}
	return f.FileSystem.CreateDirectory(name)
}

func (f *Faulty) DeleteDirectory(name string, recursive bool) error {
	if err := f.fault("DeleteDirectory"); err != nil {
		return vfs.WrapPathErr("rmdir", name, err)
	}
	return f.FileSystem.DeleteDirectory(name, recursive)
}

func (f *Faulty) MoveDirectory(src, dst string) error {
	if err := f.fault("MoveDirectory"); err != nil {
		return vfs.WrapLinkErr("movedir", src, dst, err)
	}
	return f.FileSystem.MoveDirectory(src, dst)
}

type faultyFile struct {
	vfs.File
	fsys *Faulty
}

func (f *faultyFile) Write(p []byte) (int, error) {
	if err := f.fsys.fault("File.Write"); err != nil {
		return 0, vfs.WrapPathErr("write", f.Name(), err)
	}
	return f.File.Write(p)
}

func (f *faultyFile) Close() error {
	if err := f.fsys.fault("File.Close"); err != nil {
		// the handle is released anyway.
		_ = f.File.Close()
		return vfs.WrapPathErr("close", f.Name(), err)
	}
	return f.File.Close()
}
