package vfstest

import (
	"io/fs"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/ngicks/go-fsys-helper/vfs"
)

// Call is a method call recorded by Recorder.
type Call struct {
	// File is true if the method was called on a handle rather than on the file system.
	File   bool
	Method string
	Args   []any
	Err    error
}

var _ vfs.FileSystem = (*Recorder)(nil)

// Recorder is a vfs.FileSystem recording every call made to it and to handles it returns.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	inner vfs.FileSystem
}

func NewRecorder(inner vfs.FileSystem) *Recorder {
	return &Recorder{inner: inner}
}

func (r *Recorder) record(file bool, method string, err error, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{File: file, Method: method, Args: slices.Clone(args), Err: err})
}

// Calls returns recorded calls in call order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Methods returns method names of file system calls, excluding calls on handles.
func (r *Recorder) Methods() []string {
	var methods []string
	for _, c := range r.Calls() {
		if !c.File {
			methods = append(methods, c.Method)
		}
	}
	return methods
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *Recorder) FileExists(name string) bool {
	r.record(false, "FileExists", nil, name)
	return r.inner.FileExists(name)
}

func (r *Recorder) DirectoryExists(name string) bool {
	r.record(false, "DirectoryExists", nil, name)
	return r.inner.DirectoryExists(name)
}

func (r *Recorder) Open(name string, mode vfs.OpenMode, access vfs.Access, share vfs.Share) (vfs.File, error) {
	f, err := r.inner.Open(name, mode, access, share)
	r.record(false, "Open", err, name, mode, access, share)
	if err != nil {
		return nil, err
	}
	return &recordedFile{inner: f, r: r}, nil
}

func (r *Recorder) CreateDirectory(name string) error {
	err := r.inner.CreateDirectory(name)
	r.record(false, "CreateDirectory", err, name)
	return err
}

func (r *Recorder) DeleteDirectory(name string, recursive bool) error {
	err := r.inner.DeleteDirectory(name, recursive)
	r.record(false, "DeleteDirectory", err, name, recursive)
	return err
}

func (r *Recorder) DeleteFile(name string) error {
	err := r.inner.DeleteFile(name)
	r.record(false, "DeleteFile", err, name)
	return err
}

func (r *Recorder) MoveFile(src, dst string, overwrite bool) error {
	err := r.inner.MoveFile(src, dst, overwrite)
	r.record(false, "MoveFile", err, src, dst, overwrite)
	return err
}

func (r *Recorder) CopyFile(src, dst string, overwrite bool) error {
	err := r.inner.CopyFile(src, dst, overwrite)
	r.record(false, "CopyFile", err, src, dst, overwrite)
	return err
}

func (r *Recorder) MoveDirectory(src, dst string) error {
	err := r.inner.MoveDirectory(src, dst)
	r.record(false, "MoveDirectory", err, src, dst)
	return err
}

func (r *Recorder) EnumerateFiles(dir, pattern string, scope vfs.SearchScope) (iter.Seq[string], error) {
	seq, err := r.inner.EnumerateFiles(dir, pattern, scope)
	r.record(false, "EnumerateFiles", err, dir, pattern, scope)
	return seq, err
}

func (r *Recorder) EnumerateDirectories(dir, pattern string, scope vfs.SearchScope) (iter.Seq[string], error) {
	seq, err := r.inner.EnumerateDirectories(dir, pattern, scope)
	r.record(false, "EnumerateDirectories", err, dir, pattern, scope)
	return seq, err
}

func (r *Recorder) CreationTime(name string) (time.Time, error) {
	t, err := r.inner.CreationTime(name)
	r.record(false, "CreationTime", err, name)
	return t, err
}

func (r *Recorder) LastWriteTime(name string) (time.Time, error) {
	t, err := r.inner.LastWriteTime(name)
	r.record(false, "LastWriteTime", err, name)
	return t, err
}

func (r *Recorder) FileLength(name string) (int64, error) {
	n, err := r.inner.FileLength(name)
	r.record(false, "FileLength", err, name)
	return n, err
}

func (r *Recorder) Attributes(name string) (vfs.Attributes, error) {
	a, err := r.inner.Attributes(name)
	r.record(false, "Attributes", err, name)
	return a, err
}

func (r *Recorder) SetReadOnly(name string, readOnly bool) error {
	err := r.inner.SetReadOnly(name, readOnly)
	r.record(false, "SetReadOnly", err, name, readOnly)
	return err
}

func (r *Recorder) Stat(name string) (fs.FileInfo, error) {
	info, err := r.inner.Stat(name)
	r.record(false, "Stat", err, name)
	return info, err
}

func (r *Recorder) TotalSize() int64 {
	r.record(false, "TotalSize", nil)
	return r.inner.TotalSize()
}

func (r *Recorder) MaxSize() int64 {
	r.record(false, "MaxSize", nil)
	return r.inner.MaxSize()
}

func (r *Recorder) SetMaxSize(n int64) {
	r.record(false, "SetMaxSize", nil, n)
	r.inner.SetMaxSize(n)
}

func (r *Recorder) OverflowBehavior() vfs.OverflowBehavior {
	r.record(false, "OverflowBehavior", nil)
	return r.inner.OverflowBehavior()
}

func (r *Recorder) SetOverflowBehavior(b vfs.OverflowBehavior) {
	r.record(false, "SetOverflowBehavior", nil, b)
	r.inner.SetOverflowBehavior(b)
}

type recordedFile struct {
	inner vfs.File
	r     *Recorder
}

func (f *recordedFile) Name() string {
	return f.inner.Name()
}

func (f *recordedFile) Read(p []byte) (int, error) {
	n, err := f.inner.Read(p)
	f.r.record(true, "Read", err, f.inner.Name(), n)
	return n, err
}

func (f *recordedFile) Write(p []byte) (int, error) {
	n, err := f.inner.Write(p)
	f.r.record(true, "Write", err, f.inner.Name(), n)
	return n, err
}

func (f *recordedFile) Seek(offset int64, whence int) (int64, error) {
	n, err := f.inner.Seek(offset, whence)
	f.r.record(true, "Seek", err, f.inner.Name(), offset, whence)
	return n, err
}

func (f *recordedFile) Close() error {
	err := f.inner.Close()
	f.r.record(true, "Close", err, f.inner.Name())
	return err
}

func (f *recordedFile) Stat() (fs.FileInfo, error) {
	info, err := f.inner.Stat()
	f.r.record(true, "Stat", err, f.inner.Name())
	return info, err
}

func (f *recordedFile) Truncate(size int64) error {
	err := f.inner.Truncate(size)
	f.r.record(true, "Truncate", err, f.inner.Name(), size)
	return err
}

func (f *recordedFile) Sync() error {
	err := f.inner.Sync()
	f.r.record(true, "Sync", err, f.inner.Name())
	return err
}
