package vfs

import (
	"errors"
	"io"
	"iter"
	"slices"
)

// ReadFile reads the whole content of name.
// The file is opened with [ShareRead], so it fails while another handle is open for writing.
func ReadFile(fsys FileSystem, name string) ([]byte, error) {
	f, err := fsys.Open(name, Open, AccessRead, ShareRead)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// WriteFile writes data to name, creating it or truncating it first.
func WriteFile(fsys FileSystem, name string, data []byte) error {
	return writeFile(fsys, name, Create, data)
}

// AppendFile appends data to name, creating it if it does not exist.
func AppendFile(fsys FileSystem, name string, data []byte) error {
	return writeFile(fsys, name, Append, data)
}

func writeFile(fsys FileSystem, name string, mode OpenMode, data []byte) error {
	f, err := fsys.Open(name, mode, AccessWrite, ShareNone)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	return errors.Join(err, f.Close())
}

// Collect materializes the result of EnumerateFiles or EnumerateDirectories.
func Collect(seq iter.Seq[string], err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}
