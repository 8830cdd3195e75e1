// Package vfs defines a storage contract with disk-like semantics.
//
// A [FileSystem] resolves open modes, arbitrates share modes between concurrently open handles,
// bounds its total size with a configurable overflow policy and supports atomic
// rename-with-overwrite, which is what package txstream builds transactional writes on.
//
// Two implementations are provided: memfs, a self-contained in-memory emulation,
// and diskfs, a pass-through over a real directory (or any afero.Fs).
//
// Paths are forward-slash separated and rooted at the file system root.
// "", "." and "/" all name the root. Paths returned from enumeration are in canonical form,
// which has no leading slash.
package vfs
