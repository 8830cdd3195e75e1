package vfs

import (
	"fmt"
	"strings"
)

// OpenMode specifies how Open resolves a path depending on whether the file already exists.
type OpenMode int

const (
	// CreateNew creates a new file. Open fails with ErrAlreadyExists if the file exists.
	CreateNew OpenMode = iota + 1
	// Create creates a new file, or truncates an existing one.
	Create
	// Open opens an existing file. Open fails with ErrNotFound if the file does not exist.
	Open
	// OpenOrCreate opens the file if it exists, otherwise creates it.
	OpenOrCreate
	// Truncate opens an existing file and truncates it to zero length.
	Truncate
	// Append opens the file if it exists and seeks to its end, otherwise creates it.
	// Handles opened in Append mode are write-only and cannot seek before the end of file at open time.
	Append
)

func (m OpenMode) IsValid() bool {
	return CreateNew <= m && m <= Append
}

func (m OpenMode) String() string {
	switch m {
	case CreateNew:
		return "CreateNew"
	case Create:
		return "Create"
	case Open:
		return "Open"
	case OpenOrCreate:
		return "OpenOrCreate"
	case Truncate:
		return "Truncate"
	case Append:
		return "Append"
	}
	return fmt.Sprintf("OpenMode(%d)", int(m))
}

// Access is the set of operations a handle is opened for.
type Access int

const (
	AccessRead Access = 1 << iota
	AccessWrite

	AccessReadWrite = AccessRead | AccessWrite
)

func (a Access) IsValid() bool {
	return a != 0 && a&^AccessReadWrite == 0
}

func (a Access) CanRead() bool  { return a&AccessRead != 0 }
func (a Access) CanWrite() bool { return a&AccessWrite != 0 }

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "Read"
	case AccessWrite:
		return "Write"
	case AccessReadWrite:
		return "ReadWrite"
	}
	return fmt.Sprintf("Access(%d)", int(a))
}

// Share is the set of operations a handle permits to other handles opened on the same file
// while it stays open.
type Share int

const (
	ShareNone Share = 0
	ShareRead Share = 1 << (iota - 1)
	ShareWrite
	// ShareDelete permits DeleteFile and MoveFile on the file while the handle is open.
	// It is independent of ShareRead and ShareWrite.
	ShareDelete

	ShareReadWrite = ShareRead | ShareWrite
)

func (s Share) IsValid() bool {
	return s&^(ShareReadWrite|ShareDelete) == 0
}

// Permits reports whether s allows another handle to be opened with access a.
func (s Share) Permits(a Access) bool {
	if a.CanRead() && s&ShareRead == 0 {
		return false
	}
	if a.CanWrite() && s&ShareWrite == 0 {
		return false
	}
	return true
}

func (s Share) String() string {
	if s == ShareNone {
		return "None"
	}
	var parts []string
	if s&ShareRead != 0 {
		parts = append(parts, "Read")
	}
	if s&ShareWrite != 0 {
		parts = append(parts, "Write")
	}
	if s&ShareDelete != 0 {
		parts = append(parts, "Delete")
	}
	if rest := s &^ (ShareReadWrite | ShareDelete); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", int(rest)))
	}
	return strings.Join(parts, "|")
}

// Attributes is a bit set of file attributes.
type Attributes int

const (
	AttrNormal   Attributes = 0
	AttrReadOnly Attributes = 1 << (iota - 1)
	AttrDirectory
)

func (a Attributes) IsReadOnly() bool  { return a&AttrReadOnly != 0 }
func (a Attributes) IsDirectory() bool { return a&AttrDirectory != 0 }

func (a Attributes) String() string {
	switch {
	case a == AttrNormal:
		return "Normal"
	case a.IsDirectory() && a.IsReadOnly():
		return "ReadOnly|Directory"
	case a.IsDirectory():
		return "Directory"
	case a.IsReadOnly():
		return "ReadOnly"
	}
	return fmt.Sprintf("Attributes(%d)", int(a))
}

// OverflowBehavior decides what happens to a write that would grow TotalSize over MaxSize.
type OverflowBehavior int

const (
	// ThrowException fails the write with ErrCapacityExceeded, leaving everything as it was.
	ThrowException OverflowBehavior = iota
	// IgnoreWrites silently discards the write.
	// The write is reported as fully written, while the file content and cursor are left unchanged.
	IgnoreWrites
	// EvictOldest deletes least recently written files, skipping ones that are open or read-only,
	// until the write fits.
	// If it can not fit even after every such file is evicted, the write fails as ThrowException does
	// and nothing is evicted.
	EvictOldest
)

func (b OverflowBehavior) IsValid() bool {
	return ThrowException <= b && b <= EvictOldest
}

func (b OverflowBehavior) String() string {
	switch b {
	case ThrowException:
		return "ThrowException"
	case IgnoreWrites:
		return "IgnoreWrites"
	case EvictOldest:
		return "EvictOldest"
	}
	return fmt.Sprintf("OverflowBehavior(%d)", int(b))
}

// ParseOverflowBehavior parses s as an OverflowBehavior.
// It accepts the String form and the short names throw, ignore and evict, case-insensitively.
func ParseOverflowBehavior(s string) (OverflowBehavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "throw", "throwexception", "":
		return ThrowException, nil
	case "ignore", "ignorewrites":
		return IgnoreWrites, nil
	case "evict", "evictoldest":
		return EvictOldest, nil
	}
	return 0, fmt.Errorf("%w: unknown overflow behavior %q", ErrInvalidArgument, s)
}

func (b OverflowBehavior) MarshalText() ([]byte, error) {
	if !b.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, b)
	}
	return []byte(b.String()), nil
}

func (b *OverflowBehavior) UnmarshalText(text []byte) error {
	parsed, err := ParseOverflowBehavior(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// SearchScope selects whether enumeration descends into subdirectories.
type SearchScope int

const (
	TopOnly SearchScope = iota
	AllDescendants
)

func (s SearchScope) IsValid() bool {
	return s == TopOnly || s == AllDescendants
}

// ValidateOpen checks the combination of mode, access and share given to [FileSystem.Open].
// Implementations call it before touching any state so that invalid combinations fail
// the same way regardless of whether the file exists.
func ValidateOpen(mode OpenMode, access Access, share Share) error {
	switch {
	case !mode.IsValid():
		return fmt.Errorf("%w: unknown open mode %s", ErrInvalidArgument, mode)
	case !access.IsValid():
		return fmt.Errorf("%w: unknown access %s", ErrInvalidArgument, access)
	case !share.IsValid():
		return fmt.Errorf("%w: unknown share %s", ErrInvalidArgument, share)
	}
	switch mode {
	case Append:
		if access.CanRead() {
			return fmt.Errorf("%w: %s can not be combined with read access", ErrInvalidArgument, mode)
		}
	case CreateNew, Create, Truncate:
		if !access.CanWrite() {
			return fmt.Errorf("%w: %s requires write access", ErrInvalidArgument, mode)
		}
	}
	return nil
}
