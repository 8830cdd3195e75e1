// Package vpath normalizes slash separated paths rooted at a file system root.
//
// The canonical form is what [Clean] returns: no leading or trailing slash,
// no "." or ".." elements, and "" for the root itself.
package vpath

import (
	"iter"
	"path"
	"strings"
)

// Clean converts name into canonical form.
// If backslash is true, '\' is treated as a separator too.
// ".." never climbs above the root.
func Clean(name string, backslash bool) string {
	if backslash {
		name = strings.ReplaceAll(name, `\`, "/")
	}
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

func IsRoot(p string) bool {
	return p == ""
}

// Split splits canonical path p into its elements. It returns nil for the root.
func Split(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Join joins canonical dir and a single element.
func Join(dir, elem string) string {
	if dir == "" {
		return elem
	}
	return dir + "/" + elem
}

// Dir returns the parent of canonical path p. The parent of a top level entry is the root, "".
func Dir(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return ""
	}
	return p[:i]
}

// Base returns the last element of canonical path p.
func Base(p string) string {
	return p[strings.LastIndexByte(p, '/')+1:]
}

// Within reports whether canonical path p is dir itself or is under dir.
func Within(p, dir string) bool {
	if dir == "" {
		return true
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// Rebase replaces the oldDir prefix of p with newDir. p must be [Within] oldDir.
func Rebase(p, oldDir, newDir string) string {
	rest := strings.TrimPrefix(strings.TrimPrefix(p, oldDir), "/")
	if rest == "" {
		return newDir
	}
	return Join(newDir, rest)
}

// FromHead yields every ancestor of canonical path p, starting from the top level one
// and ending with p itself.
//
// For "a/b/c", it yields "a", "a/b", "a/b/c".
func FromHead(p string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if p == "" {
			return
		}
		off := 0
		for {
			i := strings.IndexByte(p[off:], '/')
			if i < 0 {
				yield(p)
				return
			}
			if !yield(p[:off+i]) {
				return
			}
			off += i + 1
		}
	}
}

// ValidPattern reports whether pattern is a syntactically valid [path.Match] pattern.
func ValidPattern(pattern string) bool {
	_, err := path.Match(pattern, "")
	return err == nil
}

// Match reports whether base name matches pattern.
// "", "*" and "*.*" match every name, including ones without a dot.
func Match(pattern, name string) bool {
	switch pattern {
	case "", "*", "*.*":
		return true
	}
	ok, _ := path.Match(pattern, name)
	return ok
}
