// Package resolver maps dotted Python module names to files. Lookup
// walks a fixed list of search roots in priority order; the first root
// containing a matching file wins. A name that matches nowhere is an
// ordinary negative result, never an error.
package resolver

import "strings"

// ModuleName is a dotted Python module name like "os.path" or
// "pkg.sub.mod". The zero value is invalid.
type ModuleName string

// IsValid reports whether the name is non-empty and every dotted
// component is a plain identifier.
func (m ModuleName) IsValid() bool {
	if m == "" {
		return false
	}
	for _, part := range m.Parts() {
		if !isIdentifier(part) {
			return false
		}
	}
	return true
}

// Parts returns the dotted components in order
func (m ModuleName) Parts() []string {
	return strings.Split(string(m), ".")
}

// RelPath returns the name as a forward-slash relative path, following
// the dots-to-directories convention: "os.path" becomes "os/path".
func (m ModuleName) RelPath() string {
	return strings.ReplaceAll(string(m), ".", "/")
}

// Top returns the first component: the importable top-level module
func (m ModuleName) Top() string {
	name := string(m)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

func (m ModuleName) String() string {
	return string(m)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
