package paths

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// StubScheme prefixes paths that refer to files inside the bundled stub
// archive rather than the local filesystem. The remainder is a
// forward-slash path relative to the archive root, e.g.
// "typeshed:stdlib/os/__init__.pyi".
const StubScheme = "typeshed:"

// IsVirtual reports whether a path refers into the bundled stub archive.
func IsVirtual(p string) bool {
	return strings.HasPrefix(p, StubScheme)
}

// Canonical converts a path to its canonical form:
// - Virtual stub paths are cleaned but keep their scheme prefix
// - Filesystem paths are made absolute and lexically cleaned
// - Symlinks are resolved when the target exists
// - Separators are normalized to forward slashes
//
// Two paths naming the same file canonicalize to the same string, so
// callers can use the result as a map key.
func Canonical(p string) (string, error) {
	if p == "" {
		return "", os.ErrInvalid
	}
	if IsVirtual(p) {
		rel := strings.TrimPrefix(p, StubScheme)
		if rel == "" {
			return "", os.ErrInvalid
		}
		return StubScheme + path.Clean(rel), nil
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}

	// Resolve symlinks when possible; a path that does not exist yet is
	// still valid and keeps its lexical form.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			resolved = abs
		} else {
			return "", err
		}
	}

	return filepath.ToSlash(resolved), nil
}

// Within reports whether p is inside root. Both arguments must already
// be canonical. The root itself does not count as inside.
func Within(p string, root string) bool {
	if IsVirtual(p) != IsVirtual(root) {
		return false
	}
	if !strings.HasPrefix(p, root) {
		return false
	}
	rest := strings.TrimPrefix(p, root)
	return strings.HasPrefix(rest, "/")
}

// Rel returns the forward-slash path of p relative to root, and whether
// p is inside root. Both arguments must already be canonical.
func Rel(p string, root string) (string, bool) {
	if !Within(p, root) {
		return "", false
	}
	return strings.TrimPrefix(strings.TrimPrefix(p, root), "/"), true
}

// Join appends a forward-slash relative path to a canonical root,
// keeping virtual paths in the virtual scheme.
func Join(root string, rel string) string {
	if IsVirtual(root) {
		return StubScheme + path.Join(strings.TrimPrefix(root, StubScheme), rel)
	}
	return root + "/" + rel
}
