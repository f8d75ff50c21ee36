package resolver

import (
	"os"
	"strings"

	"pysema/internal/paths"
	"pysema/internal/typeshed"
)

// Resolved names the file a module resolved to and the root that won
type Resolved struct {
	Name ModuleName `json:"name"`
	Path string     `json:"path"`
	Root SearchRoot `json:"root"`
}

// Resolve looks name up across the search roots in priority order. At
// each root the package directory form is tried before the plain
// module form, and stub files before source files:
//
//	name/__init__.pyi, name/__init__.py, name.pyi, name.py
//
// Stub-only roots skip the .py forms. Returns false when no root has a
// match; an invalid name never matches.
func (s *SearchPaths) Resolve(name ModuleName) (Resolved, bool) {
	if !name.IsValid() {
		return Resolved{}, false
	}

	rel := name.RelPath()
	for _, root := range s.roots {
		for _, candidate := range candidates(rel, root.Kind.StubsOnly()) {
			full := paths.Join(root.Path, candidate)
			if s.exists(full) {
				return Resolved{Name: name, Path: full, Root: root}, true
			}
		}
	}
	return Resolved{}, false
}

func candidates(rel string, stubsOnly bool) []string {
	if stubsOnly {
		return []string{
			rel + "/__init__.pyi",
			rel + ".pyi",
		}
	}
	return []string{
		rel + "/__init__.pyi",
		rel + "/__init__.py",
		rel + ".pyi",
		rel + ".py",
	}
}

func (s *SearchPaths) exists(p string) bool {
	if paths.IsVirtual(p) {
		fs, err := typeshed.Bundled()
		if err != nil {
			s.bundledWarn.Do(func() {
				s.logger.Warn("Bundled stub archive unavailable", "error", err)
			})
			return false
		}
		return fs.Exists(strings.TrimPrefix(p, paths.StubScheme))
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// ModuleNameForPath maps a canonical file path back to the module name
// it resolves as, using the first root that contains it. Returns false
// for files outside every root and for files whose relative path does
// not follow the module naming convention.
func (s *SearchPaths) ModuleNameForPath(p string) (ModuleName, bool) {
	for _, root := range s.roots {
		rel, ok := paths.Rel(p, root.Path)
		if !ok {
			continue
		}
		if name, ok := nameFromRel(rel); ok {
			return name, true
		}
	}
	return "", false
}

func nameFromRel(rel string) (ModuleName, bool) {
	switch {
	case rel == "__init__.pyi" || rel == "__init__.py":
		// The root directory itself is not an importable module
		return "", false
	case strings.HasSuffix(rel, "/__init__.pyi"):
		rel = strings.TrimSuffix(rel, "/__init__.pyi")
	case strings.HasSuffix(rel, "/__init__.py"):
		rel = strings.TrimSuffix(rel, "/__init__.py")
	case strings.HasSuffix(rel, ".pyi"):
		rel = strings.TrimSuffix(rel, ".pyi")
	case strings.HasSuffix(rel, ".py"):
		rel = strings.TrimSuffix(rel, ".py")
	default:
		return "", false
	}

	name := ModuleName(strings.ReplaceAll(rel, "/", "."))
	if !name.IsValid() {
		return "", false
	}
	return name, true
}
