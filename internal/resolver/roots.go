package resolver

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	"pysema/internal/errors"
	"pysema/internal/paths"
)

// RootKind classifies a search root. Kinds with stub semantics consult
// .pyi files only.
type RootKind string

const (
	// KindExtra is a user-supplied path searched before everything else
	KindExtra RootKind = "extra"
	// KindFirstParty is the project source root
	KindFirstParty RootKind = "first-party"
	// KindStdlibCustom is a user-supplied stdlib stub directory
	KindStdlibCustom RootKind = "stdlib-custom"
	// KindStdlibBundled is the embedded typeshed snapshot
	KindStdlibBundled RootKind = "stdlib-bundled"
	// KindThirdParty is a stub directory for installed packages
	KindThirdParty RootKind = "third-party"
)

// StubsOnly reports whether the kind resolves .pyi files exclusively
func (k RootKind) StubsOnly() bool {
	switch k {
	case KindStdlibCustom, KindStdlibBundled, KindThirdParty:
		return true
	}
	return false
}

// SearchRoot is one entry of the resolution order. Path is canonical;
// the bundled stdlib root uses the typeshed: scheme.
type SearchRoot struct {
	Path string   `json:"path"`
	Kind RootKind `json:"kind"`
}

// BundledStdlibRoot is the virtual root the embedded archive is mounted
// at when no custom stdlib stub root is configured.
const BundledStdlibRoot = paths.StubScheme + "stdlib"

// Config carries the settings SearchPaths is built from. The config
// package assembles one from the loaded configuration.
type Config struct {
	// ExtraPaths are searched first, in the order given
	ExtraPaths []string
	// ProjectRoot is the first-party source root; empty means the
	// current working directory
	ProjectRoot string
	// CustomStubRoot replaces the bundled stdlib stubs when set.
	// Pointing it at a missing directory is a construction error.
	CustomStubRoot string
	// ThirdPartyRoots are stub directories for installed packages,
	// consulted after the stdlib root
	ThirdPartyRoots []string
}

// SearchPaths is an immutable snapshot of the resolution order. Build a
// new one on reconfiguration; the database clears its module index when
// it swaps snapshots.
type SearchPaths struct {
	epoch  string
	roots  []SearchRoot
	logger *slog.Logger

	bundledWarn sync.Once
}

// NewSearchPaths validates cfg and builds the resolution order:
// extras, then the first-party root, then the stdlib stub root (custom
// when configured, the bundled archive otherwise), then third-party
// stub roots. Roots that canonicalize to the same path keep the first
// occurrence; a nested root is not a duplicate of its parent.
func NewSearchPaths(cfg Config, logger *slog.Logger) (*SearchPaths, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var ordered []SearchRoot

	for _, extra := range cfg.ExtraPaths {
		canonical, err := paths.Canonical(extra)
		if err != nil {
			return nil, errors.New(errors.InvalidPath, fmt.Sprintf("extra search path %q", extra), err)
		}
		ordered = append(ordered, SearchRoot{Path: canonical, Kind: KindExtra})
	}

	projectRoot := cfg.ProjectRoot
	if projectRoot == "" {
		projectRoot = "."
	}
	canonical, err := paths.Canonical(projectRoot)
	if err != nil {
		return nil, errors.New(errors.InvalidPath, fmt.Sprintf("project root %q", projectRoot), err)
	}
	ordered = append(ordered, SearchRoot{Path: canonical, Kind: KindFirstParty})

	if cfg.CustomStubRoot != "" {
		stubRoot, err := paths.Canonical(cfg.CustomStubRoot)
		if err != nil {
			return nil, errors.New(errors.StubRootInvalid, fmt.Sprintf("stub root %q", cfg.CustomStubRoot), err)
		}
		info, err := os.Stat(stubRoot)
		if err != nil {
			return nil, errors.New(errors.StubRootInvalid, fmt.Sprintf("stub root %q does not exist", cfg.CustomStubRoot), err)
		}
		if !info.IsDir() {
			return nil, errors.Newf(errors.StubRootInvalid, "stub root %q is not a directory", cfg.CustomStubRoot)
		}
		ordered = append(ordered, SearchRoot{Path: stubRoot, Kind: KindStdlibCustom})
	} else {
		ordered = append(ordered, SearchRoot{Path: BundledStdlibRoot, Kind: KindStdlibBundled})
	}

	for _, third := range cfg.ThirdPartyRoots {
		canonical, err := paths.Canonical(third)
		if err != nil {
			return nil, errors.New(errors.InvalidPath, fmt.Sprintf("third-party stub root %q", third), err)
		}
		ordered = append(ordered, SearchRoot{Path: canonical, Kind: KindThirdParty})
	}

	seen := make(map[string]bool, len(ordered))
	roots := make([]SearchRoot, 0, len(ordered))
	for _, root := range ordered {
		if seen[root.Path] {
			logger.Debug("Dropping duplicate search root", "path", root.Path, "kind", root.Kind)
			continue
		}
		seen[root.Path] = true
		roots = append(roots, root)
	}

	sp := &SearchPaths{
		epoch:  uuid.NewString(),
		roots:  roots,
		logger: logger,
	}
	logger.Debug("Search paths constructed", "epoch", sp.epoch, "roots", len(roots))
	return sp, nil
}

// Epoch identifies this snapshot; two snapshots never share an epoch
func (s *SearchPaths) Epoch() string {
	return s.epoch
}

// Roots returns the resolution order. Callers must not mutate it.
func (s *SearchPaths) Roots() []SearchRoot {
	return s.roots
}

// WatchRoots returns the filesystem roots a watcher should observe.
// The bundled archive root is virtual and excluded.
func (s *SearchPaths) WatchRoots() []string {
	watch := make([]string, 0, len(s.roots))
	for _, root := range s.roots {
		if paths.IsVirtual(root.Path) {
			continue
		}
		watch = append(watch, root.Path)
	}
	return watch
}
