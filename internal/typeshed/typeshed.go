// Package typeshed ships a snapshot of standard library stub files
// inside the binary. The resolver falls back to it when no custom stub
// root is configured, so `import os` works without any files on disk.
//
// The archive is regenerated from stubs/ by scripts/vendor_typeshed.sh.
package typeshed

import (
	"archive/tar"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/klauspost/compress/zstd"
)

//go:embed typeshed.tar.zst
var archive []byte

// ManifestName is the metadata file at the root of the archive.
const ManifestName = "manifest.toml"

// Manifest describes the bundled snapshot: when it was vendored, which
// Python version the stubs target, and the module names it provides.
// Module values are the first Python version the module existed in.
type Manifest struct {
	Version string            `toml:"version"`
	Python  string            `toml:"python"`
	Modules map[string]string `toml:"modules"`
}

// FS is a read-only view of the extracted archive. All methods are safe
// for concurrent use; the file map is never mutated after load.
type FS struct {
	files    map[string][]byte
	manifest Manifest
}

var (
	bundledOnce sync.Once
	bundledFS   *FS
	bundledErr  error
)

// Bundled returns the stub archive shipped in the binary. The archive
// is decompressed on first call and shared by all callers; the error,
// if any, is likewise sticky.
func Bundled() (*FS, error) {
	bundledOnce.Do(func() {
		bundledFS, bundledErr = load(archive)
	})
	return bundledFS, bundledErr
}

func load(data []byte) (*FS, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening stub archive: %w", err)
	}
	defer dec.Close()

	fs := &FS{files: make(map[string][]byte)}

	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading stub archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("reading stub %s: %w", hdr.Name, err)
		}
		fs.files[strings.TrimPrefix(hdr.Name, "./")] = content
	}

	raw, ok := fs.files[ManifestName]
	if !ok {
		return nil, fmt.Errorf("stub archive has no %s", ManifestName)
	}
	if err := toml.Unmarshal(raw, &fs.manifest); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ManifestName, err)
	}

	return fs, nil
}

// Open returns the content of the file at rel (an archive-relative
// forward-slash path like "stdlib/os/__init__.pyi").
func (fs *FS) Open(rel string) ([]byte, bool) {
	content, ok := fs.files[rel]
	return content, ok
}

// Exists reports whether rel names a file in the archive
func (fs *FS) Exists(rel string) bool {
	_, ok := fs.files[rel]
	return ok
}

// Manifest returns the snapshot metadata
func (fs *FS) Manifest() Manifest {
	return fs.manifest
}

// Modules returns the sorted module names the snapshot provides
func (fs *FS) Modules() []string {
	names := make([]string, 0, len(fs.manifest.Modules))
	for name := range fs.manifest.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Files returns the sorted archive paths of all stub files
func (fs *FS) Files() []string {
	files := make([]string, 0, len(fs.files))
	for name := range fs.files {
		if name == ManifestName {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files
}
