package config

import (
	"os"
	"path/filepath"
	"testing"

	"pysema/internal/errors"
)

func writeProjectFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Watcher.IntervalMs != 1000 {
		t.Errorf("Watcher.IntervalMs = %d, want 1000", cfg.Watcher.IntervalMs)
	}
	if cfg.Watcher.DebounceMs != 300 {
		t.Errorf("Watcher.DebounceMs = %d, want 300", cfg.Watcher.DebounceMs)
	}
	if cfg.Export.ScipPath != ".pysema/index.scip" {
		t.Errorf("Export.ScipPath = %q, want %q", cfg.Export.ScipPath, ".pysema/index.scip")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Analysis.TransitiveInvalidation {
		t.Error("TransitiveInvalidation should be off by default")
	}

	excluded := map[string]bool{}
	for _, dir := range cfg.Analysis.Exclude {
		excluded[dir] = true
	}
	for _, want := range []string{"__pycache__", ".venv", ".git"} {
		if !excluded[want] {
			t.Errorf("Analysis.Exclude missing %q", want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"version 0", func(c *Config) { c.Version = 0 }, true},
		{"version 99", func(c *Config) { c.Version = 99 }, true},
		{"zero poll interval", func(c *Config) { c.Watcher.IntervalMs = 0 }, true},
		{"negative debounce", func(c *Config) { c.Watcher.DebounceMs = -1 }, true},
		{"zero debounce ok", func(c *Config) { c.Watcher.DebounceMs = 0 }, false},
		{"bad max size", func(c *Config) { c.Logging.MaxSize = "lots" }, true},
		{"empty max size ok", func(c *Config) { c.Logging.MaxSize = "" }, false},
		{"bare byte size ok", func(c *Config) { c.Logging.MaxSize = "65536" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() should return an error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() returned unexpected error: %v", err)
			}
			if err != nil && !errors.HasCode(err, errors.ConfigInvalid) {
				t.Errorf("Validate() error code = %q, want %q", errors.CodeOf(err), errors.ConfigInvalid)
			}
		})
	}
}

func TestLoad_Default(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Watcher.IntervalMs != 1000 {
		t.Errorf("Watcher.IntervalMs = %d, want default 1000", cfg.Watcher.IntervalMs)
	}
}

func TestLoad_FromConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeProjectFile(t, tmpDir, ".pysema/config.json", `{
		"version": 1,
		"search": {
			"extraPaths": ["vendor", "generated"],
			"stubPath": "typings"
		},
		"analysis": {
			"transitiveInvalidation": true,
			"disabledRules": ["unused-import"]
		},
		"watcher": {"intervalMs": 250}
	}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Search.ExtraPaths) != 2 || cfg.Search.ExtraPaths[0] != "vendor" {
		t.Errorf("Search.ExtraPaths = %v, want [vendor generated]", cfg.Search.ExtraPaths)
	}
	if cfg.Search.StubPath != "typings" {
		t.Errorf("Search.StubPath = %q, want %q", cfg.Search.StubPath, "typings")
	}
	if !cfg.Analysis.TransitiveInvalidation {
		t.Error("TransitiveInvalidation should be enabled per config")
	}
	if cfg.Watcher.IntervalMs != 250 {
		t.Errorf("Watcher.IntervalMs = %d, want 250", cfg.Watcher.IntervalMs)
	}
	// Untouched sections keep defaults.
	if cfg.Watcher.DebounceMs != 300 {
		t.Errorf("Watcher.DebounceMs = %d, want default 300", cfg.Watcher.DebounceMs)
	}
}

func TestLoad_FromPyproject(t *testing.T) {
	tmpDir := t.TempDir()
	writeProjectFile(t, tmpDir, "pyproject.toml", `
[project]
name = "demo"

[tool.pysema]
version = 1

[tool.pysema.search]
extraPaths = ["src"]

[tool.pysema.logging]
level = "debug"
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Search.ExtraPaths) != 1 || cfg.Search.ExtraPaths[0] != "src" {
		t.Errorf("Search.ExtraPaths = %v, want [src]", cfg.Search.ExtraPaths)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_ConfigFileOverridesPyproject(t *testing.T) {
	tmpDir := t.TempDir()
	writeProjectFile(t, tmpDir, "pyproject.toml", `
[tool.pysema.watcher]
intervalMs = 2000
`)
	writeProjectFile(t, tmpDir, ".pysema/config.json", `{"watcher": {"intervalMs": 500}}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Watcher.IntervalMs != 500 {
		t.Errorf("Watcher.IntervalMs = %d, want 500 (config.json wins)", cfg.Watcher.IntervalMs)
	}
}

func TestLoad_PyprojectWithoutTable(t *testing.T) {
	tmpDir := t.TempDir()
	writeProjectFile(t, tmpDir, "pyproject.toml", `
[project]
name = "demo"

[tool.black]
line-length = 100
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Watcher.IntervalMs != 1000 {
		t.Errorf("Watcher.IntervalMs = %d, want default 1000", cfg.Watcher.IntervalMs)
	}
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeProjectFile(t, tmpDir, ".pysema/config.json", `{"version": `)

	_, err := Load(tmpDir)
	if err == nil {
		t.Fatal("Load() should fail on malformed JSON")
	}
	if !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("error code = %q, want %q", errors.CodeOf(err), errors.ConfigInvalid)
	}
}

func TestLoad_MalformedPyproject(t *testing.T) {
	tmpDir := t.TempDir()
	writeProjectFile(t, tmpDir, "pyproject.toml", "[tool.pysema\nbroken")

	_, err := Load(tmpDir)
	if err == nil {
		t.Fatal("Load() should fail on malformed TOML")
	}
	if !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("error code = %q, want %q", errors.CodeOf(err), errors.ConfigInvalid)
	}
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	tmpDir := t.TempDir()
	writeProjectFile(t, tmpDir, ".pysema/config.json", `{"version": 99}`)

	_, err := Load(tmpDir)
	if err == nil {
		t.Fatal("Load() should reject unsupported versions")
	}
	if !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("error code = %q, want %q", errors.CodeOf(err), errors.ConfigInvalid)
	}
}

func TestConfig_SaveRoundtrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Search.ExtraPaths = []string{"vendor"}
	cfg.Analysis.DisabledRules = []string{"unused-import"}
	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, ".pysema", "config.json")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() after Save() error = %v", err)
	}
	if len(loaded.Search.ExtraPaths) != 1 || loaded.Search.ExtraPaths[0] != "vendor" {
		t.Errorf("Search.ExtraPaths = %v, want [vendor]", loaded.Search.ExtraPaths)
	}
	if len(loaded.Analysis.DisabledRules) != 1 || loaded.Analysis.DisabledRules[0] != "unused-import" {
		t.Errorf("Analysis.DisabledRules = %v, want [unused-import]", loaded.Analysis.DisabledRules)
	}
}

func TestConfig_ResolverConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.ExtraPaths = []string{"vendor", "/abs/stubs"}
	cfg.Search.StubPath = "typings"

	rc := cfg.ResolverConfig("/proj")

	if rc.ProjectRoot != "/proj" {
		t.Errorf("ProjectRoot = %q, want %q", rc.ProjectRoot, "/proj")
	}
	if want := filepath.Join("/proj", "vendor"); rc.ExtraPaths[0] != want {
		t.Errorf("ExtraPaths[0] = %q, want %q", rc.ExtraPaths[0], want)
	}
	if rc.ExtraPaths[1] != "/abs/stubs" {
		t.Errorf("ExtraPaths[1] = %q, want %q (absolute kept)", rc.ExtraPaths[1], "/abs/stubs")
	}
	if want := filepath.Join("/proj", "typings"); rc.CustomStubRoot != want {
		t.Errorf("CustomStubRoot = %q, want %q", rc.CustomStubRoot, want)
	}
}
