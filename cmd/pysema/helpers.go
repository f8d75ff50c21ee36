package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"pysema/internal/config"
	"pysema/internal/db"
	"pysema/internal/slogutil"
	"pysema/internal/source"
)

var (
	dbOnce    sync.Once
	sharedDB  *db.Database
	sharedCfg *config.Config
	dbErr     error
)

// getDatabase returns the shared analysis database, lazily built from
// the project configuration. A broken config logs a warning and falls
// back to defaults.
func getDatabase(projectRoot string, logger *slog.Logger) (*db.Database, *config.Config, error) {
	dbOnce.Do(func() {
		cfg, err := config.Load(projectRoot)
		if err != nil {
			logger.Warn("Failed to load config, using defaults", "error", err)
			cfg = config.DefaultConfig()
		}
		sharedCfg = cfg

		opts := []db.Option{db.WithLogger(logger)}
		if cfg.Analysis.TransitiveInvalidation {
			opts = append(opts, db.WithTransitiveInvalidation())
		}
		database, err := db.New(cfg.ResolverConfig(projectRoot), opts...)
		if err != nil {
			dbErr = fmt.Errorf("open analysis database: %w", err)
			return
		}
		sharedDB = database
	})
	return sharedDB, sharedCfg, dbErr
}

// mustGetDatabase returns the shared database or exits.
func mustGetDatabase(projectRoot string, logger *slog.Logger) (*db.Database, *config.Config) {
	database, cfg, err := getDatabase(projectRoot, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return database, cfg
}

func projectRoot() (string, error) {
	if projectFlag != "" {
		return filepath.Abs(projectFlag)
	}
	return os.Getwd()
}

// mustProjectRoot returns the project root or exits.
func mustProjectRoot() string {
	root, err := projectRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return root
}

// newLogger creates a stderr logger honoring the verbosity flags.
func newLogger() *slog.Logger {
	return slogutil.NewLogger(os.Stderr, slogutil.LevelFromVerbosity(verbosity, quietFlag))
}

// collectPythonFiles walks root for .py and .pyi files, skipping the
// excluded directory names.
func collectPythonFiles(root string, exclude []string) ([]string, error) {
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skip[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if ext := filepath.Ext(path); ext == ".py" || ext == ".pyi" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// internPaths interns files and returns their ids in input order.
func internPaths(database *db.Database, paths []string) ([]source.FileID, error) {
	ids := make([]source.FileID, 0, len(paths))
	for _, p := range paths {
		id, err := database.Intern(p)
		if err != nil {
			return nil, fmt.Errorf("intern %s: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// projectFiles collects and interns the project's Python sources. When
// args names specific files, only those are used.
func projectFiles(database *db.Database, cfg *config.Config, root string, args []string) ([]string, []source.FileID, error) {
	var paths []string
	if len(args) > 0 {
		for _, a := range args {
			abs, err := filepath.Abs(a)
			if err != nil {
				return nil, nil, err
			}
			paths = append(paths, abs)
		}
	} else {
		var err error
		paths, err = collectPythonFiles(root, cfg.Analysis.Exclude)
		if err != nil {
			return nil, nil, fmt.Errorf("walk project: %w", err)
		}
	}

	ids, err := internPaths(database, paths)
	if err != nil {
		return nil, nil, err
	}
	return paths, ids, nil
}
