package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pysema/internal/config"
	"pysema/internal/db"
	"pysema/internal/slogutil"
	"pysema/internal/source"
	"pysema/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the project and recheck changed files",
	Long: `Check the whole project, then watch the search roots and recheck
files as they change. Change batches are debounced and applied to the
analysis database by eviction, so a recheck recomputes only what the
edit invalidated.

Stops on SIGINT or SIGTERM.`,
	Run: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	bootstrapLogger := newLogger()
	root := mustProjectRoot()
	database, cfg := mustGetDatabase(root, bootstrapLogger)

	logger, closer := watchLogger(root, cfg)
	if closer != nil {
		defer closer.Close()
	}

	paths, ids, err := projectFiles(database, cfg, root, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	total := 0
	for i, id := range ids {
		total += printDiagnostics(database, cfg, root, paths[i], id)
	}
	roots := database.SearchPaths().WatchRoots()
	fmt.Printf("Watching %d files under %d roots (%d diagnostics)\n", len(ids), len(roots), total)

	w := watcher.New(roots, watcher.Options{
		Interval: time.Duration(cfg.Watcher.IntervalMs) * time.Millisecond,
		Debounce: time.Duration(cfg.Watcher.DebounceMs) * time.Millisecond,
		Exclude:  cfg.Analysis.Exclude,
	}, logger, func(changes []db.FileChange) {
		onChanges(database, cfg, root, changes, logger)
	})

	if err := w.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting watcher: %v\n", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("Shutting down", "signal", sig.String())
	w.Stop()
}

func onChanges(database *db.Database, cfg *config.Config, root string, changes []db.FileChange, logger *slog.Logger) {
	if err := database.ApplyChanges(changes); err != nil {
		logger.Error("Failed to apply changes", "error", err)
		return
	}

	checked, total := 0, 0
	for _, change := range changes {
		if change.Kind == db.ChangeDeleted {
			continue
		}
		id, err := database.Intern(change.Path)
		if err != nil {
			logger.Warn("Skipping changed file", "path", change.Path, "error", err)
			continue
		}
		checked++
		total += printDiagnostics(database, cfg, root, change.Path, id)
	}
	fmt.Printf("[%s] %d changed, %d rechecked, %d diagnostics\n",
		time.Now().Format("15:04:05"), len(changes), checked, total)
}

func printDiagnostics(database *db.Database, cfg *config.Config, root, path string, id source.FileID) int {
	diags := filterDiagnostics(database.Check(id), cfg.Analysis.DisabledRules)
	rel := relToRoot(root, path)
	for _, d := range diags {
		fmt.Printf("%s:%d:%d: %s %s\n", rel, d.Range.Start.Line, d.Range.Start.Column, d.Code, d.Message)
	}
	return len(diags)
}

// watchLogger tees logs to stderr and, when configured, a rotating
// file. The file gets the configured level; stderr follows -v/-q.
func watchLogger(root string, cfg *config.Config) (*slog.Logger, io.Closer) {
	stderrLevel := slogutil.LevelFromVerbosity(verbosity, quietFlag)
	stderrHandler := slogutil.NewHandler(os.Stderr, &slog.HandlerOptions{Level: stderrLevel})

	if cfg.Logging.File == "" {
		return slog.New(stderrHandler), nil
	}

	path := cfg.Logging.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	var fileWriter io.Writer
	var closer io.Closer
	if size := slogutil.ParseSize(cfg.Logging.MaxSize); size > 0 {
		rw, err := slogutil.OpenRotatingWriter(path, size, cfg.Logging.MaxBackups)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v\n", path, err)
			return slog.New(stderrHandler), nil
		}
		fileWriter, closer = rw, rw
	} else {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v\n", path, err)
			return slog.New(stderrHandler), nil
		}
		fileWriter, closer = f, f
	}

	fileHandler := slogutil.NewHandler(fileWriter, &slog.HandlerOptions{Level: cfg.LogLevel()})
	return slogutil.NewTeeLogger(stderrHandler, fileHandler), closer
}
