package slogutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// RotatingWriter implements io.WriteCloser with size-based rotation.
// When the file would exceed maxSize bytes it is renamed to path.1 and
// a fresh file is opened; older backups shift to path.2, path.3, up to
// maxBackups.
type RotatingWriter struct {
	path       string
	maxSize    int64
	maxBackups int
	file       *os.File
	size       int64
	mu         sync.Mutex
}

// OpenRotatingWriter opens a log file with rotation support.
// maxSize 0 disables rotation; maxBackups 0 discards rotated files.
func OpenRotatingWriter(path string, maxSize int64, maxBackups int) (*RotatingWriter, error) {
	rw := &RotatingWriter{
		path:       path,
		maxSize:    maxSize,
		maxBackups: maxBackups,
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

func (r *RotatingWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}

	r.file = f
	r.size = info.Size()
	return nil
}

// Write implements io.Writer, rotating first when the write would push
// the file past maxSize. A failed rotation does not fail the write.
func (r *RotatingWriter) Write(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxSize > 0 && r.size+int64(len(p)) > r.maxSize {
		_ = r.rotate()
	}

	n, err = r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// Close implements io.Closer
func (r *RotatingWriter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

func (r *RotatingWriter) rotate() error {
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			return err
		}
	}

	for i := r.maxBackups; i >= 1; i-- {
		if i == r.maxBackups {
			_ = os.Remove(r.backupPath(i))
			continue
		}
		if _, err := os.Stat(r.backupPath(i)); err == nil {
			_ = os.Rename(r.backupPath(i), r.backupPath(i+1))
		}
	}

	if r.maxBackups > 0 {
		_ = os.Rename(r.path, r.backupPath(1))
	} else {
		_ = os.Remove(r.path)
	}

	r.size = 0
	return r.open()
}

func (r *RotatingWriter) backupPath(n int) string {
	return fmt.Sprintf("%s.%d", r.path, n)
}

// ParseSize parses a size string like "10MB", "1GB", "500KB" into
// bytes. A bare number means bytes. Returns 0 for empty or invalid
// strings.
func ParseSize(s string) int64 {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return 0
	}

	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		factor int64
	}{
		{"GB", 1024 * 1024 * 1024},
		{"MB", 1024 * 1024},
		{"KB", 1024},
		{"B", 1},
	} {
		if rest, ok := strings.CutSuffix(s, unit.suffix); ok {
			s = strings.TrimSpace(rest)
			multiplier = unit.factor
			break
		}
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value < 0 {
		return 0
	}
	return int64(value * float64(multiplier))
}

// NewFileLoggerWithRotation creates a rotating file logger.
// If maxSize is empty or invalid, falls back to a regular file logger.
func NewFileLoggerWithRotation(path string, level slog.Level, maxSize string, maxBackups int) (*slog.Logger, io.Closer, error) {
	size := ParseSize(maxSize)
	if size <= 0 {
		return NewFileLogger(path, level)
	}

	rw, err := OpenRotatingWriter(path, size, maxBackups)
	if err != nil {
		return nil, nil, err
	}
	return NewLogger(rw, level), rw, nil
}
