// Package validation checks files and directories before the command-line
// tools touch them.
package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"batchline/internal/files"
)

var (
	// ErrNotLogFile is returned for files that are not a supported export
	ErrNotLogFile = errors.New("not a batch log export")
	// ErrLockFile is returned for the owner files office suites leave next to open workbooks
	ErrLockFile = errors.New("office lock file")
	// ErrEmptyFile is returned for zero-length files
	ErrEmptyFile = errors.New("file is empty")
	// ErrTooLarge is returned when a file exceeds the configured limit
	ErrTooLarge = errors.New("file too large")
)

// FileValidator provides common file validation functions for all executables
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	file, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(file.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateLogFile checks that path is a readable, non-empty batch log export
// of at most maxBytes. A maxBytes of zero disables the size check.
func (v *FileValidator) ValidateLogFile(path string, maxBytes int64) error {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Skipping lock file", slog.String("file", path))
		return fmt.Errorf("%s: %w", path, ErrLockFile)
	}
	if !files.IsLogFile(base) {
		return fmt.Errorf("%s (extension %q): %w", path, filepath.Ext(base), ErrNotLogFile)
	}

	info, err := os.Stat(path)
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	switch {
	case info.Size() == 0:
		return fmt.Errorf("%s: %w", path, ErrEmptyFile)
	case maxBytes > 0 && info.Size() > maxBytes:
		return fmt.Errorf("%s is %d bytes, limit %d: %w", path, info.Size(), maxBytes, ErrTooLarge)
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}
