package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Manager writes files below a base directory
type Manager struct {
	basePath string
	logger   *slog.Logger
}

// NewManager creates a file manager rooted at basePath
func NewManager(basePath string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		basePath: basePath,
		logger:   logger.With(slog.String("component", "files")),
	}
}

// Path resolves path against the base directory
func (m *Manager) Path(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.basePath, path)
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(path string) bool {
	_, err := os.Stat(m.Path(path))
	return err == nil
}

// EnsureDirectory creates a directory and its parents
func (m *Manager) EnsureDirectory(path string) error {
	return os.MkdirAll(m.Path(path), 0755)
}

// ReadFile reads the entire content of a file
func (m *Manager) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(m.Path(path))
}

// Create streams write into path. The file only replaces an existing one
// when write succeeds.
func (m *Manager) Create(path string, write func(w io.Writer) error) error {
	fullPath := m.Path(path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), "."+filepath.Base(fullPath)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	info, err := os.Stat(fullPath)
	if err == nil {
		m.logger.Info("Wrote file",
			slog.String("path", fullPath),
			slog.Int64("size_bytes", info.Size()))
	}
	return nil
}

// WriteFile writes data to path atomically
func (m *Manager) WriteFile(path string, data []byte) error {
	return m.Create(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// ListFiles returns the names of the files in a directory (non-recursive)
func (m *Manager) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(m.Path(dir))
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}
