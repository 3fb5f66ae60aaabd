package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batchline/internal/shared/testutil"
)

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewFileValidator(logger)

	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "reports", "2024")
		require.NoError(t, v.ValidateOutputDirectory(dir))
		assert.DirExists(t, dir)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "write probe must be removed")
	})

	t.Run("path is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		assert.Error(t, v.ValidateOutputDirectory(path))
	})
}

func TestFileValidator_ValidateLogFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0644))
		return path
	}

	valid := write("line.dbf", testutil.FilterLineLog(30))
	workbook := write("line.XLSX", []byte("PK"))
	empty := write("empty.dbf", nil)
	lock := write("~$line.xlsx", []byte("x"))
	text := write("notes.txt", []byte("x"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.dbf"), 0755))

	tests := []struct {
		name     string
		path     string
		maxBytes int64
		wantErr  error
		anyErr   bool
	}{
		{name: "valid", path: valid},
		{name: "extension is case-insensitive", path: workbook},
		{name: "within limit", path: valid, maxBytes: 1 << 20},
		{name: "too large", path: valid, maxBytes: 10, wantErr: ErrTooLarge},
		{name: "empty", path: empty, wantErr: ErrEmptyFile},
		{name: "lock file", path: lock, wantErr: ErrLockFile},
		{name: "unsupported extension", path: text, wantErr: ErrNotLogFile},
		{name: "missing", path: filepath.Join(dir, "missing.dbf"), anyErr: true},
		{name: "directory", path: filepath.Join(dir, "folder.dbf"), anyErr: true},
	}

	v := NewFileValidator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateLogFile(tt.path, tt.maxBytes)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}
