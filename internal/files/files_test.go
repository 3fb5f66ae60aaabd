package files

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batchline/internal/shared/testutil"
)

func touch(t *testing.T, dir, name string, mod time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestFindLogFiles(t *testing.T) {
	base := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{
			name:  "tables and workbooks",
			files: []string{"line1.dbf", "line2.xlsx", "macro.XLSM"},
			want:  []string{"line1.dbf", "line2.xlsx", "macro.XLSM"},
		},
		{
			name:  "other files ignored",
			files: []string{"notes.txt", "export.csv", "line.DBF"},
			want:  []string{"line.DBF"},
		},
		{
			name:  "excel lock files skipped",
			files: []string{"~$line.xlsx", "line.xlsx"},
			want:  []string{"line.xlsx"},
		},
		{
			name:  "empty directory",
			files: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for i, f := range tt.files {
				touch(t, dir, f, base.Add(time.Duration(i)*time.Minute))
			}
			require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.dbf"), 0755))

			found, err := NewDiscovery(dir).FindLogFiles(".")
			require.NoError(t, err)

			var names []string
			for _, f := range found {
				names = append(names, f.Name)
				assert.Equal(t, filepath.Join(dir, ".", f.Name), f.Path)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFindLogFilesOrderAndLatest(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
	touch(t, dir, "c.dbf", base.Add(2*time.Hour))
	touch(t, dir, "a.dbf", base)
	touch(t, dir, "b.dbf", base.Add(time.Hour))

	found, err := NewDiscovery("").FindLogFiles(dir)
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "a.dbf", found[0].Name)
	assert.Equal(t, "c.dbf", found[2].Name)

	latest, ok := GetLatestFile(found)
	require.True(t, ok)
	assert.Equal(t, "c.dbf", latest.Name)

	_, ok = GetLatestFile(nil)
	assert.False(t, ok)

	window := FilterFilesByDateRange(found, base, base.Add(time.Hour))
	require.Len(t, window, 2)
	assert.Equal(t, "b.dbf", window[1].Name)
}

func TestFindFilesByPattern(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, dir, "line1_2024.dbf", now)
	touch(t, dir, "line2_2024.dbf", now)
	touch(t, dir, "line1_2023.dbf", now)

	found, err := NewDiscovery(dir).FindFilesByPattern(".", "line1_*.dbf")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = NewDiscovery(dir).FindFilesByPattern(".", "[")
	assert.Error(t, err)

	_, err = NewDiscovery(dir).FindLogFiles("missing")
	assert.Error(t, err)
}

func TestManagerCreate(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	m := NewManager(t.TempDir(), logger)

	require.NoError(t, m.WriteFile("out/batches.csv", []byte("a,b\n")))
	assert.True(t, m.FileExists("out/batches.csv"))
	data, err := m.ReadFile("out/batches.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
	assert.True(t, logs.ContainsMessage("Wrote file"))

	// A failed write keeps the previous content and leaves no temp file
	err = m.Create("out/batches.csv", func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("boom")
	})
	require.Error(t, err)
	data, err = m.ReadFile("out/batches.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	names, err := m.ListFiles("out")
	require.NoError(t, err)
	assert.Equal(t, []string{"batches.csv"}, names)
}

func TestManagerPaths(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, nil)

	assert.Equal(t, filepath.Join(dir, "reports"), m.Path("reports"))
	abs := filepath.Join(dir, "elsewhere")
	assert.Equal(t, abs, m.Path(abs))

	require.NoError(t, m.EnsureDirectory("reports/2024"))
	info, err := os.Stat(filepath.Join(dir, "reports", "2024"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.False(t, m.FileExists("reports/none.csv"))
}

func TestIsLogFile(t *testing.T) {
	assert.True(t, IsLogFile("LINE.DBF"))
	assert.True(t, IsLogFile("book.xlsm"))
	assert.False(t, IsLogFile("book.xls"))
	assert.False(t, IsLogFile("dbf"))
}
