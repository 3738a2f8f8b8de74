package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sqliteEnv points the commands at a fresh sqlite file.
func sqliteEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TASKFLOW_CONFIG", "")
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(dir, "taskflow.db"))
	t.Setenv("SEED_DEFAULT_CATEGORIES", "true")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestImportExportStats(t *testing.T) {
	dir := sqliteEnv(t)

	backup := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(backup, []byte(`{
  "version": "1.0",
  "tasks": [
    {"title": "Buy milk", "category": "Shopping", "priority": "low"},
    {"title": "Ship release", "category": "Errands", "status": "completed"},
    {"title": "", "category": "Work"}
  ],
  "categories": [
    {"name": "shopping", "color": "#000000"},
    {"name": "Errands", "color": "#123456"}
  ]
}`), 0o644))

	out, err := run(t, "import", backup)
	require.NoError(t, err)
	assert.Contains(t, out, "2 of 3 tasks imported successfully.")
	assert.Contains(t, out, "Categories: 1 added, 1 already existed.")
	assert.Contains(t, out, "skipped task #3")

	out, err = run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total:      2")
	assert.Contains(t, out, "Active:     2")
	assert.Contains(t, out, "Errands")

	out, err = run(t, "export")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Buy milk"`)
	assert.Contains(t, out, `"name": "Errands"`)

	target := filepath.Join(dir, "out.xlsx")
	_, err = run(t, "export", "--xlsx", "-o", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func TestExportXLSXNeedsOutput(t *testing.T) {
	sqliteEnv(t)
	_, err := run(t, "export", "--xlsx")
	assert.Error(t, err)
}

func TestImportRejectsInvalidFile(t *testing.T) {
	dir := sqliteEnv(t)
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"tasks": 1}`), 0o644))

	_, err := run(t, "import", bad)
	assert.Error(t, err)

	_, err = run(t, "import", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestUnknownBackend(t *testing.T) {
	sqliteEnv(t)
	t.Setenv("STORAGE_BACKEND", "mongo")
	_, err := run(t, "stats")
	assert.Error(t, err)
}

func TestDefaultCategoriesFallback(t *testing.T) {
	categories := defaultCategories()
	require.NotEmpty(t, categories)
	assert.Equal(t, int64(1), categories[0].ID)
	assert.Equal(t, "Work", categories[0].Name)
}
