package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSQL(t *testing.T) {
	statements := splitSQL("-- header\nCREATE TABLE a (\n  id text\n);\n\nCREATE INDEX i ON a (id);\n")
	require.Len(t, statements, 2)
	assert.Contains(t, statements[0], "CREATE TABLE a")
	assert.Contains(t, statements[1], "CREATE INDEX i")
}

func TestLoadMigrationsSplitsUpAndDown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0002_b.sql"), []byte("CREATE TABLE b (id text);\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0001_a.sql"), []byte(
		"CREATE TABLE a (id text);\n-- +migrate Down\nDROP TABLE a;\n"), 0o600))

	migrations, err := loadMigrations(dir)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "0001_a.sql", migrations[0].name)
	assert.Equal(t, []string{"CREATE TABLE a (id text);\n"}, migrations[0].up)
	assert.Equal(t, []string{"DROP TABLE a;\n"}, migrations[0].down)
	assert.Empty(t, migrations[1].down)
}
