package migrations

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLatestMigrationVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_create_matches.up.sql",
		"000001_create_matches.down.sql",
		"000012_add_index.up.sql",
		"README.md",
		"notes_000099.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000500_dir"), 0o755))

	assert.Equal(t, int64(12), findLatestMigrationVersion(dir))
}

func TestFindLatestMigrationVersionMissingDir(t *testing.T) {
	assert.Equal(t, int64(0), findLatestMigrationVersion(filepath.Join(t.TempDir(), "nope")))
}

func TestShippedMigrations(t *testing.T) {
	assert.Equal(t, int64(1), findLatestMigrationVersion("../../migrations"))
}

func TestRunMigrationsEmptyURL(t *testing.T) {
	err := RunMigrations("", "../../migrations", log.New(io.Discard))
	require.Error(t, err)
}
