package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Run from an empty directory so no stray config file is picked up.
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ".lodestar/lodestar.db", cfg.Database.Path)
	assert.Equal(t, 2.0, cfg.GitHub.RequestsPerSecond)
	assert.Equal(t, uint(4), cfg.GitHub.MaxTries)
	assert.Equal(t, 256, cfg.Sync.SnapshotMaxBytes)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lodestar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /var/lib/lodestar/issues.db
github:
  owner: lodestar-hq
  repo: delivery
  max_tries: 6
sync:
  search_query: "repo:lodestar-hq/delivery label:mirror"
  snapshot_max_bytes: 512
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/lodestar/issues.db", cfg.Database.Path)
	assert.Equal(t, "lodestar-hq", cfg.GitHub.Owner)
	assert.Equal(t, "delivery", cfg.GitHub.Repo)
	assert.Equal(t, uint(6), cfg.GitHub.MaxTries)
	assert.Equal(t, "repo:lodestar-hq/delivery label:mirror", cfg.Sync.SearchQuery)
	assert.Equal(t, 512, cfg.Sync.SnapshotMaxBytes)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LODESTAR_GITHUB_TOKEN", "env-token")
	t.Setenv("LODESTAR_SYNC_SEARCH_QUERY", "label:from-env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.GitHub.Token)
	assert.Equal(t, "label:from-env", cfg.Sync.SearchQuery)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Database.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.GitHub.RequestsPerSecond = -1
	assert.Error(t, cfg.Validate())
}
