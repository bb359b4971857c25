package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scheduler_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromPath(t *testing.T) {
	path := writeConfig(t, `
listenAddr: ":8080"
database:
  driver: postgres
  url: postgres://localhost:5432/scheduler
staffing:
  maxSlotCoverage: 6
  minHealthyCoverage: 3
apiTokens:
  secret-token: mgr-1
allowedOrigins:
  - https://schedule.example.org
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost:5432/scheduler", cfg.Database.URL)
	assert.Equal(t, 6, cfg.Staffing.MaxSlotCoverage)
	assert.Equal(t, 3, cfg.Staffing.MinHealthyCoverage)
	assert.Equal(t, "mgr-1", cfg.APITokens["secret-token"])
	assert.Equal(t, []string{"https://schedule.example.org"}, cfg.AllowedOrigins)
	assert.False(t, cfg.Notifier.EmailEnabled)
}

func TestLoadFromPathSqlite(t *testing.T) {
	path := writeConfig(t, `
listenAddr: ":8080"
database:
  driver: sqlite
  path: scheduler.db
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "scheduler.db", cfg.Database.Path)
}

func TestLoadFromPathValidation(t *testing.T) {
	// Missing listen address
	_, err := LoadFromPath(writeConfig(t, `
database:
  driver: sqlite
  path: scheduler.db
`))
	assert.Error(t, err)

	// Unknown driver
	_, err = LoadFromPath(writeConfig(t, `
listenAddr: ":8080"
database:
  driver: mysql
  url: something
`))
	assert.Error(t, err)

	// Postgres without a URL
	_, err = LoadFromPath(writeConfig(t, `
listenAddr: ":8080"
database:
  driver: postgres
`))
	assert.Error(t, err)

	// Email enabled without credential paths
	_, err = LoadFromPath(writeConfig(t, `
listenAddr: ":8080"
database:
  driver: sqlite
  path: scheduler.db
notifier:
  emailEnabled: true
`))
	assert.Error(t, err)
}

func TestLoadFromPathMissingFile(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromPathBadYAML(t *testing.T) {
	_, err := LoadFromPath(writeConfig(t, "listenAddr: [unclosed"))
	assert.Error(t, err)
}
