package commons

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_OverlaysYAMLOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9191
database:
  host: db.internal
  name: stockroom_prod
inventory:
  defaultttlminutes: 20
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "stockroom_prod", cfg.Database.Name)
	assert.Equal(t, 20, cfg.Inventory.DefaultTTLMinutes)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Fields the file does not mention keep their defaults.
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, 3, cfg.Inventory.MaxRetryAttempts)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - not yaml"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
