package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("Valid Config", func(t *testing.T) {
		configContent := `
device:
  port: "/dev/ttyUSB1"
  model: "ft-60"
  read_timeout: 500

web:
  port: 9090
  bind_address: "127.0.0.1"

history:
  database_path: "/tmp/yaesud.db"
  max_entries: 200

logging:
  level: "debug"
  file: "/var/log/yaesud.log"
  console: true
`
		configPath := filepath.Join(tempDir, "valid.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

		cfg, err := LoadConfig(configPath)
		require.NoError(t, err)

		assert.Equal(t, "/dev/ttyUSB1", cfg.Device.Port)
		assert.Equal(t, "ft-60", cfg.Device.Model)
		assert.Equal(t, 500, cfg.Device.ReadTimeout)
		assert.Equal(t, 9090, cfg.Web.Port)
		assert.Equal(t, "127.0.0.1", cfg.Web.BindAddress)
		assert.Equal(t, "/tmp/yaesud.db", cfg.History.DatabasePath)
		assert.Equal(t, 200, cfg.History.MaxEntries)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("Defaults Fill Missing Fields", func(t *testing.T) {
		configPath := filepath.Join(tempDir, "minimal.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("device:\n  model: \"vx-2\"\n"), 0644))

		cfg, err := LoadConfig(configPath)
		require.NoError(t, err)

		assert.Equal(t, "/dev/ttyUSB0", cfg.Device.Port)
		assert.Equal(t, 200, cfg.Device.ReadTimeout)
		assert.Equal(t, 300, cfg.Device.HandshakeRetries)
		assert.Equal(t, 8080, cfg.Web.Port)
		assert.Equal(t, "0.0.0.0", cfg.Web.BindAddress)
		assert.Equal(t, 1000, cfg.History.MaxEntries)
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(tempDir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("Malformed YAML", func(t *testing.T) {
		configPath := filepath.Join(tempDir, "broken.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("device: [unclosed\n"), 0644))

		_, err := LoadConfig(configPath)
		assert.Error(t, err)
	})
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "/dev/ttyUSB0", cfg.Device.Port)
	assert.Empty(t, cfg.Device.Model)
}

func TestValidate(t *testing.T) {
	t.Run("Unknown Model", func(t *testing.T) {
		cfg := Default()
		cfg.Device.Model = "ft-817"
		assert.Error(t, cfg.Validate())
	})

	t.Run("Known Models", func(t *testing.T) {
		for _, model := range []string{"", "ft-60", "vx-2"} {
			cfg := Default()
			cfg.Device.Model = model
			assert.NoError(t, cfg.Validate(), "model %q", model)
		}
	})

	t.Run("Web Port Range", func(t *testing.T) {
		cfg := Default()
		cfg.Web.Port = 70000
		assert.Error(t, cfg.Validate())
	})

	t.Run("Empty Port", func(t *testing.T) {
		cfg := Default()
		cfg.Device.Port = ""
		assert.Error(t, cfg.Validate())
	})
}
