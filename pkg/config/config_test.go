package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.True(t, cfg.Server.EnableWebSockets)
	assert.Equal(t, 1.0, cfg.Performance.UpdateInterval)
	assert.Equal(t, 100, cfg.Performance.HistorySize)
	assert.Equal(t, 1000, cfg.Logging.MaxEntries)
	assert.True(t, cfg.Simulation.EnableCORS)
	assert.Zero(t, cfg.Simulation.ErrorRate)
	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Addr())
	assert.Equal(t, time.Second, cfg.Performance.Interval())
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile_PartialJSONKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "simuserver_config.json")
	content := `{"server": {"port": 9090}, "simulation": {"error_rate": 0.25, "default_delay_ms": 150}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 0.25, cfg.Simulation.ErrorRate)
	assert.Equal(t, 150*time.Millisecond, cfg.Simulation.Delay())
	assert.Equal(t, 1000, cfg.Logging.MaxEntries)
}

func TestLoadFromFile_YAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  host: 0.0.0.0\nperformance:\n  update_interval: 0.5\nmetrics:\n  enabled: false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 500*time.Millisecond, cfg.Performance.Interval())
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadFromFile_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0644))
	badJSON := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badJSON, []byte("{"), 0644))
	badYAML := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badYAML, []byte("server: [unclosed"), 0644))

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(dir, "nope.json"), ErrFileNotFound},
		{"empty", empty, ErrEmptyFile},
		{"bad json", badJSON, ErrInvalidJSON},
		{"bad yaml", badYAML, ErrInvalidYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(tt.path)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := LoadFromFile(dir)
	assert.Error(t, err)
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"nested/config.json", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := Default()
			cfg.Server.Port = 8181
			cfg.Logging.File = "/tmp/simuserver.log"

			require.NoError(t, SaveToFile(path, cfg))
			_, err := os.Stat(path + ".tmp")
			assert.True(t, os.IsNotExist(err))

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}

	assert.Error(t, SaveToFile(filepath.Join(t.TempDir(), "x.json"), nil))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*ServerConfiguration)
		field  string
	}{
		{"empty host", func(c *ServerConfiguration) { c.Server.Host = "" }, "server.host"},
		{"host with port", func(c *ServerConfiguration) { c.Server.Host = "localhost:80" }, "server.host"},
		{"negative port", func(c *ServerConfiguration) { c.Server.Port = -1 }, "server.port"},
		{"port too high", func(c *ServerConfiguration) { c.Server.Port = 70000 }, "server.port"},
		{"zero interval", func(c *ServerConfiguration) { c.Performance.UpdateInterval = 0 }, "performance.update_interval"},
		{"error rate above one", func(c *ServerConfiguration) { c.Simulation.ErrorRate = 1.5 }, "simulation.error_rate"},
		{"negative delay", func(c *ServerConfiguration) { c.Simulation.DefaultDelayMs = -5 }, "simulation.default_delay_ms"},
		{"zero history", func(c *ServerConfiguration) { c.Performance.HistorySize = 0 }, "performance.history_size"},
		{"zero max entries", func(c *ServerConfiguration) { c.Logging.MaxEntries = 0 }, "logging.max_entries"},
		{"metrics path", func(c *ServerConfiguration) { c.Metrics.Path = "metrics" }, "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidate_ReportsEveryField(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Server.Host = ""
	cfg.Server.Port = 99999

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.host")
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidate_IPv6Host(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Server.Host = "::1"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "[::1]:8000", cfg.Server.Addr())
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"SIMUSERVER_HOST":        "0.0.0.0",
		"SIMUSERVER_PORT":        "9000",
		"SIMUSERVER_ERROR_RATE":  "0.5",
		"SIMUSERVER_ENABLE_CORS": "false",
		"SIMUSERVER_LOG_LEVEL":   "debug",
		"SIMUSERVER_DATA_DIR":    "123",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg, lookup))
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 0.5, cfg.Simulation.ErrorRate)
	assert.False(t, cfg.Simulation.EnableCORS)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "123", cfg.Storage.DataDirectory)
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	t.Parallel()

	lookup := func(k string) (string, bool) {
		if k == "SIMUSERVER_PORT" {
			return "eighty", true
		}
		return "", false
	}

	err := ApplyEnv(Default(), lookup)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Contains(t, err.Error(), "SIMUSERVER_PORT")
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SIMUSERVER_TEST_DOTENV=loaded\n"), 0644))
	t.Cleanup(func() { _ = os.Unsetenv("SIMUSERVER_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("SIMUSERVER_TEST_DOTENV"))
}

func TestGetSet(t *testing.T) {
	t.Parallel()

	cfg := Default()

	v, err := Get(cfg, "server.port")
	require.NoError(t, err)
	assert.Equal(t, float64(8000), v)

	v, err = Get(cfg, "logging.file")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, Set(cfg, "server.port", "9999"))
	require.NoError(t, Set(cfg, "simulation.enable_cors", "false"))
	require.NoError(t, Set(cfg, "logging.file", "/var/log/simuserver.log"))
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.False(t, cfg.Simulation.EnableCORS)
	assert.Equal(t, "/var/log/simuserver.log", cfg.Logging.File)

	_, err = Get(cfg, "server.nope")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.ErrorIs(t, Set(cfg, "gui.theme", "dark"), ErrUnknownKey)
	assert.ErrorIs(t, Set(cfg, "server.port", "abc"), ErrInvalidValue)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestKeys(t *testing.T) {
	t.Parallel()

	keys := Keys()
	assert.Contains(t, keys, "server.host")
	assert.Contains(t, keys, "logging.file")
	assert.Contains(t, keys, "metrics.path")
	assert.IsNonDecreasing(t, keys)
}

func TestExpandHome(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "SimuServer_Data"), ExpandHome("~/SimuServer_Data"))
	assert.Equal(t, "/data", ExpandHome("/data"))
}
