package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/qumplus/simuserver/pkg/config"
)

func TestConfigInit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "simuserver.json")

	out, _, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, _, err = execute(t, "config", "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = execute(t, "config", "init", "--config", path, "--force")
	require.NoError(t, err)
}

func TestConfigSetAndGet(t *testing.T) {
	t.Parallel()

	// set creates the file when it does not exist yet
	path := filepath.Join(t.TempDir(), "conf", "simuserver.yaml")

	tests := []struct {
		key   string
		value string
		want  string
	}{
		{key: "server.port", value: "9000", want: "9000"},
		{key: "server.host", value: "0.0.0.0", want: "0.0.0.0"},
		{key: "simulation.error_rate", value: "0.25", want: "0.25"},
		{key: "simulation.enable_cors", value: "false", want: "false"},
		{key: "logging.file", value: "/tmp/simu.log", want: "/tmp/simu.log"},
	}
	for _, tt := range tests {
		out, _, err := execute(t, "config", "set", tt.key, tt.value, "--config", path)
		require.NoError(t, err, tt.key)
		assert.Contains(t, out, "Set "+tt.key+" = "+tt.value)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw), "file should be YAML")

	for _, tt := range tests {
		out, _, err := execute(t, "config", "get", tt.key, "--config", path)
		require.NoError(t, err, tt.key)
		assert.Equal(t, tt.want, strings.TrimSpace(out), tt.key)
	}

	// strings are quoted in JSON mode
	out, _, err := execute(t, "config", "get", "server.host", "--config", path, "--json")
	require.NoError(t, err)
	assert.Equal(t, `"0.0.0.0"`, strings.TrimSpace(out))
}

func TestConfigSetErrors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "simuserver.json")

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown key", key: "server.nope", value: "1"},
		{name: "unknown section", key: "nope.port", value: "1"},
		{name: "wrong type", key: "server.port", value: "abc"},
		{name: "out of range", key: "server.port", value: "70000"},
		{name: "bad error rate", key: "simulation.error_rate", value: "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "config", "set", tt.key, tt.value, "--config", path)
			require.Error(t, err)
		})
	}

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "failed set must not write the file")
}

func TestConfigGetUnknownKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "simuserver.json")
	require.NoError(t, config.SaveToFile(path, config.Default()))

	_, _, err := execute(t, "config", "get", "server.nope", "--config", path)
	require.ErrorIs(t, err, config.ErrUnknownKey)
}

func TestConfigShow(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "simuserver.json")
	cfg := config.Default()
	cfg.Server.Port = 9100
	cfg.Simulation.DefaultDelayMs = 250
	require.NoError(t, config.SaveToFile(path, cfg))

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, "config", "show", "--config", path)
		require.NoError(t, err)

		var got config.ServerConfiguration
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, 9100, got.Server.Port)
		assert.Equal(t, 250, got.Simulation.DefaultDelayMs)
	})

	t.Run("yaml", func(t *testing.T) {
		out, _, err := execute(t, "config", "show", "--config", path, "--format", "yaml")
		require.NoError(t, err)

		var got config.ServerConfiguration
		require.NoError(t, yaml.Unmarshal([]byte(out), &got))
		assert.Equal(t, 9100, got.Server.Port)
		assert.Contains(t, out, "  port: 9100")
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := execute(t, "config", "show", "--config", filepath.Join(t.TempDir(), "nope.json"))
		require.ErrorIs(t, err, config.ErrFileNotFound)
	})
}

func TestConfigKeys(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "config", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "server.port")
	assert.Contains(t, out, "SIMUSERVER_PORT")

	out, _, err = execute(t, "config", "keys", "--json")
	require.NoError(t, err)
	var got map[string][]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, config.Keys(), got["keys"])
	assert.Equal(t, config.EnvVars(), got["env"])
}
