package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SIMUSERVER_"

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// envBinding maps one variable to a dotted configuration key.
type envBinding struct {
	name string
	key  string
}

var envBindings = []envBinding{
	{"HOST", "server.host"},
	{"PORT", "server.port"},
	{"ENABLE_WEBSOCKETS", "server.enable_websockets"},
	{"DELAY_MS", "simulation.default_delay_ms"},
	{"ERROR_RATE", "simulation.error_rate"},
	{"ENABLE_CORS", "simulation.enable_cors"},
	{"UPDATE_INTERVAL", "performance.update_interval"},
	{"HISTORY_SIZE", "performance.history_size"},
	{"LOG_LEVEL", "logging.level"},
	{"LOG_FORMAT", "logging.format"},
	{"LOG_FILE", "logging.file"},
	{"MAX_ENTRIES", "logging.max_entries"},
	{"DATA_DIR", "storage.data_directory"},
	{"METRICS_ENABLED", "metrics.enabled"},
}

// EnvVars returns the names of the supported variables.
func EnvVars() []string {
	names := make([]string, len(envBindings))
	for i, b := range envBindings {
		names[i] = EnvPrefix + b.name
	}
	return names
}

// ApplyEnv overrides cfg with SIMUSERVER_* variables read through lookup.
// A nil lookup uses os.LookupEnv.
func ApplyEnv(cfg *ServerConfiguration, lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for _, b := range envBindings {
		raw, ok := lookup(EnvPrefix + b.name)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		if err := applyEnvValue(cfg, b.key, raw); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, b.name, err)
		}
	}
	return nil
}

func applyEnvValue(cfg *ServerConfiguration, key, raw string) error {
	raw = strings.TrimSpace(raw)
	switch key {
	case "server.host", "logging.level", "logging.format", "logging.file", "storage.data_directory":
		// Quote strings so values like "on" or "123" stay strings.
		return Set(cfg, key, strconv.Quote(raw))
	default:
		return Set(cfg, key, raw)
	}
}
