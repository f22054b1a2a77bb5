package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrInvalidConfig is wrapped by every ConfigurationError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigurationError reports one invalid field.
type ConfigurationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks cfg and returns every problem joined into one error.
// Each joined error is a *ConfigurationError.
func (c *ServerConfiguration) Validate() error {
	var errs []error
	add := func(field string, value any, msg string) {
		errs = append(errs, &ConfigurationError{Field: field, Value: value, Message: msg})
	}

	host := strings.TrimSpace(c.Server.Host)
	switch {
	case host == "":
		add("server.host", c.Server.Host, "host is required")
	case strings.ContainsAny(host, " /"):
		add("server.host", c.Server.Host, "host must be a hostname or IP address")
	case strings.Contains(host, ":") && net.ParseIP(host) == nil:
		add("server.host", c.Server.Host, "host must not include a port")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		add("server.port", c.Server.Port, "port must be between 0 and 65535")
	}
	if c.Server.ReadTimeout < 0 {
		add("server.read_timeout", c.Server.ReadTimeout, "must not be negative")
	}
	if c.Server.WriteTimeout < 0 {
		add("server.write_timeout", c.Server.WriteTimeout, "must not be negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		add("server.shutdown_timeout", c.Server.ShutdownTimeout, "must be positive")
	}

	if c.Simulation.DefaultDelayMs < 0 {
		add("simulation.default_delay_ms", c.Simulation.DefaultDelayMs, "must not be negative")
	}
	if c.Simulation.ErrorRate < 0 || c.Simulation.ErrorRate > 1 {
		add("simulation.error_rate", c.Simulation.ErrorRate, "must be between 0 and 1")
	}

	if c.Performance.UpdateInterval <= 0 {
		add("performance.update_interval", c.Performance.UpdateInterval, "must be positive")
	}
	if c.Performance.HistorySize <= 0 {
		add("performance.history_size", c.Performance.HistorySize, "must be positive")
	}

	if c.Logging.MaxEntries <= 0 {
		add("logging.max_entries", c.Logging.MaxEntries, "must be positive")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		add("metrics.path", c.Metrics.Path, "must start with /")
	}

	return errors.Join(errs...)
}
