package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultFileName is the configuration file looked up in the working
// directory when no path is given.
const DefaultFileName = "simuserver_config.json"

// ServerConfiguration is the complete configuration snapshot.
type ServerConfiguration struct {
	Server      ServerConfig      `json:"server" yaml:"server"`
	Simulation  SimulationConfig  `json:"simulation" yaml:"simulation"`
	Performance PerformanceConfig `json:"performance" yaml:"performance"`
	Logging     LoggingConfig     `json:"logging" yaml:"logging"`
	Storage     StorageConfig     `json:"storage" yaml:"storage"`
	Metrics     MetricsConfig     `json:"metrics" yaml:"metrics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host             string `json:"host" yaml:"host"`
	Port             int    `json:"port" yaml:"port"`
	EnableWebSockets bool   `json:"enable_websockets" yaml:"enable_websockets"`
	// Timeouts are in seconds.
	ReadTimeout     int `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    int `json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout int `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}

// SimulationConfig configures delay and fault injection.
type SimulationConfig struct {
	DefaultDelayMs int     `json:"default_delay_ms" yaml:"default_delay_ms"`
	ErrorRate      float64 `json:"error_rate" yaml:"error_rate"`
	EnableCORS     bool    `json:"enable_cors" yaml:"enable_cors"`
}

// Delay returns DefaultDelayMs as a duration.
func (s SimulationConfig) Delay() time.Duration {
	return time.Duration(s.DefaultDelayMs) * time.Millisecond
}

// PerformanceConfig configures the background sampler.
type PerformanceConfig struct {
	// UpdateInterval is in seconds.
	UpdateInterval float64 `json:"update_interval" yaml:"update_interval"`
	HistorySize    int     `json:"history_size" yaml:"history_size"`
	DiskPath       string  `json:"disk_path" yaml:"disk_path"`
}

// Interval returns UpdateInterval as a duration.
func (p PerformanceConfig) Interval() time.Duration {
	return time.Duration(p.UpdateInterval * float64(time.Second))
}

// LoggingConfig configures the process logger and the request log.
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level"`
	Format     string `json:"format" yaml:"format"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxEntries int    `json:"max_entries" yaml:"max_entries"`
}

// StorageConfig locates the template directory.
type StorageConfig struct {
	DataDirectory string `json:"data_directory" yaml:"data_directory"`
	AutoCreate    bool   `json:"auto_create" yaml:"auto_create"`
}

// TemplatesDir returns the directory holding template files.
func (s StorageConfig) TemplatesDir() string {
	return filepath.Join(ExpandHome(s.DataDirectory), "templates")
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *ServerConfiguration {
	return &ServerConfiguration{
		Server: ServerConfig{
			Host:             "127.0.0.1",
			Port:             8000,
			EnableWebSockets: true,
			ReadTimeout:      30,
			WriteTimeout:     30,
			ShutdownTimeout:  5,
		},
		Simulation: SimulationConfig{
			DefaultDelayMs: 0,
			ErrorRate:      0,
			EnableCORS:     true,
		},
		Performance: PerformanceConfig{
			UpdateInterval: 1.0,
			HistorySize:    100,
			DiskPath:       "/",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxEntries: 1000,
		},
		Storage: StorageConfig{
			DataDirectory: "~/SimuServer_Data",
			AutoCreate:    true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
