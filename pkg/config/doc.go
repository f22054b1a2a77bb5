// Package config provides the resolved configuration snapshot of simuserver.
//
// A ServerConfiguration is built in layers: Default values, then an optional
// JSON or YAML file (LoadFromFile), then SIMUSERVER_* environment variables
// (ApplyEnv, which also reads a .env file through godotenv), then CLI flags.
// Validate must pass before the engine starts; it reports every invalid field
// as a *ConfigurationError.
//
// Values can also be read and written by dotted key, e.g. "server.port", the
// way the config command does.
package config
