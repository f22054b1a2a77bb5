package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qumplus/simuserver/pkg/config"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	envFile    string
	jsonOutput bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "simuserver",
		Short: "SimuServer is a programmable HTTP and WebSocket mock server",
		Long: `SimuServer serves mock REST endpoints from route templates, injects latency
and server errors on demand, records every request, and samples host
performance while it runs.

Configuration can be provided via flags, environment variables (SIMUSERVER_*),
a .env file, or a configuration file. By default, simuserver looks for
./simuserver_config.json.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (default: ./"+config.DefaultFileName+")")
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with SIMUSERVER_* overrides")
	pf.BoolVar(&opts.jsonOutput, "json", false, "Output command results in JSON format")

	cmd.AddCommand(
		newServeCommand(opts),
		newTemplatesCommand(opts),
		newConfigCommand(opts),
		newWSCommand(opts),
		newVersionCommand(opts),
	)
	return cmd
}

// Execute runs the CLI and exits non-zero on error. It is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration from the file, the .env
// file and the environment.
func (o *rootOptions) loadConfig() (*config.ServerConfiguration, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configFile returns the file edited by the config commands.
func (o *rootOptions) configFile() string {
	if o.configPath != "" {
		return o.configPath
	}
	return config.DefaultFileName
}
