package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/qumplus/simuserver/pkg/cli/internal/output"
	"github.com/qumplus/simuserver/pkg/config"
)

func newConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the configuration file",
		Long: `Inspect and edit the configuration file.

Keys are dotted section.field names such as server.port or
simulation.error_rate. 'config show' prints the effective configuration,
including .env and SIMUSERVER_* overrides; 'config set' edits only the file.`,
	}
	cmd.AddCommand(
		newConfigShowCommand(opts),
		newConfigGetCommand(opts),
		newConfigSetCommand(opts),
		newConfigInitCommand(opts),
		newConfigKeysCommand(opts),
	)
	return cmd
}

func newConfigShowCommand(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if format == "yaml" && !opts.jsonOutput {
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return err
				}
				return enc.Close()
			}
			return output.JSON(w, cfg)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format (json, yaml)")
	return cmd
}

func newConfigGetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Print one configuration value",
		Example: "  simuserver config get simulation.error_rate",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			v, err := config.Get(cfg, args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if s, ok := v.(string); ok && !opts.jsonOutput {
				fmt.Fprintln(w, s)
				return nil
			}
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(data))
			return nil
		},
	}
}

func newConfigSetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one value in the configuration file",
		Example: `  simuserver config set server.port 9000
  simuserver config set simulation.enable_cors false
  simuserver config set logging.file ~/SimuServer_Data/simuserver.log`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configFile()

			cfg, err := config.LoadFromFile(path)
			if errors.Is(err, config.ErrFileNotFound) {
				cfg, err = config.Default(), nil
			}
			if err != nil {
				return err
			}

			if err := config.Set(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.SaveToFile(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", args[0], args[1], path)
			return nil
		},
	}
}

func newConfigInitCommand(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configFile()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveToFile(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigKeysCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List configuration keys and environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return output.JSON(w, map[string][]string{
					"keys": config.Keys(),
					"env":  config.EnvVars(),
				})
			}
			fmt.Fprintln(w, "Keys:")
			for _, k := range config.Keys() {
				fmt.Fprintf(w, "  %s\n", k)
			}
			fmt.Fprintln(w, "\nEnvironment:")
			for _, v := range config.EnvVars() {
				fmt.Fprintf(w, "  %s\n", v)
			}
			return nil
		},
	}
}
