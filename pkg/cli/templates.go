package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qumplus/simuserver/pkg/cli/internal/output"
	"github.com/qumplus/simuserver/pkg/templatestore"
)

type templatesOptions struct {
	*rootOptions
	dir string
}

// store opens the template directory named by --dir or by the
// configuration. Presets are installed on first use of the configured
// directory, as the server does.
func (o *templatesOptions) store(presets bool) (*templatestore.Store, error) {
	if o.dir != "" {
		return templatestore.Open(o.dir, templatestore.WithoutPresets())
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return openStore(cfg.Storage.TemplatesDir(), cfg.Storage.AutoCreate, presets)
}

func newTemplatesCommand(root *rootOptions) *cobra.Command {
	opts := &templatesOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template", "tpl"},
		Short:   "Manage route templates",
		Long: `Manage the route templates in the template directory.

A template is a JSON or YAML file:

  {
    "name": "Demo API",
    "description": "A couple of demo endpoints",
    "version": "1.0",
    "routes": [
      {"method": "GET", "path": "/api/items/{id}", "response": {"id": 1}, "status_code": 200}
    ]
  }`,
	}
	cmd.PersistentFlags().StringVar(&opts.dir, "dir", "", "Template directory (default: <data_directory>/templates)")

	cmd.AddCommand(
		newTemplatesListCommand(opts),
		newTemplatesShowCommand(opts),
		newTemplatesExportCommand(opts),
		newTemplatesImportCommand(opts),
		newTemplatesDeleteCommand(opts),
		newTemplatesInitCommand(opts),
	)
	return cmd
}

func newTemplatesListCommand(opts *templatesOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List templates",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.store(true)
			if err != nil {
				return err
			}
			list, err := store.List()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return output.JSON(w, list)
			}
			if len(list) == 0 {
				fmt.Fprintf(w, "No templates in %s\n", store.Dir())
				return nil
			}

			tw := output.Table(w)
			fmt.Fprintln(tw, "NAME\tVERSION\tROUTES\tFILE\tDESCRIPTION")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.Name, s.Version, s.Routes, s.File, s.Description)
			}
			return tw.Flush()
		},
	}
}

func newTemplatesShowCommand(opts *templatesOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show the routes of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store(true)
			if err != nil {
				return err
			}
			tpl, err := store.Get(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return output.JSON(w, tpl)
			}

			fmt.Fprintf(w, "Name:        %s\n", tpl.Name)
			fmt.Fprintf(w, "Description: %s\n", tpl.Description)
			fmt.Fprintf(w, "Version:     %s\n", tpl.Version)
			fmt.Fprintf(w, "Routes:      %d\n\n", len(tpl.Routes))

			tw := output.Table(w)
			fmt.Fprintln(tw, "METHOD\tPATH\tSTATUS")
			for _, r := range tpl.Routes {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", strings.ToUpper(string(r.Method)), r.Path, r.Status())
			}
			return tw.Flush()
		},
	}
}

func newTemplatesExportCommand(opts *templatesOptions) *cobra.Command {
	var format, outPath string

	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Write a template document to stdout or a file",
		Example: `  simuserver templates export instagram --format yaml
  simuserver templates export "Twitter API" -o twitter.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store(true)
			if err != nil {
				return err
			}
			tpl, err := store.Get(args[0])
			if err != nil {
				return err
			}

			f := templatestore.FormatFromPath(outPath)
			if cmd.Flags().Changed("format") || outPath == "" {
				if f, err = templatestore.ParseFormat(format); err != nil {
					return err
				}
			}
			data, err := templatestore.Encode(tpl, f)
			if err != nil {
				return err
			}

			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outPath, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", tpl.Name, outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format (json, yaml)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newTemplatesImportCommand(opts *templatesOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Validate a template file and save it into the template directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			tpl, err := templatestore.Decode(data, templatestore.FormatFromPath(args[0]))
			if err != nil {
				return err
			}

			store, err := opts.store(true)
			if err != nil {
				return err
			}
			f, err := templatestore.ParseFormat(format)
			if err != nil {
				return err
			}
			path, err := store.Save(tpl, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s\n", tpl.Name, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Stored format (json, yaml)")
	return cmd
}

func newTemplatesDeleteCommand(opts *templatesOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a template file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store(true)
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newTemplatesInitCommand(opts *templatesOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in preset templates",
		Long: `Write the built-in presets (Instagram, Messenger, Twitter, E-commerce and
Authentication) into the template directory. Existing files are kept unless
--force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.store(false)
			if err != nil {
				return err
			}
			written, err := store.InstallPresets(force)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				if written == nil {
					written = []string{}
				}
				return output.JSON(w, written)
			}
			if len(written) == 0 {
				fmt.Fprintf(w, "All presets already present in %s\n", store.Dir())
				return nil
			}
			for _, file := range written {
				stem := strings.TrimSuffix(file, templatestore.FormatFromPath(file).Ext())
				fmt.Fprintf(w, "Installed %s (%s)\n", templatestore.DisplayName(stem), file)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing preset files")
	return cmd
}
