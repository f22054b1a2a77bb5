package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/qumplus/simuserver/pkg/cli/internal/output"
	"github.com/qumplus/simuserver/pkg/config"
	"github.com/qumplus/simuserver/pkg/engine"
	"github.com/qumplus/simuserver/pkg/templatestore"
)

// serveFlags are the serve command flags. They override the resolved
// configuration only when set explicitly.
type serveFlags struct {
	host         string
	port         int
	delayMs      int
	errorRate    float64
	noCORS       bool
	noWebSockets bool
	templates    []string
	templatesDir string
	logLevel     string
	logFormat    string
	logFile      string
	quiet        bool
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the simulation server (foreground)",
		Long: `Start the simulation server and block until interrupted.

Templates named with --template are looked up in the template directory by
template name or file name and loaded before the listener starts. Every handled
request is echoed to stdout unless --quiet is set.`,
		Example: `  # Start with defaults on 127.0.0.1:8000
  simuserver serve

  # Serve the Instagram and Auth presets on port 3000 with 200ms latency
  simuserver serve --port 3000 --delay 200 --template instagram --template auth

  # Fail a quarter of all requests
  simuserver serve --error-rate 0.25

  # Use a config file and also log to a file
  simuserver serve --config simuserver.yaml --log-file ~/SimuServer_Data/simuserver.log`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.host, "host", "", "Interface to bind")
	fl.IntVarP(&f.port, "port", "p", 0, "HTTP port (0 picks a free port)")
	fl.IntVar(&f.delayMs, "delay", 0, "Delay added to every request, in milliseconds")
	fl.Float64Var(&f.errorRate, "error-rate", 0, "Probability (0.0-1.0) of answering with a simulated 500")
	fl.BoolVar(&f.noCORS, "no-cors", false, "Disable the allow-all CORS policy")
	fl.BoolVar(&f.noWebSockets, "no-websockets", false, "Disable the /ws and /ws/chat channels")
	fl.StringArrayVarP(&f.templates, "template", "t", nil, "Template to load at startup (repeatable)")
	fl.StringVar(&f.templatesDir, "templates-dir", "", "Template directory (default: <data_directory>/templates)")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fl.StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")
	fl.StringVar(&f.logFile, "log-file", "", "Also write JSON logs to this file")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "Do not echo handled requests")
	return cmd
}

// apply copies the flags the user set onto cfg.
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.ServerConfiguration) {
	changed := cmd.Flags().Changed
	if changed("host") {
		cfg.Server.Host = f.host
	}
	if changed("port") {
		cfg.Server.Port = f.port
	}
	if changed("delay") {
		cfg.Simulation.DefaultDelayMs = f.delayMs
	}
	if changed("error-rate") {
		cfg.Simulation.ErrorRate = f.errorRate
	}
	if f.noCORS {
		cfg.Simulation.EnableCORS = false
	}
	if f.noWebSockets {
		cfg.Server.EnableWebSockets = false
	}
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
	if changed("log-file") {
		cfg.Logging.File = f.logFile
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions, f *serveFlags) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	f.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, closeLog, err := newLogger(cmd.ErrOrStderr(), cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	out := cmd.OutOrStdout()
	serverOpts := []engine.ServerOption{
		engine.WithLogger(log),
		engine.WithVersion(Version),
	}
	if !f.quiet {
		serverOpts = append(serverOpts, engine.WithObserver(func(line string) {
			fmt.Fprintln(out, line)
		}))
	}
	srv := engine.NewServer(cfg, serverOpts...)

	if len(f.templates) > 0 {
		dir := f.templatesDir
		if dir == "" {
			dir = cfg.Storage.TemplatesDir()
		}
		store, err := openStore(dir, cfg.Storage.AutoCreate, true)
		if err != nil {
			return err
		}
		for _, name := range f.templates {
			if err := loadNamedTemplate(cmd.ErrOrStderr(), srv, store, name); err != nil {
				return err
			}
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(); err != nil {
		return err
	}
	fmt.Fprintf(out, "SimuServer listening on http://%s\n", srv.Addr())

	<-ctx.Done()
	fmt.Fprintln(out, "Shutting down...")

	if err := srv.Stop(context.Background()); err != nil && !errors.Is(err, engine.ErrNotRunning) {
		return err
	}
	return nil
}

// openStore opens the template directory. With autoCreate unset the
// directory must already exist and presets are never written.
func openStore(dir string, autoCreate, presets bool) (*templatestore.Store, error) {
	if !autoCreate {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("template directory %s: %w", dir, err)
		}
		presets = false
	}
	if presets {
		return templatestore.Open(dir)
	}
	return templatestore.Open(dir, templatestore.WithoutPresets())
}

func loadNamedTemplate(stderr io.Writer, srv *engine.Server, store *templatestore.Store, name string) error {
	tpl, err := store.Get(name)
	if err != nil {
		return err
	}
	for _, routeErr := range srv.LoadTemplate(name, tpl) {
		output.Warn(stderr, "%v", routeErr)
	}
	return nil
}
