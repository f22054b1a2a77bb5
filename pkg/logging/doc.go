// Package logging configures the log/slog loggers used across simuserver.
//
// The engine, the performance monitor, the WebSocket handlers and the CLI all
// take a *slog.Logger. This package builds those loggers from the logging
// section of the configuration:
//
//	log := logging.New(logging.Config{
//	    Level:  logging.ParseLevel(cfg.Logging.Level),
//	    Format: logging.ParseFormat(cfg.Logging.Format),
//	})
//	log.Info("server started", "addr", "127.0.0.1:8000")
//
// Text output suits a terminal; JSON output suits log files and collectors.
// NewMultiHandler writes each record to several handlers, which the CLI uses
// to mirror terminal output into logging.file.
//
// Components that are not given a logger use Nop.
package logging
