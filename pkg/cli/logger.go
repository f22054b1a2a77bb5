package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/qumplus/simuserver/pkg/config"
	"github.com/qumplus/simuserver/pkg/logging"
)

// newLogger builds the process logger. When lc.File is set, records go to
// both the terminal and the file; the file always gets JSON. The returned
// function closes the file.
func newLogger(terminal io.Writer, lc config.LoggingConfig) (*slog.Logger, func() error, error) {
	level := logging.ParseLevel(lc.Level)
	term := logging.NewHandler(logging.Config{
		Level:  level,
		Format: logging.ParseFormat(lc.Format),
		Output: terminal,
	})
	if lc.File == "" {
		return slog.New(term), func() error { return nil }, nil
	}

	path := config.ExpandHome(lc.File)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	file := logging.NewHandler(logging.Config{
		Level:  level,
		Format: logging.FormatJSON,
		Output: f,
	})
	return slog.New(logging.NewMultiHandler(term, file)), f.Close, nil
}
