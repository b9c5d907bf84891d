package config

import (
	"fmt"
	"io"
	"os"

	"github.com/marmos91/dittofd/internal/logger"
)

// ConfigureLogging applies cfg to the global logger.
//
// Returns a closer for the log file when Output is a path; it is a no-op
// for stdout and stderr.
func ConfigureLogging(cfg *LoggingConfig) (io.Closer, error) {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.Level)

	logger.SetFormat(cfg.Format)

	switch cfg.Output {
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(f)
		return f, nil
	}

	return nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
