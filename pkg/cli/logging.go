package cli

import (
	"fmt"
	"io"

	"github.com/danpilch/memsample/pkg/config"
	"github.com/sirupsen/logrus"
)

// NewLogger builds a logrus logger writing to w with the configured level and
// formatter.
func NewLogger(cfg config.LogConfig, w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return logger, nil
}
