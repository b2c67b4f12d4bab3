package mailtrap

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds a logger from cfg. Unknown levels fall back to info and
// unknown outputs to stderr.
func NewLogger(cfg LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logger.SetOutput(outputFor(cfg.Output))

	return logger
}

func outputFor(name string) io.Writer {
	switch name {
	case "stdout":
		return os.Stdout
	default:
		return os.Stderr
	}
}
