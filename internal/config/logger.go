package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. Unknown formats fall back to JSON.
func NewLogger(cfg LogConfig) (*logrus.Logger, error) {
	logger := logrus.New()

	switch strings.ToLower(cfg.Format) {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return logger, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	logger.SetLevel(level)
	return logger, nil
}
