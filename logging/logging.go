// Package logging builds the zap logger used by layoutctl.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/layout-host/config"
	"github.com/wippyai/layout-host/errors"
)

// New builds a logger from cfg.
func New(cfg config.Log) (*zap.Logger, error) {
	level, ok := config.ParseLevel(cfg.Level)
	if !ok {
		return nil, errors.InvalidConfig("log.level %q is not recognised", cfg.Level)
	}

	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Sampling = nil
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	switch cfg.Format {
	case "json":
		zc.Encoding = "json"
	case "", "console":
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, errors.InvalidConfig("log.format %q is not one of \"json\", \"console\"", cfg.Format)
	}
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}
