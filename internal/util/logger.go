package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// The logger defaults to a no-op so that code constructed before
// InitLogger (and in tests) stays quiet.
var logger = zap.NewNop()

// InitLogger builds the process-wide logger. Development gets colored
// console output; production gets JSON.
func InitLogger(env string) error {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	logger = l
	zap.ReplaceGlobals(l)
	return nil
}

// GetLogger returns the process-wide logger.
func GetLogger() *zap.Logger {
	return logger
}

// Named returns the process-wide logger scoped to a component.
func Named(component string) *zap.Logger {
	return logger.Named(component)
}

// SyncLogger flushes any buffered log entries
func SyncLogger() {
	_ = logger.Sync()
}
