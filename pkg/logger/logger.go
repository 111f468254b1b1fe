package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	ServiceName string
	Development bool
}

var global *zap.Logger = zap.NewNop()

// Init initializes the global logger. Call once from main before any Get().
func Init(cfg *Config) error {
	var zapCfg zap.Config
	if cfg != nil && cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "ts"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	log, err := zapCfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	if cfg != nil && cfg.ServiceName != "" {
		log = log.With(zap.String("service", cfg.ServiceName))
	}

	global = log
	return nil
}

// Get returns the global logger. Returns a no-op logger before Init.
func Get() *zap.Logger {
	return global
}

// Sync flushes any buffered log entries
func Sync() {
	_ = global.Sync()
}
