package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New builds the process logger. Production environments get JSON output at
// info level, everything else gets the development console encoder.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(env) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// Named returns a child logger tagged with the owning service.
func Named(log *zap.Logger, service string) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return log.With(zap.String("service", service))
}
