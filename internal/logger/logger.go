// Package logger builds the zap logger shared by the service.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production JSON logger or a colored development logger.
func New(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// ExitCode logs err under msg, flushes l and returns the process exit code
// for err. Callers pass the result to os.Exit once their deferred cleanup
// has run.
func ExitCode(l *zap.Logger, msg string, err error) int {
	l = OrNop(l)
	code := 0
	if err != nil {
		l.Error(msg, zap.Error(err))
		code = 1
	}
	_ = l.Sync()
	return code
}
