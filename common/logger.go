package common

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the logger installed in a fresh Config.  Non-verbose
// processing logs warnings and errors only; verbose processing also enables
// the per-file and per-record tracing that the scanner and normalizer emit at
// debug level, which is voluminous.
func NewLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true
	log, err := cfg.Build()
	if err != nil {
		// Build fails only on a malformed config, and ours is fixed.
		return zap.NewNop()
	}
	return log
}
