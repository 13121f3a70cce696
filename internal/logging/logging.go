// Package logging builds the process-wide diagnostic logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a SugaredLogger for diagnostics. Debug mode uses the
// development config at debug level; otherwise output is console-encoded
// and limited to warnings so diagnostics never pollute report output.
func New(debug, verbose bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch {
	case debug:
		cfg = zap.NewDevelopmentConfig()
	case verbose:
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger.Sugar(), nil
}
