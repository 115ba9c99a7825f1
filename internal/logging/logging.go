// Package logging builds the zap loggers used by the Lambda functions and
// the deploy workflow.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sugared is the logger type passed around the codebase.
type Sugared = *zap.SugaredLogger

// New returns a production JSON logger, or a development logger at debug
// level when verbose is set.
func New(verbose bool) Sugared {
	var z *zap.Logger
	var err error
	if verbose {
		z, err = zap.NewDevelopment()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return z.Sugar()
}

// NewLambda returns a JSON logger at info level, or debug level when
// verbose is set. CloudWatch ingests the JSON lines from stderr.
func NewLambda(verbose bool) Sugared {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = nil
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	z, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return z.Sugar()
}

// Nop returns a logger that discards everything.
func Nop() Sugared {
	return zap.NewNop().Sugar()
}
