// Package observability holds process-wide logging for the CLI.
package observability

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the logger used by CLI commands. It defaults to a no-op
// logger so packages can log before InitCLILogger runs (and tests never
// need to initialize it).
var CLILogger = zap.NewNop()

// InitCLILogger configures CLILogger.
//
// level is a zap level name ("debug", "info", "warn", "error"); anything
// unparseable falls back to info. With structured=true, output is JSON on
// stdout; otherwise a human console encoder writes to stderr so JSONL
// result records on stdout stay machine-parseable.
func InitCLILogger(level string, structured bool) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	var sink zapcore.WriteSyncer
	if structured {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
		sink = zapcore.AddSync(os.Stdout)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
		sink = zapcore.AddSync(os.Stderr)
	}

	CLILogger = zap.New(zapcore.NewCore(encoder, sink, lvl))
}

// Sync flushes buffered log entries. Safe to call on the no-op logger.
func Sync() {
	_ = CLILogger.Sync()
}
