// Package log builds the zap logger shared by the command-line tool and the
// hashing manager.
//
// Loggers built here must never receive credentials, application salts,
// peppers or stored hashes as field values.
package log

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
	// ModeDebug is accepted as an alias of ModeDevelopment.
	ModeDebug = "debug"

	EncodingJSON    = "json"
	EncodingConsole = "console"
)

// ZapConfig selects level, preset and encoding for [Init].
type ZapConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

// Init builds a logger from cfg. Output goes to stderr so that command
// results on stdout stay machine readable.
//
// An unknown level falls back to info. An unknown mode or encoding is an
// error.
func Init(cfg ZapConfig) (*zap.Logger, error) {
	var zc zap.Config
	switch strings.ToLower(cfg.Mode) {
	case "", ModeProduction:
		zc = zap.NewProductionConfig()
	case ModeDevelopment, ModeDebug:
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("log: unknown mode %q", cfg.Mode)
	}

	zc.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))

	switch strings.ToLower(cfg.Encoding) {
	case "":
	case EncodingJSON, EncodingConsole:
		zc.Encoding = strings.ToLower(cfg.Encoding)
	default:
		return nil, fmt.Errorf("log: unknown encoding %q", cfg.Encoding)
	}

	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if zc.Encoding == EncodingConsole && cfg.ColorEnabled {
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("log: build logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
