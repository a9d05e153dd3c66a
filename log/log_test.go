package log_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/hasbyte1/go-spaark-utils/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{" warn ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, log.ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestInit_Modes(t *testing.T) {
	for _, mode := range []string{"", log.ModeProduction, log.ModeDevelopment, log.ModeDebug} {
		logger, err := log.Init(log.ZapConfig{Level: "warn", Mode: mode})
		require.NoError(t, err, "mode %q", mode)
		require.True(t, logger.Core().Enabled(zapcore.WarnLevel))
		require.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	}
}

func TestInit_Encodings(t *testing.T) {
	for _, enc := range []string{log.EncodingJSON, log.EncodingConsole, "JSON"} {
		_, err := log.Init(log.ZapConfig{Encoding: enc, ColorEnabled: true})
		require.NoError(t, err, "encoding %q", enc)
	}
}

func TestInit_DefaultLevelIsInfo(t *testing.T) {
	logger, err := log.Init(log.ZapConfig{Level: "nonsense"})
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	require.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestInit_Invalid(t *testing.T) {
	_, err := log.Init(log.ZapConfig{Mode: "staging"})
	require.Error(t, err)

	_, err = log.Init(log.ZapConfig{Encoding: "xml"})
	require.Error(t, err)
}
