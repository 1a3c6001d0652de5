package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		SetLevel(in)
		require.Equal(t, want, Level(), in)
	}
}
