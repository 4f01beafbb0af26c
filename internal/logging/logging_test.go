package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelWarn},
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewConsoleOnly(t *testing.T) {
	var buf bytes.Buffer

	logger, closer, err := New(&buf, Config{Level: "info"})
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("shown", "ref", "refs/heads/main")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "ref=refs/heads/main")
}

func TestNewWithFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "porcelain.log")

	logger, closer, err := New(&buf, Config{File: path})
	require.NoError(t, err)

	logger.With("op", "fetch").Debug("fetching", "remote", "origin")
	logger.Warn("slow remote")
	require.NoError(t, closer.Close())

	assert.NotContains(t, buf.String(), "fetching")
	assert.Contains(t, buf.String(), "slow remote")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"fetching"`)
	assert.Contains(t, string(data), `"op":"fetch"`)
	assert.Contains(t, string(data), `"msg":"slow remote"`)
}

func TestNewInvalidLevel(t *testing.T) {
	_, _, err := New(&bytes.Buffer{}, Config{Level: "loud"})
	require.Error(t, err)
}

func TestFileWriterDefaults(t *testing.T) {
	l := newFileWriter(Config{File: "x.log"})
	assert.Equal(t, DefaultMaxSizeMB, l.MaxSize)
	assert.Equal(t, DefaultMaxBackups, l.MaxBackups)
	assert.Equal(t, DefaultMaxAgeDays, l.MaxAge)

	l = newFileWriter(Config{File: "x.log", MaxSizeMB: 10, MaxBackups: 5, MaxAgeDays: 7})
	assert.Equal(t, 10, l.MaxSize)
	assert.Equal(t, 5, l.MaxBackups)
	assert.Equal(t, 7, l.MaxAge)
}
