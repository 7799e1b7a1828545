package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"":       logrus.InfoLevel,
		"debug":  logrus.DebugLevel,
		" WARN ": logrus.WarnLevel,
		"error":  logrus.ErrorLevel,
	}
	for in, want := range tests {
		got, err := parseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseLevel("loud")
	assert.Error(t, err)
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	log, err := New(path, "info")
	require.NoError(t, err)

	log.With("request_id", "req-1").Info("booking %s finalized", "TX-1")
	log.Debug("not written")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "booking TX-1 finalized")
	assert.Contains(t, string(data), "request_id=req-1")
	assert.NotContains(t, string(data), "not written")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("", "verbose")
	assert.Error(t, err)
}

func TestNewDiscard(t *testing.T) {
	log := NewDiscard()
	log.Error("ignored %d", 1)
	assert.NoError(t, log.Close())
}
