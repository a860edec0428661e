package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Level: "chatty"})
	require.Error(t, err)
}

func TestStructuredOutputIncludesFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", Writer: &buf})
	require.NoError(t, err)

	log.WithFields(map[string]any{"property": "service_public_lb", "trial": 7}).Info("trial complete")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "service_public_lb", entry["property"])
	require.Equal(t, float64(7), entry["trial"])
	require.Equal(t, "trial complete", entry["message"])
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := New(Options{Level: "warn", Writer: &buf})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("hidden too")
	require.Zero(t, buf.Len())

	log.Warn("visible")
	require.NotZero(t, buf.Len())
}

func TestDiscardLoggerIsSafe(t *testing.T) {
	t.Parallel()

	log := NewDiscard()
	log.Info("dropped")
	log.Error(nil, "dropped")

	var nilLogger *Logger
	nilLogger.Info("no panic")
	nilLogger.WithFields(map[string]any{"k": "v"})
}
