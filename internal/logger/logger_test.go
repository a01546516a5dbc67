package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARNING"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("nonsense"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(Config{Level: WARN}, &buf)

	l.Info("hidden")
	l.Warn("shown", F("table", "tasks"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "table=tasks")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(Config{Level: DEBUG}, &buf).WithFields(F("user_id", "u1"))

	l.Debug("fetch")
	assert.Contains(t, buf.String(), "user_id=u1")
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")
	require.NoError(t, Init(Config{Level: INFO, FilePath: path, MaxSize: 1}))
	t.Cleanup(func() { _ = Close() })

	Info("started", F("port", 8080))
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "started")
	assert.Equal(t, path, GetConfig().FilePath)
}

func TestWithFieldsBeforeInitDiscards(t *testing.T) {
	globalMu.Lock()
	saved := globalLogger
	globalLogger = nil
	globalMu.Unlock()
	t.Cleanup(func() {
		globalMu.Lock()
		globalLogger = saved
		globalMu.Unlock()
	})

	l := WithFields(F("k", "v"))
	require.NotNil(t, l)
	l.Error("goes nowhere")
}
