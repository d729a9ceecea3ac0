package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Infow("info", map[string]any{"k": "v"})
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerLevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLoggerWithWriter(&buf, "planner", "warn")
	l.Infof("dropped")
	l.Warnf("kept %d", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "planner", rec["component"])
	assert.Equal(t, "kept 1", rec["message"])
	assert.Equal(t, "warn", rec["level"])
}

func TestZerologLoggerStructured(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLoggerWithWriter(&buf, "runner", "debug")
	l.Infow("plan done", map[string]any{"score": 20, "strategy": "greedy"})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, float64(20), rec["score"])
	assert.Equal(t, "greedy", rec["strategy"])
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l.Infof("ignored")
	l.Debugw("ignored", nil)
}
