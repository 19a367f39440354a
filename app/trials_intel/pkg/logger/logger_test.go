package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomFormatter(t *testing.T) {
	entry := &logrus.Entry{
		Time:    time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "缺少字段",
		Data:    logrus.Fields{"nct_id": "NCT001"},
	}
	out, err := (&CustomFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[2025-03-01 08:30:00] [WARN] [] 缺少字段 nct_id=NCT001\n", string(out))
}

func TestInitLogger_WritesFile(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	path := filepath.Join(t.TempDir(), "logs", "trials.log")
	require.NoError(t, InitLogger("debug", path))
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())

	Log.Debug("hello")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBU]")
	assert.Contains(t, string(data), "hello")
}

func TestInitLogger_BadLevelFallsBack(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	require.NoError(t, InitLogger("loud", ""))
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())

	var buf bytes.Buffer
	Log.SetOutput(&buf)
	Log.Info("ok")
	assert.Contains(t, buf.String(), "[INFO]")
}
