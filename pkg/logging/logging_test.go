package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestConsoleLogger(t *testing.T) {
	logger := ConsoleLogger(logrus.WarnLevel)
	require.Equal(t, logrus.WarnLevel, logger.GetLevel())
	require.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestFileLogger_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	f, logger, err := FileLogger(logrus.InfoLevel, path)
	require.NoError(t, err)
	require.NotNil(t, f)

	logger.WithField("kind", "employment-types").Info("lifecycle.test")
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(raw, &entry))
	require.Equal(t, "lifecycle.test", entry["msg"])
	require.Equal(t, "employment-types", entry["kind"])
}

func TestFileLogger_NoPath(t *testing.T) {
	f, logger, err := FileLogger(logrus.DebugLevel, "")
	require.NoError(t, err)
	require.Nil(t, f)
	require.Equal(t, logrus.DebugLevel, logger.GetLevel())
}
