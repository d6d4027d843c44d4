package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetLogger(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})
}

func TestConfigureFileOnlyWritesJSON(t *testing.T) {
	resetLogger(t)
	path := filepath.Join(t.TempDir(), "server.log")

	f, err := Configure("debug", path, false)
	require.NoError(t, err)
	require.NotNil(t, f)

	logrus.WithField("session", "abc").Debug("hello")
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "abc", entry["session"])
	assert.Equal(t, "debug", entry["level"])
}

func TestConfigureLevels(t *testing.T) {
	resetLogger(t)

	_, err := Configure("warn", "", true)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())

	_, err = Configure(LevelNone, "", true)
	require.NoError(t, err)
	assert.Equal(t, logrus.PanicLevel, logrus.GetLevel())

	_, err = Configure("chatty", "", true)
	assert.Error(t, err)
}

func TestConfigureBadFile(t *testing.T) {
	resetLogger(t)

	_, err := Configure("info", filepath.Join(t.TempDir(), "missing", "dir", "x.log"), false)
	assert.Error(t, err)
}
