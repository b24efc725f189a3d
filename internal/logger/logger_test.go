package logger

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registro-ponto/config"
)

func TestInitWritesToFile(t *testing.T) {
	prevOut, prevLevel := log.StandardLogger().Out, log.GetLevel()
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetLevel(prevLevel)
	})

	file := filepath.Join(t.TempDir(), "logs", "ponto.log")
	closer, err := Init(config.LogConfig{Level: "debug", File: file})
	require.NoError(t, err)

	log.WithField("badge_id", "123").Info("attendance registered")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "attendance registered")
	assert.Contains(t, string(data), "badge_id=123")
	assert.Equal(t, log.DebugLevel, log.GetLevel())
}

func TestInitFallsBackToInfo(t *testing.T) {
	prevOut, prevLevel := log.StandardLogger().Out, log.GetLevel()
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetLevel(prevLevel)
	})

	closer, err := Init(config.LogConfig{Level: "verbose"})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}
