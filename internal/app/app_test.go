package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"registro-ponto/config"
	"registro-ponto/internal/core/models"
	"registro-ponto/internal/i18n"
	"registro-ponto/internal/integrations/imagedir"
	"registro-ponto/internal/integrations/opencv"
	"registro-ponto/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{DataDir: dir, Timezone: "UTC"},
		Log:    config.LogConfig{Level: "warn"},
		DB:     config.DBConfig{File: filepath.Join(dir, "ponto.db")},
		Camera: config.CameraConfig{Source: config.SourceDirectory, Directory: dir},
		Queue:  config.QueueConfig{Backend: config.QueueNone, Capacity: 4},
		I18n:   config.I18nConfig{DefaultLanguage: "pt-BR"},
	}
}

func TestNewMigratesAndCloses(t *testing.T) {
	a, err := New(testConfig(t), true)
	require.NoError(t, err)

	require.NoError(t, a.DB.Create(&models.Person{Name: "Ana", BadgeID: "123", IdentityEncoding: "00"}).Error)
	persons, err := a.Repo.ListPersons(context.Background())
	require.NoError(t, err)
	assert.Len(t, persons, 1)

	assert.Equal(t, "Câmera pausada.", a.Localizers()("pt-BR").Localize(i18n.MsgCameraPaused, nil))
	assert.Equal(t, "Camera paused.", a.Localizers()("en").Localize(i18n.MsgCameraPaused, nil))

	require.NoError(t, a.Close())
	assert.NoError(t, a.Close(), "second close is a no-op")
}

func TestNewRejectsUnknownLanguage(t *testing.T) {
	cfg := testConfig(t)
	cfg.I18n.DefaultLanguage = "xx"
	_, err := New(cfg, false)
	assert.Error(t, err)
}

func TestNewSource(t *testing.T) {
	a, err := New(testConfig(t), true)
	require.NoError(t, err)
	defer a.Close()

	src, err := a.NewSource()
	require.NoError(t, err)
	assert.IsType(t, &imagedir.Source{}, src)

	a.Config.Camera.Source = config.SourceDevice
	src, err = a.NewSource()
	require.NoError(t, err)
	assert.IsType(t, &opencv.Camera{}, src)

	a.Config.Camera.Source = "rtsp"
	_, err = a.NewSource()
	assert.Error(t, err)
}

func TestNewStoreBackends(t *testing.T) {
	a, err := New(testConfig(t), true)
	require.NoError(t, err)
	defer a.Close()

	_, q, err := a.NewStore()
	require.NoError(t, err)
	assert.Nil(t, q)

	a.Config.Queue.Backend = config.QueueMemory
	store, q, err := a.NewStore()
	require.NoError(t, err)
	require.IsType(t, &queue.InMemory{}, q)
	assert.IsType(t, &queue.PublishingStore{}, store)

	a.Config.Queue.Backend = "kafka"
	_, _, err = a.NewStore()
	assert.Error(t, err)
}

func TestDrainLocalStopsWithContext(t *testing.T) {
	q := queue.NewInMemory(2)
	msg, err := queue.NewAttendanceMessage(models.AttendanceEvent{Name: "Ana"})
	require.NoError(t, err)
	require.NoError(t, q.Publish(context.Background(), msg))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		DrainLocal(ctx, q)
		close(done)
	}()

	require.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("DrainLocal did not return")
	}

	// andere Backends liest der Sync-Dienst
	DrainLocal(context.Background(), nil)
}

func TestNewRegistry(t *testing.T) {
	families, err := NewRegistry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
