package utils

import (
	"testing"

	"registro-ponto/internal/core/capture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 Bytes", FormatBytes(512))
	assert.Equal(t, "1.50 KB", FormatBytes(1536))
	assert.Equal(t, "2.00 MB", FormatBytes(2*1024*1024))
	assert.Equal(t, "3.00 GB", FormatBytes(3*1024*1024*1024))
}

type stationStub struct{ status capture.Status }

func (s stationStub) Status() capture.Status { return s.status }

func TestGetSystemStats(t *testing.T) {
	stats := GetSystemStats(stationStub{status: capture.Status{Active: true}})
	require.NotNil(t, stats)
	assert.Positive(t, stats.NumCPU)
	assert.Positive(t, stats.GoRoutines)
	assert.Positive(t, stats.MemorySys)
	require.NotNil(t, stats.Station)
	assert.True(t, stats.Station.Active)

	assert.Nil(t, GetSystemStats(nil).Station)
}
