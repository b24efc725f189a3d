package timezone

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
)

func TestInitialize(t *testing.T) {
	t.Cleanup(func() { Initialize("") })

	Initialize("America/Sao_Paulo")
	assert.Equal(t, "America/Sao_Paulo", Location().String())
	assert.Equal(t, "America/Sao_Paulo", Now().Location().String())

	at := time.Date(2024, 3, 7, 11, 5, 9, 0, time.UTC)
	assert.Equal(t, "2024-03-07 08:05:09", Format(at, "2006-01-02 15:04:05"))
	assert.Equal(t, "2024-03-07T08:05:09-03:00", RFC3339(at))
}

func TestInitializeFallsBack(t *testing.T) {
	t.Cleanup(func() { Initialize("") })
	t.Setenv("TZ", "")

	Initialize("Nowhere/Atlantis")
	assert.Equal(t, time.Local, Location())

	Initialize("")
	assert.Equal(t, time.Local, Location())
}

func TestInitializeFromEnvironment(t *testing.T) {
	t.Cleanup(func() { Initialize("") })
	t.Setenv("TZ", "UTC")

	Initialize("")
	assert.Equal(t, "UTC", Location().String())
}
