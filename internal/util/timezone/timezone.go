package timezone

import (
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	mu              sync.RWMutex
	currentLocation *time.Location
)

// Initialize setzt die Zeitzone. Reihenfolge: name, TZ-Umgebungsvariable, lokale Zeitzone.
func Initialize(name string) {
	tzName := name
	if tzName == "" {
		tzName = os.Getenv("TZ")
	}

	loc := time.Local
	if tzName != "" {
		l, err := time.LoadLocation(tzName)
		if err != nil {
			log.Warnf("Failed to load timezone %s: %v. Falling back to local time.", tzName, err)
		} else {
			loc = l
			log.Infof("Successfully initialized timezone to %s", tzName)
		}
	}

	mu.Lock()
	currentLocation = loc
	mu.Unlock()
}

// Location gibt die konfigurierte Zeitzone zurück
func Location() *time.Location {
	mu.RLock()
	loc := currentLocation
	mu.RUnlock()
	if loc == nil {
		return time.Local
	}
	return loc
}

// Now gibt die aktuelle Zeit in der konfigurierten Zeitzone zurück
func Now() time.Time {
	return time.Now().In(Location())
}

// Format formatiert ein time.Time-Objekt mit der konfigurierten Zeitzone
func Format(t time.Time, layout string) string {
	return t.In(Location()).Format(layout)
}

// RFC3339 formatiert die Zeit im RFC3339-Format mit der konfigurierten Zeitzone
func RFC3339(t time.Time) string {
	return Format(t, time.RFC3339)
}
