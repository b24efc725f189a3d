package models

import (
	"time"
)

// TimestampLayout ist das Format der Zeitstempel im Ponto-Register (Sekundengenauigkeit, Ortszeit)
const TimestampLayout = "2006-01-02 15:04:05"

// EventType ist die Art eines Ponto-Eintrags
type EventType string

const (
	EventEntrada EventType = "Entrada"
	EventSaida   EventType = "Saida"
)

// SyncState beschreibt, ob ein Eintrag bereits vom externen Sync übernommen wurde
type SyncState string

const (
	SyncPending SyncState = "Pending"
	SyncSynced  SyncState = "Synced"
)

// Person repräsentiert eine registrierte Person (Enrollment erfolgt außerhalb dieses Systems)
type Person struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	Name             string `gorm:"not null" json:"name"`
	BadgeID          string `gorm:"column:badge_id;uniqueIndex;not null" json:"badge_id"`
	IdentityEncoding string `gorm:"column:identity_encoding;uniqueIndex;not null" json:"-"` // Hex-Text des Encodings
}

// TableName setzt den Tabellennamen explizit
func (Person) TableName() string {
	return "persons"
}

// AttendanceEvent repräsentiert einen unveränderlichen Ponto-Eintrag
type AttendanceEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	BadgeID   string    `gorm:"column:badge_id;index;not null" json:"badge_id"`
	Timestamp string    `gorm:"column:timestamp;not null" json:"timestamp"` // TimestampLayout
	EventType EventType `gorm:"column:event_type;not null" json:"event_type"`
	SyncState SyncState `gorm:"column:sync_state;index;not null" json:"sync_state"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName setzt den Tabellennamen explizit
func (AttendanceEvent) TableName() string {
	return "attendance_events"
}

// NewAttendanceEvent erstellt einen neuen Eintrag für die Person zum Zeitpunkt at
func NewAttendanceEvent(p Person, at time.Time, eventType EventType) *AttendanceEvent {
	return &AttendanceEvent{
		Name:      p.Name,
		BadgeID:   p.BadgeID,
		Timestamp: at.Format(TimestampLayout),
		EventType: eventType,
		SyncState: SyncPending,
	}
}
