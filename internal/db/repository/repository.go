package repository

import (
	"context"
	"errors"
	"fmt"

	"registro-ponto/internal/core/capture"
	"registro-ponto/internal/core/models"

	"gorm.io/gorm"
)

// Repository implementiert Registry und Ledger auf einer GORM-Verbindung
type Repository struct {
	db *gorm.DB
}

// NewRepository erstellt eine neue Repository-Instanz
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Lookup sucht die Person mit exakt diesem Encoding. Kein Treffer liefert nil, nil.
func (r *Repository) Lookup(ctx context.Context, enc models.Encoding) (*models.Person, error) {
	var person models.Person
	err := r.db.WithContext(ctx).
		Where("identity_encoding = ?", enc.String()).
		Take(&person).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: lookup person: %w", capture.ErrStorage, err)
	}
	return &person, nil
}

// Append schreibt genau einen neuen Eintrag, immer mit SyncPending
func (r *Repository) Append(ctx context.Context, evt *models.AttendanceEvent) error {
	evt.ID = 0
	evt.SyncState = models.SyncPending
	if err := r.db.WithContext(ctx).Create(evt).Error; err != nil {
		return fmt.Errorf("%w: append attendance event: %w", capture.ErrStorage, err)
	}
	return nil
}

// ListPersons liefert alle registrierten Personen, sortiert nach Name
func (r *Repository) ListPersons(ctx context.Context) ([]models.Person, error) {
	var persons []models.Person
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&persons).Error; err != nil {
		return nil, fmt.Errorf("%w: list persons: %w", capture.ErrStorage, err)
	}
	return persons, nil
}

// RecentEvents liefert die letzten Einträge, neueste zuerst
func (r *Repository) RecentEvents(ctx context.Context, limit int) ([]models.AttendanceEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	var events []models.AttendanceEvent
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("%w: list attendance events: %w", capture.ErrStorage, err)
	}
	return events, nil
}

// Store stellt pro Erfassungssitzung eine eigene Verbindung bereit
type Store struct {
	db *gorm.DB
}

// NewStore erstellt einen Store auf dem Verbindungspool db
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithinSession reserviert eine Verbindung für fn und gibt sie danach auf jedem Weg zurück
func (s *Store) WithinSession(ctx context.Context, fn func(capture.Registry, capture.Ledger) error) error {
	err := s.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		repo := NewRepository(conn)
		return fn(repo, repo)
	})
	if err != nil && !errors.Is(err, capture.ErrStorage) {
		return fmt.Errorf("%w: %w", capture.ErrStorage, err)
	}
	return err
}
