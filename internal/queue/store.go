package queue

import (
	"context"
	"time"

	"registro-ponto/internal/core/capture"
	"registro-ponto/internal/core/models"

	log "github.com/sirupsen/logrus"
)

const publishTimeout = 2 * time.Second

// PublishingStore dekoriert einen capture.Store und veröffentlicht jedes geschriebene Ereignis.
// Fehler beim Veröffentlichen werden protokolliert und lassen das Schreiben nie scheitern
type PublishingStore struct {
	inner capture.Store
	queue Queue
}

// NewPublishingStore umhüllt inner
func NewPublishingStore(inner capture.Store, q Queue) *PublishingStore {
	return &PublishingStore{inner: inner, queue: q}
}

// WithinSession implementiert capture.Store
func (s *PublishingStore) WithinSession(ctx context.Context, fn func(capture.Registry, capture.Ledger) error) error {
	return s.inner.WithinSession(ctx, func(reg capture.Registry, led capture.Ledger) error {
		return fn(reg, &publishingLedger{inner: led, queue: s.queue})
	})
}

type publishingLedger struct {
	inner capture.Ledger
	queue Queue
}

func (l *publishingLedger) Append(ctx context.Context, evt *models.AttendanceEvent) error {
	if err := l.inner.Append(ctx, evt); err != nil {
		return err
	}

	logger := log.WithFields(log.Fields{"badge_id": evt.BadgeID, "event_id": evt.ID})
	msg, err := NewAttendanceMessage(evt)
	if err != nil {
		logger.WithError(err).Warn("Failed to encode attendance event for sync")
		return nil
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := l.queue.Publish(pctx, msg); err != nil {
		logger.WithError(err).Warn("Failed to publish attendance event for sync")
		return nil
	}
	logger.Debug("Attendance event queued for sync")
	return nil
}
