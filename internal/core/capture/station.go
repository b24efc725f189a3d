package capture

import (
	"context"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// LocalizerFunc liefert den Localizer zur Sprache einer Sitzung
type LocalizerFunc func(lang string) Localizer

// Station besitzt den Controller und garantiert höchstens eine laufende Sitzung
type Station struct {
	ctx        context.Context
	controller *Controller
	localize   LocalizerFunc

	mu      sync.Mutex
	current *Session
	last    *Session
	closed  bool
	wg      sync.WaitGroup
}

// NewStation erstellt eine Station. Sitzungen laufen unter ctx, ein Abbruch stoppt die aktive Sitzung
func NewStation(ctx context.Context, controller *Controller, localize LocalizerFunc) *Station {
	if localize == nil {
		localize = func(string) Localizer { return idLocalizer{} }
	}
	return &Station{ctx: ctx, controller: controller, localize: localize}
}

// Start startet eine neue Sitzung im Hintergrund
func (st *Station) Start(lang string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return nil, ErrStationClosed
	}
	if st.current != nil {
		return nil, ErrSessionActive
	}
	if err := st.ctx.Err(); err != nil {
		return nil, err
	}

	s := NewSession(uuid.NewString(), lang)
	st.current = s
	st.wg.Add(1)
	go func() {
		defer st.wg.Done()
		st.controller.Run(st.ctx, s, st.localize(lang))

		st.mu.Lock()
		if st.current == s {
			st.current = nil
		}
		st.last = s
		st.mu.Unlock()
	}()

	log.WithFields(log.Fields{"session_id": s.ID, "language": lang}).Info("Capture session started")
	return s, nil
}

// RequestStop stoppt die aktive Sitzung. Liefert false, wenn nichts läuft
func (st *Station) RequestStop() bool {
	st.mu.Lock()
	s := st.current
	st.mu.Unlock()
	if s == nil {
		return false
	}
	s.RequestStop()
	return true
}

// Current liefert die aktive Sitzung oder nil
func (st *Station) Current() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current
}

// Status beschreibt die Station für Status-Endpunkte
type Status struct {
	Active  bool      `json:"active"`
	Session *Snapshot `json:"session,omitempty"`
	Last    *Snapshot `json:"last,omitempty"`
}

// Status liefert die aktive und die zuletzt beendete Sitzung
func (st *Station) Status() Status {
	st.mu.Lock()
	current, last := st.current, st.last
	st.mu.Unlock()

	var status Status
	if current != nil {
		snap := current.Snapshot()
		status.Active = true
		status.Session = &snap
	}
	if last != nil {
		snap := last.Snapshot()
		status.Last = &snap
	}
	return status
}

// Wait blockiert, bis alle gestarteten Sitzungen beendet sind
func (st *Station) Wait() {
	st.wg.Wait()
}

// Shutdown nimmt keine neuen Sitzungen mehr an, stoppt die laufende und wartet auf ihr Ende
func (st *Station) Shutdown() {
	st.mu.Lock()
	st.closed = true
	s := st.current
	st.mu.Unlock()

	if s != nil {
		s.RequestStop()
	}
	st.wg.Wait()
}
