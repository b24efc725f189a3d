package capture

import (
	"sync"
	"time"
)

// Session ist ein befristeter Erfassungsversuch. Eine Sitzung läuft höchstens einmal
type Session struct {
	ID       string
	Language string

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu        sync.RWMutex
	state     State
	startedAt time.Time
	deadline  time.Time
	matched   bool
	remaining int
	outcome   *Outcome
}

// NewSession erstellt eine ruhende Sitzung
func NewSession(id, language string) *Session {
	return &Session{
		ID:       id,
		Language: language,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		state:    StateIdle,
	}
}

// RequestStop bittet den Controller, die Sitzung zu beenden. Idempotent und nie blockierend
func (s *Session) RequestStop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// StopRequested meldet, ob RequestStop aufgerufen wurde
func (s *Session) StopRequested() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Done wird geschlossen, sobald die Sitzung einen Endzustand erreicht hat
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State liefert den aktuellen Zustand
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot ist eine Kopie der sichtbaren Sitzungsfelder
type Snapshot struct {
	ID               string    `json:"id"`
	Language         string    `json:"language"`
	State            State     `json:"state"`
	StartedAt        time.Time `json:"started_at,omitempty"`
	Deadline         time.Time `json:"deadline,omitempty"`
	Matched          bool      `json:"matched"`
	RemainingSeconds int       `json:"remaining_seconds"`
	Outcome          *Outcome  `json:"outcome,omitempty"`
}

// Snapshot kopiert die Sitzungsfelder unter Sperre
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:               s.ID,
		Language:         s.Language,
		State:            s.state,
		StartedAt:        s.startedAt,
		Deadline:         s.deadline,
		Matched:          s.matched,
		RemainingSeconds: s.remaining,
		Outcome:          s.outcome,
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) begin(start time.Time, window time.Duration) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startedAt = start
	s.deadline = start.Add(window)
	s.remaining = remainingSeconds(s.deadline, start)
	s.state = StateScanning
	return s.deadline
}

func (s *Session) setRemaining(seconds int) {
	s.mu.Lock()
	s.remaining = seconds
	s.mu.Unlock()
}

func (s *Session) markMatched() {
	s.mu.Lock()
	s.matched = true
	s.mu.Unlock()
}

func (s *Session) finish(state State, outcome *Outcome) {
	s.mu.Lock()
	s.state = state
	s.outcome = outcome
	if state != StateMatched {
		s.matched = false
	}
	s.mu.Unlock()
	close(s.done)
}

// remainingSeconds rundet auf: zu Beginn steht das volle Fenster, an der Frist 0
func remainingSeconds(deadline, now time.Time) int {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
