package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	log "github.com/sirupsen/logrus"

	"registro-ponto/internal/core/identity"
	"registro-ponto/internal/core/models"
	"registro-ponto/internal/i18n"
)

const (
	DefaultPollInterval  = 30 * time.Millisecond
	DefaultSessionWindow = 5 * time.Second
)

// Options steuert die Erfassungsschleife
type Options struct {
	PollInterval  time.Duration
	SessionWindow time.Duration
	// EventType wird in jedes geschriebene Ereignis eingetragen
	EventType models.EventType
}

// Dependencies sind die Mitspieler eines Controllers. Preview, Bridge, Recorder und Clock sind optional
type Dependencies struct {
	Source   FrameSource
	Locator  FaceLocator
	Encoder  Encoder
	Store    Store
	Preview  PreviewRenderer
	Bridge   Bridge
	Recorder Recorder
	Clock    func() time.Time
}

// Controller treibt Erfassungssitzungen an, immer nur eine zur Zeit; Station stellt das sicher
type Controller struct {
	source   FrameSource
	locator  FaceLocator
	encoder  Encoder
	store    Store
	preview  PreviewRenderer
	bridge   Bridge
	recorder Recorder
	now      func() time.Time
	opts     Options
}

// NewController prüft deps und setzt Standardwerte
func NewController(deps Dependencies, opts Options) (*Controller, error) {
	switch {
	case deps.Source == nil:
		return nil, errors.New("capture: frame source is required")
	case deps.Locator == nil:
		return nil, errors.New("capture: face locator is required")
	case deps.Encoder == nil:
		return nil, errors.New("capture: encoder is required")
	case deps.Store == nil:
		return nil, errors.New("capture: store is required")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.SessionWindow <= 0 {
		opts.SessionWindow = DefaultSessionWindow
	}
	if opts.EventType == "" {
		opts.EventType = models.EventEntrada
	}

	c := &Controller{
		source:   deps.Source,
		locator:  deps.Locator,
		encoder:  deps.Encoder,
		store:    deps.Store,
		preview:  deps.Preview,
		bridge:   deps.Bridge,
		recorder: deps.Recorder,
		now:      deps.Clock,
		opts:     opts,
	}
	if c.bridge == nil {
		c.bridge = NopBridge{}
	}
	if c.recorder == nil {
		c.recorder = nopRecorder{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// Options liefert die wirksamen Optionen
func (c *Controller) Options() Options {
	return c.opts
}

// Run führt s bis zu einem Endzustand aus und gibt ihn zurück. Gerät und Speicher werden auf
// jedem Weg freigegeben. Ein abgebrochener ctx wirkt wie eine Stopp-Anforderung
func (c *Controller) Run(ctx context.Context, s *Session, loc Localizer) State {
	if loc == nil {
		loc = idLocalizer{}
	}
	logger := log.WithField("session_id", s.ID)

	state, outcome := c.run(ctx, s, loc, logger)

	if outcome != nil {
		c.bridge.OnOutcome(*outcome)
	}
	c.recorder.SessionFinished(state)
	s.finish(state, outcome)
	logger.WithField("state", state).Info("Capture session finished")
	return state
}

func (c *Controller) run(ctx context.Context, s *Session, loc Localizer, logger *log.Entry) (State, *Outcome) {
	s.setState(StateStarting)
	c.bridge.OnStatus(loc.Localize(i18n.MsgCameraStarting, nil), SeverityInfo)

	if c.stopRequested(ctx, s) {
		return c.stopped(loc)
	}

	var (
		state   State
		outcome *Outcome
	)
	err := c.store.WithinSession(ctx, func(reg Registry, led Ledger) error {
		state, outcome = c.runWithStorage(ctx, s, loc, logger, reg, led)
		return nil
	})
	if err != nil {
		if c.stopRequested(ctx, s) {
			return c.stopped(loc)
		}
		logger.WithError(err).Error("Failed to acquire storage for capture session")
		msg := loc.Localize(i18n.MsgStorageUnavailable, map[string]any{"Error": err.Error()})
		c.bridge.OnStatus(msg, SeverityError)
		return StateStorageFailed, c.outcome(s, OutcomeStorageFailed, msg, nil)
	}
	return state, outcome
}

func (c *Controller) runWithStorage(ctx context.Context, s *Session, loc Localizer, logger *log.Entry, reg Registry, led Ledger) (State, *Outcome) {
	if err := c.source.Open(ctx); err != nil {
		if c.stopRequested(ctx, s) {
			return c.stopped(loc)
		}
		logger.WithError(err).Error("Failed to open capture device")
		return c.deviceFailed(s, loc)
	}
	defer func() {
		if err := c.source.Close(); err != nil {
			logger.WithError(err).Warn("Failed to release capture device")
		}
	}()

	if c.stopRequested(ctx, s) {
		return c.stopped(loc)
	}

	c.bridge.OnStatus(loc.Localize(i18n.MsgCameraStarted, nil), SeveritySuccess)
	deadline := s.begin(c.now(), c.opts.SessionWindow)
	logger.WithField("deadline", deadline).Info("Capture session scanning")

	timer := time.NewTimer(c.opts.PollInterval)
	defer timer.Stop()

	for {
		if c.stopRequested(ctx, s) {
			return c.stopped(loc)
		}
		c.recorder.TickProcessed()

		frame, err := c.source.Next()
		switch {
		case errors.Is(err, ErrNoFrame):
			logger.Debug("No frame available, skipping tick")
		case err != nil:
			logger.WithError(err).Error("Capture device failed during session")
			return c.deviceFailed(s, loc)
		default:
			faces := c.locator.Locate(frame.Gray)
			// Ein laufender Tick wird zu Ende gerechnet, der Stopp greift erst danach
			work := context.WithoutCancel(ctx)
			person, err := c.identify(work, reg, frame.Gray, faces, logger)
			if err != nil {
				if c.stopRequested(ctx, s) {
					return c.stopped(loc)
				}
				logger.WithError(err).Error("Registry lookup failed")
				msg := loc.Localize(i18n.MsgLookupFailed, map[string]any{"Error": err.Error()})
				c.bridge.OnStatus(msg, SeverityError)
				return StateStorageFailed, c.outcome(s, OutcomeStorageFailed, msg, nil)
			}
			if person != nil {
				return c.register(work, ctx, s, loc, logger, led, person)
			}
			c.publishPreview(frame, faces, logger)
		}

		// Stopp hat Vorrang vor der Fristprüfung
		if c.stopRequested(ctx, s) {
			return c.stopped(loc)
		}

		now := c.now()
		remaining := remainingSeconds(deadline, now)
		s.setRemaining(remaining)
		c.bridge.OnRemainingTime(remaining)

		if !now.Before(deadline) {
			msg := loc.Localize(i18n.MsgNotEnrolled, nil)
			c.bridge.OnStatus(msg, SeverityWarning)
			return StateTimedOut, c.outcome(s, OutcomeTimedOut, msg, nil)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(c.opts.PollInterval)
		select {
		case <-s.stop:
		case <-ctx.Done():
		case <-timer.C:
		}
	}
}

// identify prüft die Kandidatenregionen der Reihe nach und liefert die erste registrierte Person
func (c *Controller) identify(ctx context.Context, reg Registry, gray *image.Gray, faces []image.Rectangle, logger *log.Entry) (*models.Person, error) {
	for _, r := range faces {
		crop := identity.Crop(gray, r)
		if crop == nil {
			continue
		}
		enc, err := c.encoder.Encode(crop)
		if err != nil {
			logger.WithError(err).WithField("region", r).Debug("Skipping candidate that could not be encoded")
			continue
		}
		person, err := reg.Lookup(ctx, enc)
		if err != nil {
			return nil, fmt.Errorf("%w: lookup %s: %v", ErrStorage, enc, err)
		}
		c.recorder.LookupCompleted(person != nil)
		if person != nil {
			logger.WithFields(log.Fields{"badge_id": person.BadgeID, "encoding": enc.String()}).Info("Enrolled person recognized")
			return person, nil
		}
	}
	return nil, nil
}

// register schreibt das Ereignis unter work. Ein Stopp, der währenddessen eintrifft, beendet die
// Sitzung als StoppedByUser ohne Meldung; ein bereits geschriebenes Ereignis bleibt erhalten.
func (c *Controller) register(work, ctx context.Context, s *Session, loc Localizer, logger *log.Entry, led Ledger, person *models.Person) (State, *Outcome) {
	s.markMatched()
	evt := models.NewAttendanceEvent(*person, c.now(), c.opts.EventType)
	err := led.Append(work, evt)
	if c.stopRequested(ctx, s) {
		logger.WithError(err).WithField("badge_id", person.BadgeID).Info("Stop requested while registering attendance")
		return c.stopped(loc)
	}
	if err != nil {
		c.recorder.AppendFailed()
		logger.WithError(err).WithField("badge_id", person.BadgeID).Error("Failed to append attendance event")
		msg := loc.Localize(i18n.MsgRegisterFailed, map[string]any{"Error": err.Error()})
		c.bridge.OnStatus(msg, SeverityError)
		return StateStorageFailed, c.outcome(s, OutcomeStorageFailed, msg, person)
	}
	msg := loc.Localize(i18n.MsgAttendanceRegistered, map[string]any{"Name": person.Name, "BadgeID": person.BadgeID})
	c.bridge.OnStatus(msg, SeveritySuccess)
	return StateMatched, c.outcome(s, OutcomeMatched, msg, person)
}

func (c *Controller) publishPreview(frame *Frame, faces []image.Rectangle, logger *log.Entry) {
	if c.preview == nil {
		return
	}
	jpeg, err := c.preview.Render(frame, faces)
	if err != nil {
		logger.WithError(err).Debug("Failed to render preview frame")
		return
	}
	c.bridge.OnPreviewFrame(jpeg)
}

func (c *Controller) deviceFailed(s *Session, loc Localizer) (State, *Outcome) {
	msg := loc.Localize(i18n.MsgCameraUnavailable, nil)
	c.bridge.OnStatus(msg, SeverityError)
	return StateDeviceFailed, c.outcome(s, OutcomeDeviceFailed, msg, nil)
}

func (c *Controller) stopped(loc Localizer) (State, *Outcome) {
	c.bridge.OnStatus(loc.Localize(i18n.MsgCameraPaused, nil), SeverityInfo)
	return StateStoppedByUser, nil
}

func (c *Controller) stopRequested(ctx context.Context, s *Session) bool {
	return s.StopRequested() || ctx.Err() != nil
}

func (c *Controller) outcome(s *Session, kind OutcomeKind, msg string, person *models.Person) *Outcome {
	return &Outcome{
		SessionID: s.ID,
		Kind:      kind,
		Message:   msg,
		Person:    person,
		At:        c.now(),
	}
}
