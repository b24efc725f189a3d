package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"registro-ponto/internal/core/identity"
	"registro-ponto/internal/core/models"
)

var faceRect = image.Rect(40, 40, 140, 140)

func testFrame(seed uint8) *Frame {
	gray := image.NewGray(image.Rect(0, 0, 200, 180))
	for y := 0; y < 180; y++ {
		for x := 0; x < 200; x++ {
			gray.SetGray(x, y, color.Gray{Y: uint8(x+2*y) + seed})
		}
	}
	return &Frame{Gray: gray, Color: gray}
}

func testEncoder(t *testing.T) *identity.XDrawEncoder {
	t.Helper()
	enc, err := identity.NewXDrawEncoder(identity.DefaultNormalization)
	require.NoError(t, err)
	return enc
}

func encodingOf(t *testing.T, frame *Frame, r image.Rectangle) models.Encoding {
	t.Helper()
	enc, err := testEncoder(t).Encode(identity.Crop(frame.Gray, r))
	require.NoError(t, err)
	return enc
}

// fakeSource spielt frames ab und wiederholt das letzte. errs kommen vor den frames
type fakeSource struct {
	mu      sync.Mutex
	openErr error
	errs    []error
	frames  []*Frame
	failAt  int
	nexts   int
	opens   int
	closes  int
	onOpen  func()
}

func (f *fakeSource) Open(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if f.onOpen != nil {
		f.onOpen()
	}
	if f.openErr != nil {
		return f.openErr
	}
	return nil
}

func (f *fakeSource) Next() (*Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nexts++
	if f.failAt > 0 && f.nexts >= f.failAt {
		return nil, errors.New("device unplugged")
	}
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	if len(f.frames) == 0 {
		return nil, ErrNoFrame
	}
	frame := f.frames[0]
	if len(f.frames) > 1 {
		f.frames = f.frames[1:]
	}
	return frame, nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeSource) counts() (opens, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens, f.closes
}

type fixedLocator []image.Rectangle

func (l fixedLocator) Locate(*image.Gray) []image.Rectangle { return l }

// hookLocator ruft hook mitten im Tick auf
type hookLocator struct {
	faces []image.Rectangle
	hook  func()
}

func (l hookLocator) Locate(*image.Gray) []image.Rectangle {
	l.hook()
	return l.faces
}

// memStore ist ein Store im Speicher, der die Belegung mitzählt
type memStore struct {
	mu        sync.Mutex
	persons   map[models.Encoding]models.Person
	events    []models.AttendanceEvent
	lookups   []models.Encoding
	scopeErr  error
	lookupErr error
	appendErr error
	acquired  int
	released  int
}

func newMemStore(persons map[models.Encoding]models.Person) *memStore {
	if persons == nil {
		persons = map[models.Encoding]models.Person{}
	}
	return &memStore{persons: persons}
}

func (m *memStore) WithinSession(ctx context.Context, fn func(Registry, Ledger) error) error {
	if m.scopeErr != nil {
		return m.scopeErr
	}
	m.mu.Lock()
	m.acquired++
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.released++
		m.mu.Unlock()
	}()
	return fn(m, m)
}

func (m *memStore) Lookup(_ context.Context, enc models.Encoding) (*models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups = append(m.lookups, enc)
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	p, ok := m.persons[enc]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) Append(_ context.Context, evt *models.AttendanceEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.events = append(m.events, *evt)
	return nil
}

func (m *memStore) Events() []models.AttendanceEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AttendanceEvent(nil), m.events...)
}

type statusMsg struct {
	Text     string
	Severity Severity
}

type recordingBridge struct {
	mu        sync.Mutex
	previews  int
	statuses  []statusMsg
	remaining []int
	outcomes  []Outcome
	onRemain  func(int)
}

func (b *recordingBridge) OnPreviewFrame([]byte) {
	b.mu.Lock()
	b.previews++
	b.mu.Unlock()
}

func (b *recordingBridge) OnStatus(text string, severity Severity) {
	b.mu.Lock()
	b.statuses = append(b.statuses, statusMsg{text, severity})
	b.mu.Unlock()
}

func (b *recordingBridge) OnRemainingTime(seconds int) {
	b.mu.Lock()
	b.remaining = append(b.remaining, seconds)
	cb := b.onRemain
	b.mu.Unlock()
	if cb != nil {
		cb(seconds)
	}
}

func (b *recordingBridge) OnOutcome(o Outcome) {
	b.mu.Lock()
	b.outcomes = append(b.outcomes, o)
	b.mu.Unlock()
}

func (b *recordingBridge) Outcomes() []Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Outcome(nil), b.outcomes...)
}

func (b *recordingBridge) Statuses() []statusMsg {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]statusMsg(nil), b.statuses...)
}

func (b *recordingBridge) Remaining() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.remaining...)
}

type fakePreview struct{}

func (fakePreview) Render(*Frame, []image.Rectangle) ([]byte, error) {
	return []byte{0xff, 0xd8, 0xff, 0xd9}, nil
}
