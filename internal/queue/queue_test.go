package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registro-ponto/internal/core/capture"
	"registro-ponto/internal/core/models"
)

func TestInMemoryPublishConsume(t *testing.T) {
	q := NewInMemory(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.Publish(ctx, Message{Type: "a", Body: []byte("1")}))
	require.NoError(t, q.Publish(ctx, Message{Type: "b", Body: []byte("2")}))
	assert.ErrorIs(t, q.Publish(ctx, Message{Type: "c"}), ErrFull)
	assert.Equal(t, 2, q.Len())

	out, err := q.Consume(ctx)
	require.NoError(t, err)
	for _, want := range []string{"a", "b"} {
		select {
		case msg := <-out:
			assert.Equal(t, want, msg.Type)
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	}

	cancel()
	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestInMemoryPublishCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewInMemory(1).Publish(ctx, Message{}), context.Canceled)
}

func TestSerialize(t *testing.T) {
	msg := Message{Type: MessageTypeAttendance, Body: []byte(`{"name":"Ana|Maria"}`)}
	assert.Equal(t, msg, deserialize(serialize(msg)))
	assert.Equal(t, Message{Body: []byte("plain")}, deserialize("plain"))
}

type stubStore struct {
	appendErr error
	appended  []*models.AttendanceEvent
}

func (s *stubStore) WithinSession(ctx context.Context, fn func(capture.Registry, capture.Ledger) error) error {
	return fn(nil, s)
}

func (s *stubStore) Append(_ context.Context, evt *models.AttendanceEvent) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	evt.ID = uint(len(s.appended) + 1)
	s.appended = append(s.appended, evt)
	return nil
}

type failingQueue struct{ Queue }

func (failingQueue) Publish(context.Context, Message) error { return errors.New("broker down") }

func appendVia(t *testing.T, store capture.Store, evt *models.AttendanceEvent) error {
	t.Helper()
	var appendErr error
	err := store.WithinSession(context.Background(), func(_ capture.Registry, led capture.Ledger) error {
		appendErr = led.Append(context.Background(), evt)
		return nil
	})
	require.NoError(t, err)
	return appendErr
}

func TestPublishingStore(t *testing.T) {
	evt := models.NewAttendanceEvent(models.Person{Name: "Ana", BadgeID: "123"},
		time.Date(2024, 3, 7, 8, 5, 9, 0, time.UTC), models.EventEntrada)

	t.Run("publishes appended events", func(t *testing.T) {
		inner := &stubStore{}
		q := NewInMemory(4)
		require.NoError(t, appendVia(t, NewPublishingStore(inner, q), evt))
		require.Len(t, inner.appended, 1)
		require.Equal(t, 1, q.Len())

		msg := <-q.ch
		assert.Equal(t, MessageTypeAttendance, msg.Type)
		var got models.AttendanceEvent
		require.NoError(t, json.Unmarshal(msg.Body, &got))
		assert.Equal(t, "123", got.BadgeID)
		assert.Equal(t, "2024-03-07 08:05:09", got.Timestamp)
		assert.Equal(t, models.SyncPending, got.SyncState)
	})

	t.Run("append failure is not published", func(t *testing.T) {
		inner := &stubStore{appendErr: capture.ErrStorage}
		q := NewInMemory(4)
		err := appendVia(t, NewPublishingStore(inner, q), evt)
		assert.ErrorIs(t, err, capture.ErrStorage)
		assert.Zero(t, q.Len())
	})

	t.Run("publish failure does not fail the append", func(t *testing.T) {
		inner := &stubStore{}
		require.NoError(t, appendVia(t, NewPublishingStore(inner, failingQueue{}), evt))
		assert.Len(t, inner.appended, 1)
	})
}
