// Package queue übergibt neu geschriebene Anwesenheitsereignisse an den externen Sync-Dienst
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// MessageTypeAttendance kennzeichnet ein serialisiertes models.AttendanceEvent
const MessageTypeAttendance = "attendance"

// ErrFull liefert InMemory.Publish bei vollem Puffer
var ErrFull = errors.New("queue is full")

// Message ist eine Aufgabe für den Sync-Dienst
type Message struct {
	Type string
	Body []byte
}

// Queue abstrahiert die verschiedenen Backends
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
}

// InMemory ist eine begrenzte Queue auf Basis eines Channels. Publish wartet nie auf Platz
type InMemory struct {
	ch chan Message
}

// NewInMemory erstellt eine begrenzte Queue im Speicher
func NewInMemory(size int) *InMemory {
	if size <= 0 {
		size = 1
	}
	return &InMemory{ch: make(chan Message, size)}
}

// Publish reiht eine Nachricht ein oder scheitert mit ErrFull
func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrFull
	}
}

// Len liefert die Anzahl gepufferter Nachrichten
func (q *InMemory) Len() int {
	return len(q.ch)
}

// Consume liefert einen Channel für Worker
func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-q.ch:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue implementiert eine Queue auf Basis einer Redis-Liste
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue baut eine Queue mit LPUSH/BRPOP-Semantik
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "ponto:attendance"
	}
	return &RedisQueue{client: client, key: key}
}

// Publish reiht eine Nachricht ein
func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	if err := q.client.LPush(ctx, q.key, serialize(msg)).Err(); err != nil {
		return fmt.Errorf("redis lpush %s: %w", q.key, err)
	}
	return nil
}

// Consume liefert Nachrichten per BRPOP
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if len(res) == 2 {
				select {
				case out <- deserialize(res[1]):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// serialize speichert Nachrichten als Type|Body
func serialize(msg Message) string {
	return msg.Type + "|" + string(msg.Body)
}

func deserialize(s string) Message {
	typ, body, ok := strings.Cut(s, "|")
	if !ok {
		return Message{Body: []byte(s)}
	}
	return Message{Type: typ, Body: []byte(body)}
}

// NewAttendanceMessage serialisiert v als Anwesenheitsnachricht
func NewAttendanceMessage(v any) (Message, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode attendance message: %w", err)
	}
	return Message{Type: MessageTypeAttendance, Body: body}, nil
}
