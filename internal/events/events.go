// Package events is a small typed publish/subscribe bus used to tell other
// parts of the server that something changed.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler receives published values. Handlers run synchronously on the
// publisher's goroutine and must not block.
type Handler[T any] func(T)

type subscription[T any] struct {
	id int
	fn Handler[T]
}

type Topic[T any] struct {
	name   string
	mu     sync.RWMutex
	nextID int
	subs   []subscription[T]
}

func NewTopic[T any](name string) *Topic[T] {
	return &Topic[T]{name: name}
}

func (t *Topic[T]) Name() string { return t.name }

// Subscribe registers fn and returns a function that removes it.
func (t *Topic[T]) Subscribe(fn Handler[T]) (unsubscribe func()) {
	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.subs = append(t.subs, subscription[T]{id: id, fn: fn})
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			for i, s := range t.subs {
				if s.id == id {
					t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers v to every current subscriber in subscription order.
func (t *Topic[T]) Publish(v T) {
	t.mu.RLock()
	subs := make([]subscription[T], len(t.subs))
	copy(subs, t.subs)
	t.mu.RUnlock()

	for _, s := range subs {
		s.fn(v)
	}
}

type SpotChange string

const (
	SpotCreated  SpotChange = "created"
	SpotVerified SpotChange = "verified"
	SpotUpdated  SpotChange = "updated"
	SpotDeleted  SpotChange = "deleted"
	SpotReviewed SpotChange = "reviewed"
)

type SpotChanged struct {
	SpotID int64      `json:"spot_id"`
	Change SpotChange `json:"change"`
	At     time.Time  `json:"at"`
}

type PostCreated struct {
	PostID   int64     `json:"post_id"`
	AuthorID uuid.UUID `json:"author_id"`
	At       time.Time `json:"at"`
}

type ProfileUpdated struct {
	UserID uuid.UUID `json:"user_id"`
	At     time.Time `json:"at"`
}

// NotificationPublished has a nil UserID for broadcasts.
type NotificationPublished struct {
	NotificationID int64      `json:"notification_id"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	At             time.Time  `json:"at"`
}

type Bus struct {
	SpotChanged           *Topic[SpotChanged]
	PostCreated           *Topic[PostCreated]
	ProfileUpdated        *Topic[ProfileUpdated]
	NotificationPublished *Topic[NotificationPublished]
}

func NewBus() *Bus {
	return &Bus{
		SpotChanged:           NewTopic[SpotChanged]("spot_changed"),
		PostCreated:           NewTopic[PostCreated]("post_created"),
		ProfileUpdated:        NewTopic[ProfileUpdated]("profile_updated"),
		NotificationPublished: NewTopic[NotificationPublished]("notification_published"),
	}
}
