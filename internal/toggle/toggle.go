// Package toggle serializes on/off relation changes (favorite, visited,
// like, saved) per user and entity.
//
// Each key moves Idle -> Pending -> Committed | RolledBack. Requests for the
// same key run one at a time in arrival order, so the last requested value is
// the one left in storage.
package toggle

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type State int

const (
	Idle State = iota
	Pending
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Kind string

const (
	Favorite Kind = "favorite"
	Visited  Kind = "visited"
	Like     Kind = "like"
	Saved    Kind = "saved"
)

type Key struct {
	UserID   uuid.UUID
	Kind     Kind
	EntityID int64
}

// CommitFunc persists the desired value.
type CommitFunc func(ctx context.Context, desired bool) error

// Outcome is what the caller should show. On Committed, Value is the stored
// value. On RolledBack, Value is the last committed value, or nil when no
// request for the key has committed while it was tracked, and Err holds the
// commit error.
type Outcome struct {
	State State `json:"state"`
	Value *bool `json:"value,omitempty"`
	Err   error `json:"-"`
}

// Observer is told about every terminal outcome.
type Observer func(kind Kind, state State)

type entry struct {
	tail    chan struct{}
	waiters int
	state   State
	value   bool
	known   bool
}

type Machine struct {
	mu       sync.Mutex
	entries  map[Key]*entry
	observer Observer
}

func New(observer Observer) *Machine {
	return &Machine{
		entries:  make(map[Key]*entry),
		observer: observer,
	}
}

// State reports the current state of key. Keys with nothing in flight are Idle.
func (m *Machine) State(key Key) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		return e.state
	}
	return Idle
}

func (m *Machine) enqueue(key Key) (e *entry, prev <-chan struct{}, done chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}
	prev = e.tail
	done = make(chan struct{})
	e.tail = done
	e.waiters++
	return e, prev, done
}

func (m *Machine) release(key Key, e *entry, done chan struct{}) {
	m.mu.Lock()
	e.waiters--
	if e.waiters == 0 {
		delete(m.entries, key)
	}
	m.mu.Unlock()
	close(done)
}

// Set applies desired to key through commit. It waits for earlier requests
// on the same key first; if ctx ends while waiting the request is dropped and
// ctx.Err() is returned.
func (m *Machine) Set(ctx context.Context, key Key, desired bool, commit CommitFunc) (Outcome, error) {
	e, prev, done := m.enqueue(key)

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			// keep the chain intact for whoever queued behind us
			go func() {
				<-prev
				m.release(key, e, done)
			}()
			return Outcome{State: Idle}, ctx.Err()
		}
	}
	defer m.release(key, e, done)

	m.mu.Lock()
	var previous *bool
	if e.known {
		v := e.value
		previous = &v
	}
	e.state = Pending
	m.mu.Unlock()

	err := commit(ctx, desired)

	m.mu.Lock()
	out := Outcome{State: Committed, Value: &desired}
	if err != nil {
		out = Outcome{State: RolledBack, Value: previous, Err: err}
	} else {
		e.value, e.known = desired, true
	}
	e.state = out.State
	m.mu.Unlock()

	if m.observer != nil {
		m.observer(key.Kind, out.State)
	}
	return out, nil
}
