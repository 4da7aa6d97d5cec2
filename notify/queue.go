// Package notify holds short-lived user-facing messages (toasts).
//
// Every toast removes itself after Lifetime unless it is dismissed first.
package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Lifetime is how long a toast stays in the queue when nobody dismisses it.
const Lifetime = 3000 * time.Millisecond

// Kind is the visual category of a toast.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

// Toast is a single queued notification.
type Toast struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Timer is the part of *time.Timer the queue needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it through a small adapter.
type AfterFunc func(d time.Duration, f func()) Timer

// Pusher is what other components use to raise a toast.
type Pusher interface {
	Push(message string, kind Kind) string
}

// Queue is safe for concurrent use.
type Queue struct {
	mu        sync.Mutex
	toasts    []Toast
	timers    map[string]Timer
	observers []func([]Toast)

	lifetime  time.Duration
	afterFunc AfterFunc
	newID     func() string
	now       func() time.Time
}

// Option configures a Queue.
type Option func(*Queue)

// WithAfterFunc replaces the timer factory, mostly for tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(q *Queue) { q.afterFunc = fn }
}

// WithIDFunc replaces the id generator.
func WithIDFunc(fn func() string) Option {
	return func(q *Queue) { q.newID = fn }
}

// WithClock replaces the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		timers:   make(map[string]Timer),
		lifetime: Lifetime,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push appends a toast and schedules its expiry. It returns the toast id.
func (q *Queue) Push(message string, kind Kind) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := q.newID()
	q.toasts = append(q.toasts, Toast{
		ID:        id,
		Message:   message,
		Kind:      kind,
		CreatedAt: q.now(),
	})
	q.timers[id] = q.afterFunc(q.lifetime, func() { q.expire(id) })
	q.publishLocked()
	return id
}

// Dismiss removes the toast right away. Unknown or already expired ids are ignored.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t, ok := q.timers[id]; ok {
		t.Stop()
	}
	q.removeLocked(id)
}

// List returns the live toasts in insertion order.
func (q *Queue) List() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.toasts)
}

// Subscribe registers fn to receive the toast list after every change.
// fn runs with the queue locked and must not call back into the queue.
func (q *Queue) Subscribe(fn func([]Toast)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.observers = append(q.observers, fn)
}

// Close stops every pending expiry timer and empties the queue.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.toasts = nil
}

func (q *Queue) expire(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeLocked(id)
}

func (q *Queue) removeLocked(id string) {
	delete(q.timers, id)
	i := slices.IndexFunc(q.toasts, func(t Toast) bool { return t.ID == id })
	if i < 0 {
		return
	}
	q.toasts = slices.Delete(q.toasts, i, i+1)
	q.publishLocked()
}

func (q *Queue) publishLocked() {
	if len(q.observers) == 0 {
		return
	}
	snapshot := slices.Clone(q.toasts)
	for _, fn := range q.observers {
		fn(snapshot)
	}
}
