// Package activity keeps a bounded, per-user feed of recent vault changes.
package activity

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of change an Event records.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
	ActionLinked  Action = "linked"
)

const (
	// DefaultSize is the number of events kept when no size is configured.
	DefaultSize = 200
	// DefaultDedupWindow suppresses watcher echoes of service writes.
	DefaultDedupWindow = 2 * time.Second
)

// Event is a single vault change.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Action    Action    `json:"action"`
	Path      string    `json:"path"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	observed bool
}

// Log is a fixed-size ring of events. It is safe for concurrent use.
type Log struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
	window time.Duration
	now    func() time.Time
}

// NewLog creates a Log holding at most size events.
func NewLog(size int) *Log {
	if size <= 0 {
		size = DefaultSize
	}
	return &Log{
		events: make([]Event, size),
		window: DefaultDedupWindow,
		now:    time.Now,
	}
}

// Record appends an event and returns it with its id and timestamp filled.
// A watcher event for the same note inside the dedup window is taken over
// instead, so a write reaches the feed once whichever side records first.
func (l *Log) Record(userID string, action Action, path, reason string) Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.recent(userID, path); i >= 0 && l.events[i].observed {
		e := &l.events[i]
		e.Action = action
		e.Reason = reason
		e.observed = false
		return *e
	}
	return l.append(userID, action, path, reason)
}

// Observe records an externally detected change unless an event for the same
// note was recorded within the dedup window. It reports whether it recorded.
func (l *Log) Observe(userID string, action Action, path, reason string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.recent(userID, path) >= 0 {
		return false
	}
	l.append(userID, action, path, reason)
	l.events[l.slot(1)].observed = true
	return true
}

// Recent returns up to limit of the user's events, newest first.
func (l *Log) Recent(userID string, limit int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []Event{}
	for _, e := range l.ordered() {
		if limit > 0 && len(out) >= limit {
			break
		}
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

func (l *Log) append(userID string, action Action, path, reason string) Event {
	e := Event{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		Path:      path,
		Reason:    reason,
		Timestamp: l.now().UTC(),
	}
	l.events[l.next] = e
	l.next = (l.next + 1) % len(l.events)
	if l.next == 0 {
		l.full = true
	}
	return e
}

// ordered returns the stored events newest first. Caller holds mu.
func (l *Log) ordered() []Event {
	out := make([]Event, 0, l.count())
	for i := 1; i <= l.count(); i++ {
		out = append(out, l.events[l.slot(i)])
	}
	return out
}

// recent returns the ring index of the newest event for the note within the
// dedup window, or -1. Caller holds mu.
func (l *Log) recent(userID, path string) int {
	cutoff := l.now().Add(-l.window)
	for i := 1; i <= l.count(); i++ {
		idx := l.slot(i)
		e := l.events[idx]
		if e.Timestamp.Before(cutoff) {
			break
		}
		if e.UserID == userID && e.Path == path {
			return idx
		}
	}
	return -1
}

func (l *Log) count() int {
	if l.full {
		return len(l.events)
	}
	return l.next
}

// slot maps the i-th newest event (1-based) to its ring index.
func (l *Log) slot(i int) int {
	return (l.next - i + len(l.events)) % len(l.events)
}
