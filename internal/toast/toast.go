// Package toast is a small in-process notification queue. Stores push
// user-facing messages here and the frontend (CLI or UI shell) drains or
// subscribes to them.
package toast

import (
	"sync"
	"time"
)

// Severities a toast can carry.
const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Toast is one queued notification.
type Toast struct {
	ID       int64
	Message  string
	Severity string
	Duration time.Duration
}

// Queue holds active toasts in arrival order. IDs are monotonic for the
// lifetime of the queue, so a late expiry timer can never remove a newer
// toast that reused its slot.
type Queue struct {
	mu     sync.Mutex
	nextID int64
	toasts []Toast
	subs   map[int]func([]Toast)
	subSeq int
	timers map[int64]*time.Timer
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		subs:   make(map[int]func([]Toast)),
		timers: make(map[int64]*time.Timer),
	}
}

// Add queues a toast and returns its id. A positive duration schedules
// automatic removal; zero or negative means the toast stays until removed
// explicitly.
func (q *Queue) Add(message, severity string, duration time.Duration) int64 {
	q.mu.Lock()
	q.nextID++
	id := q.nextID
	q.toasts = append(q.toasts, Toast{
		ID:       id,
		Message:  message,
		Severity: severity,
		Duration: duration,
	})
	if duration > 0 {
		q.timers[id] = time.AfterFunc(duration, func() { q.Remove(id) })
	}
	snapshot := q.snapshot()
	subs := q.snapshotSubs()
	q.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
	return id
}

// Info, Success, Warning, and Error queue a toast with the conventional
// five second auto-dismiss.
func (q *Queue) Info(message string) int64    { return q.Add(message, SeverityInfo, 5*time.Second) }
func (q *Queue) Success(message string) int64 { return q.Add(message, SeveritySuccess, 5*time.Second) }
func (q *Queue) Warning(message string) int64 { return q.Add(message, SeverityWarning, 5*time.Second) }
func (q *Queue) Error(message string) int64   { return q.Add(message, SeverityError, 5*time.Second) }

// Remove drops a toast by id. Removing an id that is absent (already
// expired or never existed) is a no-op.
func (q *Queue) Remove(id int64) {
	q.mu.Lock()
	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}
	found := false
	for i, toast := range q.toasts {
		if toast.ID == id {
			q.toasts = append(q.toasts[:i], q.toasts[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		q.mu.Unlock()
		return
	}
	snapshot := q.snapshot()
	subs := q.snapshotSubs()
	q.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Clear drops every toast and cancels their timers.
func (q *Queue) Clear() {
	q.mu.Lock()
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.toasts = nil
	subs := q.snapshotSubs()
	q.mu.Unlock()

	for _, fn := range subs {
		fn(nil)
	}
}

// List returns the active toasts in arrival order.
func (q *Queue) List() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshot()
}

// Subscribe registers fn to run after every queue change and returns a
// cancel function.
func (q *Queue) Subscribe(fn func([]Toast)) func() {
	q.mu.Lock()
	q.subSeq++
	key := q.subSeq
	q.subs[key] = fn
	q.mu.Unlock()

	return func() {
		q.mu.Lock()
		delete(q.subs, key)
		q.mu.Unlock()
	}
}

func (q *Queue) snapshot() []Toast {
	out := make([]Toast, len(q.toasts))
	copy(out, q.toasts)
	return out
}

// snapshotSubs returns subscribers in registration order. Caller must hold mu.
func (q *Queue) snapshotSubs() []func([]Toast) {
	if len(q.subs) == 0 {
		return nil
	}
	out := make([]func([]Toast), 0, len(q.subs))
	for key := 1; key <= q.subSeq; key++ {
		if fn, ok := q.subs[key]; ok {
			out = append(out, fn)
		}
	}
	return out
}
