// Package store provides a small observable state container used by the
// SDK's session, CV, assistant, and subscription stores. Each container is
// owned by the client instance that created it; nothing here is a process
// singleton.
package store

import "sync"

// Store holds a single value of type T and notifies subscribers on change.
// All methods are safe for concurrent use. Subscribers are invoked
// synchronously, in registration order, while no lock is held.
type Store[T any] struct {
	mu      sync.RWMutex
	value   T
	subs    map[int]func(T)
	nextSub int
}

// New creates a Store seeded with the given initial value.
func New[T any](initial T) *Store[T] {
	return &Store[T]{
		value: initial,
		subs:  make(map[int]func(T)),
	}
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the current value and notifies subscribers.
func (s *Store[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Update applies fn to the current value and stores the result, notifying
// subscribers with the new value. The whole read-modify-write is atomic with
// respect to other Set/Update calls.
func (s *Store[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	s.value = fn(s.value)
	v := s.value
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, sub := range subs {
		sub(v)
	}
	return v
}

// Subscribe registers fn to be called on every subsequent change. It returns
// a cancel function that removes the subscription; calling cancel more than
// once is harmless.
func (s *Store[T]) Subscribe(fn func(T)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// snapshotSubs returns subscribers in registration order. Caller must hold mu.
func (s *Store[T]) snapshotSubs() []func(T) {
	if len(s.subs) == 0 {
		return nil
	}
	out := make([]func(T), 0, len(s.subs))
	for id := 0; id < s.nextSub; id++ {
		if fn, ok := s.subs[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}
