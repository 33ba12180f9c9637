// Package store holds the shared issue and repository state. Every change
// goes through a typed action whose Reduce method computes the next state;
// subscribers are told about each new state.
package store

import "sync"

// Action transforms a state into the next state. Reduce must not modify
// slices or maps reachable from its input.
type Action[S any] interface {
	Reduce(S) S
}

// Store is a state container safe for concurrent use.
type Store[S any] struct {
	mu     sync.Mutex
	state  S
	nextID int
	subs   map[int]func(S)
}

// New creates a store holding initial.
func New[S any](initial S) *Store[S] {
	return &Store[S]{
		state: initial,
		subs:  make(map[int]func(S)),
	}
}

// State returns the current state.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a to the current state, notifies subscribers and returns
// the new state.
func (s *Store[S]) Dispatch(a Action[S]) S {
	s.mu.Lock()
	s.state = a.Reduce(s.state)
	next := s.state
	subs := make([]func(S), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Subscribe registers fn to be called with every new state. The returned
// function removes the subscription.
func (s *Store[S]) Subscribe(fn func(S)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
