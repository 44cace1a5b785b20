// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"sync"
	"time"
)

// AttemptStore keeps failed-login counters per account.
type AttemptStore interface {
	// RecordFailure counts a failure for key and returns the number of
	// failures in the current window. The window starts at the first failure.
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	// Failures returns the failure count of the current window.
	Failures(ctx context.Context, key string) (int, error)
	// Lock locks key for d, clears its failure count and returns how many
	// times key has been locked including this one.
	Lock(ctx context.Context, key string, d time.Duration) (int, error)
	// LockedFor returns the remaining lock time, or 0 if key is not locked.
	LockedFor(ctx context.Context, key string) (time.Duration, error)
	// Lockouts returns how many times key has been locked.
	Lockouts(ctx context.Context, key string) (int, error)
	// Reset forgets everything about key.
	Reset(ctx context.Context, key string) error
}

// loginAttempt tracks failed login attempts for an account.
type loginAttempt struct {
	count       int
	firstFailed time.Time
	window      time.Duration
	lockedUntil time.Time
	lockouts    int
}

// MemoryAttemptStore is an in-process AttemptStore.
type MemoryAttemptStore struct {
	mu       sync.Mutex
	attempts map[string]*loginAttempt
	now      func() time.Time
}

// NewMemoryAttemptStore creates an empty in-process store.
func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{
		attempts: make(map[string]*loginAttempt),
		now:      time.Now,
	}
}

// RecordFailure implements AttemptStore.
func (s *MemoryAttemptStore) RecordFailure(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	a, ok := s.attempts[key]
	if !ok {
		a = &loginAttempt{}
		s.attempts[key] = a
	}

	// Start a new window if the previous one has passed.
	if a.count == 0 || now.Sub(a.firstFailed) > window {
		a.count = 0
		a.firstFailed = now
		a.window = window
	}
	a.count++
	return a.count, nil
}

// Failures implements AttemptStore.
func (s *MemoryAttemptStore) Failures(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[key]
	if !ok || s.now().Sub(a.firstFailed) > a.window {
		return 0, nil
	}
	return a.count, nil
}

// Lock implements AttemptStore.
func (s *MemoryAttemptStore) Lock(_ context.Context, key string, d time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[key]
	if !ok {
		a = &loginAttempt{}
		s.attempts[key] = a
	}
	a.lockedUntil = s.now().Add(d)
	a.lockouts++
	a.count = 0
	return a.lockouts, nil
}

// LockedFor implements AttemptStore.
func (s *MemoryAttemptStore) LockedFor(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[key]
	if !ok {
		return 0, nil
	}
	if remaining := a.lockedUntil.Sub(s.now()); remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

// Lockouts implements AttemptStore.
func (s *MemoryAttemptStore) Lockouts(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.attempts[key]; ok {
		return a.lockouts, nil
	}
	return 0, nil
}

// Reset implements AttemptStore.
func (s *MemoryAttemptStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.attempts, key)
	return nil
}

// Cleanup removes entries whose lock and window have both expired.
func (s *MemoryAttemptStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, a := range s.attempts {
		if now.After(a.lockedUntil) && now.Sub(a.firstFailed) > a.window {
			delete(s.attempts, key)
		}
	}
}
