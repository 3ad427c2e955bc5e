//go:build deadlock

// Package syncutil provides the lock used between a ring producer and its
// consumer. This file is compiled when building with -tags=deadlock.
package syncutil

import deadlock "github.com/sasha-s/go-deadlock"

// Mutex wraps deadlock.Mutex for deadlock detection.
type Mutex struct {
	deadlock.Mutex
}

// With runs fn while holding the lock.
func (m *Mutex) With(fn func()) {
	m.Lock()
	defer m.Unlock()
	fn()
}
