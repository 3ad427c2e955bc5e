//go:build !deadlock

// Package syncutil provides the lock used between a ring producer and its
// consumer. Build with -tags=deadlock to swap in github.com/sasha-s/go-deadlock.
package syncutil

import "sync"

// Mutex wraps sync.Mutex. Build with -tags=deadlock for deadlock detection.
//
//nolint:gocritic // Intentionally embedding sync.Mutex to expose its interface
type Mutex struct {
	sync.Mutex
}

// With runs fn while holding the lock.
func (m *Mutex) With(fn func()) {
	m.Lock()
	defer m.Unlock()
	fn()
}
