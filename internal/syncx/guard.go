// Package syncx provides extended synchronization primitives
package syncx

import (
	"sync"
	"sync/atomic"
)

// RWGuard wraps RWMutex around a value with scoped lock helpers.
type RWGuard[T any] struct {
	mu    sync.RWMutex
	value T
}

// NewGuard creates a guarded value.
func NewGuard[T any](initial T) *RWGuard[T] {
	return &RWGuard[T]{value: initial}
}

// Get returns a copy of the value (T should be value type or immutable).
func (g *RWGuard[T]) Get() T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// Transition runs fn under the write lock. fn may mutate the value and its
// error is returned unchanged; concurrent transitions are serialised.
func (g *RWGuard[T]) Transition(fn func(*T) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(&g.value)
}

// Gate is a lock-free open/shut flag, safe to poll from a real-time callback.
type Gate struct {
	open atomic.Bool
}

// Open lets traffic through.
func (g *Gate) Open() { g.open.Store(true) }

// Shut blocks traffic.
func (g *Gate) Shut() { g.open.Store(false) }

// IsOpen reports whether the gate is open.
func (g *Gate) IsOpen() bool { return g.open.Load() }

// Wrap returns fn guarded by the gate: calls made while the gate is shut are dropped.
func Wrap[A any](g *Gate, fn func(A)) func(A) {
	return func(a A) {
		if g.open.Load() {
			fn(a)
		}
	}
}
