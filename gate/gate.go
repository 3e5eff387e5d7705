// Package gate serializes access to the single execution surface.
package gate

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Gate admits one holder at a time. Waiters are admitted in arrival order,
// and a waiter whose context ends before admission is withdrawn from the queue.
// A Gate is not reentrant: acquiring it twice from the same run deadlocks.
type Gate struct {
	sem  *semaphore.Weighted
	held atomic.Bool
}

// New returns an open gate.
func New() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Acquire blocks until the gate is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	g.held.Store(true)
	return nil
}

// TryAcquire takes the gate only if it is free right now.
func (g *Gate) TryAcquire() bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	g.held.Store(true)
	return true
}

// Release frees the gate for the next waiter.
func (g *Gate) Release() {
	g.held.Store(false)
	g.sem.Release(1)
}

// Held reports whether someone currently holds the gate.
func (g *Gate) Held() bool {
	return g.held.Load()
}

// With runs fn while holding the gate. The gate is released even if fn panics.
func (g *Gate) With(ctx context.Context, fn func() error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release()

	return fn()
}
