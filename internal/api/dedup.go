package api

import (
	"context"
	"fmt"
	"sync"
)

// Deduplicator allows at most one in-flight call per operation key.
//
// A second caller with a key that is already registered is rejected with a
// cancelled error instead of waiting for or sharing the first call's result.
// Keys are released when the call settles, whatever the outcome.
type Deduplicator struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewDeduplicator returns an empty registry.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{inflight: make(map[string]struct{})}
}

func (d *Deduplicator) acquire(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inflight == nil {
		d.inflight = make(map[string]struct{})
	}
	if _, busy := d.inflight[key]; busy {
		return false
	}
	d.inflight[key] = struct{}{}
	return true
}

func (d *Deduplicator) release(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inflight, key)
}

// InFlight reports whether a call with key is currently running.
func (d *Deduplicator) InFlight(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, busy := d.inflight[key]
	return busy
}

// Len returns the number of running calls.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}

// Guard runs fn under key. what describes the operation for the collision
// error, e.g. "fetch payments".
func Guard[T any](ctx context.Context, d *Deduplicator, key, what string, fn func(context.Context) (T, error)) (T, error) {
	if d == nil {
		return fn(ctx)
	}
	if !d.acquire(key) {
		var zero T
		return zero, newError(CategoryCancelled, fmt.Sprintf("Another %s request is already in progress", what))
	}
	defer d.release(key)
	return fn(ctx)
}

// operationKey builds a per-resource key, e.g. "updatePayment:p1".
func operationKey(name, id string) string {
	if id == "" {
		return name
	}
	return name + ":" + id
}
