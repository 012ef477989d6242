// Package guard serializes access to the physical scanner. Only one scan
// operation may run at a time; concurrent callers are rejected, not queued.
package guard

import "sync"

// Guard is a single-flight flag. The zero value is ready to use, but
// callers should construct their own instance rather than sharing a
// package-level one so tests stay independent.
type Guard struct {
	mu   sync.Mutex
	held bool
}

func New() *Guard {
	return &Guard{}
}

// TryAcquire claims the scanner if it is free. It never blocks; a false
// return means another scan is already in progress.
func (g *Guard) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held {
		return false
	}
	g.held = true
	return true
}

// Release frees the scanner unconditionally. Callers must defer it
// immediately after a successful TryAcquire so a failure anywhere in the
// request body cannot leave the scanner permanently busy.
func (g *Guard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.held = false
}
