// Package sample is a fixture analyzed by the goadapter tests, not by the
// main module itself.
package sample

import "sync"

// Box guards n with mu.
type Box struct {
	mu sync.Mutex
	n  int
}

// CleanIncrement takes mu, mutates n, and gives it back on every path.
func (b *Box) CleanIncrement() {
	b.mu.Lock()
	b.n++
	b.mu.Unlock()
}

// LeakyIncrement takes mu and never gives it back.
func (b *Box) LeakyIncrement() {
	b.mu.Lock()
	b.n++
}

// TryIncrement only proceeds when mu is free.
func (b *Box) TryIncrement() bool {
	if !b.mu.TryLock() {
		return false
	}
	b.n++
	b.mu.Unlock()
	return true
}

// CallLeaky holds mu across a call into a function that blockingly takes
// the same lock — a self-deadlock.
func (b *Box) CallLeaky() {
	b.mu.Lock()
	b.LeakyIncrement()
	b.mu.Unlock()
}
