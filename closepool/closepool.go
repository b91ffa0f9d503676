// SPDX-License-Identifier: GPL-3.0-or-later

// Package closepool tracks the [io.Closer] created while establishing
// a connection and closes them when the attempt fails.
package closepool

import (
	"errors"
	"io"
	"slices"
	"sync"
)

// Pool tracks a set of [io.Closer].
//
// The zero value is ready to use. The typical usage is:
//
//	var pool closepool.Pool
//	defer pool.Close()
//	// ... pool.Add each resource as it is created ...
//	pool.Release() // on success, the caller takes ownership
type Pool struct {
	// handles contains the [io.Closer] to close.
	handles []io.Closer

	// mu provides mutual exclusion.
	mu sync.Mutex
}

// Add adds a given [io.Closer] to the pool.
func (p *Pool) Add(handle io.Closer) {
	p.mu.Lock()
	p.handles = append(p.handles, handle)
	p.mu.Unlock()
}

// Len returns the number of [io.Closer] currently tracked.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handles)
}

// Release forgets all the tracked [io.Closer] without closing them.
func (p *Pool) Release() {
	p.mu.Lock()
	p.handles = nil
	p.mu.Unlock()
}

// Close closes all the tracked [io.Closer] iterating in backward
// order, so a TLS conn added after its TCP conn is closed first. The
// returned error is the join of all the errors that occurred. The pool
// is empty after Close, so calling Close again is a no-op.
func (p *Pool) Close() error {
	p.mu.Lock()
	handles := p.handles
	p.handles = nil
	p.mu.Unlock()

	var errv []error
	for _, handle := range slices.Backward(handles) {
		if err := handle.Close(); err != nil {
			errv = append(errv, err)
		}
	}
	return errors.Join(errv...)
}
