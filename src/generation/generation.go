// Package generation tracks the current user interaction.
//
// Every new gesture advances the counter. Asynchronous work captures the value
// when it starts and compares it with Current before acting on a result; a
// mismatch means a newer interaction superseded it and the result is dropped.
// Events arrive on the OS hook thread, outside any context tree, so this
// counter stands in for context cancellation across that boundary.
package generation

import "sync/atomic"

// Controller is the process-wide interaction counter. The zero value is ready
// to use and starts at generation 0.
type Controller struct {
	n atomic.Uint64
}

// New returns a controller at generation 0.
func New() *Controller { return &Controller{} }

// Advance starts a new interaction and returns its generation.
func (c *Controller) Advance() uint64 {
	return c.n.Add(1)
}

// Current returns the live generation.
func (c *Controller) Current() uint64 {
	return c.n.Load()
}

// Stale reports whether work captured at gen has been superseded.
func (c *Controller) Stale(gen uint64) bool {
	return c.n.Load() != gen
}
