// Package uithread runs functions on one OS-locked goroutine.
//
// Clipboard and window APIs on the supported platforms are thread-affine, and
// the pointer hook delivers events on a foreign thread. Everything that touches
// OS UI state is marshalled here so it executes on a single thread in order.
package uithread

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
)

// ErrStopped is returned when work is posted after the loop has exited.
var ErrStopped = errors.New("ui thread stopped")

// Dispatcher is the subset of Loop consumed by other packages.
type Dispatcher interface {
	Do(ctx context.Context, fn func()) error
}

type task struct {
	fn   func()
	done chan error
}

// Loop owns the UI thread.
type Loop struct {
	tasks    chan task
	stopOnce sync.Once
	stopped  chan struct{}
	started  chan struct{}
}

// New creates a loop. Call Run (usually in its own goroutine) to start it.
func New() *Loop {
	return &Loop{
		tasks:   make(chan task, 16),
		stopped: make(chan struct{}),
		started: make(chan struct{}),
	}
}

// Run locks the calling goroutine to its OS thread and executes posted work
// until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer l.stopOnce.Do(func() { close(l.stopped) })
	close(l.started)

	for {
		select {
		case <-ctx.Done():
			l.drain()
			return
		case t := <-l.tasks:
			t.done <- l.exec(t.fn)
		}
	}
}

// Started is closed once Run has locked its thread.
func (l *Loop) Started() <-chan struct{} { return l.started }

// Do runs fn on the UI thread and waits for it to return. A panic inside fn is
// recovered and returned as an error so one bad callback cannot kill the loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	t := task{fn: fn, done: make(chan error, 1)}
	select {
	case l.tasks <- t:
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	// A task is never abandoned half-way: once the loop picks it up, done is
	// written before stopped can close.
	select {
	case err := <-t.done:
		return err
	case <-l.stopped:
		select {
		case err := <-t.done:
			return err
		default:
			return ErrStopped
		}
	}
}

func (l *Loop) exec(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC on UI thread: %v", r)
			err = fmt.Errorf("ui thread panic: %v", r)
		}
	}()
	fn()
	return nil
}

// drain fails anything that was queued before shutdown.
func (l *Loop) drain() {
	l.stopOnce.Do(func() { close(l.stopped) })
	for {
		select {
		case t := <-l.tasks:
			t.done <- ErrStopped
		default:
			return
		}
	}
}

// Inline runs work directly on the caller's goroutine. Tests and the CLI use
// it where no dedicated UI thread exists.
type Inline struct{}

func (Inline) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn()
	return nil
}
