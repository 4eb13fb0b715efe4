// Package singleinstance keeps one resident per user session and lets a
// second invocation hand a capture request to it over loopback TCP.
package singleinstance

import (
	"context"

	"screen-translate/src/capture"
)

// Server owns the TCP endpoint and answers delegated requests.
type Server interface {
	// Start binds the first port of the configured range. A bound port
	// means another resident is running.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted connection, or the ctx error.
	Next(ctx context.Context) (Conn, error)
	Close() error
}

// Conn is one delegated request awaiting an answer.
type Conn interface {
	Request() Request
	RespondSuccess(text string) error
	RespondError(msg string) error
	Close() error
}

// Request asks the resident for one region capture.
type Request struct {
	Intent capture.Intent
	Fixed  bool
}

// Client delegates a request to a running resident.
type Client interface {
	// Send scans the port range for a resident. When none answers it
	// returns delegated=false and a nil error.
	Send(ctx context.Context, req Request) (delegated bool, reply string, err error)
}

func NewServer() Server { return newTcpServer() }

func NewClient() Client { return newTcpClient() }
