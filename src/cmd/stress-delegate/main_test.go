package main

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"screen-translate/src/capture"
	"screen-translate/src/singleinstance"
)

func TestNewRootCmdDefaults(t *testing.T) {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if opts.n != 50 {
		t.Fatalf("Expected default n=50, got %d", opts.n)
	}
	if opts.intent != "copy-original" || !opts.fixed {
		t.Fatalf("Expected fixed copy-original, got %q fixed=%v", opts.intent, opts.fixed)
	}
	if opts.deadline != 5*time.Second {
		t.Fatalf("Expected default deadline=5s, got %v", opts.deadline)
	}
}

func TestNewRootCmdCustomFlags(t *testing.T) {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{"--n", "3", "--intent", "translate", "--fixed=false", "--rate", "20", "--deadline", "7s"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if opts.n != 3 || opts.intent != "translate" || opts.fixed || opts.perSec != 20 || opts.deadline != 7*time.Second {
		t.Fatalf("unexpected options %+v", *opts)
	}
}

// scripted answers Send calls in turn: queued, busy, then no resident.
type scripted struct {
	calls *int32
}

func (s scripted) Send(ctx context.Context, req singleinstance.Request) (bool, string, error) {
	switch atomic.AddInt32(s.calls, 1) % 3 {
	case 1:
		return true, "queued", nil
	case 2:
		return true, "", errors.New("busy, please retry")
	default:
		return false, "", nil
	}
}

func TestStressCounts(t *testing.T) {
	var calls int32
	c := stress(stressOptions{n: 9, deadline: time.Second}, singleinstance.Request{Intent: capture.Translate},
		func() singleinstance.Client { return scripted{calls: &calls} })
	if c.ok != 3 || c.busy != 3 || c.err != 3 {
		t.Fatalf("counts = %+v", c)
	}

	var buf bytes.Buffer
	report(&buf, 9, c)
	if buf.String() != "launched=9 ok=3 busy=3 err=3\n" {
		t.Fatalf("report = %q", buf.String())
	}
}
