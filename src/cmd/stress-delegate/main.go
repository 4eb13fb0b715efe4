package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"screen-translate/src/capture"
	"screen-translate/src/singleinstance"
)

type stressOptions struct {
	n        int
	intent   string
	fixed    bool
	perSec   float64
	deadline time.Duration
}

type counts struct {
	ok, busy, err int32
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	return newRootCmd(opts).Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-delegate",
		Short:         "Fire concurrent capture requests at the running resident",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			intent, ok := capture.ParseIntent(opts.intent)
			if !ok {
				return fmt.Errorf("unknown intent %q", opts.intent)
			}
			c := stress(*opts, singleinstance.Request{Intent: intent, Fixed: opts.fixed}, singleinstance.NewClient)
			report(cmd.OutOrStdout(), opts.n, c)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().StringVar(&opts.intent, "intent", capture.CopyOriginal.String(), "capture intent to request")
	cmd.Flags().BoolVar(&opts.fixed, "fixed", true, "request the stored fixed area")
	cmd.Flags().Float64Var(&opts.perSec, "rate", 0, "launches per second, 0 for all at once")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

func stress(opts stressOptions, req singleinstance.Request, newClient func() singleinstance.Client) counts {
	limit := rate.Inf
	if opts.perSec > 0 {
		limit = rate.Limit(opts.perSec)
	}
	limiter := rate.NewLimiter(limit, 1)

	var (
		wg sync.WaitGroup
		c  counts
	)
	for i := 0; i < opts.n; i++ {
		_ = limiter.Wait(context.Background())
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			delegated, _, err := newClient().Send(ctx, req)
			switch {
			case err != nil && strings.Contains(strings.ToLower(err.Error()), "busy"):
				atomic.AddInt32(&c.busy, 1)
			case err != nil || !delegated:
				atomic.AddInt32(&c.err, 1)
			default:
				atomic.AddInt32(&c.ok, 1)
			}
		}()
	}
	wg.Wait()
	return c
}

func report(w io.Writer, n int, c counts) {
	fmt.Fprintf(w, "launched=%d ok=%d busy=%d err=%d\n", n, c.ok, c.busy, c.err)
}
