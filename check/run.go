package check

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Checker drives the echo loop against a single target and owns the
// run's statistics. Callbacks are optional and are invoked from the loop
// task, use them for per-packet reporting.
type Checker struct {
	Target   string
	Count    int // 0 means endless, stopped only by cancellation
	Interval time.Duration
	Timeout  time.Duration
	Prober   Prober

	// Resolver overrides the name resolution, nil means Resolve.
	Resolver func(ctx context.Context, host string) (*net.IPAddr, error)

	// OnStart is called once after the target resolved, before the first
	// echo is sent.
	OnStart func(dst *net.IPAddr)

	// OnRecv is called after each successful exchange.
	OnRecv func(seq uint16, rtt time.Duration)

	// OnFail is called after each timed out or failed exchange.
	OnFail func(seq uint16, err error)

	// OnFinish is called with the final statistics once the loop has
	// drained, regardless of how it terminated. It is not called when
	// resolution failed.
	OnFinish func(s Snapshot)

	stats   Stats
	stopped atomic.Bool
}

// Statistics returns a consistent copy of the run's aggregate. It may be
// called while the loop is running or after it finished.
func (c *Checker) Statistics() Snapshot {
	return c.stats.Snapshot()
}

// Run resolves the target and executes the probe loop until the packet
// count is exhausted or ctx is cancelled. Cancellation is cooperative
// and observed at iteration boundaries only, the in-flight exchange is
// always allowed to finish or time out before the loop exits.
func (c *Checker) Run(ctx context.Context) error {
	resolve := c.Resolver
	if resolve == nil {
		resolve = Resolve
	}
	dst, err := resolve(ctx, c.Target)
	if err != nil {
		return err
	}

	if handler := c.OnStart; handler != nil {
		handler(dst)
	}

	var g errgroup.Group
	done := make(chan struct{})

	// Watcher task, turns the external interrupt into a one-shot flag
	// the loop polls once per iteration.
	g.Go(func() error {
		select {
		case <-ctx.Done():
			c.stopped.Store(true)
		case <-done:
		}
		return nil
	})

	g.Go(func() error {
		defer close(done)
		c.runLoop(ctx, dst)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if handler := c.OnFinish; handler != nil {
		handler(c.Statistics())
	}

	return nil
}

func (c *Checker) runLoop(ctx context.Context, dst *net.IPAddr) {
	for seq := uint64(0); ; seq++ {
		// The attempt deadline is deliberately detached from ctx so an
		// interrupt cannot abort the exchange mid-flight.
		attempt, cancel := context.WithTimeout(context.Background(), c.Timeout)
		rtt, err := c.Prober.ProbeOnce(attempt, dst, uint16(seq))
		cancel()

		if err != nil {
			c.stats.RecordFailure()
			if handler := c.OnFail; handler != nil {
				handler(uint16(seq), err)
			}
		} else {
			c.stats.RecordSuccess(rtt)
			if handler := c.OnRecv; handler != nil {
				handler(uint16(seq), rtt)
			}
		}

		// Termination is checked after sending and recording, the final
		// packet of a bounded run always completes first.
		if c.Count > 0 && seq+1 >= uint64(c.Count) {
			return
		}
		if c.stopped.Load() {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.Interval):
		}
	}
}
