// Package governor implements ConcurrencyGovernor: two independent counting
// semaphores gating full generation runs and standalone verification requests.
package governor

import (
	"context"
	"sync/atomic"

	"github.com/ovokpus/PostAssist/internal/orcherrors"
)

// Governor holds the generation and verification semaphores plus occupancy counters
// exported to the otel gauge via InUse.
type Governor struct {
	generation   chan struct{}
	verification chan struct{}
	genInUse     *counter
	verInUse     *counter
}

// New builds a Governor with the given permit counts.
func New(generationPermits, verificationPermits int) *Governor {
	if generationPermits < 1 {
		generationPermits = 1
	}
	if verificationPermits < 1 {
		verificationPermits = 1
	}
	return &Governor{
		generation:   make(chan struct{}, generationPermits),
		verification: make(chan struct{}, verificationPermits),
		genInUse:     &counter{},
		verInUse:     &counter{},
	}
}

// AcquireGeneration blocks until a generation permit is available or ctx is cancelled.
func (g *Governor) AcquireGeneration(ctx context.Context) (func(), error) {
	return acquire(ctx, g.generation, g.genInUse)
}

// AcquireVerification blocks until a verification permit is available or ctx is cancelled.
func (g *Governor) AcquireVerification(ctx context.Context) (func(), error) {
	return acquire(ctx, g.verification, g.verInUse)
}

// InUse returns the current occupancy of (generation, verification) permits.
func (g *Governor) InUse() (int, int) {
	return g.genInUse.get(), g.verInUse.get()
}

func acquire(ctx context.Context, sem chan struct{}, c *counter) (func(), error) {
	select {
	case sem <- struct{}{}:
		c.inc()
		released := false
		return func() {
			if released {
				return
			}
			released = true
			c.dec()
			<-sem
		}, nil
	case <-ctx.Done():
		return nil, orcherrors.Wrap(orcherrors.KindCancelled, "permit acquisition cancelled", ctx.Err())
	}
}

type counter struct {
	n int32
}

func (c *counter) inc()     { atomic.AddInt32(&c.n, 1) }
func (c *counter) dec()     { atomic.AddInt32(&c.n, -1) }
func (c *counter) get() int { return int(atomic.LoadInt32(&c.n)) }
