// Package progress drives a long-running remote operation to completion,
// translating each status check into a progress snapshot. The service
// exposes no numeric progress field, so the percentage is a synthetic,
// tick-derived estimate that saturates below 100; the jump to 100 happens
// only when the service's completion flag actually flips. The true flag is
// carried separately on every snapshot.
package progress

import (
	"context"
	"errors"
	"time"

	"filesearch/genai"
)

// ErrTimedOut is returned when an operation stays incomplete past the
// poller's attempt bound.
var ErrTimedOut = errors.New("progress: operation timed out")

const (
	// DefaultInterval is the fixed wait between status checks.
	DefaultInterval = 500 * time.Millisecond
	// DefaultMaxTicks bounds the number of status checks (5 minutes at the
	// default interval). Set MaxTicks to 0 for an unbounded poll.
	DefaultMaxTicks = 600
)

// Snapshot is one observation of an in-flight operation. Percent is the
// cosmetic estimate; Done is the service-reported completion flag.
type Snapshot struct {
	Tick    int
	Percent float64
	Status  string
	Done    bool
	Op      *genai.Operation
}

// OperationGetter re-fetches an operation's current state. *genai.Client
// satisfies it.
type OperationGetter interface {
	GetOperation(ctx context.Context, name string) (*genai.Operation, error)
}

// Options configure a Poller.
type Options struct {
	// Interval is the fixed sleep between status checks.
	Interval time.Duration
	// MaxTicks bounds the poll; 0 means unbounded.
	MaxTicks int
}

// Poller repeatedly re-fetches an operation until it reports completion.
// It does no work concurrently with itself; independent pollers may run
// side by side with no shared state.
type Poller struct {
	ops      OperationGetter
	interval time.Duration
	maxTicks int
}

// New constructs a Poller with optional overrides.
func New(ops OperationGetter, optFns ...func(o *Options)) *Poller {
	opts := Options{Interval: DefaultInterval, MaxTicks: DefaultMaxTicks}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Poller{ops: ops, interval: opts.Interval, maxTicks: opts.MaxTicks}
}

// Estimate maps a tick count to a bounded percentage: 5 + 3 per tick,
// capped at 95 so only true completion reaches 100.
func Estimate(tick int) float64 {
	pct := float64(5 + tick*3)
	if pct > 95 {
		return 95
	}
	return pct
}

// Watch drives op to completion, emitting one Snapshot per status check in
// issuance order. The snapshot channel is closed after the completed
// snapshot; fetch failures and timeouts are reported on the error channel
// and end the poll with no retry.
func (p *Poller) Watch(ctx context.Context, op *genai.Operation, status string) (<-chan Snapshot, <-chan error) {
	out := make(chan Snapshot, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		tick := 0
		for !op.Done {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case <-time.After(p.interval):
			}
			tick++
			if p.maxTicks > 0 && tick > p.maxTicks {
				errCh <- ErrTimedOut
				return
			}
			refreshed, err := p.ops.GetOperation(ctx, op.Name)
			if err != nil {
				errCh <- err
				return
			}
			op = refreshed
			out <- p.snapshot(tick, status, op)
		}
		if opErr := op.Err(); opErr != nil {
			errCh <- opErr
		}
	}()

	return out, errCh
}

func (p *Poller) snapshot(tick int, status string, op *genai.Operation) Snapshot {
	pct := Estimate(tick)
	if op.Done {
		pct = 100
	}
	return Snapshot{Tick: tick, Percent: pct, Status: status, Done: op.Done, Op: op}
}
