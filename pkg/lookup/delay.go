package lookup

import (
	"context"
	"time"
)

const (
	// RequestDelayDefault keeps a single client under the registry's
	// three-requests-per-second ceiling.
	RequestDelayDefault = 400 * time.Millisecond
	// MutationDelayDefault is inserted between successive mutations of a batch.
	MutationDelayDefault = 500 * time.Millisecond
)

// Delay pauses before a registry call.
type Delay interface {
	Wait(ctx context.Context) error
}

// FixedDelay waits the same duration every time.
type FixedDelay time.Duration

// NoDelay never waits. Tests use it.
const NoDelay = FixedDelay(0)

// Wait blocks for the delay or until ctx is done.
func (d FixedDelay) Wait(ctx context.Context) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(time.Duration(d))
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (d FixedDelay) String() string {
	return time.Duration(d).String()
}

func wait(ctx context.Context, d Delay) error {
	if d == nil {
		return ctx.Err()
	}
	return d.Wait(ctx)
}
