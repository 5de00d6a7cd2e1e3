package fetch

import (
	"context"
	"sync"
	"time"
)

// Debounced runs a task after a quiescence delay with only-latest-survives
// semantics: triggering again before the delay elapses, or while an earlier
// run is still in flight, cancels the earlier instance. Superseded runs are
// cancelled through their context, not merely ignored, so a slow run cannot
// apply its effect after a newer one.
type Debounced struct {
	delay time.Duration
	fn    func(context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewDebounced(delay time.Duration, fn func(context.Context)) *Debounced {
	return &Debounced{delay: delay, fn: fn}
}

// Trigger schedules a run after the quiescence delay, abandoning any earlier
// pending or in-flight run.
func (d *Debounced) Trigger(ctx context.Context) {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.mu.Unlock()

	go func() {
		timer := time.NewTimer(d.delay)
		defer timer.Stop()
		select {
		case <-runCtx.Done():
			return
		case <-timer.C:
		}
		d.fn(runCtx)
	}()
}

// Stop cancels any pending or in-flight run.
func (d *Debounced) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
