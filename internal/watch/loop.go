// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultInterval is how often Loop polls the changed flag.
const DefaultInterval = time.Second

// Cycle is one release and deploy pass.
type Cycle func(ctx context.Context) error

// LoopOptions configures Loop.
type LoopOptions struct {
	// Interval between polls. Defaults to DefaultInterval.
	Interval time.Duration
	Logger   *log.Logger
}

// Loop runs w in a background goroutine and polls its flag every interval.
// Each positive poll clears the flag and runs cycle once; a failing cycle is
// logged and the flag is set again so the next poll retries it. Loop returns when ctx is cancelled, after
// the watcher goroutine has exited, or earlier with the watcher's error if
// it breaks.
func Loop(ctx context.Context, w *Watcher, cycle Cycle, opts LoopOptions) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		watchErr error
	)
	wg.Go(func() {
		if err := w.Run(ctx); err != nil {
			watchErr = err
			cancel()
		}
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			logger.Info("stopped watching for changes")
			return watchErr
		case <-ticker.C:
			if !w.TakeChange() {
				continue
			}
			if err := cycle(ctx); err != nil {
				logger.Error("update failed; make sure no other process is using the addon folder", "err", err)
				// Retry on the next poll until a cycle succeeds.
				w.MarkChanged()
				continue
			}
			logger.Info("addon updated")
		}
	}
}
