// Package supervisor keeps the daemon's worker running. A worker that
// returns an error or panics is logged and started again after a backoff.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"time"
)

const (
	defaultMaxDelay    = 60 * time.Second
	defaultStableAfter = time.Minute
)

// ErrWorkerExited is reported when a worker returns nil before its context
// was cancelled.
var ErrWorkerExited = errors.New("worker exited unexpectedly")

// Worker is one run of the daemon's main loop.
type Worker func(ctx context.Context) error

// Supervisor restarts a Worker until its context is cancelled.
type Supervisor struct {
	delay       time.Duration
	maxDelay    time.Duration
	stableAfter time.Duration
	restart     chan struct{}

	// OnRestart is called before each restart that follows a failure.
	OnRestart func(err error)

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// New creates a supervisor whose backoff starts at delay.
func New(delay time.Duration) *Supervisor {
	return &Supervisor{
		delay:       delay,
		maxDelay:    defaultMaxDelay,
		stableAfter: defaultStableAfter,
		restart:     make(chan struct{}, 1),
		now:         time.Now,
		after:       time.After,
	}
}

// Restart stops the current run so the next one starts immediately.
func (s *Supervisor) Restart() {
	select {
	case s.restart <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context, worker Worker) error {
	backoff := s.delay
	for {
		if ctx.Err() != nil {
			return nil
		}

		runCtx, cancel := context.WithCancel(ctx)
		requested := make(chan bool, 1)
		go func() {
			select {
			case <-s.restart:
				cancel()
				requested <- true
			case <-runCtx.Done():
				requested <- false
			}
		}()

		started := s.now()
		err := runSafely(runCtx, worker)
		cancel()
		restartRequested := <-requested

		if ctx.Err() != nil {
			return nil
		}
		if restartRequested {
			log.Println("[supervisor] Restarting worker")
			backoff = s.delay
			continue
		}
		if err == nil {
			err = ErrWorkerExited
		}
		if s.now().Sub(started) > s.stableAfter {
			backoff = s.delay
		}

		log.Printf("[supervisor] Worker failed: %v; restarting in %s", err, backoff)
		if s.OnRestart != nil {
			s.OnRestart(err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-s.restart:
			backoff = s.delay
			continue
		case <-s.after(backoff):
		}

		backoff *= 2
		if backoff > s.maxDelay {
			backoff = s.maxDelay
		}
	}
}

// runSafely converts a panic in the worker into an error.
func runSafely(ctx context.Context, worker Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[supervisor] Worker panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	return worker(ctx)
}
