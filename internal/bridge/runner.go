package bridge

import (
	"context"
	"errors"
)

// ErrRunnerClosed is returned by Do after Close.
var ErrRunnerClosed = errors.New("runner closed")

type task struct {
	fn   func() error
	done chan error
}

// Runner executes submitted work on one dedicated goroutine, in submission
// order. Scan operations are affine to the thread owning the application's
// visible surface, so network handlers never call the driver directly;
// they hand work to the Runner and wait for the result.
type Runner struct {
	work chan task
	quit chan struct{}
}

func NewRunner() *Runner {
	r := &Runner{
		work: make(chan task),
		quit: make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *Runner) loop() {
	for {
		select {
		case t := <-r.work:
			t.done <- t.fn()
		case <-r.quit:
			return
		}
	}
}

// Do runs fn on the runner goroutine and returns its error. Submission is
// abandoned if ctx is cancelled first; once fn has started, Do waits for
// it to finish regardless of ctx, because the underlying scan operation
// cannot be interrupted mid-flight.
func (r *Runner) Do(ctx context.Context, fn func() error) error {
	t := task{fn: fn, done: make(chan error, 1)}
	select {
	case r.work <- t:
		return <-t.done
	case <-r.quit:
		return ErrRunnerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the runner goroutine. Work already started finishes.
func (r *Runner) Close() {
	close(r.quit)
}
