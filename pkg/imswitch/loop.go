package imswitch

import (
	"context"
	"errors"
	"go.uber.org/zap"
)

var ErrLoopStopped = errors.New("event loop stopped")

type task struct {
	name string
	fn   func() error
	done chan error
}

// Loop serializes every event source onto one goroutine. Handlers posted
// to it never run concurrently with each other.
type Loop struct {
	tasks   chan task
	stopped chan struct{}
	log     *zap.SugaredLogger
}

func NewLoop(log *zap.SugaredLogger) *Loop {
	return &Loop{
		tasks:   make(chan task, 64),
		stopped: make(chan struct{}),
		log:     log,
	}
}

// Post queues fn. Its error is logged. Tasks posted after Run returned are
// dropped.
func (l *Loop) Post(name string, fn func() error) {
	select {
	case l.tasks <- task{name: name, fn: fn}:
	case <-l.stopped:
		l.log.Debugw("loop stopped, dropping task", "task", name)
	}
}

// Do runs fn on the loop and waits for its result.
func (l *Loop) Do(ctx context.Context, name string, fn func() error) error {
	t := task{name: name, fn: fn, done: make(chan error, 1)}

	select {
	case l.tasks <- t:
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-t.done:
		return err
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes tasks until ctx is done. It must be called once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-l.tasks:
			err := t.fn()
			if t.done != nil {
				t.done <- err
			} else if err != nil {
				l.log.Errorw("handler failed", "handler", t.name, "error", err)
			}
		}
	}
}
