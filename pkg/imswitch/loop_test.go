package imswitch

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"testing"
)

func TestLoopSerializes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := NewLoop(zap.NewNop().Sugar())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	var order []int
	for i := 0; i < 10; i++ {
		i := i
		loop.Post("append", func() error {
			order = append(order, i)
			return errors.New("logged")
		})
	}

	err := loop.Do(ctx, "check", func() error {
		assert.Len(t, order, 10)
		return errRefused
	})
	assert.ErrorIs(t, err, errRefused)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestLoopDoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loop := NewLoop(zap.NewNop().Sugar())
	for i := 0; i < cap(loop.tasks); i++ {
		loop.Post("fill", func() error { return nil })
	}
	assert.ErrorIs(t, loop.Do(ctx, "never", func() error { return nil }), context.Canceled)
}

func TestLoopStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop(zap.NewNop().Sugar())
	cancel()
	require.ErrorIs(t, loop.Run(ctx), context.Canceled)

	for i := 0; i < cap(loop.tasks)+1; i++ {
		loop.Post("dropped", func() error { return nil })
	}
	assert.ErrorIs(t, loop.Do(context.Background(), "dropped", func() error { return nil }), ErrLoopStopped)
}
