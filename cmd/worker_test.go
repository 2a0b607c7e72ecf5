package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunUntilDrained(t *testing.T) {
	t.Run("returns when fn returns", func(t *testing.T) {
		boom := errors.New("boom")
		err := runUntilDrained(context.Background(), func(context.Context) error { return boom }, time.Second)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("waits for drain after cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		drained := false
		go cancel()

		err := runUntilDrained(ctx, func(ctx context.Context) error {
			<-ctx.Done()
			time.Sleep(20 * time.Millisecond)
			drained = true
			return nil
		}, time.Second)

		require.NoError(t, err)
		assert.True(t, drained)
	})

	t.Run("gives up after timeout", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		release := make(chan struct{})
		defer close(release)

		err := runUntilDrained(ctx, func(context.Context) error {
			<-release
			return nil
		}, 20*time.Millisecond)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "shutdown timed out")
	})
}

type bootstrapFunc func(ctx context.Context) (int, error)

func (f bootstrapFunc) Run(ctx context.Context) (int, error) { return f(ctx) }

func TestStartWorker_BootstrapGatesPolling(t *testing.T) {
	t.Run("bootstrap failure never polls", func(t *testing.T) {
		cause := errors.New("create index: permission denied for schema public")
		polled := false

		err := startWorker(context.Background(),
			bootstrapFunc(func(context.Context) (int, error) { return 0, cause }),
			func(context.Context, int) error {
				polled = true
				return nil
			})

		require.ErrorIs(t, err, cause)
		assert.False(t, polled)
	})

	t.Run("polls after bootstrap with its dimension", func(t *testing.T) {
		var order []string
		gotDimension := 0

		err := startWorker(context.Background(),
			bootstrapFunc(func(context.Context) (int, error) {
				order = append(order, "bootstrap")
				return 768, nil
			}),
			func(_ context.Context, dimension int) error {
				order = append(order, "poll")
				gotDimension = dimension
				return nil
			})

		require.NoError(t, err)
		assert.Equal(t, []string{"bootstrap", "poll"}, order)
		assert.Equal(t, 768, gotDimension)
	})

	t.Run("poll error is returned", func(t *testing.T) {
		cause := errors.New("nats: no servers available for connection")
		err := startWorker(context.Background(),
			bootstrapFunc(func(context.Context) (int, error) { return 8, nil }),
			func(context.Context, int) error { return cause })
		assert.ErrorIs(t, err, cause)
	})
}
