package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := NewPool(2, 16, zap.NewNop())
	p.Start(context.Background())

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		err := p.Submit("task", func(context.Context) {
			ran.Add(1)
		})
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))

	assert.Equal(t, int32(10), ran.Load())
}

func TestPoolSubmitDoesNotBlockWhenFull(t *testing.T) {
	p := NewPool(1, 1, zap.NewNop())
	// not started: nothing drains the queue

	require.NoError(t, p.Submit("first", func(context.Context) {}))
	err := p.Submit("second", func(context.Context) {})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestPoolRejectsAfterShutdown(t *testing.T) {
	p := NewPool(1, 4, zap.NewNop())
	p.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))

	err := p.Submit("late", func(context.Context) {})
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPoolSurvivesPanickingTask(t *testing.T) {
	p := NewPool(1, 4, zap.NewNop())
	p.Start(context.Background())

	var ran atomic.Bool
	require.NoError(t, p.Submit("boom", func(context.Context) {
		panic("boom")
	}))
	require.NoError(t, p.Submit("after", func(context.Context) {
		ran.Store(true)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))

	assert.True(t, ran.Load())
}
