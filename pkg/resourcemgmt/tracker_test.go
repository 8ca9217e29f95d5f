package resourcemgmt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestTracker_CountsByKind(t *testing.T) {
	tr := NewTracker(zaptest.NewLogger(t), DefaultConfig())
	release := make(chan struct{})

	for i := 0; i < 3; i++ {
		tr.Go("ws_write", func() { <-release })
	}
	tr.Go("ws_read", func() { <-release })

	assert.Equal(t, 3, tr.Count("ws_write"))
	assert.Equal(t, 1, tr.Count("ws_read"))
	assert.Equal(t, int64(4), tr.Started())

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tr.Wait(ctx))

	assert.Zero(t, tr.Count("ws_write"))
	assert.Empty(t, tr.Stats().ByKind)
}

func TestTracker_WaitTimesOut(t *testing.T) {
	tr := NewTracker(zaptest.NewLogger(t), DefaultConfig())
	release := make(chan struct{})
	defer close(release)
	tr.Go("stuck", func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tr.Wait(ctx), context.DeadlineExceeded)
}

func TestTracker_CheckFlagsGrowth(t *testing.T) {
	tr := NewTracker(zaptest.NewLogger(t), Config{CheckInterval: time.Minute, LeakThreshold: 5})
	assert.False(t, tr.Check())

	release := make(chan struct{})
	for i := 0; i < 20; i++ {
		tr.Go("ws_write", func() { <-release })
	}
	assert.True(t, tr.Check())

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tr.Wait(ctx))
}
