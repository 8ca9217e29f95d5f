package renewal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/mealplan-service/internal/domain"
	servicesports "github.com/kevin07696/mealplan-service/internal/services/ports"
	"github.com/kevin07696/mealplan-service/internal/testutil/mocks"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

type stubSweep struct {
	calls []time.Time
	err   error
}

func (s *stubSweep) RunDailySweep(ctx context.Context, now time.Time) (*servicesports.SweepResult, error) {
	s.calls = append(s.calls, now)
	if s.err != nil {
		return nil, s.err
	}
	return &servicesports.SweepResult{AsOf: now}, nil
}

func TestScheduler_NextRun(t *testing.T) {
	s := NewScheduler(&stubSweep{}, timeutil.SystemClock{}, 2, mocks.NewMockLogger())

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before the hour", time.Date(2025, 3, 10, 1, 30, 0, 0, time.UTC), time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)},
		{"exactly on the hour", time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC), time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC)},
		{"after the hour", time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC)},
		{"month end", time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC), time.Date(2025, 4, 1, 2, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.NextRun(tt.now))
		})
	}
}

func TestScheduler_InvalidHourDefaultsToMidnight(t *testing.T) {
	s := NewScheduler(&stubSweep{}, timeutil.SystemClock{}, 42, mocks.NewMockLogger())
	now := time.Date(2025, 3, 10, 5, 0, 0, 0, time.UTC)
	assert.Equal(t, "0 0 * * *", s.Spec())
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), s.NextRun(now))
}

func TestScheduler_NextRunIsUTC(t *testing.T) {
	s := NewScheduler(&stubSweep{}, timeutil.SystemClock{}, 2, mocks.NewMockLogger())
	assert.Equal(t, "0 2 * * *", s.Spec())

	// 03:30 in UTC+5:30 is 22:00 UTC the previous day
	ist := time.FixedZone("IST", 5*3600+1800)
	next := s.NextRun(time.Date(2025, 3, 11, 3, 30, 0, 0, ist))
	assert.Equal(t, time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC), next)
	assert.Equal(t, time.UTC, next.Location())
}

func TestCronLogger(t *testing.T) {
	logger := mocks.NewMockLogger()
	l := cronLogger{logger}

	l.Info("wake", "now", "2025-03-10")
	l.Error(errors.New("boom"), "panic", "stack", "...")

	assert.Equal(t, []string{"cron: wake"}, logger.Messages("debug"))
	assert.Equal(t, []string{"cron: panic"}, logger.Messages("error"))
	require.Len(t, logger.DebugCalls[0].Fields, 1)
	assert.Equal(t, "now", logger.DebugCalls[0].Fields[0].Key)
	assert.Len(t, logger.ErrorCalls[0].Fields, 2)
}

func TestScheduler_RunOnce(t *testing.T) {
	now := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)

	t.Run("uses the clock", func(t *testing.T) {
		sweep := &stubSweep{}
		logger := mocks.NewMockLogger()
		NewScheduler(sweep, timeutil.NewFixedClock(now), 2, logger).RunOnce(context.Background())

		assert.Equal(t, []time.Time{now}, sweep.calls)
		assert.Contains(t, logger.Messages("info"), "scheduled sweep finished")
	})

	t.Run("in-progress is not an error", func(t *testing.T) {
		sweep := &stubSweep{err: domain.ErrSweepInProgress()}
		logger := mocks.NewMockLogger()
		NewScheduler(sweep, timeutil.NewFixedClock(now), 2, logger).RunOnce(context.Background())

		assert.Empty(t, logger.ErrorCalls)
		assert.Contains(t, logger.Messages("info"), "scheduled sweep skipped, another sweep holds the lock")
	})
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	sweep := &stubSweep{}
	s := NewScheduler(sweep, timeutil.SystemClock{}, 0, mocks.NewMockLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Empty(t, sweep.calls)
}
