package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronSchedulerRejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("every half hour", nil, false, nil)
	err := s.Start(context.Background(), func(time.Time) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron expression")
}

func TestCronSchedulerRunOnStart(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("UTC")
	require.NoError(t, err)

	fired := make(chan time.Time, 4)
	s := NewCronScheduler("*/30 * * * *", loc, true, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx, func(at time.Time) { fired <- at }))
	// A second Start is a no-op while running.
	require.NoError(t, s.Start(ctx, func(time.Time) { t.Error("second job must not be registered") }))

	select {
	case at := <-fired:
		assert.Equal(t, "UTC", at.Location().String())
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}

func TestCronSchedulerNilJob(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("invalid", nil, true, nil)
	require.NoError(t, s.Start(context.Background(), nil))
	require.NoError(t, s.Stop(context.Background()))
}

func TestCronSchedulerStopReleasesContextWatcher(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("*/30 * * * *", time.UTC, false, nil)

	first, cancelFirst := context.WithCancel(context.Background())
	require.NoError(t, s.Start(first, func(time.Time) {}))
	require.NoError(t, s.Stop(context.Background()))

	second, cancelSecond := context.WithCancel(context.Background())
	defer cancelSecond()
	require.NoError(t, s.Start(second, func(time.Time) {}))

	// Cancelling the first run's context must not tear down the second run.
	cancelFirst()
	time.Sleep(50 * time.Millisecond)

	s.mu.Lock()
	running := s.cron != nil
	s.mu.Unlock()
	assert.True(t, running)

	require.NoError(t, s.Stop(context.Background()))
}

func TestCronSchedulerStopsWhenContextEnds(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("*/30 * * * *", time.UTC, false, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx, func(time.Time) {}))

	cancel()
	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.cron == nil
	}, 2*time.Second, 10*time.Millisecond)
}
