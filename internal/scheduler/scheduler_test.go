package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/andra1/bagelbot/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now      time.Time
	slept    []time.Duration
	sleepErr error
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	f.slept = append(f.slept, d)
	if f.sleepErr != nil {
		return f.sleepErr
	}
	f.now = f.now.Add(d)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 9, Minute: 30}, tod)

	tod, err = ParseTimeOfDay("17:05:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 17, Minute: 5, Second: 30}, tod)

	for _, bad := range []string{"", "9", "25:00", "09:61", "09:30:99", "a:b", "1:2:3:4"} {
		if _, err := ParseTimeOfDay(bad); err == nil {
			t.Fatalf("expected %q to fail parsing", bad)
		}
	}
}

func TestWaitUntilFutureTargetSleepsExactDelta(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 8, 28, 8, 0, 0, 0, time.Local)}
	sched, err := New(clk, testLogger())
	require.NoError(t, err)

	err = sched.WaitUntil(context.Background(), TimeOfDay{Hour: 9, Minute: 30})
	require.NoError(t, err)
	require.Len(t, clk.slept, 1)
	assert.Equal(t, 90*time.Minute, clk.slept[0])
}

func TestWaitUntilPastTargetReturnsImmediately(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local)}
	sched, err := New(clk, testLogger())
	require.NoError(t, err)

	err = sched.WaitUntil(context.Background(), TimeOfDay{Hour: 9, Minute: 30})
	require.NoError(t, err)
	assert.Empty(t, clk.slept, "no sleep expected for a target already passed today")
}

func TestWaitUntilPropagatesCancellation(t *testing.T) {
	clk := &fakeClock{
		now:      time.Date(2026, 8, 28, 8, 0, 0, 0, time.Local),
		sleepErr: context.Canceled,
	}
	sched, err := New(clk, testLogger())
	require.NoError(t, err)

	err = sched.WaitUntil(context.Background(), TimeOfDay{Hour: 9, Minute: 0})
	assert.ErrorIs(t, err, context.Canceled)
}
