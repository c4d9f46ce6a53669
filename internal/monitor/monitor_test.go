package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andra1/bagelbot/internal/vendor"
	"github.com/andra1/bagelbot/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	f.slept = append(f.slept, d)
	f.now = f.now.Add(d)
	return nil
}

// scriptedFetcher replays one response per call; the last entry repeats.
type scriptedFetcher struct {
	snapshots [][]vendor.DropEvent
	errs      []error
	calls     int
}

func (f *scriptedFetcher) GetUpcomingEvents(_ context.Context, _ string) ([]vendor.DropEvent, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if len(f.snapshots) == 0 {
		return nil, nil
	}
	if i >= len(f.snapshots) {
		i = len(f.snapshots) - 1
	}
	return f.snapshots[i], nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

func newTestMonitor(t *testing.T, fetcher *scriptedFetcher, clk *fakeClock, opts Params) *Monitor {
	t.Helper()
	opts.Logger = testLogger()
	opts.Fetcher = fetcher
	opts.Clock = clk
	if opts.VendorID == "" {
		opts.VendorID = "bagelshop"
	}
	m, err := New(opts)
	require.NoError(t, err)
	return m
}

func TestWatchReportsNewlySeenLiveEventNotBootstrapEvent(t *testing.T) {
	start := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	clk := &fakeClock{now: start}

	eventA := vendor.DropEvent{ID: "A", Title: "Future Drop", GoLiveTime: start.Add(1000 * time.Second)}
	eventB := vendor.DropEvent{ID: "B", Title: "Live Drop", GoLiveTime: start.Add(-time.Second)}

	fetcher := &scriptedFetcher{snapshots: [][]vendor.DropEvent{
		{eventA},         // bootstrap
		{eventA, eventB}, // first watch poll
	}}

	var activated []string
	m := newTestMonitor(t, fetcher, clk, Params{
		MaxIterations: 5,
		PollInterval:  time.Second,
		OnActivate:    func(e vendor.DropEvent) { activated = append(activated, e.ID) },
	})

	result := m.Watch(context.Background())
	require.Equal(t, StateLive, result.State)
	require.NotNil(t, result.Event)
	assert.Equal(t, "B", result.Event.ID)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, []string{"B"}, activated)
}

func TestWatchBootstrapEventAlreadyLiveIsNeverReported(t *testing.T) {
	start := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	clk := &fakeClock{now: start}

	stale := vendor.DropEvent{ID: "stale", GoLiveTime: start.Add(-time.Hour)}
	fetcher := &scriptedFetcher{snapshots: [][]vendor.DropEvent{{stale}}}

	m := newTestMonitor(t, fetcher, clk, Params{MaxIterations: 3, PollInterval: time.Second})
	result := m.Watch(context.Background())

	assert.Equal(t, StateTimeout, result.State)
	assert.Nil(t, result.Event)
	assert.Equal(t, 3, result.Attempts)
}

func TestWatchDetectsSeenEventWhoseGoLiveNewlyPasses(t *testing.T) {
	start := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	clk := &fakeClock{now: start}

	// Future at bootstrap; goes live two poll intervals in.
	upcoming := vendor.DropEvent{ID: "soon", GoLiveTime: start.Add(90 * time.Second)}
	fetcher := &scriptedFetcher{snapshots: [][]vendor.DropEvent{{upcoming}}}

	m := newTestMonitor(t, fetcher, clk, Params{MaxIterations: 10, PollInterval: time.Minute})
	result := m.Watch(context.Background())

	require.Equal(t, StateLive, result.State)
	require.NotNil(t, result.Event)
	assert.Equal(t, "soon", result.Event.ID)
	assert.Equal(t, 3, result.Attempts)
}

func TestWatchTimesOutAfterIterationBudget(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)}
	fetcher := &scriptedFetcher{}

	var progress []int
	m := newTestMonitor(t, fetcher, clk, Params{
		MaxIterations: 4,
		PollInterval:  2 * time.Second,
		OnProgress:    func(attempt int) { progress = append(progress, attempt) },
	})
	result := m.Watch(context.Background())

	assert.Equal(t, StateTimeout, result.State)
	assert.Equal(t, 4, result.Attempts)
	assert.Equal(t, []int{1, 2, 3, 4}, progress)
	// sleeps only between polls, never after the last one
	assert.Len(t, clk.slept, 3)
}

func TestWatchAbsorbsFetchErrorsAndContinues(t *testing.T) {
	start := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	clk := &fakeClock{now: start}

	live := vendor.DropEvent{ID: "live", GoLiveTime: start.Add(-time.Minute)}
	fetcher := &scriptedFetcher{
		errs: []error{errors.New("bootstrap down"), errors.New("poll down")},
		snapshots: [][]vendor.DropEvent{
			nil,    // bootstrap (errored anyway)
			nil,    // first poll (errored anyway)
			{live}, // second poll succeeds
		},
	}

	m := newTestMonitor(t, fetcher, clk, Params{MaxIterations: 5, PollInterval: time.Second})
	result := m.Watch(context.Background())

	require.Equal(t, StateLive, result.State)
	require.NotNil(t, result.Event)
	assert.Equal(t, "live", result.Event.ID)
	assert.Equal(t, 2, result.Attempts)
}

func TestWatchReturnsEmptyOnCancellation(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)}
	fetcher := &scriptedFetcher{}

	ctx, cancel := context.WithCancel(context.Background())
	m := newTestMonitor(t, fetcher, clk, Params{
		MaxIterations: 100,
		PollInterval:  time.Second,
		OnProgress: func(attempt int) {
			if attempt == 2 {
				cancel()
			}
		},
	})

	result := m.Watch(ctx)
	assert.Nil(t, result.Event)
	assert.NotEqual(t, StateLive, result.State)
	assert.Equal(t, 2, result.Attempts)
}

func TestNewValidatesParams(t *testing.T) {
	clk := &fakeClock{}
	fetcher := &scriptedFetcher{}

	_, err := New(Params{Fetcher: fetcher, Clock: clk, VendorID: "v"})
	require.Error(t, err)

	_, err = New(Params{Logger: testLogger(), Clock: clk, VendorID: "v"})
	require.Error(t, err)

	_, err = New(Params{Logger: testLogger(), Fetcher: fetcher, VendorID: "v"})
	require.Error(t, err)

	_, err = New(Params{Logger: testLogger(), Fetcher: fetcher, Clock: clk})
	require.Error(t, err)
}
