package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/andra1/bagelbot/internal/vendor"
	"github.com/andra1/bagelbot/pkg/clock"
	"github.com/andra1/bagelbot/pkg/logger"
	"github.com/andra1/bagelbot/pkg/metrics"
)

// State is the monitor's position in its detection lifecycle.
type State string

const (
	StateInitializing State = "initializing"
	StateWatching     State = "watching"
	StateLive         State = "live"
	StateTimeout      State = "timeout"
)

const (
	defaultPollInterval  = 5 * time.Second
	defaultMaxIterations = 120
)

// eventFetcher is the slice of the vendor capability the monitor needs.
type eventFetcher interface {
	GetUpcomingEvents(ctx context.Context, vendorID string) ([]vendor.DropEvent, error)
}

// Params configure a single-run drop monitor.
type Params struct {
	Logger        *logger.Logger
	Fetcher       eventFetcher
	Clock         clock.Clock
	Metrics       *metrics.PipelineMetrics
	VendorID      string
	PollInterval  time.Duration
	MaxIterations int

	// OnProgress is invoked after each poll cycle that found nothing.
	OnProgress func(attempt int)
	// OnActivate is invoked once when a live event is detected.
	OnActivate func(event vendor.DropEvent)
}

// Result is how a watch ends. Event is non-nil only in StateLive; timeout and
// interruption both report an empty result rather than an error.
type Result struct {
	State    State
	Attempts int
	Event    *vendor.DropEvent
}

type seenEvent struct {
	event  vendor.DropEvent
	seenAt time.Time
}

// Monitor polls the vendor snapshot endpoint until a drop goes live. The
// seen-set is owned by this instance alone; build a fresh monitor per run.
type Monitor struct {
	logger        *logger.Logger
	fetcher       eventFetcher
	clock         clock.Clock
	metrics       *metrics.PipelineMetrics
	vendorID      string
	pollInterval  time.Duration
	maxIterations int
	onProgress    func(int)
	onActivate    func(vendor.DropEvent)

	state State
	seen  map[string]seenEvent
	order []string
}

func New(params Params) (*Monitor, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Fetcher == nil {
		return nil, fmt.Errorf("event fetcher required")
	}
	if params.Clock == nil {
		return nil, fmt.Errorf("clock required")
	}
	if params.VendorID == "" {
		return nil, fmt.Errorf("vendor id required")
	}
	interval := params.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	iterations := params.MaxIterations
	if iterations <= 0 {
		iterations = defaultMaxIterations
	}
	return &Monitor{
		logger:        params.Logger,
		fetcher:       params.Fetcher,
		clock:         params.Clock,
		metrics:       params.Metrics,
		vendorID:      params.VendorID,
		pollInterval:  interval,
		maxIterations: iterations,
		onProgress:    params.OnProgress,
		onActivate:    params.OnActivate,
		state:         StateInitializing,
		seen:          make(map[string]seenEvent),
	}, nil
}

// State returns the monitor's current lifecycle state.
func (m *Monitor) State() State {
	return m.state
}

// Watch runs the detection loop until a live event is found, the iteration
// budget is exhausted, or the context is canceled. Per-cycle fetch failures
// are absorbed: the failing cycle sees an empty snapshot and the loop
// continues on its fixed interval.
func (m *Monitor) Watch(ctx context.Context) Result {
	m.bootstrap(ctx)
	m.state = StateWatching

	attempts := 0
	for attempt := 1; attempt <= m.maxIterations; attempt++ {
		if ctx.Err() != nil {
			m.logger.Info(ctx, "monitor interrupted")
			return Result{State: m.state, Attempts: attempts}
		}
		attempts = attempt

		snapshot := m.fetchSnapshot(ctx)
		now := m.clock.Now()

		if event, ok := m.detect(snapshot, now); ok {
			m.state = StateLive
			m.metrics.IncLiveDetection(m.vendorID)
			eventCtx := m.logger.WithEventID(ctx, event.ID)
			m.logger.Info(eventCtx, fmt.Sprintf("drop live after %d poll(s)", attempt))
			if m.onActivate != nil {
				m.onActivate(event)
			}
			return Result{State: StateLive, Attempts: attempts, Event: &event}
		}

		if m.onProgress != nil {
			m.onProgress(attempt)
		}
		if attempt == m.maxIterations {
			break
		}
		if err := m.clock.Sleep(ctx, m.pollInterval); err != nil {
			m.logger.Info(ctx, "monitor interrupted")
			return Result{State: m.state, Attempts: attempts}
		}
	}

	m.state = StateTimeout
	m.logger.Warn(ctx, fmt.Sprintf("no live drop detected after %d poll(s)", attempts))
	return Result{State: StateTimeout, Attempts: attempts}
}

// bootstrap seeds the seen-set from the first snapshot so pre-existing
// events are never reported as newly detected.
func (m *Monitor) bootstrap(ctx context.Context) {
	snapshot := m.fetchSnapshot(ctx)
	now := m.clock.Now()
	for _, event := range snapshot {
		m.remember(event, now)
	}
	m.logger.Info(ctx, fmt.Sprintf("monitor bootstrapped with %d upcoming event(s)", len(snapshot)))
}

func (m *Monitor) fetchSnapshot(ctx context.Context) []vendor.DropEvent {
	events, err := m.fetcher.GetUpcomingEvents(ctx, m.vendorID)
	if err != nil {
		m.metrics.IncFetchFailure(m.vendorID)
		m.logger.Warn(ctx, fmt.Sprintf("snapshot fetch failed, treating as empty: %v", err))
		return nil
	}
	m.metrics.IncPoll(m.vendorID)
	return events
}

// detect applies the two-phase check: newly-seen events first, then a
// re-evaluation of previously-seen events whose go-live has newly passed.
func (m *Monitor) detect(snapshot []vendor.DropEvent, now time.Time) (vendor.DropEvent, bool) {
	for _, event := range snapshot {
		if _, ok := m.seen[event.ID]; ok {
			continue
		}
		m.remember(event, now)
		if event.Live(now) {
			return event, true
		}
	}

	// Clock drift / events that were future at bootstrap: an already-seen
	// event qualifies once its go-live passes after we first saw it.
	for _, id := range m.order {
		se := m.seen[id]
		if se.event.GoLiveTime.After(se.seenAt) && se.event.Live(now) {
			return se.event, true
		}
	}
	return vendor.DropEvent{}, false
}

// remember adds an id to the seen-set. Ids are write-once: an id is never
// re-added and never re-evaluated as new.
func (m *Monitor) remember(event vendor.DropEvent, now time.Time) {
	if _, ok := m.seen[event.ID]; ok {
		return
	}
	m.seen[event.ID] = seenEvent{event: event, seenAt: now}
	m.order = append(m.order, event.ID)
	m.metrics.IncEventSeen(m.vendorID)
}
