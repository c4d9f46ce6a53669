package runner

import (
	"context"
	"fmt"

	"github.com/andra1/bagelbot/internal/cart"
	"github.com/andra1/bagelbot/internal/checkout"
	"github.com/andra1/bagelbot/internal/monitor"
	"github.com/andra1/bagelbot/internal/resolver"
	"github.com/andra1/bagelbot/internal/scheduler"
	"github.com/andra1/bagelbot/internal/session"
	"github.com/andra1/bagelbot/internal/vendor"
	"github.com/andra1/bagelbot/pkg/clock"
	"github.com/andra1/bagelbot/pkg/config"
	pkgerrors "github.com/andra1/bagelbot/pkg/errors"
	"github.com/andra1/bagelbot/pkg/instance"
	"github.com/andra1/bagelbot/pkg/logger"
	"github.com/andra1/bagelbot/pkg/metrics"
)

// Params configure a single purchase run.
type Params struct {
	Logger      *logger.Logger
	Clock       clock.Clock
	Metrics     *metrics.PipelineMetrics
	Vendor      vendor.Client
	Sessions    session.Provider
	Credentials *session.Holder
	Checkout    checkout.Service
	Lock        Lock

	VendorID string
	Monitor  config.MonitorConfig
	Order    *config.OrderConfig

	// TriggerAt is optional; without it the run starts immediately.
	TriggerAt *scheduler.TimeOfDay
	DryRun    bool
}

// Runner drives one purchase attempt end to end: wake, authenticate, watch
// for the drop, resolve the configured order against the live menu, assemble
// a cart, and check out.
type Runner struct {
	logger      *logger.Logger
	clock       clock.Clock
	metrics     *metrics.PipelineMetrics
	vendor      vendor.Client
	sessions    session.Provider
	credentials *session.Holder
	checkout    checkout.Service
	lock        Lock

	vendorID  string
	monitor   config.MonitorConfig
	order     *config.OrderConfig
	triggerAt *scheduler.TimeOfDay
	dryRun    bool
}

func New(params Params) (*Runner, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "runner requires a logger")
	}
	if params.Clock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "runner requires a clock")
	}
	if params.Vendor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "runner requires a vendor client")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "runner requires a session provider")
	}
	if params.Checkout == nil && !params.DryRun {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "runner requires a checkout service")
	}
	if params.VendorID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if params.Order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order config is required")
	}
	lock := params.Lock
	if lock == nil {
		lock = NoopLock{}
	}
	return &Runner{
		logger:      params.Logger,
		clock:       params.Clock,
		metrics:     params.Metrics,
		vendor:      params.Vendor,
		sessions:    params.Sessions,
		credentials: params.Credentials,
		checkout:    params.Checkout,
		lock:        lock,
		vendorID:    params.VendorID,
		monitor:     params.Monitor,
		order:       params.Order,
		triggerAt:   params.TriggerAt,
		dryRun:      params.DryRun,
	}, nil
}

// Run executes the pipeline. A dry run stops after cart assembly and returns
// a nil receipt.
func (r *Runner) Run(ctx context.Context) (*vendor.Receipt, error) {
	ctx = r.logger.WithRunID(ctx, instance.GetID())
	ctx = r.logger.WithVendorID(ctx, r.vendorID)

	acquired, err := r.lock.Acquire(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring run lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "another run already holds the vendor lock")
	}
	defer func() {
		if err := r.lock.Release(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn(ctx, fmt.Sprintf("failed to release run lock: %v", err))
		}
	}()

	if r.triggerAt != nil {
		sched, err := scheduler.New(r.clock, r.logger)
		if err != nil {
			return nil, err
		}
		if err := sched.WaitUntil(ctx, *r.triggerAt); err != nil {
			return nil, err
		}
	}

	sess, err := r.sessions.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading session")
	}
	if r.credentials != nil {
		r.credentials.Set(sess)
	}

	event, attempts, err := r.watch(ctx)
	if err != nil {
		return nil, err
	}
	ctx = r.logger.WithEventID(ctx, event.ID)
	r.logger.Info(ctx, fmt.Sprintf("drop detected after %d poll(s)", attempts))

	cartID, err := r.vendor.CreateCart(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	ctx = r.logger.WithCartID(ctx, cartID)

	menu, err := r.vendor.GetMenu(ctx, event.ID, cartID)
	if err != nil {
		return nil, err
	}
	if len(menu) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeResolution, "vendor menu is empty")
	}

	res, err := resolver.New(r.logger)
	if err != nil {
		return nil, err
	}
	resolved, err := res.Resolve(ctx, menu, r.order)
	if err != nil {
		return nil, err
	}
	if err := cart.ValidateSelections(menu, resolved); err != nil {
		return nil, err
	}

	// the vendor-issued cart id is the one the whole run is keyed on
	assembler := cart.NewAssemblerWithIDs(func() string { return cartID })
	assembled, err := assembler.Assemble(resolved, r.order, event.ID, menu)
	if err != nil {
		return nil, err
	}

	if r.dryRun {
		r.logger.Info(ctx, fmt.Sprintf("dry run: cart assembled with %d line(s), estimated total %d cents, skipping checkout",
			len(assembled.Items), assembled.EstimatedTotalCents))
		return nil, nil
	}

	receipt, err := r.checkout.Execute(ctx, assembled)
	if err != nil {
		return nil, err
	}
	r.logger.Info(ctx, fmt.Sprintf("order confirmed: %s", receipt.ConfirmationID))
	return receipt, nil
}

func (r *Runner) watch(ctx context.Context) (vendor.DropEvent, int, error) {
	mon, err := monitor.New(monitor.Params{
		Logger:        r.logger,
		Fetcher:       r.vendor,
		Clock:         r.clock,
		Metrics:       r.metrics,
		VendorID:      r.vendorID,
		PollInterval:  r.monitor.PollInterval,
		MaxIterations: r.monitor.MaxIterations,
	})
	if err != nil {
		return vendor.DropEvent{}, 0, err
	}

	result := mon.Watch(ctx)
	if result.Event != nil {
		return *result.Event, result.Attempts, nil
	}
	if err := ctx.Err(); err != nil {
		return vendor.DropEvent{}, result.Attempts, err
	}
	return vendor.DropEvent{}, result.Attempts,
		pkgerrors.New(pkgerrors.CodeTimeout, fmt.Sprintf("no live drop detected after %d poll(s)", result.Attempts))
}
