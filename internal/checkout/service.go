package checkout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/andra1/bagelbot/internal/cart"
	"github.com/andra1/bagelbot/internal/orders"
	"github.com/andra1/bagelbot/internal/vendor"
	"github.com/andra1/bagelbot/pkg/db/models"
	pkgerrors "github.com/andra1/bagelbot/pkg/errors"
	"github.com/andra1/bagelbot/pkg/logger"
	"github.com/andra1/bagelbot/pkg/metrics"
)

// submitter is the slice of the vendor client checkout needs.
type submitter interface {
	Checkout(ctx context.Context, req vendor.CheckoutRequest) (*vendor.Receipt, error)
}

// Service submits an assembled cart to the vendor exactly once and records
// the resulting receipt. A cart id that already has an order record is never
// submitted again.
type Service interface {
	Execute(ctx context.Context, c *cart.Cart) (*vendor.Receipt, error)
}

type ServiceParams struct {
	Logger  *logger.Logger
	Vendor  submitter
	Orders  orders.Repository
	Metrics *metrics.PipelineMetrics
	Now     func() time.Time
}

type service struct {
	logger  *logger.Logger
	vendor  submitter
	orders  orders.Repository
	metrics *metrics.PipelineMetrics
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout service requires a logger")
	}
	if params.Vendor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout service requires a vendor client")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout service requires an orders repository")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		logger:  params.Logger,
		vendor:  params.Vendor,
		orders:  params.Orders,
		metrics: params.Metrics,
		now:     params.Now,
	}, nil
}

func (s *service) Execute(ctx context.Context, c *cart.Cart) (*vendor.Receipt, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is required")
	}
	if c.CartID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	if len(c.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart has no items")
	}

	ctx = s.logger.WithCartID(ctx, c.CartID)

	existing, err := s.orders.FindByID(ctx, c.CartID)
	if err == nil && existing != nil {
		s.logger.Warn(ctx, "cart already has an order record, skipping checkout")
		return &vendor.Receipt{
			ConfirmationID: existing.ConfirmationID,
			TotalCents:     existing.TotalCents,
			CartID:         existing.ID,
		}, nil
	}

	req := buildRequest(c)

	start := s.now()
	receipt, err := s.vendor.Checkout(ctx, req)
	if err != nil {
		s.metrics.ObserveCheckout("failure", s.now().Sub(start))
		s.logger.Error(ctx, "checkout submission failed", err)
		return nil, err
	}
	s.metrics.ObserveCheckout("success", s.now().Sub(start))

	if receipt == nil || receipt.ConfirmationID == "" {
		err := pkgerrors.New(pkgerrors.CodeCheckout, "vendor returned a receipt without a confirmation id")
		s.logger.Error(ctx, "checkout receipt malformed", err)
		return nil, err
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serializing cart payload")
	}

	record := &models.OrderRecord{
		ID:             c.CartID,
		Payload:        string(payload),
		TotalCents:     receipt.TotalCents,
		ConfirmationID: receipt.ConfirmationID,
	}
	inserted, err := s.orders.Insert(ctx, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting order record")
	}
	if !inserted {
		s.logger.Warn(ctx, "order record already present for cart, keeping existing row")
	}

	s.logger.Info(ctx, "checkout confirmed")
	return receipt, nil
}

func buildRequest(c *cart.Cart) vendor.CheckoutRequest {
	items := make([]vendor.CheckoutItem, 0, len(c.Items))
	for _, line := range c.Items {
		items = append(items, vendor.CheckoutItem{
			SKU:       line.SKU,
			Qty:       line.Qty,
			Modifiers: line.Modifiers,
			Notes:     line.Notes,
		})
	}
	return vendor.CheckoutRequest{
		CartID:     c.CartID,
		EventID:    c.EventID,
		Items:      items,
		TipPercent: c.TipPercent,
		PickupTime: c.PickupTime,
	}
}
