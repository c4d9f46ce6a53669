package cart

import (
	"strings"

	"github.com/andra1/bagelbot/internal/resolver"
	"github.com/andra1/bagelbot/internal/vendor"
	"github.com/andra1/bagelbot/pkg/config"
	pkgerrors "github.com/andra1/bagelbot/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the validated, immutable payload handed to checkout. CartID is
// assigned exactly once, here.
type Cart struct {
	CartID              string                  `json:"cart_id"`
	EventID             string                  `json:"event_id"`
	Items               []resolver.ResolvedLine `json:"items"`
	TipPercent          int                     `json:"tip_percent"`
	PickupTime          string                  `json:"pickup_time"`
	EstimatedTotalCents int64                   `json:"estimated_total_cents"`
}

// Assembler builds carts from resolved lines. It performs no I/O; the id
// generator is injectable for tests.
type Assembler struct {
	newID func() string
}

func NewAssembler() *Assembler {
	return &Assembler{newID: uuid.NewString}
}

// NewAssemblerWithIDs builds an assembler with a custom id generator.
func NewAssemblerWithIDs(newID func() string) *Assembler {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Assembler{newID: newID}
}

// Assemble packages the resolved lines with the order configuration. The
// menu is used only to estimate the cart total from listed prices.
func (a *Assembler) Assemble(resolved []resolver.ResolvedLine, cfg *config.OrderConfig, eventID string, menu []vendor.MenuItem) (*Cart, error) {
	if cfg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order config is required")
	}
	if len(resolved) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no resolved lines to assemble")
	}
	if eventID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}

	items := make([]resolver.ResolvedLine, len(resolved))
	copy(items, resolved)

	return &Cart{
		CartID:              a.newID(),
		EventID:             eventID,
		Items:               items,
		TipPercent:          cfg.TipPercent,
		PickupTime:          cfg.PickupTime,
		EstimatedTotalCents: EstimateTotalCents(menu, resolved, cfg.TipPercent),
	}, nil
}

// EstimateTotalCents prices the resolved lines against the menu snapshot:
// base price plus selected option choices, times quantity, plus tip. Lines
// or choices missing from the snapshot contribute zero.
func EstimateTotalCents(menu []vendor.MenuItem, lines []resolver.ResolvedLine, tipPercent int) int64 {
	itemBySKU := make(map[string]vendor.MenuItem, len(menu))
	for _, item := range menu {
		itemBySKU[item.ID] = item
	}

	var subtotal int64
	for _, line := range lines {
		item, ok := itemBySKU[line.SKU]
		if !ok {
			continue
		}
		lineCents := item.PriceCents
		for _, category := range item.Options {
			chosen := selectedChoices(line.Modifiers, category.Title)
			for _, choiceTitle := range chosen {
				for _, choice := range category.Choices {
					if strings.EqualFold(choice.Title, choiceTitle) {
						lineCents += choice.PriceCents
						break
					}
				}
			}
		}
		subtotal += lineCents * int64(line.Qty)
	}

	if tipPercent <= 0 {
		return subtotal
	}
	tip := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(int64(tipPercent))).
		Div(decimal.NewFromInt(100)).
		Round(0)
	return subtotal + tip.IntPart()
}

func selectedChoices(modifiers map[string][]string, categoryTitle string) []string {
	for title, choices := range modifiers {
		if strings.EqualFold(title, categoryTitle) {
			return choices
		}
	}
	return nil
}
