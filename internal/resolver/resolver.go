package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/andra1/bagelbot/internal/vendor"
	"github.com/andra1/bagelbot/pkg/config"
	pkgerrors "github.com/andra1/bagelbot/pkg/errors"
	"github.com/andra1/bagelbot/pkg/logger"
)

// ResolvedLine is a fully determined order line. Resolution either produces
// one ResolvedLine per configured line or fails for the whole batch; there
// is no partial output.
type ResolvedLine struct {
	SKU       string              `json:"sku"`
	Qty       int                 `json:"qty"`
	Modifiers map[string][]string `json:"modifiers,omitempty"`
	Notes     string              `json:"notes,omitempty"`
}

// Resolver maps configured order lines to menu SKUs, falling back to the
// configured substitution chains.
type Resolver struct {
	logger *logger.Logger
}

func New(logg *logger.Logger) (*Resolver, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Resolver{logger: logg}, nil
}

// Resolve matches every order line against the live menu. Names match
// case-insensitively; unmatched lines walk their substitution rule's
// candidates in listed order and take the first menu hit. Any line left
// unresolved fails the entire batch before a cart is built.
func (r *Resolver) Resolve(ctx context.Context, menu []vendor.MenuItem, cfg *config.OrderConfig) ([]ResolvedLine, error) {
	if cfg == nil || len(cfg.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order config has no items")
	}

	skuByName := make(map[string]string, len(menu))
	for _, item := range menu {
		skuByName[strings.ToLower(item.Title)] = item.ID
	}

	resolved := make([]ResolvedLine, 0, len(cfg.Items))
	for _, line := range cfg.Items {
		sku, via := r.resolveLine(skuByName, line.Name, cfg.Substitutions)
		if sku == "" {
			return nil, pkgerrors.New(pkgerrors.CodeResolution, fmt.Sprintf("unable to resolve sku for %q", line.Name)).
				WithDetails(map[string]any{"requested": line.Name})
		}
		if via != "" {
			r.logger.Info(ctx, fmt.Sprintf("substituted %q with %q", line.Name, via))
		}
		qty := line.Quantity
		if qty <= 0 {
			qty = 1
		}
		resolved = append(resolved, ResolvedLine{
			SKU:       sku,
			Qty:       qty,
			Modifiers: line.Options,
			Notes:     cfg.Notes,
		})
	}
	return resolved, nil
}

// resolveLine returns the matched SKU and, when a substitution was used, the
// candidate name that matched.
func (r *Resolver) resolveLine(skuByName map[string]string, name string, rules []config.SubstitutionRule) (string, string) {
	if sku, ok := skuByName[strings.ToLower(name)]; ok {
		return sku, ""
	}
	for _, rule := range rules {
		if !strings.EqualFold(rule.For, name) {
			continue
		}
		for _, candidate := range rule.Try {
			if sku, ok := skuByName[strings.ToLower(candidate)]; ok {
				return sku, candidate
			}
		}
	}
	return "", ""
}
