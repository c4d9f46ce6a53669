package cart

import (
	"fmt"

	"github.com/andra1/bagelbot/internal/resolver"
	"github.com/andra1/bagelbot/internal/vendor"
	pkgerrors "github.com/andra1/bagelbot/pkg/errors"
)

// SelectionViolation describes an option category whose selection count is
// outside the vendor's allowed range.
type SelectionViolation struct {
	SKU      string `json:"sku"`
	Category string `json:"category"`
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	Selected int    `json:"selected"`
}

// ValidateSelections checks every resolved line's option selections against
// the menu's per-category bounds. A MaxSelections of zero or less means the
// vendor publishes no upper bound.
func ValidateSelections(menu []vendor.MenuItem, lines []resolver.ResolvedLine) error {
	itemBySKU := make(map[string]vendor.MenuItem, len(menu))
	for _, item := range menu {
		itemBySKU[item.ID] = item
	}

	var violations []SelectionViolation
	for _, line := range lines {
		item, ok := itemBySKU[line.SKU]
		if !ok {
			continue
		}
		for _, category := range item.Options {
			selected := len(selectedChoices(line.Modifiers, category.Title))
			if selected < category.MinSelections || (category.MaxSelections > 0 && selected > category.MaxSelections) {
				violations = append(violations, SelectionViolation{
					SKU:      line.SKU,
					Category: category.Title,
					Min:      category.MinSelections,
					Max:      category.MaxSelections,
					Selected: selected,
				})
			}
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("option selections out of bounds for %d line(s)", len(violations))).
		WithDetails(map[string]any{"violations": violations})
}
