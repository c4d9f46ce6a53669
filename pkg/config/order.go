package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// OrderLine is one configured item request. Options map an option category
// title to the requested choice titles for that category.
type OrderLine struct {
	Name     string              `yaml:"name" validate:"required"`
	Quantity int                 `yaml:"quantity" validate:"gte=0"`
	Options  map[string][]string `yaml:"options"`
}

// SubstitutionRule lists fallback candidates tried in order when the
// requested name has no direct menu match.
type SubstitutionRule struct {
	For string   `yaml:"for" validate:"required"`
	Try []string `yaml:"try" validate:"min=1,dive,required"`
}

// OrderConfig is the structured order input. It is validated at load time so
// malformed configuration never reaches the purchase pipeline.
type OrderConfig struct {
	Items         []OrderLine        `yaml:"items" validate:"min=1,dive"`
	Substitutions []SubstitutionRule `yaml:"substitutions" validate:"dive"`
	TipPercent    int                `yaml:"tip_percent" validate:"gte=0,lte=100"`
	PickupTime    string             `yaml:"pickup_time" validate:"required"`
	Notes         string             `yaml:"notes"`
}

// LoadOrder reads, parses, normalizes, and validates an order config file.
func LoadOrder(path string) (*OrderConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading order config %s: %w", path, err)
	}

	var cfg OrderConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing order config %s: %w", path, err)
	}

	cfg.normalize()
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating order config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *OrderConfig) normalize() {
	for i := range c.Items {
		c.Items[i].Name = strings.TrimSpace(c.Items[i].Name)
		if c.Items[i].Quantity == 0 {
			c.Items[i].Quantity = 1
		}
	}
	for i := range c.Substitutions {
		c.Substitutions[i].For = strings.TrimSpace(c.Substitutions[i].For)
	}
}
