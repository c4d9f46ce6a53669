package resolver

import (
	"context"
	"testing"

	"github.com/andra1/bagelbot/internal/vendor"
	"github.com/andra1/bagelbot/pkg/config"
	pkgerrors "github.com/andra1/bagelbot/pkg/errors"
	"github.com/andra1/bagelbot/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMenu = []vendor.MenuItem{
	{ID: "SKU_EVERYTHING", Title: "Everything Bagel"},
	{ID: "SKU_SESAME", Title: "Sesame Bagel"},
}

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := New(logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	return r
}

func TestResolveDirectMatchIsCaseInsensitive(t *testing.T) {
	cfg := &config.OrderConfig{
		Items: []config.OrderLine{{Name: "eVeRyThInG bAgEl", Quantity: 2}},
		Substitutions: []config.SubstitutionRule{
			// Must not be consulted when a direct match exists.
			{For: "everything bagel", Try: []string{"sesame bagel"}},
		},
		Notes: "ring the bell",
	}

	resolved, err := newResolver(t).Resolve(context.Background(), testMenu, cfg)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "SKU_EVERYTHING", resolved[0].SKU)
	assert.Equal(t, 2, resolved[0].Qty)
	assert.Equal(t, "ring the bell", resolved[0].Notes)
}

func TestResolveSubstitutionTakesFirstCandidateInOrder(t *testing.T) {
	cfg := &config.OrderConfig{
		Items: []config.OrderLine{{Name: "Poppy Bagel"}},
		Substitutions: []config.SubstitutionRule{
			{For: "poppy bagel", Try: []string{"sesame bagel", "everything bagel"}},
		},
	}

	resolved, err := newResolver(t).Resolve(context.Background(), testMenu, cfg)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "SKU_SESAME", resolved[0].SKU)
}

func TestResolveSubstitutionSkipsMissingCandidates(t *testing.T) {
	cfg := &config.OrderConfig{
		Items: []config.OrderLine{{Name: "Poppy Bagel"}},
		Substitutions: []config.SubstitutionRule{
			{For: "Poppy Bagel", Try: []string{"rye bagel", "everything bagel"}},
		},
	}

	resolved, err := newResolver(t).Resolve(context.Background(), testMenu, cfg)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "SKU_EVERYTHING", resolved[0].SKU)
}

func TestResolveFailsNamingTheUnresolvableItem(t *testing.T) {
	cfg := &config.OrderConfig{
		Items: []config.OrderLine{
			{Name: "Sesame Bagel"},
			{Name: "Rye Bagel"},
		},
	}

	resolved, err := newResolver(t).Resolve(context.Background(), testMenu, cfg)
	require.Error(t, err)
	assert.Nil(t, resolved, "no partial resolution on failure")
	assert.Equal(t, pkgerrors.CodeResolution, pkgerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "Rye Bagel")
}

func TestResolveDefaultsQuantityToOne(t *testing.T) {
	cfg := &config.OrderConfig{
		Items: []config.OrderLine{{Name: "Sesame Bagel", Options: map[string][]string{"spread": {"cream cheese"}}}},
	}

	resolved, err := newResolver(t).Resolve(context.Background(), testMenu, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, resolved[0].Qty)
	assert.Equal(t, []string{"cream cheese"}, resolved[0].Modifiers["spread"])
}

func TestResolveRejectsEmptyConfig(t *testing.T) {
	_, err := newResolver(t).Resolve(context.Background(), testMenu, &config.OrderConfig{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
