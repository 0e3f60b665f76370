package settings

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStoreMissingKeysAreOff(t *testing.T) {
	s := New()
	require.False(t, s.Bool(TaxEnabled))
	require.True(t, s.Decimal(TaxRate).IsZero())
}

func TestStoreSetAndDelete(t *testing.T) {
	s := New()
	require.NoError(t, s.Set(ItemQuantitiesEnabled, true))
	require.NoError(t, s.Set(TaxRate, "0.20"))
	require.True(t, s.Bool(ItemQuantitiesEnabled))
	require.True(t, decimal.RequireFromString("0.2").Equal(s.Decimal(TaxRate)))

	s.Delete(ItemQuantitiesEnabled)
	require.False(t, s.Bool(ItemQuantitiesEnabled))
	require.Error(t, s.Set(" ", true))
}

func TestFromEnv(t *testing.T) {
	t.Setenv("CART_TAX_ENABLED", "on")
	t.Setenv("CART_TAX_RATE", "0.11")
	t.Setenv("CART_CART_SAVING_ENABLED", "no")

	s, err := FromEnv()
	require.NoError(t, err)
	require.True(t, s.Bool(TaxEnabled))
	require.Equal(t, "0.11", s.Decimal(TaxRate).String())
	require.False(t, s.Bool(CartSavingEnabled))
}
