package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-cart/internal/cart"
	"github.com/noah-isme/toko-cart/internal/catalog"
	"github.com/noah-isme/toko-cart/internal/savedcart"
)

func TestFromCartError(t *testing.T) {
	require.Nil(t, FromCartError(nil))

	cases := map[error]string{
		fmt.Errorf("product %q: %w", "x", catalog.ErrProductNotFound): CodeProductNotFound,
		fmt.Errorf("option 9: %w", catalog.ErrUnknownVariant):         CodeUnknownVariant,
		fmt.Errorf("remove 3: %w", cart.ErrIndexOutOfRange):           CodeIndexOutOfRange,
		cart.ErrItemNotFound:                                          CodeItemNotFound,
		savedcart.ErrSavingDisabled:                                   CodeSavingDisabled,
		errors.New("redis: connection refused"):                       CodeInternal,
	}
	for err, code := range cases {
		appErr := FromCartError(err)
		require.Equal(t, code, appErr.Code, err.Error())
		require.ErrorIs(t, appErr, err)
	}
}

func TestFromCartErrorPassesAppErrorThrough(t *testing.T) {
	original := NewAppError("CUSTOM", "custom", nil)
	wrapped := fmt.Errorf("outer: %w", original)
	require.Same(t, original, FromCartError(wrapped))
	require.True(t, IsAppError(wrapped))
	require.Equal(t, "custom", original.Error())
}

func TestAtoiDefault(t *testing.T) {
	require.Equal(t, 4, AtoiDefault("4", 2))
	require.Equal(t, 2, AtoiDefault("", 2))
	require.Equal(t, 2, AtoiDefault("four", 2))
}
