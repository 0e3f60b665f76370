package common

import (
	"errors"

	"github.com/noah-isme/toko-cart/internal/cart"
	"github.com/noah-isme/toko-cart/internal/catalog"
	"github.com/noah-isme/toko-cart/internal/savedcart"
)

// Codes reported for cart faults.
const (
	CodeProductNotFound = "PRODUCT_NOT_FOUND"
	CodeUnknownVariant  = "UNKNOWN_VARIANT"
	CodeItemNotFound    = "CART_ITEM_NOT_FOUND"
	CodeIndexOutOfRange = "CART_INDEX_OUT_OF_RANGE"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeSavingDisabled  = "CART_SAVING_DISABLED"
	CodeInternal        = "INTERNAL"
)

var faultCodes = []struct {
	err     error
	code    string
	message string
}{
	{catalog.ErrProductNotFound, CodeProductNotFound, "product not found"},
	{catalog.ErrUnknownVariant, CodeUnknownVariant, "unknown product variant"},
	{cart.ErrItemNotFound, CodeItemNotFound, "item not in cart"},
	{cart.ErrIndexOutOfRange, CodeIndexOutOfRange, "no cart item at position"},
	{cart.ErrInvalidQuantity, CodeInvalidInput, "quantity must be at least 1"},
	{cart.ErrInvalidSelector, CodeInvalidInput, "invalid variant selector"},
	{cart.ErrSessionRequired, CodeInvalidInput, "session id required"},
	{savedcart.ErrOwnerRequired, CodeInvalidInput, "owner required"},
	{savedcart.ErrSavingDisabled, CodeSavingDisabled, "cart saving disabled"},
}

// FromCartError classifies err. Existing AppErrors pass through; unknown errors become INTERNAL.
func FromCartError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, f := range faultCodes {
		if errors.Is(err, f.err) {
			return NewAppError(f.code, f.message, err)
		}
	}
	return NewAppError(CodeInternal, "internal error", err)
}
