package cache

import "strings"

// KeyCart returns the slot holding the live cart of a session.
func KeyCart(sessionID string) string {
	return "cart:session:" + sessionID
}

// KeyCartLock returns the lock key serialising mutations of a session cart.
func KeyCartLock(sessionID string) string {
	return "lock:cart:" + sessionID
}

// KeySavedCart returns the snapshot slot owned by an identity.
func KeySavedCart(ownerID string) string {
	return "cart:saved:" + ownerID
}

// KeyProduct returns the cache key for a catalog product.
func KeyProduct(id string) string {
	return "product:" + id
}

// KeyDiscount returns the registry key for a discount code. Codes are case-insensitive.
func KeyDiscount(code string) string {
	return "discount:" + strings.ToLower(strings.TrimSpace(code))
}
