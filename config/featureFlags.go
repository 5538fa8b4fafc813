package config

import (
	"os"
	"strings"
)

// StrictLimits switches over-limit handling from clamp-with-warning to hard rejection.
// When off (the default), a payment exceeding the amount due and a return quantity
// exceeding the available quantity are reduced to the allowed maximum.
//
// Set via env:
// - STRICT_LIMITS=true
func StrictLimits() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_LIMITS")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// ReverseStockOnReturnCancel controls whether cancelling a draft return appends
// compensating stock movements for the movements the return created.
// Defaults to on.
//
// Set via env:
// - REVERSE_STOCK_ON_RETURN_CANCEL=false
func ReverseStockOnReturnCancel() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("REVERSE_STOCK_ON_RETURN_CANCEL")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
