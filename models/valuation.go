package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

// LineItemTotal computes quantity*unitPrice - discount.
func LineItemTotal(quantity int, unitPrice, discount decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity)).Mul(unitPrice).Sub(discount)
}

// ValidateLineItem rejects quantities and amounts a line item cannot carry.
// The discount may not exceed the gross line amount.
func ValidateLineItem(quantity int, unitPrice, discount decimal.Decimal) error {
	if quantity <= 0 {
		return errors.New("quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return errors.New("unit price cannot be negative")
	}
	if discount.IsNegative() {
		return errors.New("discount cannot be negative")
	}
	gross := decimal.NewFromInt(int64(quantity)).Mul(unitPrice)
	if discount.GreaterThan(gross) {
		return errors.New("discount cannot exceed the line amount")
	}
	return nil
}

// DocumentTotal computes subtotal - discount + tax.
func DocumentTotal(subtotal, discount, tax decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Add(tax)
}

// ValidateDocumentAmounts rejects a document-level discount larger than the
// subtotal (which would make the total negative) and negative adjustments.
func ValidateDocumentAmounts(subtotal, discount, tax decimal.Decimal) error {
	if discount.IsNegative() {
		return errors.New("discount cannot be negative")
	}
	if tax.IsNegative() {
		return errors.New("tax cannot be negative")
	}
	if discount.GreaterThan(subtotal) {
		return errors.New("discount cannot exceed the subtotal")
	}
	return nil
}
