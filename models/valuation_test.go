package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLineItemTotal(t *testing.T) {
	if got := LineItemTotal(5, dec("150"), decimal.Zero); !got.Equal(dec("750")) {
		t.Errorf("5 x 150 = %s, want 750", got)
	}
	if got := LineItemTotal(3, dec("300"), dec("100")); !got.Equal(dec("800")) {
		t.Errorf("3 x 300 - 100 = %s, want 800", got)
	}
	if got := LineItemTotal(2, dec("10.555"), decimal.Zero); !got.Equal(dec("21.11")) {
		t.Errorf("2 x 10.555 = %s, want 21.11", got)
	}
}

func TestDocumentTotal(t *testing.T) {
	// two lines: 5 x 150 and 3 x 300, document discount 50
	subtotal := LineItemTotal(5, dec("150"), decimal.Zero).
		Add(LineItemTotal(3, dec("300"), decimal.Zero))
	if !subtotal.Equal(dec("1650")) {
		t.Fatalf("subtotal = %s, want 1650", subtotal)
	}
	total := DocumentTotal(subtotal, dec("50"), decimal.Zero)
	if !total.Equal(dec("1600")) {
		t.Errorf("total = %s, want 1600", total)
	}
	if got := DocumentTotal(dec("1000"), dec("100"), dec("75")); !got.Equal(dec("975")) {
		t.Errorf("total with tax = %s, want 975", got)
	}
}

func TestValidateLineItem(t *testing.T) {
	if err := ValidateLineItem(1, dec("10"), decimal.Zero); err != nil {
		t.Errorf("valid line rejected: %v", err)
	}
	if err := ValidateLineItem(0, dec("10"), decimal.Zero); err == nil {
		t.Error("zero quantity accepted")
	}
	if err := ValidateLineItem(-2, dec("10"), decimal.Zero); err == nil {
		t.Error("negative quantity accepted")
	}
	if err := ValidateLineItem(1, dec("-10"), decimal.Zero); err == nil {
		t.Error("negative unit price accepted")
	}
	if err := ValidateLineItem(2, dec("10"), dec("21")); err == nil {
		t.Error("discount above the line amount accepted")
	}
	if err := ValidateLineItem(2, dec("10"), dec("20")); err != nil {
		t.Errorf("discount equal to the line amount rejected: %v", err)
	}
}

func TestValidateDocumentAmounts(t *testing.T) {
	if err := ValidateDocumentAmounts(dec("100"), dec("100"), decimal.Zero); err != nil {
		t.Errorf("discount equal to subtotal rejected: %v", err)
	}
	if err := ValidateDocumentAmounts(dec("100"), dec("101"), decimal.Zero); err == nil {
		t.Error("discount above subtotal accepted")
	}
	if err := ValidateDocumentAmounts(dec("100"), decimal.Zero, dec("-1")); err == nil {
		t.Error("negative tax accepted")
	}
}
