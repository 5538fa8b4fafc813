package models

import (
	"testing"
	"time"
)

func TestComputeQuantityAfter(t *testing.T) {
	cases := []struct {
		before   int
		movement MovementType
		quantity int
		want     int
	}{
		{0, MovementTypeIn, 5, 5},
		{3, MovementTypeReturnIn, 2, 5},
		{10, MovementTypeOut, 4, 6},
		{10, MovementTypeReturnOut, 10, 0},
		// outgoing clamps at zero instead of going negative
		{3, MovementTypeOut, 10, 0},
		{0, MovementTypeReturnOut, 1, 0},
		// adjustment sets the level
		{7, MovementTypeAdjustment, 42, 42},
	}
	for _, c := range cases {
		got := ComputeQuantityAfter(c.before, c.movement, c.quantity)
		if got != c.want {
			t.Errorf("ComputeQuantityAfter(%d, %s, %d) = %d, want %d",
				c.before, c.movement, c.quantity, got, c.want)
		}
	}
}

func TestSumMovementsReplay(t *testing.T) {
	journal := []StockMovement{
		{MovementType: MovementTypeIn, Quantity: 10},
		{MovementType: MovementTypeOut, Quantity: 3},
		{MovementType: MovementTypeReturnIn, Quantity: 1},
		{MovementType: MovementTypeReturnOut, Quantity: 12}, // clamps at 0
		{MovementType: MovementTypeIn, Quantity: 4},
	}
	if got := SumMovements(journal); got != 4 {
		t.Errorf("SumMovements = %d, want 4", got)
	}
	if got := SumMovements(nil); got != 0 {
		t.Errorf("SumMovements(nil) = %d, want 0", got)
	}
}

func TestReferenceNumberFormats(t *testing.T) {
	if got := ItemReference(DocumentTypePurchase, "PUR0001", 7); got != "PURCHASE-PUR0001-ITEM7" {
		t.Errorf("purchase item ref = %q", got)
	}
	if got := ItemReference(DocumentTypeSale, "SAL0002", 3); got != "SALE-SAL0002-ITEM3" {
		t.Errorf("sale item ref = %q", got)
	}
	if got := ItemReference(DocumentTypePurchaseReturn, "PRET0001", 9); got != "RETURN-PRET0001-ITEM9" {
		t.Errorf("purchase return item ref = %q", got)
	}
	if got := ItemReference(DocumentTypeSaleReturn, "SRET0004", 2); got != "RETURN-SRET0004-ITEM2" {
		t.Errorf("sale return item ref = %q", got)
	}

	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	if got := EditReference("PURCHASE-PUR0001-ITEM7", "IN", at); got != "PURCHASE-PUR0001-ITEM7-EDIT-IN-20250314092653" {
		t.Errorf("edit ref = %q", got)
	}
	if got := EditReference("SALE-SAL0002-ITEM3", "DELETE", at); got != "SALE-SAL0002-ITEM3-EDIT-DELETE-20250314092653" {
		t.Errorf("edit delete ref = %q", got)
	}

	if got := DeleteReference(DocumentTypePurchase, "PUR0001", 7); got != "RETURN-DELETE-PURCHASE-PUR0001-ITEM7" {
		t.Errorf("delete ref = %q", got)
	}
	if got := DeleteReference(DocumentTypeSale, "SAL0002", 3); got != "RETURN-DELETE-SALE-SAL0002-ITEM3" {
		t.Errorf("sale delete ref = %q", got)
	}
	if got := ReturnCancelReference("PRET0001", 9); got != "RETURN-CANCEL-PRET0001-ITEM9" {
		t.Errorf("return cancel ref = %q", got)
	}
}
