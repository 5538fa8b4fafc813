package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDerivePaymentStatus(t *testing.T) {
	cases := []struct {
		total, paid string
		want        PaymentStatus
	}{
		{"1000", "0", PaymentStatusUnpaid},
		{"1000", "400", PaymentStatusPartiallyPaid},
		{"1000", "1000", PaymentStatusPaid},
		{"1000", "1200", PaymentStatusPaid},
		{"0", "0", PaymentStatusPaid},
	}
	for _, c := range cases {
		got := DerivePaymentStatus(dec(c.total), dec(c.paid))
		if got != c.want {
			t.Errorf("DerivePaymentStatus(%s, %s) = %s, want %s", c.total, c.paid, got, c.want)
		}
	}
}

func TestCreationBalanceDelta(t *testing.T) {
	if got := CreationBalanceDelta(PaymentMethodCredit, dec("1000"), decimal.Zero); !got.Equal(dec("1000")) {
		t.Errorf("credit creation delta = %s, want 1000", got)
	}
	if got := CreationBalanceDelta(PaymentMethodCash, dec("1000"), decimal.Zero); !got.Equal(dec("1000")) {
		t.Errorf("cash unpaid creation delta = %s, want 1000", got)
	}
	if got := CreationBalanceDelta(PaymentMethodCash, dec("1000"), dec("1000")); !got.IsZero() {
		t.Errorf("cash fully paid creation delta = %s, want 0", got)
	}
	if got := CreationBalanceDelta(PaymentMethodCash, dec("1000"), dec("400")); !got.Equal(dec("600")) {
		t.Errorf("cash partially paid creation delta = %s, want 600", got)
	}
}

func snap(method PaymentMethod, total string, status PaymentStatus) DocumentSnapshot {
	return DocumentSnapshot{Method: method, Total: dec(total), Status: status}
}

func TestBalanceDeltaUnchangedSaveIsZero(t *testing.T) {
	for _, method := range []PaymentMethod{PaymentMethodCash, PaymentMethodCredit} {
		for _, status := range []PaymentStatus{PaymentStatusUnpaid, PaymentStatusPartiallyPaid, PaymentStatusPaid} {
			s := snap(method, "1000", status)
			if got := BalanceDelta(s, s, dec("400")); !got.IsZero() {
				t.Errorf("unchanged %s/%s save delta = %s, want 0", method, status, got)
			}
		}
	}
}

func TestBalanceDeltaCreditToCash(t *testing.T) {
	// unpaid: remove the credit total, owe the unpaid cash remainder; nets zero
	old := snap(PaymentMethodCredit, "1000", PaymentStatusUnpaid)
	new_ := snap(PaymentMethodCash, "1000", PaymentStatusUnpaid)
	if got := BalanceDelta(old, new_, decimal.Zero); !got.IsZero() {
		t.Errorf("credit->cash unpaid delta = %s, want 0", got)
	}

	// fully paid: remove the total, add back nothing
	new_ = snap(PaymentMethodCash, "1000", PaymentStatusPaid)
	if got := BalanceDelta(old, new_, dec("1000")); !got.Equal(dec("-1000")) {
		t.Errorf("credit->cash paid delta = %s, want -1000", got)
	}

	// partially paid: remove the total, add back what is still due
	new_ = snap(PaymentMethodCash, "1000", PaymentStatusPartiallyPaid)
	if got := BalanceDelta(old, new_, dec("400")); !got.Equal(dec("-400")) {
		t.Errorf("credit->cash partial delta = %s, want -400", got)
	}
}

func TestBalanceDeltaCashToCredit(t *testing.T) {
	// unpaid cash: remove what was due (the whole total), owe the full total
	old := snap(PaymentMethodCash, "1000", PaymentStatusUnpaid)
	new_ := snap(PaymentMethodCredit, "1000", PaymentStatusUnpaid)
	if got := BalanceDelta(old, new_, decimal.Zero); !got.IsZero() {
		t.Errorf("cash->credit unpaid delta = %s, want 0", got)
	}

	// settled cash: nothing was due, the full total becomes owed
	old = snap(PaymentMethodCash, "1000", PaymentStatusPaid)
	new_ = snap(PaymentMethodCredit, "1000", PaymentStatusPaid)
	if got := BalanceDelta(old, new_, dec("1000")); !got.Equal(dec("1000")) {
		t.Errorf("cash->credit paid delta = %s, want 1000", got)
	}

	// partial: remove the remainder, owe the full total
	old = snap(PaymentMethodCash, "1000", PaymentStatusPartiallyPaid)
	new_ = snap(PaymentMethodCredit, "1000", PaymentStatusPartiallyPaid)
	if got := BalanceDelta(old, new_, dec("400")); !got.Equal(dec("400")) {
		t.Errorf("cash->credit partial delta = %s, want 400", got)
	}
}

func TestBalanceDeltaTotalChange(t *testing.T) {
	// credit: plain difference
	old := snap(PaymentMethodCredit, "1000", PaymentStatusUnpaid)
	new_ := snap(PaymentMethodCredit, "1300", PaymentStatusUnpaid)
	if got := BalanceDelta(old, new_, decimal.Zero); !got.Equal(dec("300")) {
		t.Errorf("credit total change delta = %s, want 300", got)
	}

	// cash partial -> still partial: (paid - oldTotal) + newDue
	old = snap(PaymentMethodCash, "1000", PaymentStatusPartiallyPaid)
	new_ = snap(PaymentMethodCash, "1200", PaymentStatusPartiallyPaid)
	if got := BalanceDelta(old, new_, dec("400")); !got.Equal(dec("200")) {
		t.Errorf("cash total change delta = %s, want 200", got)
	}

	// cash total change landing on fully paid adjusts nothing
	old = snap(PaymentMethodCash, "1000", PaymentStatusPartiallyPaid)
	new_ = snap(PaymentMethodCash, "400", PaymentStatusPaid)
	if got := BalanceDelta(old, new_, dec("400")); !got.IsZero() {
		t.Errorf("cash total change to paid delta = %s, want 0", got)
	}

	// cash previously paid, total raised, due again: just the new remainder
	old = snap(PaymentMethodCash, "400", PaymentStatusPaid)
	new_ = snap(PaymentMethodCash, "1000", PaymentStatusPartiallyPaid)
	if got := BalanceDelta(old, new_, dec("400")); !got.Equal(dec("600")) {
		t.Errorf("cash reopened by total change delta = %s, want 600", got)
	}
}

func TestBalanceDeltaStatusOnly(t *testing.T) {
	// unpaid -> partially paid
	old := snap(PaymentMethodCash, "1000", PaymentStatusUnpaid)
	new_ := snap(PaymentMethodCash, "1000", PaymentStatusPartiallyPaid)
	if got := BalanceDelta(old, new_, dec("400")); !got.Equal(dec("600")) {
		t.Errorf("unpaid->partial delta = %s, want 600", got)
	}

	// partially paid -> paid
	old = snap(PaymentMethodCash, "1000", PaymentStatusPartiallyPaid)
	new_ = snap(PaymentMethodCash, "1000", PaymentStatusPaid)
	if got := BalanceDelta(old, new_, dec("1000")); !got.IsZero() {
		t.Errorf("partial->paid delta = %s, want 0", got)
	}

	// reopened: the remainder is owed again
	old = snap(PaymentMethodCash, "1000", PaymentStatusPaid)
	new_ = snap(PaymentMethodCash, "1000", PaymentStatusPartiallyPaid)
	if got := BalanceDelta(old, new_, dec("400")); !got.Equal(dec("600")) {
		t.Errorf("reopened delta = %s, want 600", got)
	}

	// credit documents are never adjusted on status-only changes
	old = snap(PaymentMethodCredit, "1000", PaymentStatusUnpaid)
	new_ = snap(PaymentMethodCredit, "1000", PaymentStatusPaid)
	if got := BalanceDelta(old, new_, dec("1000")); !got.IsZero() {
		t.Errorf("credit status-only delta = %s, want 0", got)
	}
}

func TestBalanceDeltaMethodChangeWinsOverTotalChange(t *testing.T) {
	// both method and total change: only the method branch fires
	old := snap(PaymentMethodCredit, "1000", PaymentStatusUnpaid)
	new_ := snap(PaymentMethodCash, "1500", PaymentStatusUnpaid)
	// -1000 (old credit total) + 1500 (new cash due)
	if got := BalanceDelta(old, new_, decimal.Zero); !got.Equal(dec("500")) {
		t.Errorf("method+total change delta = %s, want 500", got)
	}
}

// Full walk of the documented flow: a credit purchase switched to cash while
// unpaid, then settled. The switch itself must not move the balance; the
// payment decrement is applied by the payment path, not by these branches.
func TestBalanceLifecycleCreditSwitchThenPay(t *testing.T) {
	balance := decimal.Zero

	// creation
	balance = balance.Add(CreationBalanceDelta(PaymentMethodCredit, dec("1000"), decimal.Zero))
	if !balance.Equal(dec("1000")) {
		t.Fatalf("after creation balance = %s, want 1000", balance)
	}

	// switch to cash while unpaid
	old := snap(PaymentMethodCredit, "1000", PaymentStatusUnpaid)
	new_ := snap(PaymentMethodCash, "1000", PaymentStatusUnpaid)
	balance = balance.Add(BalanceDelta(old, new_, decimal.Zero))
	if !balance.Equal(dec("1000")) {
		t.Fatalf("after switch balance = %s, want 1000", balance)
	}

	// payment path: unconditional decrement
	balance = balance.Sub(dec("1000"))
	if !balance.IsZero() {
		t.Fatalf("after payment balance = %s, want 0", balance)
	}
}
