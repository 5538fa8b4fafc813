package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DocumentSnapshot captures the balance-relevant state of a purchase or sale.
// Old snapshots carry the persisted state before the current save; new
// snapshots carry the incoming state with Status already derived via
// DerivePaymentStatus. Passing both explicitly keeps the counterparty balance
// writer a pure function of its inputs instead of hidden instance state.
type DocumentSnapshot struct {
	Method PaymentMethod
	Total  decimal.Decimal
	Status PaymentStatus
}

// DerivePaymentStatus derives the payment state from amounts:
// paid when nothing remains due, partially_paid when some but not all is paid.
func DerivePaymentStatus(total, amountPaid decimal.Decimal) PaymentStatus {
	if total.Sub(amountPaid).LessThanOrEqual(decimal.Zero) {
		return PaymentStatusPaid
	}
	if amountPaid.GreaterThan(decimal.Zero) {
		return PaymentStatusPartiallyPaid
	}
	return PaymentStatusUnpaid
}

// CreationBalanceDelta is the amount a freshly created document adds to its
// counterparty's balance: the full total for credit documents, the unpaid
// remainder for cash documents.
func CreationBalanceDelta(method PaymentMethod, total, amountPaid decimal.Decimal) decimal.Decimal {
	if method == PaymentMethodCredit {
		return total
	}
	amountDue := total.Sub(amountPaid)
	if amountDue.GreaterThan(decimal.Zero) {
		return amountDue
	}
	return decimal.Zero
}

// BalanceDelta computes the counterparty balance adjustment for a document
// save, comparing the previously persisted state against the new one.
// amountPaid is the confirmed payment sum at evaluation time; newDoc.Status
// must equal DerivePaymentStatus(newDoc.Total, amountPaid).
//
// The branches form a priority chain: a payment-method change wins over a
// total change, which wins over a status-only change. At most one branch
// fires per save, so re-saving an unchanged document yields zero.
//
// Credit documents are never adjusted on status-only changes: their full
// total is counted as owed regardless of payment progress.
func BalanceDelta(oldDoc, newDoc DocumentSnapshot, amountPaid decimal.Decimal) decimal.Decimal {
	amountDue := newDoc.Total.Sub(amountPaid)
	delta := decimal.Zero

	switch {
	case oldDoc.Method == PaymentMethodCredit && newDoc.Method == PaymentMethodCash:
		// The full credit total was owed; only the unpaid cash remainder stays.
		delta = oldDoc.Total.Neg()
		if newDoc.Status != PaymentStatusPaid {
			delta = delta.Add(amountDue)
		}

	case oldDoc.Method == PaymentMethodCash && newDoc.Method == PaymentMethodCredit:
		// Remove what was still due as cash (zero if settled), owe the full total.
		if oldDoc.Status != PaymentStatusPaid {
			delta = amountPaid.Sub(oldDoc.Total)
		}
		delta = delta.Add(newDoc.Total)

	case !oldDoc.Total.Equal(newDoc.Total) && newDoc.Method == PaymentMethodCredit:
		delta = newDoc.Total.Sub(oldDoc.Total)

	case !oldDoc.Total.Equal(newDoc.Total) && newDoc.Method == PaymentMethodCash:
		if newDoc.Status != PaymentStatusPaid {
			if oldDoc.Status != PaymentStatusPaid {
				delta = amountPaid.Sub(oldDoc.Total)
			}
			delta = delta.Add(amountDue)
		}

	case oldDoc.Status != newDoc.Status && newDoc.Method == PaymentMethodCash:
		switch {
		case oldDoc.Status == PaymentStatusUnpaid && newDoc.Status == PaymentStatusPartiallyPaid:
			delta = amountDue
		case oldDoc.Status == PaymentStatusPartiallyPaid && newDoc.Status == PaymentStatusPaid:
			delta = amountPaid.Sub(oldDoc.Total)
		case oldDoc.Status == PaymentStatusPaid:
			// Reopened: what remains due is owed again.
			delta = amountDue
		}
	}

	return delta
}

// ApplyCustomerBalanceDelta adjusts a customer's running balance atomically
// in the database. No read-modify-write: concurrent deltas serialize on the
// row update instead of overwriting each other.
func ApplyCustomerBalanceDelta(tx *gorm.DB, customerId int, delta decimal.Decimal) error {
	return applyBalanceDelta(tx, &Customer{}, customerId, delta)
}

// ApplySupplierBalanceDelta adjusts a supplier's running balance atomically.
func ApplySupplierBalanceDelta(tx *gorm.DB, supplierId int, delta decimal.Decimal) error {
	return applyBalanceDelta(tx, &Supplier{}, supplierId, delta)
}

func applyBalanceDelta(tx *gorm.DB, model interface{}, id int, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	return tx.Model(model).Where("id = ?", id).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta)).Error
}
