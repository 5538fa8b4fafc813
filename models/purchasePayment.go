package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwhebadata/erp_backend/config"
	"github.com/mwhebadata/erp_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchasePayment is an append-only ledger row against a purchase. Payments
// are never edited; corrections are posted as new documents.
type PurchasePayment struct {
	ID          int             `gorm:"primary_key" json:"id"`
	PurchaseId  int             `gorm:"not null;index" json:"purchaseId"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	PaymentMode PaymentMode     `gorm:"size:20;not null" json:"paymentMode"`
	AccountId   *int            `json:"accountId"`
	Reference   string          `gorm:"size:100" json:"reference"`
	Notes       string          `gorm:"type:text" json:"notes"`
	CreatedBy   int             `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type NewPurchasePayment struct {
	Date        time.Time       `json:"date" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PaymentMode PaymentMode     `json:"paymentMode" binding:"required"`
	AccountId   *int            `json:"accountId"`
	Reference   string          `json:"reference"`
	Notes       string          `json:"notes"`
}

// AddPurchasePayment records a payment against a purchase: ledger row, the
// unconditional supplier balance decrement, the derived status update and an
// optional money account withdrawal, all in one transaction.
//
// A payment above the amount due is clamped to the due amount (with a
// warning) unless strict limits are enabled, in which case it is rejected.
// The status update does not re-run the balance branches; the decrement
// already accounts for the payment and doubling it would corrupt the balance.
func AddPurchasePayment(ctx context.Context, purchaseId int, input NewPurchasePayment) (*PurchasePayment, string, error) {
	logger := config.GetLogger()

	purchase, err := utils.FetchModel[Purchase](ctx, purchaseId, "Payments")
	if err != nil {
		return nil, "", err
	}
	if !input.Amount.GreaterThan(decimal.Zero) {
		return nil, "", errors.New("payment amount must be positive")
	}
	if !input.PaymentMode.Valid() {
		return nil, "", errors.New("invalid payment mode")
	}
	if input.AccountId != nil {
		if err := utils.ValidateResourceId[MoneyAccount](ctx, *input.AccountId); err != nil {
			return nil, "", errors.New("money account not found")
		}
	}

	due := purchase.AmountDue()
	if !due.GreaterThan(decimal.Zero) {
		return nil, "", errors.New("purchase is already fully paid")
	}

	warning := ""
	amount := input.Amount
	if amount.GreaterThan(due) {
		if config.StrictLimits() {
			return nil, "", fmt.Errorf("payment %s exceeds amount due %s", amount, due)
		}
		warning = fmt.Sprintf("payment reduced from %s to the amount due %s", amount, due)
		amount = due
	}

	release, err := utils.PostingLock(ctx, "purchase", moduleName, "AddPurchasePayment")
	if err != nil {
		return nil, "", err
	}
	defer release()

	userId := utils.CurrentUserId(ctx)
	payment := PurchasePayment{
		PurchaseId:  purchase.ID,
		Date:        input.Date,
		Amount:      amount,
		PaymentMode: input.PaymentMode,
		AccountId:   input.AccountId,
		Reference:   input.Reference,
		Notes:       input.Notes,
		CreatedBy:   userId,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, "purchase"); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, "purchase")

		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		newStatus := DerivePaymentStatus(purchase.Total, purchase.AmountPaid().Add(amount))
		if err := tx.Model(&Purchase{}).Where("id = ?", purchase.ID).
			Update("payment_status", newStatus).Error; err != nil {
			return err
		}

		if err := ApplySupplierBalanceDelta(tx, purchase.SupplierId, amount.Neg()); err != nil {
			return err
		}

		if input.AccountId != nil {
			_, err := PostAccountTransaction(tx, *input.AccountId,
				AccountTransactionTypeWithdrawal, amount,
				DocumentTypePurchase, purchase.Number, userId)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		config.LogError(logger, moduleName, "AddPurchasePayment", "posting failed", purchaseId, err)
		return nil, "", err
	}
	return &payment, warning, nil
}

func FetchPurchasePayments(ctx context.Context, purchaseId int) ([]PurchasePayment, error) {
	db := config.GetDB()
	var payments []PurchasePayment
	err := db.WithContext(ctx).Where("purchase_id = ?", purchaseId).
		Order("id asc").Find(&payments).Error
	return payments, err
}
