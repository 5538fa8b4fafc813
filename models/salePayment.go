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

// SalePayment is the receivable-side ledger row. Same append-only discipline
// as PurchasePayment; money flows into the account instead of out.
type SalePayment struct {
	ID          int             `gorm:"primary_key" json:"id"`
	SaleId      int             `gorm:"not null;index" json:"saleId"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	PaymentMode PaymentMode     `gorm:"size:20;not null" json:"paymentMode"`
	AccountId   *int            `json:"accountId"`
	Reference   string          `gorm:"size:100" json:"reference"`
	Notes       string          `gorm:"type:text" json:"notes"`
	CreatedBy   int             `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type NewSalePayment struct {
	Date        time.Time       `json:"date" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PaymentMode PaymentMode     `json:"paymentMode" binding:"required"`
	AccountId   *int            `json:"accountId"`
	Reference   string          `json:"reference"`
	Notes       string          `json:"notes"`
}

// AddSalePayment records a customer payment: ledger row, unconditional
// customer balance decrement, derived status update and an optional money
// account deposit, in one transaction. Over-payments clamp to the amount due
// unless strict limits reject them.
func AddSalePayment(ctx context.Context, saleId int, input NewSalePayment) (*SalePayment, string, error) {
	logger := config.GetLogger()

	sale, err := utils.FetchModel[Sale](ctx, saleId, "Payments")
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

	due := sale.AmountDue()
	if !due.GreaterThan(decimal.Zero) {
		return nil, "", errors.New("sale is already fully paid")
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

	release, err := utils.PostingLock(ctx, "sale", moduleName, "AddSalePayment")
	if err != nil {
		return nil, "", err
	}
	defer release()

	userId := utils.CurrentUserId(ctx)
	payment := SalePayment{
		SaleId:      sale.ID,
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
		if err := AcquirePostingLock(tx, "sale"); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, "sale")

		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		newStatus := DerivePaymentStatus(sale.Total, sale.AmountPaid().Add(amount))
		if err := tx.Model(&Sale{}).Where("id = ?", sale.ID).
			Update("payment_status", newStatus).Error; err != nil {
			return err
		}

		if err := ApplyCustomerBalanceDelta(tx, sale.CustomerId, amount.Neg()); err != nil {
			return err
		}

		if input.AccountId != nil {
			_, err := PostAccountTransaction(tx, *input.AccountId,
				AccountTransactionTypeDeposit, amount,
				DocumentTypeSale, sale.Number, userId)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		config.LogError(logger, moduleName, "AddSalePayment", "posting failed", saleId, err)
		return nil, "", err
	}
	return &payment, warning, nil
}

func FetchSalePayments(ctx context.Context, saleId int) ([]SalePayment, error) {
	db := config.GetDB()
	var payments []SalePayment
	err := db.WithContext(ctx).Where("sale_id = ?", saleId).
		Order("id asc").Find(&payments).Error
	return payments, err
}
