package models

import (
	"context"
	"errors"
	"time"

	"github.com/mwhebadata/erp_backend/config"
	"github.com/mwhebadata/erp_backend/utils"
	"github.com/shopspring/decimal"
)

// Supplier is a purchasing counterparty. Balance is the running amount owed
// to the supplier, maintained by the reconciliation engine; it is never
// written directly by handlers.
type Supplier struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Name        string          `gorm:"size:191;not null" json:"name"`
	Code        string          `gorm:"size:30;uniqueIndex" json:"code"`
	Phone       string          `gorm:"size:30" json:"phone"`
	Email       string          `gorm:"size:191" json:"email"`
	TaxNumber   string          `gorm:"size:50" json:"taxNumber"`
	Address     string          `gorm:"type:text" json:"address"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"creditLimit"`
	Balance     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance"`
	IsActive    *bool           `gorm:"default:true" json:"isActive"`
	Notes       string          `gorm:"type:text" json:"notes"`
	CreatedBy   int             `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// AvailableCredit is the remaining headroom under the credit limit.
func (s *Supplier) AvailableCredit() decimal.Decimal {
	return s.CreditLimit.Sub(s.Balance)
}

type NewSupplier struct {
	Name        string          `json:"name" binding:"required"`
	Code        string          `json:"code" binding:"required"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	TaxNumber   string          `json:"taxNumber"`
	Address     string          `json:"address"`
	CreditLimit decimal.Decimal `json:"creditLimit"`
	IsActive    *bool           `json:"isActive"`
	Notes       string          `json:"notes"`
}

func CreateSupplier(ctx context.Context, input NewSupplier) (*Supplier, error) {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, errors.New("invalid email")
	}
	if input.CreditLimit.IsNegative() {
		return nil, errors.New("credit limit cannot be negative")
	}
	if err := utils.ValidateUnique[Supplier](ctx, "code", input.Code, 0); err != nil {
		return nil, err
	}

	supplier := Supplier{
		Name:        input.Name,
		Code:        input.Code,
		Phone:       input.Phone,
		Email:       input.Email,
		TaxNumber:   input.TaxNumber,
		Address:     input.Address,
		CreditLimit: input.CreditLimit,
		Balance:     decimal.Zero,
		IsActive:    input.IsActive,
		Notes:       input.Notes,
		CreatedBy:   utils.CurrentUserId(ctx),
	}
	if supplier.IsActive == nil {
		supplier.IsActive = utils.NewTrue()
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// UpdateSupplier edits master data only. Balance belongs to the posting
// paths; writing it here would revert deltas committed since the fetch.
func UpdateSupplier(ctx context.Context, id int, input NewSupplier) (*Supplier, error) {
	if err := utils.ValidateResourceId[Supplier](ctx, id); err != nil {
		return nil, err
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, errors.New("invalid email")
	}
	if input.CreditLimit.IsNegative() {
		return nil, errors.New("credit limit cannot be negative")
	}
	if err := utils.ValidateUnique[Supplier](ctx, "code", input.Code, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":         input.Name,
		"code":         input.Code,
		"phone":        input.Phone,
		"email":        input.Email,
		"tax_number":   input.TaxNumber,
		"address":      input.Address,
		"credit_limit": input.CreditLimit,
		"notes":        input.Notes,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&Supplier{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return utils.FetchModel[Supplier](ctx, id)
}

// DeleteSupplier refuses while purchases reference the supplier; the document
// history would dangle otherwise.
func DeleteSupplier(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Supplier](ctx, id); err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[Purchase](ctx, "supplier_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("supplier has purchase documents and cannot be deleted")
	}

	db := config.GetDB()
	return db.WithContext(ctx).Delete(&Supplier{}, id).Error
}

func FetchSupplier(ctx context.Context, id int) (*Supplier, error) {
	return utils.FetchModel[Supplier](ctx, id)
}

func FetchSuppliers(ctx context.Context) ([]*Supplier, error) {
	return utils.FetchAllModels[Supplier](ctx)
}
