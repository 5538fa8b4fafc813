package models

import (
	"context"
	"errors"
	"time"

	"github.com/mwhebadata/erp_backend/config"
	"github.com/mwhebadata/erp_backend/utils"
	"github.com/shopspring/decimal"
)

// Customer is a sales counterparty. Balance is the running amount the
// customer owes, maintained by the reconciliation engine.
type Customer struct {
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

func (c *Customer) AvailableCredit() decimal.Decimal {
	return c.CreditLimit.Sub(c.Balance)
}

type NewCustomer struct {
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

func CreateCustomer(ctx context.Context, input NewCustomer) (*Customer, error) {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, errors.New("invalid email")
	}
	if input.CreditLimit.IsNegative() {
		return nil, errors.New("credit limit cannot be negative")
	}
	if err := utils.ValidateUnique[Customer](ctx, "code", input.Code, 0); err != nil {
		return nil, err
	}

	customer := Customer{
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
	if customer.IsActive == nil {
		customer.IsActive = utils.NewTrue()
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// UpdateCustomer edits master data only. Balance belongs to the posting
// paths; writing it here would revert deltas committed since the fetch.
func UpdateCustomer(ctx context.Context, id int, input NewCustomer) (*Customer, error) {
	if err := utils.ValidateResourceId[Customer](ctx, id); err != nil {
		return nil, err
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, errors.New("invalid email")
	}
	if input.CreditLimit.IsNegative() {
		return nil, errors.New("credit limit cannot be negative")
	}
	if err := utils.ValidateUnique[Customer](ctx, "code", input.Code, id); err != nil {
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
	if err := db.WithContext(ctx).Model(&Customer{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return utils.FetchModel[Customer](ctx, id)
}

func DeleteCustomer(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Customer](ctx, id); err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[Sale](ctx, "customer_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("customer has sale documents and cannot be deleted")
	}

	db := config.GetDB()
	return db.WithContext(ctx).Delete(&Customer{}, id).Error
}

func FetchCustomer(ctx context.Context, id int) (*Customer, error) {
	return utils.FetchModel[Customer](ctx, id)
}

func FetchCustomers(ctx context.Context) ([]*Customer, error) {
	return utils.FetchAllModels[Customer](ctx)
}
