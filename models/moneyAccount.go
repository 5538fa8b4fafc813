package models

import (
	"context"
	"errors"
	"time"

	"github.com/mwhebadata/erp_backend/config"
	"github.com/mwhebadata/erp_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MoneyAccount is a cash or bank account that payments settle against.
type MoneyAccount struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Name      string          `gorm:"size:191;not null" json:"name"`
	Code      string          `gorm:"size:30;uniqueIndex" json:"code"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance"`
	IsActive  *bool           `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// AccountTransaction journals every balance change on a money account.
type AccountTransaction struct {
	ID            int                    `gorm:"primary_key" json:"id"`
	AccountId     int                    `gorm:"not null;index" json:"accountId"`
	Account       *MoneyAccount          `json:"account,omitempty"`
	Type          AccountTransactionType `gorm:"size:20;not null" json:"type"`
	Amount        decimal.Decimal        `gorm:"type:decimal(20,4);not null" json:"amount"`
	BalanceAfter  decimal.Decimal        `gorm:"type:decimal(20,4);not null" json:"balanceAfter"`
	ReferenceType DocumentType           `gorm:"size:30" json:"referenceType"`
	ReferenceNo   string                 `gorm:"size:50" json:"referenceNo"`
	Notes         string                 `gorm:"type:text" json:"notes"`
	CreatedBy     int                    `json:"createdBy"`
	CreatedAt     time.Time              `json:"createdAt"`
}

type NewMoneyAccount struct {
	Name     string          `json:"name" binding:"required"`
	Code     string          `json:"code" binding:"required"`
	Balance  decimal.Decimal `json:"balance"`
	IsActive *bool           `json:"isActive"`
}

func CreateMoneyAccount(ctx context.Context, input NewMoneyAccount) (*MoneyAccount, error) {
	if input.Balance.IsNegative() {
		return nil, errors.New("opening balance cannot be negative")
	}
	if err := utils.ValidateUnique[MoneyAccount](ctx, "code", input.Code, 0); err != nil {
		return nil, err
	}

	account := MoneyAccount{
		Name:     input.Name,
		Code:     input.Code,
		Balance:  input.Balance,
		IsActive: input.IsActive,
	}
	if account.IsActive == nil {
		account.IsActive = utils.NewTrue()
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func FetchMoneyAccount(ctx context.Context, id int) (*MoneyAccount, error) {
	return utils.FetchModel[MoneyAccount](ctx, id)
}

func FetchMoneyAccounts(ctx context.Context) ([]*MoneyAccount, error) {
	return utils.FetchAllModels[MoneyAccount](ctx)
}

// PostAccountTransaction moves a money account balance inside the caller's
// transaction and journals the change. Withdrawals clamp the balance at zero
// rather than overdrawing the account.
func PostAccountTransaction(tx *gorm.DB, accountId int, txnType AccountTransactionType,
	amount decimal.Decimal, referenceType DocumentType, referenceNo string, createdBy int) (*AccountTransaction, error) {

	if !amount.GreaterThan(decimal.Zero) {
		return nil, errors.New("transaction amount must be positive")
	}

	var account MoneyAccount
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", accountId).First(&account).Error
	if err == gorm.ErrRecordNotFound {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	var after decimal.Decimal
	switch txnType {
	case AccountTransactionTypeDeposit:
		after = account.Balance.Add(amount)
	case AccountTransactionTypeWithdrawal:
		after = account.Balance.Sub(amount)
		if after.IsNegative() {
			after = decimal.Zero
		}
	default:
		return nil, errors.New("invalid transaction type")
	}

	if err := tx.Model(&MoneyAccount{}).Where("id = ?", accountId).
		Update("balance", after).Error; err != nil {
		return nil, err
	}

	txn := AccountTransaction{
		AccountId:     accountId,
		Type:          txnType,
		Amount:        amount,
		BalanceAfter:  after,
		ReferenceType: referenceType,
		ReferenceNo:   referenceNo,
		CreatedBy:     createdBy,
	}
	if err := tx.Create(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}
