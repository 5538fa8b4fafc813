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

// PurchaseReturn sends goods back to the supplier. Draft is the only
// non-terminal state; confirmed and cancelled returns never change again.
type PurchaseReturn struct {
	ID         int                  `gorm:"primary_key" json:"id"`
	Number     string               `gorm:"size:30;not null;uniqueIndex" json:"number"`
	PurchaseId int                  `gorm:"not null;index" json:"purchaseId"`
	Purchase   *Purchase            `json:"purchase,omitempty"`
	Date       time.Time            `json:"date"`
	Status     ReturnStatus         `gorm:"size:20;not null;default:draft" json:"status"`
	Total      decimal.Decimal      `gorm:"type:decimal(20,4);not null" json:"total"`
	Reason     string               `gorm:"type:text" json:"reason"`
	CreatedBy  int                  `json:"createdBy"`
	CreatedAt  time.Time            `json:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt"`
	Items      []PurchaseReturnItem `json:"items,omitempty"`
}

type PurchaseReturnItem struct {
	ID               int             `gorm:"primary_key" json:"id"`
	PurchaseReturnId int             `gorm:"not null;index" json:"purchaseReturnId"`
	ProductId        int             `gorm:"not null;index" json:"productId"`
	Product          *Product        `json:"product,omitempty"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unitPrice"`
	Total            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
}

type NewPurchaseReturnItem struct {
	ProductId int `json:"productId" binding:"required"`
	Quantity  int `json:"quantity" binding:"required"`
}

type NewPurchaseReturn struct {
	Date   time.Time               `json:"date" binding:"required"`
	Reason string                  `json:"reason"`
	Items  []NewPurchaseReturnItem `json:"items" binding:"required,min=1,dive"`
}

// returnedPurchaseQty sums quantities already claimed by draft or confirmed
// returns of the purchase for one product. Cancelled returns release their
// claim.
func returnedPurchaseQty(tx *gorm.DB, purchaseId, productId int) (int, error) {
	var total int
	err := tx.Raw(`SELECT COALESCE(SUM(pri.quantity), 0)
		FROM purchase_return_items pri
		JOIN purchase_returns pr ON pr.id = pri.purchase_return_id
		WHERE pr.purchase_id = ? AND pri.product_id = ? AND pr.status IN (?, ?)`,
		purchaseId, productId, ReturnStatusDraft, ReturnStatusConfirmed).Scan(&total).Error
	return total, err
}

// CreatePurchaseReturn drafts a return against a purchase. Each line is
// capped at the purchased quantity minus what earlier draft or confirmed
// returns already claim; over-asks are clamped with a warning (or rejected
// under strict limits), lines with nothing left to return are skipped. When
// no line survives, nothing is written.
//
// Outgoing stock movements post at draft time so the journal reflects goods
// leaving as soon as the return exists; cancellation compensates.
func CreatePurchaseReturn(ctx context.Context, purchaseId int, input NewPurchaseReturn) (*PurchaseReturn, []string, error) {
	logger := config.GetLogger()

	purchase, err := utils.FetchModel[Purchase](ctx, purchaseId, "Items")
	if err != nil {
		return nil, nil, err
	}

	itemsByProduct := make(map[int]PurchaseItem, len(purchase.Items))
	for _, item := range purchase.Items {
		itemsByProduct[item.ProductId] = item
	}
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, nil, errors.New("return quantity must be positive")
		}
		if _, ok := itemsByProduct[line.ProductId]; !ok {
			return nil, nil, fmt.Errorf("product %d is not on purchase %s", line.ProductId, purchase.Number)
		}
	}

	release, err := utils.PostingLock(ctx, "purchase", moduleName, "CreatePurchaseReturn")
	if err != nil {
		return nil, nil, err
	}
	defer release()

	userId := utils.CurrentUserId(ctx)
	var warnings []string
	var ret PurchaseReturn

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, "purchase"); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, "purchase")

		type validLine struct {
			purchaseItem PurchaseItem
			quantity     int
		}
		var lines []validLine
		total := decimal.Zero

		for _, line := range input.Items {
			purchaseItem := itemsByProduct[line.ProductId]
			alreadyReturned, err := returnedPurchaseQty(tx, purchase.ID, line.ProductId)
			if err != nil {
				return err
			}
			returnable := purchaseItem.Quantity - alreadyReturned

			quantity := line.Quantity
			if quantity > returnable {
				if config.StrictLimits() {
					return fmt.Errorf("cannot return %d of product %d, only %d returnable",
						quantity, line.ProductId, returnable)
				}
				warnings = append(warnings, fmt.Sprintf(
					"product %d: return reduced from %d to %d", line.ProductId, quantity, returnable))
				quantity = returnable
			}
			if quantity <= 0 {
				warnings = append(warnings, fmt.Sprintf(
					"product %d: nothing left to return, line skipped", line.ProductId))
				continue
			}

			lines = append(lines, validLine{purchaseItem: purchaseItem, quantity: quantity})
			total = total.Add(decimal.NewFromInt(int64(quantity)).Mul(purchaseItem.UnitPrice))
		}

		if len(lines) == 0 {
			return errors.New("no returnable quantity on any line")
		}

		number, err := NextDocumentNumber(tx, "purchase_return")
		if err != nil {
			return err
		}

		ret = PurchaseReturn{
			Number:     number,
			PurchaseId: purchase.ID,
			Date:       input.Date,
			Status:     ReturnStatusDraft,
			Total:      total,
			Reason:     input.Reason,
			CreatedBy:  userId,
		}
		for _, line := range lines {
			ret.Items = append(ret.Items, PurchaseReturnItem{
				ProductId: line.purchaseItem.ProductId,
				Quantity:  line.quantity,
				UnitPrice: line.purchaseItem.UnitPrice,
				Total:     decimal.NewFromInt(int64(line.quantity)).Mul(line.purchaseItem.UnitPrice),
			})
		}
		if err := tx.Create(&ret).Error; err != nil {
			return err
		}

		for _, item := range ret.Items {
			if _, err := PostStockMovement(tx, MovementInput{
				ProductId:       item.ProductId,
				WarehouseId:     purchase.WarehouseId,
				MovementType:    MovementTypeReturnOut,
				Quantity:        item.Quantity,
				ReferenceNumber: ItemReference(DocumentTypePurchaseReturn, ret.Number, item.ID),
				DocumentType:    DocumentTypePurchaseReturn,
				DocumentNumber:  ret.Number,
				CreatedBy:       userId,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		config.LogError(logger, moduleName, "CreatePurchaseReturn", "posting failed", purchaseId, err)
		return nil, nil, err
	}
	return &ret, warnings, nil
}

// ConfirmPurchaseReturn finalizes a draft return. Stock already moved at
// draft time; confirmation locks the claim in.
func ConfirmPurchaseReturn(ctx context.Context, id int) (*PurchaseReturn, error) {
	return transitionPurchaseReturn(ctx, id, ReturnStatusConfirmed)
}

// CancelPurchaseReturn voids a draft return. The goods come back in with
// compensating movements unless reversal is disabled.
func CancelPurchaseReturn(ctx context.Context, id int) (*PurchaseReturn, error) {
	return transitionPurchaseReturn(ctx, id, ReturnStatusCancelled)
}

func transitionPurchaseReturn(ctx context.Context, id int, target ReturnStatus) (*PurchaseReturn, error) {
	logger := config.GetLogger()

	ret, err := utils.FetchModel[PurchaseReturn](ctx, id, "Items", "Purchase")
	if err != nil {
		return nil, err
	}
	if ret.Status != ReturnStatusDraft {
		return nil, fmt.Errorf("return %s is %s, only draft returns can change state", ret.Number, ret.Status)
	}

	release, err := utils.PostingLock(ctx, "purchase", moduleName, "transitionPurchaseReturn")
	if err != nil {
		return nil, err
	}
	defer release()

	userId := utils.CurrentUserId(ctx)

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, "purchase"); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, "purchase")

		// guard against a concurrent transition
		result := tx.Model(&PurchaseReturn{}).
			Where("id = ? AND status = ?", ret.ID, ReturnStatusDraft).
			Update("status", target)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("return is no longer draft")
		}

		if target == ReturnStatusCancelled && config.ReverseStockOnReturnCancel() {
			for _, item := range ret.Items {
				if _, err := PostStockMovement(tx, MovementInput{
					ProductId:       item.ProductId,
					WarehouseId:     ret.Purchase.WarehouseId,
					MovementType:    MovementTypeReturnIn,
					Quantity:        item.Quantity,
					ReferenceNumber: ReturnCancelReference(ret.Number, item.ID),
					DocumentType:    DocumentTypePurchaseReturn,
					DocumentNumber:  ret.Number,
					Notes:           "return cancelled",
					CreatedBy:       userId,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		config.LogError(logger, moduleName, "transitionPurchaseReturn", "transition failed", id, err)
		return nil, err
	}
	ret.Status = target
	return ret, nil
}

func FetchPurchaseReturn(ctx context.Context, id int) (*PurchaseReturn, error) {
	return utils.FetchModel[PurchaseReturn](ctx, id, "Items", "Items.Product", "Purchase")
}

func FetchPurchaseReturns(ctx context.Context, purchaseId int) ([]PurchaseReturn, error) {
	db := config.GetDB()
	var returns []PurchaseReturn
	query := db.WithContext(ctx).Preload("Items")
	if purchaseId > 0 {
		query = query.Where("purchase_id = ?", purchaseId)
	}
	err := query.Order("id desc").Find(&returns).Error
	return returns, err
}
