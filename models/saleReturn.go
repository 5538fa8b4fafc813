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

// SaleReturn brings goods back from a customer. Same lifecycle as
// PurchaseReturn with the stock direction inverted.
type SaleReturn struct {
	ID        int              `gorm:"primary_key" json:"id"`
	Number    string           `gorm:"size:30;not null;uniqueIndex" json:"number"`
	SaleId    int              `gorm:"not null;index" json:"saleId"`
	Sale      *Sale            `json:"sale,omitempty"`
	Date      time.Time        `json:"date"`
	Status    ReturnStatus     `gorm:"size:20;not null;default:draft" json:"status"`
	Total     decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"total"`
	Reason    string           `gorm:"type:text" json:"reason"`
	CreatedBy int              `json:"createdBy"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Items     []SaleReturnItem `json:"items,omitempty"`
}

type SaleReturnItem struct {
	ID           int             `gorm:"primary_key" json:"id"`
	SaleReturnId int             `gorm:"not null;index" json:"saleReturnId"`
	ProductId    int             `gorm:"not null;index" json:"productId"`
	Product      *Product        `json:"product,omitempty"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unitPrice"`
	Total        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
}

type NewSaleReturnItem struct {
	ProductId int `json:"productId" binding:"required"`
	Quantity  int `json:"quantity" binding:"required"`
}

type NewSaleReturn struct {
	Date   time.Time           `json:"date" binding:"required"`
	Reason string              `json:"reason"`
	Items  []NewSaleReturnItem `json:"items" binding:"required,min=1,dive"`
}

func returnedSaleQty(tx *gorm.DB, saleId, productId int) (int, error) {
	var total int
	err := tx.Raw(`SELECT COALESCE(SUM(sri.quantity), 0)
		FROM sale_return_items sri
		JOIN sale_returns sr ON sr.id = sri.sale_return_id
		WHERE sr.sale_id = ? AND sri.product_id = ? AND sr.status IN (?, ?)`,
		saleId, productId, ReturnStatusDraft, ReturnStatusConfirmed).Scan(&total).Error
	return total, err
}

// CreateSaleReturn drafts a return against a sale, clamping each line to the
// sold quantity minus earlier draft or confirmed claims. Incoming stock
// movements post at draft time.
func CreateSaleReturn(ctx context.Context, saleId int, input NewSaleReturn) (*SaleReturn, []string, error) {
	logger := config.GetLogger()

	sale, err := utils.FetchModel[Sale](ctx, saleId, "Items")
	if err != nil {
		return nil, nil, err
	}

	itemsByProduct := make(map[int]SaleItem, len(sale.Items))
	for _, item := range sale.Items {
		itemsByProduct[item.ProductId] = item
	}
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, nil, errors.New("return quantity must be positive")
		}
		if _, ok := itemsByProduct[line.ProductId]; !ok {
			return nil, nil, fmt.Errorf("product %d is not on sale %s", line.ProductId, sale.Number)
		}
	}

	release, err := utils.PostingLock(ctx, "sale", moduleName, "CreateSaleReturn")
	if err != nil {
		return nil, nil, err
	}
	defer release()

	userId := utils.CurrentUserId(ctx)
	var warnings []string
	var ret SaleReturn

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, "sale"); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, "sale")

		type validLine struct {
			saleItem SaleItem
			quantity int
		}
		var lines []validLine
		total := decimal.Zero

		for _, line := range input.Items {
			saleItem := itemsByProduct[line.ProductId]
			alreadyReturned, err := returnedSaleQty(tx, sale.ID, line.ProductId)
			if err != nil {
				return err
			}
			returnable := saleItem.Quantity - alreadyReturned

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

			lines = append(lines, validLine{saleItem: saleItem, quantity: quantity})
			total = total.Add(decimal.NewFromInt(int64(quantity)).Mul(saleItem.UnitPrice))
		}

		if len(lines) == 0 {
			return errors.New("no returnable quantity on any line")
		}

		number, err := NextDocumentNumber(tx, "sale_return")
		if err != nil {
			return err
		}

		ret = SaleReturn{
			Number:    number,
			SaleId:    sale.ID,
			Date:      input.Date,
			Status:    ReturnStatusDraft,
			Total:     total,
			Reason:    input.Reason,
			CreatedBy: userId,
		}
		for _, line := range lines {
			ret.Items = append(ret.Items, SaleReturnItem{
				ProductId: line.saleItem.ProductId,
				Quantity:  line.quantity,
				UnitPrice: line.saleItem.UnitPrice,
				Total:     decimal.NewFromInt(int64(line.quantity)).Mul(line.saleItem.UnitPrice),
			})
		}
		if err := tx.Create(&ret).Error; err != nil {
			return err
		}

		for _, item := range ret.Items {
			if _, err := PostStockMovement(tx, MovementInput{
				ProductId:       item.ProductId,
				WarehouseId:     sale.WarehouseId,
				MovementType:    MovementTypeReturnIn,
				Quantity:        item.Quantity,
				ReferenceNumber: ItemReference(DocumentTypeSaleReturn, ret.Number, item.ID),
				DocumentType:    DocumentTypeSaleReturn,
				DocumentNumber:  ret.Number,
				CreatedBy:       userId,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		config.LogError(logger, moduleName, "CreateSaleReturn", "posting failed", saleId, err)
		return nil, nil, err
	}
	return &ret, warnings, nil
}

func ConfirmSaleReturn(ctx context.Context, id int) (*SaleReturn, error) {
	return transitionSaleReturn(ctx, id, ReturnStatusConfirmed)
}

func CancelSaleReturn(ctx context.Context, id int) (*SaleReturn, error) {
	return transitionSaleReturn(ctx, id, ReturnStatusCancelled)
}

func transitionSaleReturn(ctx context.Context, id int, target ReturnStatus) (*SaleReturn, error) {
	logger := config.GetLogger()

	ret, err := utils.FetchModel[SaleReturn](ctx, id, "Items", "Sale")
	if err != nil {
		return nil, err
	}
	if ret.Status != ReturnStatusDraft {
		return nil, fmt.Errorf("return %s is %s, only draft returns can change state", ret.Number, ret.Status)
	}

	release, err := utils.PostingLock(ctx, "sale", moduleName, "transitionSaleReturn")
	if err != nil {
		return nil, err
	}
	defer release()

	userId := utils.CurrentUserId(ctx)

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, "sale"); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, "sale")

		result := tx.Model(&SaleReturn{}).
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
					WarehouseId:     ret.Sale.WarehouseId,
					MovementType:    MovementTypeReturnOut,
					Quantity:        item.Quantity,
					ReferenceNumber: ReturnCancelReference(ret.Number, item.ID),
					DocumentType:    DocumentTypeSaleReturn,
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
		config.LogError(logger, moduleName, "transitionSaleReturn", "transition failed", id, err)
		return nil, err
	}
	ret.Status = target
	return ret, nil
}

func FetchSaleReturn(ctx context.Context, id int) (*SaleReturn, error) {
	return utils.FetchModel[SaleReturn](ctx, id, "Items", "Items.Product", "Sale")
}

func FetchSaleReturns(ctx context.Context, saleId int) ([]SaleReturn, error) {
	db := config.GetDB()
	var returns []SaleReturn
	query := db.WithContext(ctx).Preload("Items")
	if saleId > 0 {
		query = query.Where("sale_id = ?", saleId)
	}
	err := query.Order("id desc").Find(&returns).Error
	return returns, err
}
