package models

import (
	"context"
	"errors"
	"time"

	"github.com/mwhebadata/erp_backend/config"
	"github.com/mwhebadata/erp_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase is a supplier document. Totals and payment status are derived,
// never accepted from the client; the supplier balance and stock journal are
// maintained in the same transaction as every document write.
type Purchase struct {
	ID            int               `gorm:"primary_key" json:"id"`
	Number        string            `gorm:"size:30;not null;uniqueIndex" json:"number"`
	Date          time.Time         `json:"date"`
	SupplierId    int               `gorm:"not null;index" json:"supplierId"`
	Supplier      *Supplier         `json:"supplier,omitempty"`
	WarehouseId   int               `gorm:"not null;index" json:"warehouseId"`
	Warehouse     *Warehouse        `json:"warehouse,omitempty"`
	Subtotal      decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	Discount      decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"discount"`
	Tax           decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"tax"`
	Total         decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"total"`
	PaymentMethod PaymentMethod     `gorm:"size:10;not null" json:"paymentMethod"`
	PaymentStatus PaymentStatus     `gorm:"size:20;not null;default:unpaid" json:"paymentStatus"`
	Notes         string            `gorm:"type:text" json:"notes"`
	CreatedBy     int               `json:"createdBy"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	Items         []PurchaseItem    `json:"items,omitempty"`
	Payments      []PurchasePayment `json:"payments,omitempty"`
}

type PurchaseItem struct {
	ID         int             `gorm:"primary_key" json:"id"`
	PurchaseId int             `gorm:"not null;index" json:"purchaseId"`
	ProductId  int             `gorm:"not null;index" json:"productId"`
	Product    *Product        `json:"product,omitempty"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unitPrice"`
	Discount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	Total      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
}

// AmountPaid sums loaded payments. Callers must have preloaded Payments.
func (p *Purchase) AmountPaid() decimal.Decimal {
	sum := decimal.Zero
	for _, payment := range p.Payments {
		sum = sum.Add(payment.Amount)
	}
	return sum
}

func (p *Purchase) AmountDue() decimal.Decimal {
	return p.Total.Sub(p.AmountPaid())
}

func (p *Purchase) IsFullyPaid() bool {
	return p.AmountDue().LessThanOrEqual(decimal.Zero)
}

func (p *Purchase) snapshot() DocumentSnapshot {
	return DocumentSnapshot{Method: p.PaymentMethod, Total: p.Total, Status: p.PaymentStatus}
}

type NewPurchaseItem struct {
	ProductId int             `json:"productId" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Discount  decimal.Decimal `json:"discount"`
}

type NewPurchase struct {
	Date          time.Time         `json:"date" binding:"required"`
	SupplierId    int               `json:"supplierId" binding:"required"`
	WarehouseId   int               `json:"warehouseId" binding:"required"`
	Discount      decimal.Decimal   `json:"discount"`
	Tax           decimal.Decimal   `json:"tax"`
	PaymentMethod PaymentMethod     `json:"paymentMethod" binding:"required"`
	Notes         string            `json:"notes"`
	Items         []NewPurchaseItem `json:"items" binding:"required,min=1,dive"`
}

func validatePurchaseInput(ctx context.Context, input NewPurchase) (decimal.Decimal, decimal.Decimal, error) {
	if !input.PaymentMethod.Valid() {
		return decimal.Zero, decimal.Zero, errors.New("invalid payment method")
	}
	if err := utils.ValidateResourceId[Supplier](ctx, input.SupplierId); err != nil {
		return decimal.Zero, decimal.Zero, errors.New("supplier not found")
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, input.WarehouseId); err != nil {
		return decimal.Zero, decimal.Zero, errors.New("warehouse not found")
	}

	productIds := make([]int, 0, len(input.Items))
	subtotal := decimal.Zero
	for _, item := range input.Items {
		if err := ValidateLineItem(item.Quantity, item.UnitPrice, item.Discount); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		productIds = append(productIds, item.ProductId)
		subtotal = subtotal.Add(LineItemTotal(item.Quantity, item.UnitPrice, item.Discount))
	}
	if len(productIds) != len(utils.UniqueSlice(productIds)) {
		return decimal.Zero, decimal.Zero, errors.New("duplicate product in items")
	}
	if err := utils.ValidateResourcesId[Product](ctx, productIds); err != nil {
		return decimal.Zero, decimal.Zero, errors.New("product not found")
	}

	if err := ValidateDocumentAmounts(subtotal, input.Discount, input.Tax); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	total := DocumentTotal(subtotal, input.Discount, input.Tax)
	return subtotal, total, nil
}

// CreatePurchase posts a new purchase: document row, line items, incoming
// stock movements and the supplier balance adjustment, all in one transaction.
func CreatePurchase(ctx context.Context, input NewPurchase) (*Purchase, error) {
	logger := config.GetLogger()

	subtotal, total, err := validatePurchaseInput(ctx, input)
	if err != nil {
		return nil, err
	}

	release, err := utils.PostingLock(ctx, "purchase", moduleName, "CreatePurchase")
	if err != nil {
		return nil, err
	}
	defer release()

	userId := utils.CurrentUserId(ctx)
	var purchase Purchase

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, "purchase"); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, "purchase")

		number, err := NextDocumentNumber(tx, "purchase")
		if err != nil {
			return err
		}

		purchase = Purchase{
			Number:        number,
			Date:          input.Date,
			SupplierId:    input.SupplierId,
			WarehouseId:   input.WarehouseId,
			Subtotal:      subtotal,
			Discount:      input.Discount,
			Tax:           input.Tax,
			Total:         total,
			PaymentMethod: input.PaymentMethod,
			PaymentStatus: PaymentStatusUnpaid,
			Notes:         input.Notes,
			CreatedBy:     userId,
		}
		for _, item := range input.Items {
			purchase.Items = append(purchase.Items, PurchaseItem{
				ProductId: item.ProductId,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Discount:  item.Discount,
				Total:     LineItemTotal(item.Quantity, item.UnitPrice, item.Discount),
			})
		}
		if err := tx.Create(&purchase).Error; err != nil {
			return err
		}

		for _, item := range purchase.Items {
			_, err := PostStockMovement(tx, MovementInput{
				ProductId:       item.ProductId,
				WarehouseId:     purchase.WarehouseId,
				MovementType:    MovementTypeIn,
				Quantity:        item.Quantity,
				ReferenceNumber: ItemReference(DocumentTypePurchase, purchase.Number, item.ID),
				DocumentType:    DocumentTypePurchase,
				DocumentNumber:  purchase.Number,
				CreatedBy:       userId,
			})
			if err != nil {
				return err
			}
			if err := refreshCostPrice(tx, item.ProductId, item.UnitPrice); err != nil {
				return err
			}
		}

		delta := CreationBalanceDelta(purchase.PaymentMethod, purchase.Total, decimal.Zero)
		return ApplySupplierBalanceDelta(tx, purchase.SupplierId, delta)
	})
	if err != nil {
		config.LogError(logger, moduleName, "CreatePurchase", "posting failed", input, err)
		return nil, err
	}
	return &purchase, nil
}

// UpdatePurchase reposts an edited purchase. Line items are matched by
// product: quantity increases post EDIT-IN movements, decreases EDIT-OUT,
// removed products EDIT-DELETE. The supplier balance is reconciled from the
// old and new document snapshots, both taken under the posting lock so a
// payment committed in between cannot be reconciled against a stale copy.
func UpdatePurchase(ctx context.Context, id int, input NewPurchase) (*Purchase, error) {
	logger := config.GetLogger()

	if err := utils.ValidateResourceId[Purchase](ctx, id); err != nil {
		return nil, err
	}
	subtotal, total, err := validatePurchaseInput(ctx, input)
	if err != nil {
		return nil, err
	}

	release, err := utils.PostingLock(ctx, "purchase", moduleName, "UpdatePurchase")
	if err != nil {
		return nil, err
	}
	defer release()

	userId := utils.CurrentUserId(ctx)
	now := time.Now()

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, "purchase"); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, "purchase")

		var old Purchase
		if err := tx.Preload("Items").Preload("Payments").First(&old, id).Error; err != nil {
			return err
		}
		if input.SupplierId != old.SupplierId {
			return errors.New("supplier cannot be changed after posting")
		}
		if input.WarehouseId != old.WarehouseId {
			return errors.New("warehouse cannot be changed after posting")
		}

		amountPaid := old.AmountPaid()
		oldSnap := old.snapshot()
		newStatus := DerivePaymentStatus(total, amountPaid)
		newSnap := DocumentSnapshot{Method: input.PaymentMethod, Total: total, Status: newStatus}

		oldByProduct := make(map[int]PurchaseItem, len(old.Items))
		for _, item := range old.Items {
			oldByProduct[item.ProductId] = item
		}

		seen := make(map[int]bool, len(input.Items))
		for _, item := range input.Items {
			seen[item.ProductId] = true
			lineTotal := LineItemTotal(item.Quantity, item.UnitPrice, item.Discount)

			existing, ok := oldByProduct[item.ProductId]
			if !ok {
				// new line, full incoming movement under the main reference
				row := PurchaseItem{
					PurchaseId: old.ID,
					ProductId:  item.ProductId,
					Quantity:   item.Quantity,
					UnitPrice:  item.UnitPrice,
					Discount:   item.Discount,
					Total:      lineTotal,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
				if _, err := PostStockMovement(tx, MovementInput{
					ProductId:       item.ProductId,
					WarehouseId:     old.WarehouseId,
					MovementType:    MovementTypeIn,
					Quantity:        item.Quantity,
					ReferenceNumber: ItemReference(DocumentTypePurchase, old.Number, row.ID),
					DocumentType:    DocumentTypePurchase,
					DocumentNumber:  old.Number,
					CreatedBy:       userId,
				}); err != nil {
					return err
				}
			} else {
				if err := tx.Model(&PurchaseItem{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
					"quantity":   item.Quantity,
					"unit_price": item.UnitPrice,
					"discount":   item.Discount,
					"total":      lineTotal,
				}).Error; err != nil {
					return err
				}

				mainRef := ItemReference(DocumentTypePurchase, old.Number, existing.ID)
				diff := item.Quantity - existing.Quantity
				if diff > 0 {
					if _, err := PostStockMovement(tx, MovementInput{
						ProductId:       item.ProductId,
						WarehouseId:     old.WarehouseId,
						MovementType:    MovementTypeIn,
						Quantity:        diff,
						ReferenceNumber: EditReference(mainRef, "IN", now),
						DocumentType:    DocumentTypePurchase,
						DocumentNumber:  old.Number,
						CreatedBy:       userId,
					}); err != nil {
						return err
					}
				} else if diff < 0 {
					if _, err := PostStockMovement(tx, MovementInput{
						ProductId:       item.ProductId,
						WarehouseId:     old.WarehouseId,
						MovementType:    MovementTypeOut,
						Quantity:        -diff,
						ReferenceNumber: EditReference(mainRef, "OUT", now),
						DocumentType:    DocumentTypePurchase,
						DocumentNumber:  old.Number,
						CreatedBy:       userId,
					}); err != nil {
						return err
					}
				}
			}
			if err := refreshCostPrice(tx, item.ProductId, item.UnitPrice); err != nil {
				return err
			}
		}

		// removed lines: take the stock back out, keep the journal entry
		for productId, item := range oldByProduct {
			if seen[productId] {
				continue
			}
			mainRef := ItemReference(DocumentTypePurchase, old.Number, item.ID)
			if _, err := PostStockMovement(tx, MovementInput{
				ProductId:       productId,
				WarehouseId:     old.WarehouseId,
				MovementType:    MovementTypeOut,
				Quantity:        item.Quantity,
				ReferenceNumber: EditReference(mainRef, "DELETE", now),
				DocumentType:    DocumentTypePurchase,
				DocumentNumber:  old.Number,
				CreatedBy:       userId,
			}); err != nil {
				return err
			}
			if err := tx.Delete(&PurchaseItem{}, item.ID).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&Purchase{}).Where("id = ?", old.ID).Updates(map[string]interface{}{
			"date":           input.Date,
			"subtotal":       subtotal,
			"discount":       input.Discount,
			"tax":            input.Tax,
			"total":          total,
			"payment_method": input.PaymentMethod,
			"payment_status": newStatus,
			"notes":          input.Notes,
		}).Error; err != nil {
			return err
		}

		delta := BalanceDelta(oldSnap, newSnap, amountPaid)
		return ApplySupplierBalanceDelta(tx, old.SupplierId, delta)
	})
	if err != nil {
		config.LogError(logger, moduleName, "UpdatePurchase", "posting failed", id, err)
		return nil, err
	}
	return utils.FetchModel[Purchase](ctx, id, "Items", "Payments")
}

// DeletePurchase removes the document but not its history: compensating
// outgoing movements are appended for every line, and the supplier balance
// drops by the still-outstanding amount. Blocked while confirmed returns
// reference the document; the check runs under the posting lock so a return
// confirmed a moment earlier is always seen.
func DeletePurchase(ctx context.Context, id int) error {
	logger := config.GetLogger()

	if err := utils.ValidateResourceId[Purchase](ctx, id); err != nil {
		return err
	}

	release, err := utils.PostingLock(ctx, "purchase", moduleName, "DeletePurchase")
	if err != nil {
		return err
	}
	defer release()

	userId := utils.CurrentUserId(ctx)

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, "purchase"); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, "purchase")

		var purchase Purchase
		if err := tx.Preload("Items").Preload("Payments").First(&purchase, id).Error; err != nil {
			return err
		}
		var confirmed int64
		if err := tx.Model(&PurchaseReturn{}).
			Where("purchase_id = ? AND status = ?", id, ReturnStatusConfirmed).
			Count(&confirmed).Error; err != nil {
			return err
		}
		if confirmed > 0 {
			return errors.New("purchase has confirmed returns and cannot be deleted")
		}

		for _, item := range purchase.Items {
			if _, err := PostStockMovement(tx, MovementInput{
				ProductId:       item.ProductId,
				WarehouseId:     purchase.WarehouseId,
				MovementType:    MovementTypeReturnOut,
				Quantity:        item.Quantity,
				ReferenceNumber: DeleteReference(DocumentTypePurchase, purchase.Number, item.ID),
				DocumentType:    DocumentTypePurchase,
				DocumentNumber:  purchase.Number,
				Notes:           "document deleted",
				CreatedBy:       userId,
			}); err != nil {
				return err
			}
		}

		// the document contributed total - paid; remove it
		delta := purchase.AmountPaid().Sub(purchase.Total)
		if err := ApplySupplierBalanceDelta(tx, purchase.SupplierId, delta); err != nil {
			return err
		}

		if err := tx.Where("purchase_id = ?", purchase.ID).Delete(&PurchasePayment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("purchase_id = ?", purchase.ID).Delete(&PurchaseItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Purchase{}, purchase.ID).Error
	})
	if err != nil {
		config.LogError(logger, moduleName, "DeletePurchase", "posting failed", id, err)
	}
	return err
}

func FetchPurchase(ctx context.Context, id int) (*Purchase, error) {
	return utils.FetchModel[Purchase](ctx, id, "Items", "Items.Product", "Payments", "Supplier", "Warehouse")
}

func FetchPurchases(ctx context.Context) ([]*Purchase, error) {
	db := config.GetDB()
	var purchases []*Purchase
	err := db.WithContext(ctx).Preload("Supplier").Order("id desc").Find(&purchases).Error
	return purchases, err
}
