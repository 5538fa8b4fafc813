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

// Sale is a customer document. Same shape and posting discipline as Purchase,
// with stock flowing out and the customer owing the balance.
type Sale struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Number        string          `gorm:"size:30;not null;uniqueIndex" json:"number"`
	Date          time.Time       `json:"date"`
	CustomerId    int             `gorm:"not null;index" json:"customerId"`
	Customer      *Customer       `json:"customer,omitempty"`
	WarehouseId   int             `gorm:"not null;index" json:"warehouseId"`
	Warehouse     *Warehouse      `json:"warehouse,omitempty"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	Discount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	Tax           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax"`
	Total         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
	PaymentMethod PaymentMethod   `gorm:"size:10;not null" json:"paymentMethod"`
	PaymentStatus PaymentStatus   `gorm:"size:20;not null;default:unpaid" json:"paymentStatus"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedBy     int             `json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Items         []SaleItem      `json:"items,omitempty"`
	Payments      []SalePayment   `json:"payments,omitempty"`
}

type SaleItem struct {
	ID        int             `gorm:"primary_key" json:"id"`
	SaleId    int             `gorm:"not null;index" json:"saleId"`
	ProductId int             `gorm:"not null;index" json:"productId"`
	Product   *Product        `json:"product,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unitPrice"`
	Discount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	Total     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
}

func (s *Sale) AmountPaid() decimal.Decimal {
	sum := decimal.Zero
	for _, payment := range s.Payments {
		sum = sum.Add(payment.Amount)
	}
	return sum
}

func (s *Sale) AmountDue() decimal.Decimal {
	return s.Total.Sub(s.AmountPaid())
}

func (s *Sale) IsFullyPaid() bool {
	return s.AmountDue().LessThanOrEqual(decimal.Zero)
}

func (s *Sale) snapshot() DocumentSnapshot {
	return DocumentSnapshot{Method: s.PaymentMethod, Total: s.Total, Status: s.PaymentStatus}
}

type NewSaleItem struct {
	ProductId int             `json:"productId" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Discount  decimal.Decimal `json:"discount"`
}

type NewSale struct {
	Date          time.Time       `json:"date" binding:"required"`
	CustomerId    int             `json:"customerId" binding:"required"`
	WarehouseId   int             `json:"warehouseId" binding:"required"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	PaymentMethod PaymentMethod   `json:"paymentMethod" binding:"required"`
	Notes         string          `json:"notes"`
	Items         []NewSaleItem   `json:"items" binding:"required,min=1,dive"`
}

func validateSaleInput(ctx context.Context, input NewSale) (decimal.Decimal, decimal.Decimal, error) {
	if !input.PaymentMethod.Valid() {
		return decimal.Zero, decimal.Zero, errors.New("invalid payment method")
	}
	if err := utils.ValidateResourceId[Customer](ctx, input.CustomerId); err != nil {
		return decimal.Zero, decimal.Zero, errors.New("customer not found")
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

// CreateSale posts a new sale: document, items, outgoing stock movements and
// the customer balance adjustment. Under strict limits a line cannot sell
// more than is on hand; otherwise the journal clamps stock at zero.
func CreateSale(ctx context.Context, input NewSale) (*Sale, error) {
	logger := config.GetLogger()

	subtotal, total, err := validateSaleInput(ctx, input)
	if err != nil {
		return nil, err
	}

	if config.StrictLimits() {
		for _, item := range input.Items {
			onHand, err := GetStockLevel(ctx, item.ProductId, input.WarehouseId)
			if err != nil {
				return nil, err
			}
			if item.Quantity > onHand {
				return nil, fmt.Errorf("insufficient stock for product %d: have %d, need %d",
					item.ProductId, onHand, item.Quantity)
			}
		}
	}

	release, err := utils.PostingLock(ctx, "sale", moduleName, "CreateSale")
	if err != nil {
		return nil, err
	}
	defer release()

	userId := utils.CurrentUserId(ctx)
	var sale Sale

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, "sale"); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, "sale")

		number, err := NextDocumentNumber(tx, "sale")
		if err != nil {
			return err
		}

		sale = Sale{
			Number:        number,
			Date:          input.Date,
			CustomerId:    input.CustomerId,
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
			sale.Items = append(sale.Items, SaleItem{
				ProductId: item.ProductId,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Discount:  item.Discount,
				Total:     LineItemTotal(item.Quantity, item.UnitPrice, item.Discount),
			})
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		for _, item := range sale.Items {
			if _, err := PostStockMovement(tx, MovementInput{
				ProductId:       item.ProductId,
				WarehouseId:     sale.WarehouseId,
				MovementType:    MovementTypeOut,
				Quantity:        item.Quantity,
				ReferenceNumber: ItemReference(DocumentTypeSale, sale.Number, item.ID),
				DocumentType:    DocumentTypeSale,
				DocumentNumber:  sale.Number,
				CreatedBy:       userId,
			}); err != nil {
				return err
			}
		}

		delta := CreationBalanceDelta(sale.PaymentMethod, sale.Total, decimal.Zero)
		return ApplyCustomerBalanceDelta(tx, sale.CustomerId, delta)
	})
	if err != nil {
		config.LogError(logger, moduleName, "CreateSale", "posting failed", input, err)
		return nil, err
	}
	return &sale, nil
}

// UpdateSale reposts an edited sale. The stock diff direction is inverted
// relative to purchases: more sold means more stock out. The old document is
// snapshotted under the posting lock so a concurrent payment is never
// reconciled against a stale copy.
func UpdateSale(ctx context.Context, id int, input NewSale) (*Sale, error) {
	logger := config.GetLogger()

	if err := utils.ValidateResourceId[Sale](ctx, id); err != nil {
		return nil, err
	}
	subtotal, total, err := validateSaleInput(ctx, input)
	if err != nil {
		return nil, err
	}

	release, err := utils.PostingLock(ctx, "sale", moduleName, "UpdateSale")
	if err != nil {
		return nil, err
	}
	defer release()

	userId := utils.CurrentUserId(ctx)
	now := time.Now()

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, "sale"); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, "sale")

		var old Sale
		if err := tx.Preload("Items").Preload("Payments").First(&old, id).Error; err != nil {
			return err
		}
		if input.CustomerId != old.CustomerId {
			return errors.New("customer cannot be changed after posting")
		}
		if input.WarehouseId != old.WarehouseId {
			return errors.New("warehouse cannot be changed after posting")
		}

		amountPaid := old.AmountPaid()
		oldSnap := old.snapshot()
		newStatus := DerivePaymentStatus(total, amountPaid)
		newSnap := DocumentSnapshot{Method: input.PaymentMethod, Total: total, Status: newStatus}

		oldByProduct := make(map[int]SaleItem, len(old.Items))
		for _, item := range old.Items {
			oldByProduct[item.ProductId] = item
		}

		seen := make(map[int]bool, len(input.Items))
		for _, item := range input.Items {
			seen[item.ProductId] = true
			lineTotal := LineItemTotal(item.Quantity, item.UnitPrice, item.Discount)

			existing, ok := oldByProduct[item.ProductId]
			if !ok {
				row := SaleItem{
					SaleId:    old.ID,
					ProductId: item.ProductId,
					Quantity:  item.Quantity,
					UnitPrice: item.UnitPrice,
					Discount:  item.Discount,
					Total:     lineTotal,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
				if _, err := PostStockMovement(tx, MovementInput{
					ProductId:       item.ProductId,
					WarehouseId:     old.WarehouseId,
					MovementType:    MovementTypeOut,
					Quantity:        item.Quantity,
					ReferenceNumber: ItemReference(DocumentTypeSale, old.Number, row.ID),
					DocumentType:    DocumentTypeSale,
					DocumentNumber:  old.Number,
					CreatedBy:       userId,
				}); err != nil {
					return err
				}
			} else {
				if err := tx.Model(&SaleItem{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
					"quantity":   item.Quantity,
					"unit_price": item.UnitPrice,
					"discount":   item.Discount,
					"total":      lineTotal,
				}).Error; err != nil {
					return err
				}

				mainRef := ItemReference(DocumentTypeSale, old.Number, existing.ID)
				diff := item.Quantity - existing.Quantity
				if diff > 0 {
					if _, err := PostStockMovement(tx, MovementInput{
						ProductId:       item.ProductId,
						WarehouseId:     old.WarehouseId,
						MovementType:    MovementTypeOut,
						Quantity:        diff,
						ReferenceNumber: EditReference(mainRef, "OUT", now),
						DocumentType:    DocumentTypeSale,
						DocumentNumber:  old.Number,
						CreatedBy:       userId,
					}); err != nil {
						return err
					}
				} else if diff < 0 {
					if _, err := PostStockMovement(tx, MovementInput{
						ProductId:       item.ProductId,
						WarehouseId:     old.WarehouseId,
						MovementType:    MovementTypeIn,
						Quantity:        -diff,
						ReferenceNumber: EditReference(mainRef, "IN", now),
						DocumentType:    DocumentTypeSale,
						DocumentNumber:  old.Number,
						CreatedBy:       userId,
					}); err != nil {
						return err
					}
				}
			}
		}

		// removed lines: the goods never left, bring them back in
		for productId, item := range oldByProduct {
			if seen[productId] {
				continue
			}
			mainRef := ItemReference(DocumentTypeSale, old.Number, item.ID)
			if _, err := PostStockMovement(tx, MovementInput{
				ProductId:       productId,
				WarehouseId:     old.WarehouseId,
				MovementType:    MovementTypeIn,
				Quantity:        item.Quantity,
				ReferenceNumber: EditReference(mainRef, "DELETE", now),
				DocumentType:    DocumentTypeSale,
				DocumentNumber:  old.Number,
				CreatedBy:       userId,
			}); err != nil {
				return err
			}
			if err := tx.Delete(&SaleItem{}, item.ID).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&Sale{}).Where("id = ?", old.ID).Updates(map[string]interface{}{
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
		return ApplyCustomerBalanceDelta(tx, old.CustomerId, delta)
	})
	if err != nil {
		config.LogError(logger, moduleName, "UpdateSale", "posting failed", id, err)
		return nil, err
	}
	return utils.FetchModel[Sale](ctx, id, "Items", "Payments")
}

// DeleteSale removes the document, appends compensating incoming movements
// and drops the customer balance by the outstanding amount. Blocked while
// confirmed returns reference it; the check runs under the posting lock so a
// return confirmed a moment earlier is always seen.
func DeleteSale(ctx context.Context, id int) error {
	logger := config.GetLogger()

	if err := utils.ValidateResourceId[Sale](ctx, id); err != nil {
		return err
	}

	release, err := utils.PostingLock(ctx, "sale", moduleName, "DeleteSale")
	if err != nil {
		return err
	}
	defer release()

	userId := utils.CurrentUserId(ctx)

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, "sale"); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, "sale")

		var sale Sale
		if err := tx.Preload("Items").Preload("Payments").First(&sale, id).Error; err != nil {
			return err
		}
		var confirmed int64
		if err := tx.Model(&SaleReturn{}).
			Where("sale_id = ? AND status = ?", id, ReturnStatusConfirmed).
			Count(&confirmed).Error; err != nil {
			return err
		}
		if confirmed > 0 {
			return errors.New("sale has confirmed returns and cannot be deleted")
		}

		for _, item := range sale.Items {
			if _, err := PostStockMovement(tx, MovementInput{
				ProductId:       item.ProductId,
				WarehouseId:     sale.WarehouseId,
				MovementType:    MovementTypeReturnIn,
				Quantity:        item.Quantity,
				ReferenceNumber: DeleteReference(DocumentTypeSale, sale.Number, item.ID),
				DocumentType:    DocumentTypeSale,
				DocumentNumber:  sale.Number,
				Notes:           "document deleted",
				CreatedBy:       userId,
			}); err != nil {
				return err
			}
		}

		delta := sale.AmountPaid().Sub(sale.Total)
		if err := ApplyCustomerBalanceDelta(tx, sale.CustomerId, delta); err != nil {
			return err
		}

		if err := tx.Where("sale_id = ?", sale.ID).Delete(&SalePayment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sale_id = ?", sale.ID).Delete(&SaleItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Sale{}, sale.ID).Error
	})
	if err != nil {
		config.LogError(logger, moduleName, "DeleteSale", "posting failed", id, err)
	}
	return err
}

func FetchSale(ctx context.Context, id int) (*Sale, error) {
	return utils.FetchModel[Sale](ctx, id, "Items", "Items.Product", "Payments", "Customer", "Warehouse")
}

func FetchSales(ctx context.Context) ([]*Sale, error) {
	db := config.GetDB()
	var sales []*Sale
	err := db.WithContext(ctx).Preload("Customer").Order("id desc").Find(&sales).Error
	return sales, err
}
