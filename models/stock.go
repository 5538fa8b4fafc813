package models

import (
	"context"
	"fmt"
	"time"

	"github.com/mwhebadata/erp_backend/config"
	"github.com/mwhebadata/erp_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Stock is the on-hand quantity of a product in a warehouse.
// One row per (product, warehouse); never negative.
type Stock struct {
	ID          int       `gorm:"primary_key" json:"id"`
	ProductId   int       `gorm:"not null;index:uniq_stock,unique" json:"productId"`
	Product     *Product  `json:"product,omitempty"`
	WarehouseId int       `gorm:"not null;index:uniq_stock,unique" json:"warehouseId"`
	Warehouse   *Warehouse `json:"warehouse,omitempty"`
	Quantity    int       `gorm:"not null;default:0" json:"quantity"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// StockMovement is an append-only journal entry. ReferenceNumber is unique:
// replaying the same posting is detected by the index and skipped, so the
// journal stays idempotent without a pre-insert existence query.
type StockMovement struct {
	ID              int          `gorm:"primary_key" json:"id"`
	Number          string       `gorm:"size:20;not null" json:"number"`
	ProductId       int          `gorm:"not null;index" json:"productId"`
	Product         *Product     `json:"product,omitempty"`
	WarehouseId     int          `gorm:"not null;index" json:"warehouseId"`
	Warehouse       *Warehouse   `json:"warehouse,omitempty"`
	MovementType    MovementType `gorm:"size:20;not null" json:"movementType"`
	Quantity        int          `gorm:"not null" json:"quantity"`
	ReferenceNumber string       `gorm:"size:191;not null;uniqueIndex" json:"referenceNumber"`
	DocumentType    DocumentType `gorm:"size:30;not null" json:"documentType"`
	DocumentNumber  string       `gorm:"size:30;index" json:"documentNumber"`
	QuantityBefore  int          `gorm:"not null" json:"quantityBefore"`
	QuantityAfter   int          `gorm:"not null" json:"quantityAfter"`
	Notes           string       `gorm:"type:text" json:"notes"`
	CreatedBy       int          `json:"createdBy"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// ComputeQuantityAfter applies a movement to an on-hand quantity.
// Outgoing movements clamp at zero instead of driving stock negative.
func ComputeQuantityAfter(before int, movementType MovementType, quantity int) int {
	switch {
	case movementType.IsIncoming():
		return before + quantity
	case movementType.IsOutgoing():
		after := before - quantity
		if after < 0 {
			return 0
		}
		return after
	default:
		// adjustment sets the level directly
		return quantity
	}
}

// MovementInput describes one journal entry to post.
type MovementInput struct {
	ProductId       int
	WarehouseId     int
	MovementType    MovementType
	Quantity        int
	ReferenceNumber string
	DocumentType    DocumentType
	DocumentNumber  string
	Notes           string
	CreatedBy       int
}

// PostStockMovement appends a journal entry and moves the stock level inside
// the caller's transaction. Returns applied=false without error when an entry
// with the same reference number already exists (duplicate-key 1062), which
// makes replays of the same posting harmless.
func PostStockMovement(tx *gorm.DB, input MovementInput) (applied bool, err error) {
	if input.Quantity <= 0 {
		return false, fmt.Errorf("movement quantity must be positive, got %d", input.Quantity)
	}

	stock, err := lockOrCreateStock(tx, input.ProductId, input.WarehouseId)
	if err != nil {
		return false, err
	}

	number, err := NextDocumentNumber(tx, "stock_movement")
	if err != nil {
		return false, err
	}

	movement := StockMovement{
		Number:          number,
		ProductId:       input.ProductId,
		WarehouseId:     input.WarehouseId,
		MovementType:    input.MovementType,
		Quantity:        input.Quantity,
		ReferenceNumber: input.ReferenceNumber,
		DocumentType:    input.DocumentType,
		DocumentNumber:  input.DocumentNumber,
		QuantityBefore:  stock.Quantity,
		QuantityAfter:   ComputeQuantityAfter(stock.Quantity, input.MovementType, input.Quantity),
		Notes:           input.Notes,
		CreatedBy:       input.CreatedBy,
	}
	if err := tx.Create(&movement).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}

	if err := tx.Model(&Stock{}).Where("id = ?", stock.ID).
		Update("quantity", movement.QuantityAfter).Error; err != nil {
		return false, err
	}
	return true, nil
}

// lockOrCreateStock fetches the stock row FOR UPDATE, creating it at zero if
// the product has never been stocked in this warehouse.
func lockOrCreateStock(tx *gorm.DB, productId, warehouseId int) (*Stock, error) {
	var stock Stock
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND warehouse_id = ?", productId, warehouseId).
		First(&stock).Error
	if err == gorm.ErrRecordNotFound {
		stock = Stock{ProductId: productId, WarehouseId: warehouseId, Quantity: 0}
		if err := tx.Create(&stock).Error; err != nil {
			if !utils.IsDuplicateKeyError(err) {
				return nil, err
			}
			// lost the creation race, lock the winner's row
			err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("product_id = ? AND warehouse_id = ?", productId, warehouseId).
				First(&stock).Error
			if err != nil {
				return nil, err
			}
		}
		return &stock, nil
	}
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// GetStockLevel returns the on-hand quantity, zero when no row exists.
func GetStockLevel(ctx context.Context, productId, warehouseId int) (int, error) {
	db := config.GetDB().WithContext(ctx)
	var stock Stock
	err := db.Where("product_id = ? AND warehouse_id = ?", productId, warehouseId).First(&stock).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return stock.Quantity, nil
}

// FetchStockMovements lists journal entries for a document, newest first.
func FetchStockMovements(ctx context.Context, documentType DocumentType, documentNumber string) ([]StockMovement, error) {
	db := config.GetDB().WithContext(ctx)
	var movements []StockMovement
	err := db.Where("document_type = ? AND document_number = ?", documentType, documentNumber).
		Order("id desc").Find(&movements).Error
	return movements, err
}

// SumMovements nets a product/warehouse journal: incoming minus outgoing,
// with adjustments treated as level resets. Used by the stock rebuild.
func SumMovements(movements []StockMovement) int {
	level := 0
	for _, m := range movements {
		level = ComputeQuantityAfter(level, m.MovementType, m.Quantity)
	}
	return level
}

// Reference number builders. The main reference identifies a document line;
// edit and delete postings derive from it so the journal reads as a history
// of the line.

func ItemReference(documentType DocumentType, documentNumber string, itemId int) string {
	prefix := "PURCHASE"
	switch documentType {
	case DocumentTypeSale:
		prefix = "SALE"
	case DocumentTypePurchaseReturn, DocumentTypeSaleReturn:
		return fmt.Sprintf("RETURN-%s-ITEM%d", documentNumber, itemId)
	}
	return fmt.Sprintf("%s-%s-ITEM%d", prefix, documentNumber, itemId)
}

func EditReference(mainRef, direction string, at time.Time) string {
	return fmt.Sprintf("%s-EDIT-%s-%s", mainRef, direction, at.UTC().Format("20060102150405"))
}

func DeleteReference(documentType DocumentType, documentNumber string, itemId int) string {
	prefix := "PURCHASE"
	if documentType == DocumentTypeSale {
		prefix = "SALE"
	}
	return fmt.Sprintf("RETURN-DELETE-%s-%s-ITEM%d", prefix, documentNumber, itemId)
}

func ReturnCancelReference(returnNumber string, itemId int) string {
	return fmt.Sprintf("RETURN-CANCEL-%s-ITEM%d", returnNumber, itemId)
}
