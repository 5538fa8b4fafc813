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

type Category struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:191;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Unit struct {
	ID           int    `gorm:"primary_key" json:"id"`
	Name         string `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Abbreviation string `gorm:"size:10" json:"abbreviation"`
}

// Product carries the latest known cost price; purchase postings refresh it
// to the most recent purchase unit price.
type Product struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Name         string          `gorm:"size:191;not null" json:"name"`
	Sku          string          `gorm:"size:50;uniqueIndex" json:"sku"`
	Barcode      string          `gorm:"size:50" json:"barcode"`
	CategoryId   *int            `json:"categoryId"`
	Category     *Category       `json:"category,omitempty"`
	UnitId       *int            `json:"unitId"`
	Unit         *Unit           `json:"unit,omitempty"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"costPrice"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sellingPrice"`
	MinStock     int             `gorm:"default:0" json:"minStock"`
	MaxStock     int             `gorm:"default:0" json:"maxStock"`
	IsActive     *bool           `gorm:"default:true" json:"isActive"`
	CreatedBy    int             `json:"createdBy"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type NewProduct struct {
	Name         string          `json:"name" binding:"required"`
	Sku          string          `json:"sku" binding:"required"`
	Barcode      string          `json:"barcode"`
	CategoryId   *int            `json:"categoryId"`
	UnitId       *int            `json:"unitId"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	MinStock     int             `json:"minStock"`
	MaxStock     int             `json:"maxStock"`
	IsActive     *bool           `json:"isActive"`
}

func CreateProduct(ctx context.Context, input NewProduct) (*Product, error) {
	if input.CostPrice.IsNegative() || input.SellingPrice.IsNegative() {
		return nil, errors.New("prices cannot be negative")
	}
	if err := utils.ValidateUnique[Product](ctx, "sku", input.Sku, 0); err != nil {
		return nil, err
	}
	if input.CategoryId != nil {
		if err := utils.ValidateResourceId[Category](ctx, *input.CategoryId); err != nil {
			return nil, err
		}
	}
	if input.UnitId != nil {
		if err := utils.ValidateResourceId[Unit](ctx, *input.UnitId); err != nil {
			return nil, err
		}
	}

	product := Product{
		Name:         input.Name,
		Sku:          input.Sku,
		Barcode:      input.Barcode,
		CategoryId:   input.CategoryId,
		UnitId:       input.UnitId,
		CostPrice:    input.CostPrice,
		SellingPrice: input.SellingPrice,
		MinStock:     input.MinStock,
		MaxStock:     input.MaxStock,
		IsActive:     input.IsActive,
		CreatedBy:    utils.CurrentUserId(ctx),
	}
	if product.IsActive == nil {
		product.IsActive = utils.NewTrue()
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct edits master data. CostPrice is not written here: purchase
// postings own it through refreshCostPrice, and a master edit racing a
// posting would overwrite the fresher price.
func UpdateProduct(ctx context.Context, id int, input NewProduct) (*Product, error) {
	if err := utils.ValidateResourceId[Product](ctx, id); err != nil {
		return nil, err
	}
	if input.SellingPrice.IsNegative() {
		return nil, errors.New("prices cannot be negative")
	}
	if err := utils.ValidateUnique[Product](ctx, "sku", input.Sku, id); err != nil {
		return nil, err
	}
	if input.CategoryId != nil {
		if err := utils.ValidateResourceId[Category](ctx, *input.CategoryId); err != nil {
			return nil, err
		}
	}
	if input.UnitId != nil {
		if err := utils.ValidateResourceId[Unit](ctx, *input.UnitId); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{
		"name":          input.Name,
		"sku":           input.Sku,
		"barcode":       input.Barcode,
		"category_id":   input.CategoryId,
		"unit_id":       input.UnitId,
		"selling_price": input.SellingPrice,
		"min_stock":     input.MinStock,
		"max_stock":     input.MaxStock,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return utils.FetchModel[Product](ctx, id, "Category", "Unit")
}

func DeleteProduct(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Product](ctx, id); err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[StockMovement](ctx, "product_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("product has stock history and cannot be deleted")
	}

	db := config.GetDB()
	return db.WithContext(ctx).Delete(&Product{}, id).Error
}

func FetchProduct(ctx context.Context, id int) (*Product, error) {
	return utils.FetchModel[Product](ctx, id, "Category", "Unit")
}

func FetchProducts(ctx context.Context) ([]*Product, error) {
	return utils.FetchAllModels[Product](ctx, "Category", "Unit")
}

// refreshCostPrice records the latest purchase unit price on the product.
func refreshCostPrice(tx *gorm.DB, productId int, unitPrice decimal.Decimal) error {
	return tx.Model(&Product{}).Where("id = ?", productId).
		Update("cost_price", unitPrice).Error
}

type NewCategory struct {
	Name string `json:"name" binding:"required"`
}

func CreateCategory(ctx context.Context, input NewCategory) (*Category, error) {
	if err := utils.ValidateUnique[Category](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}
	category := Category{Name: input.Name}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func DeleteCategory(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Category](ctx, id); err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[Product](ctx, "category_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("category has products and cannot be deleted")
	}

	db := config.GetDB()
	return db.WithContext(ctx).Delete(&Category{}, id).Error
}

func FetchCategories(ctx context.Context) ([]*Category, error) {
	return utils.FetchAllModels[Category](ctx)
}

type NewUnit struct {
	Name         string `json:"name" binding:"required"`
	Abbreviation string `json:"abbreviation"`
}

func CreateUnit(ctx context.Context, input NewUnit) (*Unit, error) {
	if err := utils.ValidateUnique[Unit](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}
	unit := Unit{Name: input.Name, Abbreviation: input.Abbreviation}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func DeleteUnit(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Unit](ctx, id); err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[Product](ctx, "unit_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("unit has products and cannot be deleted")
	}

	db := config.GetDB()
	return db.WithContext(ctx).Delete(&Unit{}, id).Error
}

func FetchUnits(ctx context.Context) ([]*Unit, error) {
	return utils.FetchAllModels[Unit](ctx)
}
