package models

import (
	"context"
	"errors"
	"time"

	"github.com/mwhebadata/erp_backend/config"
	"github.com/mwhebadata/erp_backend/utils"
)

type Warehouse struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:191;not null" json:"name"`
	Code      string    `gorm:"size:30;uniqueIndex" json:"code"`
	Address   string    `gorm:"type:text" json:"address"`
	IsActive  *bool     `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NewWarehouse struct {
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Address  string `json:"address"`
	IsActive *bool  `json:"isActive"`
}

func CreateWarehouse(ctx context.Context, input NewWarehouse) (*Warehouse, error) {
	if err := utils.ValidateUnique[Warehouse](ctx, "code", input.Code, 0); err != nil {
		return nil, err
	}

	warehouse := Warehouse{
		Name:     input.Name,
		Code:     input.Code,
		Address:  input.Address,
		IsActive: input.IsActive,
	}
	if warehouse.IsActive == nil {
		warehouse.IsActive = utils.NewTrue()
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&warehouse).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func UpdateWarehouse(ctx context.Context, id int, input NewWarehouse) (*Warehouse, error) {
	warehouse, err := utils.FetchModel[Warehouse](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Warehouse](ctx, "code", input.Code, id); err != nil {
		return nil, err
	}

	warehouse.Name = input.Name
	warehouse.Code = input.Code
	warehouse.Address = input.Address
	if input.IsActive != nil {
		warehouse.IsActive = input.IsActive
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(warehouse).Error; err != nil {
		return nil, err
	}
	return warehouse, nil
}

func DeleteWarehouse(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Warehouse](ctx, id); err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[Stock](ctx, "warehouse_id = ? AND quantity > 0", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("warehouse still holds stock and cannot be deleted")
	}

	db := config.GetDB()
	return db.WithContext(ctx).Delete(&Warehouse{}, id).Error
}

func FetchWarehouse(ctx context.Context, id int) (*Warehouse, error) {
	return utils.FetchModel[Warehouse](ctx, id)
}

func FetchWarehouses(ctx context.Context) ([]*Warehouse, error) {
	return utils.FetchAllModels[Warehouse](ctx)
}
