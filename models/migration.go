package models

import (
	"github.com/mwhebadata/erp_backend/config"
)

// MigrateTable creates or updates every table the engine persists to.
// Order matters only for readability; gorm resolves constraints itself.
func MigrateTable() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&User{},
		&Category{},
		&Unit{},
		&Product{},
		&Warehouse{},
		&Stock{},
		&StockMovement{},
		&SerialNumber{},
		&Supplier{},
		&Customer{},
		&MoneyAccount{},
		&AccountTransaction{},
		&Purchase{},
		&PurchaseItem{},
		&PurchasePayment{},
		&PurchaseReturn{},
		&PurchaseReturnItem{},
		&Sale{},
		&SaleItem{},
		&SalePayment{},
		&SaleReturn{},
		&SaleReturnItem{},
	)
}
