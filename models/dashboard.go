package models

import (
	"context"

	"github.com/mwhebadata/erp_backend/config"
	"github.com/mwhebadata/erp_backend/utils"
	"github.com/shopspring/decimal"
)

// DashboardStats summarizes the ledgers for the landing screen.
type DashboardStats struct {
	PurchaseCount     int64           `json:"purchaseCount"`
	SaleCount         int64           `json:"saleCount"`
	PurchaseTotal     decimal.Decimal `json:"purchaseTotal"`
	SaleTotal         decimal.Decimal `json:"saleTotal"`
	Payables          decimal.Decimal `json:"payables"`
	Receivables       decimal.Decimal `json:"receivables"`
	UnpaidPurchases   int64           `json:"unpaidPurchases"`
	UnpaidSales       int64           `json:"unpaidSales"`
	LowStockProducts  int64           `json:"lowStockProducts"`
	MonthPurchaseTotal decimal.Decimal `json:"monthPurchaseTotal"`
	MonthSaleTotal     decimal.Decimal `json:"monthSaleTotal"`
}

func FetchDashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := config.GetDB().WithContext(ctx)
	stats := DashboardStats{}

	if err := db.Model(&Purchase{}).Count(&stats.PurchaseCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Sale{}).Count(&stats.SaleCount).Error; err != nil {
		return nil, err
	}

	sumColumn := func(model interface{}, dest *decimal.Decimal, condition string, args ...interface{}) error {
		var raw decimal.NullDecimal
		query := db.Model(model).Select("SUM(total)")
		if condition != "" {
			query = query.Where(condition, args...)
		}
		if err := query.Scan(&raw).Error; err != nil {
			return err
		}
		if raw.Valid {
			*dest = raw.Decimal
		}
		return nil
	}

	if err := sumColumn(&Purchase{}, &stats.PurchaseTotal, ""); err != nil {
		return nil, err
	}
	if err := sumColumn(&Sale{}, &stats.SaleTotal, ""); err != nil {
		return nil, err
	}

	start, end := utils.GetThisMonthRange()
	if err := sumColumn(&Purchase{}, &stats.MonthPurchaseTotal, "date BETWEEN ? AND ?", start, end); err != nil {
		return nil, err
	}
	if err := sumColumn(&Sale{}, &stats.MonthSaleTotal, "date BETWEEN ? AND ?", start, end); err != nil {
		return nil, err
	}

	var payables decimal.NullDecimal
	if err := db.Model(&Supplier{}).Select("SUM(balance)").Scan(&payables).Error; err != nil {
		return nil, err
	}
	if payables.Valid {
		stats.Payables = payables.Decimal
	}
	var receivables decimal.NullDecimal
	if err := db.Model(&Customer{}).Select("SUM(balance)").Scan(&receivables).Error; err != nil {
		return nil, err
	}
	if receivables.Valid {
		stats.Receivables = receivables.Decimal
	}

	if err := db.Model(&Purchase{}).Where("payment_status <> ?", PaymentStatusPaid).
		Count(&stats.UnpaidPurchases).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Sale{}).Where("payment_status <> ?", PaymentStatusPaid).
		Count(&stats.UnpaidSales).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&Stock{}).
		Joins("JOIN products ON products.id = stocks.product_id").
		Where("products.min_stock > 0 AND stocks.quantity < products.min_stock").
		Count(&stats.LowStockProducts).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
