package workflow

import (
	"context"
	"fmt"

	"github.com/mwhebadata/erp_backend/config"
	"github.com/mwhebadata/erp_backend/models"
	"gorm.io/gorm"
)

// StockDrift reports a stock row whose level disagrees with a replay of its
// movement journal.
type StockDrift struct {
	ProductId   int `json:"productId"`
	WarehouseId int `json:"warehouseId"`
	Stored      int `json:"stored"`
	Computed    int `json:"computed"`
}

// CheckStockLevels replays the movement journal per (product, warehouse) in
// insertion order and compares against the stored stock rows. Stock rows
// without movements and movements without stock rows both count as drift.
func CheckStockLevels(ctx context.Context) ([]StockDrift, error) {
	db := config.GetDB().WithContext(ctx)

	var movements []models.StockMovement
	if err := db.Order("id asc").Find(&movements).Error; err != nil {
		return nil, err
	}

	type key struct{ productId, warehouseId int }
	journal := make(map[key][]models.StockMovement)
	for _, m := range movements {
		k := key{m.ProductId, m.WarehouseId}
		journal[k] = append(journal[k], m)
	}

	var stocks []models.Stock
	if err := db.Find(&stocks).Error; err != nil {
		return nil, err
	}
	stored := make(map[key]int, len(stocks))
	for _, s := range stocks {
		stored[key{s.ProductId, s.WarehouseId}] = s.Quantity
	}

	var drifts []StockDrift
	for k, entries := range journal {
		computed := models.SumMovements(entries)
		if stored[k] != computed {
			drifts = append(drifts, StockDrift{
				ProductId:   k.productId,
				WarehouseId: k.warehouseId,
				Stored:      stored[k],
				Computed:    computed,
			})
		}
		delete(stored, k)
	}
	// stock rows with no journal at all
	for k, quantity := range stored {
		if quantity != 0 {
			drifts = append(drifts, StockDrift{
				ProductId:   k.productId,
				WarehouseId: k.warehouseId,
				Stored:      quantity,
				Computed:    0,
			})
		}
	}
	return drifts, nil
}

// RebuildStockLevels recomputes stock rows from the journal. With fix=true
// the stored levels are overwritten, creating missing rows as needed.
func RebuildStockLevels(ctx context.Context, fix bool) ([]StockDrift, error) {
	logger := config.GetLogger()

	drifts, err := CheckStockLevels(ctx)
	if err != nil {
		return nil, err
	}
	if !fix || len(drifts) == 0 {
		return drifts, nil
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, drift := range drifts {
			result := tx.Model(&models.Stock{}).
				Where("product_id = ? AND warehouse_id = ?", drift.ProductId, drift.WarehouseId).
				Update("quantity", drift.Computed)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				stock := models.Stock{
					ProductId:   drift.ProductId,
					WarehouseId: drift.WarehouseId,
					Quantity:    drift.Computed,
				}
				if err := tx.Create(&stock).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		config.LogError(logger, moduleName, "RebuildStockLevels", "fix failed", len(drifts), err)
		return nil, err
	}
	return drifts, nil
}

// ReconciliationReport bundles both drift checks for the ops endpoint.
type ReconciliationReport struct {
	BalanceDrifts []BalanceDrift `json:"balanceDrifts"`
	StockDrifts   []StockDrift   `json:"stockDrifts"`
}

func RunReconciliationChecks(ctx context.Context) (*ReconciliationReport, error) {
	balanceDrifts, err := RebuildBalances(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("balance check: %w", err)
	}
	stockDrifts, err := CheckStockLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("stock check: %w", err)
	}
	return &ReconciliationReport{
		BalanceDrifts: balanceDrifts,
		StockDrifts:   stockDrifts,
	}, nil
}
