package workflow

import (
	"context"

	"github.com/mwhebadata/erp_backend/config"
	"github.com/mwhebadata/erp_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const moduleName = "workflow"

// BalanceDrift reports a counterparty whose stored running balance disagrees
// with the balance recomputed from documents and payments.
type BalanceDrift struct {
	PartyType string          `json:"partyType"`
	PartyId   int             `json:"partyId"`
	Name      string          `json:"name"`
	Stored    decimal.Decimal `json:"stored"`
	Computed  decimal.Decimal `json:"computed"`
	Drift     decimal.Decimal `json:"drift"`
}

// The incremental branch deltas can drift from the ledger over long edit
// histories. The authoritative balance is recomputed as, per counterparty,
// the sum over documents of (total - payments received).

func computedSupplierBalances(tx *gorm.DB) (map[int]decimal.Decimal, error) {
	rows := []struct {
		SupplierId int
		Computed   decimal.Decimal
	}{}
	err := tx.Raw(`SELECT p.supplier_id AS supplier_id,
			SUM(p.total) - COALESCE((
				SELECT SUM(pp.amount) FROM purchase_payments pp
				JOIN purchases p2 ON p2.id = pp.purchase_id
				WHERE p2.supplier_id = p.supplier_id
			), 0) AS computed
		FROM purchases p
		GROUP BY p.supplier_id`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	computed := make(map[int]decimal.Decimal, len(rows))
	for _, row := range rows {
		computed[row.SupplierId] = row.Computed
	}
	return computed, nil
}

func computedCustomerBalances(tx *gorm.DB) (map[int]decimal.Decimal, error) {
	rows := []struct {
		CustomerId int
		Computed   decimal.Decimal
	}{}
	err := tx.Raw(`SELECT s.customer_id AS customer_id,
			SUM(s.total) - COALESCE((
				SELECT SUM(sp.amount) FROM sale_payments sp
				JOIN sales s2 ON s2.id = sp.sale_id
				WHERE s2.customer_id = s.customer_id
			), 0) AS computed
		FROM sales s
		GROUP BY s.customer_id`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	computed := make(map[int]decimal.Decimal, len(rows))
	for _, row := range rows {
		computed[row.CustomerId] = row.Computed
	}
	return computed, nil
}

// CheckSupplierBalances compares every supplier's stored balance against the
// recomputed one and returns the mismatches.
func CheckSupplierBalances(ctx context.Context) ([]BalanceDrift, error) {
	db := config.GetDB().WithContext(ctx)

	computed, err := computedSupplierBalances(db)
	if err != nil {
		return nil, err
	}

	suppliers, err := models.FetchSuppliers(ctx)
	if err != nil {
		return nil, err
	}

	var drifts []BalanceDrift
	for _, supplier := range suppliers {
		want := computed[supplier.ID]
		if supplier.Balance.Equal(want) {
			continue
		}
		drifts = append(drifts, BalanceDrift{
			PartyType: "supplier",
			PartyId:   supplier.ID,
			Name:      supplier.Name,
			Stored:    supplier.Balance,
			Computed:  want,
			Drift:     supplier.Balance.Sub(want),
		})
	}
	return drifts, nil
}

// CheckCustomerBalances is the receivable-side counterpart.
func CheckCustomerBalances(ctx context.Context) ([]BalanceDrift, error) {
	db := config.GetDB().WithContext(ctx)

	computed, err := computedCustomerBalances(db)
	if err != nil {
		return nil, err
	}

	customers, err := models.FetchCustomers(ctx)
	if err != nil {
		return nil, err
	}

	var drifts []BalanceDrift
	for _, customer := range customers {
		want := computed[customer.ID]
		if customer.Balance.Equal(want) {
			continue
		}
		drifts = append(drifts, BalanceDrift{
			PartyType: "customer",
			PartyId:   customer.ID,
			Name:      customer.Name,
			Stored:    customer.Balance,
			Computed:  want,
			Drift:     customer.Balance.Sub(want),
		})
	}
	return drifts, nil
}

// RebuildBalances recomputes every counterparty balance from the ledger.
// With fix=false it only reports; with fix=true it overwrites the stored
// balances inside one posting-locked transaction.
func RebuildBalances(ctx context.Context, fix bool) ([]BalanceDrift, error) {
	logger := config.GetLogger()

	supplierDrifts, err := CheckSupplierBalances(ctx)
	if err != nil {
		return nil, err
	}
	customerDrifts, err := CheckCustomerBalances(ctx)
	if err != nil {
		return nil, err
	}
	drifts := append(supplierDrifts, customerDrifts...)

	if !fix || len(drifts) == 0 {
		return drifts, nil
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, scope := range []string{"purchase", "sale"} {
			if err := models.AcquirePostingLock(tx, scope); err != nil {
				return err
			}
			defer models.ReleasePostingLock(tx, scope)
		}

		for _, drift := range drifts {
			var model interface{} = &models.Supplier{}
			if drift.PartyType == "customer" {
				model = &models.Customer{}
			}
			if err := tx.Model(model).Where("id = ?", drift.PartyId).
				Update("balance", drift.Computed).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		config.LogError(logger, moduleName, "RebuildBalances", "fix failed", len(drifts), err)
		return nil, err
	}
	return drifts, nil
}
