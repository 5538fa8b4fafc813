package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mwhebadata/erp_backend/config"
	"github.com/mwhebadata/erp_backend/models"
	"github.com/mwhebadata/erp_backend/utils"
	"github.com/mwhebadata/erp_backend/workflow"
	"github.com/shopspring/decimal"
)

func TestPurchaseLedgerLifecycle(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "erp_test")
	t.Setenv("STRICT_LIMITS", "")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	supplier, err := models.CreateSupplier(ctx, models.NewSupplier{Name: "Acme Traders", Code: "SUP001"})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	customer, err := models.CreateCustomer(ctx, models.NewCustomer{Name: "Corner Shop", Code: "CUS001"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	warehouse, err := models.CreateWarehouse(ctx, models.NewWarehouse{Name: "Main", Code: "WH01"})
	if err != nil {
		t.Fatalf("CreateWarehouse: %v", err)
	}
	category, err := models.CreateCategory(ctx, models.NewCategory{Name: "Building Materials"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	unit, err := models.CreateUnit(ctx, models.NewUnit{Name: "Bag", Abbreviation: "bg"})
	if err != nil {
		t.Fatalf("CreateUnit: %v", err)
	}
	cement, err := models.CreateProduct(ctx, models.NewProduct{
		Name: "Cement Bag", Sku: "CEM-001", CategoryId: &category.ID, UnitId: &unit.ID,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	rebar, err := models.CreateProduct(ctx, models.NewProduct{Name: "Rebar 12mm", Sku: "REB-012"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	account, err := models.CreateMoneyAccount(ctx, models.NewMoneyAccount{
		Name: "Till", Code: "ACC01", Balance: mustDec(t, "5000"),
	})
	if err != nil {
		t.Fatalf("CreateMoneyAccount: %v", err)
	}

	// 1) Credit purchase: 5 x 150 + 3 x 300, discount 50 -> total 1600.
	purchase, err := models.CreatePurchase(ctx, models.NewPurchase{
		Date:          time.Now(),
		SupplierId:    supplier.ID,
		WarehouseId:   warehouse.ID,
		Discount:      mustDec(t, "50"),
		PaymentMethod: models.PaymentMethodCredit,
		Items: []models.NewPurchaseItem{
			{ProductId: cement.ID, Quantity: 5, UnitPrice: mustDec(t, "150")},
			{ProductId: rebar.ID, Quantity: 3, UnitPrice: mustDec(t, "300")},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if purchase.Number != "PUR0001" {
		t.Errorf("purchase number = %q, want PUR0001", purchase.Number)
	}
	if !purchase.Subtotal.Equal(mustDec(t, "1650")) || !purchase.Total.Equal(mustDec(t, "1600")) {
		t.Errorf("purchase totals = %s/%s, want 1650/1600", purchase.Subtotal, purchase.Total)
	}
	assertSupplierBalance(t, ctx, supplier.ID, "1600")
	assertStock(t, ctx, cement.ID, warehouse.ID, 5)
	assertStock(t, ctx, rebar.ID, warehouse.ID, 3)

	// cost price follows the latest purchase
	refetched, err := models.FetchProduct(ctx, cement.ID)
	if err != nil {
		t.Fatalf("FetchProduct: %v", err)
	}
	if !refetched.CostPrice.Equal(mustDec(t, "150")) {
		t.Errorf("cost price = %s, want 150", refetched.CostPrice)
	}

	// 2) Partial payment of 600 against the supplier account.
	accountId := account.ID
	_, warning, err := models.AddPurchasePayment(ctx, purchase.ID, models.NewPurchasePayment{
		Date:        time.Now(),
		Amount:      mustDec(t, "600"),
		PaymentMode: models.PaymentModeCash,
		AccountId:   &accountId,
	})
	if err != nil {
		t.Fatalf("AddPurchasePayment: %v", err)
	}
	if warning != "" {
		t.Errorf("unexpected clamp warning: %q", warning)
	}
	assertSupplierBalance(t, ctx, supplier.ID, "1000")
	assertPurchaseStatus(t, ctx, purchase.ID, models.PaymentStatusPartiallyPaid)

	acc, err := models.FetchMoneyAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("FetchMoneyAccount: %v", err)
	}
	if !acc.Balance.Equal(mustDec(t, "4400")) {
		t.Errorf("account balance = %s, want 4400", acc.Balance)
	}

	// 3) Edit: cement 5 -> 7 on the credit document. Total 1650+300-50 = 1900,
	// balance moves by the difference.
	purchase, err = models.UpdatePurchase(ctx, purchase.ID, models.NewPurchase{
		Date:          time.Now(),
		SupplierId:    supplier.ID,
		WarehouseId:   warehouse.ID,
		Discount:      mustDec(t, "50"),
		PaymentMethod: models.PaymentMethodCredit,
		Items: []models.NewPurchaseItem{
			{ProductId: cement.ID, Quantity: 7, UnitPrice: mustDec(t, "150")},
			{ProductId: rebar.ID, Quantity: 3, UnitPrice: mustDec(t, "300")},
		},
	})
	if err != nil {
		t.Fatalf("UpdatePurchase: %v", err)
	}
	if !purchase.Total.Equal(mustDec(t, "1900")) {
		t.Errorf("updated total = %s, want 1900", purchase.Total)
	}
	assertSupplierBalance(t, ctx, supplier.ID, "1300")
	assertStock(t, ctx, cement.ID, warehouse.ID, 7)

	movements, err := models.FetchStockMovements(ctx, models.DocumentTypePurchase, purchase.Number)
	if err != nil {
		t.Fatalf("FetchStockMovements: %v", err)
	}
	foundEditIn := false
	for _, m := range movements {
		if strings.Contains(m.ReferenceNumber, "-EDIT-IN-") && m.Quantity == 2 {
			foundEditIn = true
		}
	}
	if !foundEditIn {
		t.Errorf("no EDIT-IN movement of 2 found in %d movements", len(movements))
	}

	// master-data edits leave ledger-owned columns alone
	if _, err := models.UpdateSupplier(ctx, supplier.ID, models.NewSupplier{
		Name: "Acme Traders Ltd", Code: "SUP001",
	}); err != nil {
		t.Fatalf("UpdateSupplier: %v", err)
	}
	assertSupplierBalance(t, ctx, supplier.ID, "1300")

	editedCement, err := models.UpdateProduct(ctx, cement.ID, models.NewProduct{
		Name: "Cement Bag 50kg", Sku: "CEM-001",
		CategoryId: &category.ID, UnitId: &unit.ID,
		CostPrice: mustDec(t, "1"),
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if !editedCement.CostPrice.Equal(mustDec(t, "150")) {
		t.Errorf("cost price after master edit = %s, want 150", editedCement.CostPrice)
	}

	// the document stays pinned to its warehouse
	annex, err := models.CreateWarehouse(ctx, models.NewWarehouse{Name: "Annex", Code: "WH02"})
	if err != nil {
		t.Fatalf("CreateWarehouse: %v", err)
	}
	if _, err := models.UpdatePurchase(ctx, purchase.ID, models.NewPurchase{
		Date:          time.Now(),
		SupplierId:    supplier.ID,
		WarehouseId:   annex.ID,
		Discount:      mustDec(t, "50"),
		PaymentMethod: models.PaymentMethodCredit,
		Items: []models.NewPurchaseItem{
			{ProductId: cement.ID, Quantity: 7, UnitPrice: mustDec(t, "150")},
			{ProductId: rebar.ID, Quantity: 3, UnitPrice: mustDec(t, "300")},
		},
	}); err == nil {
		t.Error("warehouse change should be rejected")
	}

	// referenced categories cannot be removed
	if err := models.DeleteCategory(ctx, category.ID); err == nil {
		t.Error("deleting a referenced category should fail")
	}

	// 4) Over-ask return: 15 cement against 7 purchased clamps to 7.
	ret, warnings, err := models.CreatePurchaseReturn(ctx, purchase.ID, models.NewPurchaseReturn{
		Date:   time.Now(),
		Reason: "damaged",
		Items:  []models.NewPurchaseReturnItem{{ProductId: cement.ID, Quantity: 15}},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseReturn: %v", err)
	}
	if len(warnings) == 0 {
		t.Error("expected a clamp warning")
	}
	if len(ret.Items) != 1 || ret.Items[0].Quantity != 7 {
		t.Fatalf("return quantity = %+v, want one line of 7", ret.Items)
	}
	if !ret.Total.Equal(mustDec(t, "1050")) {
		t.Errorf("return total = %s, want 1050", ret.Total)
	}
	assertStock(t, ctx, cement.ID, warehouse.ID, 0)

	// a second return has nothing left to claim and fails atomically
	_, _, err = models.CreatePurchaseReturn(ctx, purchase.ID, models.NewPurchaseReturn{
		Date:  time.Now(),
		Items: []models.NewPurchaseReturnItem{{ProductId: cement.ID, Quantity: 1}},
	})
	if err == nil {
		t.Error("expected error when nothing is returnable")
	}

	// 5) Confirm, then the purchase refuses deletion.
	if _, err := models.ConfirmPurchaseReturn(ctx, ret.ID); err != nil {
		t.Fatalf("ConfirmPurchaseReturn: %v", err)
	}
	if _, err := models.ConfirmPurchaseReturn(ctx, ret.ID); err == nil {
		t.Error("confirming a confirmed return should fail")
	}
	if err := models.DeletePurchase(ctx, purchase.ID); err == nil {
		t.Error("deleting a purchase with confirmed returns should fail")
	}

	// 6) A second purchase can be deleted; history stays, stock compensates.
	second, err := models.CreatePurchase(ctx, models.NewPurchase{
		Date:          time.Now(),
		SupplierId:    supplier.ID,
		WarehouseId:   warehouse.ID,
		PaymentMethod: models.PaymentMethodCredit,
		Items: []models.NewPurchaseItem{
			{ProductId: rebar.ID, Quantity: 10, UnitPrice: mustDec(t, "300")},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchase second: %v", err)
	}
	assertStock(t, ctx, rebar.ID, warehouse.ID, 13)
	assertSupplierBalance(t, ctx, supplier.ID, "4300")

	if err := models.DeletePurchase(ctx, second.ID); err != nil {
		t.Fatalf("DeletePurchase: %v", err)
	}
	assertStock(t, ctx, rebar.ID, warehouse.ID, 3)
	assertSupplierBalance(t, ctx, supplier.ID, "1300")

	deleted, err := models.FetchStockMovements(ctx, models.DocumentTypePurchase, second.Number)
	if err != nil {
		t.Fatalf("FetchStockMovements: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("deleted purchase journal has %d entries, want 2 (posting + compensation)", len(deleted))
	}

	// 7) Sale: cash 2 x 400, paid in full; customer balance returns to zero.
	sale, err := models.CreateSale(ctx, models.NewSale{
		Date:          time.Now(),
		CustomerId:    customer.ID,
		WarehouseId:   warehouse.ID,
		PaymentMethod: models.PaymentMethodCash,
		Items: []models.NewSaleItem{
			{ProductId: rebar.ID, Quantity: 2, UnitPrice: mustDec(t, "400")},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if sale.Number != "SAL0001" {
		t.Errorf("sale number = %q, want SAL0001", sale.Number)
	}
	assertStock(t, ctx, rebar.ID, warehouse.ID, 1)
	assertCustomerBalance(t, ctx, customer.ID, "800")

	if _, err := models.UpdateCustomer(ctx, customer.ID, models.NewCustomer{
		Name: "Corner Shop LLC", Code: "CUS001",
	}); err != nil {
		t.Fatalf("UpdateCustomer: %v", err)
	}
	assertCustomerBalance(t, ctx, customer.ID, "800")

	_, _, err = models.AddSalePayment(ctx, sale.ID, models.NewSalePayment{
		Date:        time.Now(),
		Amount:      mustDec(t, "800"),
		PaymentMode: models.PaymentModeCash,
		AccountId:   &accountId,
	})
	if err != nil {
		t.Fatalf("AddSalePayment: %v", err)
	}
	assertCustomerBalance(t, ctx, customer.ID, "0")

	saleRow, err := models.FetchSale(ctx, sale.ID)
	if err != nil {
		t.Fatalf("FetchSale: %v", err)
	}
	if saleRow.PaymentStatus != models.PaymentStatusPaid {
		t.Errorf("sale status = %s, want paid", saleRow.PaymentStatus)
	}

	// 8) Nothing drifted: stored balances and stock match a ledger replay.
	report, err := workflow.RunReconciliationChecks(ctx)
	if err != nil {
		t.Fatalf("RunReconciliationChecks: %v", err)
	}
	if len(report.BalanceDrifts) != 0 {
		t.Errorf("balance drifts: %+v", report.BalanceDrifts)
	}
	if len(report.StockDrifts) != 0 {
		t.Errorf("stock drifts: %+v", report.StockDrifts)
	}
}

func mustDec(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", v, err)
	}
	return d
}

func assertSupplierBalance(t *testing.T, ctx context.Context, id int, want string) {
	t.Helper()
	supplier, err := models.FetchSupplier(ctx, id)
	if err != nil {
		t.Fatalf("FetchSupplier: %v", err)
	}
	if !supplier.Balance.Equal(mustDec(t, want)) {
		t.Errorf("supplier balance = %s, want %s", supplier.Balance, want)
	}
}

func assertCustomerBalance(t *testing.T, ctx context.Context, id int, want string) {
	t.Helper()
	customer, err := models.FetchCustomer(ctx, id)
	if err != nil {
		t.Fatalf("FetchCustomer: %v", err)
	}
	if !customer.Balance.Equal(mustDec(t, want)) {
		t.Errorf("customer balance = %s, want %s", customer.Balance, want)
	}
}

func assertStock(t *testing.T, ctx context.Context, productId, warehouseId, want int) {
	t.Helper()
	level, err := models.GetStockLevel(ctx, productId, warehouseId)
	if err != nil {
		t.Fatalf("GetStockLevel: %v", err)
	}
	if level != want {
		t.Errorf("stock(product=%d) = %d, want %d", productId, level, want)
	}
}

func assertPurchaseStatus(t *testing.T, ctx context.Context, id int, want models.PaymentStatus) {
	t.Helper()
	purchase, err := models.FetchPurchase(ctx, id)
	if err != nil {
		t.Fatalf("FetchPurchase: %v", err)
	}
	if purchase.PaymentStatus != want {
		t.Errorf("purchase status = %s, want %s", purchase.PaymentStatus, want)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("erp-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("erp-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=erp_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
