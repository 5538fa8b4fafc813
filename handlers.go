package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/mwhebadata/erp_backend/middlewares"
	"github.com/mwhebadata/erp_backend/models"
	"github.com/mwhebadata/erp_backend/utils"
	"github.com/mwhebadata/erp_backend/workflow"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("erp_backend")

func registerRoutes(router *gin.Engine) {
	router.Use(middlewares.CorrelationId())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/auth/login", login)

	api := router.Group("/api", middlewares.Auth())
	{
		api.GET("/dashboard", getDashboard)

		api.GET("/customers", listCustomers)
		api.POST("/customers", createCustomer)
		api.GET("/customers/:id", getCustomer)
		api.PUT("/customers/:id", updateCustomer)
		api.DELETE("/customers/:id", deleteCustomer)

		api.GET("/suppliers", listSuppliers)
		api.POST("/suppliers", createSupplier)
		api.GET("/suppliers/:id", getSupplier)
		api.PUT("/suppliers/:id", updateSupplier)
		api.DELETE("/suppliers/:id", deleteSupplier)

		api.GET("/categories", listCategories)
		api.POST("/categories", createCategory)
		api.DELETE("/categories/:id", deleteCategory)

		api.GET("/units", listUnits)
		api.POST("/units", createUnit)
		api.DELETE("/units/:id", deleteUnit)

		api.GET("/products", listProducts)
		api.POST("/products", createProduct)
		api.GET("/products/:id", getProduct)
		api.PUT("/products/:id", updateProduct)
		api.DELETE("/products/:id", deleteProduct)

		api.GET("/warehouses", listWarehouses)
		api.POST("/warehouses", createWarehouse)
		api.GET("/warehouses/:id", getWarehouse)
		api.PUT("/warehouses/:id", updateWarehouse)
		api.DELETE("/warehouses/:id", deleteWarehouse)

		api.GET("/accounts", listAccounts)
		api.POST("/accounts", createAccount)
		api.GET("/accounts/:id", getAccount)

		api.GET("/purchases", listPurchases)
		api.POST("/purchases", createPurchase)
		api.GET("/purchases/:id", getPurchase)
		api.PUT("/purchases/:id", updatePurchase)
		api.DELETE("/purchases/:id", deletePurchase)
		api.GET("/purchases/:id/payments", listPurchasePayments)
		api.POST("/purchases/:id/payments", addPurchasePayment)
		api.GET("/purchases/:id/returns", listPurchaseReturns)
		api.POST("/purchases/:id/returns", createPurchaseReturn)
		api.GET("/purchase-returns/:id", getPurchaseReturn)
		api.POST("/purchase-returns/:id/confirm", confirmPurchaseReturn)
		api.POST("/purchase-returns/:id/cancel", cancelPurchaseReturn)

		api.GET("/sales", listSales)
		api.POST("/sales", createSale)
		api.GET("/sales/:id", getSale)
		api.PUT("/sales/:id", updateSale)
		api.DELETE("/sales/:id", deleteSale)
		api.GET("/sales/:id/payments", listSalePayments)
		api.POST("/sales/:id/payments", addSalePayment)
		api.GET("/sales/:id/returns", listSaleReturns)
		api.POST("/sales/:id/returns", createSaleReturn)
		api.GET("/sale-returns/:id", getSaleReturn)
		api.POST("/sale-returns/:id/confirm", confirmSaleReturn)
		api.POST("/sale-returns/:id/cancel", cancelSaleReturn)

		api.GET("/stock", getStockLevel)
		api.GET("/stock/movements", listStockMovements)

		admin := api.Group("/admin", middlewares.AdminOnly())
		{
			admin.POST("/users", createUser)
			admin.GET("/reconciliation", runReconciliationChecks)
			admin.POST("/rebuild/balances", rebuildBalances)
			admin.POST("/rebuild/stock", rebuildStock)
		}
	}
}

// handleError maps model errors to HTTP statuses. Driver and deadline
// failures are server faults, not bad input.
func handleError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	var driverError *mysql.MySQLError
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &validationErrors):
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
	case errors.As(err, &driverError), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

/* auth */

func login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	token, user, err := models.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func createUser(c *gin.Context) {
	var input models.NewUser
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	user, err := models.CreateUser(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

/* dashboard */

func getDashboard(c *gin.Context) {
	stats, err := models.FetchDashboardStats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

/* customers */

func listCustomers(c *gin.Context) {
	customers, err := models.FetchCustomers(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func createCustomer(c *gin.Context) {
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	customer, err := models.CreateCustomer(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func getCustomer(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	customer, err := models.FetchCustomer(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func updateCustomer(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	customer, err := models.UpdateCustomer(c.Request.Context(), id, input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func deleteCustomer(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteCustomer(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

/* suppliers */

func listSuppliers(c *gin.Context) {
	suppliers, err := models.FetchSuppliers(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

func createSupplier(c *gin.Context) {
	var input models.NewSupplier
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	supplier, err := models.CreateSupplier(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

func getSupplier(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	supplier, err := models.FetchSupplier(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func updateSupplier(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewSupplier
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	supplier, err := models.UpdateSupplier(c.Request.Context(), id, input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func deleteSupplier(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteSupplier(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

/* categories and units */

func listCategories(c *gin.Context) {
	categories, err := models.FetchCategories(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func createCategory(c *gin.Context) {
	var input models.NewCategory
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	category, err := models.CreateCategory(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func deleteCategory(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteCategory(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func listUnits(c *gin.Context) {
	units, err := models.FetchUnits(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, units)
}

func createUnit(c *gin.Context) {
	var input models.NewUnit
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	unit, err := models.CreateUnit(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, unit)
}

func deleteUnit(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteUnit(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

/* products */

func listProducts(c *gin.Context) {
	products, err := models.FetchProducts(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func createProduct(c *gin.Context) {
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	product, err := models.CreateProduct(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func getProduct(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	product, err := models.FetchProduct(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func updateProduct(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	product, err := models.UpdateProduct(c.Request.Context(), id, input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func deleteProduct(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteProduct(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

/* warehouses */

func listWarehouses(c *gin.Context) {
	warehouses, err := models.FetchWarehouses(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, warehouses)
}

func createWarehouse(c *gin.Context) {
	var input models.NewWarehouse
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	warehouse, err := models.CreateWarehouse(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, warehouse)
}

func getWarehouse(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	warehouse, err := models.FetchWarehouse(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, warehouse)
}

func updateWarehouse(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewWarehouse
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	warehouse, err := models.UpdateWarehouse(c.Request.Context(), id, input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, warehouse)
}

func deleteWarehouse(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteWarehouse(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

/* money accounts */

func listAccounts(c *gin.Context) {
	accounts, err := models.FetchMoneyAccounts(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func createAccount(c *gin.Context) {
	var input models.NewMoneyAccount
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	account, err := models.CreateMoneyAccount(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func getAccount(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	account, err := models.FetchMoneyAccount(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

/* purchases */

func listPurchases(c *gin.Context) {
	purchases, err := models.FetchPurchases(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchases)
}

func createPurchase(c *gin.Context) {
	var input models.NewPurchase
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	purchase, err := models.CreatePurchase(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, purchase)
}

func getPurchase(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	purchase, err := models.FetchPurchase(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func updatePurchase(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewPurchase
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	purchase, err := models.UpdatePurchase(c.Request.Context(), id, input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func deletePurchase(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeletePurchase(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func listPurchasePayments(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	payments, err := models.FetchPurchasePayments(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func addPurchasePayment(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewPurchasePayment
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	payment, warning, err := models.AddPurchasePayment(c.Request.Context(), id, input)
	if err != nil {
		handleError(c, err)
		return
	}
	response := gin.H{"payment": payment}
	if warning != "" {
		response["warning"] = warning
	}
	c.JSON(http.StatusCreated, response)
}

func listPurchaseReturns(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	returns, err := models.FetchPurchaseReturns(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, returns)
}

func createPurchaseReturn(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewPurchaseReturn
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	ret, warnings, err := models.CreatePurchaseReturn(c.Request.Context(), id, input)
	if err != nil {
		handleError(c, err)
		return
	}
	response := gin.H{"return": ret}
	if len(warnings) > 0 {
		response["warnings"] = warnings
	}
	c.JSON(http.StatusCreated, response)
}

func getPurchaseReturn(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	ret, err := models.FetchPurchaseReturn(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ret)
}

func confirmPurchaseReturn(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	ret, err := models.ConfirmPurchaseReturn(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ret)
}

func cancelPurchaseReturn(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	ret, err := models.CancelPurchaseReturn(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ret)
}

/* sales */

func listSales(c *gin.Context) {
	sales, err := models.FetchSales(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

func createSale(c *gin.Context) {
	var input models.NewSale
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	sale, err := models.CreateSale(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func getSale(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	sale, err := models.FetchSale(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func updateSale(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewSale
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	sale, err := models.UpdateSale(c.Request.Context(), id, input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func deleteSale(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteSale(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func listSalePayments(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	payments, err := models.FetchSalePayments(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func addSalePayment(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewSalePayment
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	payment, warning, err := models.AddSalePayment(c.Request.Context(), id, input)
	if err != nil {
		handleError(c, err)
		return
	}
	response := gin.H{"payment": payment}
	if warning != "" {
		response["warning"] = warning
	}
	c.JSON(http.StatusCreated, response)
}

func listSaleReturns(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	returns, err := models.FetchSaleReturns(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, returns)
}

func createSaleReturn(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewSaleReturn
	if err := c.ShouldBindJSON(&input); err != nil {
		handleError(c, err)
		return
	}
	ret, warnings, err := models.CreateSaleReturn(c.Request.Context(), id, input)
	if err != nil {
		handleError(c, err)
		return
	}
	response := gin.H{"return": ret}
	if len(warnings) > 0 {
		response["warnings"] = warnings
	}
	c.JSON(http.StatusCreated, response)
}

func getSaleReturn(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	ret, err := models.FetchSaleReturn(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ret)
}

func confirmSaleReturn(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	ret, err := models.ConfirmSaleReturn(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ret)
}

func cancelSaleReturn(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	ret, err := models.CancelSaleReturn(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ret)
}

/* stock */

func getStockLevel(c *gin.Context) {
	productId, err1 := strconv.Atoi(c.Query("productId"))
	warehouseId, err2 := strconv.Atoi(c.Query("warehouseId"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId and warehouseId are required"})
		return
	}
	level, err := models.GetStockLevel(c.Request.Context(), productId, warehouseId)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"productId":   productId,
		"warehouseId": warehouseId,
		"quantity":    level,
	})
}

func listStockMovements(c *gin.Context) {
	documentType := models.DocumentType(c.Query("documentType"))
	documentNumber := c.Query("documentNumber")
	if documentType == "" || documentNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "documentType and documentNumber are required"})
		return
	}
	movements, err := models.FetchStockMovements(c.Request.Context(), documentType, documentNumber)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

/* ops */

func runReconciliationChecks(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "reconciliationChecks")
	defer span.End()
	report, err := workflow.RunReconciliationChecks(ctx)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func rebuildBalances(c *gin.Context) {
	fix := c.Query("fix") == "true"
	drifts, err := workflow.RebuildBalances(c.Request.Context(), fix)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fixed": fix, "drifts": drifts})
}

func rebuildStock(c *gin.Context) {
	fix := c.Query("fix") == "true"
	drifts, err := workflow.RebuildStockLevels(c.Request.Context(), fix)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fixed": fix, "drifts": drifts})
}
