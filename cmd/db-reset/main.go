package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mwhebadata/erp_backend/config"
	"github.com/mwhebadata/erp_backend/models"
)

// Drops and recreates every table. Development tool; refuses to run without
// explicit confirmation.
func main() {
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	godotenv.Load()

	if !*yes {
		fmt.Printf("This will DROP ALL TABLES in %s. Type 'yes' to continue: ", os.Getenv("DB_NAME"))
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			fmt.Println("aborted")
			return
		}
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()

	tables := []interface{}{
		&models.SaleReturnItem{}, &models.SaleReturn{},
		&models.SalePayment{}, &models.SaleItem{}, &models.Sale{},
		&models.PurchaseReturnItem{}, &models.PurchaseReturn{},
		&models.PurchasePayment{}, &models.PurchaseItem{}, &models.Purchase{},
		&models.AccountTransaction{}, &models.MoneyAccount{},
		&models.StockMovement{}, &models.Stock{}, &models.SerialNumber{},
		&models.Product{}, &models.Category{}, &models.Unit{},
		&models.Warehouse{}, &models.Customer{}, &models.Supplier{},
		&models.User{},
	}
	if err := db.Migrator().DropTable(tables...); err != nil {
		fmt.Fprintf(os.Stderr, "drop failed: %v\n", err)
		os.Exit(1)
	}
	if err := models.MigrateTable(); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("database reset complete")
}
