package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mwhebadata/erp_backend/config"
	"github.com/mwhebadata/erp_backend/workflow"
)

// Replays the stock movement journal and reports levels that disagree with
// the stored stock rows. Pass -fix to overwrite them.
func main() {
	fix := flag.Bool("fix", false, "write the recomputed stock levels")
	flag.Parse()

	godotenv.Load()
	config.ConnectDatabaseWithRetry()

	drifts, err := workflow.RebuildStockLevels(context.Background(), *fix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
		os.Exit(1)
	}

	if len(drifts) == 0 {
		fmt.Println("all stock levels match the journal")
		return
	}
	for _, d := range drifts {
		fmt.Printf("product=%d warehouse=%d: stored=%d computed=%d\n",
			d.ProductId, d.WarehouseId, d.Stored, d.Computed)
	}
	if *fix {
		fmt.Printf("fixed %d stock rows\n", len(drifts))
	} else {
		fmt.Printf("%d stock rows drifted; rerun with -fix to repair\n", len(drifts))
		os.Exit(2)
	}
}
