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

// Recomputes counterparty balances from documents and payments and reports
// drift against the stored running balances. Pass -fix to overwrite them.
func main() {
	fix := flag.Bool("fix", false, "write the recomputed balances")
	flag.Parse()

	godotenv.Load()
	config.ConnectDatabaseWithRetry()

	drifts, err := workflow.RebuildBalances(context.Background(), *fix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
		os.Exit(1)
	}

	if len(drifts) == 0 {
		fmt.Println("all balances match the ledger")
		return
	}
	for _, d := range drifts {
		fmt.Printf("%s %d (%s): stored=%s computed=%s drift=%s\n",
			d.PartyType, d.PartyId, d.Name, d.Stored, d.Computed, d.Drift)
	}
	if *fix {
		fmt.Printf("fixed %d balances\n", len(drifts))
	} else {
		fmt.Printf("%d balances drifted; rerun with -fix to repair\n", len(drifts))
		os.Exit(2)
	}
}
