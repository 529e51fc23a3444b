// rollback reverses the invoice migration: it clears service-log links to
// migrated invoices, deletes every prefixed invoice, and recounts. It prints
// the plan first and requires the operator to type "yes".
//
// Usage: go run ./cmd/rollback
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"sailorskills-migrate/internal/config"
	"sailorskills-migrate/internal/db"
	"sailorskills-migrate/internal/migrate"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger := logrus.New()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	rb := migrate.NewRollback(migrate.NewStore(pool), logger, cfg.InvoicePrefix)

	plan, err := rb.Analyze(ctx)
	if err != nil {
		log.Fatalf("Rollback analysis failed: %v", err)
	}

	fmt.Println("\n⚠️  MIGRATION ROLLBACK")
	fmt.Println()
	fmt.Printf("This will delete %d invoices with prefix %q\n", plan.InvoiceCount, cfg.InvoicePrefix)
	fmt.Printf("and clear invoice_id on %d linked service logs.\n", plan.LinkedLogCount)
	fmt.Println("Payments created by the importer are NOT deleted.")
	if plan.InvoiceCount == 0 {
		fmt.Println("\nNothing to roll back.")
		return
	}
	fmt.Print("\nType \"yes\" to proceed: ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		log.Fatalf("Failed to read confirmation: %v", err)
	}
	if strings.TrimSpace(line) != "yes" {
		fmt.Println("Aborted. No changes made.")
		return
	}

	result, err := rb.Execute(ctx, plan)
	if err != nil {
		log.Fatalf("Rollback failed: %v", err)
	}

	fmt.Println("\nROLLBACK COMPLETE")
	fmt.Println()
	fmt.Println("Service log links cleared:", result.ClearedLinks)
	fmt.Println("Invoices deleted:", result.DeletedInvoices)
	fmt.Println("Migrated invoices remaining:", result.RemainingInvoices)
	if result.RemainingInvoices != 0 {
		fmt.Println("\n⚠️  Remaining count is non-zero; inspect the invoices table.")
		os.Exit(1)
	}
	fmt.Println("\n✅ Rollback verified clean.")
}
