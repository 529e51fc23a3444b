// import-payments is stage 4 of the Zoho migration: it inserts payment rows
// for legacy non-Stripe payments and backfills the parent invoices with
// payment method, reference, and payment_id.
//
// Usage: go run ./cmd/import-payments
// DRY_RUN=true builds records without writing.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"sailorskills-migrate/internal/config"
	"sailorskills-migrate/internal/db"
	"sailorskills-migrate/internal/migrate"
	"sailorskills-migrate/internal/zoho"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger := logrus.New()

	if cfg.DryRun {
		fmt.Println("\n🔍 DRY RUN MODE - No data will be written")
	}

	payments, err := zoho.ReadPaymentsFile(zoho.PaymentsPath(cfg.CSVPath))
	if err != nil {
		log.Fatalf("Failed to parse payments export: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	importer := migrate.NewPaymentImporter(migrate.NewStore(pool), logger, migrate.ImportOptions{
		Prefix:    cfg.InvoicePrefix,
		BatchSize: cfg.BatchSize,
		DryRun:    cfg.DryRun,
	})
	result, err := importer.Run(ctx, payments)
	if err != nil {
		log.Fatalf("Payment import failed: %v", err)
	}

	reporter := migrate.NewReporter(cfg.OutputDir)
	if _, err := reporter.WriteJSON("zoho-payments-import-results.json", result); err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}

	fmt.Println("\nZOHO PAYMENTS IMPORT SUMMARY")
	fmt.Println()
	fmt.Println("Total Zoho Payments:", result.Total)
	fmt.Println("Processed:", result.Processed)
	fmt.Println("Linked to invoices:", result.Linked)
	fmt.Println("Unlinked (invoice not found):", result.Unlinked)
	if len(result.Errors) > 0 {
		fmt.Println("\n⚠️  Errors:", len(result.Errors))
		fmt.Println("    See zoho-payments-import-results.json for details")
	}
	if cfg.DryRun {
		fmt.Println("\n🔍 DRY RUN - No data written. Set DRY_RUN=false to import.")
	} else {
		fmt.Println("\n✅ Zoho payments import complete!")
	}
}
