// import-invoices is stage 3 of the Zoho migration: it reads the legacy
// invoice and payment exports, resolves payment methods against existing
// Stripe payments, and inserts prefixed invoice rows in batches.
//
// Usage: go run ./cmd/import-invoices
// DRY_RUN=true runs all categorization without writing.
package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

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

	mapping, err := migrate.LoadCustomerMapping(filepath.Join(cfg.OutputDir, "customer-mapping.json"))
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	invoices, err := zoho.ReadInvoicesFile(zoho.InvoicesPath(cfg.CSVPath))
	if err != nil {
		log.Fatalf("Failed to parse invoices export: %v", err)
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

	importer := migrate.NewInvoiceImporter(migrate.NewStore(pool), logger, migrate.ImportOptions{
		Prefix:    cfg.InvoicePrefix,
		BatchSize: cfg.BatchSize,
		DryRun:    cfg.DryRun,
	})
	result, err := importer.Run(ctx, invoices, payments, mapping)
	if err != nil {
		log.Fatalf("Invoice import failed: %v", err)
	}

	reporter := migrate.NewReporter(cfg.OutputDir)
	if _, err := reporter.WriteJSON("invoice-import-results.json", result); err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}

	fmt.Println("\nINVOICE IMPORT SUMMARY")
	fmt.Println()
	fmt.Println("Total Zoho Invoices:", result.Total)
	fmt.Println("Processed:", result.Processed)
	fmt.Println("Skipped (no customer):", result.Skipped)
	fmt.Println("\nPayment Breakdown:")
	fmt.Println("  Linked to existing Stripe:", result.StripeLinked)
	fmt.Println("  New Stripe payments needed:", result.StripePaymentCreated)
	fmt.Println("  Zoho Payments:", result.ZohoPayment)
	fmt.Println("  Unpaid:", result.Unpaid)
	if len(result.Errors) > 0 {
		fmt.Println("\n⚠️  Errors:", len(result.Errors))
		fmt.Println("    See invoice-import-results.json for details")
	}
	if cfg.DryRun {
		fmt.Println("\n🔍 DRY RUN - No data written. Set DRY_RUN=false to import.")
	} else {
		fmt.Println("\n✅ Invoice import complete!")
	}
}
