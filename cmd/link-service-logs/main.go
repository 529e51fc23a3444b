// link-service-logs is stage 5 of the Zoho migration: it assigns migrated
// invoices to service logs that lack one, by Stripe payment-intent reference
// first and date proximity second, and exports whatever it could not link
// for manual review.
//
// Usage: go run ./cmd/link-service-logs
// DRY_RUN=true matches without writing.
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

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	linker := migrate.NewServiceLogLinker(migrate.NewStore(pool), logger, migrate.LinkerOptions{
		Prefix: cfg.InvoicePrefix,
		DryRun: cfg.DryRun,
	})
	result, err := linker.Run(ctx)
	if err != nil {
		log.Fatalf("Service log linkage failed: %v", err)
	}

	reporter := migrate.NewReporter(cfg.OutputDir)
	if _, err := reporter.WriteJSON("service-log-linkage-results.json", result); err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}
	if len(result.UnlinkedLogs) > 0 {
		rows := migrate.UnlinkedCSVRows(result.UnlinkedLogs)
		if _, err := reporter.WriteCSV("unlinked-service-logs.csv", migrate.UnlinkedCSVHeaders(), rows); err != nil {
			log.Fatalf("Failed to write unlinked logs: %v", err)
		}
	}

	fmt.Println("\nSERVICE LOG LINKAGE SUMMARY")
	fmt.Println()
	fmt.Println("Total unlinked service logs:", result.Total)
	fmt.Println("High confidence (payment intent):", result.HighConfidence)
	fmt.Println("Medium confidence (date heuristic):", result.MediumConfidence)
	fmt.Println("Still unlinked:", result.Unlinked)
	fmt.Printf("Linkage rate: %.1f%%\n", result.LinkageRate()*100)
	if len(result.UnlinkedLogs) > 0 {
		fmt.Println("\n⚠️  Unlinked logs written to unlinked-service-logs.csv")
		fmt.Println("    Use cmd/manual-link to investigate individual logs.")
	}
	if len(result.Errors) > 0 {
		fmt.Println("\n⚠️  Errors:", len(result.Errors))
	}
	if cfg.DryRun {
		fmt.Println("\n🔍 DRY RUN - No data written. Set DRY_RUN=false to link.")
	} else {
		fmt.Println("\n✅ Service log linkage complete!")
	}
}
