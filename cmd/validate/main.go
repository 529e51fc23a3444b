// validate is stage 6 of the Zoho migration: read-only consistency checks
// over the migrated data. Exits non-zero when any check fails so it can gate
// a pipeline.
//
// Usage: go run ./cmd/validate
package main

import (
	"context"
	"fmt"
	"log"
	"os"

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

	validator := migrate.NewValidator(migrate.NewStore(pool), logger, cfg.InvoicePrefix, migrate.DefaultThresholds())
	result := validator.Run(ctx)

	reporter := migrate.NewReporter(cfg.OutputDir)
	if _, err := reporter.WriteJSON("validation-results.json", result); err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}

	fmt.Println("\nMIGRATION VALIDATION RESULTS")
	fmt.Println()
	for _, c := range result.Checks {
		mark := "✅"
		if !c.Pass {
			mark = "❌"
		}
		fmt.Printf("%s %s\n", mark, c.Name)
		if c.Expected != nil {
			fmt.Println("   Expected:", c.Expected)
		}
		fmt.Println("   Actual:", c.Actual)
		if c.Percentage != "" {
			fmt.Printf("   %v of %v (%s)\n", c.Actual, c.Total, c.Percentage)
		}
		if c.Note != "" {
			fmt.Println("   Note:", c.Note)
		}
		if c.Error != "" {
			fmt.Println("   Error:", c.Error)
		}
	}
	fmt.Println("\nOverall:", result.OverallStatus)
	fmt.Println("Full results saved to validation-results.json")

	if !result.Passed() {
		os.Exit(1)
	}
}
