// map-customers is stage 2 of the Zoho migration: it matches legacy
// customers to target customers by email and persists customer-mapping.json,
// the join key every later stage depends on.
//
// Usage: go run ./cmd/map-customers
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

	zohoCustomers, err := zoho.ReadCustomersFile(zoho.CustomersPath(cfg.CSVPath))
	if err != nil {
		log.Fatalf("Failed to parse customers export: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	mapper := migrate.NewCustomerMapper(migrate.NewStore(pool), logger)
	result, err := mapper.Run(ctx, zohoCustomers)
	if err != nil {
		log.Fatalf("Customer mapping failed: %v", err)
	}

	reporter := migrate.NewReporter(cfg.OutputDir)
	if _, err := reporter.WriteJSON("customer-mapping.json", result.Mapping); err != nil {
		log.Fatalf("Failed to write mapping: %v", err)
	}
	if _, err := reporter.WriteJSON("customer-mapping-stats.json", result.Stats); err != nil {
		log.Fatalf("Failed to write stats: %v", err)
	}
	if len(result.Unmatched) > 0 {
		rows := make([][]string, 0, len(result.Unmatched))
		for _, u := range result.Unmatched {
			rows = append(rows, []string{u.ZohoID, u.ZohoName, u.ZohoEmail, u.Reason})
		}
		headers := []string{"zoho_id", "zoho_name", "zoho_email", "reason"}
		if _, err := reporter.WriteCSV("unmatched-customers.csv", headers, rows); err != nil {
			log.Fatalf("Failed to write unmatched customers: %v", err)
		}
	}

	fmt.Println("\nCUSTOMER MAPPING SUMMARY")
	fmt.Println()
	fmt.Println("Total Zoho Customers:", result.Stats.TotalZohoCustomers)
	fmt.Printf("Matched: %d (%s)\n", result.Stats.Matched, result.Stats.MatchRate)
	fmt.Println("Unmatched:", result.Stats.Unmatched)
	if len(result.Unmatched) > 0 {
		fmt.Println("\n⚠️  Unmatched customers written to unmatched-customers.csv")
		fmt.Println("    Review and manually create these customers if needed.")
	}
	fmt.Println("\n✅ Mapping complete. Saved to customer-mapping.json")
}
