// analyze-data is stage 1 of the Zoho migration: a read-only pre-flight
// summary of the legacy CSV exports. It never touches the target store.
//
// Usage: go run ./cmd/analyze-data
package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"sailorskills-migrate/internal/config"
	"sailorskills-migrate/internal/migrate"
	"sailorskills-migrate/internal/zoho"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	customers, err := zoho.ReadCustomersFile(zoho.CustomersPath(cfg.CSVPath))
	if err != nil {
		log.Fatalf("Failed to parse customers export: %v", err)
	}
	invoices, err := zoho.ReadInvoicesFile(zoho.InvoicesPath(cfg.CSVPath))
	if err != nil {
		log.Fatalf("Failed to parse invoices export: %v", err)
	}
	payments, err := zoho.ReadPaymentsFile(zoho.PaymentsPath(cfg.CSVPath))
	if err != nil {
		log.Fatalf("Failed to parse payments export: %v", err)
	}

	report := migrate.Analyze(customers, invoices, payments)

	reporter := migrate.NewReporter(cfg.OutputDir)
	if _, err := reporter.WriteJSON("analysis-report.json", report); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	fmt.Println("\nZOHO DATA ANALYSIS SUMMARY")
	fmt.Println()
	fmt.Println("Customers:", report.Summary.TotalCustomers)
	fmt.Println("Invoices:", report.Summary.TotalInvoices)
	fmt.Println("Payments:", report.Summary.TotalPayments)
	fmt.Println("\nPayment Methods:")
	fmt.Printf("  Stripe: %d (%s)\n", report.PaymentMethods.Stripe, report.PaymentMethodPercentages.Stripe)
	fmt.Printf("  Zoho:   %d (%s)\n", report.PaymentMethods.Zoho, report.PaymentMethodPercentages.Zoho)
	fmt.Printf("  Unpaid: %d (%s)\n", report.PaymentMethods.Unpaid, report.PaymentMethodPercentages.Unpaid)
	fmt.Println("\nStripe Charge IDs Found:", report.StripeChargeIDsFound)
	fmt.Println("Total Invoiced: $" + report.Summary.TotalInvoiced)
	fmt.Println("Total Paid: $" + report.Summary.TotalPaid)
	fmt.Println("\n✅ Analysis complete. Report saved to analysis-report.json")
}
