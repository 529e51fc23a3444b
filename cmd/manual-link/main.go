// manual-link investigates service logs the automatic linker left behind and
// forces a link once a human has decided.
//
// Usage:
//
//	go run ./cmd/manual-link list-recent
//	go run ./cmd/manual-link <service_log_id>
//	go run ./cmd/manual-link <service_log_id> --link <invoice_id>
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"sailorskills-migrate/internal/config"
	"sailorskills-migrate/internal/db"
	"sailorskills-migrate/internal/migrate"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  manual-link list-recent")
	fmt.Println("  manual-link <service_log_id>")
	fmt.Println("  manual-link <service_log_id> --link <invoice_id>")
	os.Exit(2)
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
	}

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

	helper := migrate.NewManualLinker(migrate.NewStore(pool), logger, cfg.InvoicePrefix)

	switch {
	case os.Args[1] == "list-recent":
		listRecent(ctx, helper)
	case len(os.Args) == 4 && os.Args[2] == "--link":
		link(ctx, helper, os.Args[1], os.Args[3])
	case len(os.Args) == 2:
		investigate(ctx, helper, os.Args[1])
	default:
		usage()
	}
}

func listRecent(ctx context.Context, helper *migrate.ManualLinker) {
	since := time.Now().AddDate(0, -6, 0)
	logs, err := helper.ListRecent(ctx, since, 50)
	if err != nil {
		log.Fatalf("Failed to list unlinked service logs: %v", err)
	}

	fmt.Printf("\nUnlinked service logs since %s (max 50):\n\n", since.Format("2006-01-02"))
	for _, sl := range logs {
		orderID := "-"
		if sl.OrderID != nil {
			orderID = *sl.OrderID
		}
		fmt.Printf("  %s  %s  customer=%s  order=%s\n",
			sl.ID, sl.ServiceDate.Format("2006-01-02"), sl.CustomerID, orderID)
	}
	if len(logs) == 0 {
		fmt.Println("  (none)")
	}
}

func investigate(ctx context.Context, helper *migrate.ManualLinker, serviceLogID string) {
	inv, err := helper.Investigate(ctx, serviceLogID)
	if err != nil {
		log.Fatalf("Investigation failed: %v", err)
	}

	fmt.Println("\nSERVICE LOG")
	fmt.Println("  ID:", inv.ServiceLog.ID)
	fmt.Println("  Date:", inv.ServiceLog.ServiceDate.Format("2006-01-02"))
	if inv.Customer != nil {
		fmt.Printf("  Customer: %s (%s)\n", inv.Customer.Name, inv.Customer.Email)
	} else {
		fmt.Println("  Customer:", inv.ServiceLog.CustomerID)
	}
	if inv.ServiceLog.OrderID != nil {
		fmt.Println("  Order ID:", *inv.ServiceLog.OrderID)
	}

	fmt.Println("\nCANDIDATE INVOICES (sorted by date distance)")
	for _, c := range inv.Candidates {
		mark := "  "
		if c.Candidate {
			mark = "→ "
		}
		fmt.Printf("%s%s  %s  %s  $%s  (%.0f days)\n",
			mark, c.Invoice.ID, c.Invoice.InvoiceNumber,
			c.Invoice.IssuedAt.Format("2006-01-02"), c.Invoice.Amount.StringFixed(2), c.DaysDiff)
	}
	if len(inv.Candidates) == 0 {
		fmt.Println("  (customer has no migrated invoices)")
	}
	fmt.Println("\nTo link: manual-link", serviceLogID, "--link <invoice_id>")
}

func link(ctx context.Context, helper *migrate.ManualLinker, serviceLogID, invoiceID string) {
	if err := helper.Link(ctx, serviceLogID, invoiceID); err != nil {
		log.Fatalf("Link failed: %v", err)
	}
	fmt.Printf("✅ Linked service log %s to invoice %s\n", serviceLogID, invoiceID)
}
