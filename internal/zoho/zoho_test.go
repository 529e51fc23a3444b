package zoho_test

import (
	"strings"
	"testing"

	"sailorskills-migrate/internal/zoho"
)

func TestParseCustomers(t *testing.T) {
	input := strings.Join([]string{
		"Customer ID|Customer Name|Company Name|EmailID",
		"Z1|Brian Cline||brian@example.com",
		"Z2|Alice|Alice Marine LLC|alice@example.com",
	}, "\n")

	rows, err := zoho.ParseCustomers(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCustomers: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].CustomerID != "Z1" || rows[0].Email != "brian@example.com" {
		t.Errorf("unexpected first row: %+v", rows[0])
	}

	t.Run("DisplayNamePrefersCompany", func(t *testing.T) {
		if rows[0].DisplayName() != "Brian Cline" {
			t.Errorf("expected contact name fallback, got %q", rows[0].DisplayName())
		}
		if rows[1].DisplayName() != "Alice Marine LLC" {
			t.Errorf("expected company name, got %q", rows[1].DisplayName())
		}
	})
}

func TestParseInvoices(t *testing.T) {
	input := strings.Join([]string{
		"Invoice Number|Customer ID|Invoice Date|Due Date|Total|Invoice Status|Stripe|Zoho Payments",
		"INV-001|Z1|2024-01-10|2024-02-10|450.00|Closed|true|false",
		"INV-002|Z2|2024-03-01|2024-04-01|200|Open|false|true",
	}, "\n")

	rows, err := zoho.ParseInvoices(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseInvoices: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.InvoiceNumber != "INV-001" || first.CustomerID != "Z1" {
		t.Errorf("unexpected identity fields: %+v", first)
	}
	if first.InvoiceDate.Format("2006-01-02") != "2024-01-10" {
		t.Errorf("unexpected invoice date: %v", first.InvoiceDate)
	}
	if first.Total.StringFixed(2) != "450.00" {
		t.Errorf("unexpected total: %v", first.Total)
	}
	if !first.Stripe || first.ZohoPayments {
		t.Errorf("unexpected flags: stripe=%v zoho=%v", first.Stripe, first.ZohoPayments)
	}
	if rows[1].Stripe || !rows[1].ZohoPayments {
		t.Errorf("unexpected flags on second row: %+v", rows[1])
	}
}

func TestParseInvoices_ReorderedColumns(t *testing.T) {
	// Columns are addressed by header name, so order must not matter.
	input := strings.Join([]string{
		"Total|Invoice Number|Invoice Status|Customer ID|Invoice Date|Due Date|Zoho Payments|Stripe",
		"99.95|INV-009|Paid|Z1|2024-05-01|2024-06-01|false|true",
	}, "\n")

	rows, err := zoho.ParseInvoices(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseInvoices: %v", err)
	}
	if rows[0].InvoiceNumber != "INV-009" || !rows[0].Stripe {
		t.Errorf("reordered columns parsed wrong: %+v", rows[0])
	}
}

func TestParsePayments(t *testing.T) {
	input := strings.Join([]string{
		"Invoice Number|Payment Number|Payment ID|Date|Amount|Mode|Reference Number",
		"INV-001|PMT-001|zp-1|2024-01-12|450.00|Stripe|ch_abc123",
		"INV-003|PMT-002|zp-2|2024-05-06|300|Zoho Payments|RF-1",
	}, "\n")

	rows, err := zoho.ParsePayments(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParsePayments: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].IsStripeCharge() {
		t.Error("expected ch_ reference detected as Stripe charge")
	}
	if rows[1].IsStripeCharge() {
		t.Error("expected RF-1 not detected as Stripe charge")
	}
	if rows[1].Mode != "Zoho Payments" {
		t.Errorf("unexpected mode: %q", rows[1].Mode)
	}
}

func TestParseErrors(t *testing.T) {
	t.Run("EmptyFile", func(t *testing.T) {
		if _, err := zoho.ParseCustomers(strings.NewReader("")); err == nil {
			t.Error("expected error for empty export")
		}
	})

	t.Run("MissingColumn", func(t *testing.T) {
		input := "Customer ID|Customer Name\nZ1|Brian"
		if _, err := zoho.ParseCustomers(strings.NewReader(input)); err == nil {
			t.Error("expected error for missing EmailID column")
		}
	})

	t.Run("BadDate", func(t *testing.T) {
		input := strings.Join([]string{
			"Invoice Number|Customer ID|Invoice Date|Due Date|Total|Invoice Status|Stripe|Zoho Payments",
			"INV-001|Z1|01/10/2024|2024-02-10|450|Closed|false|false",
		}, "\n")
		if _, err := zoho.ParseInvoices(strings.NewReader(input)); err == nil {
			t.Error("expected error for non-ISO date")
		}
	})

	t.Run("EmptyOptionalFields", func(t *testing.T) {
		input := strings.Join([]string{
			"Invoice Number|Customer ID|Invoice Date|Due Date|Total|Invoice Status|Stripe|Zoho Payments",
			"INV-001|Z1|||  |Draft||",
		}, "\n")
		rows, err := zoho.ParseInvoices(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ParseInvoices: %v", err)
		}
		if !rows[0].Total.IsZero() || !rows[0].InvoiceDate.IsZero() {
			t.Errorf("expected zero values for empty fields: %+v", rows[0])
		}
	})
}
