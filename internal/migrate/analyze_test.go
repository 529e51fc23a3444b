package migrate_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"sailorskills-migrate/internal/migrate"
	"sailorskills-migrate/internal/zoho"
)

func TestAnalyze(t *testing.T) {
	customers := []zoho.CustomerRow{{CustomerID: "Z1"}, {CustomerID: "Z2"}}
	invoices := []zoho.InvoiceRow{
		{InvoiceNumber: "1", Total: decimal.NewFromInt(100), Status: "Closed", Stripe: true},
		{InvoiceNumber: "2", Total: decimal.NewFromInt(50), Status: "Paid", ZohoPayments: true},
		{InvoiceNumber: "3", Total: decimal.NewFromFloat(25.50), Status: "Overdue"},
		{InvoiceNumber: "4", Total: decimal.NewFromInt(75), Status: "Closed", Stripe: true},
	}
	payments := []zoho.PaymentRow{
		{PaymentNumber: "P1", Amount: decimal.NewFromInt(100), ReferenceNumber: "ch_1"},
		{PaymentNumber: "P2", Amount: decimal.NewFromInt(50), ReferenceNumber: "RF-2"},
	}

	report := migrate.Analyze(customers, invoices, payments)

	if report.Summary.TotalCustomers != 2 || report.Summary.TotalInvoices != 4 || report.Summary.TotalPayments != 2 {
		t.Errorf("unexpected summary totals: %+v", report.Summary)
	}
	if report.Summary.TotalInvoiced != "250.50" {
		t.Errorf("expected total invoiced 250.50, got %s", report.Summary.TotalInvoiced)
	}
	if report.Summary.TotalPaid != "150.00" {
		t.Errorf("expected total paid 150.00, got %s", report.Summary.TotalPaid)
	}
	if report.PaymentMethods.Stripe != 2 || report.PaymentMethods.Zoho != 1 || report.PaymentMethods.Unpaid != 1 {
		t.Errorf("unexpected method split: %+v", report.PaymentMethods)
	}
	if report.PaymentMethodPercentages.Stripe != "50.0%" {
		t.Errorf("expected 50.0%% stripe, got %s", report.PaymentMethodPercentages.Stripe)
	}
	if report.StripeChargeIDsFound != 1 {
		t.Errorf("expected 1 charge id, got %d", report.StripeChargeIDsFound)
	}
	if report.InvoiceStatuses["Closed"] != 2 {
		t.Errorf("expected 2 Closed invoices, got %d", report.InvoiceStatuses["Closed"])
	}
}
