package migrate

import (
	"time"

	"github.com/shopspring/decimal"

	"sailorskills-migrate/internal/zoho"
)

// AnalysisSummary holds the headline figures of the pre-flight analysis.
type AnalysisSummary struct {
	TotalCustomers int    `json:"totalCustomers"`
	TotalInvoices  int    `json:"totalInvoices"`
	TotalPayments  int    `json:"totalPayments"`
	TotalInvoiced  string `json:"totalInvoiced"`
	TotalPaid      string `json:"totalPaid"`
}

// PaymentMethodSplit counts invoices by their legacy payment flags.
type PaymentMethodSplit struct {
	Stripe int `json:"stripe"`
	Zoho   int `json:"zoho"`
	Unpaid int `json:"unpaid"`
}

// PaymentMethodPercentages renders the split as percentages of all invoices.
type PaymentMethodPercentages struct {
	Stripe string `json:"stripe"`
	Zoho   string `json:"zoho"`
	Unpaid string `json:"unpaid"`
}

// AnalysisReport is the pre-flight analysis artifact. Producing it touches
// only the CSV exports, never the target store.
type AnalysisReport struct {
	Timestamp                time.Time                `json:"timestamp"`
	Summary                  AnalysisSummary          `json:"summary"`
	PaymentMethods           PaymentMethodSplit       `json:"paymentMethods"`
	PaymentMethodPercentages PaymentMethodPercentages `json:"paymentMethodPercentages"`
	StripeChargeIDsFound     int                      `json:"stripeChargeIdsFound"`
	InvoiceStatuses          map[string]int           `json:"invoiceStatuses"`
}

// Analyze summarizes the legacy exports before any migration stage runs.
func Analyze(customers []zoho.CustomerRow, invoices []zoho.InvoiceRow, payments []zoho.PaymentRow) *AnalysisReport {
	report := &AnalysisReport{
		Timestamp:       time.Now().UTC(),
		InvoiceStatuses: map[string]int{},
	}

	totalInvoiced := decimal.Zero
	for _, inv := range invoices {
		switch {
		case inv.Stripe:
			report.PaymentMethods.Stripe++
		case inv.ZohoPayments:
			report.PaymentMethods.Zoho++
		default:
			report.PaymentMethods.Unpaid++
		}
		report.InvoiceStatuses[inv.Status]++
		totalInvoiced = totalInvoiced.Add(inv.Total)
	}

	totalPaid := decimal.Zero
	for _, p := range payments {
		if p.IsStripeCharge() {
			report.StripeChargeIDsFound++
		}
		totalPaid = totalPaid.Add(p.Amount)
	}

	report.Summary = AnalysisSummary{
		TotalCustomers: len(customers),
		TotalInvoices:  len(invoices),
		TotalPayments:  len(payments),
		TotalInvoiced:  totalInvoiced.StringFixed(2),
		TotalPaid:      totalPaid.StringFixed(2),
	}
	if n := len(invoices); n > 0 {
		report.PaymentMethodPercentages = PaymentMethodPercentages{
			Stripe: ratioPercent(report.PaymentMethods.Stripe, n),
			Zoho:   ratioPercent(report.PaymentMethods.Zoho, n),
			Unpaid: ratioPercent(report.PaymentMethods.Unpaid, n),
		}
	}
	return report
}
