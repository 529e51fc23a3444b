package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"sailorskills-migrate/internal/zoho"
)

// ImportOptions carries the knobs shared by the importing stages.
type ImportOptions struct {
	Prefix    string
	BatchSize int
	DryRun    bool
}

func (o ImportOptions) withDefaults() ImportOptions {
	if o.Prefix == "" {
		o.Prefix = DefaultInvoicePrefix
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	return o
}

// InvoiceImporter turns legacy invoice rows into target invoice records,
// resolving the payment method against the legacy payment export and the
// target store's existing Stripe payments.
type InvoiceImporter struct {
	store InvoiceImportStore
	log   *logrus.Logger
	opts  ImportOptions
	now   func() time.Time
}

func NewInvoiceImporter(store InvoiceImportStore, log *logrus.Logger, opts ImportOptions) *InvoiceImporter {
	return &InvoiceImporter{store: store, log: ensureLogger(log), opts: opts.withDefaults(), now: time.Now}
}

// InvoiceRowError records a per-row failure that did not abort the batch.
type InvoiceRowError struct {
	Invoice string `json:"invoice"`
	Error   string `json:"error"`
}

// InvoiceImportResult is the stage's result artifact.
type InvoiceImportResult struct {
	Total                int               `json:"total"`
	Processed            int               `json:"processed"`
	StripeLinked         int               `json:"stripeLinked"`
	StripePaymentCreated int               `json:"stripePaymentCreated"`
	ZohoPayment          int               `json:"zohoPayment"`
	Unpaid               int               `json:"unpaid"`
	Skipped              int               `json:"skipped"`
	Errors               []InvoiceRowError `json:"errors"`
	SampleInvoices       []InvoiceRecord   `json:"sampleInvoices"`

	// Records holds everything prepared for insertion; kept out of the
	// artifact, which only carries the sample.
	Records []InvoiceRecord `json:"-"`
}

func legacyStatusPaid(status string) bool {
	return status == "Closed" || status == "Paid"
}

// Run categorizes every legacy invoice and, unless dry-run, inserts the
// produced records in batches. A missing customer mapping skips the row; a
// batch insert failure aborts the stage with prior batches left committed.
func (imp *InvoiceImporter) Run(ctx context.Context, invoices []zoho.InvoiceRow, payments []zoho.PaymentRow, mapping []MappingEntry) (*InvoiceImportResult, error) {
	customerMap := mappingIndex(mapping)
	imp.log.WithFields(logrus.Fields{
		"invoices": len(invoices),
		"payments": len(payments),
		"mappings": len(customerMap),
		"dryRun":   imp.opts.DryRun,
	}).Info("Starting invoice import")

	paymentsByInvoice := map[string][]zoho.PaymentRow{}
	for _, p := range payments {
		paymentsByInvoice[p.InvoiceNumber] = append(paymentsByInvoice[p.InvoiceNumber], p)
	}

	existing, err := imp.store.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch existing payments: %w", err)
	}
	byChargeID := map[string]Payment{}
	for _, p := range existing {
		if p.StripeChargeID != nil {
			byChargeID[*p.StripeChargeID] = p
		}
	}
	imp.log.WithFields(logrus.Fields{
		"totalPayments": len(existing),
		"withChargeId":  len(byChargeID),
	}).Info("Stripe payments indexed")

	result := &InvoiceImportResult{Total: len(invoices)}
	migrationDate := imp.now().UTC()

	for _, row := range invoices {
		targetCustomerID, ok := customerMap[row.CustomerID]
		if !ok {
			result.Skipped++
			result.Errors = append(result.Errors, InvoiceRowError{
				Invoice: row.InvoiceNumber,
				Error:   "Customer not mapped",
			})
			continue
		}

		record := imp.buildRecord(row, targetCustomerID, paymentsByInvoice[row.InvoiceNumber], byChargeID, migrationDate, result)
		result.Records = append(result.Records, record)
		result.Processed++
	}

	if !imp.opts.DryRun && len(result.Records) > 0 {
		imp.log.WithField("count", len(result.Records)).Info("Inserting invoices")
		err := processBatches(result.Records, imp.opts.BatchSize, imp.log, func(batch []InvoiceRecord) error {
			return imp.store.InsertInvoices(ctx, batch)
		})
		if err != nil {
			return result, fmt.Errorf("insert invoices: %w", err)
		}
	}

	result.SampleInvoices = result.Records[:min(5, len(result.Records))]
	return result, nil
}

// buildRecord applies the ordered payment-method rules, first match wins:
// Stripe charge linkage, then Zoho payment, then paid-with-no-payment-row,
// then unpaid.
func (imp *InvoiceImporter) buildRecord(row zoho.InvoiceRow, customerID string, invoicePayments []zoho.PaymentRow, byChargeID map[string]Payment, migrationDate time.Time, result *InvoiceImportResult) InvoiceRecord {
	var method, reference, linkedPaymentID *string
	var paidAt *time.Time

	stripePayment, hasCharge := findStripeCharge(invoicePayments)

	switch {
	case row.Stripe && hasCharge:
		chargeID := stripePayment.ReferenceNumber
		if existing, ok := byChargeID[chargeID]; ok {
			id := existing.ID
			linkedPaymentID = &id
			result.StripeLinked++
		} else {
			// No matching payment row yet; the payment importer creates it.
			result.StripePaymentCreated++
		}
		m, r, d := MethodStripe, chargeID, stripePayment.Date
		method, reference, paidAt = &m, &r, &d

	case row.ZohoPayments && len(invoicePayments) > 0:
		m, r, d := MethodZoho, invoicePayments[0].PaymentNumber, invoicePayments[0].Date
		method, reference, paidAt = &m, &r, &d
		result.ZohoPayment++

	case legacyStatusPaid(row.Status):
		// The export says paid but carries no payment detail.
		m, d := MethodUnknown, row.InvoiceDate
		method, paidAt = &m, &d
		result.ZohoPayment++

	default:
		result.Unpaid++
	}

	status := StatusPending
	if legacyStatusPaid(row.Status) {
		status = StatusPaid
	}

	return InvoiceRecord{
		InvoiceNumber:    imp.opts.Prefix + row.InvoiceNumber,
		CustomerID:       customerID,
		BoatID:           nil, // resolved by the service-log stage, not here
		ServiceID:        nil,
		Amount:           row.Total,
		Status:           status,
		IssuedAt:         row.InvoiceDate,
		DueAt:            row.DueDate,
		PaidAt:           paidAt,
		PaymentMethod:    method,
		PaymentReference: reference,
		PaymentID:        linkedPaymentID,
		CustomerDetails: map[string]any{
			"zoho_customer_id":   row.CustomerID,
			"migrated_from_zoho": true,
		},
		ServiceDetails: map[string]any{
			"zoho_invoice_number": row.InvoiceNumber,
			"zoho_status":         row.Status,
			"migration_date":      migrationDate.Format(time.RFC3339),
		},
	}
}

func findStripeCharge(payments []zoho.PaymentRow) (zoho.PaymentRow, bool) {
	for _, p := range payments {
		if p.IsStripeCharge() {
			return p, true
		}
	}
	return zoho.PaymentRow{}, false
}
