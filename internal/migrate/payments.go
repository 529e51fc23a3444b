package migrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"sailorskills-migrate/internal/zoho"
)

// PaymentImporter imports legacy payments that are not already represented
// by Stripe, linking each to its already-migrated invoice.
type PaymentImporter struct {
	store PaymentImportStore
	log   *logrus.Logger
	opts  ImportOptions
	now   func() time.Time
}

func NewPaymentImporter(store PaymentImportStore, log *logrus.Logger, opts ImportOptions) *PaymentImporter {
	return &PaymentImporter{store: store, log: ensureLogger(log), opts: opts.withDefaults(), now: time.Now}
}

// PaymentRowError records a per-row failure that did not abort the batch.
type PaymentRowError struct {
	Payment string `json:"payment"`
	Invoice string `json:"invoice,omitempty"`
	Error   string `json:"error"`
}

// PaymentImportResult is the stage's result artifact.
type PaymentImportResult struct {
	Total          int               `json:"total"`
	Processed      int               `json:"processed"`
	Linked         int               `json:"linked"`
	Unlinked       int               `json:"unlinked"`
	Errors         []PaymentRowError `json:"errors"`
	SamplePayments []PaymentRecord   `json:"samplePayments"`

	Records []PaymentRecord `json:"-"`
}

// isZohoPayment keeps payments whose mode is explicitly Zoho, or whose
// reference doesn't look like a Stripe charge while the mode isn't Stripe.
func isZohoPayment(p zoho.PaymentRow) bool {
	if p.Mode == "Zoho Payments" {
		return true
	}
	return p.Mode != "Stripe" && !p.IsStripeCharge()
}

type invoiceBackfill struct {
	invoiceID string
	method    string
	reference string
}

// Run filters the legacy payments, builds payment records against migrated
// invoices, and unless dry-run inserts them and backfills the parent
// invoices. Insert and backfill are separate steps, not one transaction: a
// crash in between leaves invoices paid but without a payment_id, which a
// re-run or the validator surfaces.
func (imp *PaymentImporter) Run(ctx context.Context, payments []zoho.PaymentRow) (*PaymentImportResult, error) {
	zohoOnly := make([]zoho.PaymentRow, 0, len(payments))
	for _, p := range payments {
		if isZohoPayment(p) {
			zohoOnly = append(zohoOnly, p)
		}
	}
	imp.log.WithFields(logrus.Fields{
		"total":    len(payments),
		"filtered": len(zohoOnly),
		"dryRun":   imp.opts.DryRun,
	}).Info("Starting Zoho payments import")

	invoices, err := imp.store.ListMigratedInvoices(ctx, imp.opts.Prefix)
	if err != nil {
		return nil, fmt.Errorf("fetch migrated invoices: %w", err)
	}
	byLegacyNumber := make(map[string]Invoice, len(invoices))
	for _, inv := range invoices {
		byLegacyNumber[strings.TrimPrefix(inv.InvoiceNumber, imp.opts.Prefix)] = inv
	}
	imp.log.WithField("count", len(byLegacyNumber)).Info("Loaded migrated invoices")

	result := &PaymentImportResult{Total: len(zohoOnly)}
	var backfills []invoiceBackfill
	migrationDate := imp.now().UTC()

	for _, p := range zohoOnly {
		invoice, ok := byLegacyNumber[p.InvoiceNumber]
		if !ok {
			result.Unlinked++
			result.Errors = append(result.Errors, PaymentRowError{
				Payment: p.PaymentNumber,
				Invoice: p.InvoiceNumber,
				Error:   "Invoice not found",
			})
			continue
		}

		result.Records = append(result.Records, PaymentRecord{
			CustomerID:       invoice.CustomerID,
			InvoiceID:        invoice.ID,
			Amount:           p.Amount,
			PaymentMethod:    MethodZoho,
			PaymentReference: p.PaymentNumber,
			Status:           "completed",
			CreatedAt:        p.Date,
			Metadata: map[string]any{
				"zoho_payment_id":    p.PaymentID,
				"zoho_mode":          p.Mode,
				"migrated_from_zoho": true,
				"migration_date":     migrationDate.Format(time.RFC3339),
			},
		})
		backfills = append(backfills, invoiceBackfill{
			invoiceID: invoice.ID,
			method:    MethodZoho,
			reference: p.PaymentNumber,
		})
		result.Processed++
		result.Linked++
	}

	if !imp.opts.DryRun && len(result.Records) > 0 {
		imp.log.WithField("count", len(result.Records)).Info("Inserting Zoho payments")

		var inserted []InsertedPayment
		err := processBatches(result.Records, imp.opts.BatchSize, imp.log, func(batch []PaymentRecord) error {
			ids, err := imp.store.InsertPayments(ctx, batch)
			if err != nil {
				return err
			}
			inserted = append(inserted, ids...)
			return nil
		})
		if err != nil {
			return result, fmt.Errorf("insert payments: %w", err)
		}

		imp.log.Info("Backfilling invoice payment fields")
		for _, b := range backfills {
			if err := imp.store.UpdateInvoicePayment(ctx, b.invoiceID, b.method, b.reference); err != nil {
				imp.log.WithFields(logrus.Fields{
					"invoiceId": b.invoiceID,
					"error":     err.Error(),
				}).Error("Failed to update invoice payment fields")
			}
		}

		imp.log.Info("Updating invoices with payment_id")
		for _, p := range inserted {
			if err := imp.store.SetInvoicePaymentID(ctx, p.InvoiceID, p.ID); err != nil {
				imp.log.WithFields(logrus.Fields{
					"invoiceId": p.InvoiceID,
					"error":     err.Error(),
				}).Error("Failed to update invoice payment_id")
			}
		}
	}

	result.SamplePayments = result.Records[:min(5, len(result.Records))]
	return result, nil
}
