package migrate

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Rollback reverses the invoice migration: unlink service logs, delete
// prefixed invoices, recount. It never touches non-migrated invoices or
// unrelated service logs. Payments created by the payment importer are left
// in place and become orphaned; clear the payments table separately before
// re-running the full pipeline.
type Rollback struct {
	store  RollbackStore
	log    *logrus.Logger
	prefix string
}

func NewRollback(store RollbackStore, log *logrus.Logger, prefix string) *Rollback {
	if prefix == "" {
		prefix = DefaultInvoicePrefix
	}
	return &Rollback{store: store, log: ensureLogger(log), prefix: prefix}
}

// RollbackPlan reports what an Execute call would remove. Callers show it to
// the operator before asking for confirmation.
type RollbackPlan struct {
	InvoiceCount   int      `json:"invoice_count"`
	LinkedLogCount int      `json:"linked_log_count"`
	InvoiceIDs     []string `json:"-"`
}

// RollbackResult reports the post-rollback state; RemainingInvoices should
// be zero.
type RollbackResult struct {
	ClearedLinks      int `json:"cleared_links"`
	DeletedInvoices   int `json:"deleted_invoices"`
	RemainingInvoices int `json:"remaining_invoices"`
}

// Analyze counts the invoices and service-log links a rollback would affect.
func (r *Rollback) Analyze(ctx context.Context) (*RollbackPlan, error) {
	ids, err := r.store.ListMigratedInvoiceIDs(ctx, r.prefix)
	if err != nil {
		return nil, fmt.Errorf("list migrated invoices: %w", err)
	}

	linked, err := r.store.CountServiceLogsReferencing(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count linked service logs: %w", err)
	}

	return &RollbackPlan{
		InvoiceCount:   len(ids),
		LinkedLogCount: linked,
		InvoiceIDs:     ids,
	}, nil
}

// Execute performs the rollback for a previously analyzed plan. Links are
// cleared before the invoices they reference are deleted.
func (r *Rollback) Execute(ctx context.Context, plan *RollbackPlan) (*RollbackResult, error) {
	if len(plan.InvoiceIDs) > 0 {
		r.log.Info("Clearing service_logs.invoice_id")
		if err := r.store.ClearServiceLogLinks(ctx, plan.InvoiceIDs); err != nil {
			return nil, fmt.Errorf("clear service log links: %w", err)
		}
	}

	r.log.Info("Deleting migrated invoices")
	if err := r.store.DeleteMigratedInvoices(ctx, r.prefix); err != nil {
		return nil, fmt.Errorf("delete migrated invoices: %w", err)
	}

	remaining, err := r.store.CountMigratedInvoices(ctx, r.prefix)
	if err != nil {
		return nil, fmt.Errorf("recount migrated invoices: %w", err)
	}

	return &RollbackResult{
		ClearedLinks:      plan.LinkedLogCount,
		DeletedInvoices:   plan.InvoiceCount,
		RemainingInvoices: remaining,
	}, nil
}
