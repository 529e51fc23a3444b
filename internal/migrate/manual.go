package migrate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// ManualReviewWindow flags candidate invoices close enough to a service date
// to recommend for manual linking.
const ManualReviewWindow = 30 * 24 * time.Hour

// ManualLinker backs the interactive helper used to investigate service logs
// the automatic linker left behind, and to force a link once a human has
// decided.
type ManualLinker struct {
	store  ManualLinkStore
	log    *logrus.Logger
	prefix string
}

func NewManualLinker(store ManualLinkStore, log *logrus.Logger, prefix string) *ManualLinker {
	if prefix == "" {
		prefix = DefaultInvoicePrefix
	}
	return &ManualLinker{store: store, log: ensureLogger(log), prefix: prefix}
}

// InvoiceCandidate is a customer invoice annotated with its distance from
// the service date.
type InvoiceCandidate struct {
	Invoice   Invoice `json:"invoice"`
	DaysDiff  float64 `json:"days_diff"`
	Candidate bool    `json:"candidate"`
}

// Investigation is everything the helper shows for one service log.
type Investigation struct {
	ServiceLog ServiceLog         `json:"service_log"`
	Customer   *Customer          `json:"customer,omitempty"`
	Candidates []InvoiceCandidate `json:"candidates"`
}

// Investigate loads a service log and its customer's migrated invoices,
// sorted by actual day distance (unlike the automatic linker, which takes
// the first within the window).
func (m *ManualLinker) Investigate(ctx context.Context, serviceLogID string) (*Investigation, error) {
	sl, err := m.store.GetServiceLog(ctx, serviceLogID)
	if err != nil {
		return nil, err
	}

	inv := &Investigation{ServiceLog: *sl}

	customer, err := m.store.GetCustomer(ctx, sl.CustomerID)
	if err != nil {
		m.log.WithField("customerId", sl.CustomerID).Warn("Customer lookup failed")
	} else {
		inv.Customer = customer
	}

	invoices, err := m.store.ListCustomerInvoices(ctx, sl.CustomerID, m.prefix)
	if err != nil {
		return nil, fmt.Errorf("list customer invoices: %w", err)
	}

	for _, candidate := range invoices {
		diff := absDuration(sl.ServiceDate.Sub(candidate.IssuedAt))
		inv.Candidates = append(inv.Candidates, InvoiceCandidate{
			Invoice:   candidate,
			DaysDiff:  diff.Hours() / 24,
			Candidate: diff <= ManualReviewWindow,
		})
	}
	sort.SliceStable(inv.Candidates, func(i, j int) bool {
		return inv.Candidates[i].DaysDiff < inv.Candidates[j].DaysDiff
	})
	return inv, nil
}

// Link forces a service log onto an invoice, bypassing the heuristics.
func (m *ManualLinker) Link(ctx context.Context, serviceLogID, invoiceID string) error {
	if _, err := m.store.GetServiceLog(ctx, serviceLogID); err != nil {
		return err
	}
	if err := m.store.LinkServiceLog(ctx, serviceLogID, invoiceID); err != nil {
		return err
	}
	m.log.WithFields(logrus.Fields{
		"serviceLogId": serviceLogID,
		"invoiceId":    invoiceID,
	}).Info("Service log linked manually")
	return nil
}

// ListRecent returns recent unlinked service logs for review.
func (m *ManualLinker) ListRecent(ctx context.Context, since time.Time, limit int) ([]ServiceLog, error) {
	return m.store.ListRecentUnlinked(ctx, since, limit)
}
