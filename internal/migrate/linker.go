package migrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultMatchWindow is the date tolerance for the heuristic tier.
const DefaultMatchWindow = 7 * 24 * time.Hour

// Confidence tiers recorded on each match.
const (
	MatchPaymentIntent = "payment_intent"
	MatchHeuristic     = "heuristic"
)

// MatchStrategy picks an invoice from a customer's candidates for a service
// date, or reports no match. Candidates arrive in load order.
type MatchStrategy func(serviceDate time.Time, candidates []Invoice, window time.Duration) (Invoice, bool)

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// FirstWithinWindow accepts the first candidate within the window, not the
// closest. When several invoices fall inside the window the one encountered
// first in the customer's list wins. This matches the behavior the migration
// shipped with; use NearestWithinWindow to pick by distance instead.
func FirstWithinWindow(serviceDate time.Time, candidates []Invoice, window time.Duration) (Invoice, bool) {
	for _, inv := range candidates {
		if absDuration(serviceDate.Sub(inv.IssuedAt)) <= window {
			return inv, true
		}
	}
	return Invoice{}, false
}

// NearestWithinWindow accepts the candidate with the smallest day distance
// inside the window.
func NearestWithinWindow(serviceDate time.Time, candidates []Invoice, window time.Duration) (Invoice, bool) {
	var best Invoice
	bestDiff := window + 1
	for _, inv := range candidates {
		diff := absDuration(serviceDate.Sub(inv.IssuedAt))
		if diff <= window && diff < bestDiff {
			best = inv
			bestDiff = diff
		}
	}
	return best, bestDiff <= window
}

// LinkerOptions configures a linkage run.
type LinkerOptions struct {
	Prefix string
	DryRun bool
	Window time.Duration
	Match  MatchStrategy
}

func (o LinkerOptions) withDefaults() LinkerOptions {
	if o.Prefix == "" {
		o.Prefix = DefaultInvoicePrefix
	}
	if o.Window <= 0 {
		o.Window = DefaultMatchWindow
	}
	if o.Match == nil {
		o.Match = FirstWithinWindow
	}
	return o
}

// ServiceLogLinker assigns migrated invoices to service logs that lack one.
// It never creates or deletes rows; it only sets invoice_id.
type ServiceLogLinker struct {
	store LinkerStore
	log   *logrus.Logger
	opts  LinkerOptions
}

func NewServiceLogLinker(store LinkerStore, log *logrus.Logger, opts LinkerOptions) *ServiceLogLinker {
	return &ServiceLogLinker{store: store, log: ensureLogger(log), opts: opts.withDefaults()}
}

// LinkUpdate is one resolved service-log → invoice assignment.
type LinkUpdate struct {
	ID        string `json:"id"`
	InvoiceID string `json:"invoice_id"`
	MatchType string `json:"match_type"`
}

// LinkerRowError records a per-row failure that did not stop the batch.
type LinkerRowError struct {
	ServiceLogID string `json:"service_log_id"`
	Error        string `json:"error"`
}

// LinkageResult is the stage's result artifact.
type LinkageResult struct {
	Total            int              `json:"total"`
	HighConfidence   int              `json:"highConfidence"`
	MediumConfidence int              `json:"mediumConfidence"`
	Unlinked         int              `json:"unlinked"`
	Errors           []LinkerRowError `json:"errors"`
	SampleUpdates    []LinkUpdate     `json:"sampleUpdates"`

	Updates      []LinkUpdate `json:"-"`
	UnlinkedLogs []ServiceLog `json:"-"`
}

// LinkageRate is the fraction of processed logs that found an invoice.
func (r *LinkageResult) LinkageRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.HighConfidence+r.MediumConfidence) / float64(r.Total)
}

// UnlinkedCSVHeaders and UnlinkedCSVRows shape the manual-review export.
func UnlinkedCSVHeaders() []string {
	return []string{"service_log_id", "customer_id", "boat_id", "service_date", "order_id"}
}

func UnlinkedCSVRows(logs []ServiceLog) [][]string {
	rows := make([][]string, 0, len(logs))
	for _, l := range logs {
		boatID, orderID := "", ""
		if l.BoatID != nil {
			boatID = *l.BoatID
		}
		if l.OrderID != nil {
			orderID = *l.OrderID
		}
		rows = append(rows, []string{l.ID, l.CustomerID, boatID, l.ServiceDate.Format("2006-01-02"), orderID})
	}
	return rows
}

// Run matches every unlinked service log against the migrated invoices.
// Tier 1 resolves Stripe payment-intent references exactly; tier 2 falls back
// to date proximity within the customer's invoices. Only logs still missing
// an invoice_id are loaded, so re-running never revisits linked logs.
func (l *ServiceLogLinker) Run(ctx context.Context) (*LinkageResult, error) {
	logs, err := l.store.ListUnlinkedServiceLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch unlinked service logs: %w", err)
	}
	l.log.WithField("count", len(logs)).Info("Loaded uninvoiced service logs")

	invoices, err := l.store.ListMigratedInvoices(ctx, l.opts.Prefix)
	if err != nil {
		return nil, fmt.Errorf("fetch migrated invoices: %w", err)
	}
	l.log.WithField("count", len(invoices)).Info("Loaded migrated invoices")

	payments, err := l.store.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch payments: %w", err)
	}

	// Index keyed by both payment-intent and charge ids, mapping to the
	// owning invoice.
	byStripeRef := map[string]string{}
	intentKeys, chargeKeys := 0, 0
	for _, p := range payments {
		if p.InvoiceID == nil {
			continue
		}
		if p.StripePaymentIntentID != nil {
			byStripeRef[*p.StripePaymentIntentID] = *p.InvoiceID
			intentKeys++
		}
		if p.StripeChargeID != nil {
			byStripeRef[*p.StripeChargeID] = *p.InvoiceID
			chargeKeys++
		}
	}
	l.log.WithFields(logrus.Fields{
		"byPaymentIntent": intentKeys,
		"byChargeId":      chargeKeys,
	}).Info("Payment lookups built")

	// Group invoices per customer, preserving load order. The heuristic cost
	// is bounded by per-customer invoice counts, not the global total.
	invoicesByCustomer := map[string][]Invoice{}
	for _, inv := range invoices {
		invoicesByCustomer[inv.CustomerID] = append(invoicesByCustomer[inv.CustomerID], inv)
	}

	result := &LinkageResult{Total: len(logs)}
	for _, sl := range logs {
		invoiceID, matchType := l.matchLog(sl, byStripeRef, invoicesByCustomer)
		if invoiceID == "" {
			result.Unlinked++
			result.UnlinkedLogs = append(result.UnlinkedLogs, sl)
			continue
		}
		if matchType == MatchPaymentIntent {
			result.HighConfidence++
		} else {
			result.MediumConfidence++
		}
		result.Updates = append(result.Updates, LinkUpdate{ID: sl.ID, InvoiceID: invoiceID, MatchType: matchType})
	}

	if !l.opts.DryRun && len(result.Updates) > 0 {
		l.log.WithField("count", len(result.Updates)).Info("Updating service logs")
		for _, u := range result.Updates {
			if err := l.store.LinkServiceLog(ctx, u.ID, u.InvoiceID); err != nil {
				l.log.WithFields(logrus.Fields{
					"id":    u.ID,
					"error": err.Error(),
				}).Error("Failed to update service log")
				result.Errors = append(result.Errors, LinkerRowError{ServiceLogID: u.ID, Error: err.Error()})
			}
		}
	}

	result.SampleUpdates = result.Updates[:min(10, len(result.Updates))]
	return result, nil
}

// matchLog runs the two tiers in priority order. A tier-1 hit short-circuits
// tier 2 even when a closer-dated invoice exists.
func (l *ServiceLogLinker) matchLog(sl ServiceLog, byStripeRef map[string]string, invoicesByCustomer map[string][]Invoice) (string, string) {
	if sl.OrderID != nil && strings.HasPrefix(*sl.OrderID, "pi_") {
		if invoiceID, ok := byStripeRef[*sl.OrderID]; ok {
			return invoiceID, MatchPaymentIntent
		}
	}

	candidates := invoicesByCustomer[sl.CustomerID]
	if inv, ok := l.opts.Match(sl.ServiceDate, candidates, l.opts.Window); ok {
		return inv.ID, MatchHeuristic
	}
	return "", ""
}
