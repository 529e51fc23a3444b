package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Thresholds are the floors each validation check compares against. The
// expected figures are informational and come from the legacy export; the
// floors are deliberately loose (see the revenue note below).
type Thresholds struct {
	ExpectedInvoiceCount int
	MinInvoiceCount      int
	ExpectedStripeCount  int
	MinStripeCount       int
	ExpectedZohoCount    int
	MinZohoCount         int
	MinLinkageRatio      float64
	ExpectedRevenue      string
	MinRevenue           decimal.Decimal
	MinCustomerRatio     float64
}

// DefaultThresholds reflects the production migration run.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExpectedInvoiceCount: 1633,
		MinInvoiceCount:      1400,
		ExpectedStripeCount:  1346,
		MinStripeCount:       1000,
		ExpectedZohoCount:    217,
		MinZohoCount:         150,
		MinLinkageRatio:      0.35,
		ExpectedRevenue:      "$237,436.23 (Zoho CSV line-item total)",
		MinRevenue:           decimal.NewFromInt(170000),
		MinCustomerRatio:     0.99,
	}
}

// Check is one validation check's outcome.
type Check struct {
	Name       string `json:"name"`
	Expected   any    `json:"expected,omitempty"`
	Actual     any    `json:"actual"`
	Total      any    `json:"total,omitempty"`
	Percentage string `json:"percentage,omitempty"`
	Note       string `json:"note,omitempty"`
	Pass       bool   `json:"pass"`
	Error      string `json:"error,omitempty"`
}

// ValidationResult is the stage's result artifact. OverallStatus is PASS only
// when every check passed.
type ValidationResult struct {
	Timestamp     time.Time `json:"timestamp"`
	Checks        []Check   `json:"checks"`
	OverallStatus string    `json:"overallStatus"`
}

func (r *ValidationResult) Passed() bool { return r.OverallStatus == "PASS" }

// Validator runs read-only consistency checks over the migrated data.
type Validator struct {
	store      ValidationStore
	log        *logrus.Logger
	prefix     string
	thresholds Thresholds
	now        func() time.Time
}

func NewValidator(store ValidationStore, log *logrus.Logger, prefix string, thresholds Thresholds) *Validator {
	if prefix == "" {
		prefix = DefaultInvoicePrefix
	}
	return &Validator{store: store, log: ensureLogger(log), prefix: prefix, thresholds: thresholds, now: time.Now}
}

// Run executes the seven checks. A store error fails the affected check but
// never aborts the run; the remaining checks still execute.
func (v *Validator) Run(ctx context.Context) *ValidationResult {
	v.log.Info("Starting migration validation")

	result := &ValidationResult{Timestamp: v.now().UTC()}
	t := v.thresholds

	invoiceCount, err := v.store.CountMigratedInvoices(ctx, v.prefix)
	result.Checks = append(result.Checks, checkCount(
		"Migrated Invoices Count", t.ExpectedInvoiceCount, invoiceCount, t.MinInvoiceCount, err))

	statusCounts, err := v.store.MigratedStatusCounts(ctx, v.prefix)
	statusCheck := Check{Name: "Invoice Status Distribution", Actual: statusCounts, Pass: true}
	if err != nil {
		statusCheck.Error = err.Error()
	}
	result.Checks = append(result.Checks, statusCheck)

	stripeCount, err := v.store.CountMigratedByMethod(ctx, v.prefix, MethodStripe)
	result.Checks = append(result.Checks, checkCount(
		"Stripe Invoices", t.ExpectedStripeCount, stripeCount, t.MinStripeCount, err))

	zohoCount, err := v.store.CountMigratedByMethod(ctx, v.prefix, MethodZoho)
	result.Checks = append(result.Checks, checkCount(
		"Zoho Payment Method Invoices", t.ExpectedZohoCount, zohoCount, t.MinZohoCount, err))

	result.Checks = append(result.Checks, v.checkServiceLogLinkage(ctx))
	result.Checks = append(result.Checks, v.checkRevenue(ctx))
	result.Checks = append(result.Checks, v.checkCustomerCoverage(ctx, invoiceCount))

	result.OverallStatus = "PASS"
	for _, c := range result.Checks {
		if !c.Pass {
			result.OverallStatus = "FAIL"
			break
		}
	}
	return result
}

func checkCount(name string, expected, actual, floor int, err error) Check {
	c := Check{Name: name, Expected: expected, Actual: actual, Pass: actual >= floor}
	if err != nil {
		c.Pass = false
		c.Error = err.Error()
	}
	return c
}

func ratioPercent(part, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}

func (v *Validator) checkServiceLogLinkage(ctx context.Context) Check {
	c := Check{
		Name: "Service Logs Linked",
		Note: "Partial linkage is acceptable for historical data migration",
	}
	linked, err := v.store.CountLinkedServiceLogs(ctx)
	if err != nil {
		c.Error = err.Error()
		return c
	}
	total, err := v.store.CountServiceLogs(ctx)
	if err != nil {
		c.Error = err.Error()
		return c
	}
	c.Actual = linked
	c.Total = total
	c.Percentage = ratioPercent(linked, total)
	c.Pass = total > 0 && float64(linked)/float64(total) >= v.thresholds.MinLinkageRatio
	return c
}

// checkRevenue compares the migrated total against a floor. The expected
// figure is the raw CSV line-item total, which structurally over-counts
// relative to the one-row-per-invoice target, so this stays a loose floor
// rather than an equality check.
func (v *Validator) checkRevenue(ctx context.Context) Check {
	c := Check{
		Name:     "Total Revenue Migrated",
		Expected: v.thresholds.ExpectedRevenue,
		Note:     "Actual reflects deduplicated invoices (CSV had multiple rows per invoice)",
	}
	total, err := v.store.SumMigratedAmounts(ctx, v.prefix)
	if err != nil {
		c.Error = err.Error()
		return c
	}
	c.Actual = "$" + total.StringFixed(2)
	c.Pass = total.GreaterThanOrEqual(v.thresholds.MinRevenue)
	return c
}

func (v *Validator) checkCustomerCoverage(ctx context.Context, invoiceCount int) Check {
	c := Check{Name: "Invoices with Customer IDs"}
	withCustomer, err := v.store.CountMigratedWithCustomer(ctx, v.prefix)
	if err != nil {
		c.Error = err.Error()
		return c
	}
	c.Actual = withCustomer
	c.Total = invoiceCount
	c.Percentage = ratioPercent(withCustomer, invoiceCount)
	c.Pass = invoiceCount > 0 && float64(withCustomer)/float64(invoiceCount) >= v.thresholds.MinCustomerRatio
	return c
}
