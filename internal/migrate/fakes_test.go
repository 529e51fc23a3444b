package migrate_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sailorskills-migrate/internal/migrate"
)

// In-memory stand-ins for the per-stage store interfaces. Each records the
// writes it receives so tests can assert on exactly what a stage persisted.

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sptr(s string) *string { return &s }

type fakeInvoiceStore struct {
	payments  []migrate.Payment
	inserted  []migrate.InvoiceRecord
	batches   int
	insertErr error
}

func (f *fakeInvoiceStore) ListPayments(ctx context.Context) ([]migrate.Payment, error) {
	return f.payments, nil
}

func (f *fakeInvoiceStore) InsertInvoices(ctx context.Context, records []migrate.InvoiceRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.batches++
	f.inserted = append(f.inserted, records...)
	return nil
}

type fakePaymentStore struct {
	invoices      []migrate.Invoice
	inserted      []migrate.PaymentRecord
	insertedIDs   []migrate.InsertedPayment
	methodUpdates map[string]string
	paymentIDs    map[string]string
}

func newFakePaymentStore(invoices []migrate.Invoice) *fakePaymentStore {
	return &fakePaymentStore{
		invoices:      invoices,
		methodUpdates: map[string]string{},
		paymentIDs:    map[string]string{},
	}
}

func (f *fakePaymentStore) ListMigratedInvoices(ctx context.Context, prefix string) ([]migrate.Invoice, error) {
	return f.invoices, nil
}

func (f *fakePaymentStore) InsertPayments(ctx context.Context, records []migrate.PaymentRecord) ([]migrate.InsertedPayment, error) {
	var ids []migrate.InsertedPayment
	for _, r := range records {
		p := migrate.InsertedPayment{ID: uuid.NewString(), InvoiceID: r.InvoiceID}
		f.inserted = append(f.inserted, r)
		f.insertedIDs = append(f.insertedIDs, p)
		ids = append(ids, p)
	}
	return ids, nil
}

func (f *fakePaymentStore) UpdateInvoicePayment(ctx context.Context, invoiceID, method, reference string) error {
	f.methodUpdates[invoiceID] = method + "/" + reference
	return nil
}

func (f *fakePaymentStore) SetInvoicePaymentID(ctx context.Context, invoiceID, paymentID string) error {
	f.paymentIDs[invoiceID] = paymentID
	return nil
}

type fakeLinkerStore struct {
	logs     []migrate.ServiceLog
	invoices []migrate.Invoice
	payments []migrate.Payment
	linked   map[string]string
}

func newFakeLinkerStore() *fakeLinkerStore {
	return &fakeLinkerStore{linked: map[string]string{}}
}

func (f *fakeLinkerStore) ListUnlinkedServiceLogs(ctx context.Context) ([]migrate.ServiceLog, error) {
	var unlinked []migrate.ServiceLog
	for _, l := range f.logs {
		if l.InvoiceID == nil {
			if _, done := f.linked[l.ID]; !done {
				unlinked = append(unlinked, l)
			}
		}
	}
	return unlinked, nil
}

func (f *fakeLinkerStore) ListMigratedInvoices(ctx context.Context, prefix string) ([]migrate.Invoice, error) {
	return f.invoices, nil
}

func (f *fakeLinkerStore) ListPayments(ctx context.Context) ([]migrate.Payment, error) {
	return f.payments, nil
}

func (f *fakeLinkerStore) LinkServiceLog(ctx context.Context, logID, invoiceID string) error {
	f.linked[logID] = invoiceID
	return nil
}

type fakeValidationStore struct {
	invoiceCount int
	statusCounts map[string]int
	stripeCount  int
	zohoCount    int
	serviceLogs  int
	linkedLogs   int
	revenue      decimal.Decimal
	withCustomer int

	countErr   error
	revenueErr error
}

func (f *fakeValidationStore) CountMigratedInvoices(ctx context.Context, prefix string) (int, error) {
	return f.invoiceCount, f.countErr
}

func (f *fakeValidationStore) MigratedStatusCounts(ctx context.Context, prefix string) (map[string]int, error) {
	return f.statusCounts, nil
}

func (f *fakeValidationStore) CountMigratedByMethod(ctx context.Context, prefix, method string) (int, error) {
	if method == migrate.MethodStripe {
		return f.stripeCount, nil
	}
	return f.zohoCount, nil
}

func (f *fakeValidationStore) CountServiceLogs(ctx context.Context) (int, error) {
	return f.serviceLogs, nil
}

func (f *fakeValidationStore) CountLinkedServiceLogs(ctx context.Context) (int, error) {
	return f.linkedLogs, nil
}

func (f *fakeValidationStore) SumMigratedAmounts(ctx context.Context, prefix string) (decimal.Decimal, error) {
	return f.revenue, f.revenueErr
}

func (f *fakeValidationStore) CountMigratedWithCustomer(ctx context.Context, prefix string) (int, error) {
	return f.withCustomer, nil
}

type fakeRollbackStore struct {
	ids        []string
	linkedLogs int
	calls      []string
	cleared    []string
	remaining  int
}

func (f *fakeRollbackStore) ListMigratedInvoiceIDs(ctx context.Context, prefix string) ([]string, error) {
	return f.ids, nil
}

func (f *fakeRollbackStore) CountServiceLogsReferencing(ctx context.Context, invoiceIDs []string) (int, error) {
	return f.linkedLogs, nil
}

func (f *fakeRollbackStore) ClearServiceLogLinks(ctx context.Context, invoiceIDs []string) error {
	f.calls = append(f.calls, "clear")
	f.cleared = invoiceIDs
	return nil
}

func (f *fakeRollbackStore) DeleteMigratedInvoices(ctx context.Context, prefix string) error {
	f.calls = append(f.calls, "delete")
	return nil
}

func (f *fakeRollbackStore) CountMigratedInvoices(ctx context.Context, prefix string) (int, error) {
	f.calls = append(f.calls, "count")
	return f.remaining, nil
}

type fakeCustomerStore struct {
	customers []migrate.Customer
}

func (f *fakeCustomerStore) ListCustomers(ctx context.Context) ([]migrate.Customer, error) {
	return f.customers, nil
}

type fakeManualStore struct {
	logs      map[string]migrate.ServiceLog
	customers map[string]migrate.Customer
	invoices  []migrate.Invoice
	linked    map[string]string
}

func newFakeManualStore() *fakeManualStore {
	return &fakeManualStore{
		logs:      map[string]migrate.ServiceLog{},
		customers: map[string]migrate.Customer{},
		linked:    map[string]string{},
	}
}

func (f *fakeManualStore) GetServiceLog(ctx context.Context, id string) (*migrate.ServiceLog, error) {
	l, ok := f.logs[id]
	if !ok {
		return nil, errNotFound(id)
	}
	return &l, nil
}

func (f *fakeManualStore) GetCustomer(ctx context.Context, id string) (*migrate.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, errNotFound(id)
	}
	return &c, nil
}

func (f *fakeManualStore) ListCustomerInvoices(ctx context.Context, customerID, prefix string) ([]migrate.Invoice, error) {
	var out []migrate.Invoice
	for _, inv := range f.invoices {
		if inv.CustomerID == customerID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeManualStore) ListRecentUnlinked(ctx context.Context, since time.Time, limit int) ([]migrate.ServiceLog, error) {
	var out []migrate.ServiceLog
	for _, l := range f.logs {
		if l.InvoiceID == nil && !l.ServiceDate.Before(since) && len(out) < limit {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeManualStore) LinkServiceLog(ctx context.Context, logID, invoiceID string) error {
	f.linked[logID] = invoiceID
	return nil
}

type errNotFound string

func (e errNotFound) Error() string { return string(e) + " not found" }
