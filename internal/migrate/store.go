package migrate

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// The store interfaces are cut per stage so each service declares only the
// operations it needs and tests can stand in fakes for exactly those.

// CustomerStore is what the customer mapper needs from the target store.
type CustomerStore interface {
	ListCustomers(ctx context.Context) ([]Customer, error)
}

// InvoiceImportStore is what the invoice importer needs.
type InvoiceImportStore interface {
	ListPayments(ctx context.Context) ([]Payment, error)
	InsertInvoices(ctx context.Context, records []InvoiceRecord) error
}

// PaymentImportStore is what the Zoho payment importer needs.
type PaymentImportStore interface {
	ListMigratedInvoices(ctx context.Context, prefix string) ([]Invoice, error)
	InsertPayments(ctx context.Context, records []PaymentRecord) ([]InsertedPayment, error)
	UpdateInvoicePayment(ctx context.Context, invoiceID, method, reference string) error
	SetInvoicePaymentID(ctx context.Context, invoiceID, paymentID string) error
}

// LinkerStore is what the service-log linker needs.
type LinkerStore interface {
	ListUnlinkedServiceLogs(ctx context.Context) ([]ServiceLog, error)
	ListMigratedInvoices(ctx context.Context, prefix string) ([]Invoice, error)
	ListPayments(ctx context.Context) ([]Payment, error)
	LinkServiceLog(ctx context.Context, logID, invoiceID string) error
}

// ValidationStore is what the validator needs. All operations are read-only.
type ValidationStore interface {
	CountMigratedInvoices(ctx context.Context, prefix string) (int, error)
	MigratedStatusCounts(ctx context.Context, prefix string) (map[string]int, error)
	CountMigratedByMethod(ctx context.Context, prefix, method string) (int, error)
	CountServiceLogs(ctx context.Context) (int, error)
	CountLinkedServiceLogs(ctx context.Context) (int, error)
	SumMigratedAmounts(ctx context.Context, prefix string) (decimal.Decimal, error)
	CountMigratedWithCustomer(ctx context.Context, prefix string) (int, error)
}

// RollbackStore is what rollback needs.
type RollbackStore interface {
	ListMigratedInvoiceIDs(ctx context.Context, prefix string) ([]string, error)
	CountServiceLogsReferencing(ctx context.Context, invoiceIDs []string) (int, error)
	ClearServiceLogLinks(ctx context.Context, invoiceIDs []string) error
	DeleteMigratedInvoices(ctx context.Context, prefix string) error
	CountMigratedInvoices(ctx context.Context, prefix string) (int, error)
}

// ManualLinkStore is what the manual-link helper needs.
type ManualLinkStore interface {
	GetServiceLog(ctx context.Context, id string) (*ServiceLog, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	ListCustomerInvoices(ctx context.Context, customerID, prefix string) ([]Invoice, error)
	ListRecentUnlinked(ctx context.Context, since time.Time, limit int) ([]ServiceLog, error)
	LinkServiceLog(ctx context.Context, logID, invoiceID string) error
}
