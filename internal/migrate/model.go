package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice lifecycle statuses in the target store.
const (
	StatusPaid    = "paid"
	StatusPending = "pending"
)

// Payment method tags on migrated invoices.
const (
	MethodStripe  = "stripe"
	MethodZoho    = "zoho"
	MethodUnknown = "unknown"
)

// DefaultInvoicePrefix marks invoice numbers created by this pipeline.
const DefaultInvoicePrefix = "ZB-"

// Customer is a target-store customer row.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Invoice is a migrated invoice as read back from the target store.
type Invoice struct {
	ID               string          `json:"id"`
	InvoiceNumber    string          `json:"invoice_number"`
	CustomerID       string          `json:"customer_id"`
	BoatID           *string         `json:"boat_id"`
	Amount           decimal.Decimal `json:"amount"`
	Status           string          `json:"status"`
	IssuedAt         time.Time       `json:"issued_at"`
	PaymentMethod    *string         `json:"payment_method"`
	PaymentReference *string         `json:"payment_reference"`
}

// InvoiceRecord is an invoice prepared for insertion.
type InvoiceRecord struct {
	InvoiceNumber    string          `json:"invoice_number"`
	CustomerID       string          `json:"customer_id"`
	BoatID           *string         `json:"boat_id"`
	ServiceID        *string         `json:"service_id"`
	Amount           decimal.Decimal `json:"amount"`
	Status           string          `json:"status"`
	IssuedAt         time.Time       `json:"issued_at"`
	DueAt            time.Time       `json:"due_at"`
	PaidAt           *time.Time      `json:"paid_at"`
	PaymentMethod    *string         `json:"payment_method"`
	PaymentReference *string         `json:"payment_reference"`
	PaymentID        *string         `json:"payment_id"`
	CustomerDetails  map[string]any  `json:"customer_details"`
	ServiceDetails   map[string]any  `json:"service_details"`
}

// Payment is a target-store payment row as used for Stripe reference lookups.
type Payment struct {
	ID                    string  `json:"id"`
	InvoiceID             *string `json:"invoice_id"`
	StripeChargeID        *string `json:"stripe_charge_id"`
	StripePaymentIntentID *string `json:"stripe_payment_intent_id"`
}

// PaymentRecord is a payment prepared for insertion.
type PaymentRecord struct {
	CustomerID       string          `json:"customer_id"`
	InvoiceID        string          `json:"invoice_id"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentReference string          `json:"payment_reference"`
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	Metadata         map[string]any  `json:"metadata"`
}

// InsertedPayment is the identity of a payment row after insertion, used to
// backfill the parent invoice's payment_id.
type InsertedPayment struct {
	ID        string `json:"id"`
	InvoiceID string `json:"invoice_id"`
}

// ServiceLog is a target-store service log. InvoiceID is the nullable field
// this pipeline populates.
type ServiceLog struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customer_id"`
	BoatID      *string   `json:"boat_id"`
	OrderID     *string   `json:"order_id"`
	ServiceDate time.Time `json:"service_date"`
	InvoiceID   *string   `json:"invoice_id"`
}

// MappingEntry pairs a legacy customer id with its target customer id. The
// full mapping is persisted as customer-mapping.json between pipeline stages.
type MappingEntry struct {
	ZohoCustomerID   string `json:"zoho_customer_id"`
	ZohoName         string `json:"zoho_name"`
	ZohoEmail        string `json:"zoho_email"`
	SailorCustomerID string `json:"sailor_customer_id"`
	SailorName       string `json:"sailor_name"`
	SailorEmail      string `json:"sailor_email"`
}

// LoadCustomerMapping reads the persisted mapping artifact. The file must
// exist before invoice import runs; its absence is a configuration error.
func LoadCustomerMapping(path string) ([]MappingEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read customer mapping %s (run map-customers first): %w", path, err)
	}
	var mapping []MappingEntry
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("decode customer mapping %s: %w", path, err)
	}
	return mapping, nil
}

// mappingIndex builds the legacy-id lookup used by the importers.
func mappingIndex(entries []MappingEntry) map[string]string {
	idx := make(map[string]string, len(entries))
	for _, e := range entries {
		idx[e.ZohoCustomerID] = e.SailorCustomerID
	}
	return idx
}
