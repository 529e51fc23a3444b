// Package zoho parses the legacy Zoho Books export files. The exports are
// pipe-delimited CSVs with a header row; columns are addressed by their exact
// header names so a reordered export still parses.
package zoho

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// CustomerRow is one row of the Customers.csv export.
type CustomerRow struct {
	CustomerID   string
	CustomerName string
	CompanyName  string
	Email        string
}

// DisplayName prefers the company name, falling back to the contact name,
// matching how Zoho renders the customer.
func (c CustomerRow) DisplayName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return c.CustomerName
}

// InvoiceRow is one row of the Invoice.csv export. The export contains one
// row per line item, so the same invoice number can repeat.
type InvoiceRow struct {
	InvoiceNumber string
	CustomerID    string
	InvoiceDate   time.Time
	DueDate       time.Time
	Total         decimal.Decimal
	Status        string
	Stripe        bool
	ZohoPayments  bool
}

// PaymentRow is one row of the Payments.csv export.
type PaymentRow struct {
	InvoiceNumber   string
	PaymentNumber   string
	PaymentID       string
	Date            time.Time
	Amount          decimal.Decimal
	Mode            string
	ReferenceNumber string
}

// IsStripeCharge reports whether the reference looks like a Stripe charge id.
func (p PaymentRow) IsStripeCharge() bool {
	return strings.HasPrefix(p.ReferenceNumber, "ch_")
}

// CustomersPath, InvoicesPath and PaymentsPath resolve the export file
// locations under the configured CSV directory.
func CustomersPath(dir string) string { return filepath.Join(dir, "Customers.csv") }
func InvoicesPath(dir string) string  { return filepath.Join(dir, "Invoice.csv") }
func PaymentsPath(dir string) string  { return filepath.Join(dir, "Payments.csv") }

type header map[string]int

func (h header) get(record []string, name string) (string, error) {
	idx, ok := h[name]
	if !ok {
		return "", fmt.Errorf("column %q not present in export", name)
	}
	if idx >= len(record) {
		return "", nil
	}
	return strings.TrimSpace(record[idx]), nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '|'
	cr.FieldsPerRecord = -1
	return cr
}

func readAll(r io.Reader) (header, [][]string, error) {
	cr := newReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("export is empty, expected a header row")
	}
	h := header{}
	for i, name := range records[0] {
		h[strings.TrimSpace(name)] = i
	}
	return h, records[1:], nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// ParseCustomers reads a Customers.csv export.
func ParseCustomers(r io.Reader) ([]CustomerRow, error) {
	h, records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	var rows []CustomerRow
	for i, rec := range records {
		var c CustomerRow
		if c.CustomerID, err = h.get(rec, "Customer ID"); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if c.CustomerName, err = h.get(rec, "Customer Name"); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if c.CompanyName, err = h.get(rec, "Company Name"); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if c.Email, err = h.get(rec, "EmailID"); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, c)
	}
	return rows, nil
}

// ParseInvoices reads an Invoice.csv export.
func ParseInvoices(r io.Reader) ([]InvoiceRow, error) {
	h, records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	var rows []InvoiceRow
	for i, rec := range records {
		row, err := parseInvoiceRecord(h, rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseInvoiceRecord(h header, rec []string) (InvoiceRow, error) {
	var row InvoiceRow
	var err error
	if row.InvoiceNumber, err = h.get(rec, "Invoice Number"); err != nil {
		return row, err
	}
	if row.CustomerID, err = h.get(rec, "Customer ID"); err != nil {
		return row, err
	}
	invoiceDate, err := h.get(rec, "Invoice Date")
	if err != nil {
		return row, err
	}
	if row.InvoiceDate, err = parseDate(invoiceDate); err != nil {
		return row, err
	}
	dueDate, err := h.get(rec, "Due Date")
	if err != nil {
		return row, err
	}
	if row.DueDate, err = parseDate(dueDate); err != nil {
		return row, err
	}
	total, err := h.get(rec, "Total")
	if err != nil {
		return row, err
	}
	if row.Total, err = parseAmount(total); err != nil {
		return row, err
	}
	if row.Status, err = h.get(rec, "Invoice Status"); err != nil {
		return row, err
	}
	stripe, err := h.get(rec, "Stripe")
	if err != nil {
		return row, err
	}
	row.Stripe = stripe == "true"
	zoho, err := h.get(rec, "Zoho Payments")
	if err != nil {
		return row, err
	}
	row.ZohoPayments = zoho == "true"
	return row, nil
}

// ParsePayments reads a Payments.csv export.
func ParsePayments(r io.Reader) ([]PaymentRow, error) {
	h, records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	var rows []PaymentRow
	for i, rec := range records {
		row, err := parsePaymentRecord(h, rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parsePaymentRecord(h header, rec []string) (PaymentRow, error) {
	var row PaymentRow
	var err error
	if row.InvoiceNumber, err = h.get(rec, "Invoice Number"); err != nil {
		return row, err
	}
	if row.PaymentNumber, err = h.get(rec, "Payment Number"); err != nil {
		return row, err
	}
	if row.PaymentID, err = h.get(rec, "Payment ID"); err != nil {
		return row, err
	}
	date, err := h.get(rec, "Date")
	if err != nil {
		return row, err
	}
	if row.Date, err = parseDate(date); err != nil {
		return row, err
	}
	amount, err := h.get(rec, "Amount")
	if err != nil {
		return row, err
	}
	if row.Amount, err = parseAmount(amount); err != nil {
		return row, err
	}
	if row.Mode, err = h.get(rec, "Mode"); err != nil {
		return row, err
	}
	if row.ReferenceNumber, err = h.get(rec, "Reference Number"); err != nil {
		return row, err
	}
	return row, nil
}
