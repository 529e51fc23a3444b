package zoho

import (
	"fmt"
	"os"
)

// ReadCustomersFile parses the Customers.csv export at the given path.
func ReadCustomersFile(path string) ([]CustomerRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open customers export: %w", err)
	}
	defer f.Close()
	return ParseCustomers(f)
}

// ReadInvoicesFile parses the Invoice.csv export at the given path.
func ReadInvoicesFile(path string) ([]InvoiceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open invoices export: %w", err)
	}
	defer f.Close()
	return ParseInvoices(f)
}

// ReadPaymentsFile parses the Payments.csv export at the given path.
func ReadPaymentsFile(path string) ([]PaymentRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open payments export: %w", err)
	}
	defer f.Close()
	return ParsePayments(f)
}
