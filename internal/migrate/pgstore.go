package migrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// defaultPageSize bounds how many rows a single fetch pulls when loading
// whole tables into memory for matching.
const defaultPageSize = 1000

// Store is the pgx-backed implementation of every per-stage store interface.
type Store struct {
	pool     *pgxpool.Pool
	pageSize int
}

// NewStore wraps a connection pool. The pool is owned by the caller.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, pageSize: defaultPageSize}
}

func likePrefix(prefix string) string {
	return prefix + "%"
}

func (s *Store) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, COALESCE(name, ''), COALESCE(email, '')
		FROM customers`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) ListPayments(ctx context.Context) ([]Payment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_id, stripe_charge_id, stripe_payment_intent_id
		FROM payments`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.StripeChargeID, &p.StripePaymentIntentID); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *Store) InsertInvoices(ctx context.Context, records []InvoiceRecord) error {
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO invoices (invoice_number, customer_id, boat_id, service_id,
			                      amount, status, issued_at, due_at, paid_at,
			                      payment_method, payment_reference, payment_id,
			                      customer_details, service_details)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			r.InvoiceNumber, r.CustomerID, r.BoatID, r.ServiceID,
			r.Amount, r.Status, r.IssuedAt, r.DueAt, r.PaidAt,
			r.PaymentMethod, r.PaymentReference, r.PaymentID,
			r.CustomerDetails, r.ServiceDetails)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert invoices: %w", err)
		}
	}
	return nil
}

// ListMigratedInvoices loads every invoice carrying the migration prefix,
// page by page. Ordered by invoice_number so pagination is stable.
func (s *Store) ListMigratedInvoices(ctx context.Context, prefix string) ([]Invoice, error) {
	var invoices []Invoice
	for offset := 0; ; offset += s.pageSize {
		rows, err := s.pool.Query(ctx, `
			SELECT id, invoice_number, customer_id, boat_id, amount, status,
			       issued_at, payment_method, payment_reference
			FROM invoices
			WHERE invoice_number LIKE $1
			ORDER BY invoice_number
			LIMIT $2 OFFSET $3`,
			likePrefix(prefix), s.pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list migrated invoices: %w", err)
		}
		n := 0
		for rows.Next() {
			var inv Invoice
			if err := rows.Scan(&inv.ID, &inv.InvoiceNumber, &inv.CustomerID, &inv.BoatID,
				&inv.Amount, &inv.Status, &inv.IssuedAt, &inv.PaymentMethod, &inv.PaymentReference); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan invoice: %w", err)
			}
			invoices = append(invoices, inv)
			n++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate invoices: %w", err)
		}
		if n < s.pageSize {
			return invoices, nil
		}
	}
}

func (s *Store) InsertPayments(ctx context.Context, records []PaymentRecord) ([]InsertedPayment, error) {
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO payments (customer_id, invoice_id, amount, payment_method,
			                      payment_reference, status, created_at, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, invoice_id`,
			r.CustomerID, r.InvoiceID, r.Amount, r.PaymentMethod,
			r.PaymentReference, r.Status, r.CreatedAt, r.Metadata)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := make([]InsertedPayment, 0, len(records))
	for range records {
		var p InsertedPayment
		if err := br.QueryRow().Scan(&p.ID, &p.InvoiceID); err != nil {
			return inserted, fmt.Errorf("insert payments: %w", err)
		}
		inserted = append(inserted, p)
	}
	return inserted, nil
}

func (s *Store) UpdateInvoicePayment(ctx context.Context, invoiceID, method, reference string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE invoices SET payment_method = $2, payment_reference = $3 WHERE id = $1`,
		invoiceID, method, reference)
	if err != nil {
		return fmt.Errorf("update invoice %s payment fields: %w", invoiceID, err)
	}
	return nil
}

func (s *Store) SetInvoicePaymentID(ctx context.Context, invoiceID, paymentID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE invoices SET payment_id = $2 WHERE id = $1`,
		invoiceID, paymentID)
	if err != nil {
		return fmt.Errorf("set invoice %s payment_id: %w", invoiceID, err)
	}
	return nil
}

// ListUnlinkedServiceLogs loads every service log with a null invoice
// reference, page by page.
func (s *Store) ListUnlinkedServiceLogs(ctx context.Context) ([]ServiceLog, error) {
	var logs []ServiceLog
	for offset := 0; ; offset += s.pageSize {
		rows, err := s.pool.Query(ctx, `
			SELECT id, customer_id, boat_id, order_id, service_date, invoice_id
			FROM service_logs
			WHERE invoice_id IS NULL
			ORDER BY id
			LIMIT $1 OFFSET $2`,
			s.pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list unlinked service logs: %w", err)
		}
		n := 0
		for rows.Next() {
			var l ServiceLog
			if err := rows.Scan(&l.ID, &l.CustomerID, &l.BoatID, &l.OrderID, &l.ServiceDate, &l.InvoiceID); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan service log: %w", err)
			}
			logs = append(logs, l)
			n++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate service logs: %w", err)
		}
		if n < s.pageSize {
			return logs, nil
		}
	}
}

func (s *Store) LinkServiceLog(ctx context.Context, logID, invoiceID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE service_logs SET invoice_id = $2 WHERE id = $1`,
		logID, invoiceID)
	if err != nil {
		return fmt.Errorf("link service log %s: %w", logID, err)
	}
	return nil
}

func (s *Store) CountMigratedInvoices(ctx context.Context, prefix string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM invoices WHERE invoice_number LIKE $1`,
		likePrefix(prefix)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count migrated invoices: %w", err)
	}
	return count, nil
}

func (s *Store) MigratedStatusCounts(ctx context.Context, prefix string) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT status, count(*) FROM invoices
		WHERE invoice_number LIKE $1
		GROUP BY status`,
		likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (s *Store) CountMigratedByMethod(ctx context.Context, prefix, method string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM invoices
		WHERE invoice_number LIKE $1 AND payment_method = $2`,
		likePrefix(prefix), method).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s invoices: %w", method, err)
	}
	return count, nil
}

func (s *Store) CountServiceLogs(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM service_logs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count service logs: %w", err)
	}
	return count, nil
}

func (s *Store) CountLinkedServiceLogs(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM service_logs WHERE invoice_id IS NOT NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count linked service logs: %w", err)
	}
	return count, nil
}

// SumMigratedAmounts fetches migrated invoice amounts page by page and sums
// them client-side, mirroring how the revenue figure was produced originally.
func (s *Store) SumMigratedAmounts(ctx context.Context, prefix string) (decimal.Decimal, error) {
	total := decimal.Zero
	for offset := 0; ; offset += s.pageSize {
		rows, err := s.pool.Query(ctx, `
			SELECT amount FROM invoices
			WHERE invoice_number LIKE $1
			ORDER BY invoice_number
			LIMIT $2 OFFSET $3`,
			likePrefix(prefix), s.pageSize, offset)
		if err != nil {
			return decimal.Zero, fmt.Errorf("fetch invoice amounts: %w", err)
		}
		n := 0
		for rows.Next() {
			var amount decimal.Decimal
			if err := rows.Scan(&amount); err != nil {
				rows.Close()
				return decimal.Zero, fmt.Errorf("scan amount: %w", err)
			}
			total = total.Add(amount)
			n++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return decimal.Zero, fmt.Errorf("iterate amounts: %w", err)
		}
		if n < s.pageSize {
			return total, nil
		}
	}
}

func (s *Store) CountMigratedWithCustomer(ctx context.Context, prefix string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM invoices
		WHERE invoice_number LIKE $1 AND customer_id IS NOT NULL`,
		likePrefix(prefix)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count invoices with customer: %w", err)
	}
	return count, nil
}

func (s *Store) ListMigratedInvoiceIDs(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM invoices WHERE invoice_number LIKE $1`,
		likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("list migrated invoice ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan invoice id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) CountServiceLogsReferencing(ctx context.Context, invoiceIDs []string) (int, error) {
	if len(invoiceIDs) == 0 {
		return 0, nil
	}
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM service_logs WHERE invoice_id = ANY($1)`,
		invoiceIDs).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count referencing service logs: %w", err)
	}
	return count, nil
}

func (s *Store) ClearServiceLogLinks(ctx context.Context, invoiceIDs []string) error {
	if len(invoiceIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE service_logs SET invoice_id = NULL WHERE invoice_id = ANY($1)`,
		invoiceIDs)
	if err != nil {
		return fmt.Errorf("clear service log links: %w", err)
	}
	return nil
}

func (s *Store) DeleteMigratedInvoices(ctx context.Context, prefix string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM invoices WHERE invoice_number LIKE $1`,
		likePrefix(prefix))
	if err != nil {
		return fmt.Errorf("delete migrated invoices: %w", err)
	}
	return nil
}

func (s *Store) GetServiceLog(ctx context.Context, id string) (*ServiceLog, error) {
	l := &ServiceLog{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, customer_id, boat_id, order_id, service_date, invoice_id
		FROM service_logs WHERE id = $1`,
		id).Scan(&l.ID, &l.CustomerID, &l.BoatID, &l.OrderID, &l.ServiceDate, &l.InvoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("service log %s not found", id)
		}
		return nil, fmt.Errorf("get service log %s: %w", id, err)
	}
	return l, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	c := &Customer{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, COALESCE(name, ''), COALESCE(email, '')
		FROM customers WHERE id = $1`,
		id).Scan(&c.ID, &c.Name, &c.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %s not found", id)
		}
		return nil, fmt.Errorf("get customer %s: %w", id, err)
	}
	return c, nil
}

func (s *Store) ListCustomerInvoices(ctx context.Context, customerID, prefix string) ([]Invoice, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_number, customer_id, boat_id, amount, status,
		       issued_at, payment_method, payment_reference
		FROM invoices
		WHERE customer_id = $1 AND invoice_number LIKE $2
		ORDER BY issued_at DESC`,
		customerID, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("list customer invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.InvoiceNumber, &inv.CustomerID, &inv.BoatID,
			&inv.Amount, &inv.Status, &inv.IssuedAt, &inv.PaymentMethod, &inv.PaymentReference); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (s *Store) ListRecentUnlinked(ctx context.Context, since time.Time, limit int) ([]ServiceLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, customer_id, boat_id, order_id, service_date, invoice_id
		FROM service_logs
		WHERE invoice_id IS NULL AND service_date >= $1
		ORDER BY service_date DESC
		LIMIT $2`,
		since, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent unlinked logs: %w", err)
	}
	defer rows.Close()

	var logs []ServiceLog
	for rows.Next() {
		var l ServiceLog
		if err := rows.Scan(&l.ID, &l.CustomerID, &l.BoatID, &l.OrderID, &l.ServiceDate, &l.InvoiceID); err != nil {
			return nil, fmt.Errorf("scan service log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
