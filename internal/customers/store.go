package customers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bizdash/internal/money"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) All(ctx context.Context) ([]Field, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM customers ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []Field
	for rows.Next() {
		var f Field
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Filtered lists customers matching query by name or email, with invoice totals.
func (s *Store) Filtered(ctx context.Context, query string) ([]TableRow, error) {
	const q = `
SELECT
  customers.id,
  customers.name,
  customers.email,
  customers.image_url,
  COUNT(invoices.id) AS total_invoices,
  COALESCE(SUM(CASE WHEN invoices.status = 'pending' THEN invoices.amount ELSE 0 END), 0) AS total_pending,
  COALESCE(SUM(CASE WHEN invoices.status = 'paid' THEN invoices.amount ELSE 0 END), 0) AS total_paid
FROM customers
LEFT JOIN invoices ON customers.id = invoices.customer_id
WHERE
  customers.name ILIKE $1 OR
  customers.email ILIKE $1
GROUP BY customers.id, customers.name, customers.email, customers.image_url
ORDER BY customers.name ASC
`
	rows, err := s.db.QueryContext(ctx, q, "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("filter customers: %w", err)
	}
	defer rows.Close()

	var out []TableRow
	for rows.Next() {
		var (
			r             TableRow
			pending, paid int64
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.ImageURL, &r.TotalInvoices, &pending, &paid); err != nil {
			return nil, err
		}
		r.TotalPending = money.Format(pending)
		r.TotalPaid = money.Format(paid)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ByID(ctx context.Context, id string) (Field, error) {
	var f Field
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM customers WHERE id = $1`, id).Scan(&f.ID, &f.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Field{}, ErrNotFound
		}
		return Field{}, fmt.Errorf("get customer: %w", err)
	}
	return f, nil
}

// Contact returns the billing name and email of a customer.
func (s *Store) Contact(ctx context.Context, id string) (string, string, error) {
	var name, email string
	err := s.db.QueryRowContext(ctx, `SELECT name, email FROM customers WHERE id = $1`, id).Scan(&name, &email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", ErrNotFound
		}
		return "", "", fmt.Errorf("get customer: %w", err)
	}
	return name, email, nil
}

func (s *Store) Notes(ctx context.Context, customerID string) ([]Note, error) {
	const q = `
SELECT id, customer_id, note, created_at
FROM customer_notes
WHERE customer_id = $1
ORDER BY created_at DESC
`
	rows, err := s.db.QueryContext(ctx, q, customerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.CustomerID, &n.Note, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) InsertNote(ctx context.Context, customerID, note string) (Note, error) {
	const q = `
INSERT INTO customer_notes (customer_id, note)
VALUES ($1, $2)
RETURNING id, customer_id, note, created_at
`
	var n Note
	if err := s.db.QueryRowContext(ctx, q, customerID, note).Scan(&n.ID, &n.CustomerID, &n.Note, &n.CreatedAt); err != nil {
		return Note{}, fmt.Errorf("insert note: %w", err)
	}
	return n, nil
}
