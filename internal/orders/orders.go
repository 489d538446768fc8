// Package orders serves the read-only order log captured from checkout.
package orders

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bizdash/internal/money"
	"bizdash/pkg/utils"
)

// PerPage is the order table page size.
const PerPage = 5

type Order struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	AmountCents   int64     `json:"amount"`
	Amount        string    `json:"amount_display"`
	OrderID       string    `json:"order_id"`
	CaptureID     string    `json:"capture_id"`
	CaptureStatus string    `json:"capture_status"`
	InvoiceNumber int64     `json:"invoice_number"`
	CreatedAt     time.Time `json:"created_at"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const filterClause = `
WHERE
  name ILIKE $1 OR
  email ILIKE $1 OR
  order_id ILIKE $1 OR
  capture_id ILIKE $1 OR
  capture_status ILIKE $1 OR
  invoice_number::text ILIKE $1
`

func (s *Store) ListFiltered(ctx context.Context, query string, page int) ([]Order, error) {
	q := `
SELECT id, name, email, amount, order_id, capture_id, capture_status, invoice_number, created_at
FROM orders` + filterClause + `
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`
	rows, err := s.db.QueryContext(ctx, q, "%"+query+"%", PerPage, utils.PageOffset(page, PerPage))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Name, &o.Email, &o.AmountCents, &o.OrderID, &o.CaptureID, &o.CaptureStatus, &o.InvoiceNumber, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Amount = money.Format(o.AmountCents)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) CountPages(ctx context.Context, query string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+filterClause, "%"+query+"%").Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return utils.PageCount(n, PerPage), nil
}
