package invoices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bizdash/internal/money"
	"bizdash/pkg/utils"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Store runs invoice SQL against the shared pool.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// NewHeader is an invoice header ready to insert.
type NewHeader struct {
	CustomerID  string
	AmountCents int64
	Status      string
	Date        time.Time
}

// ItemPrice is a line item price to upsert by name.
type ItemPrice struct {
	Name       string
	PriceCents int64
}

const (
	insertInvoiceSQL = `
INSERT INTO invoices (id, customer_id, amount, status, date)
VALUES ($1, $2, $3, $4, $5)
`
	upsertItemSQL = `
INSERT INTO invoice_items (id, name, price)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET price = EXCLUDED.price
`
)

// CreateWithItems inserts the header and upserts every item price in one
// transaction. The upserts run concurrently; any failure rolls back all of it.
func (s *Store) CreateWithItems(ctx context.Context, h NewHeader, items []ItemPrice) (string, error) {
	id := uuid.NewString()
	err := utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertInvoiceSQL, id, h.CustomerID, h.AmountCents, h.Status, h.Date); err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, it := range items {
			g.Go(func() error {
				if _, err := tx.ExecContext(gctx, upsertItemSQL, uuid.NewString(), it.Name, it.PriceCents); err != nil {
					return fmt.Errorf("upsert item %q: %w", it.Name, err)
				}
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Update(ctx context.Context, id, customerID string, amountCents int64, status string) error {
	const q = `
UPDATE invoices
SET customer_id = $1, amount = $2, status = $3
WHERE id = $4
`
	res, err := s.db.ExecContext(ctx, q, customerID, amountCents, status, id)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return nil
}

const filterClause = `
WHERE
  customers.name ILIKE $1 OR
  customers.email ILIKE $1 OR
  invoices.amount::text ILIKE $1 OR
  invoices.date::text ILIKE $1 OR
  invoices.status ILIKE $1
`

func (s *Store) ListFiltered(ctx context.Context, query string, page int) ([]TableRow, error) {
	q := `
SELECT invoices.id, invoices.customer_id, customers.name, customers.email, customers.image_url,
       invoices.amount, invoices.date, invoices.status
FROM invoices
JOIN customers ON invoices.customer_id = customers.id` + filterClause + `
ORDER BY invoices.date DESC
LIMIT $2 OFFSET $3
`
	rows, err := s.db.QueryContext(ctx, q, "%"+query+"%", PerPage, utils.PageOffset(page, PerPage))
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []TableRow
	for rows.Next() {
		var r TableRow
		if err := rows.Scan(&r.ID, &r.CustomerID, &r.Name, &r.Email, &r.ImageURL, &r.AmountCents, &r.Date, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) CountPages(ctx context.Context, query string) (int, error) {
	q := `
SELECT COUNT(*)
FROM invoices
JOIN customers ON invoices.customer_id = customers.id` + filterClause
	var n int
	if err := s.db.QueryRowContext(ctx, q, "%"+query+"%").Scan(&n); err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return utils.PageCount(n, PerPage), nil
}

func (s *Store) ByID(ctx context.Context, id string) (EditForm, error) {
	const q = `SELECT id, customer_id, amount, status FROM invoices WHERE id = $1`
	var (
		f     EditForm
		cents int64
	)
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&f.ID, &f.CustomerID, &cents, &f.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EditForm{}, ErrNotFound
		}
		return EditForm{}, fmt.Errorf("get invoice: %w", err)
	}
	f.Amount = money.FromCents(cents)
	return f, nil
}

func (s *Store) Latest(ctx context.Context) ([]LatestInvoice, error) {
	const q = `
SELECT invoices.id, customers.name, customers.image_url, customers.email, invoices.amount
FROM invoices
JOIN customers ON invoices.customer_id = customers.id
ORDER BY invoices.date DESC
LIMIT 5
`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("latest invoices: %w", err)
	}
	defer rows.Close()

	var out []LatestInvoice
	for rows.Next() {
		var (
			l     LatestInvoice
			cents int64
		)
		if err := rows.Scan(&l.ID, &l.Name, &l.ImageURL, &l.Email, &cents); err != nil {
			return nil, err
		}
		l.Amount = money.Format(cents)
		out = append(out, l)
	}
	return out, rows.Err()
}

// Cards runs the dashboard summary queries concurrently.
func (s *Store) Cards(ctx context.Context) (CardData, error) {
	var (
		invoices, customers int
		paid, pending       sql.NullInt64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.QueryRowContext(gctx, `SELECT COUNT(*) FROM invoices`).Scan(&invoices)
	})
	g.Go(func() error {
		return s.db.QueryRowContext(gctx, `SELECT COUNT(*) FROM customers`).Scan(&customers)
	})
	g.Go(func() error {
		const q = `
SELECT
  SUM(CASE WHEN status = 'paid' THEN amount ELSE 0 END) AS paid,
  SUM(CASE WHEN status = 'pending' THEN amount ELSE 0 END) AS pending
FROM invoices
`
		return s.db.QueryRowContext(gctx, q).Scan(&paid, &pending)
	})
	if err := g.Wait(); err != nil {
		return CardData{}, fmt.Errorf("card data: %w", err)
	}
	return CardData{
		NumberOfCustomers:    customers,
		NumberOfInvoices:     invoices,
		TotalPaidInvoices:    money.Format(paid.Int64),
		TotalPendingInvoices: money.Format(pending.Int64),
	}, nil
}

func (s *Store) Items(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, price FROM invoice_items ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("invoice items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// NextNumber derives the next invoice number from the invoice count:
// YY0100 + count*6, where YY is the two-digit year of now.
func (s *Store) NextNumber(ctx context.Context, now time.Time) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&n); err != nil {
		return 0, fmt.Errorf("next invoice number: %w", err)
	}
	return NextNumberFor(now, n), nil
}

func NextNumberFor(now time.Time, count int) int {
	base, _ := strconv.Atoi(fmt.Sprintf("%02d0100", now.Year()%100))
	return base + count*6
}
