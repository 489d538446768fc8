package products

import (
	"context"
	"database/sql"
	"fmt"

	"bizdash/pkg/utils"

	"github.com/google/uuid"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(ctx context.Context, in CreateInput) (string, error) {
	const q = `
INSERT INTO products (
  id, name, brand, description, slug, sku, image_url, image_alt,
  alt1_url, alt1_alt, alt2_url, alt2_alt, alt3_url, alt3_alt, alt4_url, alt4_alt,
  msrp, price, availability, featured, active, onsale
) VALUES (
  $1, $2, $3, $4, $5, $6, $7, $8,
  $9, $10, $11, $12, $13, $14, $15, $16,
  $17, $18, $19, $20, $21, $22
)
`
	id := uuid.NewString()
	args := []any{id, in.Name, in.Brand, in.Description, in.Slug, in.SKU, in.ImageURL, in.ImageAlt}
	for _, alt := range in.AltImages {
		args = append(args, utils.NullString(alt.URL), utils.NullString(alt.Alt))
	}
	args = append(args,
		utils.NullInt64(in.MSRPCents),
		utils.NullInt64(in.PriceCents),
		utils.NullString(in.Availability),
		in.Featured, in.Active, in.OnSale,
	)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return "", fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}

const filterClause = `
WHERE
  name ILIKE $1 OR
  brand ILIKE $1 OR
  sku ILIKE $1 OR
  price::text ILIKE $1
`

func (s *Store) ListFiltered(ctx context.Context, query string, page int) ([]TableRow, error) {
	q := `SELECT id, name, brand, sku, price FROM products` + filterClause + `
ORDER BY name ASC
LIMIT $2 OFFSET $3
`
	rows, err := s.db.QueryContext(ctx, q, "%"+query+"%", PerPage, utils.PageOffset(page, PerPage))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []TableRow
	for rows.Next() {
		var (
			r     TableRow
			price sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Brand, &r.SKU, &price); err != nil {
			return nil, err
		}
		if price.Valid {
			p := price.Int64
			r.PriceCents = &p
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) CountPages(ctx context.Context, query string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+filterClause, "%"+query+"%").Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return utils.PageCount(n, PerPage), nil
}
