package calls

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bizdash/pkg/utils"
)

// Recorder persists accepted webhook deliveries.
type Recorder interface {
	Insert(ctx context.Context, e Event) (int64, error)
}

// Reader serves the caller-id log.
type Reader interface {
	ListFiltered(ctx context.Context, query string, page int) ([]Event, error)
	CountPages(ctx context.Context, query string) (int, error)
}

type PostgresRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, now: time.Now}
}

// Insert writes one row. There is no dedup key: a redelivered webhook is a new row.
func (r *PostgresRepo) Insert(ctx context.Context, e Event) (int64, error) {
	const q = `
INSERT INTO call_events (
  call_sid, from_number, to_number, direction, call_status,
  caller_country, caller_city, caller_state, caller_zip,
  raw_data, received_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id
`
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = r.now().UTC()
	}
	raw := e.RawData
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var id int64
	err := r.db.QueryRowContext(ctx, q,
		utils.NullString(e.CallSid),
		utils.NullString(e.FromNumber),
		utils.NullString(e.ToNumber),
		utils.NullString(e.Direction),
		utils.NullString(e.CallStatus),
		utils.NullString(e.CallerCountry),
		utils.NullString(e.CallerCity),
		utils.NullString(e.CallerState),
		utils.NullString(e.CallerZip),
		string(raw),
		e.ReceivedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert call event: %w", err)
	}
	return id, nil
}

const filterClause = `
WHERE
  from_number ILIKE $1 OR
  to_number ILIKE $1 OR
  call_sid ILIKE $1 OR
  direction ILIKE $1 OR
  call_status ILIKE $1 OR
  caller_country ILIKE $1 OR
  caller_city ILIKE $1 OR
  caller_state ILIKE $1 OR
  caller_zip ILIKE $1
`

func (r *PostgresRepo) ListFiltered(ctx context.Context, query string, page int) ([]Event, error) {
	q := `
SELECT id, call_sid, from_number, to_number, direction, call_status,
       caller_country, caller_city, caller_state, caller_zip, raw_data, received_at
FROM call_events` + filterClause + `
ORDER BY received_at DESC
LIMIT $2 OFFSET $3
`
	rows, err := r.db.QueryContext(ctx, q, "%"+query+"%", RowsPerPage, utils.PageOffset(page, RowsPerPage))
	if err != nil {
		return nil, fmt.Errorf("list call events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e                          Event
			sid, from, to, dir, status sql.NullString
			country, city, state, zip  sql.NullString
			raw                        []byte
		)
		if err := rows.Scan(&e.ID, &sid, &from, &to, &dir, &status, &country, &city, &state, &zip, &raw, &e.ReceivedAt); err != nil {
			return nil, err
		}
		e.CallSid = utils.StringPtr(sid)
		e.FromNumber = utils.StringPtr(from)
		e.ToNumber = utils.StringPtr(to)
		e.Direction = utils.StringPtr(dir)
		e.CallStatus = utils.StringPtr(status)
		e.CallerCountry = utils.StringPtr(country)
		e.CallerCity = utils.StringPtr(city)
		e.CallerState = utils.StringPtr(state)
		e.CallerZip = utils.StringPtr(zip)
		e.RawData = raw
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountPages(ctx context.Context, query string) (int, error) {
	q := `SELECT COUNT(*) FROM call_events` + filterClause
	var n int
	if err := r.db.QueryRowContext(ctx, q, "%"+query+"%").Scan(&n); err != nil {
		return 0, fmt.Errorf("count call events: %w", err)
	}
	return utils.PageCount(n, RowsPerPage), nil
}
