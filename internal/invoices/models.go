package invoices

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PerPage is the invoice table page size.
const PerPage = 6

// PathInvoices is the canonical invoice listing.
const PathInvoices = "/dashboard/invoices"

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

var ErrNotFound = errors.New("invoices: not found")

// TableRow is one row of the invoice listing.
type TableRow struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customer_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	ImageURL    string    `json:"image_url"`
	AmountCents int64     `json:"amount"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
}

// EditForm prefills the edit page. Amount is in dollars.
type EditForm struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
}

type LatestInvoice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
	Email    string `json:"email"`
	Amount   string `json:"amount"`
}

type CardData struct {
	NumberOfCustomers    int    `json:"numberOfCustomers"`
	NumberOfInvoices     int    `json:"numberOfInvoices"`
	TotalPaidInvoices    string `json:"totalPaidInvoices"`
	TotalPendingInvoices string `json:"totalPendingInvoices"`
}

// Item is a reusable line item. Names are unique; the price is the last one
// submitted under that name.
type Item struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price"`
}
