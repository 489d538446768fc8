package customers

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("customers: not found")

// NotesPath is the notes page of one customer.
func NotesPath(customerID string) string {
	return "/dashboard/customers/" + customerID + "/notes"
}

// Field is a customer option for selects.
type Field struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TableRow struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	ImageURL      string `json:"image_url"`
	TotalInvoices int    `json:"total_invoices"`
	TotalPending  string `json:"total_pending"`
	TotalPaid     string `json:"total_paid"`
}

type Note struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}
