package invoices

import (
	"context"
	"errors"
	"strings"
	"time"

	"bizdash/internal/money"
	"bizdash/internal/mutation"
	"bizdash/internal/paypal"

	"github.com/shopspring/decimal"
)

// CustomerLookup resolves the billing contact of a customer.
type CustomerLookup interface {
	Contact(ctx context.Context, id string) (name, email string, err error)
}

// Drafter creates invoices at the payments provider.
type Drafter interface {
	CreateDraftInvoice(ctx context.Context, d paypal.Draft) (string, error)
}

// Writer is the persistence surface the mutations need.
type Writer interface {
	CreateWithItems(ctx context.Context, h NewHeader, items []ItemPrice) (string, error)
	Update(ctx context.Context, id, customerID string, amountCents int64, status string) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	store     Writer
	cache     mutation.Invalidator
	customers CustomerLookup
	drafter   Drafter
	schema    *mutation.Schema
	now       func() time.Time
}

func NewService(store Writer, cache mutation.Invalidator, customers CustomerLookup, drafter Drafter) *Service {
	return &Service{
		store:     store,
		cache:     cache,
		customers: customers,
		drafter:   drafter,
		schema: mutation.NewSchema(map[string]string{
			"customerId": "Please select a customer.",
			"amount":     "Please enter an amount greater than $0.",
			"status":     "Please select an invoice status.",
		}),
		now: time.Now,
	}
}

// CreateInput is a validated new invoice. AmountCents is derived from the
// submitted items; Prices holds one upsert per distinct item name.
type CreateInput struct {
	CustomerID  string `form:"customerId" validate:"required"`
	AmountCents int64  `form:"amount" validate:"gt=0"`
	Status      string `form:"status" validate:"required,oneof=pending paid"`

	Prices []ItemPrice `form:"-"`
}

const amountOutOfRange = "Please enter a valid amount."

// AmountFromItems sums quantity x price over items, in cents.
func AmountFromItems(items []mutation.LineItem) (int64, error) {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(money.LineTotal(it.Quantity, it.Price))
	}
	return money.ToCents(total)
}

// ItemPrices folds items by name in submission order. A repeated name keeps
// its position and takes the last submitted price.
func ItemPrices(items []mutation.LineItem) ([]ItemPrice, error) {
	idx := make(map[string]int, len(items))
	out := make([]ItemPrice, 0, len(items))
	for _, it := range items {
		c, err := money.ToCents(it.Price)
		if err != nil {
			return nil, err
		}
		if i, ok := idx[it.Name]; ok {
			out[i].PriceCents = c
			continue
		}
		idx[it.Name] = len(out)
		out = append(out, ItemPrice{Name: it.Name, PriceCents: c})
	}
	return out, nil
}

func (s *Service) decodeCreate(f mutation.Form) (CreateInput, mutation.FieldErrors) {
	items := f.LineItems("items")
	in := CreateInput{
		CustomerID: f.String("customerId"),
		Status:     f.String("status"),
	}
	amount, amountErr := AmountFromItems(items)
	prices, priceErr := ItemPrices(items)
	if amountErr == nil && priceErr == nil {
		in.AmountCents = amount
		in.Prices = prices
	}

	fe := s.schema.Check(in)
	if amountErr != nil || priceErr != nil {
		if fe == nil {
			fe = mutation.FieldErrors{}
		}
		fe["amount"] = []string{amountOutOfRange}
	}
	return in, fe
}

func revalidateInvoices[T any](T) []string { return []string{PathInvoices} }

func redirectInvoices[T any](T) string { return PathInvoices }

// Create validates the invoice form and stores the header with its line items.
func (s *Service) Create(ctx context.Context, f mutation.Form) (mutation.Outcome, error) {
	return mutation.Run(ctx, s.cache, mutation.Action[CreateInput]{
		Name:           "create_invoice",
		InvalidMessage: "Missing Fields. Failed to Create Invoice.",
		PersistMessage: "Database Error: Failed to Create Invoice.",
		Decode:         s.decodeCreate,
		Persist: func(ctx context.Context, in CreateInput) (string, error) {
			return s.store.CreateWithItems(ctx, NewHeader{
				CustomerID:  in.CustomerID,
				AmountCents: in.AmountCents,
				Status:      in.Status,
				Date:        dateOf(s.now()),
			}, in.Prices)
		},
		Revalidate: revalidateInvoices[CreateInput],
		RedirectTo: redirectInvoices[CreateInput],
	}, f)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UpdateInput is a validated edit. The amount is taken from the form in dollars.
type UpdateInput struct {
	ID          string `form:"-"`
	CustomerID  string `form:"customerId" validate:"required"`
	AmountCents int64  `form:"amount" validate:"gt=0"`
	Status      string `form:"status" validate:"required,oneof=pending paid"`
}

func (s *Service) decodeUpdate(id string) func(mutation.Form) (UpdateInput, mutation.FieldErrors) {
	return func(f mutation.Form) (UpdateInput, mutation.FieldErrors) {
		in := UpdateInput{
			ID:         id,
			CustomerID: f.String("customerId"),
			Status:     f.String("status"),
		}
		// Absent or non-numeric amounts stay zero and fail the gt=0 rule.
		var rangeErr error
		if d, ok, err := f.Decimal("amount"); ok && err == nil {
			in.AmountCents, rangeErr = money.ToCents(d)
		}
		fe := s.schema.Check(in)
		if rangeErr != nil {
			if fe == nil {
				fe = mutation.FieldErrors{}
			}
			fe["amount"] = []string{amountOutOfRange}
		}
		return in, fe
	}
}

func (s *Service) Update(ctx context.Context, id string, f mutation.Form) (mutation.Outcome, error) {
	return mutation.Run(ctx, s.cache, mutation.Action[UpdateInput]{
		Name:           "update_invoice",
		InvalidMessage: "Missing Fields. Failed to Update Invoice.",
		PersistMessage: "Database Error: Failed to Update Invoice.",
		Decode:         s.decodeUpdate(id),
		Persist: func(ctx context.Context, in UpdateInput) (string, error) {
			return in.ID, s.store.Update(ctx, in.ID, in.CustomerID, in.AmountCents, in.Status)
		},
		Revalidate: revalidateInvoices[UpdateInput],
		RedirectTo: redirectInvoices[UpdateInput],
	}, f)
}

// Delete removes the invoice. The caller stays on the listing.
func (s *Service) Delete(ctx context.Context, id string) (mutation.Outcome, error) {
	return mutation.Run(ctx, s.cache, mutation.Action[string]{
		Name:           "delete_invoice",
		InvalidMessage: "Missing Fields. Failed to Delete Invoice.",
		PersistMessage: "Database Error: Failed to Delete Invoice.",
		Decode: func(mutation.Form) (string, mutation.FieldErrors) {
			if strings.TrimSpace(id) == "" {
				return "", mutation.FieldErrors{"id": {"Missing invoice id."}}
			}
			return id, nil
		},
		Persist: func(ctx context.Context, id string) (string, error) {
			return id, s.store.Delete(ctx, id)
		},
		Revalidate: revalidateInvoices[string],
	}, mutation.NewForm(nil))
}

// DraftInput asks the payments provider for a draft invoice.
type DraftInput struct {
	CustomerID    string
	InvoiceNumber string
	Items         []mutation.LineItem
}

const missingDraftFields = "Missing customer or invoice number."

func decodeDraft(f mutation.Form) (DraftInput, mutation.FieldErrors) {
	in := DraftInput{Items: f.LineItems("items")}
	fe := mutation.FieldErrors{}
	var ok bool
	if in.CustomerID, ok = f.Lookup("customerId"); !ok {
		fe.Add("customerId", missingDraftFields)
	}
	if in.InvoiceNumber, ok = f.Lookup("invoiceNumber"); !ok {
		fe.Add("invoiceNumber", missingDraftFields)
	}
	return in, fe
}

// Draft creates a provider-side draft invoice and returns its provider id.
// Nothing is written locally.
func (s *Service) Draft(ctx context.Context, f mutation.Form) (mutation.Outcome, error) {
	return mutation.Run(ctx, s.cache, mutation.Action[DraftInput]{
		Name:           "draft_invoice",
		InvalidMessage: missingDraftFields,
		PersistMessage: "PayPal request failed.",
		Decode:         decodeDraft,
		Persist:        s.draft,
	}, f)
}

func (s *Service) draft(ctx context.Context, in DraftInput) (string, error) {
	name, email, err := s.customers.Contact(ctx, in.CustomerID)
	if err != nil {
		return "", mutation.Upstream("PayPal request failed.", err)
	}

	d := paypal.Draft{
		InvoiceNumber: in.InvoiceNumber,
		Recipient:     paypal.Recipient{Name: name, Email: email},
		Items:         make([]paypal.Item, 0, len(in.Items)),
	}
	for _, it := range in.Items {
		d.Items = append(d.Items, paypal.Item{Name: it.Name, Quantity: it.Quantity, UnitPrice: it.Price})
	}

	if s.drafter == nil {
		return "", mutation.Upstream("PayPal is not configured.", paypal.ErrNotConfigured)
	}
	id, err := s.drafter.CreateDraftInvoice(ctx, d)
	if err != nil {
		var apiErr *paypal.APIError
		switch {
		case errors.Is(err, paypal.ErrNotConfigured), errors.Is(err, paypal.ErrTokenUnavailable):
			return "", mutation.Upstream("PayPal is not configured.", err)
		case errors.As(err, &apiErr):
			return "", mutation.Upstream("Failed to create PayPal invoice.", err)
		default:
			return "", mutation.Upstream("PayPal request failed.", err)
		}
	}
	return id, nil
}
