package invoices

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"bizdash/internal/mutation"
	"bizdash/internal/paypal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	headers []NewHeader
	prices  map[string]int64
	items   [][]ItemPrice
	updated []UpdateInput
	deleted []string
	err     error
}

func (w *fakeWriter) CreateWithItems(ctx context.Context, h NewHeader, items []ItemPrice) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	if w.prices == nil {
		w.prices = map[string]int64{}
	}
	w.headers = append(w.headers, h)
	w.items = append(w.items, items)
	for _, it := range items {
		w.prices[it.Name] = it.PriceCents
	}
	return "inv-1", nil
}

func (w *fakeWriter) Update(ctx context.Context, id, customerID string, amountCents int64, status string) error {
	if w.err != nil {
		return w.err
	}
	w.updated = append(w.updated, UpdateInput{ID: id, CustomerID: customerID, AmountCents: amountCents, Status: status})
	return nil
}

func (w *fakeWriter) Delete(ctx context.Context, id string) error {
	if w.err != nil {
		return w.err
	}
	w.deleted = append(w.deleted, id)
	return nil
}

type fakeCache struct{ paths []string }

func (c *fakeCache) InvalidatePath(ctx context.Context, path string) error {
	c.paths = append(c.paths, path)
	return nil
}

type fakeCustomers struct{ err error }

func (f fakeCustomers) Contact(ctx context.Context, id string) (string, string, error) {
	return "Ann", "ann@example.com", f.err
}

type fakeDrafter struct {
	got paypal.Draft
	id  string
	err error
}

func (f *fakeDrafter) CreateDraftInvoice(ctx context.Context, d paypal.Draft) (string, error) {
	f.got = d
	return f.id, f.err
}

func newTestService(w *fakeWriter, c *fakeCache, d Drafter) *Service {
	s := NewService(w, c, fakeCustomers{}, d)
	s.now = func() time.Time { return time.Date(2025, 6, 2, 23, 59, 0, 0, time.FixedZone("X", -5*3600)) }
	return s
}

func form(kv ...string) mutation.Form {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return mutation.NewForm(v)
}

func TestCreate_AmountDerivedFromItems(t *testing.T) {
	w, c := &fakeWriter{}, &fakeCache{}
	s := newTestService(w, c, nil)

	out, err := s.Create(context.Background(), form(
		"customerId", "c1",
		"status", "pending",
		"amount", "999999",
		"items", `[{"name":"A","quantity":2,"price":10.00}]`,
	))
	require.NoError(t, err)
	assert.Equal(t, PathInvoices, out.RedirectTo)
	assert.Equal(t, "inv-1", out.ID)

	require.Len(t, w.headers, 1)
	assert.Equal(t, int64(2000), w.headers[0].AmountCents)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), w.headers[0].Date)
	assert.Equal(t, int64(1000), w.prices["A"])
	assert.Equal(t, []string{PathInvoices}, c.paths)
}

func TestCreate_NonPositiveAmountFailsOnAmount(t *testing.T) {
	cases := map[string]string{
		"zero quantity": `[{"name":"A","quantity":0,"price":10}]`,
		"negative":      `[{"name":"A","quantity":1,"price":-5}]`,
		"malformed":     `[{"name":`,
		"empty":         `[]`,
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			w, c := &fakeWriter{}, &fakeCache{}
			s := newTestService(w, c, nil)

			_, err := s.Create(context.Background(), form("customerId", "c1", "status", "paid", "items", items))
			me, ok := mutation.AsError(err)
			require.True(t, ok)
			assert.Equal(t, mutation.KindSchemaInvalid, me.Kind)
			assert.Equal(t, "Missing Fields. Failed to Create Invoice.", me.Message)
			assert.Equal(t, []string{"Please enter an amount greater than $0."}, me.Fields["amount"])
			assert.Empty(t, w.headers)
			assert.Empty(t, c.paths)
		})
	}
}

func TestCreate_RepeatedItemNameUpsertsLastPrice(t *testing.T) {
	w, c := &fakeWriter{}, &fakeCache{}
	s := newTestService(w, c, nil)

	_, err := s.Create(context.Background(), form(
		"customerId", "c1",
		"status", "pending",
		"items", `[{"name":"A","quantity":1,"price":1.00},{"name":"B","quantity":1,"price":5},{"name":"A","quantity":1,"price":2.00}]`,
	))
	require.NoError(t, err)

	require.Len(t, w.items, 1)
	assert.Equal(t, []ItemPrice{{Name: "A", PriceCents: 200}, {Name: "B", PriceCents: 500}}, w.items[0])
	assert.Equal(t, int64(800), w.headers[0].AmountCents)
}

func TestCreate_AmountBeyondRangeFailsOnAmount(t *testing.T) {
	cases := map[string]string{
		"total":      `[{"name":"A","quantity":100000000000,"price":1000000000}]`,
		"unit price": `[{"name":"A","quantity":0,"price":1e30}]`,
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			w, c := &fakeWriter{}, &fakeCache{}
			s := newTestService(w, c, nil)

			_, err := s.Create(context.Background(), form("customerId", "c1", "status", "paid", "items", items))
			me, ok := mutation.AsError(err)
			require.True(t, ok)
			assert.Equal(t, mutation.KindSchemaInvalid, me.Kind)
			assert.Equal(t, []string{amountOutOfRange}, me.Fields["amount"])
			assert.Empty(t, w.headers)
			assert.Empty(t, c.paths)
		})
	}
}

func TestCreate_MissingCustomerAndStatus(t *testing.T) {
	s := newTestService(&fakeWriter{}, &fakeCache{}, nil)

	_, err := s.Create(context.Background(), form("status", "overdue", "items", `[{"name":"A","quantity":1,"price":1}]`))
	me, ok := mutation.AsError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Please select a customer."}, me.Fields["customerId"])
	assert.Equal(t, []string{"Please select an invoice status."}, me.Fields["status"])
	assert.NotContains(t, me.Fields, "amount")
}

func TestCreate_PersistenceFailure(t *testing.T) {
	w, c := &fakeWriter{err: errors.New("db down")}, &fakeCache{}
	s := newTestService(w, c, nil)

	_, err := s.Create(context.Background(), form("customerId", "c1", "status", "paid", "items", `[{"name":"A","quantity":1,"price":1}]`))
	me, ok := mutation.AsError(err)
	require.True(t, ok)
	assert.Equal(t, mutation.KindPersistence, me.Kind)
	assert.Equal(t, "Database Error: Failed to Create Invoice.", me.Message)
	assert.Nil(t, me.State().Errors)
	assert.Empty(t, c.paths)
}

func TestUpdate_CoercesDollarAmount(t *testing.T) {
	w, c := &fakeWriter{}, &fakeCache{}
	s := newTestService(w, c, nil)

	out, err := s.Update(context.Background(), "inv-9", form("customerId", "c2", "amount", "12.34", "status", "paid"))
	require.NoError(t, err)
	assert.Equal(t, PathInvoices, out.RedirectTo)
	require.Len(t, w.updated, 1)
	assert.Equal(t, UpdateInput{ID: "inv-9", CustomerID: "c2", AmountCents: 1234, Status: "paid"}, w.updated[0])
}

func TestUpdate_BadAmount(t *testing.T) {
	for _, amount := range []string{"", "abc", "0", "-3"} {
		w := &fakeWriter{}
		s := newTestService(w, &fakeCache{}, nil)
		_, err := s.Update(context.Background(), "inv-9", form("customerId", "c2", "amount", amount, "status", "paid"))
		me, ok := mutation.AsError(err)
		require.True(t, ok, "amount %q", amount)
		assert.Equal(t, "Missing Fields. Failed to Update Invoice.", me.Message)
		assert.Contains(t, me.Fields, "amount")
		assert.Empty(t, w.updated)
	}
}

func TestUpdate_AmountBeyondRange(t *testing.T) {
	w := &fakeWriter{}
	s := newTestService(w, &fakeCache{}, nil)

	_, err := s.Update(context.Background(), "inv-9", form("customerId", "c2", "amount", "1e20", "status", "paid"))
	me, ok := mutation.AsError(err)
	require.True(t, ok)
	assert.Equal(t, []string{amountOutOfRange}, me.Fields["amount"])
	assert.Empty(t, w.updated)
}

func TestDelete_InvalidatesWithoutRedirect(t *testing.T) {
	w, c := &fakeWriter{}, &fakeCache{}
	s := newTestService(w, c, nil)

	out, err := s.Delete(context.Background(), "inv-3")
	require.NoError(t, err)
	assert.Empty(t, out.RedirectTo)
	assert.Equal(t, []string{"inv-3"}, w.deleted)
	assert.Equal(t, []string{PathInvoices}, c.paths)
}

func TestDraft_RequiresCustomerAndNumber(t *testing.T) {
	d := &fakeDrafter{}
	s := newTestService(&fakeWriter{}, &fakeCache{}, d)

	_, err := s.Draft(context.Background(), form("customerId", "c1"))
	me, ok := mutation.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Missing customer or invoice number.", me.Message)
	assert.Empty(t, d.got.InvoiceNumber)
}

func TestDraft_SendsItems(t *testing.T) {
	d := &fakeDrafter{id: "INV2-1"}
	c := &fakeCache{}
	s := newTestService(&fakeWriter{}, c, d)

	out, err := s.Draft(context.Background(), form(
		"customerId", "c1",
		"invoiceNumber", "250106",
		"items", `[{"name":"A","quantity":3,"price":"4.5"}]`,
	))
	require.NoError(t, err)
	assert.Equal(t, "INV2-1", out.ID)
	assert.Empty(t, out.RedirectTo)
	assert.Empty(t, c.paths)

	assert.Equal(t, "250106", d.got.InvoiceNumber)
	assert.Equal(t, paypal.Recipient{Name: "Ann", Email: "ann@example.com"}, d.got.Recipient)
	require.Len(t, d.got.Items, 1)
	assert.Equal(t, "4.50", d.got.Items[0].UnitPrice.StringFixed(2))
}

func TestDraft_UpstreamMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{paypal.ErrNotConfigured, "PayPal is not configured."},
		{paypal.ErrTokenUnavailable, "PayPal is not configured."},
		{&paypal.APIError{Status: 422}, "Failed to create PayPal invoice."},
		{errors.New("connection reset"), "PayPal request failed."},
	}
	for _, tc := range cases {
		s := newTestService(&fakeWriter{}, &fakeCache{}, &fakeDrafter{err: tc.err})
		_, err := s.Draft(context.Background(), form("customerId", "c1", "invoiceNumber", "1"))
		me, ok := mutation.AsError(err)
		require.True(t, ok)
		assert.Equal(t, mutation.KindUpstream, me.Kind)
		assert.Equal(t, tc.want, me.Message)
	}
}
