package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"bizdash/internal/auth"
	"bizdash/internal/config"
	"bizdash/internal/customers"
	"bizdash/internal/invoices"
	"bizdash/internal/mutation"
	"bizdash/internal/users"
	"bizdash/internal/viewcache"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeInvoices struct {
	listCalls int
	rows      []invoices.TableRow
	onList    func()
}

func (f *fakeInvoices) ListFiltered(ctx context.Context, query string, page int) ([]invoices.TableRow, error) {
	f.listCalls++
	if f.onList != nil {
		f.onList()
	}
	return f.rows, nil
}
func (f *fakeInvoices) CountPages(ctx context.Context, query string) (int, error) { return 3, nil }
func (f *fakeInvoices) ByID(ctx context.Context, id string) (invoices.EditForm, error) {
	return invoices.EditForm{}, invoices.ErrNotFound
}
func (f *fakeInvoices) Latest(ctx context.Context) ([]invoices.LatestInvoice, error) {
	return []invoices.LatestInvoice{{ID: "i1", Amount: "$10.00"}}, nil
}
func (f *fakeInvoices) Cards(ctx context.Context) (invoices.CardData, error) {
	return invoices.CardData{NumberOfCustomers: 2, NumberOfInvoices: 4}, nil
}
func (f *fakeInvoices) Items(ctx context.Context) ([]invoices.Item, error) { return nil, nil }
func (f *fakeInvoices) NextNumber(ctx context.Context, now time.Time) (int, error) {
	return invoices.NextNumberFor(now, 0), nil
}

type fakeCustomers struct{}

func (fakeCustomers) All(ctx context.Context) ([]customers.Field, error) { return nil, nil }
func (fakeCustomers) Filtered(ctx context.Context, query string) ([]customers.TableRow, error) {
	return nil, errors.New("db down")
}
func (fakeCustomers) ByID(ctx context.Context, id string) (customers.Field, error) {
	return customers.Field{ID: id, Name: "Lee"}, nil
}
func (fakeCustomers) Notes(ctx context.Context, customerID string) ([]customers.Note, error) {
	return nil, nil
}

type fakeMutations struct {
	out  mutation.Outcome
	err  error
	form mutation.Form
}

func (f *fakeMutations) Create(ctx context.Context, form mutation.Form) (mutation.Outcome, error) {
	f.form = form
	return f.out, f.err
}
func (f *fakeMutations) Update(ctx context.Context, id string, form mutation.Form) (mutation.Outcome, error) {
	f.form = form
	return f.out, f.err
}
func (f *fakeMutations) Delete(ctx context.Context, id string) (mutation.Outcome, error) {
	return f.out, f.err
}
func (f *fakeMutations) Draft(ctx context.Context, form mutation.Form) (mutation.Outcome, error) {
	f.form = form
	return f.out, f.err
}
func (f *fakeMutations) AddNote(ctx context.Context, form mutation.Form) (mutation.Outcome, error) {
	f.form = form
	return f.out, f.err
}

func postForm(r http.Handler, path string, v url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestMutationOutcomeMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name     string
		out      mutation.Outcome
		err      error
		want     int
		location string
		body     string
	}{
		{"redirect", mutation.Outcome{ID: "i1", RedirectTo: invoices.PathInvoices}, nil, http.StatusSeeOther, invoices.PathInvoices, ""},
		{"stay", mutation.Outcome{ID: "i1"}, nil, http.StatusOK, "", `"id":"i1"`},
		{"schema", mutation.Outcome{}, mutation.Invalid("Missing Fields. Failed to Create Invoice.", mutation.FieldErrors{"customerId": {"Please select a customer."}}), http.StatusUnprocessableEntity, "", "Please select a customer."},
		{"persistence", mutation.Outcome{}, mutation.Persistence("Database Error: Failed to Create Invoice.", errors.New("x")), http.StatusInternalServerError, "", "Database Error: Failed to Create Invoice."},
		{"upstream", mutation.Outcome{}, mutation.Upstream("PayPal request failed.", errors.New("x")), http.StatusBadGateway, "", "PayPal request failed."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &fakeMutations{out: tc.out, err: tc.err}
			h := Handlers{InvoiceActions: m}
			r := gin.New()
			r.POST("/dashboard/invoices/create", h.CreateInvoice)

			w := postForm(r, "/dashboard/invoices/create", url.Values{"customerId": {"c1"}})
			require.Equal(t, tc.want, w.Code)
			if tc.location != "" {
				assert.Equal(t, tc.location, w.Header().Get("Location"))
			}
			if tc.body != "" {
				assert.Contains(t, w.Body.String(), tc.body)
			}
			assert.Equal(t, "c1", m.form.String("customerId"))
		})
	}
}

func TestAddCustomerNote_UsesPathCustomer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := &fakeMutations{out: mutation.Outcome{RedirectTo: customers.NotesPath("c9")}}
	h := Handlers{CustomerActions: m}
	r := gin.New()
	r.POST("/dashboard/customers/:id/notes", h.AddCustomerNote)

	w := postForm(r, "/dashboard/customers/c9/notes", url.Values{"customerId": {"other"}, "note": {"hi"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "c9", m.form.String("customerId"))
	assert.Equal(t, "hi", m.form.String("note"))
}

func TestListInvoices_ServedFromCacheUntilInvalidated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	cache := viewcache.New(rdb, time.Minute)

	inv := &fakeInvoices{rows: []invoices.TableRow{{ID: "i1", Name: "Lee"}}}
	h := Handlers{Invoices: inv, Cache: cache}
	r := gin.New()
	r.GET("/dashboard/invoices", h.ListInvoices)

	w := get(r, "/dashboard/invoices?query=lee&page=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "miss", w.Header().Get(headerCache))
	assert.Contains(t, w.Body.String(), `"totalPages":3`)

	w = get(r, "/dashboard/invoices?query=lee&page=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hit", w.Header().Get(headerCache))
	assert.Equal(t, 1, inv.listCalls)

	// a different query is a different view
	get(r, "/dashboard/invoices?query=other")
	assert.Equal(t, 2, inv.listCalls)

	require.NoError(t, cache.InvalidatePath(context.Background(), invoices.PathInvoices))
	w = get(r, "/dashboard/invoices?query=lee&page=1")
	assert.Equal(t, "miss", w.Header().Get(headerCache))
	assert.Equal(t, 3, inv.listCalls)
}

func TestListInvoices_RenderRacingMutationIsNotCached(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	cache := viewcache.New(rdb, time.Minute)

	inv := &fakeInvoices{rows: []invoices.TableRow{{ID: "i1", Name: "Lee"}}}
	inv.onList = func() {
		// a write commits while the first listing is still rendering
		inv.onList = nil
		require.NoError(t, cache.InvalidatePath(context.Background(), invoices.PathInvoices))
	}
	h := Handlers{Invoices: inv, Cache: cache}
	r := gin.New()
	r.GET("/dashboard/invoices", h.ListInvoices)

	w := get(r, "/dashboard/invoices")
	assert.Equal(t, "miss", w.Header().Get(headerCache))

	w = get(r, "/dashboard/invoices")
	assert.Equal(t, "miss", w.Header().Get(headerCache))
	assert.Equal(t, 2, inv.listCalls)

	w = get(r, "/dashboard/invoices")
	assert.Equal(t, "hit", w.Header().Get(headerCache))
	assert.Equal(t, 2, inv.listCalls)
}

func TestReads_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := Handlers{Invoices: &fakeInvoices{}, Customers: fakeCustomers{}, now: func() time.Time {
		return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	}}
	r := gin.New()
	r.GET("/dashboard", h.Overview)
	r.GET("/dashboard/invoices/:id/edit", h.EditInvoiceForm)
	r.GET("/dashboard/invoices/create", h.NewInvoiceForm)
	r.GET("/dashboard/customers", h.ListCustomers)
	r.GET("/dashboard/customers/:id/notes", h.CustomerNotes)

	w := get(r, "/dashboard")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"numberOfInvoices":4`)
	assert.Contains(t, w.Body.String(), `"latestInvoices"`)

	assert.Equal(t, http.StatusNotFound, get(r, "/dashboard/invoices/x/edit").Code)
	assert.Equal(t, http.StatusInternalServerError, get(r, "/dashboard/customers").Code)

	w = get(r, "/dashboard/invoices/create")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"invoiceNumber":250100`)

	w = get(r, "/dashboard/customers/c1/notes")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Lee"`)
}

type fakeUsers map[string]users.User

func (f fakeUsers) ByEmail(ctx context.Context, email string) (users.User, error) {
	u, ok := f[email]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func TestLoginAndLogout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am, err := auth.NewManager(config.AuthConfig{JWTSecret: "secret", SessionTTL: time.Hour})
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.MinCost)
	require.NoError(t, err)

	h := Handlers{
		Auth:       am,
		CookieName: "sess",
		Users: fakeUsers{"user@nextmail.com": {
			ID: "u1", Email: "user@nextmail.com", PasswordHash: string(hash), Role: "admin",
		}},
	}
	r := gin.New()
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	w := postForm(r, "/login", url.Values{"email": {"user@nextmail.com"}, "password": {"nope"}})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials.")

	w = postForm(r, "/login", url.Values{"email": {"user@nextmail.com"}, "password": {"123456"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, dashboardPath, w.Header().Get("Location"))

	var session *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "sess" {
			session = ck
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	claims, err := am.Verify(session.Value, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(session)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	assert.Equal(t, http.StatusOK, get(r, "/login").Code)

	w = postForm(r, "/logout", url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, auth.LoginPath, w.Header().Get("Location"))
	assert.Contains(t, w.Header().Get("Set-Cookie"), "sess=;")
}
