package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bizdash/internal/auth"
	"bizdash/internal/calls"
	"bizdash/internal/customers"
	"bizdash/internal/invoices"
	"bizdash/internal/mutation"
	"bizdash/internal/orders"
	"bizdash/internal/products"
	"bizdash/internal/users"
	"bizdash/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse input, call internal services, return JSON.
type Handlers struct {
	Auth          *auth.Manager
	CookieName    string
	SecureCookies bool
	Users         users.Finder

	Invoices  InvoiceReader
	Customers CustomerReader
	Products  ProductReader
	Orders    OrderReader
	Calls     calls.Reader

	InvoiceActions  InvoiceMutator
	ProductActions  ProductMutator
	CustomerActions NoteMutator

	// Cache may be nil; listings are then always rendered from the database.
	Cache ViewCache

	now func() time.Time
}

type InvoiceReader interface {
	ListFiltered(ctx context.Context, query string, page int) ([]invoices.TableRow, error)
	CountPages(ctx context.Context, query string) (int, error)
	ByID(ctx context.Context, id string) (invoices.EditForm, error)
	Latest(ctx context.Context) ([]invoices.LatestInvoice, error)
	Cards(ctx context.Context) (invoices.CardData, error)
	Items(ctx context.Context) ([]invoices.Item, error)
	NextNumber(ctx context.Context, now time.Time) (int, error)
}

type CustomerReader interface {
	All(ctx context.Context) ([]customers.Field, error)
	Filtered(ctx context.Context, query string) ([]customers.TableRow, error)
	ByID(ctx context.Context, id string) (customers.Field, error)
	Notes(ctx context.Context, customerID string) ([]customers.Note, error)
}

type ProductReader interface {
	ListFiltered(ctx context.Context, query string, page int) ([]products.TableRow, error)
	CountPages(ctx context.Context, query string) (int, error)
}

type OrderReader interface {
	ListFiltered(ctx context.Context, query string, page int) ([]orders.Order, error)
	CountPages(ctx context.Context, query string) (int, error)
}

type InvoiceMutator interface {
	Create(ctx context.Context, f mutation.Form) (mutation.Outcome, error)
	Update(ctx context.Context, id string, f mutation.Form) (mutation.Outcome, error)
	Delete(ctx context.Context, id string) (mutation.Outcome, error)
	Draft(ctx context.Context, f mutation.Form) (mutation.Outcome, error)
}

type ProductMutator interface {
	Create(ctx context.Context, f mutation.Form) (mutation.Outcome, error)
}

type NoteMutator interface {
	AddNote(ctx context.Context, f mutation.Form) (mutation.Outcome, error)
}

// ViewCache stores rendered listing bodies per (path, raw query).
type ViewCache interface {
	Get(ctx context.Context, path, query string) ([]byte, int64, bool, error)
	Set(ctx context.Context, path string, gen int64, query string, body []byte) error
}

const (
	headerCache     = "X-View-Cache"
	maxFormMemory   = 8 << 20
	contentTypeJSON = "application/json; charset=utf-8"
)

func (h Handlers) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

// listParams reads the shared ?query=&page= listing parameters.
func listParams(c *gin.Context) (string, int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	return c.Query("query"), page
}

// cachedView serves path from the view cache, rendering and storing it on a miss.
// Cache failures degrade to an uncached render.
func (h Handlers) cachedView(c *gin.Context, path string, render func(ctx context.Context) (any, error)) {
	ctx := c.Request.Context()
	log := logger.From(ctx)
	query := c.Request.URL.RawQuery

	// Only a successful lookup yields a generation safe to store under.
	var (
		gen      int64
		storable bool
	)
	if h.Cache != nil {
		body, g, ok, err := h.Cache.Get(ctx, path, query)
		if err != nil {
			log.Warn("view cache read failed", "path", path, "err", err)
		}
		gen, storable = g, err == nil
		if ok {
			c.Header(headerCache, "hit")
			c.Data(http.StatusOK, contentTypeJSON, body)
			return
		}
	}

	v, err := render(ctx)
	if err != nil {
		h.readFailed(c, err)
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		h.readFailed(c, err)
		return
	}

	if storable {
		if err := h.Cache.Set(ctx, path, gen, query, body); err != nil {
			log.Warn("view cache write failed", "path", path, "err", err)
		}
	}
	c.Header(headerCache, "miss")
	c.Data(http.StatusOK, contentTypeJSON, body)
}

func (h Handlers) readFailed(c *gin.Context, err error) {
	if errors.Is(err, invoices.ErrNotFound) || errors.Is(err, customers.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	logger.From(c.Request.Context()).Error("read failed", "err", err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database Error"})
}

// parseForm parses a urlencoded or multipart request body.
func parseForm(c *gin.Context) (url.Values, bool) {
	if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return nil, false
	}
	if c.Request.PostForm == nil {
		return url.Values{}, true
	}
	return c.Request.PostForm, true
}

func bindForm(c *gin.Context) (mutation.Form, bool) {
	v, ok := parseForm(c)
	if !ok {
		return mutation.Form{}, false
	}
	return mutation.NewForm(v), true
}

// respondMutation maps a mutation result to HTTP: 303 to the listing on
// success, otherwise the form state with a status per failure kind.
func respondMutation(c *gin.Context, out mutation.Outcome, err error) {
	if err == nil {
		if out.RedirectTo != "" {
			c.Redirect(http.StatusSeeOther, out.RedirectTo)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": out.ID})
		return
	}

	me, ok := mutation.AsError(err)
	if !ok {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch me.Kind {
	case mutation.KindSchemaInvalid:
		status = http.StatusUnprocessableEntity
	case mutation.KindUpstream:
		status = http.StatusBadGateway
	}
	c.AbortWithStatusJSON(status, me.State())
}
