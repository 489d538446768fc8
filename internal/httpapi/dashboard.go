package httpapi

import (
	"context"
	"net/http"

	"bizdash/internal/calls"
	"bizdash/internal/customers"
	"bizdash/internal/invoices"
	"bizdash/internal/mutation"
	"bizdash/internal/orders"
	"bizdash/internal/products"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// --- Overview ---

func (h Handlers) Overview(c *gin.Context) {
	var (
		cards  invoices.CardData
		latest []invoices.LatestInvoice
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		cards, err = h.Invoices.Cards(ctx)
		return err
	})
	g.Go(func() (err error) {
		latest, err = h.Invoices.Latest(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.readFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards, "latestInvoices": latest})
}

// --- Invoices ---

func (h Handlers) ListInvoices(c *gin.Context) {
	query, page := listParams(c)
	h.cachedView(c, invoices.PathInvoices, func(ctx context.Context) (any, error) {
		rows, err := h.Invoices.ListFiltered(ctx, query, page)
		if err != nil {
			return nil, err
		}
		total, err := h.Invoices.CountPages(ctx, query)
		if err != nil {
			return nil, err
		}
		return gin.H{"invoices": rows, "page": page, "totalPages": total}, nil
	})
}

// NewInvoiceForm returns what the create page needs: customers, known items
// and the suggested invoice number.
func (h Handlers) NewInvoiceForm(c *gin.Context) {
	var (
		fields []customers.Field
		items  []invoices.Item
		next   int
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		fields, err = h.Customers.All(ctx)
		return err
	})
	g.Go(func() (err error) {
		items, err = h.Invoices.Items(ctx)
		return err
	})
	g.Go(func() (err error) {
		next, err = h.Invoices.NextNumber(ctx, h.clock())
		return err
	})
	if err := g.Wait(); err != nil {
		h.readFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": fields, "items": items, "invoiceNumber": next})
}

func (h Handlers) EditInvoiceForm(c *gin.Context) {
	ctx := c.Request.Context()
	inv, err := h.Invoices.ByID(ctx, c.Param("id"))
	if err != nil {
		h.readFailed(c, err)
		return
	}
	fields, err := h.Customers.All(ctx)
	if err != nil {
		h.readFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": inv, "customers": fields})
}

func (h Handlers) CreateInvoice(c *gin.Context) {
	f, ok := bindForm(c)
	if !ok {
		return
	}
	out, err := h.InvoiceActions.Create(c.Request.Context(), f)
	respondMutation(c, out, err)
}

func (h Handlers) UpdateInvoice(c *gin.Context) {
	f, ok := bindForm(c)
	if !ok {
		return
	}
	out, err := h.InvoiceActions.Update(c.Request.Context(), c.Param("id"), f)
	respondMutation(c, out, err)
}

func (h Handlers) DeleteInvoice(c *gin.Context) {
	out, err := h.InvoiceActions.Delete(c.Request.Context(), c.Param("id"))
	respondMutation(c, out, err)
}

func (h Handlers) DraftInvoice(c *gin.Context) {
	f, ok := bindForm(c)
	if !ok {
		return
	}
	out, err := h.InvoiceActions.Draft(c.Request.Context(), f)
	respondMutation(c, out, err)
}

// --- Customers ---

func (h Handlers) ListCustomers(c *gin.Context) {
	rows, err := h.Customers.Filtered(c.Request.Context(), c.Query("query"))
	if err != nil {
		h.readFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": rows})
}

func (h Handlers) CustomerNotes(c *gin.Context) {
	id := c.Param("id")
	h.cachedView(c, customers.NotesPath(id), func(ctx context.Context) (any, error) {
		cust, err := h.Customers.ByID(ctx, id)
		if err != nil {
			return nil, err
		}
		notes, err := h.Customers.Notes(ctx, id)
		if err != nil {
			return nil, err
		}
		return gin.H{"customer": cust, "notes": notes}, nil
	})
}

// AddCustomerNote takes the customer from the path, overriding any form value.
func (h Handlers) AddCustomerNote(c *gin.Context) {
	v, ok := parseForm(c)
	if !ok {
		return
	}
	v.Set("customerId", c.Param("id"))
	out, err := h.CustomerActions.AddNote(c.Request.Context(), mutation.NewForm(v))
	respondMutation(c, out, err)
}

// --- Products ---

func (h Handlers) ListProducts(c *gin.Context) {
	query, page := listParams(c)
	h.cachedView(c, products.PathProducts, func(ctx context.Context) (any, error) {
		rows, err := h.Products.ListFiltered(ctx, query, page)
		if err != nil {
			return nil, err
		}
		total, err := h.Products.CountPages(ctx, query)
		if err != nil {
			return nil, err
		}
		return gin.H{"products": rows, "page": page, "totalPages": total}, nil
	})
}

func (h Handlers) CreateProduct(c *gin.Context) {
	f, ok := bindForm(c)
	if !ok {
		return
	}
	out, err := h.ProductActions.Create(c.Request.Context(), f)
	respondMutation(c, out, err)
}

// --- Admin ---

func (h Handlers) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()
	query, page := listParams(c)
	rows, err := h.Orders.ListFiltered(ctx, query, page)
	if err != nil {
		h.readFailed(c, err)
		return
	}
	total, err := h.Orders.CountPages(ctx, query)
	if err != nil {
		h.readFailed(c, err)
		return
	}
	if rows == nil {
		rows = []orders.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": rows, "page": page, "totalPages": total})
}

// ListCallerID is the caller-id log built from ingested webhooks.
func (h Handlers) ListCallerID(c *gin.Context) {
	ctx := c.Request.Context()
	query, page := listParams(c)
	rows, err := h.Calls.ListFiltered(ctx, query, page)
	if err != nil {
		h.readFailed(c, err)
		return
	}
	total, err := h.Calls.CountPages(ctx, query)
	if err != nil {
		h.readFailed(c, err)
		return
	}
	if rows == nil {
		rows = []calls.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"calls": rows, "page": page, "totalPages": total})
}
