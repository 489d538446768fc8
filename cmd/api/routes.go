package main

import (
	"database/sql"
	"net/http"

	"bizdash/internal/auth"
	"bizdash/internal/calls"
	"bizdash/internal/config"
	"bizdash/internal/customers"
	"bizdash/internal/httpapi"
	"bizdash/internal/invoices"
	"bizdash/internal/metrics"
	"bizdash/internal/orders"
	"bizdash/internal/paypal"
	"bizdash/internal/products"
	"bizdash/internal/ratelimit"
	"bizdash/internal/rbac"
	"bizdash/internal/telephony"
	"bizdash/internal/users"
	"bizdash/internal/viewcache"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// deps are the constructed handlers the route table needs.
type deps struct {
	auth       *auth.Manager
	cookieName string
	rdb        *redis.Client

	loginPolicy ratelimit.Policy
	tokenPolicy ratelimit.Policy

	api     httpapi.Handlers
	capture telephony.CaptureHandler
	token   telephony.TokenHandler
}

func newDeps(cfg config.Config, am *auth.Manager, db *sql.DB, rdb *redis.Client) deps {
	cache := viewcache.New(rdb, cfg.Redis.ViewCacheTTL)

	invoiceStore := invoices.NewStore(db)
	customerStore := customers.NewStore(db)
	productStore := products.NewStore(db)
	callRepo := calls.NewPostgresRepo(db)

	return deps{
		auth:       am,
		cookieName: cfg.Auth.CookieName,
		rdb:        rdb,
		loginPolicy: ratelimit.Policy{
			Name: "login", Limit: cfg.Auth.LoginRateLimit, Window: cfg.Auth.LoginRateWindow,
		},
		tokenPolicy: ratelimit.Policy{
			Name: "token-service", Limit: cfg.Auth.LoginRateLimit, Window: cfg.Auth.LoginRateWindow,
		},
		api: httpapi.Handlers{
			Auth:          am,
			CookieName:    cfg.Auth.CookieName,
			SecureCookies: cfg.IsProduction(),
			Users:         users.NewRepo(db),

			Invoices:  invoiceStore,
			Customers: customerStore,
			Products:  productStore,
			Orders:    orders.NewStore(db),
			Calls:     callRepo,

			InvoiceActions:  invoices.NewService(invoiceStore, cache, customerStore, paypal.NewClient(cfg.PayPal)),
			ProductActions:  products.NewService(productStore, cache),
			CustomerActions: customers.NewService(customerStore, cache),

			Cache: cache,
		},
		capture: telephony.CaptureHandler{Ingestor: telephony.NewIngestor(cfg.Twilio, callRepo)},
		token: telephony.TokenHandler{
			Issuer: telephony.NewTokenIssuer(cfg.Twilio),
			Users:  cfg.Twilio.TokenUsers,
		},
	}
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d deps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	// Provider webhooks (public, signature verified by the ingestor).
	r.POST("/api/twilio-capture", d.capture.Handle)

	tokens := r.Group("/api/twilio/token-service")
	tokens.Use(telephony.CORS())
	{
		tokens.OPTIONS("", d.token.Options)
		tokens.GET("", ratelimit.PerClientIP(d.rdb, d.tokenPolicy), d.token.Get)
		tokens.POST("", ratelimit.PerClientIP(d.rdb, d.tokenPolicy), d.token.Post)
	}

	// session
	r.GET("/login", d.api.LoginPage)
	r.POST("/login", ratelimit.PerClientIP(d.rdb, d.loginPolicy), d.api.Login)
	r.POST("/logout", d.api.Logout)

	dash := r.Group("/dashboard")
	dash.Use(auth.RequireSession(d.auth, d.cookieName))
	{
		dash.GET("", d.api.Overview)

		dash.GET("/invoices", d.api.ListInvoices)
		dash.GET("/invoices/create", d.api.NewInvoiceForm)
		dash.POST("/invoices/create", d.api.CreateInvoice)
		dash.POST("/invoices/draft", d.api.DraftInvoice)
		dash.GET("/invoices/:id/edit", d.api.EditInvoiceForm)
		dash.POST("/invoices/:id/edit", d.api.UpdateInvoice)
		dash.POST("/invoices/:id/delete", d.api.DeleteInvoice)

		dash.GET("/customers", d.api.ListCustomers)
		dash.GET("/customers/:id/notes", d.api.CustomerNotes)
		dash.POST("/customers/:id/notes", d.api.AddCustomerNote)

		dash.GET("/products", d.api.ListProducts)
		dash.POST("/products/create", d.api.CreateProduct)

		// ADMIN routes
		admin := dash.Group("")
		admin.Use(rbac.RequireAdmin())
		{
			admin.GET("/orders", d.api.ListOrders)
			admin.GET("/callerid", d.api.ListCallerID)
		}
	}
}
