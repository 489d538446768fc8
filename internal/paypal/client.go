// Package paypal drafts invoices through the PayPal Invoicing v2 API.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bizdash/internal/config"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	ErrNotConfigured = errors.New("paypal: not configured")
	// ErrTokenUnavailable means the OAuth token exchange failed.
	ErrTokenUnavailable = errors.New("paypal: access token unavailable")
)

const currencyUSD = "USD"

// APIError is a non-2xx answer from the invoicing endpoint.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal: invoicing returned %d", e.Status)
}

type Recipient struct {
	Email string
	Name  string
}

type Item struct {
	Name      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

type Draft struct {
	InvoiceNumber string
	Recipient     Recipient
	Items         []Item
}

type Client struct {
	base string
	ts   oauth2.TokenSource
	http *http.Client
}

// NewClient prefers a static access token and falls back to the client
// credentials grant. Without a base URL or any credentials every call returns
// ErrNotConfigured.
func NewClient(cfg config.PayPalConfig) *Client {
	base := strings.TrimRight(cfg.APIBase, "/")
	c := &Client{base: base}
	if base == "" {
		return c
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: 10 * time.Second})
	switch {
	case cfg.AccessToken != "":
		c.ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
	case cfg.ClientID != "" && cfg.ClientSecret != "":
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     base + "/v1/oauth2/token",
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		c.ts = cc.TokenSource(ctx)
	default:
		return c
	}
	c.http = oauth2.NewClient(ctx, c.ts)
	c.http.Timeout = 15 * time.Second
	return c
}

func (c *Client) Configured() bool { return c.ts != nil }

type money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type invoiceItem struct {
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	UnitAmount money  `json:"unit_amount"`
}

type invoiceRequest struct {
	Detail struct {
		InvoiceNumber string `json:"invoice_number"`
		CurrencyCode  string `json:"currency_code"`
	} `json:"detail"`
	PrimaryRecipients []recipient   `json:"primary_recipients"`
	Items             []invoiceItem `json:"items"`
}

type recipient struct {
	BillingInfo struct {
		EmailAddress string `json:"email_address,omitempty"`
		Name         struct {
			GivenName string `json:"given_name,omitempty"`
		} `json:"name"`
	} `json:"billing_info"`
}

func buildRequest(d Draft) invoiceRequest {
	var req invoiceRequest
	req.Detail.InvoiceNumber = d.InvoiceNumber
	req.Detail.CurrencyCode = currencyUSD

	var r recipient
	r.BillingInfo.EmailAddress = d.Recipient.Email
	r.BillingInfo.Name.GivenName = d.Recipient.Name
	req.PrimaryRecipients = []recipient{r}

	req.Items = make([]invoiceItem, 0, len(d.Items))
	for _, it := range d.Items {
		req.Items = append(req.Items, invoiceItem{
			Name:       it.Name,
			Quantity:   it.Quantity.String(),
			UnitAmount: money{CurrencyCode: currencyUSD, Value: it.UnitPrice.StringFixed(2)},
		})
	}
	return req
}

// CreateDraftInvoice posts d and returns the provider's invoice id.
func (c *Client) CreateDraftInvoice(ctx context.Context, d Draft) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	// Any failure to obtain a token, including an unreachable token
	// endpoint, means the integration is unusable rather than the request.
	if _, err := c.ts.Token(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
	}

	payload, err := json.Marshal(buildRequest(d))
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v2/invoicing/invoices", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal: create invoice: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("paypal: decode invoice: %w", err)
	}
	return out.ID, nil
}
