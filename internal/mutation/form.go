package mutation

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Form is untrusted browser-submitted input. It distinguishes an absent field
// from one submitted empty.
type Form struct {
	values url.Values
}

func NewForm(v url.Values) Form {
	if v == nil {
		v = url.Values{}
	}
	return Form{values: v}
}

// Lookup returns the first submitted value of key.
func (f Form) Lookup(key string) (string, bool) {
	vs, ok := f.values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// String returns the value of key, or "" when absent.
func (f Form) String(key string) string {
	v, _ := f.Lookup(key)
	return v
}

// Optional returns nil for an absent or empty field.
func (f Form) Optional(key string) *string {
	v, ok := f.Lookup(key)
	if !ok || v == "" {
		return nil
	}
	return &v
}

// Bool coerces a checkbox-style field: absent or empty is false, a value
// strconv understands is taken literally, any other non-empty value is true.
func (f Form) Bool(key string) bool {
	v, ok := f.Lookup(key)
	if !ok || v == "" {
		return false
	}
	if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
		return b
	}
	return true
}

// Decimal coerces a numeric field. ok is false when the field is absent or
// blank; err is set when it is present but not a number.
func (f Form) Decimal(key string) (d decimal.Decimal, ok bool, err error) {
	v, present := f.Lookup(key)
	v = strings.TrimSpace(v)
	if !present || v == "" {
		return decimal.Zero, false, nil
	}
	d, err = decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false, err
	}
	return d, true, nil
}

// LineItem is one invoice line as submitted by the invoice form.
type LineItem struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// LineItems decodes the JSON array carried in key. A missing or malformed
// value yields no items; the derived amount then fails validation instead.
func (f Form) LineItems(key string) []LineItem {
	raw, ok := f.Lookup(key)
	if !ok {
		return nil
	}
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	return items
}
