package products

// PerPage is the product table page size.
const PerPage = 6

// PathProducts is the canonical product listing.
const PathProducts = "/dashboard/products"

// TableRow is one row of the product listing. PriceCents is nil when unpriced.
type TableRow struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Brand      string `json:"brand"`
	SKU        string `json:"sku"`
	PriceCents *int64 `json:"price"`
}

// AltImage is an optional extra product image.
type AltImage struct {
	URL *string
	Alt *string
}
