package products

import (
	"context"
	"fmt"

	"bizdash/internal/money"
	"bizdash/internal/mutation"
)

// Inserter stores a new product.
type Inserter interface {
	Insert(ctx context.Context, in CreateInput) (string, error)
}

type Service struct {
	store  Inserter
	cache  mutation.Invalidator
	schema *mutation.Schema
}

func NewService(store Inserter, cache mutation.Invalidator) *Service {
	return &Service{
		store: store,
		cache: cache,
		schema: mutation.NewSchema(map[string]string{
			"name":        "Please enter a product name.",
			"brand":       "Please enter a brand.",
			"description": "Please enter a description.",
			"producturl":  "Please enter a slug.",
			"sku":         "Please enter a SKU.",
			"imageurl":    "Please enter an image URL.",
			"imagealt":    "Please enter image alt text.",
		}),
	}
}

// CreateInput is a validated new product. Money fields are cents; nil when not given.
type CreateInput struct {
	Name        string `form:"name" validate:"required"`
	Brand       string `form:"brand" validate:"required"`
	Description string `form:"description" validate:"required"`
	Slug        string `form:"producturl" validate:"required"`
	SKU         string `form:"sku" validate:"required"`
	ImageURL    string `form:"imageurl" validate:"required"`
	ImageAlt    string `form:"imagealt" validate:"required"`

	AltImages [4]AltImage `form:"-"`

	MSRPCents    *int64  `form:"msrp"`
	PriceCents   *int64  `form:"price"`
	Availability *string `form:"availability"`

	Featured bool `form:"featured"`
	Active   bool `form:"active"`
	OnSale   bool `form:"onsale"`
}

func (s *Service) decode(f mutation.Form) (CreateInput, mutation.FieldErrors) {
	in := CreateInput{
		Name:         f.String("name"),
		Brand:        f.String("brand"),
		Description:  f.String("description"),
		Slug:         f.String("producturl"),
		SKU:          f.String("sku"),
		ImageURL:     f.String("imageurl"),
		ImageAlt:     f.String("imagealt"),
		Availability: f.Optional("availability"),
		Featured:     f.Bool("featured"),
		Active:       f.Bool("active"),
		OnSale:       f.Bool("onsale"),
	}
	for i := range in.AltImages {
		n := i + 1
		in.AltImages[i] = AltImage{
			URL: f.Optional(fmt.Sprintf("alt%dimageurl", n)),
			Alt: f.Optional(fmt.Sprintf("alt%dimagealt", n)),
		}
	}

	fe := s.schema.Check(in)
	if fe == nil {
		fe = mutation.FieldErrors{}
	}
	var err error
	if in.MSRPCents, err = optionalCents(f, "msrp"); err != nil {
		fe.Add("msrp", "Please enter a valid MSRP.")
	}
	if in.PriceCents, err = optionalCents(f, "price"); err != nil {
		fe.Add("price", "Please enter a valid price.")
	}
	return in, fe
}

func optionalCents(f mutation.Form, key string) (*int64, error) {
	d, ok, err := f.Decimal(key)
	if err != nil || !ok {
		return nil, err
	}
	c, err := money.ToCents(d)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create validates the product form and inserts the product.
func (s *Service) Create(ctx context.Context, f mutation.Form) (mutation.Outcome, error) {
	return mutation.Run(ctx, s.cache, mutation.Action[CreateInput]{
		Name:           "create_product",
		InvalidMessage: "Missing Fields. Failed to Create Product.",
		PersistMessage: "Database Error: Failed to Create Product.",
		Decode:         s.decode,
		Persist:        s.store.Insert,
		Revalidate:     func(CreateInput) []string { return []string{PathProducts} },
		RedirectTo:     func(CreateInput) string { return PathProducts },
	}, f)
}
