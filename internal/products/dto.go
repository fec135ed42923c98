package product

import (
	"fmt"

	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
	"github.com/lastbite-ai/lastbite-backend/pkg/tabular"
)

// TableName identifies the products table in errors, logs and metrics.
const TableName = "products"

// UnknownName is stored for products created without a usable name.
const UnknownName = "Unknown product"

// Product is one catalog entry.
type Product struct {
	UID         string     `json:"product_uid"`
	ID          string     `json:"product_id"`
	Barcode     string     `json:"barcode"`
	ItemName    string     `json:"item_name"`
	Category    string     `json:"category"`
	ScannedDate dates.Date `json:"scanned_date"`
	ExpiryDate  dates.Date `json:"expiry_date"`
}

var columns = []string{"product_uid", "product_id", "barcode", "item_name", "category", "scanned_date", "expiry_date"}

// Codec maps Product records to the products table.
type Codec struct{}

func (Codec) Columns() []string { return columns }

func (Codec) Required() []string {
	return []string{"product_uid", "barcode", "item_name", "category"}
}

func (Codec) Decode(r tabular.Row) (Product, error) {
	p := Product{
		UID:      r.Get("product_uid"),
		ID:       r.Get("product_id"),
		Barcode:  r.Get("barcode"),
		ItemName: r.Get("item_name"),
		Category: r.Get("category"),
	}
	if p.UID == "" {
		return Product{}, fmt.Errorf("product_uid is empty")
	}
	if p.ID == "" {
		p.ID = p.UID
	}

	var err error
	if p.ScannedDate, err = dates.ParseOptional(r.Get("scanned_date")); err != nil {
		return Product{}, fmt.Errorf("scanned_date: %w", err)
	}
	if p.ExpiryDate, err = dates.ParseOptional(r.Get("expiry_date")); err != nil {
		return Product{}, fmt.Errorf("expiry_date: %w", err)
	}
	return p, nil
}

func (Codec) Encode(p Product) []string {
	return []string{p.UID, p.ID, p.Barcode, p.ItemName, p.Category, p.ScannedDate.String(), p.ExpiryDate.String()}
}

// NewStore builds the cached products table over backend.
func NewStore(backend tabular.Backend, opts ...tabular.Option) *tabular.Store[Product] {
	return tabular.NewStore[Product](TableName, backend, Codec{}, opts...)
}
