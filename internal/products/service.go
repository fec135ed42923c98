package product

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lastbite-ai/lastbite-backend/internal/expiry"
	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
	"github.com/lastbite-ai/lastbite-backend/pkg/logger"
	"github.com/lastbite-ai/lastbite-backend/pkg/tabular"
	"golang.org/x/text/cases"
)

// Catalog exposes lookup and upsert over the products table.
type Catalog interface {
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)
	FindByName(ctx context.Context, name string) (*Product, error)
	FindByUID(ctx context.Context, uid string) (*Product, error)
	ProductExists(ctx context.Context, uid string) (bool, error)
	Upsert(ctx context.Context, input UpsertInput) (*UpsertResult, error)
	Categories(ctx context.Context) ([]string, error)
	Reload(ctx context.Context) error
	Ping(ctx context.Context) error
}

// UpsertInput describes a product to find or create.
type UpsertInput struct {
	Barcode  string
	Name     string
	Category string
	// ScanDate defaults to today.
	ScanDate dates.Date
}

// UpsertResult is the catalog entry and whether this call created it.
type UpsertResult struct {
	Product Product
	Created bool
}

type catalog struct {
	store  *tabular.Store[Product]
	logg   *logger.Logger
	clock  dates.Clock
	newUID func() string
}

// Option customizes a catalog.
type Option func(*catalog)

// WithClock overrides the source of today's date.
func WithClock(clock dates.Clock) Option {
	return func(c *catalog) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithUIDGenerator overrides identifier generation.
func WithUIDGenerator(fn func() string) Option {
	return func(c *catalog) {
		if fn != nil {
			c.newUID = fn
		}
	}
}

// NewCatalog wires a catalog over the products store.
func NewCatalog(store *tabular.Store[Product], logg *logger.Logger, opts ...Option) (Catalog, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "products store required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	c := &catalog{
		store:  store,
		logg:   logg,
		clock:  dates.Today,
		newUID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// FindByBarcode returns the product with the exact barcode, or nil.
func (c *catalog) FindByBarcode(ctx context.Context, barcode string) (*Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	p, ok, err := c.store.Find(ctx, byBarcode(barcode))
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

// FindByName returns the first product whose name matches case-insensitively, or nil.
func (c *catalog) FindByName(ctx context.Context, name string) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	p, ok, err := c.store.Find(ctx, byName(name))
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

// FindByUID returns the product with the identifier, or nil.
func (c *catalog) FindByUID(ctx context.Context, uid string) (*Product, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_uid is required")
	}
	p, ok, err := c.store.Find(ctx, func(p Product) bool { return p.UID == uid })
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

// ProductExists reports whether a product with the identifier is present.
func (c *catalog) ProductExists(ctx context.Context, uid string) (bool, error) {
	p, err := c.FindByUID(ctx, uid)
	if err != nil {
		return false, err
	}
	return p != nil, nil
}

// Upsert returns the existing product for a barcode, or for a name among barcode-less products when
// no barcode is given, and otherwise appends a new product with a generated identifier and a computed expiry. An existing
// product is returned unchanged.
func (c *catalog) Upsert(ctx context.Context, input UpsertInput) (*UpsertResult, error) {
	barcode := strings.TrimSpace(input.Barcode)
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = UnknownName
	}
	category := expiry.NormalizeCategory(input.Category)
	scanDate := input.ScanDate
	if scanDate.IsZero() {
		scanDate = c.clock()
	}

	match := byBarcode(barcode)
	if barcode == "" {
		match = withoutBarcode(byName(name))
	}

	var result UpsertResult
	err := c.store.Update(ctx, func(current []Product) ([]Product, bool, error) {
		for _, p := range current {
			if match(p) {
				result = UpsertResult{Product: p}
				return current, false, nil
			}
		}

		uid := c.newUID()
		p := Product{
			UID:         uid,
			ID:          uid,
			Barcode:     barcode,
			ItemName:    name,
			Category:    category,
			ScannedDate: scanDate,
			ExpiryDate:  expiry.ComputeExpiry(scanDate, category),
		}
		result = UpsertResult{Product: p, Created: true}
		return append(current, p), true, nil
	})
	if err != nil {
		return nil, err
	}

	if result.Created {
		ctx = c.logg.WithProductUID(ctx, result.Product.UID)
		c.logg.Info(ctx, "product.created")
	}
	return &result, nil
}

// Categories returns the sorted union of the categories used in the catalog and the shelf-life table.
func (c *catalog) Categories(ctx context.Context) ([]string, error) {
	all, err := c.store.All(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, cat := range expiry.Categories() {
		seen[cat] = struct{}{}
	}
	for _, p := range all {
		if cat := strings.TrimSpace(p.Category); cat != "" {
			seen[cat] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out, nil
}

func (c *catalog) Reload(ctx context.Context) error { return c.store.Reload(ctx) }

func (c *catalog) Ping(ctx context.Context) error { return c.store.Ping(ctx) }

func byBarcode(barcode string) func(Product) bool {
	return func(p Product) bool { return p.Barcode != "" && p.Barcode == barcode }
}

func withoutBarcode(match func(Product) bool) func(Product) bool {
	return func(p Product) bool { return p.Barcode == "" && match(p) }
}

func byName(name string) func(Product) bool {
	// A Caser is stateful; each matcher gets its own.
	fold := cases.Fold()
	want := fold.String(name)
	return func(p Product) bool {
		return fold.String(strings.TrimSpace(p.ItemName)) == want
	}
}
