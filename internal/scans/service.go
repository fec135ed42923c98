// Package scans runs the barcode scan and confirm flows over the catalog and the ledger.
package scans

import (
	"context"
	"strings"

	"github.com/lastbite-ai/lastbite-backend/internal/expiry"
	"github.com/lastbite-ai/lastbite-backend/internal/ledger"
	product "github.com/lastbite-ai/lastbite-backend/internal/products"
	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
	"github.com/lastbite-ai/lastbite-backend/pkg/logger"
	"github.com/lastbite-ai/lastbite-backend/pkg/openfoodfacts"
)

// BarcodeLookup resolves unknown barcodes against an external product database.
type BarcodeLookup interface {
	LookupBarcode(ctx context.Context, barcode string) (*openfoodfacts.ProductInfo, error)
}

// Linker confirms user/product links.
type Linker interface {
	ConfirmLink(ctx context.Context, input ledger.ConfirmLinkInput) (*ledger.ConfirmLinkResult, error)
}

// ScanResult describes a scanned barcode. Known products carry their stored fields; unknown ones
// carry a suggested name, the category choices and a suggested expiry.
type ScanResult struct {
	Barcode         string      `json:"barcode"`
	ProductUID      string      `json:"product_uid,omitempty"`
	ItemName        string      `json:"item_name"`
	Category        string      `json:"category,omitempty"`
	ExpiryDate      *dates.Date `json:"expiry_date,omitempty"`
	Categories      []string    `json:"categories,omitempty"`
	SuggestedExpiry *dates.Date `json:"suggested_expiry,omitempty"`
	ScanDate        dates.Date  `json:"scan_date"`
	AlreadyExists   bool        `json:"already_exists"`
}

// ConfirmInput is a user's confirmation of a scanned barcode.
type ConfirmInput struct {
	Barcode  string
	Category string
	UserUID  string
	ItemName string
	Quantity int
}

// ConfirmResult is the stored product and link.
type ConfirmResult struct {
	ProductUID     string     `json:"product_uid"`
	Barcode        string     `json:"barcode"`
	ItemName       string     `json:"item_name"`
	Category       string     `json:"category"`
	ExpiryDate     dates.Date `json:"expiry_date"`
	ScanDate       dates.Date `json:"scan_date"`
	Quantity       int        `json:"quantity"`
	ProductCreated bool       `json:"product_created"`
	LinkCreated    bool       `json:"link_created"`
}

// Service wires the scan flows.
type Service struct {
	catalog product.Catalog
	links   Linker
	lookup  BarcodeLookup
	logg    *logger.Logger
	clock   dates.Clock
}

// NewService builds the scan service. lookup may be nil, in which case unknown barcodes are named
// product.UnknownName.
func NewService(catalog product.Catalog, links Linker, lookup BarcodeLookup, logg *logger.Logger, clock dates.Clock) (*Service, error) {
	if catalog == nil || links == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog and ledger required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if clock == nil {
		clock = dates.Today
	}
	return &Service{catalog: catalog, links: links, lookup: lookup, logg: logg, clock: clock}, nil
}

// Scan reports what is known about barcode. It never writes.
func (s *Service) Scan(ctx context.Context, barcode string) (*ScanResult, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	today := s.clock()

	existing, err := s.catalog.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		exp := existing.ExpiryDate
		return &ScanResult{
			Barcode:       barcode,
			ProductUID:    existing.UID,
			ItemName:      existing.ItemName,
			Category:      existing.Category,
			ExpiryDate:    &exp,
			ScanDate:      today,
			AlreadyExists: true,
		}, nil
	}

	name := s.lookupName(ctx, barcode)
	categories, err := s.catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	suggestedCategory := expiry.FallbackCategory
	if len(categories) > 0 {
		suggestedCategory = categories[0]
	}
	suggested := expiry.ComputeExpiry(today, suggestedCategory)

	return &ScanResult{
		Barcode:         barcode,
		ItemName:        name,
		Categories:      categories,
		SuggestedExpiry: &suggested,
		ScanDate:        today,
	}, nil
}

func (s *Service) lookupName(ctx context.Context, barcode string) string {
	if s.lookup == nil {
		return product.UnknownName
	}
	info, err := s.lookup.LookupBarcode(ctx, barcode)
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"barcode": barcode, "error": err.Error()}), "scan.lookup_failed")
		return product.UnknownName
	}
	if info == nil || info.Name == "" {
		return product.UnknownName
	}
	return info.Name
}

// Confirm upserts the product for the barcode and links it to the user. When the product step
// succeeded but the link step failed the error carries step=link, the product uid and whether the
// product was created, so the partial write is visible to the caller.
func (s *Service) Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	barcode := strings.TrimSpace(input.Barcode)
	category := strings.TrimSpace(input.Category)
	userUID := strings.TrimSpace(input.UserUID)
	if barcode == "" || category == "" || userUID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode, category and user_uid are required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	today := s.clock()

	up, err := s.catalog.Upsert(ctx, product.UpsertInput{
		Barcode:  barcode,
		Name:     input.ItemName,
		Category: category,
		ScanDate: today,
	})
	if err != nil {
		return nil, err
	}

	link, err := s.links.ConfirmLink(ctx, ledger.ConfirmLinkInput{
		UserUID:    userUID,
		ProductUID: up.Product.UID,
		ScanDate:   today,
		Quantity:   input.Quantity,
	})
	if err != nil {
		return nil, partialFailure(err, up)
	}

	return &ConfirmResult{
		ProductUID:     up.Product.UID,
		Barcode:        up.Product.Barcode,
		ItemName:       up.Product.ItemName,
		Category:       up.Product.Category,
		ExpiryDate:     up.Product.ExpiryDate,
		ScanDate:       today,
		Quantity:       link.Link.Quantity,
		ProductCreated: up.Created,
		LinkCreated:    link.Created,
	}, nil
}

func partialFailure(err error, up *product.UpsertResult) error {
	details := map[string]any{
		"step":            "link",
		"product_uid":     up.Product.UID,
		"product_created": up.Created,
	}
	if typed := pkgerrors.As(err); typed != nil {
		if prev, ok := typed.Details().(map[string]any); ok {
			for k, v := range prev {
				if _, taken := details[k]; !taken {
					details[k] = v
				}
			}
		}
		return pkgerrors.Wrap(typed.Code(), err, typed.Message()).WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "link product to user").WithDetails(details)
}
