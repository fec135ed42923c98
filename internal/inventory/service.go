// Package inventory joins a user's links with the catalog.
package inventory

import (
	"context"
	"strings"

	"github.com/lastbite-ai/lastbite-backend/internal/expiry"
	"github.com/lastbite-ai/lastbite-backend/internal/ledger"
	product "github.com/lastbite-ai/lastbite-backend/internal/products"
	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
	"github.com/lastbite-ai/lastbite-backend/pkg/logger"
)

// Entry is a link joined with its product. It is derived per request and never stored.
type Entry struct {
	product.Product
	Quantity        int              `json:"quantity"`
	LinkScanDate    dates.Date       `json:"link_scan_date"`
	DaysUntilExpiry *int             `json:"days_until_expiry"`
	Freshness       expiry.Freshness `json:"freshness"`
}

// View is a user's inventory. Unresolved lists product uids referenced by links but missing from
// the catalog.
type View struct {
	UserUID    string   `json:"user_uid"`
	Entries    []Entry  `json:"inventory"`
	Unresolved []string `json:"unresolved"`
}

// LinkSource lists a user's links.
type LinkSource interface {
	LinksForUser(ctx context.Context, userUID string) ([]ledger.Link, error)
}

// ProductSource resolves product identifiers.
type ProductSource interface {
	FindByUID(ctx context.Context, uid string) (*product.Product, error)
}

// Service builds inventory views.
type Service struct {
	links    LinkSource
	products ProductSource
	logg     *logger.Logger
	clock    dates.Clock
}

// NewService wires the inventory view over the ledger and catalog.
func NewService(links LinkSource, products ProductSource, logg *logger.Logger, clock dates.Clock) (*Service, error) {
	if links == nil || products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "link and product sources required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if clock == nil {
		clock = dates.Today
	}
	return &Service{links: links, products: products, logg: logg, clock: clock}, nil
}

// GetInventory returns the user's links joined with their products in link order. Links whose
// product is missing are left out, logged and reported in Unresolved.
func (s *Service) GetInventory(ctx context.Context, userUID string) (*View, error) {
	userUID = strings.TrimSpace(userUID)
	links, err := s.links.LinksForUser(ctx, userUID)
	if err != nil {
		return nil, err
	}

	today := s.clock()
	view := &View{UserUID: userUID, Entries: make([]Entry, 0, len(links)), Unresolved: []string{}}
	for _, link := range links {
		p, err := s.products.FindByUID(ctx, link.ProductUID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			warnCtx := s.logg.WithFields(ctx, map[string]any{"user_uid": userUID, "product_uid": link.ProductUID})
			s.logg.Warn(warnCtx, "inventory.product_missing")
			view.Unresolved = append(view.Unresolved, link.ProductUID)
			continue
		}

		freshness, left := expiry.Assess(p.ExpiryDate, today)
		view.Entries = append(view.Entries, Entry{
			Product:         *p,
			Quantity:        link.Quantity,
			LinkScanDate:    link.ScanDate,
			DaysUntilExpiry: left,
			Freshness:       freshness,
		})
	}
	return view, nil
}
