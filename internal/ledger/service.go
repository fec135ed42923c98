package ledger

import (
	"context"
	"strings"

	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
	"github.com/lastbite-ai/lastbite-backend/pkg/logger"
	"github.com/lastbite-ai/lastbite-backend/pkg/tabular"
)

// Service defines operations over user/product links.
type Service interface {
	LinkExists(ctx context.Context, userUID, productUID string) (bool, error)
	ConfirmLink(ctx context.Context, input ConfirmLinkInput) (*ConfirmLinkResult, error)
	LinksForUser(ctx context.Context, userUID string) ([]Link, error)
	Dedupe(ctx context.Context) (int, error)
	Reload(ctx context.Context) error
	Ping(ctx context.Context) error
}

// UserLookup resolves user identifiers.
type UserLookup interface {
	Exists(ctx context.Context, uid string) (bool, error)
}

// ProductLookup resolves product identifiers.
type ProductLookup interface {
	ProductExists(ctx context.Context, uid string) (bool, error)
}

// ProductLookupFunc adapts a function to ProductLookup.
type ProductLookupFunc func(ctx context.Context, uid string) (bool, error)

func (f ProductLookupFunc) ProductExists(ctx context.Context, uid string) (bool, error) {
	return f(ctx, uid)
}

// ConfirmLinkInput captures the link a user confirms.
type ConfirmLinkInput struct {
	UserUID    string
	ProductUID string
	// ScanDate defaults to today.
	ScanDate dates.Date
	// Quantity defaults to DefaultQuantity when zero.
	Quantity int
}

// ConfirmLinkResult reports the stored link and whether this call appended it.
type ConfirmLinkResult struct {
	Link    Link
	Created bool
}

type service struct {
	store    *tabular.Store[Link]
	users    UserLookup
	products ProductLookup
	logg     *logger.Logger
	clock    dates.Clock
}

// NewService wires a ledger service with the links store and its referenced tables.
func NewService(store *tabular.Store[Link], users UserLookup, products ProductLookup, logg *logger.Logger, clock dates.Clock) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "links store required")
	}
	if users == nil || products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user and product lookups required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if clock == nil {
		clock = dates.Today
	}
	return &service{store: store, users: users, products: products, logg: logg, clock: clock}, nil
}

func (s *service) LinkExists(ctx context.Context, userUID, productUID string) (bool, error) {
	key := Key{UserUID: strings.TrimSpace(userUID), ProductUID: strings.TrimSpace(productUID)}
	if key.UserUID == "" || key.ProductUID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "user_uid and product_uid are required")
	}
	_, ok, err := s.store.Find(ctx, func(l Link) bool { return l.Key() == key })
	return ok, err
}

// ConfirmLink appends the link unless one already exists for the pair. Both sides must resolve;
// the NotFound details name which one did not.
func (s *service) ConfirmLink(ctx context.Context, input ConfirmLinkInput) (*ConfirmLinkResult, error) {
	link := Link{
		UserUID:    strings.TrimSpace(input.UserUID),
		ProductUID: strings.TrimSpace(input.ProductUID),
		ScanDate:   input.ScanDate,
		Quantity:   input.Quantity,
	}
	if link.UserUID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user_uid is required")
	}
	if link.ProductUID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_uid is required")
	}
	if link.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if link.Quantity == 0 {
		link.Quantity = DefaultQuantity
	}
	if link.ScanDate.IsZero() {
		link.ScanDate = s.clock()
	}

	ok, err := s.users.Exists(ctx, link.UserUID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found").
			WithDetails(map[string]any{"resource": "user", "user_uid": link.UserUID})
	}
	ok, err = s.products.ProductExists(ctx, link.ProductUID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"resource": "product", "product_uid": link.ProductUID})
	}

	result := ConfirmLinkResult{Link: link, Created: true}
	err = s.store.Update(ctx, func(current []Link) ([]Link, bool, error) {
		for _, existing := range current {
			if existing.Key() == link.Key() {
				result = ConfirmLinkResult{Link: existing}
				return current, false, nil
			}
		}
		return append(current, link), true, nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"user_uid": link.UserUID, "product_uid": link.ProductUID})
	if result.Created {
		s.logg.Info(ctx, "link.created")
	} else {
		s.logg.Debug(ctx, "link.unchanged")
	}
	return &result, nil
}

// LinksForUser returns the user's links in table order.
func (s *service) LinksForUser(ctx context.Context, userUID string) ([]Link, error) {
	userUID = strings.TrimSpace(userUID)
	if userUID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user_uid is required")
	}
	return s.store.Filter(ctx, func(l Link) bool { return l.UserUID == userUID })
}

// Dedupe rewrites the table keeping the first row per pair and returns the number removed.
func (s *service) Dedupe(ctx context.Context) (int, error) {
	removed := 0
	err := s.store.Update(ctx, func(current []Link) ([]Link, bool, error) {
		next, n := Dedupe(current)
		removed = n
		return next, n > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *service) Reload(ctx context.Context) error { return s.store.Reload(ctx) }

func (s *service) Ping(ctx context.Context) error { return s.store.Ping(ctx) }
