package users

import (
	"context"
	"strings"

	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
	"github.com/lastbite-ai/lastbite-backend/pkg/tabular"
)

// Repository exposes read-only lookups over the users table. The table is maintained elsewhere.
type Repository struct {
	store *tabular.Store[User]
}

// NewRepository constructs a users repo bound to the provided store.
func NewRepository(store *tabular.Store[User]) *Repository {
	return &Repository{store: store}
}

// FindByUID returns the user with the identifier, or nil.
func (r *Repository) FindByUID(ctx context.Context, uid string) (*User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user_uid is required")
	}
	u, ok, err := r.store.Find(ctx, func(u User) bool { return u.UID == uid })
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

// Exists reports whether a user with the identifier is present.
func (r *Repository) Exists(ctx context.Context, uid string) (bool, error) {
	u, err := r.FindByUID(ctx, uid)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}

func (r *Repository) Reload(ctx context.Context) error { return r.store.Reload(ctx) }

func (r *Repository) Ping(ctx context.Context) error { return r.store.Ping(ctx) }
