package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lastbite-ai/lastbite-backend/api/responses"
	"github.com/lastbite-ai/lastbite-backend/api/validators"
	"github.com/lastbite-ai/lastbite-backend/internal/inventory"
	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
	"github.com/lastbite-ai/lastbite-backend/pkg/logger"
)

// InventoryReader builds a user's inventory view.
type InventoryReader interface {
	GetInventory(ctx context.Context, userUID string) (*inventory.View, error)
}

// UserInventory returns the products linked to the user in the path.
func UserInventory(svc InventoryReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userUID := validators.SanitizeString(chi.URLParam(r, "userUid"), 128)
		if userUID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user uid required"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithUserUID(ctx, userUID)
		}
		view, err := svc.GetInventory(ctx, userUID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
