package controllers

import (
	"context"
	"net/http"

	"github.com/lastbite-ai/lastbite-backend/api/responses"
	"github.com/lastbite-ai/lastbite-backend/api/validators"
	"github.com/lastbite-ai/lastbite-backend/internal/ledger"
	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
	"github.com/lastbite-ai/lastbite-backend/pkg/logger"
	"github.com/lastbite-ai/lastbite-backend/pkg/types"
)

// LinkConfirmer records that a user holds a product.
type LinkConfirmer interface {
	ConfirmLink(ctx context.Context, input ledger.ConfirmLinkInput) (*ledger.ConfirmLinkResult, error)
}

type confirmProductRequest struct {
	UserUID    string        `json:"user_uid" validate:"required,notblank,max=128"`
	ProductUID string        `json:"product_uid" validate:"required,notblank,max=128"`
	ScanDate   dates.Date    `json:"scan_date"`
	Quantity   quantityField `json:"quantity,omitempty"`
}

type confirmProductResponse struct {
	types.Status
	ledger.Link
}

// ConfirmProduct links an existing product to a user. A new link answers 201, an existing one 200.
func ConfirmProduct(svc LinkConfirmer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload confirmProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity, err := parseQuantity(payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithUserUID(ctx, payload.UserUID)
			ctx = logg.WithProductUID(ctx, payload.ProductUID)
		}
		result, err := svc.ConfirmLink(ctx, ledger.ConfirmLinkInput{
			UserUID:    payload.UserUID,
			ProductUID: payload.ProductUID,
			ScanDate:   payload.ScanDate,
			Quantity:   quantity,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if result.Created {
			responses.WriteCreated(w, confirmProductResponse{Status: types.Status{Status: types.StatusCreated}, Link: result.Link})
			return
		}
		responses.WriteSuccess(w, confirmProductResponse{Status: types.Status{Status: types.StatusUnchanged}, Link: result.Link})
	}
}
