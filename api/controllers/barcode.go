package controllers

import (
	"context"
	"net/http"

	"github.com/lastbite-ai/lastbite-backend/api/responses"
	"github.com/lastbite-ai/lastbite-backend/api/validators"
	"github.com/lastbite-ai/lastbite-backend/internal/scans"
	"github.com/lastbite-ai/lastbite-backend/pkg/logger"
)

// BarcodeService runs the scan and confirm flows.
type BarcodeService interface {
	Scan(ctx context.Context, barcode string) (*scans.ScanResult, error)
	Confirm(ctx context.Context, input scans.ConfirmInput) (*scans.ConfirmResult, error)
}

type scanRequest struct {
	Barcode string `json:"barcode" validate:"required,notblank,max=64"`
}

type confirmBarcodeRequest struct {
	Barcode  string        `json:"barcode" validate:"required,notblank,max=64"`
	Category string        `json:"category" validate:"required,notblank,max=64"`
	UserUID  string        `json:"user_uid" validate:"required,notblank,max=128"`
	ItemName string        `json:"item_name" validate:"max=256"`
	Quantity quantityField `json:"quantity,omitempty"`
}

// BarcodeScan reports what the catalog knows about a barcode without writing anything.
func BarcodeScan(svc BarcodeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload scanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Scan(r.Context(), payload.Barcode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// BarcodeConfirm stores the scanned product and links it to the user.
func BarcodeConfirm(svc BarcodeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload confirmBarcodeRequest
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
		}
		result, err := svc.Confirm(ctx, scans.ConfirmInput{
			Barcode:  payload.Barcode,
			Category: payload.Category,
			UserUID:  payload.UserUID,
			ItemName: validators.SanitizeString(payload.ItemName, 256),
			Quantity: quantity,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCreated(w, result)
	}
}
