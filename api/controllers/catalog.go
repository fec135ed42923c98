package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lastbite-ai/lastbite-backend/api/responses"
	"github.com/lastbite-ai/lastbite-backend/api/validators"
	"github.com/lastbite-ai/lastbite-backend/internal/expiry"
	product "github.com/lastbite-ai/lastbite-backend/internal/products"
	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
	"github.com/lastbite-ai/lastbite-backend/pkg/logger"
)

// ProductFinder looks catalog entries up.
type ProductFinder interface {
	FindByBarcode(ctx context.Context, barcode string) (*product.Product, error)
	FindByName(ctx context.Context, name string) (*product.Product, error)
}

// ProductByBarcode returns the catalog entry for the barcode in the path.
func ProductByBarcode(catalog ProductFinder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		barcode := validators.SanitizeString(chi.URLParam(r, "barcode"), 64)
		if barcode == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "barcode required"))
			return
		}
		p, err := catalog.FindByBarcode(r.Context(), barcode)
		writeProduct(r.Context(), logg, w, p, err, map[string]any{"barcode": barcode})
	}
}

// ProductByName returns the first catalog entry whose name matches ?name= ignoring case.
func ProductByName(catalog ProductFinder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := validators.RequiredQuery(r, "name", 256)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		p, err := catalog.FindByName(r.Context(), name)
		writeProduct(r.Context(), logg, w, p, err, map[string]any{"name": name})
	}
}

func writeProduct(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, p *product.Product, err error, query map[string]any) {
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	if p == nil {
		query["resource"] = "product"
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(query))
		return
	}
	responses.WriteSuccess(w, p)
}

type categoriesResponse struct {
	Categories    []string       `json:"categories"`
	ShelfLifeDays map[string]int `json:"shelf_life_days"`
	DefaultDays   int            `json:"default_days"`
}

// Categories lists the shelf-life table.
func Categories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, categoriesResponse{
			Categories:    expiry.Categories(),
			ShelfLifeDays: expiry.Table(),
			DefaultDays:   expiry.DefaultShelfLifeDays,
		})
	}
}

type expiryResponse struct {
	Category      string     `json:"category"`
	ScanDate      dates.Date `json:"scan_date"`
	ExpiryDate    dates.Date `json:"expiry_date"`
	ShelfLifeDays int        `json:"shelf_life_days"`
}

// ComputeExpiry answers ?category=&date= with the expiry the policy assigns; date defaults to today.
func ComputeExpiry(clock dates.Clock, logg *logger.Logger) http.HandlerFunc {
	if clock == nil {
		clock = dates.Today
	}
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := validators.RequiredQuery(r, "category", 64)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		scanDate, err := validators.ParseQueryDate(r, "date", clock())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, expiryResponse{
			Category:      category,
			ScanDate:      scanDate,
			ExpiryDate:    expiry.ComputeExpiry(scanDate, category),
			ShelfLifeDays: expiry.ShelfLifeDays(category),
		})
	}
}
