package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lastbite-ai/lastbite-backend/internal/expiry"
	product "github.com/lastbite-ai/lastbite-backend/internal/products"
	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
)

type stubFinder struct {
	products []product.Product
}

func (s stubFinder) FindByBarcode(_ context.Context, barcode string) (*product.Product, error) {
	for _, p := range s.products {
		if p.Barcode == barcode {
			return &p, nil
		}
	}
	return nil, nil
}

func (s stubFinder) FindByName(_ context.Context, name string) (*product.Product, error) {
	for _, p := range s.products {
		if strings.EqualFold(p.ItemName, name) {
			return &p, nil
		}
	}
	return nil, nil
}

var finder = stubFinder{products: []product.Product{{UID: "p-1", Barcode: "111", ItemName: "Milk", Category: "Dairy"}}}

func TestProductByBarcode(t *testing.T) {
	rec := httptest.NewRecorder()
	ProductByBarcode(finder, testLogger()).ServeHTTP(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/products/barcode/111", nil), "barcode", "111"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got product.Product
	decodeData(t, rec, &got)
	if got.UID != "p-1" {
		t.Fatalf("unexpected product %+v", got)
	}

	rec = httptest.NewRecorder()
	ProductByBarcode(finder, testLogger()).ServeHTTP(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/products/barcode/999", nil), "barcode", "999"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error.Details["barcode"] != "999" {
		t.Fatalf("expected barcode in details, got %v", env.Error.Details)
	}
}

func TestProductByName(t *testing.T) {
	rec := httptest.NewRecorder()
	ProductByName(finder, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products?name=mILK", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	ProductByName(finder, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without name, got %d", rec.Code)
	}
}

func TestCategories(t *testing.T) {
	rec := httptest.NewRecorder()
	Categories().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	var got categoriesResponse
	decodeData(t, rec, &got)
	if len(got.Categories) != len(expiry.Table()) || got.ShelfLifeDays["Dairy"] != 7 {
		t.Fatalf("unexpected categories %+v", got)
	}
}

func TestComputeExpiry(t *testing.T) {
	clock := dates.Fixed(dates.MustParse("2024-02-27"))

	rec := httptest.NewRecorder()
	ComputeExpiry(clock, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/expiry?category=Dairy", nil))
	var got expiryResponse
	decodeData(t, rec, &got)
	if got.ScanDate.String() != "2024-02-27" || got.ExpiryDate.String() != "2024-03-05" || got.ShelfLifeDays != 7 {
		t.Fatalf("unexpected expiry %+v", got)
	}

	rec = httptest.NewRecorder()
	ComputeExpiry(clock, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/expiry?category=Spaceship&date=2024-01-01", nil))
	decodeData(t, rec, &got)
	if got.ExpiryDate.String() != "2024-01-31" {
		t.Fatalf("unknown category should use the default, got %s", got.ExpiryDate)
	}

	rec = httptest.NewRecorder()
	ComputeExpiry(clock, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/expiry?category=Dairy&date=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad date, got %d", rec.Code)
	}
}
