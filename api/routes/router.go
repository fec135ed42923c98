package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lastbite-ai/lastbite-backend/api/controllers"
	"github.com/lastbite-ai/lastbite-backend/api/middleware"
	"github.com/lastbite-ai/lastbite-backend/pkg/config"
	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
	"github.com/lastbite-ai/lastbite-backend/pkg/logger"
	"github.com/lastbite-ai/lastbite-backend/pkg/metrics"
	pkgredis "github.com/lastbite-ai/lastbite-backend/pkg/redis"
)

// Services are the handlers' dependencies. Idempotency, RateLimiter, Gatherer and HTTPMetrics
// may be nil.
type Services struct {
	Barcodes    controllers.BarcodeService
	Links       controllers.LinkConfirmer
	Classifier  controllers.Classifier
	Inventory   controllers.InventoryReader
	Catalog     controllers.ProductFinder
	Clock       dates.Clock
	Ready       []controllers.Check
	Reload      []controllers.Reloadable
	Idempotency pkgredis.IdempotencyStore
	RateLimiter pkgredis.RateLimiter
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, svc.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	classifyPolicy := middleware.NewRateLimitPolicy(
		"classify",
		cfg.RateLimit.ClassifyWindow,
		cfg.RateLimit.ClassifyIPLimit,
	)
	idempotent := middleware.Idempotency(svc.Idempotency, cfg.Idempotency.TTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, svc.Ready...))
	})

	if svc.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/barcode", func(r chi.Router) {
			r.Post("/scan", controllers.BarcodeScan(svc.Barcodes, logg))
			r.With(idempotent).Post("/confirm", controllers.BarcodeConfirm(svc.Barcodes, logg))
		})
		r.With(idempotent).Post("/confirm-product", controllers.ConfirmProduct(svc.Links, logg))
		r.With(middleware.RateLimit(classifyPolicy, svc.RateLimiter, logg)).
			Post("/classify", controllers.Classify(svc.Classifier, cfg.Classifier.MaxUploadMB, logg))

		r.Get("/inventory/{userUid}", controllers.UserInventory(svc.Inventory, logg))

		r.Get("/products", controllers.ProductByName(svc.Catalog, logg))
		r.Get("/products/barcode/{barcode}", controllers.ProductByBarcode(svc.Catalog, logg))
		r.Get("/categories", controllers.Categories())
		r.Get("/expiry", controllers.ComputeExpiry(svc.Clock, logg))

		if cfg.App.AdminReload {
			r.Post("/admin/reload", controllers.AdminReload(logg, svc.Reload...))
		}
	})

	return r
}
