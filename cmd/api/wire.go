package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lastbite-ai/lastbite-backend/api/controllers"
	"github.com/lastbite-ai/lastbite-backend/api/routes"
	"github.com/lastbite-ai/lastbite-backend/internal/classification"
	"github.com/lastbite-ai/lastbite-backend/internal/inventory"
	"github.com/lastbite-ai/lastbite-backend/internal/ledger"
	product "github.com/lastbite-ai/lastbite-backend/internal/products"
	"github.com/lastbite-ai/lastbite-backend/internal/scans"
	"github.com/lastbite-ai/lastbite-backend/internal/users"
	"github.com/lastbite-ai/lastbite-backend/pkg/config"
	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
	"github.com/lastbite-ai/lastbite-backend/pkg/gemini"
	"github.com/lastbite-ai/lastbite-backend/pkg/logger"
	"github.com/lastbite-ai/lastbite-backend/pkg/metrics"
	"github.com/lastbite-ai/lastbite-backend/pkg/openfoodfacts"
	pkgredis "github.com/lastbite-ai/lastbite-backend/pkg/redis"
	"github.com/lastbite-ai/lastbite-backend/pkg/tabular"
	"github.com/lastbite-ai/lastbite-backend/pkg/vision"
)

type application struct {
	services routes.Services
	gemini   bool
	close    func() error
}

func wire(ctx context.Context, cfg *config.Config, logg *logger.Logger, reg prometheus.Registerer) (*application, error) {
	clock := dates.Today
	storeMetrics := tabular.WithObserver(metrics.NewStoreMetrics(reg))

	productStore := product.NewStore(tabular.NewFileBackend(cfg.Data.ProductsPath()), storeMetrics)
	userStore := users.NewStore(tabular.NewFileBackend(cfg.Data.UsersPath()), storeMetrics)
	linkStore := ledger.NewStore(tabular.NewFileBackend(cfg.Data.LinksPath()), storeMetrics)

	catalog, err := product.NewCatalog(productStore, logg)
	if err != nil {
		return nil, err
	}
	userRepo := users.NewRepository(userStore)
	ledgerSvc, err := ledger.NewService(linkStore, userRepo, catalog, logg, clock)
	if err != nil {
		return nil, err
	}
	inventorySvc, err := inventory.NewService(ledgerSvc, catalog, logg, clock)
	if err != nil {
		return nil, err
	}

	off := openfoodfacts.NewClient(
		openfoodfacts.WithBaseURL(cfg.OpenFoodFacts.BaseURL),
		openfoodfacts.WithTimeout(cfg.OpenFoodFacts.Timeout),
	)
	scanSvc, err := scans.NewService(catalog, ledgerSvc, off, logg, clock)
	if err != nil {
		return nil, err
	}

	model, err := vision.NewClient(cfg.Classifier.ModelURL, vision.WithTimeout(cfg.Classifier.Timeout))
	if err != nil {
		return nil, err
	}
	classifierCfg := classification.Config{
		Primary:   classification.NewModelGateway(model),
		Catalog:   catalog,
		Threshold: cfg.Classifier.ConfidenceThreshold,
		Observer:  metrics.NewClassifierMetrics(reg),
		Logger:    logg,
		Clock:     clock,
	}
	app := &application{close: func() error { return nil }}
	if cfg.Gemini.Enabled && cfg.Gemini.APIKey != "" {
		g, err := gemini.NewClient(ctx, cfg.Gemini.APIKey,
			gemini.WithModel(cfg.Gemini.Model),
			gemini.WithTimeout(cfg.Gemini.Timeout),
		)
		if err != nil {
			return nil, err
		}
		classifierCfg.Secondary = classification.NewGeminiGateway(g)
		app.gemini = true
	} else if cfg.Gemini.Enabled {
		logg.Warn(ctx, "gemini enabled without an api key; classifier runs without fallback")
	}
	classifier, err := classification.NewService(classifierCfg)
	if err != nil {
		return nil, err
	}

	ready := []controllers.Check{
		{Name: product.TableName, Ping: catalog.Ping},
		{Name: users.TableName, Ping: userRepo.Ping},
		{Name: ledger.TableName, Ping: ledgerSvc.Ping},
	}
	app.services = routes.Services{
		Barcodes:   scanSvc,
		Links:      ledgerSvc,
		Classifier: classifier,
		Inventory:  inventorySvc,
		Catalog:    catalog,
		Clock:      clock,
		Reload: []controllers.Reloadable{
			{Table: product.TableName, Reload: catalog.Reload},
			{Table: users.TableName, Reload: userRepo.Reload},
			{Table: ledger.TableName, Reload: ledgerSvc.Reload},
		},
	}

	if cfg.Redis.Enabled() {
		redisClient, err := pkgredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		app.services.Idempotency = redisClient
		app.services.RateLimiter = redisClient
		ready = append(ready, controllers.Check{Name: "redis", Ping: redisClient.Ping})
		app.close = redisClient.Close
	}
	app.services.Ready = ready

	for _, check := range ready {
		if err := check.Ping(ctx); err != nil {
			logg.Warn(logg.WithFields(ctx, map[string]any{"check": check.Name, "error": err.Error()}), "startup.not_ready")
		}
	}
	return app, nil
}
