// Command dedupe-links rewrites the links table keeping the first row per user and product.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/lastbite-ai/lastbite-backend/internal/ledger"
	product "github.com/lastbite-ai/lastbite-backend/internal/products"
	"github.com/lastbite-ai/lastbite-backend/internal/users"
	"github.com/lastbite-ai/lastbite-backend/pkg/config"
	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
	"github.com/lastbite-ai/lastbite-backend/pkg/logger"
	"github.com/lastbite-ai/lastbite-backend/pkg/tabular"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "dedupe-links"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	linksPath := flag.String("links", cfg.Data.LinksPath(), "links table to rewrite")
	dryRun := flag.Bool("dry-run", false, "report duplicates without rewriting")
	flag.Parse()

	logg = logger.New(logger.Options{
		ServiceName: "dedupe-links",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"links": *linksPath, "dry_run": *dryRun})

	removed, err := run(ctx, cfg, logg, *linksPath, *dryRun)
	if err != nil {
		logg.Error(ctx, "dedupe failed", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "removed", removed), "dedupe.complete")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, linksPath string, dryRun bool) (int, error) {
	store := ledger.NewStore(tabular.NewFileBackend(linksPath))
	if dryRun {
		links, err := store.All(ctx)
		if err != nil {
			return 0, err
		}
		_, removed := ledger.Dedupe(links)
		return removed, nil
	}

	catalog, err := product.NewCatalog(product.NewStore(tabular.NewFileBackend(cfg.Data.ProductsPath())), logg)
	if err != nil {
		return 0, err
	}
	userRepo := users.NewRepository(users.NewStore(tabular.NewFileBackend(cfg.Data.UsersPath())))
	svc, err := ledger.NewService(store, userRepo, catalog, logg, dates.Today)
	if err != nil {
		return 0, err
	}
	return svc.Dedupe(ctx)
}
