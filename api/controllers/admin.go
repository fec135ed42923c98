package controllers

import (
	"context"
	"net/http"

	"go.uber.org/multierr"

	"github.com/lastbite-ai/lastbite-backend/api/responses"
	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
	"github.com/lastbite-ai/lastbite-backend/pkg/logger"
)

// Reloadable drops its cached table and reads it again.
type Reloadable struct {
	Table  string
	Reload func(ctx context.Context) error
}

// AdminReload reloads every table so edits made by other processes become visible.
func AdminReload(logg *logger.Logger, tables ...Reloadable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			errs     error
			reloaded = make([]string, 0, len(tables))
			failed   []string
		)
		for _, t := range tables {
			if err := t.Reload(r.Context()); err != nil {
				errs = multierr.Append(errs, err)
				failed = append(failed, t.Table)
				continue
			}
			reloaded = append(reloaded, t.Table)
		}
		if errs != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeStorage, errs, "reload tables").
				WithDetails(map[string]any{"reloaded": reloaded, "failed": failed}))
			return
		}
		if logg != nil {
			logg.Info(logg.WithField(r.Context(), "tables", reloaded), "tables.reloaded")
		}
		responses.WriteSuccess(w, map[string]any{"reloaded": reloaded})
	}
}
