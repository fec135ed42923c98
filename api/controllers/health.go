package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/lastbite-ai/lastbite-backend/api/responses"
	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
	"github.com/lastbite-ai/lastbite-backend/pkg/logger"
	"github.com/lastbite-ai/lastbite-backend/pkg/types"
)

const readyTimeout = 2 * time.Second

// Check is a named readiness probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

func HealthLive(env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LastBite-Env", env)
		responses.WriteSuccess(w, types.Status{Status: types.StatusLive})
	}
}

// HealthReady runs every check and answers 503 naming the failing ones.
func HealthReady(env string, logg *logger.Logger, checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LastBite-Env", env)
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		var (
			errs   error
			failed []string
		)
		for _, check := range checks {
			if err := check.Ping(ctx); err != nil {
				errs = multierr.Append(errs, err)
				failed = append(failed, check.Name)
			}
		}
		if errs != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "not ready").
				WithDetails(map[string]any{"failed": failed}))
			return
		}
		responses.WriteSuccess(w, types.Status{Status: types.StatusReady})
	}
}
