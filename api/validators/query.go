package validators

import (
	"net/http"
	"strings"

	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
)

// RequiredQuery returns the trimmed query parameter or a validation error naming it.
func RequiredQuery(r *http.Request, key string, maxLen int) (string, error) {
	value := SanitizeString(r.URL.Query().Get(key), maxLen)
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "query parameter required").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// ParseQueryDate reads an ISO date parameter; a blank value yields defaultVal.
func ParseQueryDate(r *http.Request, key string, defaultVal dates.Date) (dates.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	d, err := dates.Parse(raw)
	if err != nil {
		return dates.Date{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "query parameter must be a date").
			WithDetails(map[string]any{"field": key, "format": dates.Format})
	}
	return d, nil
}
