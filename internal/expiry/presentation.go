package expiry

import (
	"strings"

	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
)

// StateRotten is the classifier state that overrides the presented expiry.
const StateRotten = "rotten"

// Presented is the expiry shown to a caller for a classified item.
type Presented struct {
	ExpiryDate dates.Date
	// OriginalExpiry holds the stored value when ExpiryDate was overridden.
	OriginalExpiry *dates.Date
}

// Present applies the rotten rule: a rotten item with a stored expiry is presented as having
// expired yesterday, with the stored value kept as the original. The result is never persisted.
func Present(stored dates.Date, state string, today dates.Date) Presented {
	if stored.IsZero() || !strings.EqualFold(strings.TrimSpace(state), StateRotten) {
		return Presented{ExpiryDate: stored}
	}
	original := stored
	return Presented{ExpiryDate: today.AddDays(-1), OriginalExpiry: &original}
}

// Freshness buckets the time left before expiry.
type Freshness string

const (
	FreshnessFresh        Freshness = "fresh"
	FreshnessExpiringSoon Freshness = "expiring_soon"
	FreshnessExpired      Freshness = "expired"
	FreshnessUnknown      Freshness = "unknown"
)

// Assess returns the freshness of an item expiring on expiry, and the days left (nil without an
// expiry). An item expiring today is expiring soon, not expired.
func Assess(expiry dates.Date, today dates.Date) (Freshness, *int) {
	if expiry.IsZero() {
		return FreshnessUnknown, nil
	}
	left := today.DaysUntil(expiry)
	switch {
	case left < 0:
		return FreshnessExpired, &left
	case left <= ExpiringSoonDays:
		return FreshnessExpiringSoon, &left
	default:
		return FreshnessFresh, &left
	}
}
