// Package expiry maps product categories to shelf lives and derives expiry dates and freshness.
package expiry

import (
	"sort"
	"strings"

	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
)

const (
	// DefaultShelfLifeDays applies to categories missing from the shelf-life table.
	DefaultShelfLifeDays = 30
	// FallbackCategory is assigned to products created without a category.
	FallbackCategory = "Misc"
	// ExpiringSoonDays is the horizon under which a product is reported as expiring soon.
	ExpiringSoonDays = 2
)

var shelfLifeDays = map[string]int{
	"Dairy":        7,
	"Meat":         3,
	"Produce":      5,
	"Bakery":       2,
	"Frozen":       180,
	"Canned Goods": 365,
	"Snacks":       120,
	"Beverages":    90,
}

// ShelfLifeDays returns the shelf life of category in days. Lookup is exact; unknown categories
// get DefaultShelfLifeDays.
func ShelfLifeDays(category string) int {
	if days, ok := shelfLifeDays[strings.TrimSpace(category)]; ok {
		return days
	}
	return DefaultShelfLifeDays
}

// ComputeExpiry returns scanDate plus the category's shelf life.
func ComputeExpiry(scanDate dates.Date, category string) dates.Date {
	return scanDate.AddDays(ShelfLifeDays(category))
}

// Categories returns the categories of the shelf-life table, sorted.
func Categories() []string {
	out := make([]string, 0, len(shelfLifeDays))
	for c := range shelfLifeDays {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Table returns a copy of the shelf-life table.
func Table() map[string]int {
	out := make(map[string]int, len(shelfLifeDays))
	for k, v := range shelfLifeDays {
		out[k] = v
	}
	return out
}

// NormalizeCategory trims category and substitutes FallbackCategory for blank input.
func NormalizeCategory(category string) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return FallbackCategory
}
