package inventory

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/lastbite-ai/lastbite-backend/internal/expiry"
	"github.com/lastbite-ai/lastbite-backend/internal/ledger"
	product "github.com/lastbite-ai/lastbite-backend/internal/products"
	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
	"github.com/lastbite-ai/lastbite-backend/pkg/logger"
	"github.com/lastbite-ai/lastbite-backend/pkg/tabular"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct{}

func (fakeUsers) Exists(context.Context, string) (bool, error) { return true, nil }

func TestGetInventoryDropsAndFlagsMissingProducts(t *testing.T) {
	productTable := tabular.NewTable(product.Codec{}.Columns())
	productTable.Rows = [][]string{
		{"p-1", "p-1", "111", "Milk", "Dairy", "2024-06-01", "2024-06-08"},
	}
	catalog, err := product.NewCatalog(product.NewStore(tabular.NewMemoryBackend(productTable)), nil)
	require.NoError(t, err)

	linkTable := tabular.NewTable(ledger.Codec{}.Columns())
	linkTable.Rows = [][]string{
		{"u-1", "p-1", "2024-06-01", "2"},
		{"u-1", "p-gone", "2024-06-02", "1"},
		{"u-2", "p-1", "2024-06-03", "1"},
	}
	links, err := ledger.NewService(ledger.NewStore(tabular.NewMemoryBackend(linkTable)), fakeUsers{}, catalog, nil, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: &buf})
	svc, err := NewService(links, catalog, logg, dates.Fixed(dates.MustParse("2024-06-07")))
	require.NoError(t, err)

	view, err := svc.GetInventory(context.Background(), "u-1")
	require.NoError(t, err)

	require.Len(t, view.Entries, 1)
	entry := view.Entries[0]
	assert.Equal(t, "p-1", entry.UID)
	assert.Equal(t, 2, entry.Quantity)
	assert.Equal(t, "2024-06-01", entry.LinkScanDate.String())
	assert.Equal(t, expiry.FreshnessExpiringSoon, entry.Freshness)
	require.NotNil(t, entry.DaysUntilExpiry)
	assert.Equal(t, 1, *entry.DaysUntilExpiry)

	assert.Equal(t, []string{"p-gone"}, view.Unresolved)
	assert.True(t, strings.Contains(buf.String(), "inventory.product_missing"))
	assert.True(t, strings.Contains(buf.String(), "p-gone"))
}

func TestGetInventoryForUnknownUserIsEmpty(t *testing.T) {
	catalog, err := product.NewCatalog(product.NewStore(tabular.NewMemoryBackend(nil)), nil)
	require.NoError(t, err)
	links, err := ledger.NewService(ledger.NewStore(tabular.NewMemoryBackend(nil)), fakeUsers{}, catalog, nil, nil)
	require.NoError(t, err)
	svc, err := NewService(links, catalog, nil, nil)
	require.NoError(t, err)

	view, err := svc.GetInventory(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, view.Entries)
	assert.NotNil(t, view.Entries)
	assert.Empty(t, view.Unresolved)
}
