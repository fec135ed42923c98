package scans

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lastbite-ai/lastbite-backend/internal/ledger"
	product "github.com/lastbite-ai/lastbite-backend/internal/products"
	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
	"github.com/lastbite-ai/lastbite-backend/pkg/openfoodfacts"
	"github.com/lastbite-ai/lastbite-backend/pkg/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	info *openfoodfacts.ProductInfo
	err  error
}

func (f fakeLookup) LookupBarcode(context.Context, string) (*openfoodfacts.ProductInfo, error) {
	return f.info, f.err
}

type fakeUsers map[string]bool

func (f fakeUsers) Exists(_ context.Context, uid string) (bool, error) { return f[uid], nil }

type fixture struct {
	svc      *Service
	products *tabular.MemoryBackend
	links    *tabular.MemoryBackend
}

func newFixture(t *testing.T, lookup BarcodeLookup, productRows ...[]string) fixture {
	t.Helper()
	today := dates.Fixed(dates.MustParse("2024-01-01"))

	table := tabular.NewTable(product.Codec{}.Columns())
	table.Rows = productRows
	products := tabular.NewMemoryBackend(table)
	seq := 0
	catalog, err := product.NewCatalog(product.NewStore(products), nil, product.WithClock(today),
		product.WithUIDGenerator(func() string {
			seq++
			return fmt.Sprintf("uid-%d", seq)
		}))
	require.NoError(t, err)

	links := tabular.NewMemoryBackend(nil)
	ledgerSvc, err := ledger.NewService(ledger.NewStore(links), fakeUsers{"u-1": true}, catalog, nil, today)
	require.NoError(t, err)

	svc, err := NewService(catalog, ledgerSvc, lookup, nil, today)
	require.NoError(t, err)
	return fixture{svc: svc, products: products, links: links}
}

func TestScanKnownBarcode(t *testing.T) {
	f := newFixture(t, nil, []string{"p-1", "p-1", "111", "Milk", "Dairy", "2023-12-30", "2024-01-06"})

	res, err := f.svc.Scan(context.Background(), " 111 ")
	require.NoError(t, err)
	assert.True(t, res.AlreadyExists)
	assert.Equal(t, "p-1", res.ProductUID)
	assert.Equal(t, "Milk", res.ItemName)
	require.NotNil(t, res.ExpiryDate)
	assert.Equal(t, "2024-01-06", res.ExpiryDate.String())
	assert.Equal(t, "2024-01-01", res.ScanDate.String())
	assert.Nil(t, res.Categories)
}

func TestScanUnknownBarcodeSuggestsFromFirstCategory(t *testing.T) {
	f := newFixture(t, fakeLookup{info: &openfoodfacts.ProductInfo{Name: "Nutella"}},
		[]string{"p-1", "p-1", "111", "Rice", "Aardvark Foods", "2024-01-01", "2024-01-31"})

	res, err := f.svc.Scan(context.Background(), "222")
	require.NoError(t, err)
	assert.False(t, res.AlreadyExists)
	assert.Equal(t, "Nutella", res.ItemName)
	assert.Equal(t, "Aardvark Foods", res.Categories[0])
	require.NotNil(t, res.SuggestedExpiry)
	assert.Equal(t, "2024-01-31", res.SuggestedExpiry.String(), "unknown first category uses the default shelf life")
	assert.Equal(t, 0, f.products.Saves(), "scan never writes")
}

func TestScanLookupFailureFallsBackToUnknownName(t *testing.T) {
	f := newFixture(t, fakeLookup{err: pkgerrors.New(pkgerrors.CodeUpstreamTimeout, "slow")})

	res, err := f.svc.Scan(context.Background(), "222")
	require.NoError(t, err)
	assert.Equal(t, product.UnknownName, res.ItemName)
	assert.Equal(t, "Bakery", res.Categories[0])
	assert.Equal(t, "2024-01-03", res.SuggestedExpiry.String())
}

func TestConfirmCreatesProductAndLinkOnce(t *testing.T) {
	f := newFixture(t, nil)
	input := ConfirmInput{Barcode: "333", Category: "Dairy", UserUID: "u-1", ItemName: "Yogurt", Quantity: 2}

	first, err := f.svc.Confirm(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, first.ProductCreated)
	assert.True(t, first.LinkCreated)
	assert.Equal(t, "uid-1", first.ProductUID)
	assert.Equal(t, "2024-01-08", first.ExpiryDate.String())
	assert.Equal(t, 2, first.Quantity)

	second, err := f.svc.Confirm(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, second.ProductCreated)
	assert.False(t, second.LinkCreated)
	assert.Equal(t, first.ProductUID, second.ProductUID)

	assert.Equal(t, 1, f.products.Snapshot().Len())
	assert.Equal(t, 1, f.links.Snapshot().Len())
}

func TestConfirmReportsPartialSuccess(t *testing.T) {
	f := newFixture(t, nil)
	f.links.FailSaves(errors.New("disk full"))

	_, err := f.svc.Confirm(context.Background(), ConfirmInput{Barcode: "444", Category: "Meat", UserUID: "u-1"})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStorage, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "link", details["step"])
	assert.Equal(t, "uid-1", details["product_uid"])
	assert.Equal(t, true, details["product_created"])
	assert.Equal(t, 1, f.products.Snapshot().Len(), "product stays created")
}

func TestConfirmUnknownUserKeepsNotFound(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Confirm(context.Background(), ConfirmInput{Barcode: "555", Category: "Snacks", UserUID: "ghost"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	details := typed.Details().(map[string]any)
	assert.Equal(t, "user", details["resource"])
	assert.Equal(t, "link", details["step"])
}

func TestConfirmValidatesRequiredFields(t *testing.T) {
	f := newFixture(t, nil)
	for _, input := range []ConfirmInput{
		{Category: "Dairy", UserUID: "u-1"},
		{Barcode: "1", UserUID: "u-1"},
		{Barcode: "1", Category: "Dairy"},
		{Barcode: "1", Category: "Dairy", UserUID: "u-1", Quantity: -1},
	} {
		_, err := f.svc.Confirm(context.Background(), input)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "input %+v", input)
	}
	assert.Equal(t, 0, f.products.Saves())
}
