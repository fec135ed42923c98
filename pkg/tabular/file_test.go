package tabular

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productColumns = []string{"product_uid", "product_id", "barcode", "item_name", "category", "scanned_date", "expiry_date"}

func TestLoadMissingFileReturnsEmptyTable(t *testing.T) {
	table, err := Load(filepath.Join(t.TempDir(), "nope.csv"), productColumns)
	require.NoError(t, err)
	assert.Equal(t, productColumns, table.Columns)
	assert.Equal(t, 0, table.Len())
}

func TestLoadEmptyFileReturnsEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	table, err := Load(path, productColumns)
	require.NoError(t, err)
	assert.Equal(t, productColumns, table.Columns)
	assert.Equal(t, 0, table.Len())
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "links.csv")
	table := &Table{
		Columns: []string{"user_uid", "product_uid", "scan_date", "quantity"},
		Rows: [][]string{
			{"u-1", "p-1", "2024-06-01", "2"},
			{"u-1", "p-2, with comma", "2024-06-02"},
		},
	}

	require.NoError(t, Save(path, table))

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, table.Columns, loaded.Columns)
	require.Equal(t, 2, loaded.Len())
	assert.Equal(t, "p-2, with comma", loaded.Rows[1][1])
	assert.Equal(t, "", loaded.Rows[1][3], "short rows are padded on save")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestLoadSkipsBlankLinesAndBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	content := "\ufeffuser_uid,user_name\nu-1,Ada\n,\nu-2,Grace\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "user_uid", table.Columns[0])
	assert.Equal(t, 2, table.Len())
}

func TestSaveFailsWhenDirectoryIsAFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := Save(filepath.Join(blocker, "products.csv"), NewTable(productColumns))
	require.Error(t, err)
}

func TestRowViewsAddressCellsByName(t *testing.T) {
	table := &Table{
		Columns: []string{"quantity", "user_uid"},
		Rows:    [][]string{{" 3 ", "u-1"}, {"1"}},
	}
	views := table.RowViews()
	require.Len(t, views, 2)
	assert.Equal(t, "3", views[0].Get("quantity"))
	assert.Equal(t, "u-1", views[0].Get("user_uid"))
	assert.Equal(t, "", views[1].Get("user_uid"))
	assert.Equal(t, "", views[0].Get("unknown"))
	assert.Equal(t, 2, views[0].Number)
	assert.Equal(t, []string{"scan_date"}, table.Missing([]string{"user_uid", "scan_date"}))
}
