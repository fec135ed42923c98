// Package tabular loads and saves flat tables (a header row plus text rows) and keeps a typed,
// cached copy of each table behind a single-writer lock.
package tabular

import (
	"context"
	"slices"
	"strings"
)

// Table is a set of named columns and text rows. Rows may be shorter than Columns;
// missing cells read as "".
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable returns an empty table with the given columns.
func NewTable(columns []string) *Table {
	return &Table{Columns: slices.Clone(columns), Rows: [][]string{}}
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = slices.Clone(row)
	}
	return &Table{Columns: slices.Clone(t.Columns), Rows: rows}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of column, or -1.
func (t *Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Missing returns the entries of required that t has no column for.
func (t *Table) Missing(required []string) []string {
	var missing []string
	for _, col := range required {
		if t.Index(col) < 0 {
			missing = append(missing, col)
		}
	}
	return missing
}

// Row is a read view of one table row addressed by column name.
type Row struct {
	Number int
	index  map[string]int
	values []string
}

// RowViews returns a named view over every row of t. Row numbers start at 2 so they match the
// line in the file (line 1 is the header).
func (t *Table) RowViews() []Row {
	index := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		index[strings.TrimSpace(c)] = i
	}
	views := make([]Row, len(t.Rows))
	for i, values := range t.Rows {
		views[i] = Row{Number: i + 2, index: index, values: values}
	}
	return views
}

// Get returns the trimmed cell for column, or "" when the column or cell is absent.
func (r Row) Get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

// Backend persists a whole table. Load must return an empty table with the given columns when
// nothing has been stored yet.
type Backend interface {
	Load(ctx context.Context, columns []string) (*Table, error)
	Save(ctx context.Context, table *Table) error
	Location() string
}
