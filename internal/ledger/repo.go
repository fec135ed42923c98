package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lastbite-ai/lastbite-backend/pkg/dates"
	"github.com/lastbite-ai/lastbite-backend/pkg/tabular"
)

// TableName identifies the links table in errors, logs and metrics.
const TableName = "links"

// DefaultQuantity is used when a link is written without a quantity.
const DefaultQuantity = 1

// Link is one user's claim on one product.
type Link struct {
	UserUID    string     `json:"user_uid"`
	ProductUID string     `json:"product_uid"`
	ScanDate   dates.Date `json:"scan_date"`
	Quantity   int        `json:"quantity"`
}

// Key identifies a link; at most one row exists per key.
type Key struct {
	UserUID    string
	ProductUID string
}

func (l Link) Key() Key { return Key{UserUID: l.UserUID, ProductUID: l.ProductUID} }

var columns = []string{"user_uid", "product_uid", "scan_date", "quantity"}

// Codec maps Link records to the links table.
type Codec struct{}

func (Codec) Columns() []string  { return columns }
func (Codec) Required() []string { return []string{"user_uid", "product_uid"} }

func (Codec) Decode(r tabular.Row) (Link, error) {
	l := Link{UserUID: r.Get("user_uid"), ProductUID: r.Get("product_uid")}
	if l.UserUID == "" || l.ProductUID == "" {
		return Link{}, fmt.Errorf("user_uid and product_uid are required")
	}

	var err error
	if l.ScanDate, err = dates.ParseOptional(r.Get("scan_date")); err != nil {
		return Link{}, fmt.Errorf("scan_date: %w", err)
	}
	if l.Quantity, err = ParseQuantity(r.Get("quantity")); err != nil {
		return Link{}, fmt.Errorf("quantity: %w", err)
	}
	return l, nil
}

func (Codec) Encode(l Link) []string {
	return []string{l.UserUID, l.ProductUID, l.ScanDate.String(), strconv.Itoa(l.Quantity)}
}

// NewStore builds the cached links table over backend.
func NewStore(backend tabular.Backend, opts ...tabular.Option) *tabular.Store[Link] {
	return tabular.NewStore[Link](TableName, backend, Codec{}, opts...)
}

// ParseQuantity reads a stored quantity. Blank and zero mean DefaultQuantity; whole-number floats
// such as "2.0" are accepted.
func ParseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultQuantity, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if v != float64(int(v)) {
		return 0, fmt.Errorf("%q is not a whole number", raw)
	}
	switch q := int(v); {
	case q < 0:
		return 0, fmt.Errorf("%q is negative", raw)
	case q == 0:
		return DefaultQuantity, nil
	default:
		return q, nil
	}
}

// Dedupe keeps the first link per key in table order and returns how many rows were dropped.
func Dedupe(links []Link) ([]Link, int) {
	seen := make(map[Key]struct{}, len(links))
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if _, ok := seen[l.Key()]; ok {
			continue
		}
		seen[l.Key()] = struct{}{}
		out = append(out, l)
	}
	return out, len(links) - len(out)
}
