package controllers

import (
	"bytes"
	"encoding/json"

	"github.com/lastbite-ai/lastbite-backend/internal/ledger"
	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
)

// quantityField holds the raw quantity text from a JSON number, a string or null.
type quantityField string

func (q *quantityField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*q = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = quantityField(s)
	default:
		*q = quantityField(data)
	}
	return nil
}

// parseQuantity accepts a JSON number or numeric string; absent, null, blank and zero mean one.
func parseQuantity(raw quantityField) (int, error) {
	q, err := ledger.ParseQuantity(string(raw))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "quantity must be a positive whole number").
			WithDetails(map[string]any{"field": "quantity"})
	}
	return q, nil
}
