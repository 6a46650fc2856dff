package models

import "fmt"

// FieldType identifies a search input field. Each field maps to one entity
// kind; parent fields (set, category, set_product) constrain child fields.
type FieldType int

const (
	// FieldNone means no field is active.
	FieldNone FieldType = iota
	// FieldSet is the set-name input (parent of card/product).
	FieldSet
	// FieldCategory is the category input (parent of product).
	FieldCategory
	// FieldCardProduct is the combined card/product name input.
	FieldCardProduct
	// FieldSetProduct is the sealed-product set input (parent of product).
	FieldSetProduct
	// FieldProduct is the product name input.
	FieldProduct
)

// String returns a string representation of the field type.
func (f FieldType) String() string {
	switch f {
	case FieldNone:
		return "none"
	case FieldSet:
		return "set"
	case FieldCategory:
		return "category"
	case FieldCardProduct:
		return "card_product"
	case FieldSetProduct:
		return "set_product"
	case FieldProduct:
		return "product"
	default:
		return "unknown"
	}
}

// ParseFieldType parses a field name as used in the HTTP API.
func ParseFieldType(s string) (FieldType, error) {
	switch s {
	case "set":
		return FieldSet, nil
	case "category":
		return FieldCategory, nil
	case "card_product", "cardProduct":
		return FieldCardProduct, nil
	case "set_product", "setProduct":
		return FieldSetProduct, nil
	case "product":
		return FieldProduct, nil
	default:
		return FieldNone, fmt.Errorf("unknown field type: %q", s)
	}
}

// Kind returns the entity kind a field's suggestions are drawn from.
func (f FieldType) Kind() Kind {
	switch f {
	case FieldSet:
		return KindSet
	case FieldCategory:
		return KindCategory
	case FieldCardProduct:
		return KindCard
	case FieldSetProduct:
		return KindSetProduct
	case FieldProduct:
		return KindProduct
	default:
		return KindSet
	}
}

// IsParent reports whether the field commits a parent selection that
// filters a dependent child field.
func (f FieldType) IsParent() bool {
	return f == FieldSet || f == FieldCategory || f == FieldSetProduct
}

// SuggestQuery is one suggestion request as received over the API.
type SuggestQuery struct {
	Field FieldType `json:"field"`
	Query string    `json:"query"`
	Limit int       `json:"limit,omitempty"`
}

// Validate normalizes the query limits. The query text itself is not an
// error when empty: short and empty queries clear suggestions instead.
func (q *SuggestQuery) Validate() error {
	if q.Field == FieldNone {
		return fmt.Errorf("field is required")
	}
	if q.Limit <= 0 {
		q.Limit = 15
	}
	if q.Limit > 50 {
		q.Limit = 50
	}
	return nil
}
