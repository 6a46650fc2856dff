package models

import "testing"

func TestSuggestQuery_Validate(t *testing.T) {
	tests := []struct {
		name      string
		query     *SuggestQuery
		wantErr   bool
		wantLimit int
	}{
		{"missing field", &SuggestQuery{Query: "x"}, true, 0},
		{"sets default limit", &SuggestQuery{Field: FieldSet, Query: "base"}, false, 15},
		{"caps limit at 50", &SuggestQuery{Field: FieldCardProduct, Query: "char", Limit: 200}, false, 50},
		{"keeps explicit limit", &SuggestQuery{Field: FieldProduct, Query: "box", Limit: 5}, false, 5},
		{"empty query is not an error", &SuggestQuery{Field: FieldSet, Query: ""}, false, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.query.Limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", tt.query.Limit, tt.wantLimit)
			}
		})
	}
}

func TestParseFieldType(t *testing.T) {
	tests := []struct {
		in      string
		want    FieldType
		wantErr bool
	}{
		{"set", FieldSet, false},
		{"category", FieldCategory, false},
		{"card_product", FieldCardProduct, false},
		{"cardProduct", FieldCardProduct, false},
		{"set_product", FieldSetProduct, false},
		{"product", FieldProduct, false},
		{"bogus", FieldNone, true},
		{"", FieldNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFieldType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFieldType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFieldType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFieldType_IsParent(t *testing.T) {
	parents := []FieldType{FieldSet, FieldCategory, FieldSetProduct}
	for _, f := range parents {
		if !f.IsParent() {
			t.Errorf("%v should be a parent field", f)
		}
	}
	children := []FieldType{FieldCardProduct, FieldProduct, FieldNone}
	for _, f := range children {
		if f.IsParent() {
			t.Errorf("%v should not be a parent field", f)
		}
	}
}
