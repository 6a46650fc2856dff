package models

import "errors"

// ErrUnknownField is returned when a field name does not map to a search
// input.
var ErrUnknownField = errors.New("unknown field")

// ErrMalformedSuggestion is returned when a selected suggestion fails the
// tagged-union invariant.
var ErrMalformedSuggestion = errors.New("malformed suggestion")
