package models

import (
	"math"
	"strconv"
)

// Record is one decoded row keyed by header name. Values are string, float64
// or nil; a record is never modified after decoding.
type Record map[string]any

// Text returns the value of field as a non-empty label.
func (r Record) Text(field string) (string, bool) {
	switch v := r[field].(type) {
	case string:
		return v, v != ""
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// Number returns the value of field when it is a finite number. Strings are
// not coerced.
func (r Record) Number(field string) (float64, bool) {
	v, ok := r[field].(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
