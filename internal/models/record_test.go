package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordText(t *testing.T) {
	r := Record{
		"body_type": "SUV",
		"empty":     "",
		"null":      nil,
		"doors":     4.0,
		"nan":       math.NaN(),
	}

	v, ok := r.Text("body_type")
	assert.True(t, ok)
	assert.Equal(t, "SUV", v)

	v, ok = r.Text("doors")
	assert.True(t, ok)
	assert.Equal(t, "4", v)

	for _, field := range []string{"empty", "null", "nan", "missing"} {
		_, ok := r.Text(field)
		assert.False(t, ok, field)
	}
}

func TestRecordNumber(t *testing.T) {
	r := Record{
		"price":  12500.5,
		"zero":   0.0,
		"string": "12500",
		"inf":    math.Inf(1),
		"nan":    math.NaN(),
		"null":   nil,
	}

	v, ok := r.Number("price")
	assert.True(t, ok)
	assert.Equal(t, 12500.5, v)

	v, ok = r.Number("zero")
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)

	for _, field := range []string{"string", "inf", "nan", "null", "missing"} {
		_, ok := r.Number(field)
		assert.False(t, ok, field)
	}
}
