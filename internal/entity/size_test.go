package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalSize(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		mapped bool
	}{
		{"X-SMALL", "XS", true},
		{"SMALL", "S", true},
		{"MEDIUM", "M", true},
		{"LARGE", "L", true},
		{"X-LARGE", "XL", true},
		{"XX-LARGE", "XXL", true},
		{"XXX-LARGE", "XXXL", true},
		{"medium", "M", true},
		{"  Large ", "L", true},
		{"M", "M", true}, // already canonical
		{"xl", "XL", true},
		{"EU-42", "EU-42", false},
		{" one-size ", " one-size ", false},
	}

	for _, tc := range cases {
		got, mapped := CanonicalSize(tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
		assert.Equal(t, tc.mapped, mapped, "input %q", tc.in)
	}
}
