package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"formatted nanp", "+1 (555) 123-4567", "5551234567"},
		{"bare nanp", "555-123-4567", "5551234567"},
		{"nanp country code", "15551234567", "5551234567"},
		{"international prefix", "0044 20 7946 0958", "442079460958"},
		{"dots and spaces", "555.123.4567", "5551234567"},
		{"empty", "", ""},
		{"letters only", "call me", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizePhone(tc.in))
		})
	}
}

func TestNormalizePhoneEquivalence(t *testing.T) {
	// The same customer across different checkout forms.
	forms := []string{"+1 (555) 123-4567", "1-555-123-4567", "555 123 4567"}
	for _, form := range forms {
		assert.Equal(t, "5551234567", NormalizePhone(form), form)
	}
}

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Widget", "widget"},
		{"case and spacing", "  Widget   Pro  ", "widget pro"},
		{"dash variant", "Widget - Blue", "widget"},
		{"slash variant", "Widget / XL", "widget"},
		{"variant chain", "Widget - Blue / XL", "widget"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeTitle(tc.in))
		})
	}
}

func TestNormalizeTitleVariantsCollapse(t *testing.T) {
	assert.Equal(t, NormalizeTitle("Widget - Blue"), NormalizeTitle("Widget - Red"))
}
