package dedup

import (
	"strings"
	"unicode"
)

// NormalizePhone reduces a phone number to comparable digits. Formatting,
// extensions, and dialing prefixes all vary between checkout forms, so two
// numbers are the same customer when their significant digits agree.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	// International dialing prefix.
	digits = strings.TrimPrefix(digits, "00")
	// NANP country code on an 11-digit number.
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return digits
}

// variantSeparators split a product title from its variant suffix
// ("Widget - Blue / XL" names the same product as "Widget - Red / S").
var variantSeparators = []string{" - ", " / "}

// NormalizeTitle canonicalizes a product title for name-based matching:
// variant suffix stripped, lowercased, whitespace collapsed.
func NormalizeTitle(title string) string {
	for _, sep := range variantSeparators {
		if i := strings.Index(title, sep); i >= 0 {
			title = title[:i]
		}
	}
	title = strings.ToLower(strings.TrimSpace(title))
	return strings.Join(strings.FieldsFunc(title, unicode.IsSpace), " ")
}
