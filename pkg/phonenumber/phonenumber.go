// Package phonenumber converts free-text phone input into the
// canonical digit form stored by the directory and back into the
// display form shown to users.
//
// Canonical form is digits only: a single leading "0" for domestic
// numbers (trunk prefix convention) or a preserved "00" prefix for
// international numbers. Both functions keep the nil/blank distinction
// of their input so callers can tell "absent" from "present and blank".
package phonenumber

import "strings"

// Canonicalize strips every non-digit character from input and
// normalizes the trunk prefix. nil stays nil and a string without any
// digits stays blank. The function is idempotent: feeding a canonical
// number back in returns it unchanged, and a "00" international prefix
// is never collapsed into a single trunk zero.
func Canonicalize(input *string) *string {
	if input == nil {
		return nil
	}
	digits := stripNonDigits(*input)
	if digits == "" {
		return &digits
	}
	if !strings.HasPrefix(digits, "0") {
		digits = "0" + digits
	}
	return &digits
}

// Format renders a canonical raw number for display. nil stays nil and
// blank stays blank. International numbers ("00" prefix) become
// "+<digits>" with no grouping. Domestic numbers are rendered as
// "(0AA) XXXX-XXXX": the two digits after the trunk zero are the area
// code and the remaining subscriber digits are split into two halves
// around a hyphen, the first half taking any odd extra digit.
//
// Formatting recovers only the canonical digits, never the punctuation
// originally typed by the user.
func Format(raw *string) *string {
	if raw == nil {
		return nil
	}
	number := *raw
	if number == "" {
		return &number
	}
	if strings.HasPrefix(number, "00") {
		formatted := "+" + number[2:]
		return &formatted
	}
	// Too short to carry a trunk zero, an area code, and a subscriber
	// number; show the digits as stored.
	if len(number) < 4 {
		return &number
	}
	area := number[:3]
	subscriber := number[3:]
	split := (len(subscriber) + 1) / 2
	formatted := "(" + area + ") " + subscriber[:split] + "-" + subscriber[split:]
	return &formatted
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
