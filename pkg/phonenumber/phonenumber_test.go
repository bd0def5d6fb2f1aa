package phonenumber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCanonicalize(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Canonicalize(nil))
	})

	t.Run("blank stays blank", func(t *testing.T) {
		got := Canonicalize(strPtr(""))
		require.NotNil(t, got)
		assert.Equal(t, "", *got)
	})

	t.Run("no digits at all stays blank", func(t *testing.T) {
		got := Canonicalize(strPtr("ext. n/a"))
		require.NotNil(t, got)
		assert.Equal(t, "", *got)
	})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"direct distance dialing", "53 1234-5678", "05312345678"},
		{"direct distance dialing with trunk zero", "0 53 1234-5678", "05312345678"},
		{"international with leading zeros", "00 55 53 12345-678", "00555312345678"},
		{"punctuation stripped", "(053) 1234-5678", "05312345678"},
		{"short local number", "87654321", "087654321"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Canonicalize(strPtr(tt.input))
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"53 1234-5678",
		"0 53 1234-5678",
		"00 55 53 12345-678",
		"87654321",
		"",
		"0",
		"007",
	}
	for _, input := range inputs {
		once := Canonicalize(strPtr(input))
		require.NotNil(t, once)
		twice := Canonicalize(once)
		require.NotNil(t, twice)
		assert.Equal(t, *once, *twice, "canonicalize(%q) not stable", input)
	}
}

func TestFormat(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Format(nil))
	})

	t.Run("blank stays blank", func(t *testing.T) {
		got := Format(strPtr(""))
		require.NotNil(t, got)
		assert.Equal(t, "", *got)
	})

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"domestic eight digit subscriber", "05312345678", "(053) 1234-5678"},
		{"domestic odd subscriber keeps extra digit up front", "053123456789", "(053) 12345-6789"},
		{"international strips double zero and adds plus", "00555312345678", "+555312345678"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(strPtr(tt.raw))
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestFormatAfterCanonicalizeIsStable(t *testing.T) {
	// Formatting a domestic number then canonicalizing again must land
	// on the same canonical digits: display form only differs by
	// punctuation. International display drops the "00" prefix for a
	// "+", so the property holds for domestic numbers only.
	inputs := []string{"53 1234-5678", "0 53 1234-5678", "87654321"}
	for _, input := range inputs {
		canonical := Canonicalize(strPtr(input))
		require.NotNil(t, canonical)
		display := Format(canonical)
		require.NotNil(t, display)
		recanonical := Canonicalize(display)
		require.NotNil(t, recanonical)
		assert.Equal(t, *canonical, *recanonical, "round trip drifted for %q", input)
	}
}
