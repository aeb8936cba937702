package core

import "testing"

func TestParseAmountInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"plain digits read as cents", "100", 100},
		{"four digits", "1234", 1234},
		{"already masked", "R$ 12,34", 1234},
		{"dots and commas stripped", "1.234,56", 123456},
		{"empty input is zero", "", 0},
		{"no digits is zero", "R$ ,", 0},
		{"leading zeros", "0005", 5},
		{"all zeros", "000", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAmountInput(tt.input)
			if got.Cents != tt.want {
				t.Errorf("ParseAmountInput(%q) = %d, want %d", tt.input, got.Cents, tt.want)
			}
		})
	}
}

func TestFormatInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"R$", ""},
		{"1", "R$ 0,01"},
		{"100", "R$ 1,00"},
		{"123456", "R$ 1.234,56"},
	}

	for _, tt := range tests {
		if got := FormatInput(tt.input); got != tt.want {
			t.Errorf("FormatInput(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// Re-parsing a masked string must yield the same cents as parsing the raw
// digits: the mask only ever adds non-digit characters.
func TestParseFormatRoundTrip(t *testing.T) {
	inputs := []string{"1", "12", "100", "1234", "99999999", "000120"}
	for _, s := range inputs {
		direct := ParseAmountInput(s)
		masked := ParseAmountInput(FormatInput(s))
		if direct != masked {
			t.Errorf("round trip mismatch for %q: direct=%d masked=%d", s, direct.Cents, masked.Cents)
		}
	}
}

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "R$ 0,00"},
		{100, "R$ 1,00"},
		{123456, "R$ 1.234,56"},
		{100000000, "R$ 1.000.000,00"},
		{-2550, "-R$ 25,50"},
	}

	for _, tt := range tests {
		if got := FormatBRL(Money{Cents: tt.cents}); got != tt.want {
			t.Errorf("FormatBRL(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestFormatPlain(t *testing.T) {
	if got := FormatPlain(Money{Cents: 2000}); got != "20.00" {
		t.Errorf("FormatPlain(2000) = %q, want %q", got, "20.00")
	}
	if got := FormatPlain(Money{Cents: 52000}); got != "520.00" {
		t.Errorf("FormatPlain(52000) = %q, want %q", got, "520.00")
	}
}
