// Package core provides the pure domain model: money handling, entity
// validation and limit classification. Nothing in this package touches
// the gateway or the network.
//
// Money is held as exact integer cents. Parsing follows the masked-input
// convention: the raw string is reduced to its digits and the trailing
// two digits are the cents, so typing "1234" yields R$ 12,34.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmountInput converts a raw masked-input string to cents.
//
// All non-digit characters are stripped and the remaining digits are read
// as cents. Empty input (or input with no digits at all) yields zero; this
// function never fails.
//
// Examples:
//
//	ParseAmountInput("100")        -> 100  (R$ 1,00)
//	ParseAmountInput("R$ 12,34")   -> 1234
//	ParseAmountInput("")           -> 0
func ParseAmountInput(s string) Money {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return Money{}
	}
	// Drop leading zeros beyond what ParseInt tolerates for very long
	// pasted strings, then guard against overflow.
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return Money{}
	}
	if len(digits) > 18 {
		digits = digits[:18]
	}
	cents, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Money{}
	}
	return Money{Cents: cents}
}

// FormatInput re-applies the currency mask to a partially typed value.
// Empty input stays empty so a form field is not filled with "R$ 0,00"
// before the user types anything.
func FormatInput(s string) string {
	hasDigit := strings.IndexFunc(s, unicode.IsDigit) >= 0
	if !hasDigit {
		return ""
	}
	return FormatBRL(ParseAmountInput(s))
}

// FormatBRL renders the amount as a fixed two-decimal BRL string with
// thousands separators, e.g. "R$ 1.234,56". A zero (or unset) amount
// formats as "R$ 0,00".
func FormatBRL(m Money) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := cents / 100
	rem := cents % 100

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	out := "R$ " + b.String() + "," + twoDigits(rem)
	if neg {
		return "-" + out
	}
	return out
}

// FormatPlain renders the amount with a dot decimal separator and no
// grouping ("520.00"). Used in notification messages and exports where
// locale formatting would get in the way.
func FormatPlain(m Money) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + twoDigits(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

func twoDigits(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}
