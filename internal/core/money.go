// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from user input
// and from the signed display strings older ledgers were stored with.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbol is prefixed to every formatted amount unless the
// caller configures another one.
const DefaultCurrencySymbol = "$"

// ParseDecimal reads a plain decimal number as typed into a form: digits
// with at most one dot or comma separator and an optional leading sign.
// Exponents, grouping and currency symbols are rejected with
// ErrInvalidAmount. The value is not rounded.
//
// Examples:
//
//	ParseDecimal("12,5") -> 12.5, nil
//	ParseDecimal("-3")   -> -3, nil
//	ParseDecimal("1e3")  -> 0, ErrInvalidAmount
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg, s = true, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if s == "" || s == "." || strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if strings.HasSuffix(s, ".") {
		s += "0"
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// ParseAmount converts a decimal string to a positive amount with two
// decimal places.
//
// It follows ParseDecimal and rounds half-up on the third decimal place.
// Signs are rejected: the polarity of a transaction is carried by its Kind,
// never by the amount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := ParseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseLegacyAmount splits a stored display amount such as "+$120.00" or
// "-$1,200.50" into its kind and magnitude.
//
// Records written before kinds were stored separately carry polarity only in
// the leading sign; a missing sign is read as an expense, matching how the
// old screens treated anything that did not start with "+".
func ParseLegacyAmount(s string) (Kind, decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", decimal.Zero, ErrInvalidAmount
	}

	kind := Expense
	switch s[0] {
	case '+':
		kind = Income
		s = s[1:]
	case '-':
		s = s[1:]
	}

	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	s = strings.ReplaceAll(s, ",", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", decimal.Zero, ErrInvalidAmount
	}
	return kind, d.Abs(), nil
}

// FormatMoney renders an amount with the currency symbol and two decimals,
// keeping a leading minus for negative values ("-$4.50").
func FormatMoney(symbol string, d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + symbol + d.Abs().StringFixed(2)
	}
	return symbol + d.StringFixed(2)
}

// FormatSigned renders a magnitude with the sign of its kind ("+$120.00").
func FormatSigned(symbol string, kind Kind, d decimal.Decimal) string {
	return kind.Sign() + symbol + d.Abs().StringFixed(2)
}
