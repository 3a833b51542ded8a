package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.50", true},
		{".5", "0.50", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"0.001", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{".", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.StringFixed(2) != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got.StringFixed(2), err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"250.75", "250.75", true},
		{"12,5", "12.5", true},
		{" -3 ", "-3", true},
		{"+4", "4", true},
		{"0", "0", true},
		{"5.", "5", true},
		{"1e17", "", false},
		{"1E2", "", false},
		{"$10", "", false},
		{"1 000", "", false},
		{"--1", "", false},
		{"-", "", false},
		{"1.2,3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseDecimal(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestParseLegacyAmount(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
		out  string
		ok   bool
	}{
		{"+$120.00", Income, "120.00", true},
		{"-$4.50", Expense, "4.50", true},
		{"-$1,200.50", Expense, "1200.50", true},
		{"$7.00", Expense, "7.00", true},
		{"+€3.10", Income, "3.10", true},
		{"", "", "", false},
		{"-$abc", "", "", false},
	}
	for _, tc := range cases {
		kind, amount, err := ParseLegacyAmount(tc.in)
		if !tc.ok {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q unexpected error: %v", tc.in, err)
		}
		if kind != tc.kind || amount.StringFixed(2) != tc.out {
			t.Fatalf("%q got (%s, %s), want (%s, %s)", tc.in, kind, amount.StringFixed(2), tc.kind, tc.out)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	if got := FormatMoney("$", decimal.RequireFromString("4995.5")); got != "$4995.50" {
		t.Fatalf("got %q", got)
	}
	if got := FormatMoney("$", decimal.RequireFromString("-4.5")); got != "-$4.50" {
		t.Fatalf("got %q", got)
	}
	if got := FormatSigned("$", Income, decimal.RequireFromString("120")); got != "+$120.00" {
		t.Fatalf("got %q", got)
	}
	if got := FormatSigned("$", Expense, decimal.RequireFromString("4.5")); got != "-$4.50" {
		t.Fatalf("got %q", got)
	}
}
