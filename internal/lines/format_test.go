package lines

import (
	"fmt"
	"testing"
)

func TestNumberFormat_English(t *testing.T) {
	f := NewNumberFormat("en-US", "$")
	cases := []struct {
		in       string
		expected string
	}{
		{"0", "0.00"},
		{"1000", "1,000.00"},
		{"1234567.891", "1,234,567.89"},
		{"-20.5", "-20.50"},
	}
	for _, tc := range cases {
		if got := f.Format(dec(tc.in)); got != tc.expected {
			t.Fatalf("Format(%s) expected %s, got %s", tc.in, tc.expected, got)
		}
	}
	if got := f.FormatCurrency(dec("-1500")); got != "-$1,500.00" {
		t.Fatalf("FormatCurrency expected -$1,500.00 got %s", got)
	}
}

func TestNumberFormat_UnformatAcceptsDisplayStrings(t *testing.T) {
	f := NewNumberFormat("en-US", "$")
	cases := []struct {
		in       string
		expected string
	}{
		{"20000", "20000"},
		{"20,000", "20000"},
		{"$ 20,000.50", "20000.5"},
		{"-$1,234.50", "-1234.5"},
		{"", "0"},
	}
	for _, tc := range cases {
		d, err := f.Unformat(tc.in)
		if err != nil {
			t.Fatalf("Unformat(%q) error: %v", tc.in, err)
		}
		if !d.Equal(dec(tc.expected)) {
			t.Fatalf("Unformat(%q) expected %s, got %s", tc.in, tc.expected, d)
		}
	}
	if _, err := f.Unformat("-"); err == nil {
		t.Fatalf("expected error for a lone sign")
	}
}

func TestNumberFormat_RoundTripTwoDecimals(t *testing.T) {
	for _, locale := range []string{"en-US", "de-DE", "fr-FR"} {
		f := NewNumberFormat(locale, "€")
		for cents := -250000; cents <= 250000; cents += 1237 {
			x := dec(fmt.Sprintf("%d", cents)).Shift(-2)
			back, err := f.Unformat(f.Format(x))
			if err != nil {
				t.Fatalf("%s: Unformat(Format(%s)) error: %v", locale, x, err)
			}
			if !back.Equal(x) {
				t.Fatalf("%s: round trip of %s gave %s (display %q)", locale, x, back, f.Format(x))
			}
			cur, err := f.UnformatCurrency(f.FormatCurrency(x))
			if err != nil || !cur.Equal(x) {
				t.Fatalf("%s: currency round trip of %s gave %s (%v)", locale, x, cur, err)
			}
		}
	}
}

func TestNumberFormat_UnknownLocaleFallsBack(t *testing.T) {
	f := NewNumberFormat("not a locale", "$")
	if got := f.Format(dec("1000")); got != "1,000.00" {
		t.Fatalf("expected english fallback got %s", got)
	}
}
