package lines

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NumberFormat converts between raw decimals and their locale display form.
// Group and decimal separators are taken from the locale's own printer.
type NumberFormat struct {
	Tag      language.Tag
	Currency string
	group    string
	point    string
	printer  *message.Printer
}

// NewNumberFormat builds a formatter for a BCP 47 locale such as "en-US" or
// "de-DE". An unknown locale falls back to English.
func NewNumberFormat(locale, currency string) *NumberFormat {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	f := &NumberFormat{
		Tag:      tag,
		Currency: currency,
		printer:  p,
	}

	// "1.5" or "1,5"
	half := p.Sprintf("%.1f", 1.5)
	f.point = strings.TrimSuffix(strings.TrimPrefix(half, "1"), "5")
	if f.point == "" {
		f.point = "."
	}
	// "1,000", "1.000", "1 000"
	thousand := p.Sprintf("%d", 1000)
	f.group = strings.TrimSuffix(strings.TrimPrefix(thousand, "1"), "000")
	return f
}

// FormatDecimal renders d rounded to places with locale separators
func (f *NumberFormat) FormatDecimal(d decimal.Decimal, places int32) string {
	fixed := d.Abs().StringFixed(places)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.Round(places).IsNegative() {
		b.WriteString("-")
	}
	if n, err := strconv.ParseInt(intPart, 10, 64); err == nil {
		b.WriteString(f.printer.Sprintf("%d", n))
	} else {
		b.WriteString(intPart)
	}
	if frac != "" {
		b.WriteString(f.point)
		b.WriteString(frac)
	}
	return b.String()
}

// FormatCurrency renders d with two places and the currency symbol
func (f *NumberFormat) FormatCurrency(d decimal.Decimal) string {
	s := f.FormatDecimal(d, 2)
	if strings.HasPrefix(s, "-") {
		return "-" + f.Currency + s[1:]
	}
	return f.Currency + s
}

// Format renders quantities and prices with two places
func (f *NumberFormat) Format(d decimal.Decimal) string {
	return f.FormatDecimal(d, 2)
}

// Unformat is the inverse of FormatDecimal. Empty input is zero.
func (f *NumberFormat) Unformat(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return decimal.Zero, nil
	}
	if f.Currency != "" {
		clean = strings.ReplaceAll(clean, f.Currency, "")
	}
	if f.group != "" {
		clean = strings.ReplaceAll(clean, f.group, "")
	}
	clean = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, clean)
	if f.point != "." {
		clean = strings.ReplaceAll(clean, f.point, ".")
	}
	if clean == "" || clean == "-" {
		return decimal.Zero, fmt.Errorf("invalid number: %q", s)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number: %q", s)
	}
	return d, nil
}

// UnformatCurrency accepts the output of FormatCurrency
func (f *NumberFormat) UnformatCurrency(s string) (decimal.Decimal, error) {
	return f.Unformat(s)
}

// Separators returns the locale group and decimal separators
func (f *NumberFormat) Separators() (group, point string) {
	return f.group, f.point
}
