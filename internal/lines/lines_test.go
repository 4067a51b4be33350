package lines

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func componentLine(qty, price, tax string) LineItem {
	l := NewComponentLine()
	l.ComponentID = 7
	l.SetQuantity(dec(qty))
	l.SetUnitPrice(dec(price))
	l.SetTax(dec(tax))
	return l
}

func TestCompute_SingleLine(t *testing.T) {
	totals := Compute([]LineItem{componentLine("2", "1000", "10")})

	if !totals.Untaxed.Equal(dec("2000")) {
		t.Fatalf("expected untaxed 2000 got %s", totals.Untaxed)
	}
	if !totals.Tax.Equal(dec("200")) {
		t.Fatalf("expected tax 200 got %s", totals.Tax)
	}
	if !totals.Total.Equal(dec("2200")) {
		t.Fatalf("expected total 2200 got %s", totals.Total)
	}
}

func TestCompute_EmptyIsZero(t *testing.T) {
	totals := Compute(nil)
	if !totals.Untaxed.IsZero() || !totals.Tax.IsZero() || !totals.Total.IsZero() {
		t.Fatalf("expected zero totals got %+v", totals)
	}
}

func TestCompute_SkipsSections(t *testing.T) {
	section := NewSectionLine("Hardware")
	section.Quantity = dec("5")
	section.UnitPrice = dec("99")

	totals := Compute([]LineItem{section, componentLine("3", "10.50", "0")})
	if !totals.Untaxed.Equal(dec("31.5")) {
		t.Fatalf("expected untaxed 31.5 got %s", totals.Untaxed)
	}
	if !totals.Tax.IsZero() {
		t.Fatalf("expected no tax got %s", totals.Tax)
	}
}

func TestCompute_TotalIsUntaxedPlusTax(t *testing.T) {
	items := []LineItem{
		componentLine("1.5", "19.99", "7"),
		componentLine("3", "0.10", "21"),
		NewSectionLine("Services"),
		componentLine("12", "333.33", "12.5"),
		componentLine("0.25", "4", "100"),
	}
	totals := Compute(items)
	if !totals.Untaxed.Add(totals.Tax).Equal(totals.Total) {
		t.Fatalf("untaxed %s + tax %s != total %s", totals.Untaxed, totals.Tax, totals.Total)
	}
}

func TestLineItem_SubtotalFollowsEdits(t *testing.T) {
	l := componentLine("2", "5", "0")
	if !l.Subtotal().Equal(dec("10")) {
		t.Fatalf("expected subtotal 10 got %s", l.Subtotal())
	}
	l.SetQuantity(dec("4"))
	if !l.Subtotal().Equal(dec("20")) {
		t.Fatalf("expected subtotal 20 got %s", l.Subtotal())
	}

	f := NewNumberFormat("en-US", "$")
	if err := l.BlurUnitPrice(f, "1,250.50"); err != nil {
		t.Fatalf("blur: %v", err)
	}
	if !l.UnitPrice.Equal(dec("1250.5")) {
		t.Fatalf("expected price 1250.5 got %s", l.UnitPrice)
	}
	if !l.Subtotal().Equal(dec("5002")) {
		t.Fatalf("expected subtotal 5002 got %s", l.Subtotal())
	}
}

func TestLineItem_BlurRejectsGarbage(t *testing.T) {
	l := componentLine("2", "5", "0")
	f := NewNumberFormat("en-US", "$")
	if err := l.BlurUnitPrice(f, "abc"); err == nil {
		t.Fatalf("expected error for non-numeric price")
	}
	if !l.Subtotal().Equal(dec("10")) {
		t.Fatalf("expected subtotal unchanged got %s", l.Subtotal())
	}
}

func TestLineItem_ApplyReferenceKeepsTypedDescription(t *testing.T) {
	l := NewComponentLine()
	l.SetQuantity(dec("3"))
	l.SetDescription("custom")
	l.ApplyReference(dec("12"), "Steel bolt M8")
	if l.Description != "custom" {
		t.Fatalf("expected description kept got %q", l.Description)
	}
	if !l.Subtotal().Equal(dec("36")) {
		t.Fatalf("expected subtotal 36 got %s", l.Subtotal())
	}

	fresh := NewComponentLine()
	fresh.ApplyReference(dec("4"), "Washer")
	if fresh.Description != "Washer" {
		t.Fatalf("expected reference description got %q", fresh.Description)
	}
}

func TestLineItem_ApplyReferenceReplacesServerDescription(t *testing.T) {
	l := RestoreLine(KindComponent, 1, "Steel bolt M8", dec("200"), dec("0.35"), dec("10"))
	l.ComponentID = 3
	l.ApplyReference(dec("2.5"), "Hinge")
	if l.Description != "Hinge" {
		t.Fatalf("expected description of the new component got %q", l.Description)
	}

	l.SetDescription("")
	l.ApplyReference(dec("2.5"), "Hinge 40mm")
	if l.Description != "Hinge 40mm" {
		t.Fatalf("cleared description must be filled again, got %q", l.Description)
	}
}

func TestRestoreLine_SectionHasNoAmounts(t *testing.T) {
	l := RestoreLine(KindSection, 0, "Labour", dec("3"), dec("3"), dec("3"))
	if !l.Subtotal().IsZero() || !l.Quantity.IsZero() {
		t.Fatalf("expected section without amounts got %+v", l)
	}
	if l.Key == "" {
		t.Fatalf("expected a row key")
	}
}
