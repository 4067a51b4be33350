package lines

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind tells component rows apart from section headers
type Kind string

const (
	KindComponent Kind = "component"
	KindSection   Kind = "section"
)

// LineItem is one purchased/sold component or a section header
type LineItem struct {
	Key         string // client-side row key, never sent to the API
	Kind        Kind
	ComponentID int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Tax         decimal.Decimal // percentage, 0-100
	subtotal    decimal.Decimal
	described   bool // description typed by the user
}

// NewComponentLine returns an empty component row with quantity 1
func NewComponentLine() LineItem {
	return LineItem{
		Key:      uuid.NewString(),
		Kind:     KindComponent,
		Quantity: decimal.NewFromInt(1),
	}
}

// NewSectionLine returns a section header row
func NewSectionLine(description string) LineItem {
	return LineItem{
		Key:         uuid.NewString(),
		Kind:        KindSection,
		Description: description,
	}
}

// RestoreLine rebuilds a row from server values. The subtotal is always
// re-derived, whatever the server sent alongside.
func RestoreLine(kind Kind, componentID int, description string, qty, unitPrice, tax decimal.Decimal) LineItem {
	item := LineItem{
		Key:         uuid.NewString(),
		Kind:        kind,
		ComponentID: componentID,
		Description: description,
	}
	if kind == KindSection {
		return item
	}
	item.Quantity = qty
	item.UnitPrice = unitPrice
	item.Tax = tax
	item.recompute()
	return item
}

func (l *LineItem) IsSection() bool { return l.Kind == KindSection }

// Subtotal is quantity x unit price; tax is applied only to aggregate totals
func (l LineItem) Subtotal() decimal.Decimal { return l.subtotal }

func (l *LineItem) SetQuantity(q decimal.Decimal) {
	l.Quantity = q
	l.recompute()
}

func (l *LineItem) SetUnitPrice(p decimal.Decimal) {
	l.UnitPrice = p
	l.recompute()
}

func (l *LineItem) SetTax(t decimal.Decimal) {
	l.Tax = t
}

// BlurUnitPrice handles a price typed in display form: the text is
// unformatted, stored, and the subtotal re-derived from it.
func (l *LineItem) BlurUnitPrice(f *NumberFormat, text string) error {
	p, err := f.Unformat(text)
	if err != nil {
		return err
	}
	l.SetUnitPrice(p)
	return nil
}

// BlurQuantity is the quantity counterpart of BlurUnitPrice
func (l *LineItem) BlurQuantity(f *NumberFormat, text string) error {
	q, err := f.Unformat(text)
	if err != nil {
		return err
	}
	l.SetQuantity(q)
	return nil
}

// SetDescription stores a description typed by the user. Clearing it lets
// the next reference lookup fill it again.
func (l *LineItem) SetDescription(text string) {
	l.Description = text
	l.described = text != ""
}

// ApplyReference fills a row with the reference price and description of
// its component. Only a description the user typed is kept; one that came
// from a previous component is replaced.
func (l *LineItem) ApplyReference(price decimal.Decimal, description string) {
	if !l.described {
		l.Description = description
	}
	l.SetUnitPrice(price)
}

func (l *LineItem) recompute() {
	if l.Kind == KindSection {
		l.subtotal = decimal.Zero
		return
	}
	l.subtotal = l.Quantity.Mul(l.UnitPrice)
}
