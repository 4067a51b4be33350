package lines

import "github.com/shopspring/decimal"

type rowSnapshot struct {
	kind        Kind
	componentID int
	description string
	quantity    decimal.Decimal
	unitPrice   decimal.Decimal
	tax         decimal.Decimal
}

// Tracker decides whether a document differs from its last saved state.
// Only the allow-listed form fields are compared.
type Tracker struct {
	fields []string
	form   map[string]string
	rows   []rowSnapshot
	taken  bool
}

func NewTracker(fields []string) *Tracker {
	return &Tracker{fields: fields}
}

// Snapshot replaces the reference state
func (t *Tracker) Snapshot(form map[string]string, items []LineItem) {
	t.form = make(map[string]string, len(t.fields))
	for _, f := range t.fields {
		t.form[f] = form[f]
	}
	t.rows = make([]rowSnapshot, len(items))
	for i, item := range items {
		t.rows[i] = snapshotRow(item)
	}
	t.taken = true
}

// Dirty reports whether any tracked field or row differs from the snapshot
func (t *Tracker) Dirty(form map[string]string, items []LineItem) bool {
	if !t.taken {
		return false
	}
	for _, f := range t.fields {
		if form[f] != t.form[f] {
			return true
		}
	}
	if len(items) != len(t.rows) {
		return true
	}
	for i, item := range items {
		if !t.rows[i].equal(snapshotRow(item)) {
			return true
		}
	}
	return false
}

// Fields returns the tracked field names
func (t *Tracker) Fields() []string { return t.fields }

func snapshotRow(item LineItem) rowSnapshot {
	return rowSnapshot{
		kind:        item.Kind,
		componentID: item.ComponentID,
		description: item.Description,
		quantity:    item.Quantity,
		unitPrice:   item.UnitPrice,
		tax:         item.Tax,
	}
}

func (r rowSnapshot) equal(o rowSnapshot) bool {
	return r.kind == o.kind &&
		r.componentID == o.componentID &&
		r.description == o.description &&
		r.quantity.Equal(o.quantity) &&
		r.unitPrice.Equal(o.unitPrice) &&
		r.tax.Equal(o.tax)
}
