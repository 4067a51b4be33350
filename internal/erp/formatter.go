package erp

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/mikelcalvo/erp-front/internal/lines"
	"github.com/shopspring/decimal"
)

// wireItem is a line in API shape. Amounts are raw numbers.
type wireItem struct {
	ID          *int    `json:"id"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Qty         float64 `json:"qty"`
	UnitPrice   float64 `json:"unit_price"`
	Tax         float64 `json:"tax"`
	Subtotal    float64 `json:"subtotal"`
}

// responseItem decodes amounts exactly
type responseItem struct {
	ID          int             `json:"id"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Qty         decimal.Decimal `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Tax         decimal.Decimal `json:"tax"`
}

type responseDocument struct {
	ID            int                 `json:"id"`
	State         int                 `json:"state"`
	PaymentStatus int                 `json:"payment_status"`
	Untaxed       decimal.NullDecimal `json:"untaxed"`
	Tax           decimal.NullDecimal `json:"tax"`
	Total         decimal.NullDecimal `json:"total"`
	Items         []responseItem      `json:"items"`
}

// keys handled explicitly by ApplyResponse, never copied into Extra
var structuralKeys = map[string]bool{
	"id": true, "state": true, "payment_status": true, "items": true,
	"untaxed": true, "tax": true, "total": true,
}

// Formatter maps documents between display shape and API shape
type Formatter struct {
	Format *lines.NumberFormat
}

// BuildRequest shapes the body for a mutating action
func (f *Formatter) BuildRequest(doc *Document, action Action) (map[string]interface{}, error) {
	body := make(map[string]interface{})

	for _, field := range doc.Type.Fields {
		value, err := f.fieldValue(doc.Type, field, doc.Fields[field])
		if err != nil {
			return nil, err
		}
		body[field] = value
	}

	items := f.items(doc.Items)
	totals := lines.Compute(doc.Items)

	if action == ActionCreateInvoice {
		target := doc.Type.InvoiceType()
		invoice := map[string]interface{}{
			"type":           target.Key,
			"state":          target.Draft(),
			"payment_status": PaymentUnpaid,
		}
		invoice[target.PartyField] = body[doc.Type.PartyField]
		invoice[target.LinkField] = doc.ID
		invoice["items"] = items
		setTotals(invoice, totals)
		return invoice, nil
	}

	if doc.Type.Invoice {
		body["type"] = doc.Type.Key
	}
	body["state"] = doc.TargetState(action)
	body["items"] = items
	setTotals(body, totals)
	return body, nil
}

func setTotals(body map[string]interface{}, t lines.Totals) {
	body["untaxed"] = t.Untaxed.InexactFloat64()
	body["tax"] = t.Tax.InexactFloat64()
	body["total"] = t.Total.InexactFloat64()
}

func (f *Formatter) fieldValue(t DocType, field, display string) (interface{}, error) {
	display = strings.TrimSpace(display)
	if !t.IsNumeric(field) {
		if display == "" {
			return nil, nil
		}
		return display, nil
	}
	if display == "" {
		return nil, nil
	}
	d, err := f.Format.Unformat(display)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	if d.IsInteger() {
		return d.IntPart(), nil
	}
	return d.InexactFloat64(), nil
}

func (f *Formatter) items(in []lines.LineItem) []wireItem {
	out := make([]wireItem, 0, len(in))
	for _, l := range in {
		w := wireItem{
			Type:        string(l.Kind),
			Description: l.Description,
		}
		if !l.IsSection() {
			if l.ComponentID != 0 {
				id := l.ComponentID
				w.ID = &id
			}
			w.Qty = l.Quantity.InexactFloat64()
			w.UnitPrice = l.UnitPrice.InexactFloat64()
			w.Tax = l.Tax.InexactFloat64()
			w.Subtotal = l.Subtotal().InexactFloat64()
		}
		out = append(out, w)
	}
	return out
}

// ApplyResponse replaces the document with the server's canonical data.
// Unsaved local edits are discarded.
func (f *Formatter) ApplyResponse(doc *Document, data json.RawMessage) error {
	var wire responseDocument
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}

	fields := make(map[string]string, len(doc.Type.Fields))
	tracked := make(map[string]bool, len(doc.Type.Fields))
	for _, field := range doc.Type.Fields {
		fields[field] = f.displayValue(raw[field])
		tracked[field] = true
	}

	extra := make(map[string]interface{})
	for k, v := range raw {
		if tracked[k] || structuralKeys[k] {
			continue
		}
		extra[k] = v
	}

	items := make([]lines.LineItem, 0, len(wire.Items))
	for _, it := range wire.Items {
		kind := lines.KindComponent
		if it.Type == string(lines.KindSection) {
			kind = lines.KindSection
		}
		items = append(items, lines.RestoreLine(kind, it.ID, it.Description, it.Qty, it.UnitPrice, it.Tax))
	}

	totals := lines.Compute(items)
	if wire.Untaxed.Valid {
		totals.Untaxed = wire.Untaxed.Decimal
	}
	if wire.Tax.Valid {
		totals.Tax = wire.Tax.Decimal
	}
	if wire.Total.Valid {
		totals.Total = wire.Total.Decimal
	}

	doc.ID = wire.ID
	doc.State = wire.State
	doc.PaymentStatus = wire.PaymentStatus
	doc.Fields = fields
	doc.Items = items
	doc.Totals = totals
	doc.Extra = extra
	return nil
}

func (f *Formatter) displayValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return f.Format.Format(decimal.NewFromFloat(x))
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprintf("%v", v)
}

// FieldErrors are validation messages distributed to their inputs
type FieldErrors struct {
	Form map[string]string
	Rows map[int]map[string]string
}

// DistributeErrors routes dotted error keys to rows and form fields.
// "items.2.unit_price" lands on row 2, column unit_price; anything else
// is a form level field. The first message of each key is kept.
func DistributeErrors(errs map[string][]string) FieldErrors {
	fe := FieldErrors{
		Form: make(map[string]string),
		Rows: make(map[int]map[string]string),
	}
	for key, messages := range errs {
		if len(messages) == 0 {
			continue
		}
		msg := messages[0]
		parts := strings.SplitN(key, ".", 3)
		if len(parts) >= 2 && parts[0] == "items" {
			if row, err := strconv.Atoi(parts[1]); err == nil {
				field := "row"
				if len(parts) == 3 {
					field = parts[2]
				}
				if fe.Rows[row] == nil {
					fe.Rows[row] = make(map[string]string)
				}
				fe.Rows[row][field] = msg
				continue
			}
		}
		fe.Form[key] = msg
	}
	return fe
}

// Field returns the message for a form field
func (fe FieldErrors) Field(name string) string {
	return fe.Form[name]
}

// Row returns the message for a cell of row i
func (fe FieldErrors) Row(i int, field string) string {
	return fe.Rows[i][field]
}

func (fe FieldErrors) Empty() bool {
	return len(fe.Form) == 0 && len(fe.Rows) == 0
}

// Lines renders every message as "label: message", rows first
func (fe FieldErrors) Lines() []string {
	var out []string
	rows := make([]int, 0, len(fe.Rows))
	for r := range fe.Rows {
		rows = append(rows, r)
	}
	sort.Ints(rows)
	for _, r := range rows {
		cols := make([]string, 0, len(fe.Rows[r]))
		for c := range fe.Rows[r] {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		for _, c := range cols {
			out = append(out, fmt.Sprintf("line %d %s: %s", r+1, c, fe.Rows[r][c]))
		}
	}
	fields := make([]string, 0, len(fe.Form))
	for k := range fe.Form {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		out = append(out, fmt.Sprintf("%s: %s", k, fe.Form[k]))
	}
	return out
}
