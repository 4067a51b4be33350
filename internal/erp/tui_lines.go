package erp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mikelcalvo/erp-front/internal/lines"
	"github.com/shopspring/decimal"
)

var hundredPercent = decimal.NewFromInt(100)

// Capabilities select what a line table allows. All six document screens
// share one table.
type Capabilities struct {
	Editable bool // cells can be edited, rows added and removed
	Sections bool // section rows can be added
}

// CapabilitiesFor derives the table capabilities of a document
func CapabilitiesFor(doc *Document) Capabilities {
	return Capabilities{
		Editable: doc.Editable(),
		Sections: !doc.Type.Invoice,
	}
}

// column keys match the API error keys inside items[]
const (
	colID          = "id"
	colDescription = "description"
	colQty         = "qty"
	colUnitPrice   = "unit_price"
	colTax         = "tax"
	colSubtotal    = "subtotal"
)

type column struct {
	key      string
	title    string
	width    int
	editable bool
	numeric  bool
}

// LineTable renders and edits the line items of a document
type LineTable struct {
	Caps    Capabilities
	format  *lines.NumberFormat
	cursor  int
	col     int
	editing bool
	input   textinput.Model
}

func NewLineTable(caps Capabilities, format *lines.NumberFormat) LineTable {
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 64
	return LineTable{Caps: caps, format: format, input: input}
}

func (t LineTable) columns() []column {
	return []column{
		{key: colID, title: "Component", width: 10, editable: true, numeric: true},
		{key: colDescription, title: "Description", width: 30, editable: true},
		{key: colQty, title: "Quantity", width: 10, editable: true, numeric: true},
		{key: colUnitPrice, title: "Unit Price", width: 14, editable: true, numeric: true},
		{key: colTax, title: "Tax %", width: 7, editable: true, numeric: true},
		{key: colSubtotal, title: "Subtotal", width: 16, numeric: true},
	}
}

// Cursor returns the selected row
func (t LineTable) Cursor() int { return t.cursor }

// Column returns the key of the selected column
func (t LineTable) Column() string { return t.columns()[t.col].key }

// Editing reports whether a cell input is open
func (t LineTable) Editing() bool { return t.editing }

// Move shifts the selection, clamped to the table
func (t *LineTable) Move(rows, dRow, dCol int) {
	t.cursor += dRow
	if t.cursor >= rows {
		t.cursor = rows - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	cols := len(t.columns())
	t.col += dCol
	if t.col >= cols {
		t.col = cols - 1
	}
	if t.col < 0 {
		t.col = 0
	}
}

// Select puts the cursor on row i
func (t *LineTable) Select(i int) {
	t.cursor = i
}

func (t LineTable) cellEditable(item lines.LineItem) bool {
	if !t.Caps.Editable {
		return false
	}
	c := t.columns()[t.col]
	if item.IsSection() {
		return c.key == colDescription
	}
	return c.editable
}

// Begin opens the selected cell of item for editing. It returns false when
// the cell is read-only.
func (t *LineTable) Begin(item lines.LineItem) bool {
	if !t.cellEditable(item) {
		return false
	}
	t.input.SetValue(t.editText(item, t.Column()))
	t.input.CursorEnd()
	t.input.Focus()
	t.editing = true
	return true
}

// Cancel closes the cell input without applying it
func (t *LineTable) Cancel() {
	t.input.Blur()
	t.editing = false
}

// Update forwards a key to the open cell input
func (t *LineTable) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return cmd
}

// Commit is the blur handler: the typed text is parsed back into item.
// lookup is set when the component id changed and its reference data must
// be fetched.
func (t *LineTable) Commit(item *lines.LineItem) (lookup bool, err error) {
	text := strings.TrimSpace(t.input.Value())
	key := t.Column()
	t.Cancel()

	switch key {
	case colID:
		id := 0
		if text != "" {
			id, err = strconv.Atoi(text)
			if err != nil || id < 0 {
				return false, fmt.Errorf("component must be a positive number")
			}
		}
		if id == item.ComponentID {
			return false, nil
		}
		item.ComponentID = id
		return id != 0, nil
	case colDescription:
		item.SetDescription(text)
	case colQty:
		return false, item.BlurQuantity(t.format, text)
	case colUnitPrice:
		return false, item.BlurUnitPrice(t.format, text)
	case colTax:
		tax, err := t.format.Unformat(text)
		if err != nil {
			return false, err
		}
		if tax.IsNegative() || tax.GreaterThan(hundredPercent) {
			return false, fmt.Errorf("tax must be between 0 and 100")
		}
		item.SetTax(tax)
	}
	return false, nil
}

// editText is the text a cell input starts from. Amounts are shown in
// display form and unformatted again on commit.
func (t LineTable) editText(item lines.LineItem, key string) string {
	switch key {
	case colID:
		if item.ComponentID == 0 {
			return ""
		}
		return strconv.Itoa(item.ComponentID)
	case colDescription:
		return item.Description
	case colQty:
		return t.format.Format(item.Quantity)
	case colUnitPrice:
		return t.format.Format(item.UnitPrice)
	case colTax:
		return t.format.Format(item.Tax)
	}
	return ""
}

func (t LineTable) displayText(item lines.LineItem, key string) string {
	if key == colSubtotal {
		return t.format.FormatCurrency(item.Subtotal())
	}
	return t.editText(item, key)
}

func fit(s string, width int, right bool) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-1]) + "…"
	}
	pad := strings.Repeat(" ", width-len(r))
	if right {
		return pad + s
	}
	return s + pad
}

// View renders the table. Row errors are printed under their row.
func (t LineTable) View(items []lines.LineItem, errs FieldErrors, focused bool) string {
	cols := t.columns()
	var b strings.Builder

	header := make([]string, 0, len(cols))
	for _, c := range cols {
		header = append(header, fit(c.title, c.width, c.numeric))
	}
	b.WriteString("  " + tableHeaderStyle.Render(strings.Join(header, " ")) + "\n")

	if len(items) == 0 {
		b.WriteString(helpStyle.Render("  No lines. ctrl+l: add a line") + "\n")
		return b.String()
	}

	for i, item := range items {
		marker := "  "
		if focused && i == t.cursor {
			marker = selectedStyle.Render("▸ ")
		}

		if item.IsSection() {
			text := sectionStyle.Render(fit("== "+item.Description+" ==", 60, false))
			if focused && i == t.cursor && t.editing {
				text = t.input.View()
			}
			b.WriteString(marker + text + "\n")
		} else {
			cells := make([]string, 0, len(cols))
			for j, c := range cols {
				cell := fit(t.displayText(item, c.key), c.width, c.numeric)
				if errs.Row(i, c.key) != "" {
					cell = errorStyle.Render(cell)
				}
				if focused && i == t.cursor && j == t.col {
					if t.editing {
						cell = t.input.View()
					} else {
						cell = activeCellStyle.Render(cell)
					}
				}
				cells = append(cells, cell)
			}
			b.WriteString(marker + strings.Join(cells, " ") + "\n")
		}

		if rowErrs, ok := errs.Rows[i]; ok {
			for _, c := range append([]column{{key: "row"}}, cols...) {
				if msg := rowErrs[c.key]; msg != "" {
					label := c.key
					if c.title != "" {
						label = c.title
					}
					b.WriteString("    " + errorStyle.Render(fmt.Sprintf("↳ %s: %s", label, msg)) + "\n")
				}
			}
		}
	}
	return b.String()
}
