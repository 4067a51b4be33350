package erp

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mikelcalvo/erp-front/internal/lines"
	"github.com/mikelcalvo/erp-front/internal/state"
	"github.com/shopspring/decimal"
)

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+o":
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	case "ctrl+p":
		return tea.KeyMsg{Type: tea.KeyCtrlP}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	next, ok := updated.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", updated)
	}
	return next, cmd
}

// openRFQ loads the seeded RFQ from the mock API into the editor
func openRFQ(t *testing.T) (Model, *Client) {
	t.Helper()
	c := newMockClient(t)
	doc, err := c.LoadDocument(context.Background(), RFQ, 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m := NewTUI(c, state.NewSession())
	m.width, m.height = 120, 40
	m.listType = RFQ
	m, _ = send(t, m, documentLoadedMsg{doc})
	return m, c
}

// editCell types text into a cell of row and commits it
func editCell(t *testing.T, m Model, row int, col, text string) (Model, tea.Cmd) {
	t.Helper()
	m.focusIndex = len(m.inputs)
	m.updateFocus()
	m.table.Select(row)
	m.table.Move(len(m.doc.Items), 0, -10)
	for i := 0; i < 10 && m.table.Column() != col; i++ {
		m.table.Move(len(m.doc.Items), 0, 1)
	}
	if m.table.Column() != col {
		t.Fatalf("column %s not found", col)
	}
	if !m.table.Begin(m.doc.Items[row]) {
		t.Fatalf("cell %d/%s is read-only", row, col)
	}
	m.table.input.SetValue(text)
	return send(t, m, keyMsg("enter"))
}

func TestEditor_OpenTakesCleanSnapshot(t *testing.T) {
	m, _ := openRFQ(t)
	if m.view != ViewEditor {
		t.Fatalf("expected editor view got %d", m.view)
	}
	if m.Dirty() {
		t.Fatalf("freshly loaded document must be clean")
	}
	if !m.aggregator.Totals().Total.Equal(decimal.NewFromInt(77)) {
		t.Fatalf("expected server total 77 got %s", m.aggregator.Totals().Total)
	}
	if m.inputs[1].Value() != "AZ-2231" {
		t.Fatalf("expected vendor reference in header input got %q", m.inputs[1].Value())
	}
}

func TestEditor_TotalsSettleOnNewestTick(t *testing.T) {
	m, _ := openRFQ(t)

	m, _ = editCell(t, m, 0, colQty, "300")
	stale := m.aggregator.Seq()
	m, _ = editCell(t, m, 0, colUnitPrice, "0.50")
	latest := m.aggregator.Seq()
	if latest == stale {
		t.Fatalf("second edit must restart the window")
	}
	if !m.Dirty() {
		t.Fatalf("expected dirty after edits")
	}

	m, _ = send(t, m, totalsDueMsg{seq: stale})
	if !m.aggregator.Pending() {
		t.Fatalf("stale tick must not settle")
	}
	if !m.aggregator.Totals().Total.Equal(decimal.NewFromInt(77)) {
		t.Fatalf("totals changed on a stale tick: %s", m.aggregator.Totals().Total)
	}

	m, _ = send(t, m, totalsDueMsg{seq: latest})
	if m.aggregator.Pending() {
		t.Fatalf("newest tick must settle")
	}
	// 300 x 0.50 = 150, tax 10%
	if got := m.aggregator.Totals().Total; !got.Equal(decimal.NewFromInt(165)) {
		t.Fatalf("expected total 165 got %s", got)
	}
}

func TestEditor_RejectsInvalidCell(t *testing.T) {
	m, _ := openRFQ(t)

	m, cmd := editCell(t, m, 0, colTax, "150")
	if cmd != nil {
		t.Fatalf("invalid tax must not schedule totals")
	}
	if m.messageType != "error" {
		t.Fatalf("expected error message got %q", m.message)
	}
	if !m.doc.Items[0].Tax.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("row must keep its tax, got %s", m.doc.Items[0].Tax)
	}
}

func TestEditor_DropsStaleLookup(t *testing.T) {
	m, _ := openRFQ(t)
	key := m.doc.Items[0].Key

	m, _ = editCell(t, m, 0, colID, "2")
	first := m.lookups[key].Seq()
	m, _ = editCell(t, m, 0, colID, "3")
	latest := m.lookups[key].Seq()

	if _, cmd := send(t, m, lookupDueMsg{key: key, seq: first, id: 2}); cmd != nil {
		t.Fatalf("superseded lookup must not hit the API")
	}

	m, cmd := send(t, m, componentLoadedMsg{key: key, seq: first,
		component: &Component{ID: 2, Name: "Washer", Price: decimal.NewFromInt(9)}})
	if cmd != nil {
		t.Fatalf("stale answer must not touch totals")
	}
	if !m.doc.Items[0].UnitPrice.Equal(decimal.RequireFromString("0.35")) {
		t.Fatalf("stale answer applied: %s", m.doc.Items[0].UnitPrice)
	}

	m, cmd = send(t, m, componentLoadedMsg{key: key, seq: latest,
		component: &Component{ID: 3, Name: "Hinge", Price: decimal.RequireFromString("2.5")}})
	if cmd == nil {
		t.Fatalf("applied answer must schedule totals")
	}
	if !m.doc.Items[0].UnitPrice.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("expected reference price 2.5 got %s", m.doc.Items[0].UnitPrice)
	}
	if m.doc.Items[0].Description != "Hinge" {
		t.Fatalf("expected description of the new component got %q", m.doc.Items[0].Description)
	}
}

func TestEditor_LookupKeepsTypedDescription(t *testing.T) {
	m, _ := openRFQ(t)
	key := m.doc.Items[0].Key

	m, _ = editCell(t, m, 0, colDescription, "Bolts for the east rack")
	m, _ = editCell(t, m, 0, colID, "3")
	m, _ = send(t, m, componentLoadedMsg{key: key, seq: m.lookups[key].Seq(),
		component: &Component{ID: 3, Name: "Hinge", Price: decimal.RequireFromString("2.5")}})

	if m.doc.Items[0].Description != "Bolts for the east rack" {
		t.Fatalf("typed description must be kept, got %q", m.doc.Items[0].Description)
	}
	if !m.doc.Items[0].UnitPrice.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("expected reference price 2.5 got %s", m.doc.Items[0].UnitPrice)
	}
}

func TestEditor_UnknownComponentMarksRow(t *testing.T) {
	m, _ := openRFQ(t)
	key := m.doc.Items[0].Key

	m, _ = editCell(t, m, 0, colID, "99")
	m, _ = send(t, m, componentLoadedMsg{key: key, seq: m.lookups[key].Seq(), err: &APIError{Status: http.StatusNotFound}})
	if m.fieldErrors.Row(0, colID) != "unknown component" {
		t.Fatalf("expected unknown component on row 0 got %+v", m.fieldErrors)
	}
}

func TestEditor_RejectedSaveKeepsRows(t *testing.T) {
	m, _ := openRFQ(t)

	m, _ = editCell(t, m, 0, colQty, "5")
	m.busy = true
	m, _ = send(t, m, mutationDoneMsg{action: ActionSave, err: &APIError{
		Status: http.StatusUnprocessableEntity,
		Errors: map[string][]string{
			"items.0.qty":      {"must be at least 10"},
			"vendor_reference": {"too long"},
		},
	}})

	if m.busy {
		t.Fatalf("busy must clear when the answer arrives")
	}
	if !m.Dirty() {
		t.Fatalf("rejected save must keep the document dirty")
	}
	if !m.doc.Items[0].Quantity.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("rejected save must keep local rows, got qty %s", m.doc.Items[0].Quantity)
	}
	if m.fieldErrors.Row(0, colQty) != "must be at least 10" {
		t.Fatalf("expected row error got %+v", m.fieldErrors)
	}
	if m.fieldErrors.Field("vendor_reference") != "too long" {
		t.Fatalf("expected form error got %+v", m.fieldErrors)
	}

	m, _ = editCell(t, m, 0, colQty, "10")
	if m.fieldErrors.Row(0, colQty) != "" {
		t.Fatalf("editing the cell must clear its error")
	}
}

func TestEditor_ConfirmReplacesDocument(t *testing.T) {
	m, _ := openRFQ(t)

	m, cmd := send(t, m, keyMsg("ctrl+o"))
	if cmd != nil || m.view != ViewConfirmAction {
		t.Fatalf("confirm must ask first, view %d", m.view)
	}
	m, cmd = send(t, m, keyMsg("y"))
	if cmd == nil || !m.busy {
		t.Fatalf("expected mutation to start")
	}

	m, _ = send(t, m, cmd())
	if m.busy {
		t.Fatalf("busy must clear")
	}
	if m.doc.State != OrderConfirmed {
		t.Fatalf("expected confirmed got %d", m.doc.State)
	}
	if m.doc.Editable() {
		t.Fatalf("confirmed order must be read-only")
	}
	if m.Dirty() {
		t.Fatalf("server answer must become the clean snapshot")
	}
	if m.notificationType != "success" {
		t.Fatalf("expected success notification got %q", m.notification)
	}
}

func TestEditor_SaveWhenClean(t *testing.T) {
	m, _ := openRFQ(t)

	m, cmd := send(t, m, keyMsg("ctrl+s"))
	if cmd != nil || m.busy {
		t.Fatalf("clean document must not be sent")
	}
	if m.message != "Nothing to save" {
		t.Fatalf("unexpected message %q", m.message)
	}
}

func TestEditor_EscAsksBeforeDiscarding(t *testing.T) {
	m, _ := openRFQ(t)
	m, _ = editCell(t, m, 0, colQty, "7")

	m, _ = send(t, m, keyMsg("esc"))
	if m.view != ViewConfirmAction || m.confirmAction != actionDiscard {
		t.Fatalf("expected discard prompt, view %d action %s", m.view, m.confirmAction)
	}
	m, _ = send(t, m, keyMsg("n"))
	if m.view != ViewEditor || !m.Dirty() {
		t.Fatalf("declining must return to the dirty editor")
	}
}

func TestPaymentForm(t *testing.T) {
	c := newMockClient(t)
	ctx := context.Background()

	doc := NewDocument(Invoice)
	doc.Fields["customer_id"] = "1"
	desk, err := c.Component(ctx, Invoice, 2)
	if err != nil {
		t.Fatalf("component: %v", err)
	}
	m := NewTUI(c, state.NewSession())
	m.width, m.height = 120, 40
	m.listType = Invoice
	m, _ = send(t, m, documentLoadedMsg{doc})
	line := lines.NewComponentLine()
	line.ComponentID = desk.ID
	line.ApplyReference(desk.Price, desk.Label())
	m.doc.Items = append(m.doc.Items, line)
	if err := c.Mutate(ctx, m.doc, ActionCreate); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := c.Mutate(ctx, m.doc, ActionConfirm); err != nil {
		t.Fatalf("post: %v", err)
	}
	m, _ = send(t, m, documentLoadedMsg{m.doc})

	m, _ = send(t, m, keyMsg("ctrl+p"))
	if m.view != ViewPayment {
		t.Fatalf("expected payment view got %d", m.view)
	}
	if m.payInputs[0].Value() != "450.00" {
		t.Fatalf("expected amount prefilled with total got %q", m.payInputs[0].Value())
	}

	m.payInputs[2].SetValue("card")
	m, cmd := send(t, m, keyMsg("enter"))
	if cmd != nil {
		t.Fatalf("invalid payment must not be sent")
	}
	if m.payErrs["Journal"] != "oneof" {
		t.Fatalf("expected journal violation got %v", m.payErrs)
	}

	m.payInputs[2].SetValue("cash")
	m, cmd = send(t, m, keyMsg("enter"))
	if cmd == nil {
		t.Fatalf("expected payment request")
	}
	m, _ = send(t, m, cmd())
	if m.view != ViewEditor {
		t.Fatalf("expected editor after payment got %d", m.view)
	}
	if m.doc.PaymentStatus != PaymentPaid {
		t.Fatalf("expected paid invoice got %d", m.doc.PaymentStatus)
	}
}

func TestToggleThemePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := state.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	session := state.NewSession()
	session.Mount(store)
	if err := session.Hydrate(); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	t.Cleanup(func() { applyTheme(state.ThemeDark) })

	m := NewTUI(NewClient(testConfig("http://127.0.0.1:1"), nil), session)
	m, _ = send(t, m, keyMsg("ctrl+t"))
	if m.notificationType != "success" {
		t.Fatalf("expected theme saved, got %q", m.notification)
	}
	store.Close()

	reopened, err := state.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	theme, ok, err := reopened.Get(state.KeyTheme)
	if err != nil || !ok || theme != state.ThemeLight {
		t.Fatalf("expected light theme stored, got %q %v %v", theme, ok, err)
	}
}

func TestLineTable_Capabilities(t *testing.T) {
	format := testFormatter("en-US").Format
	line := lines.NewComponentLine()

	invoice := CapabilitiesFor(NewDocument(Invoice))
	if !invoice.Editable || invoice.Sections {
		t.Fatalf("draft invoice: expected editable without sections got %+v", invoice)
	}

	confirmed := NewDocument(RFQ)
	confirmed.ID = 4
	confirmed.State = OrderConfirmed
	caps := CapabilitiesFor(confirmed)
	if caps.Editable || !caps.Sections {
		t.Fatalf("confirmed order: expected read-only with sections got %+v", caps)
	}
	table := NewLineTable(caps, format)
	if table.Begin(line) {
		t.Fatalf("read-only table must not open a cell")
	}

	table = NewLineTable(CapabilitiesFor(NewDocument(RFQ)), format)
	table.Move(1, 0, 10)
	if table.Column() != colSubtotal {
		t.Fatalf("expected subtotal as last column got %s", table.Column())
	}
	if table.Begin(line) {
		t.Fatalf("derived subtotal must not be editable")
	}
}
