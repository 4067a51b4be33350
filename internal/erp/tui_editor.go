package erp

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mikelcalvo/erp-front/internal/lines"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// actionDiscard leaves a dirty document without saving. It never reaches
// the API.
const actionDiscard Action = "discard"

var actionKeys = []struct {
	key    string
	action Action
}{
	{"ctrl+s", ActionSave},
	{"ctrl+e", ActionSend},
	{"ctrl+o", ActionConfirm},
	{"ctrl+x", ActionCancel},
	{"ctrl+r", ActionReset},
	{"ctrl+b", ActionCreateInvoice},
	{"ctrl+p", ActionRegisterPayment},
}

var titleCaser = cases.Title(language.English)

// fieldLabel turns "vendor_reference" into "Vendor Reference" and drops
// the "_id" suffix of reference fields
func fieldLabel(field string) string {
	field = strings.TrimSuffix(field, "_id")
	return titleCaser.String(strings.ReplaceAll(field, "_", " "))
}

// openDocument shows doc in the editor and takes the clean snapshot
func (m *Model) openDocument(doc *Document) {
	m.doc = doc
	m.view = ViewEditor
	m.tracker = lines.NewTracker(doc.Type.Fields)
	m.tracker.Snapshot(doc.Fields, doc.Items)
	m.aggregator = lines.NewAggregator(lines.TotalsWindow)
	m.aggregator.Override(doc.Totals)
	m.lookups = make(map[string]*lines.Debouncer)
	m.table = NewLineTable(CapabilitiesFor(doc), m.client.Format)
	m.fieldErrors = FieldErrors{}

	m.inputs = make([]textinput.Model, len(doc.Type.Fields))
	for i, field := range doc.Type.Fields {
		m.inputs[i] = textinput.New()
		m.inputs[i].Placeholder = fieldLabel(field)
		m.inputs[i].CharLimit = 80
		m.inputs[i].SetValue(doc.Fields[field])
	}
	m.focusIndex = len(m.inputs)
	if doc.Editable() && len(m.inputs) > 0 {
		m.focusIndex = 0
	}
	m.updateFocus()
}

// Dirty reports whether the open document has unsaved changes
func (m Model) Dirty() bool {
	if m.doc == nil || m.tracker == nil {
		return false
	}
	return m.tracker.Dirty(m.doc.Fields, m.doc.Items)
}

func (m *Model) updateFocus() {
	for i := range m.inputs {
		if i == m.focusIndex {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.doc == nil {
		if msg.String() == "esc" {
			return m.back()
		}
		return m, nil
	}

	if m.table.Editing() {
		switch msg.String() {
		case "esc":
			m.table.Cancel()
			return m, nil
		case "enter", "tab":
			cmd := m.commitCell()
			return m, cmd
		}
		cmd := m.table.Update(msg)
		return m, cmd
	}

	key := msg.String()
	for _, ak := range actionKeys {
		if ak.key == key {
			return m.requestAction(ak.action)
		}
	}

	editable := m.doc.Editable()
	switch key {
	case "esc":
		if m.Dirty() {
			m.confirmAction = actionDiscard
			m.confirmMsg = "Discard unsaved changes?"
			m.prevView = ViewEditor
			m.view = ViewConfirmAction
			return m, nil
		}
		return m.leaveEditor()
	case "tab":
		if editable {
			m.focusIndex = (m.focusIndex + 1) % (len(m.inputs) + 1)
			m.updateFocus()
		}
		return m, nil
	case "shift+tab":
		if editable {
			m.focusIndex--
			if m.focusIndex < 0 {
				m.focusIndex = len(m.inputs)
			}
			m.updateFocus()
		}
		return m, nil
	case "ctrl+g":
		if m.doc.Type.Role == RolePurchase && m.doc.State == OrderConfirmed && !m.doc.Type.Invoice {
			m.view = ViewReceipts
			m.loading = true
			m.crumbs(m.title(), "Receipts")
			return m, m.loadReceipts(m.doc.ID)
		}
		return m, nil
	case "ctrl+l":
		if editable {
			m.doc.Items = append(m.doc.Items, lines.NewComponentLine())
			return m.rowsChanged(len(m.doc.Items) - 1)
		}
		return m, nil
	case "ctrl+k":
		if editable && m.table.Caps.Sections {
			m.doc.Items = append(m.doc.Items, lines.NewSectionLine(""))
			return m.rowsChanged(len(m.doc.Items) - 1)
		}
		return m, nil
	case "ctrl+d":
		if editable && m.focusIndex == len(m.inputs) && len(m.doc.Items) > 0 {
			i := m.table.Cursor()
			delete(m.lookups, m.doc.Items[i].Key)
			m.doc.Items = append(m.doc.Items[:i:i], m.doc.Items[i+1:]...)
			return m.rowsChanged(i)
		}
		return m, nil
	}

	if m.focusIndex < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
		m.doc.Fields[m.doc.Type.Fields[m.focusIndex]] = m.inputs[m.focusIndex].Value()
		return m, cmd
	}

	rows := len(m.doc.Items)
	switch key {
	case "up":
		m.table.Move(rows, -1, 0)
	case "down":
		m.table.Move(rows, 1, 0)
	case "left":
		m.table.Move(rows, 0, -1)
	case "right":
		m.table.Move(rows, 0, 1)
	case "enter":
		if rows > 0 {
			m.table.Begin(m.doc.Items[m.table.Cursor()])
		}
	}
	return m, nil
}

// rowsChanged selects row i after rows were added or removed. Server row
// errors are indexed by position, so they no longer apply.
func (m Model) rowsChanged(i int) (tea.Model, tea.Cmd) {
	m.fieldErrors.Rows = nil
	if i >= len(m.doc.Items) {
		i = len(m.doc.Items) - 1
	}
	if i < 0 {
		i = 0
	}
	m.table.Select(i)
	m.focusIndex = len(m.inputs)
	m.updateFocus()
	cmd := m.touchTotals()
	return m, cmd
}

// commitCell applies the open cell input to its row and schedules the
// totals recompute and, for a new component id, the reference lookup
func (m *Model) commitCell() tea.Cmd {
	i := m.table.Cursor()
	if i >= len(m.doc.Items) {
		m.table.Cancel()
		return nil
	}
	col := m.table.Column()
	item := m.doc.Items[i]
	lookup, err := m.table.Commit(&item)
	if err != nil {
		m.message = err.Error()
		m.messageType = "error"
		return nil
	}
	m.doc.Items[i] = item
	if m.fieldErrors.Rows != nil {
		delete(m.fieldErrors.Rows[i], col)
	}

	cmds := []tea.Cmd{m.touchTotals()}
	if lookup {
		cmds = append(cmds, m.scheduleLookup(item))
	}
	return tea.Batch(cmds...)
}

// touchTotals restarts the totals window with the current rows
func (m *Model) touchTotals() tea.Cmd {
	if m.aggregator == nil || m.doc == nil {
		return nil
	}
	t := m.aggregator.Touch(m.doc.Items)
	return tea.Tick(t.After, func(time.Time) tea.Msg {
		return totalsDueMsg{seq: t.Seq}
	})
}

func (m *Model) scheduleLookup(item lines.LineItem) tea.Cmd {
	d, ok := m.lookups[item.Key]
	if !ok {
		d = lines.NewDebouncer(lines.LookupWindow)
		m.lookups[item.Key] = d
	}
	t := d.Touch()
	key, id := item.Key, item.ComponentID
	return tea.Tick(t.After, func(time.Time) tea.Msg {
		return lookupDueMsg{key: key, seq: t.Seq, id: id}
	})
}

// lookupComponent fetches reference data once the row's window elapsed
func (m Model) lookupComponent(msg lookupDueMsg) tea.Cmd {
	d, ok := m.lookups[msg.key]
	if !ok || !d.Due(msg.seq) || m.doc == nil {
		return nil
	}
	t := m.doc.Type
	return func() tea.Msg {
		ctx, cancel := cliContext()
		defer cancel()
		comp, err := m.client.Component(ctx, t, msg.id)
		return componentLoadedMsg{key: msg.key, seq: msg.seq, component: comp, err: err}
	}
}

// applyComponent fills the row a lookup was made for. Answers for a
// superseded lookup, a removed row or a changed component are dropped.
func (m *Model) applyComponent(msg componentLoadedMsg) bool {
	d, ok := m.lookups[msg.key]
	if !ok || !d.Due(msg.seq) || m.doc == nil {
		return false
	}
	for i := range m.doc.Items {
		item := &m.doc.Items[i]
		if item.Key != msg.key {
			continue
		}
		if msg.err != nil {
			if m.fieldErrors.Rows == nil {
				m.fieldErrors.Rows = make(map[int]map[string]string)
			}
			if m.fieldErrors.Rows[i] == nil {
				m.fieldErrors.Rows[i] = make(map[string]string)
			}
			if errors.Is(msg.err, ErrNotFound) {
				m.fieldErrors.Rows[i][colID] = "unknown component"
			} else {
				m.fieldErrors.Rows[i][colID] = "lookup failed"
				LogError(m.client.Log, "tui", "applyComponent", msg.key, nil, msg.err)
			}
			return false
		}
		if msg.component == nil || item.ComponentID != msg.component.ID {
			return false
		}
		item.ApplyReference(msg.component.Price, msg.component.Label())
		return true
	}
	return false
}

// requestAction starts action, asking for confirmation where it cannot be
// undone from this screen
func (m Model) requestAction(action Action) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	if action == ActionSave && m.doc.IsNew() {
		action = ActionCreate
	}
	if !m.doc.Allows(action) {
		m.message = fmt.Sprintf("%s is not available for a %s in state %s",
			action.Label(m.doc.Type), m.doc.Type.Name, m.doc.Type.StateName(m.doc.State))
		m.messageType = "error"
		return m, nil
	}
	m.message = ""

	switch action {
	case ActionSave:
		if !m.Dirty() {
			m.message = "Nothing to save"
			m.messageType = "success"
			return m, nil
		}
		return m.runMutation(action)
	case ActionCreate, ActionSend:
		return m.runMutation(action)
	case ActionRegisterPayment:
		m.openPaymentForm()
		return m, nil
	}

	m.confirmAction = action
	m.confirmMsg = fmt.Sprintf("%s %s?", action.Label(m.doc.Type), m.title())
	if m.Dirty() && action != ActionCreateInvoice {
		m.confirmMsg += "\n  Unsaved changes are sent along."
	}
	m.prevView = ViewEditor
	m.view = ViewConfirmAction
	return m, nil
}

// runMutation sends action for a copy of the document. The editor keeps
// its rows until the answer arrives.
func (m Model) runMutation(action Action) (tea.Model, tea.Cmd) {
	m.busy = true
	m.view = ViewEditor
	m.aggregator.Flush()
	doc := m.doc.Clone()
	client := m.client
	return m, func() tea.Msg {
		ctx, cancel := cliContext()
		defer cancel()
		if action == ActionCreateInvoice {
			invoice, err := client.CreateFrom(ctx, doc)
			return mutationDoneMsg{action: action, doc: invoice, err: err}
		}
		err := client.Mutate(ctx, doc, action)
		return mutationDoneMsg{action: action, doc: doc, err: err}
	}
}

// mutationDone replaces the document with the server's answer, or keeps
// it dirty and distributes the field errors
func (m Model) mutationDone(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		var verr *ValidationError
		var apiErr *APIError
		switch {
		case errors.As(msg.err, &verr):
			m.view = ViewPayment
			m.payErrs = verr.Fields
			m.message = verr.Error()
		case errors.As(msg.err, &apiErr) && len(apiErr.Errors) > 0:
			m.fieldErrors = DistributeErrors(apiErr.Errors)
			m.message = "Please fix the highlighted fields"
		default:
			m.message = msg.err.Error()
		}
		m.messageType = "error"
		return m, nil
	}

	var text string
	switch msg.action {
	case ActionCreateInvoice:
		text = fmt.Sprintf("Created %s", strings.ToLower(msg.doc.Type.Name))
		m.listType = msg.doc.Type
	case ActionRegisterPayment:
		text = "Payment registered"
		m.view = ViewEditor
		m.payErrs = nil
	default:
		text = fmt.Sprintf("%s: %s", msg.action.Label(msg.doc.Type), msg.doc.Type.StateName(msg.doc.State))
	}
	m.openDocument(msg.doc)
	m.crumbs(m.title())
	m.message = ""
	return m.notify(text, "success", nil)
}

func (m Model) leaveEditor() (tea.Model, tea.Cmd) {
	m.doc = nil
	m.tracker = nil
	m.aggregator = nil
	m.view = ViewList
	m.crumbs()
	m.loading = true
	return m, m.loadDocuments(m.listType)
}

func (m Model) loadReceipts(rfqID int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := cliContext()
		defer cancel()
		receipts, err := m.client.Receipts(ctx, rfqID)
		if err != nil {
			return loadFailedMsg{AsLoadError(err)}
		}
		return receiptsLoadedMsg{receipts}
	}
}

func (m Model) title() string {
	if ref := m.doc.Reference(); ref != "" {
		return m.doc.Type.Name + " " + ref
	}
	if m.doc.IsNew() {
		return "New " + m.doc.Type.Name
	}
	return fmt.Sprintf("%s %d", m.doc.Type.Name, m.doc.ID)
}

func (m Model) partyName() string {
	id := strings.TrimSpace(m.doc.Fields[m.doc.Type.PartyField])
	for _, p := range m.parties {
		if fmt.Sprint(p.ID) == id {
			return p.Name
		}
	}
	if name, ok := m.doc.Extra["party_name"].(string); ok {
		return name
	}
	return ""
}

func (m Model) renderEditor() string {
	if m.loading || m.doc == nil {
		return fmt.Sprintf("\n  %s Loading...", m.spinner.View())
	}
	doc := m.doc

	var b strings.Builder
	b.WriteString(titleStyle.Render(" "+m.title()+" ") + " " + stateBadge(doc.Type, doc.State, doc.PaymentStatus))
	if m.Dirty() {
		b.WriteString(" " + dirtyBadge.Render("Unsaved"))
	}
	if m.busy {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	for i, field := range doc.Type.Fields {
		value := m.inputs[i].View()
		if !doc.Editable() {
			value = doc.Fields[field]
		}
		line := labelStyle.Render(fieldLabel(field)+":") + " " + value
		if field == doc.Type.PartyField {
			if name := m.partyName(); name != "" {
				line += "  " + helpStyle.Render(name)
			}
		}
		if msg := m.fieldErrors.Field(field); msg != "" {
			line += "  " + errorStyle.Render(msg)
		}
		b.WriteString("  " + line + "\n")
	}

	for _, field := range m.formOnlyErrors() {
		b.WriteString("  " + errorStyle.Render(fmt.Sprintf("%s: %s", field, m.fieldErrors.Field(field))) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.table.View(doc.Items, m.fieldErrors, m.focusIndex == len(m.inputs)))
	b.WriteString("\n")

	totals := m.aggregator.Totals()
	pending := ""
	if m.aggregator.Pending() {
		pending = helpStyle.Render(" updating…")
	}
	f := m.client.Format
	b.WriteString(fmt.Sprintf("  %50s %s\n", "Untaxed:", f.FormatCurrency(totals.Untaxed)))
	b.WriteString(fmt.Sprintf("  %50s %s\n", "Tax:", f.FormatCurrency(totals.Tax)))
	b.WriteString(fmt.Sprintf("  %50s %s%s\n", "Total:", totalStyle.Render(f.FormatCurrency(totals.Total)), pending))

	return boxStyle.Render(b.String())
}

// formOnlyErrors are errors for keys with no input on this screen
func (m Model) formOnlyErrors() []string {
	known := make(map[string]bool, len(m.doc.Type.Fields))
	for _, f := range m.doc.Type.Fields {
		known[f] = true
	}
	var out []string
	for k := range m.fieldErrors.Form {
		if !known[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (m Model) editorHelp() string {
	if m.doc == nil {
		return "esc: back"
	}
	if m.table.Editing() {
		return "enter/tab: apply • esc: discard edit"
	}
	var parts []string
	if m.doc.Editable() {
		parts = append(parts, "tab: header/lines", "arrows: move", "enter: edit cell", "ctrl+l: add line")
		if m.table.Caps.Sections {
			parts = append(parts, "ctrl+k: add section")
		}
		parts = append(parts, "ctrl+d: delete line")
	}
	for _, action := range m.doc.Transitions() {
		for _, ak := range actionKeys {
			if ak.action == action || (action == ActionCreate && ak.action == ActionSave) {
				parts = append(parts, fmt.Sprintf("%s: %s", ak.key, strings.ToLower(action.Label(m.doc.Type))))
			}
		}
	}
	if m.doc.Type.Role == RolePurchase && !m.doc.Type.Invoice && m.doc.State == OrderConfirmed {
		parts = append(parts, "ctrl+g: receipts")
	}
	parts = append(parts, "esc: back")
	return strings.Join(parts, " • ")
}
