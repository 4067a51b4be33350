package erp

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

// isOrderList reports whether the list only shows confirmed orders, which
// are reached by confirming a draft rather than created directly
func (t DocType) isOrderList() bool {
	return t.Key == PurchaseOrder.Key || t.Key == SalesOrder.Key
}

// loadDocuments fetches the rows of a list screen
func (m Model) loadDocuments(t DocType) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := cliContext()
		defer cancel()
		rows, err := m.client.ListDocuments(ctx, t)
		if err != nil {
			LogError(m.client.Log, "tui", "loadDocuments", t.Key, nil, err)
			return loadFailedMsg{AsLoadError(err)}
		}
		return documentsLoadedMsg{docType: t, rows: rows}
	}
}

// loadDocument fetches one document for the editor
func (m Model) loadDocument(t DocType, id int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := cliContext()
		defer cancel()
		doc, err := m.client.LoadDocument(ctx, t, id)
		if err != nil {
			LogError(m.client.Log, "tui", "loadDocument", t.Key, map[string]interface{}{"id": id}, err)
			return loadFailedMsg{AsLoadError(err)}
		}
		return documentLoadedMsg{doc}
	}
}

// loadParties fetches the vendors or customers shown next to the party id.
// Failures only cost the name hint.
func (m Model) loadParties(t DocType) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := cliContext()
		defer cancel()
		parties, err := m.client.Parties(ctx, t)
		if err != nil {
			LogError(m.client.Log, "tui", "loadParties", t.Key, nil, err)
			return nil
		}
		return partiesLoadedMsg{parties}
	}
}

func (m Model) deleteDocument(doc *Document) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := cliContext()
		defer cancel()
		if err := m.client.DeleteDocument(ctx, doc.Type, doc.ID); err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Message != "" {
				return errorMsg{errors.New(apiErr.Message)}
			}
			return errorMsg{err}
		}
		name := doc.Reference()
		if name == "" {
			name = fmt.Sprintf("%s %d", doc.Type.Name, doc.ID)
		}
		return deletedMsg{name}
	}
}

func (m *Model) setList(t DocType, rows []DocumentSummary) {
	m.listType = t
	m.listItems = make([]ListItem, 0, len(rows))
	items := make([]list.Item, 0, len(rows))
	for _, r := range rows {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("%s %d", t.Name, r.ID)
		}
		details := fmt.Sprintf("%s • %s • %s • %s", r.PartyName, r.Date,
			m.client.Format.FormatCurrency(r.Total), t.StateName(r.State))
		if t.Invoice && r.State == InvoicePosted {
			if r.PaymentStatus == PaymentPaid {
				details += " (paid)"
			} else {
				details += " (unpaid)"
			}
		}
		item := ListItem{summary: r, name: name, details: details}
		m.listItems = append(m.listItems, item)
		items = append(items, item)
	}

	m.currentList = list.New(items, newDelegate(), m.width-4, m.height-8)
	m.currentList.Title = t.Plural
	m.currentList.Styles.Title = titleStyle
	m.currentList.SetShowStatusBar(true)
	m.currentList.SetFilteringEnabled(true)
}

// renderListFooter shows the count and total per state of the list
func (m Model) renderListFooter() string {
	if len(m.listItems) == 0 {
		return ""
	}
	sum := decimal.Zero
	counts := make(map[int]int)
	for _, item := range m.listItems {
		sum = sum.Add(item.summary.Total)
		counts[item.summary.State]++
	}
	states := make([]int, 0, len(counts))
	for s := range counts {
		states = append(states, s)
	}
	sort.Ints(states)
	parts := make([]string, 0, len(states))
	for _, s := range states {
		parts = append(parts, fmt.Sprintf("%s: %d", m.listType.StateName(s), counts[s]))
	}
	return "\n" + helpStyle.Render(fmt.Sprintf("  %d documents • %s • ", len(m.listItems), strings.Join(parts, ", "))) +
		totalStyle.Render("Total "+m.client.Format.FormatCurrency(sum))
}

func (m Model) openNew(t DocType) (tea.Model, tea.Cmd) {
	m.view = ViewEditor
	m.crumbs("New")
	m.openDocument(NewDocument(t))
	return m, m.loadParties(t)
}
