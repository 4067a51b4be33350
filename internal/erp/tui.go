package erp

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mikelcalvo/erp-front/internal/lines"
	"github.com/mikelcalvo/erp-front/internal/state"
)

// Version info
const (
	Version = "1.0.0"
	Author  = "Mikel Calvo"
	Year    = "2026"
)

// View represents different screens
type View int

const (
	ViewMain View = iota
	ViewList
	ViewEditor
	ViewConfirmAction
	ViewConfirmDelete
	ViewPayment
	ViewReceipts
	ViewError
)

// MenuItem for the main menu
type MenuItem struct {
	title       string
	description string
	docType     DocType
}

func (i MenuItem) Title() string       { return i.title }
func (i MenuItem) Description() string { return i.description }
func (i MenuItem) FilterValue() string { return i.title }

// ListItem is one document row of a list screen
type ListItem struct {
	summary DocumentSummary
	name    string
	details string
}

func (i ListItem) Title() string       { return i.name }
func (i ListItem) Description() string { return i.details }
func (i ListItem) FilterValue() string { return i.name + " " + i.summary.PartyName }

// Model is the main TUI model
type Model struct {
	client      *Client
	session     *state.Session
	view        View
	prevView    View
	width       int
	height      int
	mainMenu    list.Model
	currentList list.Model
	listType    DocType
	listItems   []ListItem
	spinner     spinner.Model
	loading     bool
	busy        bool // a mutation is in flight
	breadcrumbs []string
	company     string

	message          string
	messageType      string
	notification     string
	notificationType string // "success" or "error"
	showNotification bool
	loadErr          *LoadError

	// document editor
	doc         *Document
	tracker     *lines.Tracker
	aggregator  *lines.Aggregator
	lookups     map[string]*lines.Debouncer // row key -> component lookup debouncer
	table       LineTable
	inputs      []textinput.Model
	focusIndex  int // header input index, len(inputs) is the line table
	fieldErrors FieldErrors
	parties     []Party

	confirmAction Action
	confirmMsg    string
	payInputs     []textinput.Model
	payFocus      int
	payErrs       map[string]string
	receipts      []Receipt
	viewport      viewport.Model
}

// Messages
type connectedMsg struct {
	info *InitInfo
}

type errorMsg struct {
	err error
}

type loadFailedMsg struct {
	err LoadError
}

type documentsLoadedMsg struct {
	docType DocType
	rows    []DocumentSummary
}

type documentLoadedMsg struct {
	doc *Document
}

type partiesLoadedMsg struct {
	parties []Party
}

type totalsDueMsg struct {
	seq uint64
}

type lookupDueMsg struct {
	key string
	seq uint64
	id  int
}

type componentLoadedMsg struct {
	key       string
	seq       uint64
	component *Component
	err       error
}

type mutationDoneMsg struct {
	action Action
	doc    *Document
	err    error
}

type receiptsLoadedMsg struct {
	receipts []Receipt
}

type deletedMsg struct {
	name string
}

type clearNotificationMsg struct{}

// NewTUI creates a new TUI model
func NewTUI(client *Client, session *state.Session) Model {
	applyTheme(session.Theme())

	menuItems := make([]list.Item, 0, len(DocTypes))
	for _, t := range DocTypes {
		menuItems = append(menuItems, MenuItem{t.Plural, menuDescription(t), t})
	}

	mainMenu := list.New(menuItems, newDelegate(), 0, 0)
	mainMenu.Title = client.Config.Brand
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)
	mainMenu.Styles.Title = titleStyle

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		client:      client,
		session:     session,
		view:        ViewMain,
		mainMenu:    mainMenu,
		loading:     true,
		spinner:     s,
		breadcrumbs: []string{"Main"},
		lookups:     make(map[string]*lines.Debouncer),
	}
}

func menuDescription(t DocType) string {
	switch t.Key {
	case RFQ.Key:
		return "Draft and sent requests to vendors"
	case PurchaseOrder.Key:
		return "Confirmed RFQs, receipts and bills"
	case Quotation.Key:
		return "Draft and sent offers to customers"
	case SalesOrder.Key:
		return "Confirmed quotations and invoicing"
	case Bill.Key:
		return "Vendor bills and payments"
	}
	return "Customer invoices and payments"
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.connect(),
		m.spinner.Tick,
	)
}

func (m Model) connect() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := cliContext()
		defer cancel()
		info, err := m.client.Init(ctx)
		if err != nil {
			LogError(m.client.Log, "tui", "connect", "init", nil, err)
			return errorMsg{err}
		}
		return connectedMsg{info}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+t" && !m.typing() {
			return m.toggleTheme()
		}
		switch m.view {
		case ViewEditor:
			return m.updateEditor(msg)
		case ViewConfirmAction, ViewConfirmDelete:
			return m.updateConfirm(msg)
		case ViewPayment:
			return m.updatePayment(msg)
		}

		m.message = ""
		m.messageType = ""
		switch msg.String() {
		case "q":
			if m.view == ViewMain {
				return m, tea.Quit
			}
		case "esc":
			return m.back()
		case "enter":
			return m.handleEnter()
		case "r":
			if m.view == ViewList {
				m.loading = true
				return m, m.loadDocuments(m.listType)
			}
		case "n":
			if m.view == ViewList && !m.listType.isOrderList() {
				return m.openNew(m.listType)
			}
		case "d":
			if m.view == ViewList {
				if item, ok := m.currentList.SelectedItem().(ListItem); ok && item.summary.State == m.listType.Draft() {
					m.doc = &Document{Type: m.listType, ID: item.summary.ID, Extra: map[string]interface{}{"name": item.summary.Name}}
					m.prevView = m.view
					m.view = ViewConfirmDelete
					return m, nil
				}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		h := msg.Height - 8
		w := msg.Width - 4

		m.mainMenu.SetSize(w, h)
		if m.currentList.Items() != nil {
			m.currentList.SetSize(w, h)
		}
		m.viewport = viewport.New(w, h)

	case connectedMsg:
		m.loading = false
		m.company = msg.info.Company
		return m, nil

	case errorMsg:
		m.loading = false
		m.message = msg.err.Error()
		m.messageType = "error"
		return m, nil

	case loadFailedMsg:
		m.loading = false
		m.loadErr = &msg.err
		m.prevView = ViewMain
		m.view = ViewError
		return m, nil

	case documentsLoadedMsg:
		m.loading = false
		m.setList(msg.docType, msg.rows)
		return m, nil

	case documentLoadedMsg:
		m.loading = false
		m.openDocument(msg.doc)
		return m, m.loadParties(msg.doc.Type)

	case partiesLoadedMsg:
		m.parties = msg.parties
		return m, nil

	case totalsDueMsg:
		if m.aggregator != nil {
			m.aggregator.Settle(msg.seq)
		}
		return m, nil

	case lookupDueMsg:
		return m, m.lookupComponent(msg)

	case componentLoadedMsg:
		if m.applyComponent(msg) {
			cmd := m.touchTotals()
			return m, cmd
		}
		return m, nil

	case mutationDoneMsg:
		return m.mutationDone(msg)

	case receiptsLoadedMsg:
		m.loading = false
		m.receipts = msg.receipts
		m.viewport.SetContent(m.renderReceiptsContent())
		m.viewport.GotoTop()
		return m, nil

	case deletedMsg:
		m.view = ViewList
		return m.notify(fmt.Sprintf("Deleted %s", msg.name), "success", m.loadDocuments(m.listType))

	case clearNotificationMsg:
		m.showNotification = false
		m.notification = ""
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.view {
	case ViewMain:
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case ViewList:
		m.currentList, cmd = m.currentList.Update(msg)
	case ViewReceipts:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// typing reports whether keys go to a text input
func (m Model) typing() bool {
	switch m.view {
	case ViewPayment:
		return true
	case ViewEditor:
		return m.table.Editing() || m.focusIndex < len(m.inputs)
	case ViewList:
		return m.currentList.FilterState() == list.Filtering
	}
	return false
}

func (m Model) back() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewList:
		m.view = ViewMain
		m.breadcrumbs = []string{"Main"}
	case ViewReceipts:
		m.view = ViewEditor
		m.crumbs(m.title())
	case ViewError:
		m.loadErr = nil
		m.view = m.prevView
	default:
		m.view = ViewMain
		m.breadcrumbs = []string{"Main"}
	}
	return m, nil
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewMain:
		if item, ok := m.mainMenu.SelectedItem().(MenuItem); ok {
			m.view = ViewList
			m.listType = item.docType
			m.breadcrumbs = []string{"Main", item.title}
			m.loading = true
			return m, m.loadDocuments(item.docType)
		}
	case ViewList:
		if item, ok := m.currentList.SelectedItem().(ListItem); ok {
			m.loading = true
			m.view = ViewEditor
			m.crumbs(item.name)
			return m, m.loadDocument(m.listType, item.summary.ID)
		}
	}
	return m, nil
}

func (m Model) toggleTheme() (tea.Model, tea.Cmd) {
	theme := m.session.ToggleTheme()
	applyTheme(theme)
	m.mainMenu.Styles.Title = titleStyle
	m.mainMenu.SetDelegate(newDelegate())
	if m.currentList.Items() != nil {
		m.currentList.Styles.Title = titleStyle
		m.currentList.SetDelegate(newDelegate())
	}
	m.spinner.Style = spinnerStyle
	if err := m.session.Flush(); err != nil {
		LogError(m.client.Log, "tui", "toggleTheme", theme, nil, err)
		return m.notify("Theme not saved: "+err.Error(), "error", nil)
	}
	return m.notify("Theme: "+theme, "success", nil)
}

// crumbs sets the trail below the current list screen
func (m *Model) crumbs(leaf ...string) {
	m.breadcrumbs = append([]string{"Main", m.listType.Plural}, leaf...)
}

// notify shows a notification that dismisses itself after 3 seconds
func (m Model) notify(text, kind string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.notification = text
	m.notificationType = kind
	m.showNotification = true
	return m, tea.Batch(
		cmd,
		tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearNotificationMsg{}
		}),
	)
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	switch m.view {
	case ViewMain:
		content = m.mainMenu.View()
	case ViewList:
		if m.loading {
			content = fmt.Sprintf("\n  %s Loading...", m.spinner.View())
		} else {
			content = m.currentList.View() + m.renderListFooter()
		}
	case ViewEditor:
		content = m.renderEditor()
	case ViewConfirmAction:
		content = m.renderConfirmAction()
	case ViewConfirmDelete:
		content = m.renderConfirmDelete()
	case ViewPayment:
		content = m.renderPayment()
	case ViewReceipts:
		if m.loading {
			content = fmt.Sprintf("\n  %s Loading...", m.spinner.View())
		} else {
			content = m.viewport.View()
		}
	case ViewError:
		content = m.renderLoadError()
	}

	var b strings.Builder

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderBreadcrumbs())
	b.WriteString("\n")

	if m.showNotification {
		if m.notificationType == "success" {
			b.WriteString(notificationSuccess.Render("✓ " + m.notification))
		} else {
			b.WriteString(notificationError.Render("✗ " + m.notification))
		}
		b.WriteString("\n")
	}

	b.WriteString(content)

	// Error message (persists until user takes action)
	if m.message != "" {
		b.WriteString("\n\n")
		if m.messageType == "error" {
			b.WriteString(errorStyle.Render("Error: " + m.message))
		} else {
			b.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderHelp())
	b.WriteString("\n")
	b.WriteString(m.renderCredits())

	return b.String()
}

func (m Model) renderStatusBar() string {
	var mode string
	if m.client.Config.Development() {
		mode = devModeStyle.Render("● " + m.client.Config.Mode)
	} else {
		mode = prodModeStyle.Render("● " + m.client.Config.Mode)
	}
	company := m.company
	if company == "" {
		company = "not connected"
	}
	status := fmt.Sprintf(" %s | %s | %s | %s ", m.client.Config.Brand, company, mode, m.client.Config.APIURL)
	return statusBarStyle.Render(status)
}

func (m Model) renderBreadcrumbs() string {
	if len(m.breadcrumbs) == 0 {
		return ""
	}
	return breadcrumbStyle.Render("  " + strings.Join(m.breadcrumbs, " > "))
}

func (m Model) renderHelp() string {
	var help string
	switch m.view {
	case ViewMain:
		help = "↑/↓: navigate • enter: select • ctrl+t: theme • q: quit"
	case ViewList:
		if m.listType.isOrderList() {
			help = "↑/↓: navigate • enter: open • r: refresh • /: search • esc: back"
		} else {
			help = "↑/↓: navigate • enter: open • n: new • d: delete draft • r: refresh • /: search • esc: back"
		}
	case ViewEditor:
		help = m.editorHelp()
	case ViewConfirmAction, ViewConfirmDelete:
		help = "y: confirm • n: cancel"
	case ViewPayment:
		help = "tab: next field • enter: register • esc: cancel"
	case ViewReceipts:
		help = "↑/↓/pgup/pgdn: scroll • esc: back"
	case ViewError:
		help = "esc: back"
	}
	return helpStyle.Render(help)
}

func (m Model) renderCredits() string {
	return creditStyle.Render(fmt.Sprintf("Created by %s in %s • v%s", Author, Year, Version))
}

func (m Model) renderLoadError() string {
	if m.loadErr == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(errorStyle.Render(fmt.Sprintf(" %d  %s", m.loadErr.Status, m.loadErr.Message)) + "\n\n")
	if m.loadErr.Description != "" {
		b.WriteString("  " + m.loadErr.Description + "\n")
	}
	return boxStyle.Render(b.String())
}

func (m Model) renderConfirmDelete() string {
	name := m.doc.Reference()
	if name == "" {
		name = fmt.Sprintf("%s %d", m.doc.Type.Name, m.doc.ID)
	}
	content := fmt.Sprintf(`
  Delete "%s"?

  This action cannot be undone.

  [y] Yes, delete    [n] No, cancel
`, name)

	return boxStyle.Render(content)
}

// RunTUI starts the TUI
func RunTUI(client *Client, session *state.Session) error {
	p := tea.NewProgram(NewTUI(client, session), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
