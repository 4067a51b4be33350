package erp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// updateConfirm handles the y/n answer of a confirmation dialog
func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if m.view == ViewConfirmDelete {
			m.view = ViewList
			m.loading = true
			return m, m.deleteDocument(m.doc)
		}
		if m.confirmAction == actionDiscard {
			return m.leaveEditor()
		}
		return m.runMutation(m.confirmAction)
	case "n", "N", "esc":
		m.view = m.prevView
	}
	return m, nil
}

// renderConfirmAction renders the confirm action dialog
func (m Model) renderConfirmAction() string {
	content := fmt.Sprintf(`
  %s

  [y] Yes, proceed    [n] No, cancel
`, m.confirmMsg)

	return boxStyle.Render(content)
}

var (
	paymentLabels = []string{"Amount:", "Date (YYYY-MM-DD):", "Journal (bank/cash):", "Memo:"}
	paymentFields = []string{"Amount", "PaymentDate", "Journal", "Memo"}
)

// openPaymentForm prefills a payment of the invoice total
func (m *Model) openPaymentForm() {
	req := NewPaymentRequest(m.doc)
	values := []string{
		m.client.Format.Format(req.Amount),
		req.PaymentDate,
		req.Journal,
		"",
	}
	m.payInputs = make([]textinput.Model, len(values))
	for i, v := range values {
		m.payInputs[i] = textinput.New()
		m.payInputs[i].SetValue(v)
		m.payInputs[i].CharLimit = 120
	}
	m.payInputs[0].Focus()
	m.payFocus = 0
	m.payErrs = nil
	m.message = ""
	m.prevView = ViewEditor
	m.view = ViewPayment
}

// paymentRequest reads the form back into a request
func (m Model) paymentRequest() (PaymentRequest, error) {
	req := NewPaymentRequest(m.doc)
	amount, err := m.client.Format.Unformat(m.payInputs[0].Value())
	if err != nil {
		return req, fmt.Errorf("amount: %w", err)
	}
	req.Amount = amount
	req.PaymentDate = strings.TrimSpace(m.payInputs[1].Value())
	req.Journal = strings.ToLower(strings.TrimSpace(m.payInputs[2].Value()))
	req.Memo = strings.TrimSpace(m.payInputs[3].Value())
	return req, nil
}

func (m Model) updatePayment(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.message = ""
		m.view = ViewEditor
		return m, nil
	case "tab", "down":
		m.payFocus = (m.payFocus + 1) % len(m.payInputs)
		m.focusPayment()
		return m, nil
	case "shift+tab", "up":
		m.payFocus--
		if m.payFocus < 0 {
			m.payFocus = len(m.payInputs) - 1
		}
		m.focusPayment()
		return m, nil
	case "enter":
		if m.busy {
			return m, nil
		}
		req, err := m.paymentRequest()
		if err == nil {
			err = req.Validate()
		}
		if err != nil {
			m.payErrs = nil
			var verr *ValidationError
			if errors.As(err, &verr) {
				m.payErrs = verr.Fields
			}
			m.message = err.Error()
			m.messageType = "error"
			return m, nil
		}
		return m.submitPayment(req)
	}

	var cmd tea.Cmd
	m.payInputs[m.payFocus], cmd = m.payInputs[m.payFocus].Update(msg)
	return m, cmd
}

func (m *Model) focusPayment() {
	for i := range m.payInputs {
		if i == m.payFocus {
			m.payInputs[i].Focus()
		} else {
			m.payInputs[i].Blur()
		}
	}
}

func (m Model) submitPayment(req PaymentRequest) (tea.Model, tea.Cmd) {
	m.busy = true
	m.message = ""
	t := m.doc.Type
	client := m.client
	return m, func() tea.Msg {
		ctx, cancel := cliContext()
		defer cancel()
		invoice, err := client.RegisterPayment(ctx, t, req)
		return mutationDoneMsg{action: ActionRegisterPayment, doc: invoice, err: err}
	}
}

func (m Model) renderPayment() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" Register Payment: "+m.title()+" ") + "\n\n")
	b.WriteString(fmt.Sprintf("  Total: %s\n\n", totalStyle.Render(m.client.Format.FormatCurrency(m.doc.Totals.Total))))

	for i, input := range m.payInputs {
		b.WriteString(fmt.Sprintf("  %s\n", paymentLabels[i]))
		b.WriteString(fmt.Sprintf("  %s\n", input.View()))
		if tag := m.payErrs[paymentFields[i]]; tag != "" {
			b.WriteString("  " + errorStyle.Render(tag) + "\n")
		}
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString("  " + m.spinner.View() + " Registering...\n")
	}
	return boxStyle.Render(b.String())
}

func (m Model) renderReceiptsContent() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" Receipts: "+m.title()+" ") + "\n\n")
	if len(m.receipts) == 0 {
		b.WriteString(helpStyle.Render("  No receipts yet") + "\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("  %-16s %-14s %s\n", "REFERENCE", "SCHEDULED", "STATUS"))
	b.WriteString("  " + strings.Repeat("─", 44) + "\n")
	for _, r := range m.receipts {
		b.WriteString(fmt.Sprintf("  %-16s %-14s %s\n", r.Name, r.ScheduledDate, formatStatusBadge(r.State)))
	}
	return b.String()
}

// formatStatusBadge returns a styled status word
func formatStatusBadge(status string) string {
	var style = helpStyle

	switch strings.ToLower(status) {
	case "draft", "waiting":
		style = devModeStyle
	case "done", "paid", "posted":
		style = successStyle
	case "cancelled", "cancel":
		style = errorStyle
	case "ready", "assigned":
		style = selectedStyle
	}

	return style.Render(status)
}
