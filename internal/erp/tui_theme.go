package erp

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/mikelcalvo/erp-front/internal/state"
)

type palette struct {
	accent     lipgloss.Color
	accentText lipgloss.Color
	text       lipgloss.Color
	muted      lipgloss.Color
	bar        lipgloss.Color
	barText    lipgloss.Color
	success    lipgloss.Color
	danger     lipgloss.Color
	warning    lipgloss.Color
	surface    lipgloss.Color
}

var palettes = map[string]palette{
	state.ThemeDark: {
		accent:     lipgloss.Color("#7D56F4"),
		accentText: lipgloss.Color("#FAFAFA"),
		text:       lipgloss.Color("#FAFAFA"),
		muted:      lipgloss.Color("#626262"),
		bar:        lipgloss.Color("#333333"),
		barText:    lipgloss.Color("#FFFDF5"),
		success:    lipgloss.Color("#04B575"),
		danger:     lipgloss.Color("#FF4444"),
		warning:    lipgloss.Color("#FF9500"),
		surface:    lipgloss.Color("#3C3C3C"),
	},
	state.ThemeLight: {
		accent:     lipgloss.Color("#5A3FC0"),
		accentText: lipgloss.Color("#FFFFFF"),
		text:       lipgloss.Color("#1A1A1A"),
		muted:      lipgloss.Color("#8A8A8A"),
		bar:        lipgloss.Color("#E4E4E4"),
		barText:    lipgloss.Color("#1A1A1A"),
		success:    lipgloss.Color("#0A7F4F"),
		danger:     lipgloss.Color("#C62828"),
		warning:    lipgloss.Color("#B85C00"),
		surface:    lipgloss.Color("#EDE7FF"),
	},
}

// Styles, set by applyTheme
var (
	titleStyle          lipgloss.Style
	statusBarStyle      lipgloss.Style
	devModeStyle        lipgloss.Style
	prodModeStyle       lipgloss.Style
	errorStyle          lipgloss.Style
	successStyle        lipgloss.Style
	helpStyle           lipgloss.Style
	creditStyle         lipgloss.Style
	selectedStyle       lipgloss.Style
	selectedDescStyle   lipgloss.Style
	boxStyle            lipgloss.Style
	breadcrumbStyle     lipgloss.Style
	spinnerStyle        lipgloss.Style
	labelStyle          lipgloss.Style
	tableHeaderStyle    lipgloss.Style
	sectionStyle        lipgloss.Style
	activeCellStyle     lipgloss.Style
	totalStyle          lipgloss.Style
	notificationSuccess lipgloss.Style
	notificationError   lipgloss.Style

	// Badge styles for status indicators
	draftBadge     lipgloss.Style
	sentBadge      lipgloss.Style
	confirmedBadge lipgloss.Style
	cancelledBadge lipgloss.Style
	paidBadge      lipgloss.Style
	unpaidBadge    lipgloss.Style
	dirtyBadge     lipgloss.Style
)

func init() {
	applyTheme(state.ThemeDark)
}

// applyTheme rebuilds every style from the named palette. Unknown names
// fall back to dark.
func applyTheme(name string) {
	p, ok := palettes[name]
	if !ok {
		p = palettes[state.ThemeDark]
	}

	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.accentText).
		Background(p.accent).
		Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(p.barText).
		Background(p.bar).
		Padding(0, 1)

	devModeStyle = lipgloss.NewStyle().Foreground(p.warning).Bold(true)
	prodModeStyle = lipgloss.NewStyle().Foreground(p.success).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(p.danger).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(p.success).Bold(true)
	helpStyle = lipgloss.NewStyle().Foreground(p.muted)
	creditStyle = lipgloss.NewStyle().Foreground(p.muted).Italic(true)
	selectedStyle = lipgloss.NewStyle().Foreground(p.accent).Bold(true)
	selectedDescStyle = lipgloss.NewStyle().Foreground(p.accent)
	breadcrumbStyle = lipgloss.NewStyle().Foreground(p.muted)
	spinnerStyle = lipgloss.NewStyle().Foreground(p.accent)
	labelStyle = lipgloss.NewStyle().Foreground(p.muted).Width(18)
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(p.text)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(p.warning)
	activeCellStyle = lipgloss.NewStyle().Background(p.surface).Foreground(p.text)
	totalStyle = lipgloss.NewStyle().Bold(true).Foreground(p.success)

	boxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.accent).
		Padding(1, 2)

	badge := func(bg, fg lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Background(bg).Foreground(fg).Padding(0, 1)
	}
	draftBadge = badge(p.warning, lipgloss.Color("#000"))
	sentBadge = badge(p.accent, lipgloss.Color("#FFF"))
	confirmedBadge = badge(p.success, lipgloss.Color("#FFF"))
	cancelledBadge = badge(p.danger, lipgloss.Color("#FFF"))
	paidBadge = badge(p.success, lipgloss.Color("#FFF"))
	unpaidBadge = badge(p.warning, lipgloss.Color("#000"))
	dirtyBadge = badge(p.warning, lipgloss.Color("#000"))

	notificationSuccess = badge(p.success, lipgloss.Color("#FFF")).Bold(true)
	notificationError = badge(p.danger, lipgloss.Color("#FFF")).Bold(true)
}

func newDelegate() list.DefaultDelegate {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = selectedDescStyle
	return delegate
}

// stateBadge renders the state of a document as a colored badge
func stateBadge(t DocType, stateValue, payment int) string {
	name := t.StateName(stateValue)
	var style lipgloss.Style
	switch {
	case stateValue == t.Cancelled:
		style = cancelledBadge
	case stateValue == t.Confirmed:
		style = confirmedBadge
	case !t.Invoice && stateValue == OrderSent:
		style = sentBadge
	default:
		style = draftBadge
	}
	out := style.Render(name)
	if t.Invoice && stateValue == InvoicePosted {
		if payment == PaymentPaid {
			out += " " + paidBadge.Render("Paid")
		} else {
			out += " " + unpaidBadge.Render("Unpaid")
		}
	}
	return out
}
