// Package tui is the terminal front end of the student records system.
//
// It renders the Store's state and turns key presses into Store
// operations; it holds no business logic. The screen is a list of
// student cards with a modal for create, edit and view, a delete
// confirmation, a loading spinner and a dismissible error banner.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	Primary     = lipgloss.Color("#3B82F6") // blue-500
	Success     = lipgloss.Color("#22C55E") // green-500
	Destructive = lipgloss.Color("#EF4444") // red-500
	Muted       = lipgloss.Color("#6B7280") // gray-500
	Border      = lipgloss.Color("#D1D5DB") // gray-300
	ErrorBg     = lipgloss.Color("#FEF2F2") // red-50
	ErrorFg     = lipgloss.Color("#991B1B") // red-800
)

// Styles groups every lipgloss style the UI renders with.
type Styles struct {
	Title        lipgloss.Style
	Subtitle     lipgloss.Style
	Card         lipgloss.Style
	SelectedCard lipgloss.Style
	Name         lipgloss.Style
	Label        lipgloss.Style
	Muted        lipgloss.Style
	ErrorBanner  lipgloss.Style
	Modal        lipgloss.Style
	Confirm      lipgloss.Style
	Help         lipgloss.Style
	Key          lipgloss.Style
	FieldLabel   lipgloss.Style
	Focused      lipgloss.Style
	Danger       lipgloss.Style
}

// DefaultStyles returns the stock palette.
func DefaultStyles() Styles {
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1).
		MarginBottom(1)

	return Styles{
		Title:        lipgloss.NewStyle().Bold(true).Foreground(Primary),
		Subtitle:     lipgloss.NewStyle().Foreground(Muted).MarginBottom(1),
		Card:         card,
		SelectedCard: card.BorderForeground(Primary),
		Name:         lipgloss.NewStyle().Bold(true),
		Label:        lipgloss.NewStyle().Foreground(Muted).Width(10),
		Muted:        lipgloss.NewStyle().Foreground(Muted),
		ErrorBanner:  lipgloss.NewStyle().Foreground(ErrorFg).Background(ErrorBg).Padding(0, 1).MarginBottom(1),
		Modal:        lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(Primary).Padding(1, 2),
		Confirm:      lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(Destructive).Padding(1, 2),
		Help:         lipgloss.NewStyle().Foreground(Muted).MarginTop(1),
		Key:          lipgloss.NewStyle().Foreground(Primary).Bold(true),
		FieldLabel:   lipgloss.NewStyle().Width(16),
		Focused:      lipgloss.NewStyle().Foreground(Success).Bold(true).Width(16),
		Danger:       lipgloss.NewStyle().Foreground(Destructive).Bold(true),
	}
}
