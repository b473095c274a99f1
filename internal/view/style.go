package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sudharshan41/apartmentrentalportal/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))

	badgeStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true)
	badges     = map[string]lipgloss.Color{
		string(model.BookingPending):   lipgloss.Color("214"),
		string(model.BookingApproved):  lipgloss.Color("34"),
		string(model.BookingDeclined):  lipgloss.Color("196"),
		string(model.BookingCancelled): lipgloss.Color("245"),
		model.UnitAvailable:            lipgloss.Color("34"),
		model.UnitOccupied:             lipgloss.Color("196"),
		model.UnitMaintenance:          lipgloss.Color("214"),
	}
)

func title(w io.Writer, text string) {
	fmt.Fprintln(w, titleStyle.Render(text))
}

func badge(status string) string {
	color, ok := badges[status]
	if !ok {
		return status
	}
	return badgeStyle.Foreground(color).Render(strings.ToUpper(status))
}

const columnGap = 2

// table lays out columns by printable width, so styled cells line up with
// plain ones.
func table(w io.Writer, header []string, rows [][]string) {
	all := append([][]string{header}, rows...)
	widths := make([]int, len(header))
	for _, row := range all {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	for _, row := range all {
		var line strings.Builder
		for i, cell := range row {
			line.WriteString(cell)
			if i < len(row)-1 && i < len(widths) {
				line.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+columnGap))
			}
		}
		fmt.Fprintln(w, line.String())
	}
}

func money(amount float64) string {
	return fmt.Sprintf("$%.0f", amount)
}

// renderStatus prints the pending or failed line and reports whether the
// caller should go on to render content.
func renderStatus(w io.Writer, s Status, loading string) bool {
	switch s.State {
	case Pending:
		fmt.Fprintln(w, mutedStyle.Render(loading))
		return false
	case Failed:
		fmt.Fprintln(w, errorStyle.Render(s.Message))
		return false
	default:
		return true
	}
}

func notice(w io.Writer, s Status) {
	switch s.State {
	case Failed:
		fmt.Fprintln(w, errorStyle.Render(s.Message))
	case Ready:
		if s.Message != "" {
			fmt.Fprintln(w, successStyle.Render(s.Message))
		}
	}
}
