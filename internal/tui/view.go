package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	datatable "github.com/datawhisper/datawhisper/internal/table"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#282C34")).Padding(0, 2)
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#D8000C")).Background(lipgloss.Color("#FFD2D2")).Padding(0, 1).MarginTop(1)
	sqlStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
	buttonStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#61DAFB")).Padding(0, 2)
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Background(lipgloss.Color("236")).Padding(0, 2)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
	headerCell    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	bodyCell      = lipgloss.NewStyle().Padding(0, 1)
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(subtitle))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.button())

	state := m.state
	if state.HasError() {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + state.ErrorText))
	}
	if state.TranslatedQuery != "" {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Generated SQL Query:"))
		b.WriteString("\n")
		b.WriteString(sqlStyle.Render(state.TranslatedQuery))
	}
	if state.HasResult() {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Query Results:"))
		b.WriteString("\n")
		b.WriteString(renderRows(state.Rows))
	}

	help := "enter submit • esc quit"
	if m.endpoint != "" {
		help += " • " + m.endpoint
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(help))
	b.WriteString("\n")
	return b.String()
}

func (m Model) button() string {
	if m.state.Busy {
		return m.spinner.View() + " " + disabledStyle.Render(busyLabel)
	}
	return buttonStyle.Render(submitLabel)
}

func renderRows(rows []datatable.Row) string {
	grid, ok := datatable.Render(rows)
	if !ok {
		return datatable.NoResultsNotice
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			return bodyCell
		}).
		Headers(grid.Headers...).
		Rows(grid.Cells...)
	return t.String()
}
