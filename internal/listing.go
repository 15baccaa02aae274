package internal

import (
	"fmt"

	"pomodoro_tui/internal/history"
	"pomodoro_tui/internal/session"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var tableHeaderStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("86")).
	Bold(true).
	Padding(0, 1)

var tableCellStyle = lipgloss.NewStyle().Padding(0, 1)

func newListingTable() *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
}

// SessionsTable renders saved configs for the command line. The active one is
// marked with "*".
func SessionsTable(configs []session.Config, activeID string) string {
	t := newListingTable().Headers("", "NAME", "WORK", "BREAK", "ID")
	for _, c := range configs {
		marker := ""
		if c.ID == activeID {
			marker = "*"
		}
		t.Row(marker, c.Name, fmt.Sprintf("%dm", c.WorkMinutes), fmt.Sprintf("%dm", c.BreakMinutes), c.ID)
	}
	return t.String()
}

// HistoryTable renders completed sessions for the command line.
func HistoryTable(records []history.Record) string {
	t := newListingTable().Headers("COMPLETED", "NAME", "WORK", "BREAK")
	for _, r := range records {
		t.Row(
			r.CompletedAt.Format("2006-01-02 15:04"),
			r.Name,
			fmt.Sprintf("%dm", r.WorkMinutes),
			fmt.Sprintf("%dm", r.BreakMinutes),
		)
	}
	return t.String() + "\n" + "Total focus: " + formatFocus(totalFocus(records))
}
