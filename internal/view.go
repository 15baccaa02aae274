package internal

import (
	"fmt"
	"strings"
	"time"

	"pomodoro_tui/internal/history"
	"pomodoro_tui/internal/timer"

	"github.com/charmbracelet/lipgloss"
)

const progressWidth = 36

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true).
			Align(lipgloss.Center)

	sessionItemStyle = lipgloss.NewStyle().
				Padding(0, 1)

	sessionItemSelectedStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("170")).
					Background(lipgloss.Color("235")).
					Padding(0, 1)

	clockIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("69")).
			Bold(true)

	clockWorkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	clockBreakStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 0)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170"))

	inputInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	logHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	logTimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	inactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	workBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	breakBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))
)

// formatClock renders a countdown as mm:ss, or h:mm:ss past an hour.
func formatClock(seconds int) string {
	seconds = max(seconds, 0)
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// progressBar renders fraction (clamped to [0,1]) as a bar of width cells.
func progressBar(fraction float64, width int) string {
	fraction = min(max(fraction, 0), 1)
	filled := int(fraction*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func phaseLabel(s timer.State) string {
	switch s.Phase {
	case timer.PhaseWork:
		return "Work Session"
	case timer.PhaseBreak:
		return "Break Time"
	case timer.PhaseCompleted:
		return "Cycle Complete"
	default:
		return "Ready"
	}
}

func statusLabel(s timer.State) string {
	switch {
	case s.Running:
		return "Running"
	case s.Phase.Counting():
		return "Paused"
	case s.Phase == timer.PhaseCompleted:
		return "Done"
	default:
		return "Stopped"
	}
}

func (m *Model) emptyStateView() string {
	return lipgloss.Place(
		80, 24,
		lipgloss.Center, lipgloss.Center,
		titleStyle.Render("Pomodoro")+"\n\n"+
			inactiveStyle.Render("No sessions yet. Press 'n' to add one."),
	)
}

func (m *Model) mainView() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Width(80).Render("Pomodoro"))
	sb.WriteString("\n\n")

	boxes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.sessionListView(),
		"  ",
		m.timerView(),
	)
	sb.WriteString(boxes)
	sb.WriteString("\n\n")
	if m.Err != nil {
		sb.WriteString(errorStyle.Render(m.Err.Error()))
		sb.WriteString("\n")
	}
	sb.WriteString(helpStyle.Render("Navigate: Up/Down | Select: Enter | Start/Pause: Space | Skip: s | Reset: r | New: n | Edit: e | Delete: d | History: l | Quit: q"))

	return sb.String()
}

func (m *Model) sessionListView() string {
	var sb strings.Builder

	sb.WriteString("Sessions\n\n")

	activeID := ""
	if active := m.Engine.State().ActiveConfig; active != nil {
		activeID = active.ID
	}

	for i, c := range m.Sessions {
		marker := "  "
		if c.ID == activeID {
			marker = "● "
		}
		line := fmt.Sprintf("%s%s %dm/%dm", marker, c.Name, c.WorkMinutes, c.BreakMinutes)

		if i == m.SelectedIndex {
			sb.WriteString(sessionItemSelectedStyle.Render(line))
		} else {
			sb.WriteString(sessionItemStyle.Render(inactiveStyle.Render(line)))
		}
		sb.WriteString("\n")
	}

	return boxStyle.Width(30).Height(15).Render(sb.String())
}

func (m *Model) timerView() string {
	state := m.Engine.State()
	if state.ActiveConfig == nil {
		return boxStyle.Width(45).Height(15).Render("Select a session")
	}
	cfg := state.ActiveConfig

	clockStyle := clockIdleStyle
	barStyle := workBarStyle
	switch state.Phase {
	case timer.PhaseWork:
		clockStyle = clockWorkStyle
	case timer.PhaseBreak, timer.PhaseCompleted:
		clockStyle = clockBreakStyle
		barStyle = breakBarStyle
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s\n", cfg.Name))
	sb.WriteString(inactiveStyle.Render(fmt.Sprintf("Work: %d min / Break: %d min", cfg.WorkMinutes, cfg.BreakMinutes)))
	sb.WriteString("\n\n")
	sb.WriteString(logHeaderStyle.Render(phaseLabel(state)))
	sb.WriteString("\n\n")
	sb.WriteString(clockStyle.Render(formatClock(state.RemainingSeconds)))
	sb.WriteString("\n\n")
	sb.WriteString(barStyle.Render(progressBar(m.Engine.Progress(), progressWidth)))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("%s\n", statusLabel(state)))
	sb.WriteString(inactiveStyle.Render(fmt.Sprintf("Completed today: %d", m.CompletedToday)))

	return boxStyle.Width(45).Height(15).Render(sb.String())
}

func (m *Model) formView(title string) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Width(80).Render(title))
	sb.WriteString("\n\n")

	fields := []struct {
		label string
		value string
	}{
		{"Session Name: ", m.FormName},
		{"Work (min): ", m.FormWork},
		{"Break (min): ", m.FormBreak},
	}

	var form strings.Builder
	for i, f := range fields {
		// Visible focus marker so it's obvious which field is active.
		marker := "  "
		label := inputInactiveStyle.Render(marker + f.label)
		value := f.value
		if i == m.InputFocus {
			marker = "→ "
			label = inputStyle.Render(marker + f.label)
			value = inputStyle.Render(value + "█")
		}
		form.WriteString(label + value + "\n\n")
	}

	if m.Err != nil {
		form.WriteString(errorStyle.Render(m.Err.Error()))
		form.WriteString("\n\n")
	}
	form.WriteString(helpStyle.Render("Tab: Switch | Enter: Next/Save | Esc: Cancel"))

	sb.WriteString(lipgloss.Place(
		80, 20,
		lipgloss.Center, lipgloss.Center,
		boxStyle.Width(50).Render(form.String()),
	))
	return sb.String()
}

func (m *Model) historyView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Width(80).Render("Completed Sessions"))
	sb.WriteString("\n\n")

	if len(m.Records) == 0 {
		sb.WriteString(inactiveStyle.Render("No completed sessions yet."))
	} else {
		const visible = 15
		end := min(m.LogViewScroll+visible, len(m.Records))
		for _, r := range m.Records[m.LogViewScroll:end] {
			sb.WriteString(formatRecord(r))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
		sb.WriteString(inactiveStyle.Render(fmt.Sprintf("%d-%d of %d", m.LogViewScroll+1, end, len(m.Records))))
		sb.WriteString("\n")
		sb.WriteString(logHeaderStyle.Render("Total focus: " + formatFocus(totalFocus(m.Records))))
	}

	sb.WriteString("\n\n")
	sb.WriteString(helpStyle.Render("Scroll: Up/Down | Back: Esc/l"))
	return sb.String()
}

func formatRecord(r history.Record) string {
	timeStr := logTimeStyle.Render(r.CompletedAt.Format("Jan 02 15:04"))
	return fmt.Sprintf("  %s  %s  %dm work / %dm break", timeStr, r.Name, r.WorkMinutes, r.BreakMinutes)
}

func totalFocus(records []history.Record) time.Duration {
	var total time.Duration
	for _, r := range records {
		total += r.FocusTime()
	}
	return total
}

// formatFocus renders d as hours and minutes, e.g. "2h 05m".
func formatFocus(d time.Duration) string {
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}
