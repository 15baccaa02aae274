package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"pomodoro_tui/internal/history"
	"pomodoro_tui/internal/logfields"
	"pomodoro_tui/internal/session"
	"pomodoro_tui/internal/timer"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
)

// MsgTick advances the engine by one second. Gen is the tick loop generation
// that produced it.
type MsgTick struct {
	Gen uint64
}

// MsgRecorded reports that a completed session was written (or failed to be).
type MsgRecorded struct {
	Record history.Record
	Err    error
}

// Ticker is the tick source that drives the engine.
type Ticker interface {
	Start(ctx context.Context)
	Stop()
	Running() bool
	Generation() uint64
}

const (
	focusName = iota
	focusWork
	focusBreak
	formFields
)

const (
	defaultWorkMinutes  = 25
	defaultBreakMinutes = 5
	historyLimit        = 200
)

type Model struct {
	Sessions       []session.Config
	SelectedIndex  int
	ShowAddForm    bool
	ShowEditForm   bool
	EditingSession *session.Config
	FormName       string
	FormWork       string
	FormBreak      string
	InputFocus     int
	Err            error
	Engine         *timer.Engine

	// Completed cycles since local midnight.
	CompletedToday int

	// History viewer state
	ShowLogView   bool
	LogViewScroll int
	Records       []history.Record

	repo   *session.Repository
	ticker Ticker
	clock  clockwork.Clock
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewModel(repo *session.Repository, engine *timer.Engine, clock clockwork.Clock, logger *slog.Logger) (*Model, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		Engine: engine,
		repo:   repo,
		clock:  clock,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := m.loadSessions(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	today, err := repo.CountCompletedSince(ctx, startOfDay(clock.Now()))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to count completed sessions: %w", err)
	}
	m.CompletedToday = today

	m.selectActive()
	return m, nil
}

// AttachTicker sets the tick source. It must be called before the program runs.
func (m *Model) AttachTicker(t Ticker) {
	m.ticker = t
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MsgTick:
		if m.ticker == nil || msg.Gen != m.ticker.Generation() {
			return m, nil
		}
		m.Engine.Tick()
		m.syncTicker()
		return m, nil
	case MsgRecorded:
		m.handleRecorded(msg)
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		return m, nil
	}
	return m, nil
}

func (m *Model) View() string {
	if m.ShowLogView {
		return m.historyView()
	}

	if m.ShowAddForm {
		return m.formView("New Session")
	}

	if m.ShowEditForm {
		return m.formView("Edit Session")
	}

	if len(m.Sessions) == 0 {
		return m.emptyStateView()
	}

	return m.mainView()
}

func (m *Model) SelectedSession() *session.Config {
	if m.SelectedIndex >= 0 && m.SelectedIndex < len(m.Sessions) {
		return &m.Sessions[m.SelectedIndex]
	}
	return nil
}

// ActivateSession makes the config with id the engine's config and resets
// the timer to Idle.
func (m *Model) ActivateSession(id string) error {
	if err := m.repo.SetActive(m.ctx, id); err != nil {
		return err
	}
	cfg, err := m.repo.GetByID(m.ctx, id)
	if err != nil {
		return err
	}
	m.Engine.Reset()
	m.Engine.SetConfig(cfg)
	m.syncTicker()
	m.logger.Info("Session activated", logfields.SessionID(cfg.ID), logfields.Session(cfg.Name))
	return nil
}

func (m *Model) AddSession(name string, workMinutes, breakMinutes int) error {
	c, err := m.repo.Create(m.ctx, name, workMinutes, breakMinutes)
	if err != nil {
		return err
	}
	if err := m.loadSessions(); err != nil {
		return err
	}
	m.selectByID(c.ID)
	return nil
}

// UpdateSession saves c. When c is the engine's config the engine picks up
// the change; a running countdown keeps its current length.
func (m *Model) UpdateSession(c *session.Config) error {
	if err := m.repo.Update(m.ctx, c); err != nil {
		return err
	}
	if active := m.Engine.State().ActiveConfig; active != nil && active.ID == c.ID {
		m.Engine.SetConfig(c)
	}
	return m.loadSessions()
}

func (m *Model) DeleteSession(id string) error {
	if err := m.repo.Delete(m.ctx, id); err != nil {
		return err
	}
	if active := m.Engine.State().ActiveConfig; active != nil && active.ID == id {
		m.Engine.Reset()
		m.Engine.Reload(m.ctx)
		m.syncTicker()
	}
	if err := m.loadSessions(); err != nil {
		return err
	}
	if m.SelectedIndex >= len(m.Sessions) {
		m.SelectedIndex = len(m.Sessions) - 1
	}
	return nil
}

// Close stops ticking. It is safe to call more than once.
func (m *Model) Close() error {
	if m.ticker != nil {
		m.ticker.Stop()
	}
	m.cancel()
	return nil
}

func (m *Model) loadSessions() error {
	sessions, err := m.repo.GetAll(m.ctx)
	if err != nil {
		return err
	}
	m.Sessions = sessions
	return nil
}

func (m *Model) selectActive() {
	if active := m.Engine.State().ActiveConfig; active != nil {
		m.selectByID(active.ID)
	}
}

func (m *Model) selectByID(id string) {
	for i := range m.Sessions {
		if m.Sessions[i].ID == id {
			m.SelectedIndex = i
			return
		}
	}
}

// syncTicker keeps the tick loop running exactly while the engine counts.
func (m *Model) syncTicker() {
	if m.ticker == nil {
		return
	}
	running := m.Engine.Running()
	switch {
	case running && !m.ticker.Running():
		m.ticker.Start(m.ctx)
		m.logger.Debug("Tick loop started", logfields.Generation(m.ticker.Generation()))
	case !running && m.ticker.Running():
		m.ticker.Stop()
		m.logger.Debug("Tick loop stopped", logfields.Phase(m.Engine.Phase().String()))
	}
}

func (m *Model) handleRecorded(msg MsgRecorded) {
	if msg.Err != nil {
		m.Err = fmt.Errorf("failed to save completed session: %w", msg.Err)
		return
	}
	if !msg.Record.CompletedAt.Before(startOfDay(m.clock.Now())) {
		m.CompletedToday++
	}
	if m.ShowLogView {
		m.Records = append([]history.Record{msg.Record}, m.Records...)
	}
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ShowLogView {
		return m.handleLogViewInput(msg)
	}

	if m.ShowAddForm || m.ShowEditForm {
		return m.handleFormInput(msg)
	}

	m.Err = nil
	switch msg.String() {
	case "ctrl+c", "q":
		m.Close()
		return m, tea.Quit
	case "up", "k":
		if m.SelectedIndex > 0 {
			m.SelectedIndex--
		}
	case "down", "j":
		if m.SelectedIndex < len(m.Sessions)-1 {
			m.SelectedIndex++
		}
	case "enter":
		if c := m.SelectedSession(); c != nil {
			m.Err = m.ActivateSession(c.ID)
		}
	case " ", "space":
		m.Engine.Toggle()
		m.syncTicker()
	case "r":
		m.Engine.Reset()
		m.syncTicker()
	case "s":
		m.Engine.Skip()
		m.syncTicker()
	case "n":
		m.ShowAddForm = true
		m.FormName = ""
		m.FormWork = strconv.Itoa(defaultWorkMinutes)
		m.FormBreak = strconv.Itoa(defaultBreakMinutes)
		m.InputFocus = focusName
	case "e":
		if c := m.SelectedSession(); c != nil {
			editing := *c
			m.ShowEditForm = true
			m.EditingSession = &editing
			m.FormName = c.Name
			m.FormWork = strconv.Itoa(c.WorkMinutes)
			m.FormBreak = strconv.Itoa(c.BreakMinutes)
			m.InputFocus = focusName
		}
	case "d":
		if c := m.SelectedSession(); c != nil {
			m.Err = m.DeleteSession(c.ID)
		}
	case "l":
		records, err := m.repo.GetRecords(m.ctx, historyLimit)
		if err != nil {
			m.logger.Warn("Failed to load history", logfields.Error(err))
		}
		m.Records = records
		m.ShowLogView = true
		m.LogViewScroll = 0
	}
	return m, nil
}

func (m *Model) handleLogViewInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc", "l":
		m.ShowLogView = false
		m.Records = nil
	case "up", "k":
		if m.LogViewScroll > 0 {
			m.LogViewScroll--
		}
	case "down", "j":
		maxScroll := max(len(m.Records)-1, 0)
		if m.LogViewScroll < maxScroll {
			m.LogViewScroll++
		}
	}
	return m, nil
}

func (m *Model) handleFormInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.closeForm()
	case "enter":
		if m.InputFocus < formFields-1 {
			m.InputFocus++
			return m, nil
		}
		if err := m.submitForm(); err != nil {
			m.Err = err
			if errors.Is(err, session.ErrInvalidConfig) {
				m.InputFocus = focusName
			}
			return m, nil
		}
		m.closeForm()
	case "tab":
		m.InputFocus = (m.InputFocus + 1) % formFields
	case "shift+tab":
		m.InputFocus = (m.InputFocus + formFields - 1) % formFields
	case "backspace":
		field := m.focusedField()
		if len(*field) > 0 {
			runes := []rune(*field)
			*field = string(runes[:len(runes)-1])
		}
	default:
		runes := []rune(msg.String())
		if len(runes) != 1 {
			break
		}
		if m.InputFocus == focusName {
			m.FormName += string(runes[0])
		} else if runes[0] >= '0' && runes[0] <= '9' {
			field := m.focusedField()
			*field += string(runes[0])
		}
	}
	return m, nil
}

func (m *Model) focusedField() *string {
	switch m.InputFocus {
	case focusWork:
		return &m.FormWork
	case focusBreak:
		return &m.FormBreak
	default:
		return &m.FormName
	}
}

func (m *Model) submitForm() error {
	workMinutes := parseMinutes(m.FormWork, defaultWorkMinutes)
	breakMinutes := parseMinutes(m.FormBreak, defaultBreakMinutes)

	if m.ShowAddForm {
		return m.AddSession(m.FormName, workMinutes, breakMinutes)
	}
	if m.ShowEditForm && m.EditingSession != nil {
		m.EditingSession.Name = m.FormName
		m.EditingSession.WorkMinutes = workMinutes
		m.EditingSession.BreakMinutes = breakMinutes
		return m.UpdateSession(m.EditingSession)
	}
	return nil
}

func (m *Model) closeForm() {
	m.ShowAddForm = false
	m.ShowEditForm = false
	m.EditingSession = nil
	m.Err = nil
}

func parseMinutes(input string, fallback int) int {
	v, err := strconv.Atoi(input)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
