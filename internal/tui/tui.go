// Package tui is the operator console of the dialer. It follows the bubbletea model: every
// change of the dialer arrives as a SnapshotMsg and the operator actions are forwarded to the
// Controller.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/gavet/crmdialer/internal/app/dial"
	"github.com/gavet/crmdialer/internal/log"
	"github.com/gavet/crmdialer/internal/model"
)

// Controller is the dialer as seen by the console.
type Controller interface {
	Run(ctx context.Context) error
	Pause()
	Resume()
	Stop()
	AddCodes(ctx context.Context, codes []string) (int, error)
	RegisterObservation(text string) error
	ScheduleCallback(req model.ScheduleRequest) (model.Schedule, error)
	Snapshot() dial.Snapshot
}

// SnapshotMsg carries a new dialer state. It is sent from the dialer observer with
// tea.Program.Send.
type SnapshotMsg dial.Snapshot

type runFinishedMsg struct{ err error }

type codesAddedMsg struct {
	n   int
	err error
}

type mode int

const (
	modeMain mode = iota
	modeAddCodes
	modeObservation
	modeScheduleDay
	modeScheduleDate
	modeScheduleTime
	modeQuitConfirm
	modeAlert
)

// Config is the console configuration.
type Config struct {
	Controller Controller
	// Context is used for the dialer run and the store writes.
	Context context.Context
	NoColor bool
	// Clipboard writes the text to the system clipboard.
	Clipboard func(text string) error
	Logger    log.Logger
}

func (c *Config) defaults() error {
	if c.Controller == nil {
		return fmt.Errorf("controller is required")
	}
	if c.Context == nil {
		c.Context = context.Background()
	}
	if c.Clipboard == nil {
		c.Clipboard = clipboard.WriteAll
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "tui.Console"})
	return nil
}

// Model is the console bubbletea model.
type Model struct {
	ctrl      Controller
	ctx       context.Context
	clipboard func(string) error
	logger    log.Logger

	snap    dial.Snapshot
	running bool
	mode    mode
	keys    keyMap

	codes       textarea.Model
	observation textinput.Model
	date        textinput.Model
	hour        textinput.Model
	schedDay    model.CallbackDay
	schedDate   string

	notice    string
	noticeErr bool
	modalErr  string
	alert     string

	help     help.Model
	progress progress.Model
	styles   styles
	width    int
}

// New creates the console model.
func New(cfg Config) (*Model, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	progOpts := []progress.Option{progress.WithWidth(40)}
	if cfg.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
		progOpts = append(progOpts, progress.WithColorProfile(termenv.Ascii))
	} else {
		progOpts = append(progOpts, progress.WithDefaultGradient())
	}

	codes := textarea.New()
	codes.Placeholder = "Um COD por linha"
	codes.ShowLineNumbers = false
	codes.SetHeight(8)

	observation := textinput.New()
	observation.Placeholder = "Observação da ligação"
	observation.CharLimit = 500
	observation.Width = 50

	date := textinput.New()
	date.Placeholder = "dd/mm/aaaa"
	date.CharLimit = 10
	date.Width = 12

	hour := textinput.New()
	hour.Placeholder = "HH:MM"
	hour.CharLimit = 5
	hour.Width = 6

	m := &Model{
		ctrl:        cfg.Controller,
		ctx:         cfg.Context,
		clipboard:   cfg.Clipboard,
		logger:      cfg.Logger,
		snap:        cfg.Controller.Snapshot(),
		keys:        newKeyMap(),
		codes:       codes,
		observation: observation,
		date:        date,
		hour:        hour,
		help:        help.New(),
		progress:    progress.New(progOpts...),
		styles:      newStyles(cfg.NoColor),
	}
	m.refreshKeys()

	return m, nil
}

// Init is called once when the program starts.
func (m *Model) Init() tea.Cmd { return nil }

// Update is called when a message is received.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer m.refreshKeys()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.codes.SetWidth(max(20, msg.Width-8))
		m.progress.Width = max(10, min(60, msg.Width-24))
		return m, nil

	case SnapshotMsg:
		m.handleSnapshot(dial.Snapshot(msg))
		return m, nil

	case runFinishedMsg:
		m.running = false
		if msg.err != nil {
			m.alert = msg.err.Error()
			m.mode = modeAlert
		}
		return m, nil

	case codesAddedMsg:
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("%d CODs na fila, erro ao salvar: %s", msg.n, msg.err), true)
		} else {
			m.setNotice(fmt.Sprintf("%d CODs adicionados com prioridade.", msg.n), false)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.ctrl.Stop()
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	return m, m.updateInput(msg)
}

func (m *Model) handleSnapshot(snap dial.Snapshot) {
	m.snap = snap

	// A released call closes its outcome dialogs.
	if !snap.AwaitingOutcome {
		switch m.mode {
		case modeObservation, modeScheduleDay, modeScheduleDate, modeScheduleTime:
			m.closeModal()
		}
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeAlert:
		switch msg.String() {
		case "enter", "esc", " ":
			m.alert = ""
			m.mode = modeMain
		}
		return m, nil

	case modeQuitConfirm:
		switch msg.String() {
		case "s", "y", "enter":
			m.ctrl.Stop()
			return m, tea.Quit
		case "n", "esc":
			m.mode = modeMain
		}
		return m, nil

	case modeAddCodes:
		switch msg.String() {
		case "esc":
			m.closeModal()
			return m, nil
		case "ctrl+s":
			return m, m.submitCodes()
		}

	case modeObservation:
		switch msg.String() {
		case "esc":
			m.closeModal()
			return m, nil
		case "enter":
			m.submitObservation()
			return m, nil
		}

	case modeScheduleDay:
		switch msg.String() {
		case "esc":
			m.closeModal()
		case "1", "2", "3":
			m.schedDay = model.CallbackDay(msg.Runes[0] - '0')
			m.schedDate = ""
			return m, m.focus(modeScheduleTime)
		case "d":
			return m, m.focus(modeScheduleDate)
		}
		return m, nil

	case modeScheduleDate:
		switch msg.String() {
		case "esc":
			m.closeModal()
			return m, nil
		case "enter":
			date := strings.TrimSpace(m.date.Value())
			if date == "" {
				m.modalErr = "Informe a data do retorno."
				return m, nil
			}
			m.schedDay = model.CallbackDayUnset
			m.schedDate = date
			return m, m.focus(modeScheduleTime)
		}

	case modeScheduleTime:
		switch msg.String() {
		case "esc":
			m.closeModal()
			return m, nil
		case "enter":
			m.submitSchedule()
			return m, nil
		}

	default:
		return m, m.handleMainKey(msg)
	}

	return m, m.updateInput(msg)
}

func (m *Model) handleMainKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Start):
		if m.snap.State == dial.StatePaused {
			return controlCmd(m.ctrl.Resume)
		}
		if m.running {
			return nil
		}
		m.running = true
		m.setNotice("", false)
		ctrl, ctx := m.ctrl, m.ctx
		return func() tea.Msg {
			return runFinishedMsg{err: ctrl.Run(ctx)}
		}

	case key.Matches(msg, m.keys.Pause):
		if m.snap.State == dial.StateRunning {
			return controlCmd(m.ctrl.Pause)
		}

	case key.Matches(msg, m.keys.AddCodes):
		m.codes.Reset()
		return m.focus(modeAddCodes)

	case key.Matches(msg, m.keys.Observation):
		if m.snap.AwaitingOutcome {
			m.observation.Reset()
			return m.focus(modeObservation)
		}

	case key.Matches(msg, m.keys.Schedule):
		if m.snap.AwaitingOutcome {
			m.schedDay = model.CallbackDayUnset
			m.schedDate = ""
			m.date.Reset()
			m.hour.Reset()
			m.modalErr = ""
			m.mode = modeScheduleDay
		}

	case key.Matches(msg, m.keys.Copy):
		m.copyCode()

	case key.Matches(msg, m.keys.Quit):
		m.mode = modeQuitConfirm
	}

	return nil
}

// controlCmd runs f off the event loop. The controller publishes its new state through the
// program, so it must never be called from Update.
func controlCmd(f func()) tea.Cmd {
	return func() tea.Msg {
		f()
		return nil
	}
}

func (m *Model) submitCodes() tea.Cmd {
	codes := model.ParseCodes(m.codes.Value())
	m.closeModal()
	if len(codes) == 0 {
		m.setNotice("Nenhum COD informado.", true)
		return nil
	}

	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		n, err := ctrl.AddCodes(ctx, codes)
		return codesAddedMsg{n: n, err: err}
	}
}

func (m *Model) submitObservation() {
	text := m.observation.Value()
	m.closeModal()
	if err := m.ctrl.RegisterObservation(text); err != nil {
		m.setNotice(fmt.Sprintf("Erro: %s", err), true)
		return
	}
	m.setNotice("Observação registrada.", false)
}

func (m *Model) submitSchedule() {
	req := model.ScheduleRequest{
		Day:  m.schedDay,
		Date: m.schedDate,
		Time: m.hour.Value(),
	}

	sch, err := m.ctrl.ScheduleCallback(req)
	switch {
	case errors.Is(err, dial.ErrNoPendingCall):
		m.closeModal()
		m.setNotice(fmt.Sprintf("Erro: %s", err), true)
	case err != nil:
		m.modalErr = fmt.Sprintf("Erro: %s", err)
	default:
		m.closeModal()
		m.setNotice(model.ObservationCallbackScheduled(sch.Date, sch.Time), false)
	}
}

func (m *Model) copyCode() {
	if m.snap.Code == "" {
		return
	}
	if err := m.clipboard(m.snap.Code); err != nil {
		m.logger.Warningf("Could not copy code to clipboard: %s", err)
		m.setNotice("Não foi possível copiar o COD.", true)
		return
	}
	m.setNotice(fmt.Sprintf("COD %s copiado.", m.snap.Code), false)
}

// focus opens the modal and focuses its input.
func (m *Model) focus(md mode) tea.Cmd {
	m.blurAll()
	m.mode = md
	m.modalErr = ""
	switch md {
	case modeAddCodes:
		return m.codes.Focus()
	case modeObservation:
		return m.observation.Focus()
	case modeScheduleDate:
		return m.date.Focus()
	case modeScheduleTime:
		return m.hour.Focus()
	}
	return nil
}

func (m *Model) closeModal() {
	m.blurAll()
	m.mode = modeMain
	m.modalErr = ""
}

func (m *Model) blurAll() {
	m.codes.Blur()
	m.observation.Blur()
	m.date.Blur()
	m.hour.Blur()
}

func (m *Model) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.mode {
	case modeAddCodes:
		m.codes, cmd = m.codes.Update(msg)
	case modeObservation:
		m.observation, cmd = m.observation.Update(msg)
	case modeScheduleDate:
		m.date, cmd = m.date.Update(msg)
	case modeScheduleTime:
		m.hour, cmd = m.hour.Update(msg)
	}
	return cmd
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m *Model) refreshKeys() {
	m.keys.Start.SetEnabled(!m.running || m.snap.State == dial.StatePaused)
	m.keys.Pause.SetEnabled(m.snap.State == dial.StateRunning)
	m.keys.Observation.SetEnabled(m.snap.AwaitingOutcome)
	m.keys.Schedule.SetEnabled(m.snap.AwaitingOutcome)
	m.keys.Copy.SetEnabled(m.snap.Code != "")
}
