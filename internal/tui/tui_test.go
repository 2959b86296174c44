package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavet/crmdialer/internal/app/dial"
	"github.com/gavet/crmdialer/internal/model"
)

type fakeController struct {
	mu           sync.Mutex
	runErr       error
	scheduleErr  error
	observeErr   error
	runs         int
	pauses       int
	resumes      int
	stops        int
	added        [][]string
	observations []string
	schedules    []model.ScheduleRequest
}

func (f *fakeController) Run(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	return f.runErr
}

func (f *fakeController) Pause()  { f.mu.Lock(); f.pauses++; f.mu.Unlock() }
func (f *fakeController) Resume() { f.mu.Lock(); f.resumes++; f.mu.Unlock() }
func (f *fakeController) Stop()   { f.mu.Lock(); f.stops++; f.mu.Unlock() }

func (f *fakeController) AddCodes(ctx context.Context, codes []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, codes)
	return len(codes), nil
}

func (f *fakeController) RegisterObservation(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.observeErr != nil {
		return f.observeErr
	}
	f.observations = append(f.observations, text)
	return nil
}

func (f *fakeController) ScheduleCallback(req model.ScheduleRequest) (model.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scheduleErr != nil {
		return model.Schedule{}, f.scheduleErr
	}
	f.schedules = append(f.schedules, req)
	return model.Schedule{Date: "31/01/2026", Time: req.Time}, nil
}

func (f *fakeController) Snapshot() dial.Snapshot { return dial.Snapshot{State: dial.StateIdle} }

func newTestModel(t *testing.T, ctrl *fakeController) *Model {
	t.Helper()
	m, err := New(Config{Controller: ctrl, NoColor: true, Clipboard: func(string) error { return nil }})
	require.NoError(t, err)
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func send(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func awaiting(code string) SnapshotMsg {
	return SnapshotMsg(dial.Snapshot{State: dial.StateRunning, Code: code, Phone: "11999990001", AwaitingOutcome: true, Processed: 1, Total: 4})
}

func TestNewRequiresController(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestStartRunsTheController(t *testing.T) {
	tests := map[string]struct {
		runErr   error
		expMode  mode
		expAlert string
	}{
		"A finished run should go back to the main view.": {
			expMode: modeMain,
		},
		"A failed run should show a blocking alert.": {
			runErr:   errors.New("could not login on the CRM"),
			expMode:  modeAlert,
			expAlert: "could not login on the CRM",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			ctrl := &fakeController{runErr: test.runErr}
			m := newTestModel(t, ctrl)

			cmd := send(m, runes("s"))
			require.NotNil(cmd)
			assert.True(m.running)

			// A second start while the run is active is ignored.
			assert.Nil(send(m, runes("s")))

			msg := cmd()
			assert.Equal(1, ctrl.runs)
			send(m, msg)

			assert.False(m.running)
			assert.Equal(test.expMode, m.mode)
			assert.Equal(test.expAlert, m.alert)
			if test.expAlert != "" {
				assert.Contains(m.View(), test.expAlert)

				// Any key other than enter keeps the alert.
				send(m, runes("s"))
				assert.Equal(modeAlert, m.mode)
				send(m, tea.KeyMsg{Type: tea.KeyEnter})
				assert.Equal(modeMain, m.mode)
			}
		})
	}
}

func TestPauseAndResume(t *testing.T) {
	assert := assert.New(t)

	ctrl := &fakeController{}
	m := newTestModel(t, ctrl)

	// Not running, pause is ignored.
	send(m, runes("p"))
	assert.Equal(0, ctrl.pauses)

	m.running = true
	cmd := send(m, SnapshotMsg(dial.Snapshot{State: dial.StateRunning}), runes("p"))
	assert.Equal(0, ctrl.pauses, "pause must run outside Update")
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(1, ctrl.pauses)

	cmd = send(m, SnapshotMsg(dial.Snapshot{State: dial.StatePaused}), runes("s"))
	assert.Equal(0, ctrl.resumes, "resume must run outside Update")
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(1, ctrl.resumes)
	assert.Equal(0, ctrl.runs)
}

func TestObservation(t *testing.T) {
	tests := map[string]struct {
		awaiting   bool
		observeErr error
		expObs     []string
		expNotice  string
	}{
		"Without a call the observation dialog should not open.": {
			awaiting: false,
		},
		"An observation should be sent to the controller.": {
			awaiting:  true,
			expObs:    []string{"cliente pediu proposta"},
			expNotice: "Observação registrada.",
		},
		"A rejected observation should be shown as an error.": {
			awaiting:   true,
			observeErr: dial.ErrNoPendingCall,
			expNotice:  "Erro: " + dial.ErrNoPendingCall.Error(),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			ctrl := &fakeController{observeErr: test.observeErr}
			m := newTestModel(t, ctrl)
			if test.awaiting {
				send(m, awaiting("123456"))
			}

			send(m, runes("o"))
			if !test.awaiting {
				assert.Equal(modeMain, m.mode)
				return
			}
			assert.Equal(modeObservation, m.mode)
			assert.Contains(m.View(), "Observação do COD 123456")

			m.observation.SetValue("cliente pediu proposta")
			send(m, tea.KeyMsg{Type: tea.KeyEnter})

			assert.Equal(modeMain, m.mode)
			assert.Equal(test.expObs, ctrl.observations)
			assert.Equal(test.expNotice, m.notice)
		})
	}
}

func TestScheduleCallback(t *testing.T) {
	tests := map[string]struct {
		keys        []tea.Msg
		date        string
		hour        string
		scheduleErr error
		expReqs     []model.ScheduleRequest
		expMode     mode
		expModalErr string
	}{
		"A relative day and a time should schedule the callback.": {
			keys:    []tea.Msg{runes("2")},
			hour:    "14:30",
			expReqs: []model.ScheduleRequest{{Day: model.CallbackDayTomorrow, Time: "14:30"}},
			expMode: modeMain,
		},
		"A typed date should be used instead of the relative day.": {
			keys:    []tea.Msg{runes("d"), tea.KeyMsg{Type: tea.KeyEnter}},
			date:    "05/02/2026",
			hour:    "09:00",
			expReqs: []model.ScheduleRequest{{Date: "05/02/2026", Time: "09:00"}},
			expMode: modeMain,
		},
		"An invalid time should keep the dialog open with the error.": {
			keys:        []tea.Msg{runes("1")},
			hour:        "9h",
			scheduleErr: errors.New("invalid time"),
			expMode:     modeScheduleTime,
			expModalErr: "Erro: invalid time",
		},
		"A call released meanwhile should close the dialog.": {
			keys:        []tea.Msg{runes("1")},
			hour:        "10:00",
			scheduleErr: dial.ErrNoPendingCall,
			expMode:     modeMain,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			ctrl := &fakeController{scheduleErr: test.scheduleErr}
			m := newTestModel(t, ctrl)
			send(m, awaiting("123456"), runes("r"))
			assert.Equal(modeScheduleDay, m.mode)

			for _, k := range test.keys {
				if m.mode == modeScheduleDate {
					m.date.SetValue(test.date)
				}
				send(m, k)
			}
			assert.Equal(modeScheduleTime, m.mode)

			m.hour.SetValue(test.hour)
			send(m, tea.KeyMsg{Type: tea.KeyEnter})

			assert.Equal(test.expMode, m.mode)
			assert.Equal(test.expReqs, ctrl.schedules)
			assert.Equal(test.expModalErr, m.modalErr)
		})
	}
}

func TestScheduleDateRequired(t *testing.T) {
	m := newTestModel(t, &fakeController{})
	send(m, awaiting("123456"), runes("r"), runes("d"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, modeScheduleDate, m.mode)
	assert.Equal(t, "Informe a data do retorno.", m.modalErr)
}

func TestReleasedCallClosesOutcomeDialogs(t *testing.T) {
	m := newTestModel(t, &fakeController{})
	send(m, awaiting("123456"), runes("o"))
	require.Equal(t, modeObservation, m.mode)

	send(m, SnapshotMsg(dial.Snapshot{State: dial.StateRunning}))
	assert.Equal(t, modeMain, m.mode)
}

func TestAddCodes(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	ctrl := &fakeController{}
	m := newTestModel(t, ctrl)

	send(m, runes("a"))
	require.Equal(modeAddCodes, m.mode)

	// Typed keys go to the text area.
	send(m, runes("q"))
	assert.Equal(modeAddCodes, m.mode)

	m.codes.SetValue(" 555555 \n\n444444\n")
	cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(cmd)
	assert.Equal(modeMain, m.mode)

	send(m, cmd())
	assert.Equal([][]string{{"555555", "444444"}}, ctrl.added)
	assert.Equal("2 CODs adicionados com prioridade.", m.notice)
}

func TestAddNoCodes(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(t, ctrl)

	send(m, runes("a"))
	cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.Nil(t, cmd)
	assert.Empty(t, ctrl.added)
	assert.Equal(t, "Nenhum COD informado.", m.notice)
}

func TestCopyCode(t *testing.T) {
	var copied []string
	m, err := New(Config{
		Controller: &fakeController{},
		NoColor:    true,
		Clipboard: func(text string) error {
			copied = append(copied, text)
			return nil
		},
	})
	require.NoError(t, err)

	// Nothing to copy yet.
	send(m, runes("y"))
	assert.Empty(t, copied)

	send(m, awaiting("123456"), runes("y"))
	assert.Equal(t, []string{"123456"}, copied)
	assert.Equal(t, "COD 123456 copiado.", m.notice)
}

func TestQuit(t *testing.T) {
	tests := map[string]struct {
		confirm  tea.Msg
		expQuit  bool
		expStops int
	}{
		"Confirming should stop the dialer and quit.": {
			confirm:  runes("s"),
			expQuit:  true,
			expStops: 1,
		},
		"Cancelling should go back to the console.": {
			confirm: runes("n"),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			ctrl := &fakeController{}
			m := newTestModel(t, ctrl)

			send(m, runes("q"))
			assert.Equal(modeQuitConfirm, m.mode)

			cmd := send(m, test.confirm)
			assert.Equal(test.expStops, ctrl.stops)
			if test.expQuit {
				require.NotNil(t, cmd)
				assert.Equal(tea.QuitMsg{}, cmd())
			} else {
				assert.Nil(cmd)
				assert.Equal(modeMain, m.mode)
			}
		})
	}
}

func TestViewShowsSnapshot(t *testing.T) {
	m := newTestModel(t, &fakeController{})
	send(m, SnapshotMsg(dial.Snapshot{
		State:           dial.StateRunning,
		Status:          "Buscando COD 123456...",
		Code:            "123456",
		Processed:       1,
		Total:           4,
		PendingPriority: 2,
	}))

	view := m.View()
	assert.Contains(t, view, "Em execução")
	assert.Contains(t, view, "Buscando COD 123456...")
	assert.Contains(t, view, "123456")
	assert.Contains(t, view, "1/4")
	assert.Contains(t, view, "Prioridade pendente: 2")
	assert.NotContains(t, view, "Ligação em andamento")
}
