package tui

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavet/crmdialer/internal/app/dial"
	"github.com/gavet/crmdialer/internal/crm/fake"
	"github.com/gavet/crmdialer/internal/model"
	"github.com/gavet/crmdialer/internal/storage/memory"
)

const programTimeout = 3 * time.Second

// trackedModel records the console state after every update so the test can wait on what the
// event loop has actually processed.
type trackedModel struct {
	*Model

	mu   sync.Mutex
	mode mode
	snap dial.Snapshot
}

func (t *trackedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	_, cmd := t.Model.Update(msg)

	t.mu.Lock()
	t.mode = t.Model.mode
	t.snap = t.Model.snap
	t.mu.Unlock()

	return t, cmd
}

func (t *trackedModel) state() (mode, dial.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode, t.snap
}

type programHarness struct {
	t     *testing.T
	in    *io.PipeWriter
	model *trackedModel
	done  chan error
}

func (h *programHarness) press(keys string) {
	h.t.Helper()

	written := make(chan error, 1)
	go func() {
		_, err := h.in.Write([]byte(keys))
		written <- err
	}()

	select {
	case err := <-written:
		require.NoError(h.t, err)
	case <-time.After(programTimeout):
		h.t.Fatalf("console is not reading input after %q", keys)
	}
}

func (h *programHarness) waitFor(msg string, cond func(mode, dial.Snapshot) bool) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		return cond(h.model.state())
	}, programTimeout, 5*time.Millisecond, msg)
}

func TestConsoleDrivesTheDialService(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	ctx := context.Background()

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(err)
	_, err = repo.EnsureSchema(ctx)
	require.NoError(err)
	require.NoError(repo.AppendContact(ctx, model.Task{Code: "111111", Phone: "1199990001"}))
	require.NoError(repo.AppendContact(ctx, model.Task{Code: "222222", Phone: "1199990002"}))

	session, err := fake.NewSession(fake.SessionConfig{})
	require.NoError(err)

	var prog *tea.Program
	svc, err := dial.NewService(dial.ServiceConfig{
		Repository: repo,
		Session:    session,
		Credentials: func(context.Context) (model.Credentials, error) {
			return model.Credentials{User: "operator", Password: "secret", URL: "https://crm.example.com"}, nil
		},
		Pacing: &dial.Pacing{},
		Observer: func(s dial.Snapshot) {
			if prog != nil {
				prog.Send(SnapshotMsg(s))
			}
		},
	})
	require.NoError(err)

	console, err := New(Config{Controller: svc, Context: ctx, NoColor: true, Clipboard: func(string) error { return nil }})
	require.NoError(err)

	inR, inW := io.Pipe()
	t.Cleanup(func() { _ = inW.Close() })

	h := &programHarness{t: t, in: inW, model: &trackedModel{Model: console}, done: make(chan error, 1)}
	prog = tea.NewProgram(h.model,
		tea.WithInput(inR),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
	)
	go func() {
		_, err := prog.Run()
		h.done <- err
	}()

	h.press("s")
	h.waitFor("first call should wait for an outcome", func(_ mode, s dial.Snapshot) bool {
		return s.AwaitingOutcome && s.Code == "111111"
	})

	h.press("p")
	h.waitFor("console should show the run paused", func(_ mode, s dial.Snapshot) bool {
		return s.State == dial.StatePaused
	})

	h.press("s")
	h.waitFor("console should show the run resumed", func(_ mode, s dial.Snapshot) bool {
		return s.State == dial.StateRunning && s.AwaitingOutcome
	})

	h.press("o")
	h.waitFor("observation dialog should open", func(md mode, _ dial.Snapshot) bool {
		return md == modeObservation
	})
	h.press("retornar depois")
	h.press("\r")
	h.waitFor("second call should wait for an outcome", func(_ mode, s dial.Snapshot) bool {
		return s.AwaitingOutcome && s.Code == "222222"
	})

	h.press("q")
	h.waitFor("quit confirmation should open", func(md mode, _ dial.Snapshot) bool {
		return md == modeQuitConfirm
	})
	h.press("s")

	select {
	case err := <-h.done:
		require.NoError(err)
	case <-time.After(programTimeout):
		t.Fatal("console did not quit")
	}

	require.Eventually(func() bool {
		return svc.Snapshot().State == dial.StateFinished
	}, programTimeout, 5*time.Millisecond)

	results, err := repo.ListResults(ctx)
	require.NoError(err)
	require.Len(results, 1)
	assert.Equal("111111", results[0].Code)
	assert.Equal("retornar depois", results[0].Observation)
	assert.Equal([]string{"1199990001", "1199990002"}, session.Dials())
}
