package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/alecthomas/kingpin/v2"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gavet/crmdialer/internal/app/dial"
	"github.com/gavet/crmdialer/internal/app/setup"
	"github.com/gavet/crmdialer/internal/conventions"
	"github.com/gavet/crmdialer/internal/crm"
	"github.com/gavet/crmdialer/internal/crm/chrome"
	"github.com/gavet/crmdialer/internal/crm/fake"
	"github.com/gavet/crmdialer/internal/log"
	"github.com/gavet/crmdialer/internal/model"
	storageio "github.com/gavet/crmdialer/internal/storage/io"
	"github.com/gavet/crmdialer/internal/tui"
	"github.com/gavet/crmdialer/internal/utils/kv"
)

const (
	crmChrome = "chrome"
	crmFake   = "fake"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	credentialsPath string
	crmConfigPath   string
	crm             string
	chromePath      string
	headless        bool
	fakeContacts    []string
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Open the operator console and dial the contact list.")
	c.Cmd.Flag("credentials", "Credentials file, defaults to login.txt inside the data dir.").StringVar(&c.credentialsPath)
	c.Cmd.Flag("crm-config", "CRM selectors and timeouts YAML, defaults to crm.yaml inside the data dir if present.").StringVar(&c.crmConfigPath)
	c.Cmd.Flag("crm", "CRM session backend.").Default(crmChrome).EnumVar(&c.crm, crmChrome, crmFake)
	c.Cmd.Flag("chrome-path", "Chrome binary, empty uses the one found in the system.").StringVar(&c.chromePath)
	c.Cmd.Flag("headless", "Run Chrome without a window.").BoolVar(&c.headless)
	c.Cmd.Flag("fake-contact", "Contact known by the fake CRM as CODE=PHONE (repeatable).").StringsVar(&c.fakeContacts)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	repo, closeRepo, err := newRepository(ctx, *c.rootCmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	credsPath := c.credentialsPath
	if credsPath == "" {
		credsPath = c.rootCmd.DataFile(conventions.CredentialsFile)
	}

	// The store and the credentials template are created on the first run.
	setupSvc, err := setup.NewService(setup.ServiceConfig{Repository: repo, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create setup service: %w", err)
	}
	if _, err := setupSvc.Run(ctx, setup.Request{CredentialsPath: credsPath}); err != nil {
		return fmt.Errorf("could not setup data dir: %w", err)
	}

	session, err := c.newSession(ctx, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	credsRepo := storageio.NewCredentialsFileRepository(os.DirFS(filepath.Dir(credsPath)))
	credsFile := filepath.Base(credsPath)

	var prog *tea.Program
	svc, err := dial.NewService(dial.ServiceConfig{
		Repository: repo,
		Session:    session,
		Credentials: func(ctx context.Context) (model.Credentials, error) {
			return credsRepo.GetCredentials(ctx, credsFile)
		},
		Observer: func(s dial.Snapshot) {
			if prog != nil {
				prog.Send(tui.SnapshotMsg(s))
			}
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create dial service: %w", err)
	}

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()
	ctrl := &trackedController{Service: svc}

	console, err := tui.New(tui.Config{
		Controller: ctrl,
		Context:    runCtx,
		NoColor:    c.rootCmd.NoColor,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create console: %w", err)
	}

	prog = tea.NewProgram(console,
		tea.WithContext(ctx),
		tea.WithInput(c.rootCmd.Stdin),
		tea.WithOutput(c.rootCmd.Stdout),
		tea.WithAltScreen(),
	)

	_, progErr := prog.Run()

	// The dialer must be done before the browser and the store are closed.
	runCancel()
	ctrl.shutdown()

	if progErr != nil && !errors.Is(progErr, tea.ErrProgramKilled) {
		return fmt.Errorf("console failed: %w", progErr)
	}

	return nil
}

func (c RunCommand) newSession(ctx context.Context, logger log.Logger) (crm.Session, error) {
	switch c.crm {
	case crmFake:
		contacts, err := kv.ParseSpecs(c.fakeContacts, kv.Digits)
		if err != nil {
			return nil, fmt.Errorf("invalid fake contacts: %w", err)
		}
		dir := make(map[string]model.ContactLookup, len(contacts))
		for code, phone := range contacts {
			dir[code] = model.ContactLookup{FoundCode: code, Phone: phone}
		}

		session, err := fake.NewSession(fake.SessionConfig{
			Directory:      dir,
			ResolveUnknown: len(dir) == 0,
			Logger:         logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create fake crm session: %w", err)
		}
		return session, nil

	default:
		crmCfg, err := c.loadCRMConfig(ctx)
		if err != nil {
			return nil, err
		}

		session, err := chrome.NewSession(chrome.SessionConfig{
			CRM:      crmCfg,
			ExecPath: c.chromePath,
			Headless: c.headless,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create chrome crm session: %w", err)
		}
		return session, nil
	}
}

func (c RunCommand) loadCRMConfig(ctx context.Context) (model.CRMConfig, error) {
	path := c.crmConfigPath
	if path == "" {
		path = c.rootCmd.DataFile(conventions.CRMConfigFile)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return model.DefaultCRMConfig(), nil
		}
	}

	repo := storageio.NewCRMConfigYAMLRepository(os.DirFS(filepath.Dir(path)))
	cfg, err := repo.GetCRMConfig(ctx, filepath.Base(path))
	if err != nil {
		return model.CRMConfig{}, fmt.Errorf("could not load crm config: %w", err)
	}

	return cfg, nil
}

// trackedController lets the command wait for an in flight dialer run.
type trackedController struct {
	*dial.Service

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func (t *trackedController) Run(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return context.Canceled
	}
	t.wg.Add(1)
	t.mu.Unlock()
	defer t.wg.Done()

	return t.Service.Run(ctx)
}

func (t *trackedController) shutdown() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	t.Service.Stop()
	t.wg.Wait()
}
