package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/gavet/crmdialer/internal/app/setup"
	"github.com/gavet/crmdialer/internal/conventions"
	"github.com/gavet/crmdialer/internal/printer"
)

type InitCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	credentialsPath string
}

// NewInitCommand returns the init command.
func NewInitCommand(rootCmd *RootCommand, app *kingpin.Application) *InitCommand {
	c := &InitCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("init", "Create the task store and the credentials template if missing.")
	c.Cmd.Flag("credentials", "Credentials file, defaults to login.txt inside the data dir.").StringVar(&c.credentialsPath)

	return c
}

func (c InitCommand) Name() string { return c.Cmd.FullCommand() }

func (c InitCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	repo, closeRepo, err := newRepository(ctx, *c.rootCmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	svc, err := setup.NewService(setup.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	credsPath := c.credentialsPath
	if credsPath == "" {
		credsPath = c.rootCmd.DataFile(conventions.CredentialsFile)
	}

	res, err := svc.Run(ctx, setup.Request{CredentialsPath: credsPath})
	if err != nil {
		return fmt.Errorf("could not setup data dir: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	storeMsg := "Task store already exists"
	if res.StoreCreated {
		storeMsg = "Task store created"
	}
	if path := c.rootCmd.ResolvedStorePath(); path != "" {
		storeMsg += ": " + path
	}
	credsMsg := "Credentials file already exists: " + credsPath
	if res.CredentialsCreated {
		credsMsg = "Credentials template created, fill it before running: " + credsPath
	}

	for _, msg := range []string{storeMsg, credsMsg} {
		if err := p.PrintMessage(msg); err != nil {
			return fmt.Errorf("could not print message: %w", err)
		}
	}

	return nil
}
