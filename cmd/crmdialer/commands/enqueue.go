package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kingpin/v2"

	"github.com/gavet/crmdialer/internal/app/enqueue"
	"github.com/gavet/crmdialer/internal/printer"
)

type EnqueueCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	codes []string
}

// NewEnqueueCommand returns the enqueue command.
func NewEnqueueCommand(rootCmd *RootCommand, app *kingpin.Application) *EnqueueCommand {
	c := &EnqueueCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("enqueue", "Add codes to the priority list, read from stdin when no code is given.")
	c.Cmd.Arg("codes", "Codes to call first on the next run.").StringsVar(&c.codes)

	return c
}

func (c EnqueueCommand) Name() string { return c.Cmd.FullCommand() }

func (c EnqueueCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	codes := c.codes
	if len(codes) == 0 {
		data, err := io.ReadAll(c.rootCmd.Stdin)
		if err != nil {
			return fmt.Errorf("could not read codes from stdin: %w", err)
		}
		codes = []string{string(data)}
	}

	repo, closeRepo, err := newRepository(ctx, *c.rootCmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	svc, err := enqueue.NewService(enqueue.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	n, err := svc.Run(ctx, enqueue.Request{Codes: codes})
	if err != nil {
		return fmt.Errorf("could not enqueue codes: %w", err)
	}

	return printer.NewTablePrinter(c.rootCmd.Stdout).PrintMessage(fmt.Sprintf("%d codes added to the priority list", n))
}
