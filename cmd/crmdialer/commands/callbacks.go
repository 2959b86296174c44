package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kingpin/v2"

	"github.com/gavet/crmdialer/internal/app/report"
	"github.com/gavet/crmdialer/internal/printer"
)

type CallbacksCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	date   string
	status string
	format string
}

// NewCallbacksCommand returns the callbacks command.
func NewCallbacksCommand(rootCmd *RootCommand, app *kingpin.Application) *CallbacksCommand {
	c := &CallbacksCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("callbacks", "List the scheduled callbacks.")
	c.Cmd.Flag("date", "Only callbacks of this day (dd/mm/yyyy).").StringVar(&c.date)
	c.Cmd.Flag("status", "Only callbacks with this status.").StringVar(&c.status)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c CallbacksCommand) Name() string { return c.Cmd.FullCommand() }

func (c CallbacksCommand) Run(ctx context.Context) error {
	repo, closeRepo, err := newRepository(ctx, *c.rootCmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	svc, err := report.NewService(report.ServiceConfig{
		Repository: repo,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	callbacks, err := svc.Callbacks(ctx, report.CallbacksRequest{
		Date:   c.date,
		Status: c.status,
	})
	if err != nil {
		return fmt.Errorf("could not list callbacks: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintCallbacks(callbacks); err != nil {
		return fmt.Errorf("could not print callbacks: %w", err)
	}

	return nil
}

func newPrinter(format string, w io.Writer) printer.Printer {
	switch format {
	case "json":
		return printer.NewJSONPrinter(w)
	default: // table
		return printer.NewTablePrinter(w)
	}
}
