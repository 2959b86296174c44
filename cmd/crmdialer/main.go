package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"github.com/gavet/crmdialer/cmd/crmdialer/commands"
	"github.com/gavet/crmdialer/internal/conventions"
	"github.com/gavet/crmdialer/internal/log"
	loglogrus "github.com/gavet/crmdialer/internal/log/logrus"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	// Optional .env with CRMDIALER_* values, real env vars take precedence.
	dotEnvErr := loadDotEnv(".env")

	app := kingpin.New("crmdialer", "CRM assisted dialer for call center operators.")
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	// Setup commands (registers flags).
	initCmd := commands.NewInitCommand(rootCmd, app)
	runCmd := commands.NewRunCommand(rootCmd, app)
	enqueueCmd := commands.NewEnqueueCommand(rootCmd, app)
	statusCmd := commands.NewStatusCommand(rootCmd, app)
	callbacksCmd := commands.NewCallbacksCommand(rootCmd, app)

	cmds := map[string]commands.Command{
		initCmd.Name():      initCmd,
		runCmd.Name():       runCmd,
		enqueueCmd.Name():   enqueueCmd,
		statusCmd.Name():    statusCmd,
		callbacksCmd.Name(): callbacksCmd,
	}

	// Parse command.
	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	// Set standard input/output.
	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	// Printer commands only log on debug so the logs don't mix with the output.
	printerCommands := map[string]bool{
		"status":    true,
		"callbacks": true,
	}
	if printerCommands[cmdName] && !rootCmd.Debug {
		rootCmd.NoLog = true
	}

	// The operator console owns the terminal, its logs go to a file in the data dir.
	var logOut io.Writer = stderr
	logToFile := cmdName == runCmd.Name() && !rootCmd.NoLog
	if logToFile {
		f, err := openLogFile(rootCmd.DataDir)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}

	// Set logger.
	rootCmd.Logger = getLogger(*rootCmd, logOut, logToFile)
	if dotEnvErr != nil {
		rootCmd.Logger.Warningf("Ignoring .env file: %s", dotEnvErr)
	}

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				err := cmds[cmdName].Run(ctx)
				if err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

// loadDotEnv loads the env file if present. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("could not load %s: %w", path, err)
}

func openLogFile(dataDir string) (*os.File, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create data dir: %w", err)
	}

	path := filepath.Join(dataDir, conventions.LogFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}

	return f, nil
}

// getLogger returns the application logger.
func getLogger(config commands.RootCommand, out io.Writer, toFile bool) log.Logger {
	if config.NoLog {
		return log.Noop
	}

	// If logger not disabled use logrus logger.
	logrusLog := logrus.New()
	logrusLog.Out = out
	logrusLogEntry := logrus.NewEntry(logrusLog)

	if config.Debug {
		logrusLogEntry.Logger.SetLevel(logrus.DebugLevel)
	}

	// Log files never get colors.
	noColor := config.NoColor || toFile

	// Log format.
	switch config.LoggerType {
	case commands.LoggerTypeDefault:
		logrusLogEntry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:     !noColor,
			DisableColors:   noColor,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	case commands.LoggerTypeJSON:
		logrusLogEntry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := loglogrus.NewLogrus(logrusLogEntry).WithValues(log.Kv{
		"version": Version,
	})

	logger.Debugf("Debug level is enabled") // Will log only when debug enabled.

	return logger
}

func main() {
	ctx := context.Background()
	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
