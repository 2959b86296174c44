package commands

import (
	"context"
	"io"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/gavet/crmdialer/internal/conventions"
	"github.com/gavet/crmdialer/internal/log"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

const (
	// StoreXLSX is the spreadsheet task store.
	StoreXLSX = "xlsx"
	// StoreSQLite is the SQLite task store.
	StoreSQLite = "sqlite"
	// StoreMemory is the in-memory task store, nothing is persisted.
	StoreMemory = "memory"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	DataDir    string
	Store      string
	StorePath  string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger and console color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDataDir := filepath.Join(homedir.HomeDir(), conventions.DefaultDataDir)
	app.Flag("data-dir", "Directory with the task store, credentials and logs.").Default(defaultDataDir).StringVar(&c.DataDir)
	app.Flag("store", "Task store backend.").Default(StoreXLSX).EnumVar(&c.Store, StoreXLSX, StoreSQLite, StoreMemory)
	app.Flag("store-path", "Task store file, defaults to a file inside the data dir.").StringVar(&c.StorePath)

	return c
}

// DataFile returns the path of a file inside the data dir.
func (c RootCommand) DataFile(name string) string {
	return conventions.DataFilePath(c.DataDir, name)
}

// ResolvedStorePath returns the task store file of the selected backend.
func (c RootCommand) ResolvedStorePath() string {
	if c.StorePath != "" {
		return c.StorePath
	}

	switch c.Store {
	case StoreSQLite:
		return c.DataFile(conventions.SQLiteFile)
	case StoreMemory:
		return ""
	default:
		return c.DataFile(conventions.WorkbookFile)
	}
}
