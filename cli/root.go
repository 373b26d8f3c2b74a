// Package cli wires the cobra command surface to the task state and store.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"todo-tui/app"
	"todo-tui/config"
	"todo-tui/logging"
	"todo-tui/model"
	"todo-tui/store"
	"todo-tui/tui"
)

var (
	ErrNoTaskAtPosition = errors.New("no task at position")
	ErrInvalidPriority  = errors.New("priority must be between 1 and 5")
)

// App carries flag values and the resolved config between commands.
type App struct {
	ConfigPath string
	DataFile   string
	LogLevel   string
	NoColor    bool

	cfg config.Config
	log *log.Logger
}

func NewRootCmd() *cobra.Command {
	a := &App{}

	cmd := &cobra.Command{
		Use:          "todo",
		Short:        "Keyboard-driven task manager backed by a JSON file",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  todo

  # Scriptable commands
  todo add "Write spec" -p 1
  todo list --filter active
  todo done 1
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(a)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup(cmd.ErrOrStderr())
	}

	cmd.PersistentFlags().StringVar(&a.DataFile, "data-file", "", "Path to the task file (default: $XDG_DATA_HOME/todo-tui/todos.json)")
	cmd.PersistentFlags().StringVar(&a.ConfigPath, "config", "", "Path to a TOML config file")
	cmd.PersistentFlags().StringVar(&a.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().BoolVar(&a.NoColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newAddCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newDoneCmd(a))
	cmd.AddCommand(newDeleteCmd(a))
	cmd.AddCommand(newTUICmd(a))
	cmd.AddCommand(newRecoverCmd(a))
	cmd.AddCommand(newPathCmd(a))

	return cmd
}

func (a *App) setup(stderr io.Writer) error {
	cfg, err := config.Load(a.ConfigPath, config.Overrides{
		DataFile: a.DataFile,
		LogLevel: a.LogLevel,
		NoColor:  a.NoColor,
	})
	if err != nil {
		return err
	}
	logger, err := logging.New(stderr, a.logOptions(cfg, false))
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger
	return nil
}

func (a *App) logOptions(cfg config.Config, timestamps bool) logging.Options {
	opts := logging.DefaultOptions()
	if cfg.LogLevel != "" {
		opts.Level = cfg.LogLevel
	}
	if cfg.LogFormat != "" {
		opts.Format = cfg.LogFormat
	}
	opts.ReportTimestamp = timestamps
	return opts
}

// loadState reads the task file into a fresh state. Malformed files are fatal.
func (a *App) loadState() (*app.State, error) {
	c, err := store.Load(a.cfg.DataFile)
	if err != nil {
		if errors.Is(err, store.ErrMalformed) {
			return nil, fmt.Errorf("%w (run `todo recover` to restore the last backup)", err)
		}
		return nil, err
	}
	a.log.Debug("loaded", "path", a.cfg.DataFile, "tasks", c.Len())
	return app.NewState(c, app.Options{WrapFields: a.cfg.WrapFields}), nil
}

func (a *App) persist(state *app.State) error {
	return state.Flush(func(c *model.Collection) error {
		if err := store.Autosave(a.cfg.DataFile, c, a.cfg.Backups); err != nil {
			return fmt.Errorf("save %s: %w", a.cfg.DataFile, err)
		}
		a.log.Debug("saved", "path", a.cfg.DataFile, "tasks", c.Len())
		return nil
	})
}

func runTUI(a *App) error {
	state, err := a.loadState()
	if err != nil {
		return err
	}

	logger := logging.Discard()
	if a.cfg.LogFile != "" {
		f, err := logging.OpenFile(a.cfg.LogFile)
		if err != nil {
			return err
		}
		defer f.Close()
		logger, err = logging.New(f, a.logOptions(a.cfg, true))
		if err != nil {
			return err
		}
	}
	logger.Info("starting tui", "path", a.cfg.DataFile)

	return tui.Run(state, tui.Options{
		DataFile: a.cfg.DataFile,
		Backups:  a.cfg.Backups,
		Tick:     a.cfg.TickInterval,
		NoColor:  a.cfg.NoColor,
		Logger:   logger,
	})
}
