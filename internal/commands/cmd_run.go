package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"pomodoro/focus/internal/app"
	"pomodoro/focus/internal/logging"
	"pomodoro/focus/internal/tui"
)

type RunCmd struct {
	flags *Flags
}

func NewRunCmd(flags *Flags) *RunCmd {
	return &RunCmd{flags: flags}
}

func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "run",
		Usage:  "Run the timer in the terminal",
		Action: cmd.run,
	})
	return app
}

func (cmd *RunCmd) run(ctx context.Context, _ *cli.Command) error {
	cfg := cmd.flags.Config
	logger := cmd.flags.Logger

	// The alternate screen owns the terminal, so stderr logging moves to a file.
	if cfg.LogFile == "" {
		path := filepath.Join(filepath.Dir(cfg.DBPath), "pomodoro.log")
		fileLogger, closer, err := logging.New(cfg.LogLevel, path)
		if err != nil {
			return fmt.Errorf("setup logger: %w", err)
		}
		defer closer()
		logger = fileLogger
	}

	application, err := app.New(ctx, cfg, logger, app.Options{Bell: os.Stdout})
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error().Err(err).Msg("close app")
		}
	}()

	snaps, cancelSnaps := application.Machine.Subscribe(8)
	defer cancelSnaps()
	events, cancelEvents := application.Hub.Subscribe(8)
	defer cancelEvents()

	return tui.Run(ctx, application.Machine, snaps, events)
}
