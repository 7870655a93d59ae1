package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"pomodoro/focus/internal/config"
	"pomodoro/focus/internal/logging"
)

// NewRoot builds the command tree. The returned cleanup closes the log file
// opened by the Before hook.
func NewRoot(flags *Flags, version string) (*cli.Command, func()) {
	logCloser := func() {}

	root := &cli.Command{
		Name:      "pomodoro",
		Usage:     "Focus timer with session history and achievements",
		UsageText: "pomodoro [global options] command [command options]",
		Version:   version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("POMODORO_CONFIG"),
				Value:       DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "db",
				Usage:       "path to the SQLite database (overrides DB_PATH)",
				Destination: &flags.DBPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Destination: &flags.LogFile,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg, err := config.LoadFile(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if flags.DBPath != "" {
				cfg.DBPath = flags.DBPath
			}
			if flags.LogLevel != "" {
				cfg.LogLevel = flags.LogLevel
			}
			if flags.LogFile != "" {
				cfg.LogFile = flags.LogFile
			}
			flags.Config = cfg

			logger, closer, err := logging.New(cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			flags.Logger = logger
			logCloser = closer
			return ctx, nil
		},
	}

	root = NewServeCmd(flags).Register(root)
	root = NewMigrateCmd(flags).Register(root)
	root = NewRunCmd(flags).Register(root)
	root = NewHistoryCmd(flags).Register(root)
	root = NewAchievementsCmd(flags).Register(root)

	return root, func() { logCloser() }
}

// quietLogger drops everything below warn so command output stays readable.
func quietLogger(logger zerolog.Logger) zerolog.Logger {
	if logger.GetLevel() < zerolog.WarnLevel {
		return logger.Level(zerolog.WarnLevel)
	}
	return logger
}
