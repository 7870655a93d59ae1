package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"pomodoro/focus/internal/db"
)

type MigrateCmd struct {
	flags *Flags
}

func NewMigrateCmd(flags *Flags) *MigrateCmd {
	return &MigrateCmd{flags: flags}
}

func (cmd *MigrateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "migrate",
		Usage:  "Apply pending database migrations",
		Action: cmd.run,
	})
	return app
}

func (cmd *MigrateCmd) run(ctx context.Context, _ *cli.Command) error {
	database, err := db.OpenSQLite(cmd.flags.Config.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	applied, err := db.RunMigrations(ctx, database)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	out := cmd.flags.out()
	if len(applied) == 0 {
		fmt.Fprintln(out, "database is up to date")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(out, "applied %s\n", name)
	}
	return nil
}
