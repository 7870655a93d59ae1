package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"pomodoro/focus/internal/app"
	apperrors "pomodoro/focus/internal/errors"
	"pomodoro/focus/internal/model"
)

type HistoryCmd struct {
	flags *Flags
	limit int
	all   bool
}

func NewHistoryCmd(flags *Flags) *HistoryCmd {
	return &HistoryCmd{flags: flags}
}

func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "history",
		Usage: "List recently completed focus sessions",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "number of sessions to show (1-200)",
				Value:       20,
				Destination: &cmd.limit,
			},
			&cli.BoolFlag{
				Name:        "all",
				Usage:       "show the whole log, oldest first",
				Destination: &cmd.all,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, _ *cli.Command) error {
	application, err := app.New(ctx, cmd.flags.Config, quietLogger(cmd.flags.Logger), app.Options{})
	if err != nil {
		return err
	}
	defer application.Close()

	var sessions []model.CompletedSession
	if cmd.all {
		sessions, err = application.Sessions.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
	} else {
		var apiErr *apperrors.APIError
		sessions, apiErr = application.Pomodoro.GetHistory(ctx, cmd.limit)
		if apiErr != nil {
			return apiErr
		}
	}

	out := cmd.flags.out()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "no completed sessions yet")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FINISHED\tDURATION\tID")
	for _, session := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			session.EndTime.Local().Format("2006-01-02 15:04"),
			session.Duration().Round(time.Second),
			session.ID,
		)
	}
	return w.Flush()
}
