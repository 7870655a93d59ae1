package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"pomodoro/focus/internal/app"
	"pomodoro/focus/internal/model"
)

type AchievementsCmd struct {
	flags *Flags
	yes   bool
}

func NewAchievementsCmd(flags *Flags) *AchievementsCmd {
	return &AchievementsCmd{flags: flags}
}

func (cmd *AchievementsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "achievements",
		Aliases: []string{"ach"},
		Usage:   "Show or reset milestone achievements",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Show every achievement and the completed count",
				Action: cmd.list,
			},
			{
				Name:  "reset",
				Usage: "Lock every achievement and restart the count",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "yes",
						Aliases:     []string{"y"},
						Usage:       "confirm the reset",
						Destination: &cmd.yes,
					},
				},
				Action: cmd.reset,
			},
		},
		Action: cmd.list,
	})
	return app
}

func (cmd *AchievementsCmd) list(ctx context.Context, _ *cli.Command) error {
	application, err := app.New(ctx, cmd.flags.Config, quietLogger(cmd.flags.Logger), app.Options{})
	if err != nil {
		return err
	}
	defer application.Close()

	return cmd.print(application.Achievements.List(), application.Achievements.Completed())
}

func (cmd *AchievementsCmd) reset(ctx context.Context, _ *cli.Command) error {
	if !cmd.yes {
		return fmt.Errorf("refusing to reset achievements without --yes")
	}

	application, err := app.New(ctx, cmd.flags.Config, quietLogger(cmd.flags.Logger), app.Options{})
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Achievements.ResetAll(ctx); err != nil {
		return fmt.Errorf("reset achievements: %w", err)
	}
	return cmd.print(application.Achievements.List(), application.Achievements.Completed())
}

func (cmd *AchievementsCmd) print(achievements []model.Achievement, completed int) error {
	w := tabwriter.NewWriter(cmd.flags.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "completed: %d\n\n", completed)
	fmt.Fprintln(w, "STATUS\tTITLE\tTHRESHOLD\tUNLOCKED AT")
	for _, a := range achievements {
		status, at := "locked", "-"
		if a.Unlocked {
			status = "unlocked"
			if a.UnlockedAt != nil {
				at = a.UnlockedAt.Local().Format("2006-01-02 15:04")
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", status, a.Title, a.Threshold, at)
	}
	return w.Flush()
}
