package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"pomodoro/focus/internal/app"
	"pomodoro/focus/internal/logging"
)

const shutdownTimeout = 5 * time.Second

type ServeCmd struct {
	flags *Flags
	port  string
}

func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "serve",
		Usage: "Run the timer behind the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "port",
				Usage:       "listen port (overrides PORT)",
				Destination: &cmd.port,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ServeCmd) run(ctx context.Context, _ *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := cmd.flags.Config
	if cmd.port != "" {
		cfg.Port = cmd.port
	}
	logger := cmd.flags.Logger

	application, err := app.New(ctx, cfg, logger, app.Options{Bell: os.Stdout})
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error().Err(err).Msg("close app")
		}
	}()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           application.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Event streams watch the request context, so tie it to the signal context.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		httpLogger := logging.Component(logger, "http")
		httpLogger.Info().Str("addr", server.Addr).Msg("listening")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("run server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info().Msg("shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
