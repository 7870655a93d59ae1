package commands

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"pomodoro/focus/internal/config"
)

type Flags struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	LogFile    string

	// Config and Logger are set in the Before hook and available to all commands.
	Config config.Config
	Logger zerolog.Logger

	// Out receives command output. Defaults to stdout.
	Out io.Writer
}

func (f *Flags) out() io.Writer {
	if f.Out == nil {
		return os.Stdout
	}
	return f.Out
}

// DefaultConfigPath returns the config file path under XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "pomodoro", "config.yaml")
}
