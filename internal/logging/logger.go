package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// New returns a JSON logger at the given level. Logs go to file when one is
// set, otherwise to stderr. The returned func closes the file.
func New(level string, file string) (zerolog.Logger, func(), error) {
	closer := func() {}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, closer, fmt.Errorf("parse log level %q: %w", level, err)
	}

	var writer io.Writer = os.Stderr
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return zerolog.Logger{}, closer, fmt.Errorf("create logs dir: %w", err)
		}

		osFile, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, closer, fmt.Errorf("open log file: %w", err)
		}
		closer = func() { _ = osFile.Close() }
		writer = osFile
	}

	l := zerolog.New(writer).
		With().
		Timestamp().
		Logger().
		Level(lvl)

	return l, closer, nil
}

// Component tags every entry of the returned logger with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("cmp", name).Logger()
}
