package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-cz/devslog"
	"github.com/mattn/go-isatty"
)

var ErrInvalidLogLevel = errors.New("invalid log level")

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// initLogger wires the process-wide logger before any command runs. On a
// terminal the devslog handler keeps event and record dumps readable;
// everywhere else records go out as JSON lines.
func initLogger(level string) error {
	parsed, ok := logLevels[level]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, level)
	}

	out := os.Stdout
	opts := &slog.HandlerOptions{Level: parsed}

	var handler slog.Handler
	if isatty.IsTerminal(out.Fd()) {
		handler = devslog.NewHandler(out, &devslog.Options{HandlerOptions: opts})
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	slog.SetDefault(slog.New(handler))

	return nil
}
