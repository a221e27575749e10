package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Name is the name of the application the logger belongs to.
type Name string

// Config is the configuration for the logger.
type Config struct {
	// appName is the name of the application.
	appName string

	// level is the minimum level that is written.
	level slog.Level

	// w is where the logs are written to. Defaults to stdout.
	w io.Writer
}

// NewConfig creates a new logging configuration. The level is read from LOG_LEVEL.
func NewConfig(appName Name) *Config {
	return &Config{
		appName: string(appName),
		level:   ParseLevel(os.Getenv("LOG_LEVEL")),
		w:       os.Stdout,
	}
}

// WithWriter sets the writer the logs are written to.
func (c *Config) WithWriter(w io.Writer) *Config {
	c.w = w
	return c
}

// CommonLogger creates the application logger and sets it as the slog default.
func CommonLogger(c *Config) (*slog.Logger, error) {
	if c == nil {
		return nil, errors.New("logging config is nil")
	} else if c.appName == "" {
		return nil, errors.New("app name is empty")
	}

	w := c.w
	if w == nil {
		w = os.Stdout
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: c.level == slog.LevelDebug,
		Level:     c.level,
	})

	l := slog.New(h).With(slog.String("app", c.appName))
	slog.SetDefault(l)
	return l, nil
}

// ParseLevel converts a level name to a slog level. Unknown values are treated as info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
