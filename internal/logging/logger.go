// Package logging configures zerolog for the processes that run outside Nakama.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"marrakech/internal/config"
)

// Init builds the process logger and installs it as the global zerolog logger.
func Init(app string, cfg config.Logging) (zerolog.Logger, error) {
	return New(os.Stderr, app, cfg)
}

// New is Init with an explicit sink.
func New(out io.Writer, app string, cfg config.Logging) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(out).Level(level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger, nil
}
