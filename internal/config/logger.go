package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger builds the process logger: a console writer in development, JSON
// otherwise. Unknown LOG_LEVEL values fall back to info.
func (c *Config) Logger() zerolog.Logger {
	return c.newLogger(os.Stdout)
}

func (c *Config) newLogger(out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if c.IsDevelopment() {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
