package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the application logger. The level is carried on the logger
// itself rather than the package-global, so independently constructed
// loggers (tests, the stub daemon) cannot affect each other.
func New(environment string) zerolog.Logger {
	level := zerolog.InfoLevel
	if environment != "production" {
		level = zerolog.DebugLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    environment == "production",
	}

	return zerolog.New(output).Level(level).With().
		Timestamp().
		Str("env", environment).
		Logger()
}

// Nop returns a disabled logger for tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
