package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger: structured JSON in production, a console
// writer everywhere else.
func New(environment string) zerolog.Logger {
	var output io.Writer = os.Stdout
	if environment != "production" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return zerolog.New(output).With().
		Timestamp().
		Str("env", environment).
		Logger()
}
