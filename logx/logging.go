// Package logx configures structured logging for the whole platform.
package logx

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "15:04:05.000"

var (
	mu   sync.Mutex
	root = newConsoleLogger(zerolog.InfoLevel)
)

func newConsoleLogger(level zerolog.Level) zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: consoleTimeFormat}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Setup sets the process-wide log level. Accepted levels are trace, debug,
// info, warn and error.
func Setup(level string) error {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	mu.Lock()
	root = newConsoleLogger(parsed)
	mu.Unlock()

	return nil
}

// L returns the root logger.
func L() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return root
}

// With returns a logger tagged with a component name.
func With(component string) zerolog.Logger {
	return L().With().Str("component", component).Logger()
}
