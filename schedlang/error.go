package schedlang

import "fmt"

// A ConfigError reports a malformed schedule source or a schedule that
// references an unknown action or function. Configuration errors are fatal
// at construction time, before any agent runs, and are never retried.
type ConfigError struct {
	Line int
	Msg  string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("schedule: line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("schedule: %s", e.Msg)
}

func configErrorf(line int, format string, args ...any) *ConfigError {
	return &ConfigError{Line: line, Msg: fmt.Sprintf(format, args...)}
}
