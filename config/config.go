// Package config loads and validates experiment run configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	yaml "go.yaml.in/yaml/v3"
)

// Mode names accepted in configuration.
const (
	ModeDrain = "drain"
	ModeStep  = "step"
)

// Error policy names accepted in configuration.
const (
	PolicyFailFast = "fail_fast"
	PolicyContinue = "continue"
)

// MonitorConfig configures the optional HTTP monitor.
type MonitorConfig struct {
	Enabled     bool `yaml:"enabled"`
	Port        int  `yaml:"port"`
	OpenBrowser bool `yaml:"open_browser"`
}

// An Experiment describes one experiment run: which schedules to execute
// and how.
type Experiment struct {
	// Name labels the run in logs and the event log file name.
	Name string `yaml:"name"`

	// Schedules are paths to schedule source files. Each file becomes one
	// timed agent.
	Schedules []string `yaml:"schedules"`

	// Mode is "drain" or "step".
	Mode string `yaml:"mode"`

	// ErrorPolicy is "fail_fast" or "continue".
	ErrorPolicy string `yaml:"error_policy"`

	// EventLog is the path prefix of the SQLite event log. Empty disables
	// recording.
	EventLog string `yaml:"event_log"`

	// CycleRate is the drain-mode pass frequency in Hz.
	CycleRate float64 `yaml:"cycle_rate"`

	LogLevel string        `yaml:"log_level"`
	Monitor  MonitorConfig `yaml:"monitor"`
}

// Load reads an experiment configuration from a YAML file. A .env file in
// the working directory and TEMPO_* environment variables override
// individual fields. The returned configuration is validated.
func Load(path string) (*Experiment, error) {
	// Missing .env is fine; it is only a convenience for local overrides.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	exp := &Experiment{
		Mode:        ModeDrain,
		ErrorPolicy: PolicyFailFast,
		CycleRate:   50,
		LogLevel:    "info",
	}
	if err := yaml.Unmarshal(data, exp); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	exp.applyEnv()

	if err := exp.Validate(); err != nil {
		return nil, err
	}

	return exp, nil
}

func (e *Experiment) applyEnv() {
	if v := os.Getenv("TEMPO_LOG_LEVEL"); v != "" {
		e.LogLevel = v
	}
	if v := os.Getenv("TEMPO_EVENT_LOG"); v != "" {
		e.EventLog = v
	}
	if v := os.Getenv("TEMPO_MONITOR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			e.Monitor.Enabled = true
			e.Monitor.Port = port
		}
	}
}

// Validate checks the configuration for errors that would otherwise only
// surface mid-run.
func (e *Experiment) Validate() error {
	if len(e.Schedules) == 0 {
		return fmt.Errorf("config: no schedule files listed")
	}

	switch e.Mode {
	case ModeDrain, ModeStep:
	default:
		return fmt.Errorf("config: unknown mode %q", e.Mode)
	}

	switch e.ErrorPolicy {
	case PolicyFailFast, PolicyContinue:
	default:
		return fmt.Errorf("config: unknown error policy %q", e.ErrorPolicy)
	}

	if e.CycleRate <= 0 {
		return fmt.Errorf("config: cycle rate must be positive, got %v", e.CycleRate)
	}

	return nil
}
