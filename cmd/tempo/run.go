package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hfxlab/tempo/agent"
	"github.com/hfxlab/tempo/config"
	"github.com/hfxlab/tempo/eventlog"
	"github.com/hfxlab/tempo/logx"
	"github.com/hfxlab/tempo/monitoring"
	"github.com/hfxlab/tempo/runner"
)

var runConfigPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an experiment described by a configuration file.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		exp, err := config.Load(runConfigPath)
		if err != nil {
			return err
		}
		return runExperiment(cmd, exp)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c",
		"experiment.yaml", "experiment configuration file")
	rootCmd.AddCommand(runCmd)
}

func runExperiment(cmd *cobra.Command, exp *config.Experiment) error {
	if err := logx.Setup(exp.LogLevel); err != nil {
		return err
	}
	log := logx.With("run")

	var sink agent.EventSink
	var recorder *eventlog.Recorder
	if exp.EventLog != "" {
		recorder = eventlog.NewRecorder(exp.EventLog)
		defer recorder.Close()
		sink = recorder
		log.Info().Str("run_id", recorder.RunID()).Msg("recording events")
	}

	agents, err := buildAgents(exp, sink)
	if err != nil {
		return err
	}

	r := runner.New(runner.WithCycleRate(exp.CycleRate))
	for _, a := range agents {
		r.AddAgent(a)
	}

	if exp.Monitor.Enabled {
		monitor := monitoring.NewMonitor().WithPortNumber(exp.Monitor.Port)
		if exp.Monitor.OpenBrowser {
			monitor.WithBrowser()
		}
		monitor.RegisterRunner(r)
		for _, a := range agents {
			monitor.RegisterAgent(a)
		}
		monitor.StartServer()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("experiment", exp.Name).Int("agents", len(agents)).
		Msg("starting run")

	if exp.Mode == config.ModeStep {
		err = r.RunConcurrent(ctx)
	} else {
		err = r.Run(ctx)
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", exp.Name, err)
	}

	log.Info().Msg("run finished")
	return nil
}

// buildAgents creates one timed agent per schedule file.
func buildAgents(
	exp *config.Experiment,
	sink agent.EventSink,
) ([]*agent.TimedAgent, error) {
	policy := agent.FailFast
	if exp.ErrorPolicy == config.PolicyContinue {
		policy = agent.ContinueOnError
	}
	mode := agent.ModeDrain
	if exp.Mode == config.ModeStep {
		mode = agent.ModeStep
	}

	agents := make([]*agent.TimedAgent, 0, len(exp.Schedules))
	for _, path := range exp.Schedules {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read schedule: %w", err)
		}

		parser, actuators := demoSet()
		schedules, err := parser.Load(string(src))
		if err != nil {
			return nil, err
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		opts := []agent.Option{
			agent.WithMode(mode),
			agent.WithErrorPolicy(policy),
		}
		if sink != nil {
			opts = append(opts, agent.WithEventSink(sink))
		}

		agents = append(agents, agent.New(name, actuators, schedules, opts...))
	}

	return agents, nil
}
