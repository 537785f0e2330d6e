// The tempo command runs scripted experiment timelines against the
// built-in demonstration actuators.
package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use: "tempo",
	Short: "tempo executes timed agent schedules for human-factors " +
		"experiments.",
	Long: `tempo executes timed agent schedules for human-factors ` +
		`experiments. Schedules script autonomous agents that perturb a ` +
		`simulated multi-task panel on a precise timeline; every fired ` +
		`action can be recorded for offline analysis.`,
	SilenceUsage: true,
}
