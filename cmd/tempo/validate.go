package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <schedule>...",
	Short: "Parse schedule files and check them against the demo actuators.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			parser, _ := demoSet()
			stmts, err := parser.Parse(string(src))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if _, err := parser.Resolve(stmts); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			cmd.Printf("%s: %d schedules OK\n", path, len(stmts))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
