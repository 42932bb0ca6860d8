package cmd

import (
	"log/slog"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/vlist/internal/trace"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <trace>",
	Short: "Replay a scroll trace",
	Long: heredoc.Doc(`
		Replay a YAML or JSON trace of resizes, scrolls, measurements and item
		count changes against a virtualization engine, and print the state
		after every step with the events it emitted.
	`),
	Example: heredoc.Doc(`
		# Print a readable report
		vlist simulate testdata/fixed.yaml

		# Print the report as JSON
		vlist simulate --format json trace.yaml
	`),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if _, err := setup(cmd); err != nil {
			return err
		}

		t, err := trace.Load(args[0])
		if err != nil {
			return err
		}
		res, err := trace.Replay(t, slog.Default())
		if err != nil {
			return err
		}
		return trace.Write(cmd.OutOrStdout(), res, format)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringP("format", "f", "text", "Output format (text, json, yaml)")
}
