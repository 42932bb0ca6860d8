package cmd

import (
	"fmt"

	"github.com/charmbracelet/vlist/internal/config"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Print the configuration JSON schema",
	Long:   `Print the JSON schema of vlist.json, for editor completion and validation`,
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.Schema()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
