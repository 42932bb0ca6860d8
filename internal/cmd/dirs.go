package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/vlist/internal/config"
	"github.com/charmbracelet/vlist/internal/db"
	"github.com/spf13/cobra"
)

var dirsCmd = &cobra.Command{
	Use:   "dirs",
	Short: "Print directories used by vlist",
	Long: `Print the directories where vlist stores its configuration, the catalog
database and logs. A data_directory setting moves the catalog and logs.`,
	Example: `
# Print all directories
vlist dirs

# Print only the config directory
vlist dirs --config

# Print only the data directory
vlist dirs --data
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		configOnly, _ := cmd.Flags().GetBool("config")
		dataOnly, _ := cmd.Flags().GetBool("data")

		if configOnly && dataOnly {
			return fmt.Errorf("cannot specify both --config and --data flags")
		}

		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		configDir := filepath.Dir(config.GlobalConfig())
		dataDir := cfg.Options.DataDirectory
		out := cmd.OutOrStdout()

		if configOnly {
			fmt.Fprintln(out, configDir)
			return nil
		}

		if dataOnly {
			fmt.Fprintln(out, dataDir)
			return nil
		}

		// Print both by default
		fmt.Fprintf(out, "Config directory: %s\n", configDir)
		fmt.Fprintf(out, "Data directory:   %s\n", dataDir)
		fmt.Fprintf(out, "Catalog:          %s\n", filepath.Join(dataDir, db.FileName))
		for _, path := range cfg.Paths() {
			fmt.Fprintf(out, "Config file:      %s\n", path)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dirsCmd)
	dirsCmd.Flags().Bool("config", false, "Print only the config directory")
	dirsCmd.Flags().Bool("data", false, "Print only the data directory")
}
