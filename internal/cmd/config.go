package cmd

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/vlist/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write settings",
	Long: heredoc.Doc(`
		Read the effective configuration, merged from the global and project
		files, or change a single setting. Keys are dotted paths such as
		engine.overscan or browse.page_size.
	`),
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a setting",
	Example: heredoc.Doc(`
		# Print the overscan
		vlist config get engine.overscan

		# Print the whole engine section
		vlist config get engine
	`),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		value, ok := cfg.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown config key: %s", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: heredoc.Doc(`
		Write a setting to the global data config, or to the project config
		with --project. Numbers, booleans and JSON values are stored as such.
	`),
	Example: heredoc.Doc(`
		# Render five extra items on each side
		vlist config set engine.overscan 5

		# Highlight files in this project
		vlist config set --project browse.highlight true
	`),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		value := config.ParseValue(args[1])
		if project, _ := cmd.Flags().GetBool("project"); project {
			return config.SetField(config.ProjectConfigPath(cfg.WorkingDir()), args[0], value)
		}
		return cfg.SetConfigField(args[0], value)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a project config",
	Long:  `Write the effective engine and browse settings to vlist.json in the working directory`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		path, err := config.InitProject(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configSetCmd.Flags().Bool("project", false, "Write to the project config")
}
