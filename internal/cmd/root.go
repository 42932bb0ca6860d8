package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/vlist/internal/config"
	"github.com/charmbracelet/vlist/internal/log"
	"github.com/charmbracelet/vlist/internal/version"
	"github.com/spf13/cobra"
)

const appName = "vlist"

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	addBrowseFlags(rootCmd)
}

var rootCmd = &cobra.Command{
	Use:   "vlist [file]",
	Short: "Browse large files and catalogs in a virtualized terminal list",
	Long: heredoc.Doc(`
		vlist renders only the part of a long sequence that is on screen.
		Lines are read a page at a time as the list approaches its end, so
		huge files open instantly. The same engine drives a SQLite catalog,
		shown as a list or a grid.
	`),
	Example: heredoc.Doc(`
		# Browse a file
		vlist server.log

		# Follow a growing file
		vlist --follow server.log

		# Browse the catalog as a grid
		vlist browse --catalog --columns 3

		# Replay a scroll trace
		vlist simulate trace.yaml
	`),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			if catalogMode, _ := cmd.Flags().GetBool("catalog"); !catalogMode {
				return cmd.Help()
			}
		}
		return runBrowse(cmd, args)
	},
}

func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// setup resolves the working directory, loads the configuration and starts
// logging.
func setup(cmd *cobra.Command) (*config.Config, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	cwd, err := ResolveCwd(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Init(cwd, debug)
	if err != nil {
		return nil, err
	}

	logFile := filepath.Join(cfg.Options.DataDirectory, "logs", fmt.Sprintf("%s.log", appName))
	log.Setup(logFile, cfg.Options.Debug, cfg.Options.LogLevel)
	slog.Debug("Starting", "command", cmd.CommandPath(), "cwd", cwd, "version", version.Version)
	return cfg, nil
}

// ResolveCwd changes to the --cwd directory, when set, and returns the
// working directory.
func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		if err := os.Chdir(cwd); err != nil {
			return "", fmt.Errorf("failed to change directory: %v", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %v", err)
	}
	return cwd, nil
}
