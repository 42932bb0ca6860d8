package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/MakeNowJust/heredoc"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/vlist/internal/catalog"
	"github.com/charmbracelet/vlist/internal/config"
	"github.com/charmbracelet/vlist/internal/db"
	"github.com/charmbracelet/vlist/internal/log"
	"github.com/charmbracelet/vlist/internal/source"
	"github.com/charmbracelet/vlist/internal/tui/browse"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse [file]",
	Short: "Browse a file or the catalog",
	Long: heredoc.Doc(`
		Open an interactive, virtualized list over the lines of a file or over
		the items of the catalog. Only the rows on screen, plus a few on each
		side, are rendered. More lines are loaded as the list nears its end.
	`),
	Example: heredoc.Doc(`
		# Browse a file with syntax highlighting
		vlist browse --highlight main.go

		# Follow a log file that is still being written
		vlist browse --follow /var/log/system.log

		# Browse the catalog as a three column grid
		vlist browse --catalog --columns 3
	`),
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
	addBrowseFlags(browseCmd)
}

func addBrowseFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("follow", "F", false, "Keep reading lines appended to the file")
	cmd.Flags().Bool("poll", false, "Poll for changes instead of using file system events")
	cmd.Flags().Bool("highlight", false, "Syntax highlight the file")
	cmd.Flags().String("theme", "", "Highlighting style")
	cmd.Flags().Int("page-size", 0, "Lines or items loaded per page")
	cmd.Flags().Bool("catalog", false, "Browse the catalog instead of a file")
	cmd.Flags().Int("columns", -1, "Grid columns for the catalog (0 is a list)")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	if !term.IsTerminal(os.Stdout.Fd()) {
		return errors.New("browse needs an interactive terminal")
	}
	applyBrowseFlags(cmd, cfg)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model, cleanup, err := newBrowseModel(ctx, cmd, cfg, args)
	if err != nil {
		return err
	}
	defer cleanup()

	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithMouseCellMotion(),
	)

	if err := config.Watch(ctx, cfg.WorkingDir(), func(c *config.Config) {
		program.Send(browse.ConfigChangedMsg{Config: c})
	}); err != nil {
		slog.Warn("Config changes will not be applied while browsing", "error", err)
	}

	defer log.RecoverPanic("browse", func() {
		model.Close()
	})
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
			return nil
		}
		slog.Error("TUI run error", "error", err)
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

func applyBrowseFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("highlight") {
		cfg.Browse.Highlight, _ = cmd.Flags().GetBool("highlight")
	}
	if theme, _ := cmd.Flags().GetString("theme"); theme != "" {
		cfg.Browse.Theme = theme
	}
	if size, _ := cmd.Flags().GetInt("page-size"); size > 0 {
		cfg.Browse.PageSize = size
	}
	if columns, _ := cmd.Flags().GetInt("columns"); columns >= 0 {
		cfg.Browse.Columns = columns
	}
}

func newBrowseModel(ctx context.Context, cmd *cobra.Command, cfg *config.Config, args []string) (*browse.Model, func(), error) {
	if catalogMode, _ := cmd.Flags().GetBool("catalog"); catalogMode {
		conn, err := db.Connect(ctx, cfg.Options.DataDirectory)
		if err != nil {
			return nil, nil, err
		}
		model, err := browse.NewCatalog(ctx, catalog.NewService(conn), cfg, cfg.Browse.Columns)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		return model, func() { conn.Close() }, nil
	}

	if len(args) == 0 {
		return nil, nil, errors.New("a file to browse is required unless --catalog is set")
	}
	opts := browse.FileOptions{}
	opts.Follow, _ = cmd.Flags().GetBool("follow")
	opts.Poll, _ = cmd.Flags().GetBool("poll")

	var openOpts []source.OpenOption
	if opts.Follow {
		openOpts = append(openOpts, source.WithFollow())
	}
	src, err := source.Open(args[0], cfg.Browse.PageSize, openOpts...)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Browse.Highlight {
		opts.Highlighter = source.NewHighlighter(args[0], cfg.Browse.Theme)
		if opts.Highlighter == nil {
			slog.Info("No lexer for file, showing plain text", "path", args[0])
		}
	}
	model, err := browse.NewFile(ctx, src, cfg, opts)
	if err != nil {
		src.Close()
		return nil, nil, err
	}
	return model, func() { src.Close() }, nil
}
