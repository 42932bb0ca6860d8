package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/vlist/internal/catalog"
	"github.com/charmbracelet/vlist/internal/db"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// exportPageSize is the number of items read per query while listing.
const exportPageSize = 500

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the catalog",
	Long:  `Seed, list and export the SQLite catalog browsed with --catalog`,
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add generated items",
	Long:  `Create the catalog if needed and append generated items with varying heights`,
	Example: heredoc.Doc(`
		# Add ten thousand items
		vlist catalog seed --count 10000

		# Start over with a small catalog
		vlist catalog seed --reset --count 50
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		reset, _ := cmd.Flags().GetBool("reset")
		return runCatalogSeed(cmd, count, reset)
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items",
	Long:  `List catalog items in position order`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		offset, _ := cmd.Flags().GetInt("offset")
		limit, _ := cmd.Flags().GetInt("limit")
		return runCatalogList(cmd, format, offset, limit, false)
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export items",
	Long:  `Export every catalog item to different formats`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return runCatalogList(cmd, format, 0, 0, true)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogSeedCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	catalogSeedCmd.Flags().IntP("count", "n", 1000, "Number of items to add")
	catalogSeedCmd.Flags().Bool("reset", false, "Remove every item first")
	catalogListCmd.Flags().StringP("format", "f", "text", "Output format (text, json, yaml, markdown)")
	catalogListCmd.Flags().Int("offset", 0, "Skip this many items")
	catalogListCmd.Flags().Int("limit", 50, "List at most this many items (0 lists all)")
	catalogExportCmd.Flags().StringP("format", "f", "json", "Export format (json, yaml, markdown)")
}

func createCatalogService(ctx context.Context, cmd *cobra.Command) (catalog.Service, *sql.DB, error) {
	cfg, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}

	conn, err := db.Connect(ctx, cfg.Options.DataDirectory)
	if err != nil {
		return nil, nil, err
	}
	return catalog.NewService(conn), conn, nil
}

func runCatalogSeed(cmd *cobra.Command, count int, reset bool) error {
	ctx := cmd.Context()
	svc, conn, err := createCatalogService(ctx, cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	if reset {
		if err := svc.Clear(ctx); err != nil {
			return err
		}
	}
	total, err := svc.Seed(ctx, count)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d items, %d in the catalog\n", count, total)
	return nil
}

func runCatalogList(cmd *cobra.Command, format string, offset, limit int, includeMetadata bool) error {
	ctx := cmd.Context()
	svc, conn, err := createCatalogService(ctx, cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	items, err := collectItems(ctx, svc, offset, limit)
	if err != nil {
		return err
	}
	return formatOutput(cmd.OutOrStdout(), items, format, includeMetadata)
}

// collectItems reads limit items from offset a page at a time. A limit of
// zero reads to the end.
func collectItems(ctx context.Context, svc catalog.Service, offset, limit int) ([]catalog.Item, error) {
	var items []catalog.Item
	for limit <= 0 || len(items) < limit {
		size := exportPageSize
		if limit > 0 {
			size = min(size, limit-len(items))
		}
		page, err := svc.List(ctx, offset+len(items), size)
		if err != nil {
			return nil, fmt.Errorf("failed to list items: %w", err)
		}
		items = append(items, page...)
		if len(page) < size {
			break
		}
	}
	return items, nil
}

func formatOutput(w io.Writer, items []catalog.Item, format string, includeMetadata bool) error {
	switch strings.ToLower(format) {
	case "json":
		return formatJSON(w, items)
	case "yaml":
		return formatYAML(w, items)
	case "markdown", "md":
		return formatMarkdown(w, items, includeMetadata)
	case "text":
		return formatText(w, items)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(w io.Writer, items []catalog.Item) error {
	if items == nil {
		items = []catalog.Item{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func formatYAML(w io.Writer, items []catalog.Item) error {
	data, err := yaml.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	fmt.Fprint(w, string(data))
	return nil
}

func formatMarkdown(w io.Writer, items []catalog.Item, includeMetadata bool) error {
	fmt.Fprintln(w, "# Catalog")
	fmt.Fprintln(w)

	if len(items) == 0 {
		fmt.Fprintln(w, "No items found.")
		return nil
	}

	for _, item := range items {
		fmt.Fprintf(w, "## %s\n\n", item.Title)
		if includeMetadata {
			fmt.Fprintf(w, "- **ID**: %s\n", item.ID)
			fmt.Fprintf(w, "- **Position**: %d\n", item.Position)
			fmt.Fprintf(w, "- **Created**: %s\n", formatTimestamp(item.CreatedAt))
			fmt.Fprintln(w)
		}
		if item.Body != "" {
			fmt.Fprintf(w, "%s\n\n", item.Body)
		}
	}
	return nil
}

func formatText(w io.Writer, items []catalog.Item) error {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items found.")
		return nil
	}

	for _, item := range items {
		lines := 1
		if item.Body != "" {
			lines += strings.Count(item.Body, "\n") + 1
		}
		fmt.Fprintf(w, "%6d  %s (ID: %s, Lines: %d)\n", item.Position, item.Title, item.ID, lines)
	}
	return nil
}

func formatTimestamp(timestamp int64) string {
	// Unix seconds
	return time.Unix(timestamp, 0).UTC().Format("2006-01-02 15:04:05")
}
