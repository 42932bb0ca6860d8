package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/vlist/internal/catalog"
	"github.com/charmbracelet/vlist/internal/config"
	"github.com/charmbracelet/x/exp/golden"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// execute runs the root command with args in an isolated environment and
// returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(t.Context())
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	wd := t.TempDir()
	t.Chdir(wd)
	return wd
}

var sampleItems = []catalog.Item{
	{ID: "a1", Position: 0, Title: "#1 cursor delta", CreatedAt: 1754006400},
	{ID: "b2", Position: 1, Title: "#2 frame gutter", Body: "height index ledger", CreatedAt: 1754006460},
}

func TestFormatOutput(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"text", "markdown"} {
		t.Run(format, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			require.NoError(t, formatOutput(&buf, sampleItems, format, true))
			golden.RequireEqual(t, buf.Bytes())
		})
	}

	t.Run("structured", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, formatOutput(&buf, sampleItems, "json", false))
		var fromJSON []catalog.Item
		require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
		assert.Equal(t, sampleItems, fromJSON)

		buf.Reset()
		require.NoError(t, formatOutput(&buf, sampleItems, "YAML", false))
		var fromYAML []catalog.Item
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
		assert.Equal(t, sampleItems, fromYAML)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, formatOutput(&buf, nil, "json", false))
		assert.Equal(t, "[]\n", buf.String())

		buf.Reset()
		require.NoError(t, formatOutput(&buf, nil, "text", false))
		assert.Equal(t, "No items found.\n", buf.String())
	})

	t.Run("unsupported", func(t *testing.T) {
		t.Parallel()
		assert.ErrorContains(t, formatOutput(&bytes.Buffer{}, sampleItems, "csv", false), "unsupported format")
	})
}

func TestCatalogCommands(t *testing.T) {
	isolate(t)

	out, err := execute(t, "catalog", "seed", "--count", "7", "--reset")
	require.NoError(t, err)
	assert.Equal(t, "Added 7 items, 7 in the catalog\n", out)

	out, err = execute(t, "catalog", "list", "--format", "text", "--offset", "2", "--limit", "3")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "#3 ")
	assert.Contains(t, lines[2], "#5 ")

	out, err = execute(t, "catalog", "export", "--format", "json")
	require.NoError(t, err)
	var items []catalog.Item
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Len(t, items, 7)
	for i, item := range items {
		assert.Equal(t, int64(i), item.Position)
	}
}

func TestSimulateCommand(t *testing.T) {
	wd := isolate(t)

	path := filepath.Join(wd, "trace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: short
items: 10
options: {fixed_extent: 1, container: 4, overscan: 0}
steps:
  - scroll: 6
`), 0o644))

	out, err := execute(t, "simulate", "--format", "text", path)
	require.NoError(t, err)
	assert.Contains(t, out, `trace "short": 10 items`)
	assert.Contains(t, out, "visible=[6,10)")

	_, err = execute(t, "simulate", "--format", "text", filepath.Join(wd, "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigCommands(t *testing.T) {
	wd := isolate(t)

	out, err := execute(t, "config", "get", "engine.overscan")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	_, err = execute(t, "config", "set", "--project=false", "engine.overscan", "6")
	require.NoError(t, err)
	out, err = execute(t, "config", "get", "engine.overscan")
	require.NoError(t, err)
	assert.Equal(t, "6\n", out)

	_, err = execute(t, "config", "set", "--project", "browse.theme", "dracula")
	require.NoError(t, err)
	cfg, err := config.Load(wd)
	require.NoError(t, err)
	assert.Equal(t, "dracula", cfg.Browse.Theme)

	_, err = execute(t, "config", "get", "engine.nope")
	assert.ErrorContains(t, err, "unknown config key")
}

func TestSchemaCommand(t *testing.T) {
	isolate(t)

	out, err := execute(t, "schema")
	require.NoError(t, err)
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, out, "page_size")
}

func TestDirsCommand(t *testing.T) {
	isolate(t)

	out, err := execute(t, "dirs", "--data=false", "--config")
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(config.GlobalConfig())+"\n", out)

	_, err = execute(t, "dirs", "--data", "--config")
	assert.Error(t, err)
}
