package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/vlist/internal/virtual"
	"gopkg.in/yaml.v3"
)

// Write renders res as text, json or yaml.
func Write(w io.Writer, res *Result, format string) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		data, err := yaml.Marshal(res)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "text", "":
		return writeText(w, res)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func describe(s virtual.State) string {
	return fmt.Sprintf("offset=%s visible=%s rendered=%s total=%s",
		formatFloat(s.Viewport.ScrollOffset), s.Visible, s.Rendered, formatFloat(s.TotalExtent))
}

func writeText(w io.Writer, res *Result) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "trace %q: %d items\n", res.Name, res.Items)

	events := res.Events
	for _, step := range res.Steps {
		fmt.Fprintf(&sb, "%d. %s -> %s\n", step.Step, step.Action, describe(step.State))
		for len(events) > 0 && events[0].Step == step.Step {
			fmt.Fprintf(&sb, "   %s %s\n", events[0].Kind, events[0].Detail)
			events = events[1:]
		}
	}
	f := res.Final
	fmt.Fprintf(&sb, "final: %s scrolling=%t latched=%t\n", describe(f), f.Scrolling, f.Latched)
	_, err := io.WriteString(w, sb.String())
	return err
}
