package list

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/vlist/internal/virtual"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockVariableHeightItem is a test item with configurable height
type mockVariableHeightItem struct {
	id      string
	height  int
	content string
}

func (m *mockVariableHeightItem) ID() string {
	return m.id
}

func (m *mockVariableHeightItem) Render(int) string {
	lines := make([]string, m.height)
	for i := range m.height {
		if i == 0 {
			lines[i] = m.content
		} else {
			lines[i] = fmt.Sprintf("  Line %d", i+1)
		}
	}
	return strings.Join(lines, "\n")
}

func newNavList(t *testing.T, items []*mockVariableHeightItem, width, height int) *List[*mockVariableHeightItem] {
	t.Helper()
	l, err := New(items,
		WithSize(width, height),
		WithStyles(plainStyles()),
		WithEngineOptions(virtual.WithSettleDelay(time.Millisecond)),
	)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	return l
}

func pressDown(l tea.Model) {
	_, cmd := l.Update(tea.KeyPressMsg(tea.Key{Code: tea.KeyDown}))
	execCmdNav(l, cmd)
}

func pressUp(l tea.Model) {
	_, cmd := l.Update(tea.KeyPressMsg(tea.Key{Code: tea.KeyUp}))
	execCmdNav(l, cmd)
}

func TestArrowKeyNavigation(t *testing.T) {
	t.Parallel()

	t.Run("should show full item when navigating with arrow keys", func(t *testing.T) {
		t.Parallel()
		items := []*mockVariableHeightItem{
			{id: "item1", height: 2, content: "Item 1 (2 lines)"},
			{id: "item2", height: 3, content: "Item 2 (3 lines)"},
			{id: "item3", height: 1, content: "Item 3 (1 line)"},
			{id: "item4", height: 4, content: "Item 4 (4 lines)"},
			{id: "item5", height: 2, content: "Item 5 (2 lines)"},
		}
		l := newNavList(t, items, 40, 6)
		execCmdNav(l, l.Init())

		assert.Equal(t, 0, l.SelectedIndex())
		assert.Equal(t, 12.0, l.State().TotalExtent)
		assert.Equal(t, 0.0, l.State().Viewport.ScrollOffset)

		pressDown(l)
		assert.Equal(t, 1, l.SelectedIndex())
		view := l.View()
		assert.Contains(t, view, "Item 2 (3 lines)")
		assert.Contains(t, view, "  Line 3")

		pressDown(l)
		assert.Equal(t, 2, l.SelectedIndex())
		assert.Contains(t, l.View(), "Item 3 (1 line)")
		assert.Equal(t, 0.0, l.State().Viewport.ScrollOffset)

		// Item 4 does not fit below item 3 and pulls the viewport down.
		pressDown(l)
		assert.Equal(t, 3, l.SelectedIndex())
		assert.Equal(t, 4.0, l.State().Viewport.ScrollOffset)
		assert.Equal(t, strings.Join([]string{
			"  Line 3",
			"Item 3 (1 line)",
			"Item 4 (4 lines)",
			"  Line 2",
			"  Line 3",
			"  Line 4",
		}, "\n"), l.View())

		pressDown(l)
		assert.Equal(t, 4, l.SelectedIndex())
		assert.Equal(t, 6.0, l.State().Viewport.ScrollOffset)
		assert.True(t, strings.HasSuffix(l.View(), "Item 5 (2 lines)\n  Line 2"))

		pressUp(l)
		pressUp(l)
		assert.Equal(t, 2, l.SelectedIndex())
		assert.Equal(t, 5.0, l.State().Viewport.ScrollOffset)

		pressUp(l)
		assert.Equal(t, 1, l.SelectedIndex())
		assert.Equal(t, 2.0, l.State().Viewport.ScrollOffset)
		view = l.View()
		assert.True(t, strings.HasPrefix(view, "Item 2 (3 lines)\n  Line 2\n  Line 3"))
	})

	t.Run("should not show partial items at viewport boundaries", func(t *testing.T) {
		t.Parallel()
		items := []*mockVariableHeightItem{
			{id: "item1", height: 3, content: "Item 1"},
			{id: "item2", height: 3, content: "Item 2"},
			{id: "item3", height: 3, content: "Item 3"},
			{id: "item4", height: 3, content: "Item 4"},
		}
		l := newNavList(t, items, 40, 5)
		execCmdNav(l, l.Init())

		pressDown(l)

		lines := strings.Split(l.View(), "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, []string{"Item 2", "  Line 2", "  Line 3"}, lines[2:])
	})

	t.Run("should handle items taller than viewport", func(t *testing.T) {
		t.Parallel()
		items := []*mockVariableHeightItem{
			{id: "item1", height: 2, content: "Item 1"},
			{id: "item2", height: 8, content: "Item 2 (tall)"},
			{id: "item3", height: 2, content: "Item 3"},
		}
		l := newNavList(t, items, 40, 5)
		execCmdNav(l, l.Init())

		pressDown(l)

		item, ok := l.SelectedItem()
		require.True(t, ok)
		assert.Equal(t, "item2", item.ID())

		// The tall item is shown from its top.
		lines := strings.Split(l.View(), "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, "Item 2 (tall)", lines[0])
		assert.Equal(t, "  Line 5", lines[4])
	})
}

// Helper function to execute commands
func execCmdNav(l tea.Model, cmd tea.Cmd) {
	execCmd(l, cmd)
}
