// Package browse is the interactive browser of the vlist command: a
// virtualized list over the lines of a file or the items of the catalog,
// loaded a page at a time as the list reaches its end.
package browse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/v2/help"
	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/vlist/internal/catalog"
	"github.com/charmbracelet/vlist/internal/config"
	"github.com/charmbracelet/vlist/internal/source"
	"github.com/charmbracelet/vlist/internal/tui/exp/list"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/charmtone"
)

// Lines taken by the status bar and the help below the list.
const chromeHeight = 2

const defaultGridColumns = 3

// ConfigChangedMsg carries a reloaded configuration.
type ConfigChangedMsg struct {
	Config *config.Config
}

type pageMsg struct {
	lines []source.Line
	err   error
}

type catalogPageMsg struct {
	items []catalog.Item
	err   error
}

type followMsg struct {
	line source.Line
	err  error
}

type deletedMsg struct {
	index int
	err   error
}

// catalogRow shows a catalog item in the list.
type catalogRow struct {
	catalog.Item
}

func (r catalogRow) ID() string {
	return r.Item.ID
}

// FileOptions selects how a file is browsed.
type FileOptions struct {
	Follow      bool
	Poll        bool
	Highlighter *source.Highlighter
}

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	width, height int
	keyMap        KeyMap
	help          help.Model
	list          *list.List[list.Item]
	input         textinput.Model
	filtering     bool
	pattern       string

	// file mode
	file        *source.FileSource
	lines       []source.Line
	highlighter *source.Highlighter
	follow      bool
	poll        bool
	follower    *source.Follower

	// catalog mode
	catalog  catalog.Service
	pageSize int
	loaded   int
	columns  int
	confirm  *confirmDialog

	loading   bool
	exhausted bool
	scrolling bool
	status    string
	err       error
}

func newModel(ctx context.Context, cfg *config.Config, opts ...list.ListOption) (*Model, error) {
	keyMap := DefaultKeyMap()
	listOpts := []list.ListOption{
		list.WithKeyMap(keyMap.List),
		list.WithEngineOptions(cfg.Engine.VirtualOptions()...),
	}
	if *cfg.Browse.EnableMouse {
		listOpts = append(listOpts, list.WithEnableMouse())
	}
	if cfg.Browse.Wrap {
		listOpts = append(listOpts, list.WithWrapNavigation())
	}
	l, err := list.New([]list.Item{}, append(listOpts, opts...)...)
	if err != nil {
		return nil, err
	}

	input := textinput.New()
	input.Prompt = "/"
	input.Placeholder = "filter lines"

	ctx, cancel := context.WithCancel(ctx)
	return &Model{
		ctx:      ctx,
		cancel:   cancel,
		keyMap:   keyMap,
		help:     help.New(),
		list:     l,
		input:    input,
		pageSize: cfg.Browse.PageSize,
	}, nil
}

// NewFile browses the lines of src.
func NewFile(ctx context.Context, src *source.FileSource, cfg *config.Config, opts FileOptions) (*Model, error) {
	m, err := newModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	m.file = src
	m.follow = opts.Follow
	m.poll = opts.Poll
	m.highlighter = opts.Highlighter
	m.keyMap.Columns.SetEnabled(false)
	m.keyMap.Delete.SetEnabled(false)
	return m, nil
}

// NewCatalog browses the catalog, as a grid when columns is positive.
func NewCatalog(ctx context.Context, svc catalog.Service, cfg *config.Config, columns int) (*Model, error) {
	m, err := newModel(ctx, cfg, list.WithColumns(columns), list.WithGap(1))
	if err != nil {
		return nil, err
	}
	m.catalog = svc
	m.columns = columns
	m.keyMap.Filter.SetEnabled(false)
	return m, nil
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.list.Init(), m.loadPage())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.list.SetSize(m.width, max(m.height-chromeHeight, 0))
	case pageMsg:
		return m, m.handlePage(msg)
	case catalogPageMsg:
		return m, m.handleCatalogPage(msg)
	case followMsg:
		return m, m.handleFollow(msg)
	case deletedMsg:
		return m, m.handleDeleted(msg)
	case confirmResultMsg:
		m.confirm = nil
		if !msg.Confirmed {
			return m, nil
		}
		return m, m.deleteItem(msg.Index, msg.ID)
	case ConfigChangedMsg:
		e := msg.Config.Engine
		slog.Info("Applying engine settings", "overscan", *e.Overscan, "threshold", e.EndReachedThreshold)
		return m, m.list.Tune(*e.Overscan, e.EndReachedThreshold)
	case list.EndReachedMsg:
		return m, m.loadPage()
	case list.ScrollStateMsg:
		m.scrolling = msg.Scrolling
		return m, nil
	case list.CopiedMsg:
		if msg.Err != nil {
			m.status = "copy failed"
			slog.Error("Failed to copy item", "error", msg.Err)
		} else {
			m.status = fmt.Sprintf("copied %d characters", len(msg.Text))
		}
		return m, nil
	case tea.KeyPressMsg:
		return m, m.handleKey(msg)
	}
	var cmds []tea.Cmd
	if m.filtering {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	_, cmd := m.list.Update(msg)
	return m, tea.Batch(append(cmds, cmd)...)
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	if m.confirm != nil {
		return m.confirm.Update(msg)
	}
	if m.filtering {
		return m.handleFilterKey(msg)
	}
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.Close()
		return tea.Quit
	case key.Matches(msg, m.keyMap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(msg, m.keyMap.Filter):
		m.filtering = true
		m.input.SetValue(m.pattern)
		return m.input.Focus()
	case key.Matches(msg, m.keyMap.Cancel):
		if m.pattern != "" {
			m.pattern = ""
			return m.applyFilter()
		}
		return nil
	case key.Matches(msg, m.keyMap.Columns):
		if m.columns > 0 {
			m.columns = 0
		} else {
			m.columns = defaultGridColumns
		}
		return m.list.SetColumns(m.columns)
	case key.Matches(msg, m.keyMap.Delete):
		item, ok := m.list.SelectedItem()
		if !ok {
			return nil
		}
		row := item.(catalogRow)
		m.confirm = newConfirmDialog(m.list.SelectedIndex(), row.ID(), row.Title)
		return nil
	}
	_, cmd := m.list.Update(msg)
	return cmd
}

func (m *Model) handleFilterKey(msg tea.KeyPressMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keyMap.Accept):
		m.filtering = false
		m.input.Blur()
		return nil
	case key.Matches(msg, m.keyMap.Cancel):
		m.filtering = false
		m.input.Blur()
		if m.pattern == "" {
			return nil
		}
		m.pattern = ""
		return m.applyFilter()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == m.pattern {
		return cmd
	}
	m.pattern = m.input.Value()
	return tea.Batch(cmd, m.applyFilter())
}

// applyFilter shows the loaded lines matching the pattern as a new
// sequence.
func (m *Model) applyFilter() tea.Cmd {
	lines := source.Filter(m.pattern, m.lines)
	slog.Debug("Filtering lines", "pattern", m.pattern, "matches", len(lines), "lines", len(m.lines))
	return m.list.SetItems(lineItems(lines))
}

func lineItems(lines []source.Line) []list.Item {
	items := make([]list.Item, len(lines))
	for i, l := range lines {
		items[i] = l
	}
	return items
}

func (m *Model) loadPage() tea.Cmd {
	if m.loading || m.exhausted {
		return nil
	}
	ctx := m.ctx
	switch {
	case m.file != nil:
		m.loading = true
		src, hl := m.file, m.highlighter
		return func() tea.Msg {
			lines, err := src.Next(ctx)
			if hl != nil {
				lines = hl.Apply(lines)
			}
			return pageMsg{lines: lines, err: err}
		}
	case m.catalog != nil:
		m.loading = true
		svc, offset, limit := m.catalog, m.loaded, m.pageSize
		return func() tea.Msg {
			items, err := svc.List(ctx, offset, limit)
			return catalogPageMsg{items: items, err: err}
		}
	}
	return nil
}

func (m *Model) handlePage(msg pageMsg) tea.Cmd {
	m.loading = false
	if msg.err != nil && !errors.Is(msg.err, io.EOF) {
		m.err = msg.err
		slog.Error("Failed to load lines", "path", m.file.Path(), "error", msg.err)
		return nil
	}
	m.lines = append(m.lines, msg.lines...)
	matches := source.Filter(m.pattern, msg.lines)
	cmds := []tea.Cmd{m.list.AppendItems(lineItems(matches)...)}
	if m.file.Done() {
		m.exhausted = true
		cmds = append(cmds, m.startFollow())
	} else if len(matches) == 0 {
		// Nothing was appended, so the list cannot ask for more.
		cmds = append(cmds, m.loadPage())
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleCatalogPage(msg catalogPageMsg) tea.Cmd {
	m.loading = false
	if msg.err != nil {
		m.err = msg.err
		slog.Error("Failed to load catalog page", "offset", m.loaded, "error", msg.err)
		return nil
	}
	m.loaded += len(msg.items)
	if len(msg.items) < m.pageSize {
		m.exhausted = true
	}
	rows := make([]list.Item, len(msg.items))
	for i, item := range msg.items {
		rows[i] = catalogRow{item}
	}
	return m.list.AppendItems(rows...)
}

func (m *Model) startFollow() tea.Cmd {
	if !m.follow || m.follower != nil {
		return nil
	}
	offset, read := m.file.Offset()
	f, err := source.Follow(m.file.Path(), offset, read, m.poll)
	if err != nil {
		m.err = err
		slog.Error("Failed to follow file", "path", m.file.Path(), "error", err)
		return nil
	}
	m.follower = f
	return m.waitFollow()
}

func (m *Model) waitFollow() tea.Cmd {
	f, ctx := m.follower, m.ctx
	return func() tea.Msg {
		line, err := f.Wait(ctx)
		return followMsg{line: line, err: err}
	}
}

func (m *Model) handleFollow(msg followMsg) tea.Cmd {
	if msg.err != nil {
		if !errors.Is(msg.err, context.Canceled) && !errors.Is(msg.err, io.EOF) {
			m.err = msg.err
			slog.Error("Stopped following file", "error", msg.err)
		}
		return nil
	}
	line := msg.line
	if m.highlighter != nil {
		line.Styled = m.highlighter.Line(line.Text)
	}
	m.lines = append(m.lines, line)
	cmds := []tea.Cmd{m.waitFollow()}
	if len(source.Filter(m.pattern, []source.Line{line})) == 0 {
		return tea.Batch(cmds...)
	}
	atBottom := m.list.SelectedIndex() == m.list.Len()-1
	cmds = append(cmds, m.list.AppendItems(line))
	if atBottom {
		cmds = append(cmds, m.list.GoToBottom())
	}
	return tea.Batch(cmds...)
}

func (m *Model) deleteItem(index int, id string) tea.Cmd {
	svc, ctx := m.catalog, m.ctx
	return func() tea.Msg {
		return deletedMsg{index: index, err: svc.Delete(ctx, id)}
	}
}

func (m *Model) handleDeleted(msg deletedMsg) tea.Cmd {
	if msg.err != nil {
		m.err = msg.err
		slog.Error("Failed to delete catalog item", "index", msg.index, "error", msg.err)
		return nil
	}
	items := m.list.Items()
	if msg.index < 0 || msg.index >= len(items) {
		return nil
	}
	items = slices.Delete(slices.Clone(items), msg.index, msg.index+1)
	m.loaded--
	m.status = "deleted 1 item"
	cmds := []tea.Cmd{m.list.SetItems(items)}
	if len(items) > 0 {
		cmds = append(cmds, m.list.Select(min(msg.index, len(items)-1)))
	}
	return tea.Batch(cmds...)
}

// Close stops loading and following.
func (m *Model) Close() {
	m.cancel()
	if m.follower != nil {
		if err := m.follower.Stop(); err != nil {
			slog.Debug("Failed to stop follower", "error", err)
		}
		m.follower = nil
	}
	m.list.Close()
}

var (
	statusStyle = lipgloss.NewStyle().Foreground(charmtone.Squid)
	accentStyle = lipgloss.NewStyle().Foreground(charmtone.Charple).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(charmtone.Sriracha)
)

func (m *Model) statusView() string {
	if m.filtering {
		return m.input.View()
	}
	var left string
	switch {
	case m.file != nil:
		left = fmt.Sprintf("%s · %d lines", filepath.Base(m.file.Path()), len(m.lines))
	case m.catalog != nil:
		left = fmt.Sprintf("catalog · %d items", m.loaded)
	}
	if m.pattern != "" {
		left += fmt.Sprintf(" · /%s %d matches", m.pattern, m.list.Len())
	}
	parts := []string{}
	if m.list.Len() > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d", m.list.SelectedIndex()+1, m.list.Len()))
	}
	if m.loading {
		parts = append(parts, "loading…")
	} else if !m.exhausted {
		parts = append(parts, "more")
	}
	if m.follower != nil {
		parts = append(parts, "following")
	}
	if m.scrolling {
		parts = append(parts, accentStyle.Render("scrolling"))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	if m.err != nil {
		parts = append(parts, errorStyle.Render(m.err.Error()))
	}
	right := strings.Join(parts, " · ")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return ansi.Truncate(statusStyle.Render(left)+strings.Repeat(" ", gap)+right, m.width, "…")
}

func (m *Model) render() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if m.confirm != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.confirm.View())
	}
	listHeight := max(m.height-chromeHeight, 0)
	body := lipgloss.NewStyle().Height(listHeight).Render(m.list.View())
	return lipgloss.JoinVertical(
		lipgloss.Left,
		body,
		m.statusView(),
		ansi.Truncate(m.help.View(m.keyMap), m.width, "…"),
	)
}

func (m *Model) View() tea.View {
	return tea.NewView(m.render())
}

// Lines returns the lines loaded so far, in file mode.
func (m *Model) Lines() []source.Line {
	return m.lines
}

// Exhausted reports whether every page was loaded.
func (m *Model) Exhausted() bool {
	return m.exhausted
}
